package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"shareit/internal/config"
	"shareit/internal/domain"
	"shareit/internal/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	requestIDHeader = "X-Request-Id"
	userIDHeader    = "X-Sharer-User-Id"
)

var (
	errMissingCaller = errors.New("missing " + userIDHeader + " header")
	errInvalidCaller = errors.New("invalid " + userIDHeader + " header")
)

// callerID reads the acting user from X-Sharer-User-Id.
func callerID(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(r.Header.Get(userIDHeader))
	if raw == "" {
		return 0, errMissingCaller
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidCaller
	}
	return id, nil
}

// requestLogger tags every request with an id and attaches a child logger
// to the request context.
func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := r.Header.Get(requestIDHeader)
			if reqID == "" {
				reqID = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, reqID)

			l := logger.With().Str("request_id", reqID).Logger()
			ctx := l.WithContext(r.Context())

			start := time.Now()
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(recorder, r.WithContext(ctx))

			endpoint := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					endpoint = r.Method + " " + pattern
				}
			}
			metrics.IncHTTP(endpoint)

			l.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", recorder.status).
				Dur("duration", time.Since(start)).
				Msg("http request")
		})
	}
}

// userThrottle caps requests per X-Sharer-User-Id in a fixed window.
// Counter store failures let the request through.
func userThrottle(cfg config.APIUserRateLimitConfig, throttle domain.ThrottleRepository, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if throttle == nil || cfg.Requests <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := callerID(r)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			allowed, err := throttle.CheckRateLimit(r.Context(), userID, cfg.Requests, cfg.Window)
			if err != nil {
				logger.Warn().Err(err).Int64("user_id", userID).Msg("throttle check failed")
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				metrics.IncThrottled()
				writeError(w, http.StatusTooManyRequests, "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
