package api

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"shareit/internal/models"

	"github.com/go-chi/chi/v5"
)

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, &validationError{message: "invalid id", details: map[string]string{"id": chi.URLParam(r, "id")}}
	}
	return id, nil
}

// page reads from/size with the configured defaults and bounds.
func (s *HTTPServer) page(r *http.Request) (from, size int, err error) {
	if from, err = parseQueryInt(r, "from", 0, 0, math.MaxInt32); err != nil {
		return 0, 0, err
	}
	if size, err = parseQueryInt(r, "size", s.cfg.Pagination.DefaultSize, 1, s.cfg.Pagination.MaxSize); err != nil {
		return 0, 0, err
	}
	return from, size, nil
}

// fail writes err with the status that matches its origin.
func (s *HTTPServer) fail(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validationError
	switch {
	case errors.As(err, &verr):
		writeValidationError(w, verr)
	case errors.Is(err, errMissingCaller), errors.Is(err, errInvalidCaller):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeServiceError(w, r, &s.logger, err)
	}
}

// Health

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{"status": "ok", "storage": "ok", "throttle": "ok"}
	code := http.StatusOK

	if s.deps.Storage != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.Storage.Ping(ctx); err != nil {
			resp["status"] = "unavailable"
			resp["storage"] = err.Error()
			code = http.StatusServiceUnavailable
		}
	}
	if d, ok := s.deps.Throttle.(interface{ Degraded() bool }); ok && d.Degraded() {
		resp["throttle"] = "degraded"
	}

	writeJSON(w, code, resp)
}

// Users

func (s *HTTPServer) handleAddUser(w http.ResponseWriter, r *http.Request) {
	var body userRequest
	if err := decodeJSONBody(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}

	user, err := s.deps.Users.AddUser(r.Context(), &models.User{Name: body.Name, Email: body.Email})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *HTTPServer) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var body userPatchRequest
	if err := decodeJSONBody(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}

	user, err := s.deps.Users.UpdateUser(r.Context(), id, models.UserPatch{Name: body.Name, Email: body.Email})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *HTTPServer) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	user, err := s.deps.Users.GetUser(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *HTTPServer) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.deps.Users.ListUsers(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *HTTPServer) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.deps.Users.DeleteUser(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// Items

func (s *HTTPServer) handleAddItem(w http.ResponseWriter, r *http.Request) {
	ownerID, err := callerID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var body itemRequest
	if err := decodeJSONBody(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}

	item, err := s.deps.Items.AddItem(r.Context(), ownerID, body.model())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *HTTPServer) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	ownerID, err := callerID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	itemID, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var body itemPatchRequest
	if err := decodeJSONBody(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}

	item, err := s.deps.Items.UpdateItem(r.Context(), ownerID, itemID, body.patch())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *HTTPServer) handleGetItem(w http.ResponseWriter, r *http.Request) {
	caller, err := callerID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	itemID, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	view, err := s.deps.Items.GetItem(r.Context(), caller, itemID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *HTTPServer) handleListItems(w http.ResponseWriter, r *http.Request) {
	ownerID, err := callerID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	from, size, err := s.page(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	views, err := s.deps.Items.ListItems(r.Context(), ownerID, from, size)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *HTTPServer) handleSearchItems(w http.ResponseWriter, r *http.Request) {
	from, size, err := s.page(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	items, err := s.deps.Items.SearchItems(r.Context(), r.URL.Query().Get("text"), from, size)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *HTTPServer) handleAddComment(w http.ResponseWriter, r *http.Request) {
	authorID, err := callerID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	itemID, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var body commentRequest
	if err := decodeJSONBody(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}

	view, err := s.deps.Comments.AddComment(r.Context(), authorID, itemID, body.Text)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Bookings

func (s *HTTPServer) handleAddBooking(w http.ResponseWriter, r *http.Request) {
	bookerID, err := callerID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var body bookingRequest
	if err := decodeJSONBody(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}

	view, err := s.deps.Bookings.AddBooking(r.Context(), bookerID, body.ItemID, body.Start.Time, body.End.Time)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *HTTPServer) handlePatchBooking(w http.ResponseWriter, r *http.Request) {
	caller, err := callerID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	bookingID, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	raw := strings.TrimSpace(r.URL.Query().Get("approved"))
	approved, err := strconv.ParseBool(raw)
	if err != nil {
		s.fail(w, r, &validationError{message: "approved must be true or false", details: map[string]string{"approved": raw}})
		return
	}

	view, err := s.deps.Bookings.PatchBooking(r.Context(), bookingID, caller, approved)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *HTTPServer) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	caller, err := callerID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	bookingID, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	view, err := s.deps.Bookings.GetBooking(r.Context(), bookingID, caller)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type bookingLister func(ctx context.Context, userID int64, state string, from, size int) ([]*models.BookingView, error)

func (s *HTTPServer) listBookings(w http.ResponseWriter, r *http.Request, list bookingLister) {
	userID, err := callerID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	from, size, err := s.page(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	state := r.URL.Query().Get("state")
	if state == "" {
		state = string(models.StateAll)
	}

	views, err := list(r.Context(), userID, state, from, size)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *HTTPServer) handleUserBookings(w http.ResponseWriter, r *http.Request) {
	s.listBookings(w, r, s.deps.Bookings.GetUserBookingList)
}

func (s *HTTPServer) handleOwnerBookings(w http.ResponseWriter, r *http.Request) {
	s.listBookings(w, r, s.deps.Bookings.GetOwnerBookingList)
}

// Requests

func (s *HTTPServer) handleAddRequest(w http.ResponseWriter, r *http.Request) {
	requesterID, err := callerID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var body itemRequestRequest
	if err := decodeJSONBody(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}

	view, err := s.deps.Requests.AddRequest(r.Context(), requesterID, body.Description)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *HTTPServer) handleOwnRequests(w http.ResponseWriter, r *http.Request) {
	requesterID, err := callerID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	views, err := s.deps.Requests.GetOwnRequests(r.Context(), requesterID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *HTTPServer) handleOtherRequests(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	from, size, err := s.page(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	views, err := s.deps.Requests.GetOtherRequests(r.Context(), userID, from, size)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *HTTPServer) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	requestID, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	view, err := s.deps.Requests.GetRequest(r.Context(), userID, requestID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
