package service

import (
	"context"
	"strings"
	"time"

	"shareit/internal/clock"
	"shareit/internal/domain"
	"shareit/internal/events"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

type CommentService struct {
	repo     domain.Repository
	clock    clock.Clock
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewCommentService(repo domain.Repository, clk clock.Clock, eventBus domain.EventPublisher, logger *zerolog.Logger) *CommentService {
	return &CommentService{repo: repo, clock: clk, eventBus: eventBus, logger: logger}
}

// AddComment accepts a comment once the author has at least one booking on
// the item that has ended. Booking status is not considered.
func (s *CommentService) AddComment(ctx context.Context, authorID, itemID int64, text string) (*models.CommentView, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.InvalidState("comment text is empty")
	}

	author, err := s.repo.GetUser(ctx, authorID)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.GetItem(ctx, itemID); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	onItem, err := s.repo.ListBookings(ctx, models.BookingFilter{ItemID: itemID, Now: now, Page: models.Page{Limit: 1}})
	if err != nil {
		return nil, err
	}
	if len(onItem) == 0 {
		return nil, domain.InvalidState("item has no bookings")
	}

	own, err := s.repo.ListBookings(ctx, models.BookingFilter{ItemID: itemID, BookerID: authorID, Now: now})
	if err != nil {
		return nil, err
	}
	if !anyEnded(own, now) {
		return nil, domain.InvalidState("comment cannot be left for a future booking")
	}

	comment := &models.Comment{ItemID: itemID, AuthorID: authorID, Text: text, CreatedAt: now}
	if err := s.repo.CreateComment(ctx, comment); err != nil {
		return nil, err
	}

	if s.eventBus != nil {
		payload := events.CommentEventPayload{CommentID: comment.ID, ItemID: itemID, AuthorID: authorID, Text: text}
		if err := s.eventBus.PublishJSON(events.EventCommentAdded, payload); err != nil {
			s.logger.Error().Err(err).Int64("comment_id", comment.ID).Msg("publish event error")
		}
	}

	return &models.CommentView{
		ID:         comment.ID,
		Text:       comment.Text,
		AuthorName: author.Name,
		Created:    comment.CreatedAt,
	}, nil
}

func anyEnded(bookings []*models.Booking, now time.Time) bool {
	for _, b := range bookings {
		if b.HasEnded(now) {
			return true
		}
	}
	return false
}
