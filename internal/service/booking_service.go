package service

import (
	"context"
	"errors"
	"time"

	"shareit/internal/clock"
	"shareit/internal/domain"
	"shareit/internal/events"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

type BookingService struct {
	repo     domain.Repository
	clock    clock.Clock
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewBookingService(repo domain.Repository, clk clock.Clock, eventBus domain.EventPublisher, logger *zerolog.Logger) *BookingService {
	return &BookingService{
		repo:     repo,
		clock:    clk,
		eventBus: eventBus,
		logger:   logger,
	}
}

func (s *BookingService) AddBooking(ctx context.Context, bookerID, itemID int64, start, end time.Time) (*models.BookingView, error) {
	booker, err := s.repo.GetUser(ctx, bookerID)
	if err != nil {
		return nil, err
	}
	item, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	if !item.Available {
		return nil, domain.NotAvailable("item %d is not available", itemID)
	}
	if item.OwnerID == bookerID {
		return nil, domain.NotFound("owner cannot book own item %d", itemID)
	}
	if start.IsZero() || end.IsZero() {
		return nil, domain.InvalidState("booking start and end are required")
	}
	if !start.Before(end) {
		return nil, domain.InvalidState("booking start must be before end")
	}

	booking := &models.Booking{
		ItemID:   itemID,
		BookerID: bookerID,
		Start:    start,
		End:      end,
	}
	// guarded insert: availability and ownership are rechecked in the store
	if err := s.repo.CreateBookingWithLock(ctx, booking); err != nil {
		return nil, err
	}

	s.publishEvent(events.EventBookingCreated, booking, item.OwnerID)
	return models.NewBookingView(booking, item, booker), nil
}

// PatchBooking approves or rejects a waiting booking. Only the item owner
// may decide; anyone else gets NotFound.
func (s *BookingService) PatchBooking(ctx context.Context, bookingID, callerID int64, approved bool) (*models.BookingView, error) {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	item, err := s.repo.GetItem(ctx, booking.ItemID)
	if err != nil {
		return nil, err
	}
	if item.OwnerID != callerID {
		return nil, domain.NotFound("booking %d not found", bookingID)
	}

	next := models.DecisionStatus(approved)
	if !booking.Status.CanTransitionTo(next) {
		return nil, domain.InvalidState("booking status already decided: %s", booking.Status)
	}

	if err := s.repo.UpdateBookingStatusWithVersion(ctx, bookingID, booking.Version, next); err != nil {
		if errors.Is(err, domain.ErrConcurrentModification) {
			s.logger.Warn().Int64("booking_id", bookingID).Int64("version", booking.Version).Msg("booking decision lost race")
		}
		return nil, err
	}
	booking.Status = next
	booking.Version++

	booker, err := s.repo.GetUser(ctx, booking.BookerID)
	if err != nil {
		return nil, err
	}

	eventType := events.EventBookingRejected
	if approved {
		eventType = events.EventBookingApproved
	}
	s.publishEvent(eventType, booking, item.OwnerID)

	return models.NewBookingView(booking, item, booker), nil
}

// GetBooking is visible to the booker and the item owner only.
func (s *BookingService) GetBooking(ctx context.Context, bookingID, callerID int64) (*models.BookingView, error) {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	item, err := s.repo.GetItem(ctx, booking.ItemID)
	if err != nil {
		return nil, err
	}
	if callerID != booking.BookerID && callerID != item.OwnerID {
		return nil, domain.NotFound("booking %d not found", bookingID)
	}

	booker, err := s.repo.GetUser(ctx, booking.BookerID)
	if err != nil {
		return nil, err
	}
	return models.NewBookingView(booking, item, booker), nil
}

// GetUserBookingList lists bookings made by userID.
func (s *BookingService) GetUserBookingList(ctx context.Context, userID int64, state string, from, size int) ([]*models.BookingView, error) {
	return s.list(ctx, userID, state, from, size, func(f *models.BookingFilter) { f.BookerID = userID })
}

// GetOwnerBookingList lists bookings on items owned by ownerID.
func (s *BookingService) GetOwnerBookingList(ctx context.Context, ownerID int64, state string, from, size int) ([]*models.BookingView, error) {
	return s.list(ctx, ownerID, state, from, size, func(f *models.BookingFilter) { f.OwnerID = ownerID })
}

func (s *BookingService) list(ctx context.Context, userID int64, rawState string, from, size int, scope func(*models.BookingFilter)) ([]*models.BookingView, error) {
	if _, err := s.repo.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	state, ok := models.ParseBookingState(rawState)
	if !ok {
		return nil, domain.NotAvailable(models.UnsupportedStateMessage)
	}
	page, ok, err := newPage(from, size)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []*models.BookingView{}, nil
	}

	filter := models.BookingFilter{State: state, Now: s.clock.Now(), Page: page}
	scope(&filter)

	bookings, err := s.repo.ListBookings(ctx, filter)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, bookings)
}

func (s *BookingService) views(ctx context.Context, bookings []*models.Booking) ([]*models.BookingView, error) {
	items := make(map[int64]*models.Item)
	users := make(map[int64]*models.User)

	out := make([]*models.BookingView, 0, len(bookings))
	for _, b := range bookings {
		item, ok := items[b.ItemID]
		if !ok {
			var err error
			if item, err = s.repo.GetItem(ctx, b.ItemID); err != nil {
				return nil, err
			}
			items[b.ItemID] = item
		}
		booker, ok := users[b.BookerID]
		if !ok {
			var err error
			if booker, err = s.repo.GetUser(ctx, b.BookerID); err != nil {
				return nil, err
			}
			users[b.BookerID] = booker
		}
		out = append(out, models.NewBookingView(b, item, booker))
	}
	return out, nil
}

func (s *BookingService) publishEvent(eventType string, booking *models.Booking, ownerID int64) {
	if s.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID: booking.ID,
		BookerID:  booking.BookerID,
		ItemID:    booking.ItemID,
		OwnerID:   ownerID,
		Status:    string(booking.Status),
		Start:     booking.Start,
		End:       booking.End,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("booking_id", booking.ID).Msg("publish event error")
	}
}
