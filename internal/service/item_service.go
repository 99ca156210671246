package service

import (
	"context"
	"strings"
	"time"

	"shareit/internal/clock"
	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

type ItemService struct {
	repo   domain.Repository
	clock  clock.Clock
	logger *zerolog.Logger
}

func NewItemService(repo domain.Repository, clk clock.Clock, logger *zerolog.Logger) *ItemService {
	return &ItemService{repo: repo, clock: clk, logger: logger}
}

func (s *ItemService) AddItem(ctx context.Context, ownerID int64, item *models.Item) (*models.Item, error) {
	if _, err := s.repo.GetUser(ctx, ownerID); err != nil {
		return nil, err
	}
	if item.RequestID != nil {
		if _, err := s.repo.GetRequest(ctx, *item.RequestID); err != nil {
			return nil, err
		}
	}

	item.ID = 0
	item.OwnerID = ownerID
	if err := s.repo.CreateItem(ctx, item); err != nil {
		return nil, err
	}
	s.logger.Debug().Int64("item_id", item.ID).Int64("owner_id", ownerID).Msg("item created")
	return item, nil
}

// UpdateItem applies patch on behalf of the owner. Other callers see NotFound.
func (s *ItemService) UpdateItem(ctx context.Context, ownerID, itemID int64, patch models.ItemPatch) (*models.Item, error) {
	item, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.OwnerID != ownerID {
		return nil, domain.NotFound("item %d not found for user %d", itemID, ownerID)
	}

	patch.Apply(item)
	if err := s.repo.UpdateItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *ItemService) GetItem(ctx context.Context, callerID, itemID int64) (*models.ItemView, error) {
	item, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	comments, err := s.commentViews(ctx, []int64{itemID})
	if err != nil {
		return nil, err
	}

	view := models.NewItemView(item)
	view.Comments = append(view.Comments, comments[itemID]...)

	if item.OwnerID == callerID {
		now := s.clock.Now()
		bookings, err := s.repo.ListBookings(ctx, models.BookingFilter{ItemID: itemID, Now: now})
		if err != nil {
			return nil, err
		}
		last, next := lastAndNext(bookings, now)
		view.LastBooking = models.NewBookingShort(last)
		view.NextBooking = models.NewBookingShort(next)
	}
	return view, nil
}

// ListItems returns the owner's items by id with comments and
// last/next bookings filled in.
func (s *ItemService) ListItems(ctx context.Context, ownerID int64, from, size int) ([]*models.ItemView, error) {
	if _, err := s.repo.GetUser(ctx, ownerID); err != nil {
		return nil, err
	}
	page, ok, err := newPage(from, size)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []*models.ItemView{}, nil
	}

	items, err := s.repo.ListItems(ctx, ownerID, page)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return []*models.ItemView{}, nil
	}

	ids := make([]int64, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	comments, err := s.commentViews(ctx, ids)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	bookings, err := s.repo.ListBookings(ctx, models.BookingFilter{OwnerID: ownerID, Now: now})
	if err != nil {
		return nil, err
	}
	byItem := make(map[int64][]*models.Booking)
	for _, b := range bookings {
		byItem[b.ItemID] = append(byItem[b.ItemID], b)
	}

	views := make([]*models.ItemView, 0, len(items))
	for _, item := range items {
		view := models.NewItemView(item)
		view.Comments = append(view.Comments, comments[item.ID]...)
		last, next := lastAndNext(byItem[item.ID], now)
		view.LastBooking = models.NewBookingShort(last)
		view.NextBooking = models.NewBookingShort(next)
		views = append(views, view)
	}
	return views, nil
}

// SearchItems matches available items by text. Blank text finds nothing.
func (s *ItemService) SearchItems(ctx context.Context, text string, from, size int) ([]*models.Item, error) {
	page, ok, err := newPage(from, size)
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if !ok || text == "" {
		return []*models.Item{}, nil
	}
	return s.repo.SearchItems(ctx, text, page)
}

func (s *ItemService) commentViews(ctx context.Context, itemIDs []int64) (map[int64][]models.CommentView, error) {
	comments, err := s.repo.ListCommentsByItems(ctx, itemIDs)
	if err != nil {
		return nil, err
	}

	authors := make(map[int64]string)
	out := make(map[int64][]models.CommentView, len(itemIDs))
	for _, c := range comments {
		name, ok := authors[c.AuthorID]
		if !ok {
			author, err := s.repo.GetUser(ctx, c.AuthorID)
			if err != nil {
				return nil, err
			}
			name = author.Name
			authors[c.AuthorID] = name
		}
		out[c.ItemID] = append(out[c.ItemID], models.CommentView{
			ID:         c.ID,
			Text:       c.Text,
			AuthorName: name,
			Created:    c.CreatedAt,
		})
	}
	return out, nil
}

// lastAndNext picks the latest approved booking that has started and the
// earliest approved booking that has not.
func lastAndNext(bookings []*models.Booking, now time.Time) (last, next *models.Booking) {
	for _, b := range bookings {
		if b.Status != models.StatusApproved {
			continue
		}
		switch {
		case b.Start.Before(now):
			if last == nil || b.Start.After(last.Start) {
				last = b
			}
		case b.Start.After(now):
			if next == nil || b.Start.Before(next.Start) {
				next = b
			}
		}
	}
	return last, next
}
