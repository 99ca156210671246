package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"shareit/internal/domain"
	"shareit/internal/models"
)

// MemoryStore keeps every entity in maps behind one lock. Each method is a
// single unit of work, so guarded inserts and versioned updates are atomic.
type MemoryStore struct {
	mu sync.RWMutex

	users    map[int64]*models.User
	items    map[int64]*models.Item
	bookings map[int64]*models.Booking
	comments map[int64]*models.Comment
	requests map[int64]*models.ItemRequest

	nextID map[string]int64
	now    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[int64]*models.User),
		items:    make(map[int64]*models.Item),
		bookings: make(map[int64]*models.Booking),
		comments: make(map[int64]*models.Comment),
		requests: make(map[int64]*models.ItemRequest),
		nextID:   make(map[string]int64),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

var _ domain.Repository = (*MemoryStore)(nil)

func (s *MemoryStore) id(table string) int64 {
	s.nextID[table]++
	return s.nextID[table]
}

func (s *MemoryStore) Ping(ctx context.Context) error { return ctx.Err() }

func (s *MemoryStore) Close() error { return nil }

// Users

func (s *MemoryStore) emailTaken(email string, exceptID int64) bool {
	for _, u := range s.users {
		if u.ID != exceptID && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

func (s *MemoryStore) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.emailTaken(user.Email, 0) {
		return domain.InvalidState("email %s is already in use", user.Email)
	}
	now := s.now()
	user.ID = s.id("users")
	user.CreatedAt, user.UpdatedAt = now, now
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *MemoryStore) UpdateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.users[user.ID]
	if !ok {
		return domain.NotFound("user %d not found", user.ID)
	}
	if s.emailTaken(user.Email, user.ID) {
		return domain.InvalidState("email %s is already in use", user.Email)
	}
	user.CreatedAt = stored.CreatedAt
	user.UpdatedAt = s.now()
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *MemoryStore) GetUser(ctx context.Context, id int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, domain.NotFound("user %d not found", id)
	}
	cp := *u
	return &cp, nil
}

func (s *MemoryStore) ListUsers(ctx context.Context) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.User, 0, len(s.users))
	for _, u := range s.users {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// DeleteUser removes the user together with everything they own or authored.
func (s *MemoryStore) DeleteUser(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return domain.NotFound("user %d not found", id)
	}
	for itemID, item := range s.items {
		if item.OwnerID == id {
			s.deleteItemLocked(itemID)
		}
	}
	for bookingID, b := range s.bookings {
		if b.BookerID == id {
			delete(s.bookings, bookingID)
		}
	}
	for commentID, c := range s.comments {
		if c.AuthorID == id {
			delete(s.comments, commentID)
		}
	}
	for reqID, r := range s.requests {
		if r.RequesterID == id {
			s.deleteRequestLocked(reqID)
		}
	}
	delete(s.users, id)
	return nil
}

func (s *MemoryStore) deleteItemLocked(itemID int64) {
	for bookingID, b := range s.bookings {
		if b.ItemID == itemID {
			delete(s.bookings, bookingID)
		}
	}
	for commentID, c := range s.comments {
		if c.ItemID == itemID {
			delete(s.comments, commentID)
		}
	}
	delete(s.items, itemID)
}

func (s *MemoryStore) deleteRequestLocked(reqID int64) {
	for _, item := range s.items {
		if item.RequestID != nil && *item.RequestID == reqID {
			item.RequestID = nil
		}
	}
	delete(s.requests, reqID)
}

// Items

func copyItem(i *models.Item) *models.Item {
	cp := *i
	if i.RequestID != nil {
		rid := *i.RequestID
		cp.RequestID = &rid
	}
	return &cp
}

func (s *MemoryStore) CreateItem(ctx context.Context, item *models.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[item.OwnerID]; !ok {
		return domain.NotFound("user %d not found", item.OwnerID)
	}
	if item.RequestID != nil {
		if _, ok := s.requests[*item.RequestID]; !ok {
			return domain.NotFound("request %d not found", *item.RequestID)
		}
	}
	now := s.now()
	item.ID = s.id("items")
	item.CreatedAt, item.UpdatedAt = now, now
	s.items[item.ID] = copyItem(item)
	return nil
}

func (s *MemoryStore) UpdateItem(ctx context.Context, item *models.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.items[item.ID]
	if !ok {
		return domain.NotFound("item %d not found", item.ID)
	}
	stored.Name = item.Name
	stored.Description = item.Description
	stored.Available = item.Available
	stored.UpdatedAt = s.now()
	item.UpdatedAt = stored.UpdatedAt
	return nil
}

func (s *MemoryStore) GetItem(ctx context.Context, id int64) (*models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return nil, domain.NotFound("item %d not found", id)
	}
	return copyItem(item), nil
}

func (s *MemoryStore) collectItems(keep func(*models.Item) bool) []*models.Item {
	out := make([]*models.Item, 0)
	for _, item := range s.items {
		if keep(item) {
			out = append(out, copyItem(item))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *MemoryStore) ListItems(ctx context.Context, ownerID int64, page models.Page) ([]*models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := s.collectItems(func(i *models.Item) bool {
		return ownerID == 0 || i.OwnerID == ownerID
	})
	return models.Slice(out, page), nil
}

func (s *MemoryStore) SearchItems(ctx context.Context, text string, page models.Page) ([]*models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := s.collectItems(func(i *models.Item) bool {
		return i.Available && i.MatchesText(text)
	})
	return models.Slice(out, page), nil
}

func (s *MemoryStore) ListItemsByRequests(ctx context.Context, requestIDs []int64) ([]*models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[int64]struct{}, len(requestIDs))
	for _, id := range requestIDs {
		wanted[id] = struct{}{}
	}
	return s.collectItems(func(i *models.Item) bool {
		if i.RequestID == nil {
			return false
		}
		_, ok := wanted[*i.RequestID]
		return ok
	}), nil
}

// Bookings

func (s *MemoryStore) CreateBookingWithLock(ctx context.Context, booking *models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[booking.ItemID]
	if !ok {
		return domain.NotFound("item %d not found", booking.ItemID)
	}
	if !item.Available || item.OwnerID == booking.BookerID {
		return domain.NotAvailable("item %d is not available for booking", booking.ItemID)
	}

	now := s.now()
	booking.ID = s.id("bookings")
	booking.Status = models.StatusWaiting
	booking.Version = 1
	booking.CreatedAt, booking.UpdatedAt = now, now
	cp := *booking
	s.bookings[booking.ID] = &cp
	return nil
}

func (s *MemoryStore) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bookings[id]
	if !ok {
		return nil, domain.NotFound("booking %d not found", id)
	}
	cp := *b
	return &cp, nil
}

func (s *MemoryStore) UpdateBookingStatusWithVersion(ctx context.Context, id, version int64, status models.BookingStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[id]
	if !ok {
		return domain.NotFound("booking %d not found", id)
	}
	if b.Version != version {
		return domain.ErrConcurrentModification
	}
	b.Status = status
	b.Version++
	b.UpdatedAt = s.now()
	return nil
}

func (s *MemoryStore) ListBookings(ctx context.Context, filter models.BookingFilter) ([]*models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Booking, 0)
	for _, b := range s.bookings {
		var ownerID int64
		if item, ok := s.items[b.ItemID]; ok {
			ownerID = item.OwnerID
		}
		if filter.Match(b, ownerID) {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.After(out[j].Start)
		}
		return out[i].ID > out[j].ID
	})
	return models.Slice(out, filter.Page), nil
}

// Comments

func (s *MemoryStore) CreateComment(ctx context.Context, comment *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[comment.ItemID]; !ok {
		return domain.NotFound("item %d not found", comment.ItemID)
	}
	comment.ID = s.id("comments")
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = s.now()
	}
	cp := *comment
	s.comments[comment.ID] = &cp
	return nil
}

func (s *MemoryStore) ListCommentsByItems(ctx context.Context, itemIDs []int64) ([]*models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[int64]struct{}, len(itemIDs))
	for _, id := range itemIDs {
		wanted[id] = struct{}{}
	}
	out := make([]*models.Comment, 0)
	for _, c := range s.comments {
		if _, ok := wanted[c.ItemID]; ok {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Requests

func (s *MemoryStore) CreateRequest(ctx context.Context, req *models.ItemRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[req.RequesterID]; !ok {
		return domain.NotFound("user %d not found", req.RequesterID)
	}
	req.ID = s.id("requests")
	if req.CreatedAt.IsZero() {
		req.CreatedAt = s.now()
	}
	cp := *req
	s.requests[req.ID] = &cp
	return nil
}

func (s *MemoryStore) GetRequest(ctx context.Context, id int64) (*models.ItemRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.requests[id]
	if !ok {
		return nil, domain.NotFound("request %d not found", id)
	}
	cp := *r
	return &cp, nil
}

func (s *MemoryStore) ListRequests(ctx context.Context, requesterID int64, exclude bool, page models.Page) ([]*models.ItemRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.ItemRequest, 0)
	for _, r := range s.requests {
		if (r.RequesterID == requesterID) != exclude {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return models.Slice(out, page), nil
}
