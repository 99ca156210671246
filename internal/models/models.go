package models

import "time"

type Comment struct {
	ID        int64     `json:"id"`
	ItemID    int64     `json:"itemId"`
	AuthorID  int64     `json:"authorId"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created"`
}

type ItemRequest struct {
	ID          int64     `yaml:"id" json:"id"`
	Description string    `yaml:"description" json:"description"`
	RequesterID int64     `yaml:"requester_id" json:"requesterId"`
	CreatedAt   time.Time `yaml:"-" json:"created"`
}

// Page is an offset/limit window. Limit 0 means no limit.
type Page struct {
	Offset int
	Limit  int
}

// NewPage builds a window from the API's from/size pair.
func NewPage(from, size int) Page {
	if from < 0 {
		from = 0
	}
	if size < 0 {
		size = 0
	}
	return Page{Offset: from, Limit: size}
}

// Unbounded reports whether the window has no limit.
func (p Page) Unbounded() bool {
	return p.Limit == 0
}

// Slice cuts list down to the window.
func Slice[T any](list []T, p Page) []T {
	if p.Offset >= len(list) {
		return []T{}
	}
	list = list[p.Offset:]
	if !p.Unbounded() && p.Limit < len(list) {
		list = list[:p.Limit]
	}
	return list
}

// BookingFilter drives booking listings in every store. Zero ids match any
// value. Results are ordered by start descending, then id descending.
type BookingFilter struct {
	BookerID int64
	OwnerID  int64
	ItemID   int64
	State    BookingState
	Now      time.Time
	Page     Page
}

// Match applies the id constraints and the state predicate. ownerID is the
// owner of b's item.
func (f BookingFilter) Match(b *Booking, ownerID int64) bool {
	if f.BookerID != 0 && b.BookerID != f.BookerID {
		return false
	}
	if f.OwnerID != 0 && ownerID != f.OwnerID {
		return false
	}
	if f.ItemID != 0 && b.ItemID != f.ItemID {
		return false
	}
	state := f.State
	if state == "" {
		state = StateAll
	}
	return state.Matches(b, f.Now)
}
