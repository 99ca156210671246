package models

import "time"

type UserShort struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type ItemShort struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Available   bool   `json:"available"`
	OwnerID     int64  `json:"ownerId"`
	RequestID   *int64 `json:"requestId,omitempty"`
}

// BookingView is a booking with snapshots of its item and booker.
type BookingView struct {
	ID     int64         `json:"id"`
	Start  time.Time     `json:"start"`
	End    time.Time     `json:"end"`
	Status BookingStatus `json:"status"`
	Item   ItemShort     `json:"item"`
	Booker UserShort     `json:"booker"`
}

type BookingShort struct {
	ID       int64     `json:"id"`
	BookerID int64     `json:"bookerId"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
}

type CommentView struct {
	ID         int64     `json:"id"`
	Text       string    `json:"text"`
	AuthorName string    `json:"authorName"`
	Created    time.Time `json:"created"`
}

// ItemView is an item as shown to a caller. Last and next bookings are only
// filled in for the owner.
type ItemView struct {
	ID          int64         `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Available   bool          `json:"available"`
	RequestID   *int64        `json:"requestId,omitempty"`
	LastBooking *BookingShort `json:"lastBooking"`
	NextBooking *BookingShort `json:"nextBooking"`
	Comments    []CommentView `json:"comments"`
}

type ItemRequestView struct {
	ID          int64       `json:"id"`
	Description string      `json:"description"`
	RequesterID int64       `json:"requesterId"`
	Created     time.Time   `json:"created"`
	Items       []ItemShort `json:"items"`
}

func NewUserShort(u *User) UserShort {
	return UserShort{ID: u.ID, Name: u.Name}
}

func NewItemShort(i *Item) ItemShort {
	return ItemShort{
		ID:          i.ID,
		Name:        i.Name,
		Description: i.Description,
		Available:   i.Available,
		OwnerID:     i.OwnerID,
		RequestID:   i.RequestID,
	}
}

func NewBookingView(b *Booking, item *Item, booker *User) *BookingView {
	return &BookingView{
		ID:     b.ID,
		Start:  b.Start,
		End:    b.End,
		Status: b.Status,
		Item:   NewItemShort(item),
		Booker: NewUserShort(booker),
	}
}

func NewBookingShort(b *Booking) *BookingShort {
	if b == nil {
		return nil
	}
	return &BookingShort{ID: b.ID, BookerID: b.BookerID, Start: b.Start, End: b.End}
}

func NewItemView(i *Item) *ItemView {
	return &ItemView{
		ID:          i.ID,
		Name:        i.Name,
		Description: i.Description,
		Available:   i.Available,
		RequestID:   i.RequestID,
		Comments:    []CommentView{},
	}
}
