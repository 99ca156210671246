package domain

import (
	"context"
	"time"

	"shareit/internal/models"
)

type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	UpdateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id int64) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	DeleteUser(ctx context.Context, id int64) error
}

type ItemRepository interface {
	CreateItem(ctx context.Context, item *models.Item) error
	UpdateItem(ctx context.Context, item *models.Item) error
	GetItem(ctx context.Context, id int64) (*models.Item, error)
	// ListItems returns items ordered by id. ownerID 0 lists every item.
	ListItems(ctx context.Context, ownerID int64, page models.Page) ([]*models.Item, error)
	// SearchItems matches available items by name or description, case-insensitively.
	SearchItems(ctx context.Context, text string, page models.Page) ([]*models.Item, error)
	ListItemsByRequests(ctx context.Context, requestIDs []int64) ([]*models.Item, error)
}

type BookingRepository interface {
	// CreateBookingWithLock inserts a WAITING booking only if, within the same
	// unit of work, the item is still available and not owned by the booker.
	CreateBookingWithLock(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	// UpdateBookingStatusWithVersion succeeds only while the stored version
	// still equals version; otherwise it returns ErrConcurrentModification.
	UpdateBookingStatusWithVersion(ctx context.Context, id, version int64, status models.BookingStatus) error
	ListBookings(ctx context.Context, filter models.BookingFilter) ([]*models.Booking, error)
}

type CommentRepository interface {
	CreateComment(ctx context.Context, comment *models.Comment) error
	ListCommentsByItems(ctx context.Context, itemIDs []int64) ([]*models.Comment, error)
}

type RequestRepository interface {
	CreateRequest(ctx context.Context, req *models.ItemRequest) error
	GetRequest(ctx context.Context, id int64) (*models.ItemRequest, error)
	// ListRequests returns requests newest first. With exclude set, requests
	// by requesterID are skipped instead of selected.
	ListRequests(ctx context.Context, requesterID int64, exclude bool, page models.Page) ([]*models.ItemRequest, error)
}

// Repository is the storage contract shared by the in-memory and SQLite stores.
// Get* methods return an error wrapping ErrNotFound for missing rows.
type Repository interface {
	UserRepository
	ItemRepository
	BookingRepository
	CommentRepository
	RequestRepository
	Ping(ctx context.Context) error
	Close() error
}

// ThrottleRepository counts requests per caller within a fixed window.
type ThrottleRepository interface {
	CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type UserService interface {
	AddUser(ctx context.Context, user *models.User) (*models.User, error)
	UpdateUser(ctx context.Context, id int64, patch models.UserPatch) (*models.User, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	DeleteUser(ctx context.Context, id int64) error
}

type ItemService interface {
	AddItem(ctx context.Context, ownerID int64, item *models.Item) (*models.Item, error)
	UpdateItem(ctx context.Context, ownerID, itemID int64, patch models.ItemPatch) (*models.Item, error)
	GetItem(ctx context.Context, callerID, itemID int64) (*models.ItemView, error)
	ListItems(ctx context.Context, ownerID int64, from, size int) ([]*models.ItemView, error)
	SearchItems(ctx context.Context, text string, from, size int) ([]*models.Item, error)
}

type BookingService interface {
	AddBooking(ctx context.Context, bookerID, itemID int64, start, end time.Time) (*models.BookingView, error)
	PatchBooking(ctx context.Context, bookingID, callerID int64, approved bool) (*models.BookingView, error)
	GetBooking(ctx context.Context, bookingID, callerID int64) (*models.BookingView, error)
	GetUserBookingList(ctx context.Context, userID int64, state string, from, size int) ([]*models.BookingView, error)
	GetOwnerBookingList(ctx context.Context, ownerID int64, state string, from, size int) ([]*models.BookingView, error)
}

type CommentService interface {
	AddComment(ctx context.Context, authorID, itemID int64, text string) (*models.CommentView, error)
}

type RequestService interface {
	AddRequest(ctx context.Context, requesterID int64, description string) (*models.ItemRequestView, error)
	GetOwnRequests(ctx context.Context, requesterID int64) ([]*models.ItemRequestView, error)
	GetOtherRequests(ctx context.Context, userID int64, from, size int) ([]*models.ItemRequestView, error)
	GetRequest(ctx context.Context, userID, requestID int64) (*models.ItemRequestView, error)
}
