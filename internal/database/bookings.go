package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"shareit/internal/domain"
	"shareit/internal/models"
)

const bookingColumns = `b.id, b.item_id, b.booker_id, b.start_time, b.end_time, b.status, b.version, b.created_at, b.updated_at`

// CreateBookingWithLock inserts the booking only while the item is available
// and not owned by the booker. The guard and the insert are one statement
// inside one transaction.
func (db *DB) CreateBookingWithLock(ctx context.Context, booking *models.Booking) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `INSERT INTO bookings (item_id, booker_id, start_time, end_time, status, version, created_at, updated_at)
              SELECT ?, ?, ?, ?, ?, 1, ?, ?
              WHERE EXISTS (SELECT 1 FROM items WHERE id = ? AND available = 1 AND owner_id <> ?)`
	now := time.Now().UTC()
	result, err := tx.ExecContext(ctx, query,
		booking.ItemID,
		booking.BookerID,
		formatTime(booking.Start),
		formatTime(booking.End),
		models.StatusWaiting,
		formatTime(now),
		formatTime(now),
		booking.ItemID,
		booking.BookerID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert booking in tx: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected in tx: %w", err)
	}
	if n == 0 {
		ok, err := rowExists(ctx, tx, `SELECT EXISTS(SELECT 1 FROM items WHERE id = ?)`, booking.ItemID)
		if err != nil {
			return fmt.Errorf("failed to check item in tx: %w", err)
		}
		if !ok {
			return domain.NotFound("item %d not found", booking.ItemID)
		}
		return domain.NotAvailable("item %d is not available for booking", booking.ItemID)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id in tx: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit booking: %w", err)
	}

	booking.ID = id
	booking.Status = models.StatusWaiting
	booking.Version = 1
	booking.CreatedAt = now
	booking.UpdatedAt = now
	return nil
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings b WHERE b.id = ?`
	booking, err := scanBooking(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("booking %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return booking, nil
}

func (db *DB) UpdateBookingStatusWithVersion(ctx context.Context, id, version int64, status models.BookingStatus) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `UPDATE bookings SET status = ?, version = version + 1, updated_at = ? WHERE id = ? AND version = ?`
	result, err := tx.ExecContext(ctx, query, status, formatTime(time.Now()), id, version)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		ok, err := rowExists(ctx, tx, `SELECT EXISTS(SELECT 1 FROM bookings WHERE id = ?)`, id)
		if err != nil {
			return fmt.Errorf("failed to check booking in tx: %w", err)
		}
		if !ok {
			return domain.NotFound("booking %d not found", id)
		}
		return domain.ErrConcurrentModification
	}

	return tx.Commit()
}

// ListBookings pushes every filter into SQL so that paging happens after
// classification.
func (db *DB) ListBookings(ctx context.Context, filter models.BookingFilter) ([]*models.Booking, error) {
	var (
		where []string
		args  []any
	)
	if filter.BookerID != 0 {
		where = append(where, "b.booker_id = ?")
		args = append(args, filter.BookerID)
	}
	if filter.OwnerID != 0 {
		where = append(where, "i.owner_id = ?")
		args = append(args, filter.OwnerID)
	}
	if filter.ItemID != 0 {
		where = append(where, "b.item_id = ?")
		args = append(args, filter.ItemID)
	}

	now := formatTime(filter.Now)
	switch filter.State {
	case models.StateCurrent:
		where = append(where, "b.start_time < ? AND b.end_time > ?")
		args = append(args, now, now)
	case models.StatePast:
		where = append(where, "b.end_time < ?")
		args = append(args, now)
	case models.StateFuture:
		where = append(where, "b.start_time > ?")
		args = append(args, now)
	case models.StateWaiting:
		where = append(where, "b.status = ?")
		args = append(args, models.StatusWaiting)
	case models.StateRejected:
		where = append(where, "b.status = ?")
		args = append(args, models.StatusRejected)
	case models.StateAll, "":
	default:
		return nil, fmt.Errorf("unsupported booking state %q", filter.State)
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings b JOIN items i ON i.id = b.item_id`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY b.start_time DESC, b.id DESC`
	limit, limitArgs := pageClause(filter.Page)
	query += limit
	args = append(args, limitArgs...)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	bookings := make([]*models.Booking, 0)
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, booking)
	}
	return bookings, rows.Err()
}

func scanBooking(row scanner) (*models.Booking, error) {
	var (
		booking                             models.Booking
		start, end, created, updated, status string
	)
	err := row.Scan(&booking.ID, &booking.ItemID, &booking.BookerID, &start, &end,
		&status, &booking.Version, &created, &updated)
	if err != nil {
		return nil, err
	}
	booking.Status = models.BookingStatus(status)
	for _, f := range []struct {
		dst *time.Time
		src string
	}{
		{&booking.Start, start},
		{&booking.End, end},
		{&booking.CreatedAt, created},
		{&booking.UpdatedAt, updated},
	} {
		if *f.dst, err = parseTime(f.src); err != nil {
			return nil, err
		}
	}
	return &booking, nil
}
