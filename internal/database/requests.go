package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"shareit/internal/domain"
	"shareit/internal/models"
)

func (db *DB) CreateRequest(ctx context.Context, req *models.ItemRequest) error {
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO requests (description, requester_id, created_at)
              SELECT ?, ?, ? WHERE EXISTS (SELECT 1 FROM users WHERE id = ?)`
	result, err := db.ExecContext(ctx, query, req.Description, req.RequesterID, formatTime(req.CreatedAt), req.RequesterID)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	} else if n == 0 {
		return domain.NotFound("user %d not found", req.RequesterID)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	req.ID = id
	return nil
}

func (db *DB) GetRequest(ctx context.Context, id int64) (*models.ItemRequest, error) {
	query := `SELECT id, description, requester_id, created_at FROM requests WHERE id = ?`
	req, err := scanRequest(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("request %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	return req, nil
}

func (db *DB) ListRequests(ctx context.Context, requesterID int64, exclude bool, page models.Page) ([]*models.ItemRequest, error) {
	op := "="
	if exclude {
		op = "<>"
	}
	query := `SELECT id, description, requester_id, created_at FROM requests
              WHERE requester_id ` + op + ` ?
              ORDER BY created_at DESC, id DESC`
	limit, limitArgs := pageClause(page)
	rows, err := db.QueryContext(ctx, query+limit, append([]any{requesterID}, limitArgs...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	requests := make([]*models.ItemRequest, 0)
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

func scanRequest(row scanner) (*models.ItemRequest, error) {
	var (
		req     models.ItemRequest
		created string
	)
	if err := row.Scan(&req.ID, &req.Description, &req.RequesterID, &created); err != nil {
		return nil, err
	}
	var err error
	if req.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	return &req, nil
}
