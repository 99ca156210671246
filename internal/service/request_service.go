package service

import (
	"context"
	"strings"

	"shareit/internal/clock"
	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

type RequestService struct {
	repo   domain.Repository
	clock  clock.Clock
	logger *zerolog.Logger
}

func NewRequestService(repo domain.Repository, clk clock.Clock, logger *zerolog.Logger) *RequestService {
	return &RequestService{repo: repo, clock: clk, logger: logger}
}

func (s *RequestService) AddRequest(ctx context.Context, requesterID int64, description string) (*models.ItemRequestView, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, domain.InvalidState("request description is empty")
	}
	if _, err := s.repo.GetUser(ctx, requesterID); err != nil {
		return nil, err
	}

	req := &models.ItemRequest{
		Description: description,
		RequesterID: requesterID,
		CreatedAt:   s.clock.Now(),
	}
	if err := s.repo.CreateRequest(ctx, req); err != nil {
		return nil, err
	}
	s.logger.Debug().Int64("request_id", req.ID).Int64("requester_id", requesterID).Msg("item request created")

	views, err := s.withItems(ctx, []*models.ItemRequest{req})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

// GetOwnRequests lists the requester's own requests, newest first.
func (s *RequestService) GetOwnRequests(ctx context.Context, requesterID int64) ([]*models.ItemRequestView, error) {
	if _, err := s.repo.GetUser(ctx, requesterID); err != nil {
		return nil, err
	}
	reqs, err := s.repo.ListRequests(ctx, requesterID, false, models.Page{})
	if err != nil {
		return nil, err
	}
	return s.withItems(ctx, reqs)
}

// GetOtherRequests pages through everyone else's requests, newest first.
func (s *RequestService) GetOtherRequests(ctx context.Context, userID int64, from, size int) ([]*models.ItemRequestView, error) {
	if _, err := s.repo.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	page, ok, err := newPage(from, size)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []*models.ItemRequestView{}, nil
	}

	reqs, err := s.repo.ListRequests(ctx, userID, true, page)
	if err != nil {
		return nil, err
	}
	return s.withItems(ctx, reqs)
}

func (s *RequestService) GetRequest(ctx context.Context, userID, requestID int64) (*models.ItemRequestView, error) {
	if _, err := s.repo.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	req, err := s.repo.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	views, err := s.withItems(ctx, []*models.ItemRequest{req})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

// withItems attaches the items offered in answer to each request.
func (s *RequestService) withItems(ctx context.Context, reqs []*models.ItemRequest) ([]*models.ItemRequestView, error) {
	views := make([]*models.ItemRequestView, 0, len(reqs))
	if len(reqs) == 0 {
		return views, nil
	}

	ids := make([]int64, len(reqs))
	for i, r := range reqs {
		ids[i] = r.ID
	}
	items, err := s.repo.ListItemsByRequests(ctx, ids)
	if err != nil {
		return nil, err
	}
	byRequest := make(map[int64][]models.ItemShort)
	for _, item := range items {
		if item.RequestID != nil {
			byRequest[*item.RequestID] = append(byRequest[*item.RequestID], models.NewItemShort(item))
		}
	}

	for _, r := range reqs {
		answers := byRequest[r.ID]
		if answers == nil {
			answers = []models.ItemShort{}
		}
		views = append(views, &models.ItemRequestView{
			ID:          r.ID,
			Description: r.Description,
			RequesterID: r.RequesterID,
			Created:     r.CreatedAt,
			Items:       answers,
		})
	}
	return views, nil
}
