package services

import (
	"context"
	"fmt"
	"time"

	"github.com/wadjakorntonsri/go-utm-tracker/pkg/core/domain"
	"github.com/wadjakorntonsri/go-utm-tracker/pkg/core/identity"
	"github.com/wadjakorntonsri/go-utm-tracker/pkg/logging"
	"github.com/wadjakorntonsri/go-utm-tracker/pkg/metrics"
	"github.com/wadjakorntonsri/go-utm-tracker/pkg/ports"
)

type ClickService struct {
	repo ports.Repository
	now  func() time.Time
}

func NewClickService(repo ports.Repository) *ClickService {
	return &ClickService{repo: repo, now: time.Now}
}

// Ingest records one click and returns where to redirect. Clicks are never
// deduplicated: a retried or repeated request is another click.
func (s *ClickService) Ingest(ctx context.Context, req domain.ClickRequest) (*domain.ClickResult, error) {
	start := time.Now()
	result, err := s.ingest(ctx, req)
	metrics.RecordIngest(start, err)
	return result, err
}

func (s *ClickService) ingest(ctx context.Context, req domain.ClickRequest) (*domain.ClickResult, error) {
	if req.LinkID <= 0 {
		return nil, fmt.Errorf("link id %d: %w", req.LinkID, domain.ErrInvalidInput)
	}

	link, err := s.repo.GetLink(ctx, req.LinkID)
	if err != nil {
		return nil, err
	}

	userKey := identity.UserKey(req.UserKey, req.IP, req.UserAgent)
	event := &domain.ClickEvent{
		LinkID:    link.ID,
		UserKey:   &userKey,
		IP:        req.IP,
		UserAgent: req.UserAgent,
		CreatedAt: s.now(),
	}

	// The link may be deleted between lookup and record; the store then
	// reports NotFound and nothing is written.
	if err := s.repo.RecordClick(ctx, event); err != nil {
		return nil, err
	}

	logging.Debug().
		Int64("link_id", link.ID).
		Int64("event_id", event.ID).
		Msg("Click recorded")

	return &domain.ClickResult{
		TargetURL: link.TargetURL,
		EventID:   event.ID,
		UserKey:   userKey,
	}, nil
}

var _ ports.ClickService = (*ClickService)(nil)
