package services

import (
	"context"
	"fmt"

	"github.com/wadjakorntonsri/go-utm-tracker/pkg/core/domain"
	"github.com/wadjakorntonsri/go-utm-tracker/pkg/ports"
)

// StatsService is the read-only aggregation engine. Link, project and global
// stats are counted from click events; leaderboards and member views sum the
// denormalized link counters and tolerate their drift.
type StatsService struct {
	repo ports.StatsRepository
}

func NewStatsService(repo ports.StatsRepository) *StatsService {
	return &StatsService{repo: repo}
}

func (s *StatsService) LinkStats(ctx context.Context, linkID int64) (*domain.ClickStats, error) {
	if linkID <= 0 {
		return nil, fmt.Errorf("link id %d: %w", linkID, domain.ErrInvalidInput)
	}
	return s.repo.LinkClickStats(ctx, linkID)
}

func (s *StatsService) ProjectStats(ctx context.Context, projectID int64) (*domain.ClickStats, error) {
	if projectID <= 0 {
		return nil, fmt.Errorf("project id %d: %w", projectID, domain.ErrInvalidInput)
	}
	return s.repo.ProjectClickStats(ctx, projectID)
}

func (s *StatsService) GlobalStats(ctx context.Context) (*domain.GlobalStats, error) {
	return s.repo.GlobalStats(ctx)
}

func (s *StatsService) Summary(ctx context.Context) (*domain.Summary, error) {
	return s.repo.Summary(ctx)
}

// Leaderboard ranks link owners within scope. scopeID is ignored for the
// global scope.
func (s *StatsService) Leaderboard(ctx context.Context, scope domain.Scope, scopeID int64) ([]domain.LeaderboardRow, error) {
	var projectID int64
	switch scope {
	case domain.ScopeGlobal:
	case domain.ScopeProject:
		if scopeID <= 0 {
			return nil, fmt.Errorf("project id %d: %w", scopeID, domain.ErrInvalidInput)
		}
		projectID = scopeID
	default:
		return nil, fmt.Errorf("scope %q: %w", scope, domain.ErrInvalidInput)
	}

	rows, err := s.repo.OwnerTotals(ctx, projectID)
	if err != nil {
		return nil, err
	}
	domain.RankLeaderboard(rows)
	return rows, nil
}

func (s *StatsService) ProjectMembers(ctx context.Context, projectID int64) ([]domain.MemberActivity, error) {
	if projectID <= 0 {
		return nil, fmt.Errorf("project id %d: %w", projectID, domain.ErrInvalidInput)
	}
	return s.repo.ProjectMemberActivity(ctx, projectID)
}

func (s *StatsService) MembersCatalog(ctx context.Context) ([]domain.CatalogEntry, error) {
	return s.repo.MembersCatalog(ctx)
}

var _ ports.StatsService = (*StatsService)(nil)
