package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wadjakorntonsri/go-utm-tracker/pkg/core/authz"
	"github.com/wadjakorntonsri/go-utm-tracker/pkg/core/domain"
	"github.com/wadjakorntonsri/go-utm-tracker/pkg/logging"
	"github.com/wadjakorntonsri/go-utm-tracker/pkg/ports"
)

type ProjectService struct {
	repo   ports.Repository
	policy *authz.Policy
	now    func() time.Time
}

func NewProjectService(repo ports.Repository, policy *authz.Policy) *ProjectService {
	return &ProjectService{repo: repo, policy: policy, now: time.Now}
}

func (s *ProjectService) CreateProject(ctx context.Context, actor domain.Actor, name string, dateFrom, dateTo *time.Time) (*domain.Project, error) {
	if err := s.policy.Require(actor, authz.WriteCatalog); err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("project name is required: %w", domain.ErrInvalidInput)
	}
	if dateFrom != nil && dateTo != nil && dateTo.Before(*dateFrom) {
		return nil, fmt.Errorf("date_to before date_from: %w", domain.ErrInvalidInput)
	}

	project := &domain.Project{
		Name:      name,
		DateFrom:  dateFrom,
		DateTo:    dateTo,
		CreatedAt: s.now(),
	}
	if err := s.repo.CreateProject(ctx, project); err != nil {
		return nil, err
	}

	logging.Info().
		Int64("project_id", project.ID).
		Int64("actor_id", actor.MemberID).
		Msg("Project created")
	return project, nil
}

func (s *ProjectService) GetProject(ctx context.Context, id int64) (*domain.Project, error) {
	return s.repo.GetProject(ctx, id)
}

func (s *ProjectService) ListProjects(ctx context.Context) ([]domain.Project, error) {
	return s.repo.ListProjects(ctx)
}

func (s *ProjectService) DeleteProject(ctx context.Context, actor domain.Actor, id int64) error {
	if err := s.policy.Require(actor, authz.WriteCatalog); err != nil {
		return err
	}
	if err := s.repo.DeleteProject(ctx, id); err != nil {
		return err
	}

	logging.Info().
		Int64("project_id", id).
		Int64("actor_id", actor.MemberID).
		Msg("Project deleted")
	return nil
}

// AddMember records membership. Adding an existing member is a no-op.
func (s *ProjectService) AddMember(ctx context.Context, actor domain.Actor, projectID, memberID int64) error {
	if err := s.policy.Require(actor, authz.WriteCatalog); err != nil {
		return err
	}
	if memberID <= 0 {
		return fmt.Errorf("member id is required: %w", domain.ErrInvalidInput)
	}

	if _, err := s.repo.GetProject(ctx, projectID); err != nil {
		return err
	}
	if _, err := s.repo.GetMember(ctx, memberID); err != nil {
		return err
	}

	return s.repo.AddMembership(ctx, &domain.Membership{
		ProjectID: projectID,
		MemberID:  memberID,
		CreatedAt: s.now(),
	})
}

var _ ports.ProjectService = (*ProjectService)(nil)
