package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/wadjakorntonsri/go-utm-tracker/pkg/core/authz"
	"github.com/wadjakorntonsri/go-utm-tracker/pkg/core/domain"
	"github.com/wadjakorntonsri/go-utm-tracker/pkg/ports"
)

type LinkService struct {
	repo   ports.Repository
	policy *authz.Policy
	now    func() time.Time
}

func NewLinkService(repo ports.Repository, policy *authz.Policy) *LinkService {
	return &LinkService{repo: repo, policy: policy, now: time.Now}
}

func (s *LinkService) CreateLink(ctx context.Context, actor domain.Actor, projectID, ownerID int64, name, targetURL string) (*domain.Link, error) {
	if err := s.policy.Require(actor, authz.WriteCatalog); err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	targetURL = strings.TrimSpace(targetURL)
	if ownerID <= 0 || name == "" || targetURL == "" {
		return nil, fmt.Errorf("owner, name and target url are required: %w", domain.ErrInvalidInput)
	}
	if err := validateTargetURL(targetURL); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetMember(ctx, ownerID); err != nil {
		return nil, err
	}

	link := &domain.Link{
		ProjectID: projectID,
		OwnerID:   ownerID,
		Name:      name,
		TargetURL: targetURL,
		CreatedAt: s.now(),
	}
	if err := s.repo.CreateLink(ctx, link); err != nil {
		return nil, err
	}
	return link, nil
}

func (s *LinkService) GetLink(ctx context.Context, id int64) (*domain.Link, error) {
	return s.repo.GetLink(ctx, id)
}

func (s *LinkService) ListLinksByOwner(ctx context.Context, projectID, ownerID int64) ([]domain.Link, error) {
	return s.repo.ListLinksByOwner(ctx, projectID, ownerID)
}

func validateTargetURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("target url %q must be an absolute http(s) url: %w", raw, domain.ErrInvalidInput)
	}
	return nil
}

var _ ports.LinkService = (*LinkService)(nil)
