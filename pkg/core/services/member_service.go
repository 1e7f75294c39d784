package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wadjakorntonsri/go-utm-tracker/pkg/core/authz"
	"github.com/wadjakorntonsri/go-utm-tracker/pkg/core/domain"
	"github.com/wadjakorntonsri/go-utm-tracker/pkg/ports"
)

type MemberService struct {
	repo   ports.Repository
	policy *authz.Policy
	now    func() time.Time
}

func NewMemberService(repo ports.Repository, policy *authz.Policy) *MemberService {
	return &MemberService{repo: repo, policy: policy, now: time.Now}
}

// CreateMember returns the existing member when the name is taken; created
// reports which case happened.
func (s *MemberService) CreateMember(ctx context.Context, actor domain.Actor, name string, isEditor bool) (*domain.Member, bool, error) {
	if err := s.policy.Require(actor, authz.WriteCatalog); err != nil {
		return nil, false, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false, fmt.Errorf("member name is required: %w", domain.ErrInvalidInput)
	}

	member := &domain.Member{
		Name:      name,
		IsEditor:  isEditor,
		CreatedAt: s.now(),
	}
	created, err := s.repo.CreateMember(ctx, member)
	if err != nil {
		return nil, false, err
	}
	return member, created, nil
}

func (s *MemberService) GetMember(ctx context.Context, id int64) (*domain.Member, error) {
	return s.repo.GetMember(ctx, id)
}

func (s *MemberService) GetMemberByName(ctx context.Context, name string) (*domain.Member, error) {
	return s.repo.GetMemberByName(ctx, strings.TrimSpace(name))
}

func (s *MemberService) ListMembers(ctx context.Context) ([]domain.Member, error) {
	return s.repo.ListMembers(ctx)
}

var _ ports.MemberService = (*MemberService)(nil)
