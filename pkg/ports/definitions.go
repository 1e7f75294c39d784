package ports

import (
	"context"
	"time"

	"github.com/wadjakorntonsri/go-utm-tracker/pkg/core/domain"
)

// Repository defines storage operations for projects, members, links and click events
type Repository interface {
	// Projects
	CreateProject(ctx context.Context, project *domain.Project) error
	GetProject(ctx context.Context, id int64) (*domain.Project, error)
	ListProjects(ctx context.Context) ([]domain.Project, error)
	DeleteProject(ctx context.Context, id int64) error // Cascades to links, click events and memberships

	// Members
	CreateMember(ctx context.Context, member *domain.Member) (created bool, err error) // Get-or-create by name
	GetMember(ctx context.Context, id int64) (*domain.Member, error)
	GetMemberByName(ctx context.Context, name string) (*domain.Member, error)
	ListMembers(ctx context.Context) ([]domain.Member, error)
	AddMembership(ctx context.Context, m *domain.Membership) error // Idempotent

	// Links
	CreateLink(ctx context.Context, link *domain.Link) error
	GetLink(ctx context.Context, id int64) (*domain.Link, error)
	ListLinksByOwner(ctx context.Context, projectID, ownerID int64) ([]domain.Link, error)

	// Clicks
	RecordClick(ctx context.Context, event *domain.ClickEvent) error // Event append + counter increment, one transaction

	// Stats
	StatsRepository
}

// StatsRepository defines the read-only aggregate queries
type StatsRepository interface {
	LinkClickStats(ctx context.Context, linkID int64) (*domain.ClickStats, error)
	ProjectClickStats(ctx context.Context, projectID int64) (*domain.ClickStats, error)
	GlobalStats(ctx context.Context) (*domain.GlobalStats, error)
	Summary(ctx context.Context) (*domain.Summary, error)
	OwnerTotals(ctx context.Context, projectID int64) ([]domain.LeaderboardRow, error) // projectID 0 means all projects
	ProjectMemberActivity(ctx context.Context, projectID int64) ([]domain.MemberActivity, error)
	MembersCatalog(ctx context.Context) ([]domain.CatalogEntry, error)
}

// ClickService ingests clicks
type ClickService interface {
	Ingest(ctx context.Context, req domain.ClickRequest) (*domain.ClickResult, error)
}

// StatsService defines the aggregation operations
type StatsService interface {
	LinkStats(ctx context.Context, linkID int64) (*domain.ClickStats, error)
	ProjectStats(ctx context.Context, projectID int64) (*domain.ClickStats, error)
	GlobalStats(ctx context.Context) (*domain.GlobalStats, error)
	Summary(ctx context.Context) (*domain.Summary, error)
	Leaderboard(ctx context.Context, scope domain.Scope, scopeID int64) ([]domain.LeaderboardRow, error)
	ProjectMembers(ctx context.Context, projectID int64) ([]domain.MemberActivity, error)
	MembersCatalog(ctx context.Context) ([]domain.CatalogEntry, error)
}

// ProjectService defines project management. Mutations take the acting member explicitly.
type ProjectService interface {
	CreateProject(ctx context.Context, actor domain.Actor, name string, dateFrom, dateTo *time.Time) (*domain.Project, error)
	GetProject(ctx context.Context, id int64) (*domain.Project, error)
	ListProjects(ctx context.Context) ([]domain.Project, error)
	DeleteProject(ctx context.Context, actor domain.Actor, id int64) error
	AddMember(ctx context.Context, actor domain.Actor, projectID, memberID int64) error
}

// MemberService defines member management
type MemberService interface {
	CreateMember(ctx context.Context, actor domain.Actor, name string, isEditor bool) (*domain.Member, bool, error)
	GetMember(ctx context.Context, id int64) (*domain.Member, error)
	GetMemberByName(ctx context.Context, name string) (*domain.Member, error)
	ListMembers(ctx context.Context) ([]domain.Member, error)
}

// LinkService defines link management
type LinkService interface {
	CreateLink(ctx context.Context, actor domain.Actor, projectID, ownerID int64, name, targetURL string) (*domain.Link, error)
	GetLink(ctx context.Context, id int64) (*domain.Link, error)
	ListLinksByOwner(ctx context.Context, projectID, ownerID int64) ([]domain.Link, error)
}
