package sqlite

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wadjakorntonsri/go-utm-tracker/pkg/core/domain"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()

	repo, err := NewSQLiteRepository("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

type fixture struct {
	project *domain.Project
	alice   *domain.Member
	bob     *domain.Member
	link    *domain.Link
}

func seed(t *testing.T, repo *SQLiteRepository) fixture {
	t.Helper()
	ctx := context.Background()
	now := time.Now()

	f := fixture{
		project: &domain.Project{Name: "Spring campaign", CreatedAt: now},
		alice:   &domain.Member{Name: "alice", CreatedAt: now},
		bob:     &domain.Member{Name: "bob", CreatedAt: now.Add(time.Second)},
	}
	require.NoError(t, repo.CreateProject(ctx, f.project))
	_, err := repo.CreateMember(ctx, f.alice)
	require.NoError(t, err)
	_, err = repo.CreateMember(ctx, f.bob)
	require.NoError(t, err)

	f.link = &domain.Link{
		ProjectID: f.project.ID,
		OwnerID:   f.alice.ID,
		Name:      "instagram bio",
		TargetURL: "https://example.com",
		CreatedAt: now,
	}
	require.NoError(t, repo.CreateLink(ctx, f.link))
	return f
}

func key(s string) *string { return &s }

func TestRecordClick(t *testing.T) {
	repo := newTestRepo(t)
	f := seed(t, repo)
	ctx := context.Background()

	event := &domain.ClickEvent{
		LinkID:    f.link.ID,
		UserKey:   key("u1"),
		IP:        "1.2.3.4",
		UserAgent: "test",
		CreatedAt: time.Now(),
	}
	require.NoError(t, repo.RecordClick(ctx, event))
	assert.NotZero(t, event.ID)

	link, err := repo.GetLink(ctx, f.link.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, link.Clicks)

	stats, err := repo.LinkClickStats(ctx, f.link.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ClickStats{TotalClicks: 1, UniqueUsers: 1}, *stats)
}

func TestRecordClick_MissingLink(t *testing.T) {
	repo := newTestRepo(t)
	f := seed(t, repo)
	ctx := context.Background()

	err := repo.RecordClick(ctx, &domain.ClickEvent{LinkID: f.link.ID + 100, CreatedAt: time.Now()})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	global, err := repo.GlobalStats(ctx)
	require.NoError(t, err)
	assert.Zero(t, global.TotalClicks)

	link, err := repo.GetLink(ctx, f.link.ID)
	require.NoError(t, err)
	assert.Zero(t, link.Clicks)
}

func TestRecordClick_Concurrent(t *testing.T) {
	repo := newTestRepo(t)
	f := seed(t, repo)
	ctx := context.Background()

	const n = 40
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- repo.RecordClick(ctx, &domain.ClickEvent{
				LinkID:    f.link.ID,
				UserKey:   key("same"),
				CreatedAt: time.Now(),
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	link, err := repo.GetLink(ctx, f.link.ID)
	require.NoError(t, err)
	assert.EqualValues(t, n, link.Clicks)

	stats, err := repo.LinkClickStats(ctx, f.link.ID)
	require.NoError(t, err)
	assert.EqualValues(t, n, stats.TotalClicks)
	assert.EqualValues(t, 1, stats.UniqueUsers)
}

func TestUniqueUsers_ExcludeEmptyAndNull(t *testing.T) {
	repo := newTestRepo(t)
	f := seed(t, repo)
	ctx := context.Background()

	for _, k := range []*string{key("a"), key("a"), key("b"), key(""), nil} {
		require.NoError(t, repo.AppendClick(ctx, &domain.ClickEvent{LinkID: f.link.ID, UserKey: k, CreatedAt: time.Now()}))
	}

	stats, err := repo.LinkClickStats(ctx, f.link.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 5, stats.TotalClicks)
	assert.EqualValues(t, 2, stats.UniqueUsers)

	project, err := repo.ProjectClickStats(ctx, f.project.ID)
	require.NoError(t, err)
	assert.Equal(t, *stats, *project)

	global, err := repo.GlobalStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.GlobalStats{TotalProjects: 1, TotalLinks: 1, TotalClicks: 5, UniqueUsers: 2}, *global)
}

func TestLinkClickStats_IndependentOfCounter(t *testing.T) {
	repo := newTestRepo(t)
	f := seed(t, repo)
	ctx := context.Background()

	// Appended without the counter, as after a crash between the two writes.
	require.NoError(t, repo.AppendClick(ctx, &domain.ClickEvent{LinkID: f.link.ID, UserKey: key("x"), CreatedAt: time.Now()}))

	stats, err := repo.LinkClickStats(ctx, f.link.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.TotalClicks)

	summary, err := repo.Summary(ctx)
	require.NoError(t, err)
	assert.Zero(t, summary.Clicks)
}

func TestLinkClickStats_NotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.LinkClickStats(context.Background(), 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = repo.ProjectClickStats(context.Background(), 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestIncrementClicks_MissingLink(t *testing.T) {
	repo := newTestRepo(t)

	ok, err := repo.IncrementClicks(context.Background(), 12345)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAppendClick_TruncatesUserAgent(t *testing.T) {
	repo := newTestRepo(t)
	f := seed(t, repo)

	event := &domain.ClickEvent{
		LinkID:    f.link.ID,
		UserAgent: strings.Repeat("u", MaxUserAgentLength+50),
		CreatedAt: time.Now(),
	}
	require.NoError(t, repo.AppendClick(context.Background(), event))

	var stored string
	require.NoError(t, repo.db.QueryRow(`SELECT user_agent FROM click_events WHERE id = ?`, event.ID).Scan(&stored))
	assert.Len(t, stored, MaxUserAgentLength)
}

func TestCreateMember_GetOrCreate(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first := &domain.Member{Name: "carol", IsEditor: true, CreatedAt: time.Now()}
	created, err := repo.CreateMember(ctx, first)
	require.NoError(t, err)
	assert.True(t, created)

	again := &domain.Member{Name: "carol", CreatedAt: time.Now()}
	created, err = repo.CreateMember(ctx, again)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)
	assert.True(t, again.IsEditor)
}

func TestOwnerTotals(t *testing.T) {
	repo := newTestRepo(t)
	f := seed(t, repo)
	ctx := context.Background()

	other := &domain.Project{Name: "Autumn", CreatedAt: time.Now()}
	require.NoError(t, repo.CreateProject(ctx, other))
	require.NoError(t, repo.CreateLink(ctx, &domain.Link{ProjectID: other.ID, OwnerID: f.bob.ID, Name: "x", TargetURL: "https://x.test", CreatedAt: time.Now()}))
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.RecordClick(ctx, &domain.ClickEvent{LinkID: f.link.ID, CreatedAt: time.Now()}))
	}

	global, err := repo.OwnerTotals(ctx, 0)
	require.NoError(t, err)
	assert.ElementsMatch(t, []domain.LeaderboardRow{
		{MemberID: f.alice.ID, MemberName: "alice", LinkCount: 1, ClickSum: 3},
		{MemberID: f.bob.ID, MemberName: "bob", LinkCount: 1, ClickSum: 0},
	}, global)

	scoped, err := repo.OwnerTotals(ctx, f.project.ID)
	require.NoError(t, err)
	assert.Equal(t, []domain.LeaderboardRow{
		{MemberID: f.alice.ID, MemberName: "alice", LinkCount: 1, ClickSum: 3},
	}, scoped)

	_, err = repo.OwnerTotals(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProjectMemberActivity_UsesMembership(t *testing.T) {
	repo := newTestRepo(t)
	f := seed(t, repo)
	ctx := context.Background()

	// bob is a member without links; alice owns a link but has no membership row.
	require.NoError(t, repo.AddMembership(ctx, &domain.Membership{ProjectID: f.project.ID, MemberID: f.bob.ID, CreatedAt: time.Now()}))
	require.NoError(t, repo.AddMembership(ctx, &domain.Membership{ProjectID: f.project.ID, MemberID: f.bob.ID, CreatedAt: time.Now()}))

	rows, err := repo.ProjectMemberActivity(ctx, f.project.ID)
	require.NoError(t, err)
	assert.Equal(t, []domain.MemberActivity{
		{MemberID: f.bob.ID, MemberName: "bob", LinkCount: 0, ClickSum: 0},
	}, rows)

	require.NoError(t, repo.AddMembership(ctx, &domain.Membership{ProjectID: f.project.ID, MemberID: f.alice.ID, CreatedAt: time.Now()}))
	require.NoError(t, repo.RecordClick(ctx, &domain.ClickEvent{LinkID: f.link.ID, CreatedAt: time.Now()}))

	rows, err = repo.ProjectMemberActivity(ctx, f.project.ID)
	require.NoError(t, err)
	assert.Equal(t, []domain.MemberActivity{
		{MemberID: f.alice.ID, MemberName: "alice", LinkCount: 1, ClickSum: 1},
		{MemberID: f.bob.ID, MemberName: "bob", LinkCount: 0, ClickSum: 0},
	}, rows)
}

func TestMembersCatalog(t *testing.T) {
	repo := newTestRepo(t)
	f := seed(t, repo)
	ctx := context.Background()

	other := &domain.Project{Name: "Autumn", CreatedAt: time.Now()}
	require.NoError(t, repo.CreateProject(ctx, other))
	require.NoError(t, repo.CreateLink(ctx, &domain.Link{ProjectID: other.ID, OwnerID: f.alice.ID, Name: "a2", TargetURL: "https://a2.test", CreatedAt: time.Now()}))
	require.NoError(t, repo.CreateLink(ctx, &domain.Link{ProjectID: other.ID, OwnerID: f.alice.ID, Name: "a3", TargetURL: "https://a3.test", CreatedAt: time.Now()}))
	require.NoError(t, repo.RecordClick(ctx, &domain.ClickEvent{LinkID: f.link.ID, CreatedAt: time.Now()}))

	catalog, err := repo.MembersCatalog(ctx)
	require.NoError(t, err)
	require.Len(t, catalog, 2)

	assert.Equal(t, "alice", catalog[0].Name)
	assert.EqualValues(t, 2, catalog[0].DistinctProjectCount)
	assert.EqualValues(t, 3, catalog[0].TotalLinks)
	assert.EqualValues(t, 1, catalog[0].TotalClicks)
	assert.False(t, catalog[0].CreatedAt.IsZero())

	assert.Equal(t, "bob", catalog[1].Name)
	assert.Zero(t, catalog[1].DistinctProjectCount)
	assert.Zero(t, catalog[1].TotalLinks)
}

func TestDeleteProject_Cascades(t *testing.T) {
	repo := newTestRepo(t)
	f := seed(t, repo)
	ctx := context.Background()

	require.NoError(t, repo.AddMembership(ctx, &domain.Membership{ProjectID: f.project.ID, MemberID: f.alice.ID, CreatedAt: time.Now()}))
	require.NoError(t, repo.RecordClick(ctx, &domain.ClickEvent{LinkID: f.link.ID, CreatedAt: time.Now()}))

	require.NoError(t, repo.DeleteProject(ctx, f.project.ID))

	_, err := repo.GetLink(ctx, f.link.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	global, err := repo.GlobalStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.GlobalStats{}, *global)

	// Members survive their projects.
	_, err = repo.GetMember(ctx, f.alice.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, repo.DeleteProject(ctx, f.project.ID), domain.ErrNotFound)
}

func TestProjectDates(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	p := &domain.Project{Name: "Dated", DateFrom: &from, CreatedAt: time.Now()}
	require.NoError(t, repo.CreateProject(ctx, p))

	got, err := repo.GetProject(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got.DateFrom)
	assert.True(t, from.Equal(*got.DateFrom))
	assert.Nil(t, got.DateTo)

	list, err := repo.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Dated", list[0].Name)
}

func TestListLinksByOwner_Order(t *testing.T) {
	repo := newTestRepo(t)
	f := seed(t, repo)
	ctx := context.Background()

	second := &domain.Link{ProjectID: f.project.ID, OwnerID: f.alice.ID, Name: "story", TargetURL: "https://example.com/s", CreatedAt: time.Now()}
	require.NoError(t, repo.CreateLink(ctx, second))
	require.NoError(t, repo.RecordClick(ctx, &domain.ClickEvent{LinkID: f.link.ID, CreatedAt: time.Now()}))

	links, err := repo.ListLinksByOwner(ctx, f.project.ID, f.alice.ID)
	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.Equal(t, f.link.ID, links[0].ID)
	assert.Equal(t, second.ID, links[1].ID)

	links, err = repo.ListLinksByOwner(ctx, f.project.ID, f.bob.ID)
	require.NoError(t, err)
	assert.Empty(t, links)
}
