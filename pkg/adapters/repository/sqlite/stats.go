package sqlite

import (
	"context"

	"github.com/wadjakorntonsri/go-utm-tracker/pkg/core/domain"
)

// Exact statistics are counted from click_events. The links.clicks counter
// is only read by the leaderboard, summary and member views, which accept
// its bounded drift for speed.

// uniqueUsersExpr counts distinct keys, skipping NULL and ''.
const uniqueUsersExpr = `COUNT(DISTINCT NULLIF(ce.user_key, ''))`

func (r *SQLiteRepository) LinkClickStats(ctx context.Context, linkID int64) (*domain.ClickStats, error) {
	ok, err := r.exists(ctx, "links", linkID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, notFound("link", linkID)
	}

	query := `SELECT COUNT(*), ` + uniqueUsersExpr + ` FROM click_events ce WHERE ce.link_id = ?`

	var stats domain.ClickStats
	if err := r.db.QueryRowContext(ctx, query, linkID).Scan(&stats.TotalClicks, &stats.UniqueUsers); err != nil {
		return nil, unavailable("link stats", err)
	}
	return &stats, nil
}

func (r *SQLiteRepository) ProjectClickStats(ctx context.Context, projectID int64) (*domain.ClickStats, error) {
	ok, err := r.exists(ctx, "projects", projectID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, notFound("project", projectID)
	}

	query := `SELECT COUNT(*), ` + uniqueUsersExpr + `
			  FROM click_events ce
			  JOIN links l ON l.id = ce.link_id
			  WHERE l.project_id = ?`

	var stats domain.ClickStats
	if err := r.db.QueryRowContext(ctx, query, projectID).Scan(&stats.TotalClicks, &stats.UniqueUsers); err != nil {
		return nil, unavailable("project stats", err)
	}
	return &stats, nil
}

func (r *SQLiteRepository) GlobalStats(ctx context.Context) (*domain.GlobalStats, error) {
	query := `SELECT
				(SELECT COUNT(*) FROM projects),
				(SELECT COUNT(*) FROM links),
				(SELECT COUNT(*) FROM click_events),
				(SELECT ` + uniqueUsersExpr + ` FROM click_events ce)`

	var stats domain.GlobalStats
	err := r.db.QueryRowContext(ctx, query).Scan(
		&stats.TotalProjects, &stats.TotalLinks, &stats.TotalClicks, &stats.UniqueUsers,
	)
	if err != nil {
		return nil, unavailable("global stats", err)
	}
	return &stats, nil
}

// Summary sums the counter column instead of scanning click_events.
func (r *SQLiteRepository) Summary(ctx context.Context) (*domain.Summary, error) {
	query := `SELECT
				(SELECT COUNT(*) FROM projects),
				(SELECT COUNT(*) FROM links),
				(SELECT COALESCE(SUM(clicks), 0) FROM links)`

	var s domain.Summary
	if err := r.db.QueryRowContext(ctx, query).Scan(&s.Projects, &s.Links, &s.Clicks); err != nil {
		return nil, unavailable("summary", err)
	}
	return &s, nil
}

// OwnerTotals groups links by owner. Rows come back unranked; ranking is
// domain.RankLeaderboard's job. projectID 0 spans every project.
func (r *SQLiteRepository) OwnerTotals(ctx context.Context, projectID int64) ([]domain.LeaderboardRow, error) {
	query := `SELECT m.id, m.name, COUNT(l.id), COALESCE(SUM(l.clicks), 0)
			  FROM links l
			  JOIN members m ON m.id = l.owner_id`
	args := []any{}

	if projectID != 0 {
		ok, err := r.exists(ctx, "projects", projectID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, notFound("project", projectID)
		}
		query += " WHERE l.project_id = ?"
		args = append(args, projectID)
	}
	query += " GROUP BY m.id, m.name"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, unavailable("owner totals", err)
	}
	defer rows.Close()

	result := []domain.LeaderboardRow{}
	for rows.Next() {
		var row domain.LeaderboardRow
		if err := rows.Scan(&row.MemberID, &row.MemberName, &row.LinkCount, &row.ClickSum); err != nil {
			return nil, unavailable("owner totals", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("owner totals", err)
	}
	return result, nil
}

// ProjectMemberActivity lists members by membership row, with the links they
// own in that project. Members without links get zero counts.
func (r *SQLiteRepository) ProjectMemberActivity(ctx context.Context, projectID int64) ([]domain.MemberActivity, error) {
	ok, err := r.exists(ctx, "projects", projectID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, notFound("project", projectID)
	}

	query := `SELECT m.id, m.name, COUNT(l.id), COALESCE(SUM(l.clicks), 0)
			  FROM project_members pm
			  JOIN members m ON m.id = pm.member_id
			  LEFT JOIN links l ON l.owner_id = pm.member_id AND l.project_id = pm.project_id
			  WHERE pm.project_id = ?
			  GROUP BY m.id, m.name
			  ORDER BY m.name ASC, m.id ASC`

	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, unavailable("project members", err)
	}
	defer rows.Close()

	result := []domain.MemberActivity{}
	for rows.Next() {
		var a domain.MemberActivity
		if err := rows.Scan(&a.MemberID, &a.MemberName, &a.LinkCount, &a.ClickSum); err != nil {
			return nil, unavailable("project members", err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("project members", err)
	}
	return result, nil
}

// MembersCatalog reports every member. The project count is derived from
// link ownership, not membership rows.
func (r *SQLiteRepository) MembersCatalog(ctx context.Context) ([]domain.CatalogEntry, error) {
	query := `SELECT m.id, m.name, m.is_editor, m.created_at,
					 COUNT(DISTINCT l.project_id), COUNT(l.id), COALESCE(SUM(l.clicks), 0)
			  FROM members m
			  LEFT JOIN links l ON l.owner_id = m.id
			  GROUP BY m.id, m.name, m.is_editor, m.created_at
			  ORDER BY m.created_at ASC, m.id ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, unavailable("members catalog", err)
	}
	defer rows.Close()

	result := []domain.CatalogEntry{}
	for rows.Next() {
		var e domain.CatalogEntry
		if err := rows.Scan(
			&e.MemberID, &e.Name, &e.IsEditor, &e.CreatedAt,
			&e.DistinctProjectCount, &e.TotalLinks, &e.TotalClicks,
		); err != nil {
			return nil, unavailable("members catalog", err)
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("members catalog", err)
	}
	return result, nil
}
