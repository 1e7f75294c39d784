package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/tursodatabase/libsql-client-go/libsql" // Turso driver
	"github.com/wadjakorntonsri/go-utm-tracker/pkg/core/domain"
	"github.com/wadjakorntonsri/go-utm-tracker/pkg/ports"
	_ "modernc.org/sqlite" // Local SQLite driver
)

// Local SQLite connection pragmas. Writers serialize on one connection and
// wait instead of failing with SQLITE_BUSY.
const localPragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbURL string) (*SQLiteRepository, error) {
	driverName := "sqlite"
	if strings.Contains(dbURL, "libsql://") || strings.Contains(dbURL, "wss://") {
		driverName = "libsql"
	}

	dsn := dbURL
	if driverName == "sqlite" {
		dsn = withPragmas(dbURL)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driverName, err)
	}
	if driverName == "sqlite" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, unavailable("ping", err)
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// NewWithDB wraps an already opened database without migrating it.
func NewWithDB(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func withPragmas(dbURL string) string {
	if strings.Contains(dbURL, "?") {
		return dbURL + "&" + localPragmas
	}
	return dbURL + "?" + localPragmas
}

func migrate(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS projects (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		date_from TEXT,
		date_to TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS members (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		is_editor BOOLEAN NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS project_members (
		project_id INTEGER NOT NULL,
		member_id INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (project_id, member_id),
		FOREIGN KEY(project_id) REFERENCES projects(id) ON DELETE CASCADE,
		FOREIGN KEY(member_id) REFERENCES members(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS links (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		project_id INTEGER NOT NULL,
		owner_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		target_url TEXT NOT NULL,
		clicks INTEGER NOT NULL DEFAULT 0 CHECK (clicks >= 0),
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(project_id) REFERENCES projects(id) ON DELETE CASCADE,
		FOREIGN KEY(owner_id) REFERENCES members(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_links_project_id ON links(project_id);
	CREATE INDEX IF NOT EXISTS idx_links_owner_id ON links(owner_id);

	CREATE TABLE IF NOT EXISTS click_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		link_id INTEGER NOT NULL,
		user_key TEXT,
		ip TEXT,
		user_agent TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(link_id) REFERENCES links(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_click_events_link_id ON click_events(link_id);
	`
	_, err := db.Exec(query)
	return err
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// withTx runs fn in a transaction that is committed only when fn succeeds
// and rolled back on every other exit path.
func (r *SQLiteRepository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("begin transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return unavailable("commit", err)
	}
	return nil
}

// unavailable marks a driver failure as a store failure. Context errors
// keep their identity so callers can tell cancellation apart.
func unavailable(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreUnavailable, err)
}

func notFound(kind string, id int64) error {
	return fmt.Errorf("%s %d: %w", kind, id, domain.ErrNotFound)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullDate(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(domain.DateLayout), Valid: true}
}

func parseDate(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse(domain.DateLayout, s.String)
	if err != nil {
		return nil
	}
	return &t
}

// exists reports whether a row with id is present in table.
func (r *SQLiteRepository) exists(ctx context.Context, table string, id int64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM `+table+` WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, unavailable("lookup "+table, err)
	}
	return true, nil
}

// --- Projects ---

func (r *SQLiteRepository) CreateProject(ctx context.Context, project *domain.Project) error {
	query := `INSERT INTO projects (name, date_from, date_to, created_at) VALUES (?, ?, ?, ?)`

	res, err := r.db.ExecContext(ctx, query, project.Name, nullDate(project.DateFrom), nullDate(project.DateTo), project.CreatedAt.UTC())
	if err != nil {
		return unavailable("insert project", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return unavailable("insert project", err)
	}
	project.ID = id
	return nil
}

func (r *SQLiteRepository) GetProject(ctx context.Context, id int64) (*domain.Project, error) {
	query := `SELECT id, name, date_from, date_to, created_at FROM projects WHERE id = ?`

	p, err := scanProject(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("project", id)
	}
	if err != nil {
		return nil, unavailable("get project", err)
	}
	return p, nil
}

func (r *SQLiteRepository) ListProjects(ctx context.Context) ([]domain.Project, error) {
	query := `SELECT id, name, date_from, date_to, created_at FROM projects ORDER BY id DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, unavailable("list projects", err)
	}
	defer rows.Close()

	projects := []domain.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, unavailable("list projects", err)
		}
		projects = append(projects, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list projects", err)
	}
	return projects, nil
}

// DeleteProject removes the project with its links, their click events and
// its memberships in one transaction.
func (r *SQLiteRepository) DeleteProject(ctx context.Context, id int64) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		steps := []string{
			`DELETE FROM click_events WHERE link_id IN (SELECT id FROM links WHERE project_id = ?)`,
			`DELETE FROM links WHERE project_id = ?`,
			`DELETE FROM project_members WHERE project_id = ?`,
		}
		for _, q := range steps {
			if _, err := tx.ExecContext(ctx, q, id); err != nil {
				return unavailable("delete project", err)
			}
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
		if err != nil {
			return unavailable("delete project", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return unavailable("delete project", err)
		}
		if n == 0 {
			return notFound("project", id)
		}
		return nil
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*domain.Project, error) {
	var p domain.Project
	var dateFrom, dateTo sql.NullString
	if err := row.Scan(&p.ID, &p.Name, &dateFrom, &dateTo, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.DateFrom = parseDate(dateFrom)
	p.DateTo = parseDate(dateTo)
	return &p, nil
}

// --- Members ---

// CreateMember inserts the member unless one with the same name exists, in
// which case member is filled from the stored row and created is false.
func (r *SQLiteRepository) CreateMember(ctx context.Context, member *domain.Member) (bool, error) {
	query := `INSERT INTO members (name, is_editor, created_at) VALUES (?, ?, ?) ON CONFLICT(name) DO NOTHING`

	res, err := r.db.ExecContext(ctx, query, member.Name, member.IsEditor, member.CreatedAt.UTC())
	if err != nil {
		return false, unavailable("insert member", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, unavailable("insert member", err)
	}
	if n == 1 {
		id, err := res.LastInsertId()
		if err != nil {
			return false, unavailable("insert member", err)
		}
		member.ID = id
		return true, nil
	}

	existing, err := r.GetMemberByName(ctx, member.Name)
	if err != nil {
		return false, err
	}
	*member = *existing
	return false, nil
}

func (r *SQLiteRepository) GetMember(ctx context.Context, id int64) (*domain.Member, error) {
	query := `SELECT id, name, is_editor, created_at FROM members WHERE id = ?`

	var m domain.Member
	err := r.db.QueryRowContext(ctx, query, id).Scan(&m.ID, &m.Name, &m.IsEditor, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("member", id)
	}
	if err != nil {
		return nil, unavailable("get member", err)
	}
	return &m, nil
}

func (r *SQLiteRepository) GetMemberByName(ctx context.Context, name string) (*domain.Member, error) {
	query := `SELECT id, name, is_editor, created_at FROM members WHERE name = ?`

	var m domain.Member
	err := r.db.QueryRowContext(ctx, query, name).Scan(&m.ID, &m.Name, &m.IsEditor, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("member %q: %w", name, domain.ErrNotFound)
	}
	if err != nil {
		return nil, unavailable("get member", err)
	}
	return &m, nil
}

func (r *SQLiteRepository) ListMembers(ctx context.Context) ([]domain.Member, error) {
	query := `SELECT id, name, is_editor, created_at FROM members ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, unavailable("list members", err)
	}
	defer rows.Close()

	members := []domain.Member{}
	for rows.Next() {
		var m domain.Member
		if err := rows.Scan(&m.ID, &m.Name, &m.IsEditor, &m.CreatedAt); err != nil {
			return nil, unavailable("list members", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list members", err)
	}
	return members, nil
}

func (r *SQLiteRepository) AddMembership(ctx context.Context, m *domain.Membership) error {
	query := `INSERT INTO project_members (project_id, member_id, created_at) VALUES (?, ?, ?)
			  ON CONFLICT(project_id, member_id) DO NOTHING`

	if _, err := r.db.ExecContext(ctx, query, m.ProjectID, m.MemberID, m.CreatedAt.UTC()); err != nil {
		return unavailable("insert membership", err)
	}
	return nil
}

// --- Links ---

func (r *SQLiteRepository) CreateLink(ctx context.Context, link *domain.Link) error {
	query := `INSERT INTO links (project_id, owner_id, name, target_url, clicks, created_at) VALUES (?, ?, ?, ?, 0, ?)`

	res, err := r.db.ExecContext(ctx, query, link.ProjectID, link.OwnerID, link.Name, link.TargetURL, link.CreatedAt.UTC())
	if err != nil {
		return unavailable("insert link", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return unavailable("insert link", err)
	}
	link.ID = id
	link.Clicks = 0
	return nil
}

func (r *SQLiteRepository) GetLink(ctx context.Context, id int64) (*domain.Link, error) {
	query := `SELECT id, project_id, owner_id, name, target_url, clicks, created_at FROM links WHERE id = ?`

	var l domain.Link
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&l.ID, &l.ProjectID, &l.OwnerID, &l.Name, &l.TargetURL, &l.Clicks, &l.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("link", id)
	}
	if err != nil {
		return nil, unavailable("get link", err)
	}
	return &l, nil
}

func (r *SQLiteRepository) ListLinksByOwner(ctx context.Context, projectID, ownerID int64) ([]domain.Link, error) {
	query := `SELECT id, project_id, owner_id, name, target_url, clicks, created_at
			  FROM links
			  WHERE project_id = ? AND owner_id = ?
			  ORDER BY clicks DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, projectID, ownerID)
	if err != nil {
		return nil, unavailable("list links", err)
	}
	defer rows.Close()

	links := []domain.Link{}
	for rows.Next() {
		var l domain.Link
		if err := rows.Scan(&l.ID, &l.ProjectID, &l.OwnerID, &l.Name, &l.TargetURL, &l.Clicks, &l.CreatedAt); err != nil {
			return nil, unavailable("list links", err)
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list links", err)
	}
	return links, nil
}

// Dump returns every link, for export.
func (r *SQLiteRepository) Dump(ctx context.Context) ([]domain.Link, error) {
	query := `SELECT id, project_id, owner_id, name, target_url, clicks, created_at FROM links ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, unavailable("dump links", err)
	}
	defer rows.Close()

	links := []domain.Link{}
	for rows.Next() {
		var l domain.Link
		if err := rows.Scan(&l.ID, &l.ProjectID, &l.OwnerID, &l.Name, &l.TargetURL, &l.Clicks, &l.CreatedAt); err != nil {
			return nil, unavailable("dump links", err)
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("dump links", err)
	}
	return links, nil
}

// Ensure interface compliance
var _ ports.Repository = (*SQLiteRepository)(nil)
