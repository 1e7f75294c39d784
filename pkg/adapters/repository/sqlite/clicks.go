package sqlite

import (
	"context"
	"database/sql"

	"github.com/wadjakorntonsri/go-utm-tracker/pkg/core/domain"
	"github.com/wadjakorntonsri/go-utm-tracker/pkg/core/identity"
	"github.com/wadjakorntonsri/go-utm-tracker/pkg/logging"
	"github.com/wadjakorntonsri/go-utm-tracker/pkg/metrics"
)

// MaxUserAgentLength bounds the stored user agent, in characters.
const MaxUserAgentLength = 700

// RecordClick appends the event and bumps the link counter in one
// transaction, so the log and the counter cannot diverge on a crash.
func (r *SQLiteRepository) RecordClick(ctx context.Context, event *domain.ClickEvent) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if err := appendClick(ctx, tx, event); err != nil {
			return err
		}

		ok, err := incrementClicks(ctx, tx, event.LinkID)
		if err != nil {
			return err
		}
		if !ok {
			metrics.CounterSkips.Inc()
			logging.Warn().Int64("link_id", event.LinkID).Msg("Link vanished before counter increment, skipping")
		}
		return nil
	})
}

// AppendClick appends one event outside of any transaction.
func (r *SQLiteRepository) AppendClick(ctx context.Context, event *domain.ClickEvent) error {
	return appendClick(ctx, r.db, event)
}

// IncrementClicks bumps the counter outside of any transaction. It reports
// false when the link does not exist.
func (r *SQLiteRepository) IncrementClicks(ctx context.Context, linkID int64) (bool, error) {
	return incrementClicks(ctx, r.db, linkID)
}

// appendClick inserts the event only if its link exists, checked in the same
// statement. A nil UserKey is stored as NULL, an empty one as ''.
func appendClick(ctx context.Context, q execer, event *domain.ClickEvent) error {
	query := `INSERT INTO click_events (link_id, user_key, ip, user_agent, created_at)
			  SELECT ?, ?, ?, ?, ?
			  WHERE EXISTS (SELECT 1 FROM links WHERE id = ?)`

	var userKey sql.NullString
	if event.UserKey != nil {
		userKey = sql.NullString{String: *event.UserKey, Valid: true}
	}
	event.UserAgent = identity.Truncate(event.UserAgent, MaxUserAgentLength)

	res, err := q.ExecContext(ctx, query,
		event.LinkID, userKey, nullString(event.IP), event.UserAgent, event.CreatedAt.UTC(),
		event.LinkID,
	)
	if err != nil {
		return unavailable("insert click event", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return unavailable("insert click event", err)
	}
	if n == 0 {
		return notFound("link", event.LinkID)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return unavailable("insert click event", err)
	}
	event.ID = id
	return nil
}

// incrementClicks is evaluated by the store, never read-modify-write here,
// so concurrent increments are not lost.
func incrementClicks(ctx context.Context, q execer, linkID int64) (bool, error) {
	res, err := q.ExecContext(ctx, `UPDATE links SET clicks = clicks + 1 WHERE id = ?`, linkID)
	if err != nil {
		return false, unavailable("increment clicks", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, unavailable("increment clicks", err)
	}
	return n > 0, nil
}
