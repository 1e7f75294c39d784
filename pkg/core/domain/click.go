package domain

import "time"

// ClickEvent is one immutable observation of a visitor following a link.
type ClickEvent struct {
	ID        int64     `json:"id"`
	LinkID    int64     `json:"link_id"`
	UserKey   *string   `json:"user_key"` // nil when no key was known
	IP        string    `json:"ip,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ClickStats is the event-log view of a link or project.
type ClickStats struct {
	TotalClicks int64 `json:"total_clicks"`
	UniqueUsers int64 `json:"unique_users"`
}

// GlobalStats covers every project, link and click event.
type GlobalStats struct {
	TotalProjects int64 `json:"total_projects"`
	TotalLinks    int64 `json:"total_links"`
	TotalClicks   int64 `json:"total_clicks"`
	UniqueUsers   int64 `json:"unique_users"`
}

// Summary is the dashboard header. Clicks is read from the denormalized
// link counters, so it may lag GlobalStats.TotalClicks.
type Summary struct {
	Projects int64 `json:"projects"`
	Links    int64 `json:"links"`
	Clicks   int64 `json:"clicks"`
}

// ClickRequest is one redirect to ingest. UserKey is the explicit visitor
// key, if the client sent one; IP is the already resolved client address.
type ClickRequest struct {
	LinkID    int64
	UserKey   string
	IP        string
	UserAgent string
}

// ClickResult is what the redirect needs after a click was recorded.
type ClickResult struct {
	TargetURL string `json:"target_url"`
	EventID   int64  `json:"event_id"`
	UserKey   string `json:"user_key"`
}
