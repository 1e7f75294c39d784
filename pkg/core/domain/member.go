package domain

import "time"

// Member is a person who can own links. IsEditor is the only source of
// the member's role.
type Member struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	IsEditor  bool      `json:"is_editor"`
	CreatedAt time.Time `json:"created_at"`
}

func (m *Member) Role() Role {
	if m.IsEditor {
		return RoleEditor
	}
	return RoleViewer
}

// MemberActivity is one row of a project member listing.
type MemberActivity struct {
	MemberID   int64  `json:"member_id"`
	MemberName string `json:"member_name"`
	LinkCount  int64  `json:"link_count"`
	ClickSum   int64  `json:"click_sum"`
}

// CatalogEntry is one row of the global member catalog.
// DistinctProjectCount counts projects where the member owns a link,
// not membership rows.
type CatalogEntry struct {
	MemberID             int64     `json:"member_id"`
	Name                 string    `json:"name"`
	IsEditor             bool      `json:"is_editor"`
	DistinctProjectCount int64     `json:"distinct_project_count"`
	TotalLinks           int64     `json:"total_links"`
	TotalClicks          int64     `json:"total_clicks"`
	CreatedAt            time.Time `json:"created_at"`
}
