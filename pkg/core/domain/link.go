package domain

import "time"

// Link represents a tracked short link owned by a member inside a project
type Link struct {
	ID        int64     `json:"id"`
	ProjectID int64     `json:"project_id"`
	OwnerID   int64     `json:"owner_id"`
	Name      string    `json:"name"`
	TargetURL string    `json:"target_url"`
	Clicks    int64     `json:"clicks"` // denormalized, see ClickEvent for the source of truth
	CreatedAt time.Time `json:"created_at"`
}
