package domain

import "time"

// DateLayout is the wire and storage format of project date bounds.
const DateLayout = "2006-01-02"

// Project groups links and members
type Project struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	DateFrom  *time.Time `json:"date_from"`
	DateTo    *time.Time `json:"date_to"`
	CreatedAt time.Time  `json:"created_at"`
}

// Membership declares that a member participates in a project. It is
// independent of link ownership.
type Membership struct {
	ProjectID int64     `json:"project_id"`
	MemberID  int64     `json:"member_id"`
	CreatedAt time.Time `json:"created_at"`
}
