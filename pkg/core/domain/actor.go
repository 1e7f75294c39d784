package domain

// Role is what an actor is allowed to do.
type Role string

const (
	RoleAnonymous Role = "anonymous"
	RoleViewer    Role = "viewer"
	RoleEditor    Role = "editor"
)

// Actor is the caller of an operation. It is always passed explicitly.
type Actor struct {
	MemberID int64  `json:"member_id,omitempty"`
	Subject  string `json:"subject,omitempty"`
	Role     Role   `json:"role"`
}

// Anonymous is the actor of unauthenticated requests.
var Anonymous = Actor{Role: RoleAnonymous}
