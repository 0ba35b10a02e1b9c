package models

const (
	RoleUser      = "user"
	RoleCounselor = "counselor"
)

// Identity is the authenticated caller, resolved from a verified token.
// For RoleCounselor, UserID is the counselor id.
type Identity struct {
	UserID string `json:"userId"`
	Gender Gender `json:"gender"`
	Role   string `json:"role"`
}

func (i Identity) IsCounselor() bool {
	return i.Role == RoleCounselor
}
