package model

import "github.com/google/uuid"

const (
	RoleUser   = "user"
	RoleSystem = "system"
)

// Caller is the resolved identity behind a request.
type Caller struct {
	ID    uuid.UUID
	Role  string
	Phone string
}

// IsSystem reports whether the call comes from an internal job rather than a person.
func (c Caller) IsSystem() bool {
	return c.Role == RoleSystem
}

// SystemCaller is used by background jobs.
var SystemCaller = Caller{ID: uuid.Nil, Role: RoleSystem}
