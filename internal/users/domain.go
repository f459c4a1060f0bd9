package users

import (
	"encoding/json"
	"time"
)

// User represents a user account together with its role and direct
// permission assignments, always loaded eagerly.
type User struct {
	ID          int64
	Username    string
	Email       string
	IsActive    bool
	Roles       []int64
	Permissions []int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateInput carries the fields accepted when creating a user. Roles and
// Permissions hold the raw JSON so that absence can be told apart from [].
type CreateInput struct {
	Username    string `validate:"required"`
	Email       string `validate:"required"`
	IsActive    *bool
	Roles       json.RawMessage
	Permissions json.RawMessage
}

// UpdateInput carries a partial update; nil fields are left unchanged.
type UpdateInput struct {
	Username    *string
	Email       *string
	IsActive    *bool
	Roles       json.RawMessage
	Permissions json.RawMessage
}
