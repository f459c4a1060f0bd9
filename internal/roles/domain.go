package roles

import "time"

// Role represents a named grouping that can be assigned to users.
type Role struct {
	ID          int64
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateInput carries the fields accepted when creating a role.
type CreateInput struct {
	Name        string `validate:"required"`
	Description string
}

// UpdateInput carries a partial update; nil fields are left unchanged.
type UpdateInput struct {
	Name        *string
	Description *string
}

// Changed lists the field names present in the update.
func (in UpdateInput) Changed() []string {
	var fields []string
	if in.Name != nil {
		fields = append(fields, "name")
	}
	if in.Description != nil {
		fields = append(fields, "description")
	}
	return fields
}
