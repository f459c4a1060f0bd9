package users

import "github.com/odyssey-erp/odyssey-iam/internal/shared"

// Response is the JSON representation of a user.
type Response struct {
	ID          int64   `json:"id"`
	Username    string  `json:"username"`
	Email       string  `json:"email"`
	IsActive    bool    `json:"is_active"`
	Roles       []int64 `json:"roles"`
	Permissions []int64 `json:"permissions"`
	CreatedAt   *string `json:"created_at"`
	UpdatedAt   *string `json:"updated_at"`
}

// ToResponse serializes a user for transport.
func ToResponse(u User) Response {
	return Response{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		IsActive:    u.IsActive,
		Roles:       nonNil(u.Roles),
		Permissions: nonNil(u.Permissions),
		CreatedAt:   shared.FormatTime(u.CreatedAt),
		UpdatedAt:   shared.FormatTime(u.UpdatedAt),
	}
}

func toResponses(items []User) []Response {
	out := make([]Response, 0, len(items))
	for _, item := range items {
		out = append(out, ToResponse(item))
	}
	return out
}

func nonNil(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}
