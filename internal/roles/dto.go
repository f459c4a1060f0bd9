package roles

import "github.com/odyssey-erp/odyssey-iam/internal/shared"

// Response is the JSON representation of a role.
type Response struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	CreatedAt   *string `json:"created_at"`
	UpdatedAt   *string `json:"updated_at"`
}

// ToResponse serializes a role for transport.
func ToResponse(r Role) Response {
	return Response{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		CreatedAt:   shared.FormatTime(r.CreatedAt),
		UpdatedAt:   shared.FormatTime(r.UpdatedAt),
	}
}

func toResponses(items []Role) []Response {
	out := make([]Response, 0, len(items))
	for _, item := range items {
		out = append(out, ToResponse(item))
	}
	return out
}
