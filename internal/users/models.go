package users

import "time"

// UserDTO: пользователь в ответах админки
type UserDTO struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ListUsersResponse: ответ GET /v1/admin/users
type ListUsersResponse struct {
	Users  []UserDTO `json:"users"`
	Total  int       `json:"total"`
	Limit  int       `json:"limit"`
	Offset int       `json:"offset"`
}

// UpdateRoleRequest: тело PATCH /v1/admin/users/{id}
type UpdateRoleRequest struct {
	Role string `json:"role"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
