package users

import (
	"context"
	"errors"
	"strings"

	"github.com/fdg312/diet-hub/internal/storage"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrInvalidRole  = errors.New("role must be user or admin")
	ErrSelfDemotion = errors.New("admins cannot demote themselves")
	ErrSelfDeletion = errors.New("admins cannot delete themselves")
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

// Service: управление учётными записями для администраторов
type Service struct {
	users storage.UsersStorage
}

func NewService(users storage.UsersStorage) *Service {
	return &Service{users: users}
}

// List возвращает пользователей, чей email содержит query
func (s *Service) List(ctx context.Context, query string, limit, offset int) (ListUsersResponse, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}

	list, total, err := s.users.ListUsers(ctx, strings.ToLower(strings.TrimSpace(query)), limit, offset)
	if err != nil {
		return ListUsersResponse{}, err
	}

	dtos := make([]UserDTO, len(list))
	for i := range list {
		dtos[i] = toDTO(&list[i])
	}
	return ListUsersResponse{Users: dtos, Total: total, Limit: limit, Offset: offset}, nil
}

// UpdateRole меняет роль; администратор не может понизить сам себя
func (s *Service) UpdateRole(ctx context.Context, actorID, userID, role string) (UserDTO, error) {
	role = strings.ToLower(strings.TrimSpace(role))
	if role != storage.RoleUser && role != storage.RoleAdmin {
		return UserDTO{}, ErrInvalidRole
	}
	if actorID == userID && role != storage.RoleAdmin {
		return UserDTO{}, ErrSelfDemotion
	}

	user, err := s.users.UpdateUserRole(ctx, userID, role)
	if errors.Is(err, storage.ErrNotFound) {
		return UserDTO{}, ErrUserNotFound
	}
	if err != nil {
		return UserDTO{}, err
	}
	return toDTO(user), nil
}

// Delete удаляет пользователя вместе с его профилем здоровья и планом
func (s *Service) Delete(ctx context.Context, actorID, userID string) error {
	if actorID == userID {
		return ErrSelfDeletion
	}
	err := s.users.DeleteUser(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}

func toDTO(u *storage.User) UserDTO {
	return UserDTO{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
