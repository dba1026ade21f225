package userctx

import "context"

type contextKey string

const (
	userIDContextKey contextKey = "user_id"
	roleContextKey   contextKey = "role"
)

const RoleAdmin = "admin"

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	return userID, ok && userID != ""
}

// WithUser stores both the user ID and the role.
func WithUser(ctx context.Context, userID, role string) context.Context {
	return context.WithValue(WithUserID(ctx, userID), roleContextKey, role)
}

func GetRole(ctx context.Context) string {
	role, _ := ctx.Value(roleContextKey).(string)
	return role
}

func IsAdmin(ctx context.Context) bool {
	return GetRole(ctx) == RoleAdmin
}
