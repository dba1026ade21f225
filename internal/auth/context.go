package auth

import (
	"context"

	"github.com/fdg312/diet-hub/internal/userctx"
)

const (
	// AnonymousUserID is the identity used when AUTH_MODE=none or no token was sent.
	AnonymousUserID = "default"
	// DevUserID is the identity behind POST /v1/auth/dev tokens.
	DevUserID = "dev-user"
)

func WithUser(ctx context.Context, userID, role string) context.Context {
	return userctx.WithUser(ctx, userID, role)
}

func GetUserID(ctx context.Context) (string, bool) {
	return userctx.GetUserID(ctx)
}
