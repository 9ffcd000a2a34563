package auth

import (
	"context"

	"budgetpilot/src/model"
)

type contextKey string

const UserKey contextKey = "user"

// GetUserFromContext returns the authenticated workspace user placed on the
// request context by the upstream auth middleware.
func GetUserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(UserKey).(*model.User)
	return user, ok
}

// WithUser returns a context carrying the authenticated user. Used by tests
// and by the auth middleware.
func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, UserKey, user)
}
