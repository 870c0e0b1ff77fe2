package web

import (
	"context"

	"notebook/internal/store"
)

type contextKey int

const userKey contextKey = iota

func WithUser(ctx context.Context, user *store.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// CurrentUser returns the authenticated user for the request, or nil for an
// anonymous visitor.
func CurrentUser(ctx context.Context) *store.User {
	user, _ := ctx.Value(userKey).(*store.User)
	return user
}
