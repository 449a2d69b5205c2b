// Package context carries request-scoped values: the acting user and the
// request's trace ids.
package context

import (
	"context"
)

// UserContext is the acting user and branch. Authentication happens in front
// of this service; the core records who created, approved or confirmed a
// posting and which branch it belongs to.
type UserContext struct {
	UserID   string
	BranchID string
}

type userContextKey struct{}

// WithUser adds UserContext to context.
func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// GetUser returns UserContext from context, or nil for anonymous calls.
func GetUser(ctx context.Context) *UserContext {
	if v, ok := ctx.Value(userContextKey{}).(*UserContext); ok {
		return v
	}
	return nil
}

// GetUserID returns the acting user, or "" when none was sent. Voucher
// creation rejects an empty creator, so anonymous writes fail there.
func GetUserID(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.UserID
	}
	return ""
}

// GetBranchID returns the branch tag for postings, or "".
func GetBranchID(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.BranchID
	}
	return ""
}
