package auth

import (
	"context"
)

type ctxKey string

const identityKey ctxKey = "identity"

// Identity is the authenticated caller. UserID is the effective user every
// user-scoped query runs as; it differs from RealUserID while an admin
// impersonates someone.
type Identity struct {
	UserID        int64
	RealUserID    int64
	Email         string
	SessionID     string
	Impersonating bool
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	v, ok := ctx.Value(identityKey).(Identity)
	return v, ok
}

// UserID returns the effective user id, 0 when unauthenticated.
func UserID(ctx context.Context) int64 {
	id, _ := FromContext(ctx)
	return id.UserID
}

// RealUserID returns the logged-in user's id even while impersonating.
func RealUserID(ctx context.Context) int64 {
	id, _ := FromContext(ctx)
	return id.RealUserID
}
