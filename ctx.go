package guard

import (
	"context"
)

var userCtxKey = &contextKey{"user"}

type contextKey struct {
	name string
}

// WithUser sets the User in the given context
func WithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userCtxKey, user)
}

// UserFromContext finds the user from the context.
func UserFromContext(ctx context.Context) (*User, bool) {
	if ctx == nil {
		return nil, false
	}
	raw, ok := ctx.Value(userCtxKey).(*User)
	return raw, ok && raw != nil
}

// HasRole reports whether the user in ctx has one of the given raw roles
func HasRole(ctx context.Context, roles ...string) bool {
	user, ok := UserFromContext(ctx)
	if !ok || user.Role == "" {
		return false
	}
	for _, role := range roles {
		if user.Role == role {
			return true
		}
	}
	return false
}
