package guard_test

import (
	"context"
	"testing"

	guard "github.com/goliatone/go-route-guard"
	"github.com/stretchr/testify/assert"
)

func TestUserFromContext(t *testing.T) {
	tests := []struct {
		name     string
		setupCtx func() context.Context
		wantUser *guard.User
		wantOK   bool
	}{
		{
			name: "should return user when present in context",
			setupCtx: func() context.Context {
				return guard.WithUser(context.Background(), &guard.User{ID: "user123", Role: "admin"})
			},
			wantUser: &guard.User{ID: "user123", Role: "admin"},
			wantOK:   true,
		},
		{
			name:     "should return false when no user in context",
			setupCtx: context.Background,
		},
		{
			name: "should return false for a nil user",
			setupCtx: func() context.Context {
				return guard.WithUser(context.Background(), nil)
			},
		},
		{
			name:     "should handle nil context",
			setupCtx: func() context.Context { return nil },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, ok := guard.UserFromContext(tt.setupCtx())
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantUser, user)
		})
	}
}

func TestHasRole(t *testing.T) {
	ctx := guard.WithUser(context.Background(), &guard.User{ID: "u1", Role: "guard"})

	assert.True(t, guard.HasRole(ctx, "security", "guard"))
	assert.False(t, guard.HasRole(ctx, "security"))
	assert.False(t, guard.HasRole(ctx, "Guard"))
	assert.False(t, guard.HasRole(context.Background(), "guard"))

	noRole := guard.WithUser(context.Background(), &guard.User{ID: "u2"})
	assert.False(t, guard.HasRole(noRole, ""))
}
