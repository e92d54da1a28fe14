package guard_test

import (
	"context"
	"testing"

	guard "github.com/goliatone/go-route-guard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestProtected_Decide(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		snap    guard.Snapshot
		from    string
		want    guard.Outcome
	}{
		{
			name: "should show loading while the first check is pending",
			snap: guard.Snapshot{},
			want: guard.Outcome{Kind: guard.OutcomeLoading, Reason: guard.ReasonPending},
		},
		{
			name: "should show loading while a check is running",
			snap: pending(),
			want: guard.Outcome{Kind: guard.OutcomeLoading, Reason: guard.ReasonPending},
		},
		{
			name: "should show loading when checking even if a check completed before",
			snap: guard.Snapshot{Checking: true, Completed: true, Authenticated: true, User: &guard.User{Role: "admin"}},
			want: guard.Outcome{Kind: guard.OutcomeLoading, Reason: guard.ReasonPending},
		},
		{
			name: "should redirect signed out users to login keeping the origin",
			snap: signedOut(),
			from: "/admin/reports?page=2",
			want: guard.Outcome{
				Kind:    guard.OutcomeRedirect,
				Target:  "/login",
				From:    "/admin/reports?page=2",
				Replace: true,
				Reason:  guard.ReasonUnauthenticated,
			},
		},
		{
			name: "should render for any signed in user without allowed roles",
			snap: signedIn("student"),
			want: guard.Outcome{Kind: guard.OutcomeRender, Reason: guard.ReasonAllowed},
		},
		{
			name: "should render for a signed in user with no role and no constraint",
			snap: signedIn(""),
			want: guard.Outcome{Kind: guard.OutcomeRender, Reason: guard.ReasonAllowed},
		},
		{
			name:    "should render when the role is allowed",
			allowed: []string{"admin"},
			snap:    signedIn("admin"),
			want:    guard.Outcome{Kind: guard.OutcomeRender, Reason: guard.ReasonAllowed},
		},
		{
			name:    "should render when the role is one of many allowed",
			allowed: []string{"security", "guard"},
			snap:    signedIn("guard"),
			want:    guard.Outcome{Kind: guard.OutcomeRender, Reason: guard.ReasonAllowed},
		},
		{
			name:    "should send a student to the student area",
			allowed: []string{"admin"},
			snap:    signedIn("student"),
			from:    "/admin",
			want: guard.Outcome{
				Kind:    guard.OutcomeRedirect,
				Target:  "/student",
				Replace: true,
				Reason:  guard.ReasonRoleMismatch,
			},
		},
		{
			name:    "should send a guard to the security area",
			allowed: []string{"admin"},
			snap:    signedIn("guard"),
			want: guard.Outcome{
				Kind:    guard.OutcomeRedirect,
				Target:  "/security",
				Replace: true,
				Reason:  guard.ReasonRoleMismatch,
			},
		},
		{
			name:    "should match roles case sensitively",
			allowed: []string{"admin"},
			snap:    signedIn("Admin"),
			want: guard.Outcome{
				Kind:    guard.OutcomeRedirect,
				Target:  "/login",
				Replace: true,
				Reason:  guard.ReasonUnknownRole,
			},
		},
		{
			name:    "should send users without a role to login",
			allowed: []string{"admin"},
			snap:    signedIn(""),
			want: guard.Outcome{
				Kind:    guard.OutcomeRedirect,
				Target:  "/login",
				Replace: true,
				Reason:  guard.ReasonUnknownRole,
			},
		},
		{
			name:    "should send users with an unknown role to login",
			allowed: []string{"admin"},
			snap:    signedIn("professor"),
			want: guard.Outcome{
				Kind:    guard.OutcomeRedirect,
				Target:  "/login",
				Replace: true,
				Reason:  guard.ReasonUnknownRole,
			},
		},
		{
			name:    "should treat a nil user as missing role",
			allowed: []string{"admin"},
			snap:    guard.Snapshot{Authenticated: true, Completed: true},
			want: guard.Outcome{
				Kind:    guard.OutcomeRedirect,
				Target:  "/login",
				Replace: true,
				Reason:  guard.ReasonUnknownRole,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := guard.RequireAuth(tt.allowed...).Decide(tt.snap, tt.from)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPublic_Decide(t *testing.T) {
	tests := []struct {
		name string
		snap guard.Snapshot
		want guard.Outcome
	}{
		{
			name: "should show loading before the first check",
			snap: guard.Snapshot{},
			want: guard.Outcome{Kind: guard.OutcomeLoading, Reason: guard.ReasonPending},
		},
		{
			name: "should show loading while a check is running",
			snap: pending(),
			want: guard.Outcome{Kind: guard.OutcomeLoading, Reason: guard.ReasonPending},
		},
		{
			name: "should render for signed out users",
			snap: signedOut(),
			want: guard.Outcome{Kind: guard.OutcomeRender, Reason: guard.ReasonUnauthenticated},
		},
		{
			name: "should render for signed out users even while a recheck runs",
			snap: guard.Snapshot{Completed: true, Checking: true},
			want: guard.Outcome{Kind: guard.OutcomeRender, Reason: guard.ReasonUnauthenticated},
		},
		{
			name: "should send students to their area",
			snap: signedIn("student"),
			want: guard.Outcome{Kind: guard.OutcomeRedirect, Target: "/student", Replace: true, Reason: guard.ReasonSignedIn},
		},
		{
			name: "should send admins to their area",
			snap: signedIn("admin"),
			want: guard.Outcome{Kind: guard.OutcomeRedirect, Target: "/admin", Replace: true, Reason: guard.ReasonSignedIn},
		},
		{
			name: "should send guards to the security area",
			snap: signedIn("guard"),
			want: guard.Outcome{Kind: guard.OutcomeRedirect, Target: "/security", Replace: true, Reason: guard.ReasonSignedIn},
		},
		{
			name: "should send security to the security area",
			snap: signedIn("security"),
			want: guard.Outcome{Kind: guard.OutcomeRedirect, Target: "/security", Replace: true, Reason: guard.ReasonSignedIn},
		},
		{
			name: "should stay on the page when the role is missing",
			snap: signedIn(""),
			want: guard.Outcome{Kind: guard.OutcomeRender, Reason: guard.ReasonUnknownRole},
		},
		{
			name: "should stay on the page when the role is unknown",
			snap: signedIn("professor"),
			want: guard.Outcome{Kind: guard.OutcomeRender, Reason: guard.ReasonUnknownRole},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := guard.PublicOnly().Decide(tt.snap)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGuards_NeverDecideBeforeCompletion(t *testing.T) {
	snaps := []guard.Snapshot{
		{},
		{Checking: true},
		{Authenticated: true},
		{Authenticated: true, Checking: true, User: &guard.User{Role: "admin"}},
		{User: &guard.User{Role: "student"}},
	}

	for _, snap := range snaps {
		assert.Equal(t, guard.OutcomeLoading, guard.RequireAuth().Decide(snap, "/x").Kind)
		assert.Equal(t, guard.OutcomeLoading, guard.RequireAuth("admin").Decide(snap, "/x").Kind)
		assert.Equal(t, guard.OutcomeLoading, guard.PublicOnly().Decide(snap).Kind)
	}
}

func TestGuards_CustomRoutes(t *testing.T) {
	routes := guard.Routes{Login: "/auth/sign-in", Admin: "/backoffice"}

	p := guard.RequireAuth("student").WithRoutes(routes)

	out := p.Decide(signedOut(), "/courses")
	assert.Equal(t, "/auth/sign-in", out.Target)

	out = p.Decide(signedIn("admin"), "/courses")
	assert.Equal(t, "/backoffice", out.Target)

	out = guard.PublicOnly().WithRoutes(routes).Decide(signedIn("student"))
	assert.Equal(t, "/student", out.Target)
}

func TestEnsureChecked(t *testing.T) {
	ctx := context.Background()

	t.Run("should trigger when never checked and idle", func(t *testing.T) {
		state := new(MockAuthState)
		state.On("AuthCheckCompleted").Return(false)
		state.On("IsCheckingAuth").Return(false)
		state.On("CheckAuth", ctx).Return().Once()

		guard.EnsureChecked(ctx, state)

		state.AssertExpectations(t)
	})

	t.Run("should not trigger when a check is running", func(t *testing.T) {
		state := new(MockAuthState)
		state.On("AuthCheckCompleted").Return(false)
		state.On("IsCheckingAuth").Return(true)

		guard.EnsureChecked(ctx, state)

		state.AssertNotCalled(t, "CheckAuth", mock.Anything)
	})

	t.Run("should not trigger when the check completed", func(t *testing.T) {
		state := new(MockAuthState)
		state.On("AuthCheckCompleted").Return(true)

		guard.EnsureChecked(ctx, state)

		state.AssertNotCalled(t, "CheckAuth", mock.Anything)
	})

	t.Run("should ignore a nil state", func(t *testing.T) {
		assert.NotPanics(t, func() { guard.EnsureChecked(ctx, nil) })
	})
}

func TestProtected_Evaluate(t *testing.T) {
	ctx := context.Background()

	t.Run("should decide on the state left by a synchronous check", func(t *testing.T) {
		state := newFakeState(guard.Snapshot{})
		state.onCheck = func(s *guard.Snapshot) {
			*s = signedIn("admin")
		}

		out := guard.RequireAuth("admin").Evaluate(ctx, state, "/admin")

		assert.Equal(t, guard.OutcomeRender, out.Kind)
		assert.Equal(t, 1, state.Checks())
	})

	t.Run("should show loading while an async check runs", func(t *testing.T) {
		state := newFakeState(guard.Snapshot{})
		state.onCheck = func(s *guard.Snapshot) {
			s.Checking = true
		}

		out := guard.RequireAuth().Evaluate(ctx, state, "/admin")
		assert.Equal(t, guard.OutcomeLoading, out.Kind)

		out = guard.RequireAuth().Evaluate(ctx, state, "/admin")
		assert.Equal(t, guard.OutcomeLoading, out.Kind)

		assert.Equal(t, 1, state.Checks(), "check must not be triggered twice")
	})

	t.Run("should not trigger once completed", func(t *testing.T) {
		state := newFakeState(signedOut())

		out := guard.RequireAuth().Evaluate(ctx, state, "/admin")

		assert.Equal(t, guard.OutcomeRedirect, out.Kind)
		assert.Equal(t, "/admin", out.From)
		assert.Equal(t, 0, state.Checks())
	})
}

func TestPublic_Evaluate(t *testing.T) {
	ctx := context.Background()

	t.Run("should render a known anonymous session without triggering", func(t *testing.T) {
		state := newFakeState(signedOut())

		out := guard.PublicOnly().Evaluate(ctx, state)

		assert.Equal(t, guard.OutcomeRender, out.Kind)
		assert.Equal(t, 0, state.Checks())
	})

	t.Run("should trigger and redirect a signed in guard", func(t *testing.T) {
		state := newFakeState(guard.Snapshot{})
		state.onCheck = func(s *guard.Snapshot) {
			*s = signedIn("guard")
		}

		out := guard.PublicOnly().Evaluate(ctx, state)

		assert.Equal(t, guard.OutcomeRedirect, out.Kind)
		assert.Equal(t, "/security", out.Target)
		assert.Equal(t, 1, state.Checks())
	})
}

func TestSnapshotOf(t *testing.T) {
	t.Run("should read flags from plain providers", func(t *testing.T) {
		user := &guard.User{ID: "u1", Role: "admin"}
		state := new(MockAuthState)
		state.On("IsAuthenticated").Return(true)
		state.On("IsCheckingAuth").Return(false)
		state.On("AuthCheckCompleted").Return(true)
		state.On("User").Return(user)

		snap := guard.SnapshotOf(state)

		assert.Equal(t, guard.Snapshot{Authenticated: true, Completed: true, User: user}, snap)
		assert.Equal(t, guard.RoleAdmin, snap.Role())
	})

	t.Run("should return an empty snapshot for nil", func(t *testing.T) {
		assert.Equal(t, guard.Snapshot{}, guard.SnapshotOf(nil))
	})
}

func TestOutcome_String(t *testing.T) {
	out := guard.RequireAuth().Decide(signedOut(), "/admin")
	assert.Equal(t, "redirect /login from /admin (unauthenticated)", out.String())

	out = guard.PublicOnly().Decide(signedIn("student"))
	assert.Equal(t, "redirect /student (signed_in)", out.String())

	out = guard.PublicOnly().Decide(pending())
	assert.Equal(t, "loading (pending)", out.String())
}
