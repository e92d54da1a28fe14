package guard

import (
	"context"
	"slices"
)

const (
	GuardProtected = "protected"
	GuardPublic    = "public"
)

// EnsureChecked triggers the provider auth check when it never completed
// and none is running. It does not wait for the result.
func EnsureChecked(ctx context.Context, state AuthState) {
	if state == nil {
		return
	}
	if state.AuthCheckCompleted() || state.IsCheckingAuth() {
		return
	}
	state.CheckAuth(ctx)
}

// Protected gates authenticated areas. When Allowed is not empty the user
// role must be an exact member of it.
type Protected struct {
	Allowed []string
	Routes  Routes
}

// RequireAuth builds a Protected guard. Pass no roles to only require a
// signed in user.
func RequireAuth(allowed ...string) Protected {
	return Protected{
		Allowed: allowed,
		Routes:  DefaultRoutes(),
	}
}

// WithRoutes returns a copy of the guard using the given routes
func (p Protected) WithRoutes(routes Routes) Protected {
	p.Routes = routes.withDefaults()
	return p
}

// Name is used for logs and metrics
func (p Protected) Name() string {
	return GuardProtected
}

// Evaluate triggers the auth check if needed and decides on a fresh snapshot.
// from is the location being requested, kept on login redirects.
func (p Protected) Evaluate(ctx context.Context, state AuthState, from string) Outcome {
	EnsureChecked(ctx, state)
	return p.Decide(SnapshotOf(state), from)
}

// Decide maps a snapshot to an outcome
func (p Protected) Decide(snap Snapshot, from string) Outcome {
	routes := p.Routes.withDefaults()

	if snap.Checking || !snap.Completed {
		return loading()
	}

	if !snap.Authenticated {
		return redirect(routes.Login, from, ReasonUnauthenticated)
	}

	if len(p.Allowed) == 0 {
		return render(ReasonAllowed)
	}

	if snap.User != nil && snap.User.Role != "" && slices.Contains(p.Allowed, snap.User.Role) {
		return render(ReasonAllowed)
	}

	if target, ok := routes.Landing(snap.Role()); ok {
		return redirect(target, "", ReasonRoleMismatch)
	}

	return redirect(routes.Login, "", ReasonUnknownRole)
}

// Public gates areas meant for signed out users, like the login page.
type Public struct {
	Routes Routes
}

// PublicOnly builds a Public guard
func PublicOnly() Public {
	return Public{Routes: DefaultRoutes()}
}

// WithRoutes returns a copy of the guard using the given routes
func (p Public) WithRoutes(routes Routes) Public {
	p.Routes = routes.withDefaults()
	return p
}

// Name is used for logs and metrics
func (p Public) Name() string {
	return GuardPublic
}

// Evaluate triggers the auth check if needed and decides on a fresh snapshot.
func (p Public) Evaluate(ctx context.Context, state AuthState) Outcome {
	EnsureChecked(ctx, state)
	return p.Decide(SnapshotOf(state))
}

// Decide maps a snapshot to an outcome. Signed out users are let through
// before the pending check so a known anonymous session never sees the
// loading page. Signed in users with an unknown role stay on the page.
func (p Public) Decide(snap Snapshot) Outcome {
	routes := p.Routes.withDefaults()

	if snap.Completed && !snap.Authenticated {
		return render(ReasonUnauthenticated)
	}

	if snap.Checking || !snap.Completed {
		return loading()
	}

	if target, ok := routes.Landing(snap.Role()); ok {
		return redirect(target, "", ReasonSignedIn)
	}

	return render(ReasonUnknownRole)
}
