// Package guard gates routes on authentication state and user role.
//
// Guards:
//   - Protected (RequireAuth) lets authenticated users through. With allowed
//     roles the user role must match one of them exactly, otherwise the user
//     is sent to the landing page of their own role, or to the login page
//     when the role is not recognised. Signed out users go to the login page
//     and the requested location is remembered for after login.
//   - Public (PublicOnly) lets signed out users through, typically the login
//     page. Signed in users are sent to their landing page, users with an
//     unrecognised role stay on the page.
//
// Both guards read an AuthState, an external provider exposing the
// authenticated, checking and completed flags plus the current user, and
// trigger its idempotent CheckAuth when the session was never checked.
// While a check is pending they answer with a loading outcome.
//
// Decisions are plain Outcome values. RouteGuard (go-router) and FiberGuard
// (fiber) translate them into handler calls, loading pages and redirects,
// resolving sessions from JWT cookies (TokenService) or Redis backed
// sessions (RedisSessions) through a per credential Store cache.
//
// TemplateHelpers exposes is_authenticated, has_role and landing_path to
// django views.
package guard
