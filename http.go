package guard

import (
	"context"
	"strconv"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// routeContext is the part of router.Context the guards use
type routeContext interface {
	Context() context.Context
	SetContext(ctx context.Context)
	Method() string
	OriginalURL() string
	Header(key string) string
	SetHeader(key, val string) router.Context
	Cookies(key string, defaultValue ...string) string
	Cookie(cookie *router.Cookie)
	Query(key string, defaultValue string) string
	Locals(key any, value ...any) any
	Redirect(path string, status ...int) error
	Render(name string, bind any, layout ...string) error
}

// RouteGuard exposes the guards as go-router middleware
type RouteGuard struct {
	*engine
	// StateProvider overrides the credential based session lookup
	StateProvider func(c router.Context) AuthState
	ErrorHandler  func(c router.Context, err error) error
}

// NewRouteGuard creates go-router guards resolving sessions with resolver
func NewRouteGuard(resolver SessionResolver, cfg Config, opts ...Option) (*RouteGuard, error) {
	e, err := newEngine(resolver, cfg, opts...)
	if err != nil {
		return nil, err
	}

	g := &RouteGuard{engine: e}
	g.ErrorHandler = g.defaultErrHandler
	return g, nil
}

// Protected only lets authenticated users through. When roles are given
// the user role must be one of them.
func (g *RouteGuard) Protected(allowed ...string) router.MiddlewareFunc {
	p := RequireAuth(allowed...).WithRoutes(g.routes)
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) error {
			pass, err := g.protect(c, g.state(c), p)
			if err != nil {
				return g.ErrorHandler(c, err)
			}
			if !pass {
				return nil
			}
			return next(c)
		}
	}
}

// Public only lets signed out users through, signed in users are sent to
// their landing page.
func (g *RouteGuard) Public() router.MiddlewareFunc {
	p := PublicOnly().WithRoutes(g.routes)
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) error {
			pass, err := g.public(c, g.state(c), p)
			if err != nil {
				return g.ErrorHandler(c, err)
			}
			if !pass {
				return nil
			}
			return next(c)
		}
	}
}

// protect reports whether the request may reach the protected handler.
// When it may not, the response has already been written.
func (g *RouteGuard) protect(c routeContext, state AuthState, p Protected) (bool, error) {
	from := c.OriginalURL()
	outcome := g.evaluate(c.Context(), p.Name(), state, func(snap Snapshot) Outcome {
		return p.Decide(snap, from)
	})
	return outcome.Kind == OutcomeRender, g.apply(c, outcome, state)
}

func (g *RouteGuard) public(c routeContext, state AuthState, p Public) (bool, error) {
	outcome := g.evaluate(c.Context(), p.Name(), state, p.Decide)
	return outcome.Kind == OutcomeRender, g.apply(c, outcome, state)
}

func (g *RouteGuard) state(c router.Context) AuthState {
	if g.StateProvider != nil {
		return g.StateProvider(c)
	}
	return g.stateFor(g.credential(c))
}

func (g *RouteGuard) credential(c routeContext) string {
	return extractCredential(credentialSource{
		cookie: func(name string) string { return c.Cookies(name) },
		header: c.Header,
		query:  func(name string) string { return c.Query(name, "") },
	}, g.extractors)
}

// apply translates an outcome into the response. On render it only stores
// the user, the caller runs the next handler.
func (g *RouteGuard) apply(c routeContext, outcome Outcome, state AuthState) error {
	switch outcome.Kind {
	case OutcomeRender:
		if user := SnapshotOf(state).User; user != nil {
			c.Locals(g.cfg.GetContextKey(), user)
			c.SetContext(WithUser(c.Context(), user))
		}
		return nil
	case OutcomeLoading:
		c.SetHeader("Refresh", strconv.Itoa(g.cfg.GetRefreshInterval()))
		return c.Render(g.cfg.GetLoadingView(), router.ViewContext(g.loadingBind(c.OriginalURL())))
	default:
		if outcome.From != "" {
			g.setRedirect(c, outcome.From)
		}
		return c.Redirect(outcome.Target, redirectStatus(c.Method()))
	}
}

// Login stores the session credential cookie
func (g *RouteGuard) Login(c routeContext, credential string, ttl time.Duration) {
	g.forget(c.Cookies(g.cfg.GetSessionCookie()))
	g.setCookie(c, g.cfg.GetSessionCookie(), credential, time.Now().Add(ttl))
}

// Logout clears the session cookie and the cached session state
func (g *RouteGuard) Logout(c routeContext) {
	g.forget(g.credential(c))
	g.cookieDel(c, g.cfg.GetSessionCookie())
}

// GetRedirectOrDefault returns the location remembered before a login
// redirect and clears it.
func (g *RouteGuard) GetRedirectOrDefault(c routeContext) string {
	key := g.cfg.GetRejectedRouteKey()
	r := g.localRedirect(c.Cookies(key))
	g.cookieDel(c, key)
	return r
}

func (g *RouteGuard) setRedirect(c routeContext, from string) {
	g.setCookie(c, g.cfg.GetRejectedRouteKey(), from, g.rejectedRouteExpiry())
}

func (g *RouteGuard) setCookie(c routeContext, name, val string, expires time.Time) {
	c.Cookie(&router.Cookie{
		Name:     name,
		Value:    val,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   g.cfg.GetSecureCookies(),
		SameSite: "Lax",
	})
}

func (g *RouteGuard) cookieDel(c routeContext, name string) {
	g.setCookie(c, name, "", time.Now().Add(-time.Hour*(24*365)))
}

func (g *RouteGuard) defaultErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "route guard failed").
			WithCode(errors.CodeInternal)
	}

	g.logger.Error(
		"route guard error",
		"error", richErr.Message,
		"path", c.OriginalURL(),
		"details", print.MaybePrettyJSON(richErr.Metadata),
	)

	return richErr
}
