package guard

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

// FiberGuard exposes the guards as fiber handlers
type FiberGuard struct {
	*engine
	// StateProvider overrides the credential based session lookup
	StateProvider func(c *fiber.Ctx) AuthState
	// Views renders the loading view when set, otherwise the app views do
	Views fiber.Views
}

// NewFiberGuard creates fiber guards resolving sessions with resolver
func NewFiberGuard(resolver SessionResolver, cfg Config, opts ...Option) (*FiberGuard, error) {
	e, err := newEngine(resolver, cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &FiberGuard{engine: e}, nil
}

// Protected only lets authenticated users through. When roles are given
// the user role must be one of them.
func (g *FiberGuard) Protected(allowed ...string) fiber.Handler {
	p := RequireAuth(allowed...).WithRoutes(g.routes)
	return func(c *fiber.Ctx) error {
		state := g.state(c)
		from := c.OriginalURL()
		outcome := g.evaluate(c.UserContext(), p.Name(), state, func(snap Snapshot) Outcome {
			return p.Decide(snap, from)
		})
		return g.apply(c, outcome, state)
	}
}

// Public only lets signed out users through, signed in users are sent to
// their landing page.
func (g *FiberGuard) Public() fiber.Handler {
	p := PublicOnly().WithRoutes(g.routes)
	return func(c *fiber.Ctx) error {
		state := g.state(c)
		outcome := g.evaluate(c.UserContext(), p.Name(), state, p.Decide)
		return g.apply(c, outcome, state)
	}
}

func (g *FiberGuard) state(c *fiber.Ctx) AuthState {
	if g.StateProvider != nil {
		return g.StateProvider(c)
	}
	return g.stateFor(g.Credential(c))
}

// Credential returns the session credential carried by the request.
// The value is copied out of the request buffer, fiber reuses it.
func (g *FiberGuard) Credential(c *fiber.Ctx) string {
	return utils.CopyString(extractCredential(credentialSource{
		cookie: func(name string) string { return c.Cookies(name) },
		header: func(name string) string { return c.Get(name) },
		query:  func(name string) string { return c.Query(name) },
	}, g.extractors))
}

func (g *FiberGuard) apply(c *fiber.Ctx, outcome Outcome, state AuthState) error {
	switch outcome.Kind {
	case OutcomeRender:
		if user := SnapshotOf(state).User; user != nil {
			c.Locals(g.cfg.GetContextKey(), user)
			c.SetUserContext(WithUser(c.UserContext(), user))
		}
		return c.Next()
	case OutcomeLoading:
		c.Set("Refresh", strconv.Itoa(g.cfg.GetRefreshInterval()))
		c.Set(fiber.HeaderCacheControl, "no-store")
		bind := fiber.Map(g.loadingBind(c.OriginalURL()))
		c.Status(fiber.StatusOK)
		if g.Views != nil {
			c.Type("html", "utf-8")
			return g.Views.Render(c, g.cfg.GetLoadingView(), bind)
		}
		return c.Render(g.cfg.GetLoadingView(), bind)
	default:
		if outcome.From != "" {
			g.setCookie(c, g.cfg.GetRejectedRouteKey(), outcome.From, g.rejectedRouteExpiry())
		}
		return c.Redirect(outcome.Target, redirectStatus(c.Method()))
	}
}

// Login stores the session credential cookie
func (g *FiberGuard) Login(c *fiber.Ctx, credential string, ttl time.Duration) {
	g.forget(c.Cookies(g.cfg.GetSessionCookie()))
	g.setCookie(c, g.cfg.GetSessionCookie(), credential, time.Now().Add(ttl))
}

// Logout clears the session cookie and the cached session state
func (g *FiberGuard) Logout(c *fiber.Ctx) {
	g.forget(g.Credential(c))
	g.cookieDel(c, g.cfg.GetSessionCookie())
}

// GetRedirectOrDefault returns the location remembered before a login
// redirect and clears it.
func (g *FiberGuard) GetRedirectOrDefault(c *fiber.Ctx) string {
	key := g.cfg.GetRejectedRouteKey()
	r := g.localRedirect(c.Cookies(key))
	g.cookieDel(c, key)
	return r
}

// CurrentUser returns the user a guard stored on the request
func (g *FiberGuard) CurrentUser(c *fiber.Ctx) (*User, bool) {
	user, ok := c.Locals(g.cfg.GetContextKey()).(*User)
	return user, ok && user != nil
}

func (g *FiberGuard) setCookie(c *fiber.Ctx, name, val string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    val,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   g.cfg.GetSecureCookies(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (g *FiberGuard) cookieDel(c *fiber.Ctx, name string) {
	g.setCookie(c, name, "", time.Now().Add(-time.Hour*(24*365)))
}
