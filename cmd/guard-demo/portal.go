package main

import (
	"embed"
	"io/fs"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/template/django/v3"
	guard "github.com/goliatone/go-route-guard"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed views
var viewsFS embed.FS

type portalConfig struct {
	Guard      *guard.Options
	Users      *directory
	Sessions   sessionBackend
	SessionTTL time.Duration
	Registry   *prometheus.Registry
	Logger     guard.Logger
}

type portal struct {
	app   *fiber.App
	guard *guard.FiberGuard
	cfg   portalConfig
}

type area struct {
	path  string
	title string
	roles []string
}

// areas are the role landing pages
var areas = []area{
	{path: "/student", title: "Student area", roles: []string{"student"}},
	{path: "/admin", title: "Admin area", roles: []string{"admin"}},
	{path: "/security", title: "Security desk", roles: []string{"security", "guard"}},
}

func newPortal(cfg portalConfig) (*portal, error) {
	views, err := fs.Sub(viewsFS, "views")
	if err != nil {
		return nil, err
	}

	g, err := guard.NewFiberGuard(cfg.Sessions, cfg.Guard,
		guard.WithLogger(cfg.Logger),
		guard.WithMetrics(guard.NewMetrics(cfg.Registry)),
	)
	if err != nil {
		return nil, err
	}
	g.Views = guard.NewViewEngine()

	app := fiber.New(fiber.Config{
		AppName:               "guard-demo",
		DisableStartupMessage: true,
		Views:                 django.NewFileSystem(http.FS(views), ".django"),
	})

	p := &portal{app: app, guard: g, cfg: cfg}

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{})))

	app.Get("/login", g.Public(), p.loginPage)
	app.Post("/login", g.Public(), p.login)
	app.Post("/logout", p.logout)

	app.Get("/", g.Protected(), p.home)
	for _, a := range areas {
		app.Get(a.path, g.Protected(a.roles...), p.areaPage(a))
	}

	return p, nil
}

func (p *portal) loginPage(c *fiber.Ctx) error {
	bind := fiber.Map{
		"failed": c.Query("error") != "",
	}
	if user, ok := p.guard.CurrentUser(c); ok {
		bind["unknown_role"] = user.Role
	}
	return c.Render("login", p.guard.TemplateData(c, bind))
}

func (p *portal) login(c *fiber.Ctx) error {
	user, err := p.cfg.Users.Authenticate(c.UserContext(), c.FormValue("username"), c.FormValue("password"))
	if err != nil {
		p.cfg.Logger.Info("login failed", "username", c.FormValue("username"), "error", err)
		return c.Redirect("/login?error=1", fiber.StatusSeeOther)
	}

	credential, err := p.cfg.Sessions.Issue(c.UserContext(), user, p.cfg.SessionTTL)
	if err != nil {
		p.cfg.Logger.Error("failed to issue session", "username", user.Username, "error", err)
		return fiber.ErrInternalServerError
	}

	p.guard.Login(c, credential, p.cfg.SessionTTL)
	p.cfg.Logger.Info("login", "username", user.Username, "role", user.Role)

	return c.Redirect(p.guard.GetRedirectOrDefault(c), fiber.StatusSeeOther)
}

func (p *portal) logout(c *fiber.Ctx) error {
	if credential := p.guard.Credential(c); credential != "" {
		if err := p.cfg.Sessions.Revoke(c.UserContext(), credential); err != nil {
			p.cfg.Logger.Error("failed to revoke session", "error", err)
		}
	}
	p.guard.Logout(c)
	return c.Redirect("/login", fiber.StatusSeeOther)
}

// home sends users to their area, users without one see a notice
func (p *portal) home(c *fiber.Ctx) error {
	user, _ := p.guard.CurrentUser(c)
	if target, ok := guard.DefaultRoutes().Landing(user.RoleTag()); ok {
		return c.Redirect(target, fiber.StatusFound)
	}
	return c.Render("area", p.guard.TemplateData(c, fiber.Map{
		"title":   "No area",
		"message": "Your account has no area assigned.",
	}))
}

func (p *portal) areaPage(a area) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.Render("area", p.guard.TemplateData(c, fiber.Map{
			"title": a.title,
		}))
	}
}
