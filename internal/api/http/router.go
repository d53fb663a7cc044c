package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/session"
	"go.uber.org/zap"

	"github.com/helpdeskhq/helpdesk/internal/api/http/handlers"
	"github.com/helpdeskhq/helpdesk/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health   *handlers.HealthHandler
	Pages    *handlers.PagesHandler
	Users    *handlers.UsersHandler
	Tickets  *handlers.TicketsHandler
	Guard    *auth.Guard
	Tokens   *auth.TokenManager
	Sessions *session.Store
	CSRF     *csrf.Config
	Logger   *zap.Logger
}

// RegisterRoutes wires HTTP routes. Machine routes come first so the browser
// session and csrf middlewares never run for them.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	api := app.Group("/api")
	api.Post("/auth/signup", cfg.Users.APISignup)
	api.Post("/auth/login", cfg.Users.APILogin)

	tickets := api.Group("/tickets", auth.BearerMiddleware(cfg.Tokens))
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Put("/:id", cfg.Tickets.UpdateTicket)
	tickets.Delete("/:id", cfg.Tickets.DeleteTicket)

	app.Use(browserOnly(auth.SessionMiddleware(cfg.Sessions, cfg.Logger)))
	if cfg.CSRF != nil {
		app.Use(csrf.New(*cfg.CSRF))
	}

	requireSession := auth.RequireSession(cfg.Guard)

	app.Get("/", cfg.Pages.Landing)
	app.Get("/login", cfg.Users.LoginPage)
	app.Post("/login", cfg.Users.Login)
	for _, path := range []string{"/signup", "/sign-up"} {
		app.Get(path, cfg.Users.SignupPage)
		app.Post(path, cfg.Users.Signup)
	}
	app.Get("/logout", cfg.Users.Logout)
	app.Post("/logout", cfg.Users.Logout)

	app.Get("/dashboard", requireSession, cfg.Pages.Dashboard)
	app.Get("/tickets", requireSession, cfg.Tickets.Index)
	app.Post("/tickets", requireSession, cfg.Tickets.Create)
	app.Post("/tickets/update", requireSession, cfg.Tickets.Update)
	app.Post("/tickets/delete", requireSession, cfg.Tickets.Delete)
}

func browserOnly(handler fiber.Handler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if IsAPIPath(c.Path()) {
			return c.Next()
		}
		return handler(c)
	}
}
