package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/session"
	"go.uber.org/zap"

	"github.com/helpdeskhq/helpdesk/internal/api/http/handlers"
	"github.com/helpdeskhq/helpdesk/internal/auth"
	"github.com/helpdeskhq/helpdesk/internal/clock"
	"github.com/helpdeskhq/helpdesk/internal/config"
	"github.com/helpdeskhq/helpdesk/internal/observability"
	"github.com/helpdeskhq/helpdesk/internal/service"
	"github.com/helpdeskhq/helpdesk/internal/views"
)

// ServerDependencies are the collaborators the HTTP layer is built from.
type ServerDependencies struct {
	Auth           *service.AuthService
	Tickets        *service.TicketService
	SessionStorage fiber.Storage
	Dependencies   map[string]handlers.Pinger
	Metrics        *observability.Metrics
	Clock          clock.Clock
	Logger         *zap.Logger
}

// NewServer builds the fiber application with every middleware and route.
func NewServer(cfg *config.Config, deps ServerDependencies) *fiber.App {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	c := deps.Clock
	if c == nil {
		c = clock.Real()
	}

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		Views:                 views.New(),
		DisableStartupMessage: true,
		// Parsed values outlive the request in events and the memory store.
		Immutable:             true,
	})

	RegisterMiddlewares(app, logger, deps.Metrics, cfg.App.RequestTimeout())

	sessions := session.New(session.Config{
		Expiration:     cfg.Session.TTL(),
		Storage:        deps.SessionStorage,
		KeyLookup:      "cookie:" + cfg.Session.CookieName,
		CookieSecure:   cfg.Session.CookieSecure,
		CookieHTTPOnly: true,
		CookieSameSite: fiber.CookieSameSiteLaxMode,
	})

	var csrfCfg *csrf.Config
	if cfg.Session.CSRFEnabled {
		csrfCfg = &csrf.Config{
			KeyLookup:      "form:_csrf",
			CookieName:     cfg.Session.CookieName + "_csrf",
			CookieSecure:   cfg.Session.CookieSecure,
			CookieHTTPOnly: true,
			CookieSameSite: fiber.CookieSameSiteLaxMode,
			Expiration:     time.Hour,
			ContextKey:     handlers.CSRFContextKey,
			Next: func(c *fiber.Ctx) bool {
				return IsAPIPath(c.Path())
			},
		}
	}

	RegisterRoutes(app, RouteConfig{
		Health:   handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, deps.Dependencies, deps.Metrics),
		Pages:    handlers.NewPagesHandler(deps.Tickets),
		Users:    handlers.NewUsersHandler(deps.Auth, logger),
		Tickets:  handlers.NewTicketsHandler(deps.Tickets),
		Guard:    auth.NewGuard(c, logger),
		Tokens:   deps.Auth.TokenManager(),
		Sessions: sessions,
		CSRF:     csrfCfg,
		Logger:   logger,
	})

	return app
}
