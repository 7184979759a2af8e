package internal

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/karloscodes/cartridge"
	cartridgemiddleware "github.com/karloscodes/cartridge/middleware"

	v1 "github.com/ShubhamPimparkar/PortfolioMaker/api/v1"
	"github.com/ShubhamPimparkar/PortfolioMaker/internal/config"
	"github.com/ShubhamPimparkar/PortfolioMaker/internal/http"
)

// publicCORSConfig is the permissive CORS setup shared by the public
// tracking endpoints: the snippet posts from arbitrary portfolio-page
// origins.
var publicCORSConfig = &cors.Config{
	AllowOrigins: "*",
	AllowMethods: "POST,GET,OPTIONS",
	AllowHeaders: "Origin, Content-Type, Accept, User-Agent, X-Visitor-Id, X-Forwarded-User-Agent",
}

// SetupSession configures session management on the server.
func SetupSession(srv *cartridge.Server) {
	cfg := config.GetConfig()
	sessionMgr := cartridge.NewSessionManager(cartridge.SessionConfig{
		CookieName: cfg.AppName + "_session",
		Secret:     cfg.GetSessionSecret(),
		TTL:        time.Duration(cfg.GetLoginSessionTimeout()) * time.Second,
		Secure:     cfg.IsProduction(),
		LoginPath:  "/login",
	})
	srv.SetSession(sessionMgr)
}

// MountAppRoutes mounts all application routes using cartridge's route API
func MountAppRoutes(srv *cartridge.Server) {
	SetupSession(srv)

	cfg := config.GetConfig()
	sessionMgr := srv.Session()

	// Rate limiting would interfere with tests and local development,
	// so it only applies in production.
	conditionalRateLimiter := func(limiter fiber.Handler) fiber.Handler {
		return func(c *fiber.Ctx) error {
			if cfg.IsProduction() {
				return limiter(c)
			}
			return c.Next()
		}
	}

	// Public event ingestion: 70 requests per minute per IP handles
	// legitimate tracking traffic while limiting abuse.
	publicRateLimiter := conditionalRateLimiter(cartridgemiddleware.RateLimiter(
		cartridgemiddleware.WithMax(70),
		cartridgemiddleware.WithDuration(time.Minute),
	))

	// Stricter limit on login to slow down brute force attempts.
	authRateLimiter := conditionalRateLimiter(cartridgemiddleware.RateLimiter(
		cartridgemiddleware.WithMax(10),
		cartridgemiddleware.WithDuration(time.Minute),
	))

	// Public API config (event ingestion). CORS runs first so rejected
	// requests still carry CORS headers. The session middleware is NOT
	// mounted here - the tracking endpoint reads the session cookie
	// opportunistically to detect owner self-views but never requires it.
	publicAPIConfig := &cartridge.RouteConfig{
		EnableCORS:       true,
		WriteConcurrency: false,
		CustomMiddleware: []fiber.Handler{publicRateLimiter},
		CORSConfig:       publicCORSConfig,
	}

	adminAPIConfig := &cartridge.RouteConfig{
		CustomMiddleware: []fiber.Handler{
			sessionMgr.Middleware(),
		},
	}

	// === ROOT ROUTES ===
	srv.Get("/_health", http.HealthIndexAction)
	srv.Head("/_health", http.HealthIndexAction)

	// === PUBLIC API ROUTES ===
	srv.Post("/x/api/v1/portfolios/:username/events", v1.TrackEventPublicAPIHandler, publicAPIConfig)
	srv.Options("/x/api/v1/portfolios/:username/events", v1.PreflightHandler, publicAPIConfig)

	// === AUTHENTICATION ROUTES ===
	loginConfig := &cartridge.RouteConfig{
		CustomMiddleware: []fiber.Handler{authRateLimiter},
	}
	srv.Post("/login", http.ProcessLoginAction, loginConfig)
	srv.Post("/logout", http.LogoutAction)

	// === PROTECTED ADMIN API ROUTES ===
	srv.Get("/admin/api/overview", http.DashboardOverviewAction, adminAPIConfig)
	srv.Get("/admin/api/analytics", http.DashboardAnalyticsAction, adminAPIConfig)
	srv.Get("/admin/api/analytics/trends", http.AnalyticsTrendsAction, adminAPIConfig)
	srv.Get("/admin/api/health-score", http.HealthScoreAction, adminAPIConfig)
}
