package server

import (
	"log"
	"strings"
	"time"

	"ethics-review-be/internal/bootstrap"
	"ethics-review-be/internal/config"
	"ethics-review-be/internal/pkg/serverutils"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// Server serves the review page, the JSON API and the transcript stream.
type Server struct {
	app       *fiber.App
	cfg       *config.Config
	container *bootstrap.Container
	startedAt time.Time
}

func New(cfg *config.Config, container *bootstrap.Container) *Server {
	app := fiber.New(fiber.Config{
		AppName:   "ethics-review",
		BodyLimit: 2 * 1024 * 1024, // role files are plain text
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.App.CorsAllowedOrigins,
		AllowCredentials: !wildcardOrigin(cfg.App.CorsAllowedOrigins),
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, DELETE, OPTIONS",
		ExposeHeaders:    "Content-Length, Content-Type, Content-Disposition, X-Request-ID",
	}))
	if cfg.App.OtelEnabled {
		app.Use(otelfiber.Middleware())
	}
	app.Use(serverutils.ErrorHandlerMiddleware())
	app.Use(container.SessionTokens.Middleware())

	s := &Server{
		app:       app,
		cfg:       cfg,
		container: container,
		startedAt: time.Now(),
	}
	s.registerRoutes()
	return s
}

// wildcardOrigin reports whether origins allows any origin. Browsers refuse
// credentials with a wildcard, and the cors middleware panics on it.
func wildcardOrigin(origins string) bool {
	for _, origin := range strings.Split(origins, ",") {
		if strings.TrimSpace(origin) == "*" {
			return true
		}
	}
	return false
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	log.Printf("✅ Review server is running on http://localhost:%s", s.cfg.App.Port)
	return s.app.Listen(":" + s.cfg.App.Port)
}

func (s *Server) Shutdown() error {
	return s.app.ShutdownWithTimeout(10 * time.Second)
}

func (s *Server) registerRoutes() {
	c := s.container
	s.app.Get("/healthz", s.health)
	c.PageController.RegisterRoutes(s.app)

	api := s.app.Group("/api")
	c.ReviewController.RegisterRoutes(api)
	c.AdminController.RegisterRoutes(api)
	c.TranscriptHandler.RegisterRoutes(api)
}

func (s *Server) health(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("ok", fiber.Map{
		"provider":   s.cfg.Assistant.Provider,
		"model":      s.cfg.Assistant.Model,
		"store_id":   s.container.Settings.StoreID,
		"uptime_sec": int(time.Since(s.startedAt).Seconds()),
	}))
}
