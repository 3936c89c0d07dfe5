// Package api exposes the document engine to the editor shell: a Fiber
// HTTP API for operations and a separate event server pushing engine
// events over WebSocket.
package api

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	"github.com/r5vtools/forge/internal/requestid"
)

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	ListenAddr  string
	AuthConfig  AuthConfig
	CORSOrigins []string
	BodyLimit   int
}

// Server is the editor-facing Fiber application.
type Server struct {
	app      *fiber.App
	handlers *Handlers
	logger   zerolog.Logger
	config   ServerConfig
}

// NewServer creates and configures the API server.
func NewServer(cfg ServerConfig, handlers *Handlers, logger zerolog.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          customErrorHandler(logger),
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		BodyLimit:             cfg.BodyLimit,
	})

	s := &Server{
		app:      app,
		handlers: handlers,
		logger:   logger.With().Str("component", "api_server").Logger(),
		config:   cfg,
	}

	s.setupMiddleware(cfg, logger)
	s.setupRoutes(handlers)

	return s
}

func (s *Server) setupMiddleware(cfg ServerConfig, logger zerolog.Logger) {
	s.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	s.app.Use(func(c *fiber.Ctx) error {
		_, reqID := requestid.New(c.Context())
		c.Set("X-Request-ID", reqID)
		c.Locals("request_id", reqID)
		return c.Next()
	})

	if len(cfg.CORSOrigins) > 0 {
		s.app.Use(cors.New(cors.Config{
			AllowOrigins: strings.Join(cfg.CORSOrigins, ","),
			AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
			AllowMethods: "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		}))
	}

	s.app.Use(NewAuthMiddleware(cfg.AuthConfig, logger))

	s.app.Use(func(c *fiber.Ctx) error {
		path := c.Path()
		if path == "/healthz" || path == "/readyz" {
			return c.Next()
		}
		logger.Info().
			Str("method", c.Method()).
			Str("path", path).
			Str("request_id", fmt.Sprintf("%v", c.Locals("request_id"))).
			Msg("api request")
		return c.Next()
	})
}

func (s *Server) setupRoutes(h *Handlers) {
	s.app.Get("/healthz", h.Liveness)
	s.app.Get("/readyz", h.Readiness)

	v1 := s.app.Group("/api/v1")

	// Document lifecycle
	v1.Get("/document", h.GetDocument)
	v1.Post("/document/new", h.NewDocument)
	v1.Post("/document/open", h.OpenDocument)
	v1.Post("/document/save", h.SaveDocument)
	v1.Post("/document/save-as", h.SaveDocumentAs)
	v1.Patch("/document/metadata", h.PatchMetadata)
	v1.Put("/document/export", h.PutExport)

	// Collections
	col := v1.Group("/collections/:kind")
	col.Get("/artifacts", h.ListArtifacts)
	col.Post("/artifacts", h.CreateArtifact)
	col.Get("/artifacts/:id", h.GetArtifact)
	col.Delete("/artifacts/:id", h.DeleteArtifact)
	col.Patch("/artifacts/:id", h.RenameArtifact)
	col.Put("/artifacts/:id/payload", h.PutPayload)
	col.Post("/artifacts/:id/select", h.SelectArtifact)
	col.Get("/folders", h.ListFolders)
	col.Post("/folders", h.CreateFolder)
	col.Post("/folders/delete", h.DeleteFolder)
	col.Post("/folders/rename", h.RenameFolder)

	// Recent documents
	v1.Get("/recent", h.ListRecent)
	v1.Post("/recent/remove", h.RemoveRecent)

	// Mod scaffolding and export presets
	v1.Post("/mods", h.CreateMod)
	v1.Get("/presets", h.GetPresets)
	v1.Put("/presets", h.PutPresets)
}

// Start starts the server. Blocks until stopped.
func (s *Server) Start() error {
	addr := s.config.ListenAddr
	if addr == "" {
		addr = "127.0.0.1:8090"
	}
	s.logger.Info().Str("addr", addr).Msg("api server starting")
	return s.app.Listen(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	s.logger.Info().Msg("api server shutting down")
	return s.app.Shutdown()
}

// App returns the underlying Fiber app (useful for testing).
func (s *Server) App() *fiber.App {
	return s.app
}

func customErrorHandler(logger zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
		}

		logger.Error().
			Err(err).
			Int("status", code).
			Str("path", c.Path()).
			Str("method", c.Method()).
			Msg("unhandled error")

		return problemResponse(c, code, "internal_error", "Internal Server Error", err.Error())
	}
}
