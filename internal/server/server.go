// Package server exposes the pipelines over HTTP. The ingest and chat
// endpoints stream newline-delimited JSON events over the response body of
// one request; search is a plain JSON endpoint.
package server

import (
	"bufio"
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"clipchat/internal/config"
	"clipchat/internal/event"
	"clipchat/internal/pipeline"
)

// Server wires the pipeline to fiber routes.
type Server struct {
	app      *fiber.App
	cfg      *config.AppConfig
	pipeline *pipeline.Pipeline
	validate *validator.Validate
	log      *zap.Logger
}

func New(cfg *config.AppConfig, p *pipeline.Pipeline, log *zap.Logger) *Server {
	app := fiber.New(fiber.Config{
		BodyLimit:             1 << 20,
		DisableStartupMessage: true,
	})
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.CorsAllowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	s := &Server{
		app:      app,
		cfg:      cfg,
		pipeline: p,
		validate: validator.New(),
		log:      log,
	}

	api := app.Group("/api")
	api.Post("/ingest", s.handleIngest)
	api.Post("/chat", s.handleChat)
	api.Post("/search", s.handleSearch)
	return s
}

// App exposes the fiber app, used by tests.
func (s *Server) App() *fiber.App { return s.app }

// Run blocks serving HTTP on the configured port.
func (s *Server) Run() error {
	s.log.Info("server listening", zap.String("port", s.cfg.Server.Port))
	return s.app.Listen(":" + s.cfg.Server.Port)
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown() error { return s.app.Shutdown() }

func (s *Server) handleIngest(c *fiber.Ctx) error {
	var req IngestRequest
	if !s.parse(c, &req) {
		return nil
	}
	requestID := uuid.NewString()
	log := s.log.With(zap.String("request_id", requestID), zap.String("url", req.URL))
	log.Info("ingest request accepted")

	s.streamEvents(c, requestID, func(ctx context.Context, emit func(event.Event)) {
		s.pipeline.Ingest(ctx, req.URL, emit)
	})
	return nil
}

func (s *Server) handleChat(c *fiber.Ctx) error {
	var req ChatRequest
	if !s.parse(c, &req) {
		return nil
	}
	requestID := uuid.NewString()
	log := s.log.With(zap.String("request_id", requestID))
	log.Info("chat request accepted")

	s.streamEvents(c, requestID, func(ctx context.Context, emit func(event.Event)) {
		s.pipeline.Answer(ctx, req.Question, emit)
	})
	return nil
}

func (s *Server) handleSearch(c *fiber.Ctx) error {
	var req SearchRequest
	if !s.parse(c, &req) {
		return nil
	}
	results, err := s.pipeline.Search(c.Context(), req.Query, req.K)
	if err != nil {
		if errors.Is(err, pipeline.ErrNotReady) {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Error: "vector index not ready - ingest a video first",
			})
		}
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}
	out := SearchResponse{Results: make([]SearchResultDTO, len(results))}
	for i, r := range results {
		out.Results[i] = SearchResultDTO{Index: r.Chunk.Index, Content: r.Chunk.Text, Score: r.Score}
	}
	return c.JSON(out)
}

// streamEvents switches the response to a chunked NDJSON stream and runs
// the pipeline inside the body writer. Each event is flushed as its own
// line; a write failure means the caller went away, which cancels the
// pipeline context so in-flight collaborator calls can be abandoned.
func (s *Server) streamEvents(c *fiber.Ctx, requestID string, run func(context.Context, func(event.Event))) {
	c.Set(fiber.HeaderContentType, "application/x-ndjson")
	c.Set("X-Request-ID", requestID)
	log := s.log.With(zap.String("request_id", requestID))

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		emit := func(ev event.Event) {
			data, err := event.Marshal(ev)
			if err != nil {
				log.Error("event encoding failed", zap.Error(err))
				return
			}
			if _, err := w.Write(data); err != nil {
				log.Warn("client disconnected", zap.Int("seq", ev.Seq))
				cancel()
				return
			}
			if err := w.Flush(); err != nil {
				cancel()
			}
		}
		run(ctx, emit)
	})
}

// parse decodes and validates the request body, writing the 400 response
// itself on failure.
func (s *Server) parse(c *fiber.Ctx, req any) bool {
	if err := c.BodyParser(req); err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "malformed request body"})
		return false
	}
	if err := s.validate.Struct(req); err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
		return false
	}
	return true
}
