// Package server exposes a session over HTTP for the canvas UI: graph
// editing, runs, history and workflow import/export.
package server

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/dshills/typoflow/pkg/execution"
	"github.com/dshills/typoflow/pkg/graph"
	"github.com/dshills/typoflow/pkg/history"
	"github.com/dshills/typoflow/pkg/session"
)

// Server routes HTTP requests to a single session.
type Server struct {
	session *session.Session
	app     *fiber.App
}

// New builds the fiber app for sess.
func New(sess *session.Session) *Server {
	s := &Server{
		session: sess,
		app:     fiber.New(fiber.Config{AppName: "typoflow"}),
	}
	s.routes()
	return s
}

// App returns the underlying fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until Shutdown is called.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) routes() {
	api := s.app.Group("/api")

	// ── Graph ─────────────────────────────────────────────────────────
	api.Get("/graph", s.getGraph)
	api.Put("/graph", s.putGraph)
	api.Post("/graph/reset", s.resetGraph)
	api.Get("/graph/export", s.exportGraph)
	api.Put("/graph/edge-type", s.setEdgeType)

	// ── Nodes and edges ───────────────────────────────────────────────
	api.Post("/nodes", s.addNode)
	api.Delete("/nodes/:id", s.removeNode)
	api.Put("/nodes/:id/input", s.setInput)
	api.Put("/nodes/:id/instruction", s.setInstruction)
	api.Post("/edges", s.connect)
	api.Delete("/edges/:id", s.disconnect)

	// ── Runs ──────────────────────────────────────────────────────────
	api.Get("/run", s.runState)
	api.Post("/run", s.startRun)
	api.Get("/events", s.streamEvents)

	// ── History ───────────────────────────────────────────────────────
	api.Get("/history", s.listHistory)
	api.Get("/history/:id", s.getSnapshot)
	api.Post("/history/:id/restore", s.restoreSnapshot)

	// ── Catalogues ────────────────────────────────────────────────────
	api.Get("/presets", func(c fiber.Ctx) error {
		return c.JSON(graph.Presets)
	})
	api.Get("/aspect-ratios", func(c fiber.Ctx) error {
		return c.JSON(graph.AspectRatios)
	})
}

// statusFor maps domain errors to HTTP status codes. Anything unrecognised
// is reported with fallback.
func statusFor(err error, fallback int) int {
	var importErr *graph.ImportError
	switch {
	case errors.As(err, &importErr):
		return fiber.StatusBadRequest
	case errors.Is(err, graph.ErrNodeNotFound),
		errors.Is(err, graph.ErrEdgeNotFound),
		errors.Is(err, history.ErrSnapshotNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, execution.ErrAlreadyRunning):
		return fiber.StatusConflict
	case errors.Is(err, history.ErrInvalidFilter):
		return fiber.StatusBadRequest
	case execution.IsDriverError(err):
		return fiber.StatusInternalServerError
	}
	return fallback
}

func fail(c fiber.Ctx, err error, fallback int) error {
	return c.Status(statusFor(err, fallback)).JSON(fiber.Map{"error": err.Error()})
}

func sendDocument(c fiber.Ctx, data []byte) error {
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(data)
}
