// Package api implements the REST surface of the population loader.
package api

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/sirupsen/logrus"

	"github.com/lemonberrylabs/population-loader/pkg/loader"
	"github.com/lemonberrylabs/population-loader/pkg/types"
)

// Options configures the API server.
type Options struct {
	// Dir is the directory relative file patterns in scripts resolve against.
	Dir    string
	Logger logrus.FieldLogger
}

// Server is the HTTP API server.
type Server struct {
	app  *fiber.App
	opts Options
}

// New creates a new API server.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	srv := &Server{opts: opts}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
		ErrorHandler:          srv.handleError,
	})

	app.Use(recover.New())

	app.Post("/v1/populations\\:load", srv.loadPopulation)
	app.Post("/v1/scripts\\:check", srv.checkScript)
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	srv.app = app
	return srv
}

// Listen starts the HTTP server on the given address.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App returns the underlying Fiber app (useful for testing).
func (s *Server) App() *fiber.App {
	return s.app
}

type loadRequest struct {
	Script string  `json:"script"`
	Seed   *uint64 `json:"seed"`
}

type checkRequest struct {
	Script string `json:"script"`
}

func (s *Server) loadPopulation(c *fiber.Ctx) error {
	var req loadRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, 400, "INVALID_ARGUMENT", fmt.Sprintf("invalid request body: %v", err))
	}
	if req.Script == "" {
		return errorJSON(c, 400, "INVALID_ARGUMENT", "script is required")
	}

	opts := loader.Options{Dir: s.opts.Dir, Logger: s.opts.Logger}
	if req.Seed != nil {
		opts.Shuffler = rand.New(rand.NewPCG(*req.Seed, *req.Seed))
	}
	res, err := loader.New(opts).Load(req.Script)
	if err != nil {
		return loadErrorJSON(c, err)
	}
	return c.JSON(res)
}

func (s *Server) checkScript(c *fiber.Ctx) error {
	var req checkRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, 400, "INVALID_ARGUMENT", fmt.Sprintf("invalid request body: %v", err))
	}
	if req.Script == "" {
		return errorJSON(c, 400, "INVALID_ARGUMENT", "script is required")
	}

	plan, err := loader.New(loader.Options{Logger: s.opts.Logger}).Check(req.Script)
	if err != nil {
		return loadErrorJSON(c, err)
	}
	return c.JSON(fiber.Map{"plan": plan})
}

// StatusFor maps a loader error to an HTTP status code and canonical status
// name.
func StatusFor(err error) (int, string) {
	switch types.KindOf(err) {
	case types.KindSyntax, types.KindBinding:
		return 400, "INVALID_ARGUMENT"
	case types.KindScriptNotFound, types.KindFile:
		return 404, "NOT_FOUND"
	case types.KindData:
		return 400, "FAILED_PRECONDITION"
	default:
		return 500, "INTERNAL"
	}
}

func loadErrorJSON(c *fiber.Ctx, err error) error {
	code, status := StatusFor(err)
	body := fiber.Map{
		"code":    code,
		"message": err.Error(),
		"status":  status,
	}
	var le *types.LoadError
	if errors.As(err, &le) {
		body["kind"] = string(le.Kind)
		if le.Name != "" {
			body["name"] = le.Name
		}
	}
	return c.Status(code).JSON(fiber.Map{"error": body})
}

// handleError renders errors that escape a handler, including recovered
// panics, in the API error shape.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return errorJSON(c, fe.Code, strings.ToUpper(strings.ReplaceAll(utils.StatusMessage(fe.Code), " ", "_")), fe.Message)
	}
	s.opts.Logger.WithError(err).Error("request failed")
	return errorJSON(c, fiber.StatusInternalServerError, "INTERNAL", err.Error())
}

func errorJSON(c *fiber.Ctx, code int, status, msg string) error {
	return c.Status(code).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": msg,
			"status":  status,
		},
	})
}
