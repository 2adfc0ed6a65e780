package api

import (
	"context"
	"errors"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/cards/pkg/card"
)

// CardStore is the card lifecycle the API exposes.
// *repository.Repository satisfies it.
type CardStore interface {
	Create(ctx context.Context, nc card.NewCard) (string, error)
	Search(ctx context.Context, query string, page int) ([]card.ScoredCard, error)
	Get(ctx context.Context, id string) (card.RetrievedCard, error)
	Vote(ctx context.Context, id string, upvote bool) error
}

// Server is the API server for the debate card repository.
type Server struct {
	config   Config
	cards    CardStore
	logger   *slog.Logger
	app      *fiber.App
	validate *validator.Validate
}

// NewServer creates a new API server. The card store is injected so the
// collaborators behind it are built once by the caller.
func NewServer(config Config, cards CardStore, logger *slog.Logger) (*Server, error) {
	if cards == nil {
		return nil, errors.New("card store is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}

	s := &Server{
		config:   config,
		cards:    cards,
		logger:   logger,
		validate: newValidator(),
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ReadTimeout:           config.ReadTimeout,
		WriteTimeout:          config.WriteTimeout,
		ErrorHandler:          s.handleError,
	})
	s.app = app

	app.Use(s.observe)

	app.Get("/ping", s.handlePing)

	group := app.Group("/card", s.authenticate)
	group.Post("", s.handleCreate)
	group.Post("/search", s.handleSearch)
	group.Post("/search/:page", s.handleSearch)
	group.Post("/vote", s.handleVote)
	group.Get("/:id", s.handleGet)

	if config.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(config.Metrics.Handler()))
	}
	if config.MCP != nil {
		app.All("/mcp", adaptor.HTTPHandler(config.MCP))
	}

	return s, nil
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		"listen", s.config.ListenAddr,
		"auth", s.config.Auth.Enabled(),
		"mcp", s.config.MCP != nil,
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
