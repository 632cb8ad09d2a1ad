// Package assist exposes the query-orchestration pipeline as an HTTP service:
// a login endpoint minting session tokens and the token-gated assist endpoint
// running the safety-gated pipeline.
package assist

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/fingate/bankassist/pkg/accounts"
	"github.com/fingate/bankassist/pkg/audit"
	"github.com/fingate/bankassist/pkg/auth"
	"github.com/fingate/bankassist/pkg/kb"
	"github.com/fingate/bankassist/pkg/llm"
	"github.com/fingate/bankassist/pkg/pipeline"
)

// Server wires the collaborators and serves the HTTP surface.
type Server struct {
	config       Config
	logger       *zap.Logger
	app          *fiber.App
	tokens       *auth.Manager
	orchestrator *pipeline.Orchestrator
	store        *kb.Store
	auditor      *audit.Logger
}

// New constructs the server and all pipeline collaborators from config.
func New(config Config, logger *zap.Logger) (*Server, error) {
	provider, err := llm.NewProvider(config.Provider.Name, llm.ProviderConfig{
		BaseURL: providerBaseURL(config.Provider),
		APIKey:  os.Getenv(config.Provider.APIKeyEnv),
	})
	if err != nil {
		return nil, err
	}
	gateway := llm.NewGateway(provider, config.Provider.Model,
		time.Duration(config.Provider.TimeoutSec)*time.Second, logger)

	// Retrieval is optional: without an index the retriever fails open and
	// knowledge answers become grounded declines.
	var store *kb.Store
	var searcher kb.Searcher
	if config.KB.IndexPath != "" {
		embedder := kb.NewOllamaEmbedder(config.KB.EmbedBaseURL, config.KB.EmbedModel)
		store, err = kb.OpenStore(config.KB.IndexPath, embedder, config.KB.Dimensions)
		if err != nil {
			return nil, fmt.Errorf("failed to open kb index: %w", err)
		}
		searcher = store
		logger.Info("knowledge index opened", zap.String("path", config.KB.IndexPath))
	} else {
		logger.Warn("no knowledge index configured, retrieval disabled")
	}
	retriever := kb.NewRetriever(searcher, config.Retrieval.TopK,
		time.Duration(config.Retrieval.TimeoutSec)*time.Second, logger)

	fetcher := accounts.NewFetcher(
		&accounts.MockCBS{Locked: config.Accounts.MockLocked},
		time.Duration(config.Accounts.TimeoutSec)*time.Second, logger)

	var auditor *audit.Logger
	if config.AuditLog != "" {
		auditor, err = audit.New(config.AuditLog)
		if err != nil {
			return nil, fmt.Errorf("failed to open audit log: %w", err)
		}
	}

	s := &Server{
		config:  config,
		logger:  logger,
		tokens:  auth.New(config.Auth.Secret, time.Duration(config.Auth.TokenTTLMin)*time.Minute),
		store:   store,
		auditor: auditor,
		orchestrator: pipeline.NewOrchestrator(retriever, fetcher, gateway,
			auditor, logger, config.Retrieval.IncludeLogin),
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(map[string]string{"status": "ok"})
	})
	app.Post("/auth/login", s.handleLogin)
	app.Post("/assist/", s.requireToken, s.handleAssist)
	s.app = app

	return s, nil
}

// Run starts the server on the configured listening address.
func (s *Server) Run() error {
	s.logger.Info("starting assist server",
		zap.String("listen", s.config.ListenAddr),
		zap.String("provider", s.config.Provider.Name),
		zap.String("model", s.config.Provider.Model),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Close releases the index and the audit sink.
func (s *Server) Close() error {
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			return err
		}
	}
	return s.auditor.Close()
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.Username != s.config.Auth.AdminUser || req.Password != s.config.Auth.AdminPassword {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid credentials"})
	}
	token, err := s.tokens.Mint(req.Username)
	if err != nil {
		s.logger.Error("failed to mint token", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	return c.JSON(fiber.Map{"token": token})
}

// requireToken gates the pipeline behind a verified identity with a valid
// expiry. The pipeline consumes the subject as an opaque value.
func (s *Server) requireToken(c *fiber.Ctx) error {
	header := c.Get("Authorization")
	tokenStr, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || tokenStr == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}
	subject, err := s.tokens.Verify(tokenStr)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}
	c.Locals("subject", subject)
	return c.Next()
}

func (s *Server) handleAssist(c *fiber.Ctx) error {
	var req pipeline.Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if strings.TrimSpace(req.Query) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "query is required"})
	}

	// c.Context() carries the client disconnect; in-flight collaborator calls
	// are cancelled with it.
	resp := s.orchestrator.Handle(c.Context(), &req)
	return c.JSON(resp)
}

func providerBaseURL(p ProviderConfig) string {
	if p.BaseURL != "" {
		return p.BaseURL
	}
	switch p.Name {
	case "openai":
		return "https://api.openai.com"
	case "gemini":
		return "https://generativelanguage.googleapis.com"
	default:
		return "http://localhost:11434"
	}
}
