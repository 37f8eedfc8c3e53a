// Package server exposes the orchestration engine over HTTP. The surface
// is deliberately small: one chat endpoint plus session introspection and
// housekeeping routes.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"polyglot-agent/gateway"
	"polyglot-agent/registry"
	"polyglot-agent/taskflow"
)

const (
	maxBodyBytes        = 1 << 20 // 1 MiB
	shutdownGracePeriod = 10 * time.Second
	readTimeout         = 30 * time.Second
	writeTimeout        = 5 * time.Minute // research turns make several upstream calls
	idleTimeout         = 120 * time.Second
)

// Server is the HTTP front-end. Engines are created per model key on first
// use; all of them share one session store so a session can switch models
// without losing history.
type Server struct {
	registry *registry.Registry
	client   taskflow.ModelClient
	tools    *taskflow.ToolSet
	store    *taskflow.SessionStore
	logger   *slog.Logger
	app      *echo.Echo
	address  string

	mu      sync.Mutex
	engines map[string]*taskflow.Engine
}

// New constructs a server wired with routing and middleware.
func New(reg *registry.Registry, client taskflow.ModelClient, port int, opts ...Option) (*Server, error) {
	if reg == nil {
		return nil, errors.New("registry must not be nil")
	}
	if client == nil {
		return nil, errors.New("model client must not be nil")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler

	srv := &Server{
		registry: reg,
		client:   client,
		tools:    &taskflow.ToolSet{},
		store:    taskflow.NewSessionStore(),
		logger:   slog.Default(),
		app:      e,
		address:  fmt.Sprintf(":%d", port),
		engines:  make(map[string]*taskflow.Engine),
	}
	for _, opt := range opts {
		opt(srv)
	}

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogLatency: true,
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			srv.logger.Info("request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds(),
				"error", v.Error,
			)
			return nil
		},
	}))

	srv.registerRoutes()
	return srv, nil
}

// Option configures a Server.
type Option func(*Server)

// WithToolSet attaches tool collaborators shared by all engines.
func WithToolSet(ts *taskflow.ToolSet) Option {
	return func(s *Server) { s.tools = ts }
}

// WithLogger sets the server's logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// Run starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("starting server", "addr", s.address)

	httpServer := &http.Server{
		Addr:         s.address,
		Handler:      s.app,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.app.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
		defer cancel()
		if err := s.app.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server shutdown complete")
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) registerRoutes() {
	s.app.GET("/health", s.handleHealth)
	s.app.GET("/v1/models", s.handleModels)
	s.app.POST("/v1/chat", s.handleChat)
	s.app.POST("/v1/chat/stream", s.handleChatStream)
	s.app.GET("/v1/sessions/:id/trace", s.handleTrace)
	s.app.DELETE("/v1/sessions/:id", s.handleClearSession)
}

// engineFor returns the engine for a model key, creating it on first use.
func (s *Server) engineFor(key string) (*taskflow.Engine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if eng, ok := s.engines[key]; ok {
		return eng, nil
	}
	ep, ok := s.registry.GetEndpoint(key)
	if !ok {
		return nil, requestError{
			Status:  http.StatusBadRequest,
			Message: fmt.Sprintf("unknown model %q", key),
			Type:    "invalid_request_error",
		}
	}
	eng := taskflow.NewEngine(s.client, ep,
		taskflow.WithToolSet(s.tools),
		taskflow.WithSessionStore(s.store),
		taskflow.WithEngineLogger(s.logger),
	)
	s.engines[key] = eng
	return eng, nil
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

type modelEntry struct {
	Key       string `json:"key"`
	Available bool   `json:"available"`
}

func (s *Server) handleModels(c echo.Context) error {
	available := s.registry.Available()
	entries := make([]modelEntry, 0, len(available))
	for _, key := range available {
		entries = append(entries, modelEntry{Key: key, Available: true})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"default": s.registry.DefaultModel(),
		"models":  entries,
	})
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
	Model     string `json:"model"`
}

type chatResponse struct {
	Reply     string `json:"reply"`
	SessionID string `json:"session_id"`
	Model     string `json:"model"`
}

func (s *Server) handleChat(c echo.Context) error {
	var req chatRequest
	if err := decodeRequestBody(c, &req); err != nil {
		return err
	}
	if req.Message == "" {
		return requestError{
			Status:  http.StatusBadRequest,
			Message: "message must not be empty",
			Type:    "invalid_request_error",
		}
	}

	model := req.Model
	if model == "" {
		model = s.registry.DefaultModel()
	}
	eng, err := s.engineFor(model)
	if err != nil {
		return err
	}

	// Mint the id here so the caller always learns which session to
	// continue with.
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	reply, err := eng.Chat(c.Request().Context(), req.Message, sessionID)
	if err != nil {
		var cfgErr *gateway.ConfigurationError
		if errors.As(err, &cfgErr) {
			return requestError{
				Status:  http.StatusBadRequest,
				Message: cfgErr.Error(),
				Type:    "invalid_request_error",
			}
		}
		return err
	}

	return c.JSON(http.StatusOK, chatResponse{Reply: reply, SessionID: sessionID, Model: model})
}

func (s *Server) handleTrace(c echo.Context) error {
	id := c.Param("id")
	trace := s.store.Trace(id)
	return c.JSON(http.StatusOK, map[string]any{
		"session_id": id,
		"trace":      trace,
	})
}

func (s *Server) handleClearSession(c echo.Context) error {
	id := c.Param("id")
	s.store.Clear(id)
	return c.JSON(http.StatusOK, map[string]string{"session_id": id, "status": "cleared"})
}

func decodeRequestBody[T any](c echo.Context, target *T) error {
	req := c.Request()
	defer req.Body.Close()

	req.Body = http.MaxBytesReader(c.Response(), req.Body, maxBodyBytes)

	decoder := json.NewDecoder(req.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return requestError{
				Status:  http.StatusBadRequest,
				Message: "request body is required",
				Type:    "invalid_request_error",
			}
		}
		return requestError{
			Status:  http.StatusBadRequest,
			Message: fmt.Sprintf("invalid JSON payload: %v", err),
			Type:    "invalid_request_error",
		}
	}

	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return requestError{
			Status:  http.StatusBadRequest,
			Message: "request body must contain a single JSON object",
			Type:    "invalid_request_error",
		}
	}
	return nil
}

type requestError struct {
	Status  int
	Message string
	Type    string
}

func (e requestError) Error() string {
	return e.Message
}

type errorBody struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func errorHandler(err error, c echo.Context) {
	var reqErr requestError
	if errors.As(err, &reqErr) {
		writeError(c, reqErr.Status, reqErr.Message, reqErr.Type)
		return
	}

	if he, ok := err.(*echo.HTTPError); ok {
		writeError(c, he.Code, fmt.Sprint(he.Message), "invalid_request_error")
		return
	}

	writeError(c, http.StatusInternalServerError, "internal server error", "server_error")
}

func writeError(c echo.Context, status int, message, errType string) {
	var payload errorBody
	payload.Error.Message = message
	payload.Error.Type = errType
	_ = c.JSON(status, payload)
}
