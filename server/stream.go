package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"polyglot-agent/gateway"
)

// streamingClient is the optional model-client capability behind the SSE
// endpoint. *gateway.Gateway satisfies it; test fakes may not.
type streamingClient interface {
	Stream(ctx context.Context, req gateway.ChatRequest, ep gateway.EndpointDescriptor) (<-chan gateway.ChatResponse, error)
}

type streamRequest struct {
	Message string `json:"message"`
	Model   string `json:"model"`
}

// handleChatStream issues a direct streaming completion against the chosen
// endpoint and relays fragments as data-framed SSE records. The orchestration
// graph is not involved; this is the raw model pass-through.
func (s *Server) handleChatStream(c echo.Context) error {
	var req streamRequest
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

	sc, ok := s.client.(streamingClient)
	if !ok {
		return requestError{
			Status:  http.StatusNotImplemented,
			Message: "streaming is not supported by this deployment",
			Type:    "invalid_request_error",
		}
	}

	model := req.Model
	if model == "" {
		model = s.registry.DefaultModel()
	}
	ep, found := s.registry.GetEndpoint(model)
	if !found {
		return requestError{
			Status:  http.StatusBadRequest,
			Message: fmt.Sprintf("unknown model %q", model),
			Type:    "invalid_request_error",
		}
	}

	ch, err := sc.Stream(c.Request().Context(), gateway.ChatRequest{
		Messages: []gateway.Message{gateway.User(req.Message)},
	}, ep)
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

	writer := c.Response().Writer
	flusher, ok := writer.(http.Flusher)
	if !ok {
		return requestError{
			Status:  http.StatusInternalServerError,
			Message: "server does not support streaming responses",
			Type:    "server_error",
		}
	}

	header := c.Response().Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	c.Response().WriteHeader(http.StatusOK)

	for fragment := range ch {
		data, err := json.Marshal(fragment)
		if err != nil {
			s.logger.Error("failed to encode stream fragment", "err", err)
			break
		}
		if _, err := fmt.Fprintf(writer, "data: %s\n\n", data); err != nil {
			return nil // client went away
		}
		flusher.Flush()
	}
	fmt.Fprint(writer, "data: [DONE]\n\n")
	flusher.Flush()
	return nil
}
