package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"monsurface-assistant/internal/contextutil"
	"monsurface-assistant/internal/service"
)

// AskHandler runs the assistant pipeline for one message over plain JSON.
type AskHandler struct {
	assistant service.Assistant
}

// NewAskHandler creates a new AskHandler.
func NewAskHandler(assistant service.Assistant) *AskHandler {
	return &AskHandler{
		assistant: assistant,
	}
}

// AskRequest represents the HTTP request payload.
//
// swagger:model AskRequest
type AskRequest struct {
	// Requester identity checked against the permission ledger
	UserID string `json:"user_id"`

	// Free-text question
	Message string `json:"message"`
}

// AskResponse represents the HTTP response payload.
//
// swagger:model AskResponse
type AskResponse struct {
	// The exact text a chat user would receive
	Reply string `json:"reply"`

	// How the reply was produced (answered, denied, no_match, ...)
	Outcome string `json:"outcome"`
}

// ErrorResponse represents an error response.
//
// swagger:model ErrorResponse
type ErrorResponse struct {
	Error string `json:"error"`
}

// ServeHTTP handles HTTP requests for catalog questions.
//
// swagger:route POST /api/ask askQuestion
//
// # Ask a catalog question
//
// Runs the same pipeline as the chat webhook and returns the reply text.
// Pipeline failures are reported as fixed reply texts, never as HTTP errors.
//
// ---
// consumes:
// - application/json
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: Reply produced
//	  schema:
//	    "$ref": "#/definitions/AskResponse"
//	'400':
//	  description: Missing user_id or message
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *AskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	askReq := service.AskRequest{RequesterID: req.UserID, Message: req.Message}
	if err := askReq.Validate(); err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			logger.WarnContext(ctx, "invalid request", "error", err)
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	reply := h.assistant.Reply(ctx, askReq.RequesterID, askReq.Message)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(AskResponse{
		Reply:   reply.Text,
		Outcome: string(reply.Outcome),
	}); err != nil {
		logger.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error: message,
	})
}
