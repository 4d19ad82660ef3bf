package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/reviewly/reviewly/internal/services/chat"
	"github.com/reviewly/reviewly/pkg/httpext"
	"github.com/reviewly/reviewly/pkg/logger"
)

type submitRequest struct {
	Prompt    string `json:"prompt" validate:"required,max=4000"`
	ProductID string `json:"product_id" validate:"omitempty,max=64"`
}

type submitResponse struct {
	Status string `json:"status"`
}

// HandleGetMessages returns the current conversation
func (b *Bridge) HandleGetMessages(w http.ResponseWriter, r *http.Request) {
	httpext.JsonResponse(w, http.StatusOK, b.session.Snapshot())
}

// HandlePostMessage starts a prompt and answers before the response has streamed;
// widgets follow progress over the websocket or by polling.
func (b *Bridge) HandlePostMessage(w http.ResponseWriter, r *http.Request) {
	logger.Debug(logger.HANDLER, "Starting chat submit handler")

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Error(logger.HANDLER, "Failed to decode chat submit request: %v", err)
		httpext.JsonError(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	if err := b.validate.Struct(req); err != nil {
		logger.Warn(logger.HANDLER, "Invalid chat submit request: %v", err)
		httpext.JsonErrorWithDetails(w, http.StatusBadRequest, httpext.ErrorResponse{
			Error:            "Invalid request",
			ErrorDescription: err.Error(),
		})
		return
	}

	if status, message := b.start(context.WithoutCancel(r.Context()), req); status != http.StatusAccepted {
		httpext.JsonError(w, message, status)
		return
	}

	httpext.JsonResponse(w, http.StatusAccepted, submitResponse{Status: "accepted"})
}

// start maps session admission errors to HTTP statuses
func (b *Bridge) start(ctx context.Context, req submitRequest) (int, string) {
	_, err := b.session.Start(ctx, req.Prompt, req.ProductID)
	switch {
	case err == nil:
		return http.StatusAccepted, ""
	case errors.Is(err, chat.ErrEmptyPrompt):
		return http.StatusBadRequest, "Prompt cannot be empty"
	case errors.Is(err, chat.ErrBusy):
		return http.StatusConflict, "A response is still streaming"
	default:
		logger.Error(logger.HANDLER, "Failed to start chat: %v", err)
		return http.StatusInternalServerError, "Failed to start chat"
	}
}
