package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"coverforge/internal/api/v1/dto"
	"coverforge/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type DLQHandler struct {
	dlq      service.DLQService
	validate *validator.Validate
	logger   zerolog.Logger
}

func NewDLQHandler(dlq service.DLQService, v *validator.Validate, logger zerolog.Logger) *DLQHandler {
	return &DLQHandler{dlq: dlq, validate: v, logger: logger}
}

// RegisterRoutes mounts the operator-only DLQ routes
func (h *DLQHandler) RegisterRoutes(mux *http.ServeMux, internalMw func(http.Handler) http.Handler) {
	mux.Handle("/internal/dlq", internalMw(http.HandlerFunc(h.list)))
	mux.Handle("/internal/dlq/redrive", internalMw(http.HandlerFunc(h.redrive)))
}

// list godoc
// @Summary List unprocessed dead letter messages
// @Description Operator-only. Returns analysis jobs that exhausted their retries and are awaiting inspection.
// @Tags dlq
// @Produce json
// @Param limit query int false "Page size (max 200, default 50)"
// @Success 200 {array} dto.DLQMessageResponseDTO
// @Failure 403 {string} string "Forbidden"
// @Failure 500 {string} string "Failed to list dead letter messages"
// @Router /internal/dlq [get]
func (h *DLQHandler) list(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	limit, _ := pagination(r)
	msgs, err := h.dlq.List(r.Context(), limit)
	if err != nil {
		http.Error(w, "Failed to list dead letter messages", http.StatusInternalServerError)
		return
	}
	resp := make([]dto.DLQMessageResponseDTO, 0, len(msgs))
	for _, m := range msgs {
		resp = append(resp, dto.DLQMessageResponseDTO{
			ID:        m.ID,
			QueueName: m.QueueName,
			Payload:   m.Payload,
			Reason:    m.Reason,
			Status:    m.Status,
			CreatedAt: m.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// redrive godoc
// @Summary Re-enqueue a parked dead letter message
// @Description Operator-only. Sends the parked payload back onto its original queue and marks the message redriven.
// @Tags dlq
// @Accept json
// @Produce json
// @Param message body dto.DLQRedriveDTO true "Message to redrive"
// @Success 204 {string} string "No Content"
// @Failure 400 {string} string "Invalid JSON payload"
// @Failure 403 {string} string "Forbidden"
// @Failure 404 {string} string "Dead letter message not found"
// @Failure 409 {string} string "Dead letter message already redriven"
// @Failure 500 {string} string "Failed to redrive message"
// @Router /internal/dlq/redrive [post]
func (h *DLQHandler) redrive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.DLQRedriveDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	err := h.dlq.Redrive(r.Context(), req.ID)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, service.ErrDLQMessageNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, service.ErrDLQAlreadyRedriven):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		h.logger.Error().Err(err).Str("dlq_id", req.ID).Msg("Failed to redrive dead letter message")
		http.Error(w, "Failed to redrive message", http.StatusInternalServerError)
	}
}
