package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/matekasse/matekasse-backend/internal/domain"
	"github.com/matekasse/matekasse-backend/internal/service/consumable"
)

// consumableService defines the minimal interface needed by ConsumableHandler.
type consumableService interface {
	List(ctx context.Context) ([]*domain.Consumable, error)
	Consume(ctx context.Context, userID uuid.UUID, name string, count int64) (*consumable.Purchase, error)
}

// ConsumableHandler serves the consumable catalog and purchases.
type ConsumableHandler struct {
	svc consumableService
	log *slog.Logger
}

// NewConsumableHandler creates a ConsumableHandler.
func NewConsumableHandler(svc consumableService, logger *slog.Logger) *ConsumableHandler {
	return &ConsumableHandler{svc: svc, log: logger.With("handler", "consumables")}
}

// GetConsumables handles GET /v1/getConsumables.
func (h *ConsumableHandler) GetConsumables(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.List(r.Context())
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}

	out := make([]consumableResponse, 0, len(items))
	for _, c := range items {
		out = append(out, toConsumableResponse(c))
	}
	writeData(w, http.StatusOK, out)
}

type consumeRequest struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Count  int64  `json:"count"`
}

type purchaseResponse struct {
	Consumable  consumableResponse  `json:"consumable"`
	Transaction transactionResponse `json:"transaction"`
	Message     string              `json:"message"`
}

// Consume handles POST /v1/consume. Count defaults to a single unit.
func (h *ConsumableHandler) Consume(w http.ResponseWriter, r *http.Request) {
	var req consumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "userId must be a UUID")
		return
	}
	if req.Count == 0 {
		req.Count = 1
	}

	p, err := h.svc.Consume(r.Context(), userID, req.Name, req.Count)
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}

	writeData(w, http.StatusCreated, purchaseResponse{
		Consumable:  toConsumableResponse(p.Consumable),
		Transaction: toTransactionResponse(p.Transaction),
		Message:     p.Message,
	})
}
