package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/matekasse/matekasse-backend/internal/domain"
)

// refundService defines the minimal interface needed by RefundHandler.
type refundService interface {
	Start(ctx context.Context, creatorID uuid.UUID, amount int64, reason string) (*domain.Refund, error)
	Cancel(ctx context.Context, refundID, callerID uuid.UUID) (*domain.Refund, error)
	Vote(ctx context.Context, refundID, voterID uuid.UUID, approve bool) (*domain.Refund, error)
	Retract(ctx context.Context, refundID, voterID uuid.UUID) (*domain.Refund, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Refund, error)
	List(ctx context.Context, state domain.RefundState) ([]*domain.Refund, error)
}

// RefundHandler serves refund workflow endpoints.
type RefundHandler struct {
	svc refundService
	log *slog.Logger
}

// NewRefundHandler creates a RefundHandler.
func NewRefundHandler(svc refundService, logger *slog.Logger) *RefundHandler {
	return &RefundHandler{svc: svc, log: logger.With("handler", "refunds")}
}

type startRefundRequest struct {
	CreatorID string `json:"creatorId"`
	Amount    int64  `json:"amount"`
	Reason    string `json:"reason"`
}

// Start handles POST /v1/startRefund.
func (h *RefundHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req startRefundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}
	creatorID, err := uuid.Parse(req.CreatorID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "creatorId must be a UUID")
		return
	}

	ref, err := h.svc.Start(r.Context(), creatorID, req.Amount, req.Reason)
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}

	writeData(w, http.StatusCreated, toRefundResponse(ref))
}

type cancelRefundRequest struct {
	RefundID string `json:"refundId"`
	CallerID string `json:"callerId"`
}

// Cancel handles POST /v1/cancelRefund.
func (h *RefundHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	var req cancelRefundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}
	refundID, err := uuid.Parse(req.RefundID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "refundId must be a UUID")
		return
	}
	callerID, err := uuid.Parse(req.CallerID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "callerId must be a UUID")
		return
	}

	ref, err := h.svc.Cancel(r.Context(), refundID, callerID)
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}

	writeData(w, http.StatusOK, toRefundResponse(ref))
}

type voteRefundRequest struct {
	RefundID string `json:"refundId"`
	VoterID  string `json:"voterId"`
	Approve  bool   `json:"approve"`
}

// Vote handles POST /v1/voteRefund.
func (h *RefundHandler) Vote(w http.ResponseWriter, r *http.Request) {
	var req voteRefundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}
	refundID, err := uuid.Parse(req.RefundID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "refundId must be a UUID")
		return
	}
	voterID, err := uuid.Parse(req.VoterID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "voterId must be a UUID")
		return
	}

	ref, err := h.svc.Vote(r.Context(), refundID, voterID, req.Approve)
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}

	writeData(w, http.StatusOK, toRefundResponse(ref))
}

type retractRefundVoteRequest struct {
	RefundID string `json:"refundId"`
	VoterID  string `json:"voterId"`
}

// Retract handles POST /v1/retractRefundVote.
func (h *RefundHandler) Retract(w http.ResponseWriter, r *http.Request) {
	var req retractRefundVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}
	refundID, err := uuid.Parse(req.RefundID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "refundId must be a UUID")
		return
	}
	voterID, err := uuid.Parse(req.VoterID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "voterId must be a UUID")
		return
	}

	ref, err := h.svc.Retract(r.Context(), refundID, voterID)
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}

	writeData(w, http.StatusOK, toRefundResponse(ref))
}

// List handles GET /v1/listRefunds. The state filter defaults to
// active refunds.
func (h *RefundHandler) List(w http.ResponseWriter, r *http.Request) {
	state := domain.RefundState(r.URL.Query().Get("state"))
	if state == "" {
		state = domain.RefundStateActive
	}

	if id := r.URL.Query().Get("id"); id != "" {
		refundID, err := uuid.Parse(id)
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "id must be a UUID")
			return
		}
		ref, err := h.svc.Get(r.Context(), refundID)
		if err != nil {
			respondError(h.log, w, r, err)
			return
		}
		writeData(w, http.StatusOK, toRefundResponse(ref))
		return
	}

	refs, err := h.svc.List(r.Context(), state)
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}

	items := make([]refundResponse, 0, len(refs))
	for _, ref := range refs {
		items = append(items, toRefundResponse(ref))
	}
	writeData(w, http.StatusOK, items)
}
