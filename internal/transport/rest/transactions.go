package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/matekasse/matekasse-backend/internal/domain"
	"github.com/matekasse/matekasse-backend/internal/service/ledger"
)

// ledgerService defines the minimal interface needed by TransactionHandler.
type ledgerService interface {
	Transfer(ctx context.Context, in ledger.TransferInput) (*domain.Transaction, error)
	GetTransaction(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Transaction, int, error)
}

// TransactionHandler serves money movement endpoints.
type TransactionHandler struct {
	svc ledgerService
	log *slog.Logger
}

// NewTransactionHandler creates a TransactionHandler.
func NewTransactionHandler(svc ledgerService, logger *slog.Logger) *TransactionHandler {
	return &TransactionHandler{svc: svc, log: logger.With("handler", "transactions")}
}

type transferRequest struct {
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
	Amount     int64  `json:"amount"`
	Reason     string `json:"reason"`
}

// Transfer handles POST /v1/transfer.
func (h *TransactionHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}
	senderID, err := uuid.Parse(req.SenderID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "senderId must be a UUID")
		return
	}
	receiverID, err := uuid.Parse(req.ReceiverID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "receiverId must be a UUID")
		return
	}

	tx, err := h.svc.Transfer(r.Context(), ledger.TransferInput{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Amount:     req.Amount,
		Reason:     req.Reason,
	})
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}

	writeData(w, http.StatusCreated, toTransactionResponse(tx))
}

// GetTransactions handles GET /v1/getTransactions.
func (h *TransactionHandler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.URL.Query().Get("userId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "userId must be a UUID")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	txs, total, err := h.svc.ListTransactions(r.Context(), userID, limit, offset)
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}

	items := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		items = append(items, toTransactionResponse(tx))
	}

	writeData(w, http.StatusOK, map[string]any{
		"items": items,
		"total": total,
	})
}
