package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/matekasse/matekasse-backend/internal/domain"
)

// communismService defines the minimal interface needed by CommunismHandler.
type communismService interface {
	Start(ctx context.Context, creatorID uuid.UUID, amount int64, description string) (*domain.Communism, error)
	Join(ctx context.Context, communismID, userID uuid.UUID, quantity int64) (*domain.Communism, error)
	Leave(ctx context.Context, communismID, userID uuid.UUID) (*domain.Communism, error)
	Cancel(ctx context.Context, communismID, callerID uuid.UUID) (*domain.Communism, error)
	Settle(ctx context.Context, communismID, callerID uuid.UUID) (*domain.Communism, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Communism, error)
	List(ctx context.Context, state domain.CommunismState) ([]*domain.Communism, error)
}

// CommunismHandler serves shared-expense (communism) endpoints.
type CommunismHandler struct {
	svc communismService
	log *slog.Logger
}

// NewCommunismHandler creates a CommunismHandler.
func NewCommunismHandler(svc communismService, logger *slog.Logger) *CommunismHandler {
	return &CommunismHandler{svc: svc, log: logger.With("handler", "communisms")}
}

type startCommunismRequest struct {
	CreatorID   string `json:"creatorId"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
}

// Start handles POST /v1/startCommunism.
func (h *CommunismHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req startCommunismRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}
	creatorID, err := uuid.Parse(req.CreatorID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "creatorId must be a UUID")
		return
	}

	c, err := h.svc.Start(r.Context(), creatorID, req.Amount, req.Description)
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}

	writeData(w, http.StatusCreated, toCommunismResponse(c))
}

type joinCommunismRequest struct {
	CommunismID string `json:"communismId"`
	UserID      string `json:"userId"`
	Quantity    int64  `json:"quantity"`
}

// Join handles POST /v1/joinCommunism. Quantity defaults to one share.
func (h *CommunismHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req joinCommunismRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}
	communismID, userID, ok := communismMemberIDs(w, req.CommunismID, req.UserID)
	if !ok {
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	c, err := h.svc.Join(r.Context(), communismID, userID, req.Quantity)
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}

	writeData(w, http.StatusOK, toCommunismResponse(c))
}

type communismMemberRequest struct {
	CommunismID string `json:"communismId"`
	UserID      string `json:"userId"`
}

// Leave handles POST /v1/leaveCommunism.
func (h *CommunismHandler) Leave(w http.ResponseWriter, r *http.Request) {
	var req communismMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}
	communismID, userID, ok := communismMemberIDs(w, req.CommunismID, req.UserID)
	if !ok {
		return
	}

	c, err := h.svc.Leave(r.Context(), communismID, userID)
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}

	writeData(w, http.StatusOK, toCommunismResponse(c))
}

// Settle handles POST /v1/settleCommunism.
func (h *CommunismHandler) Settle(w http.ResponseWriter, r *http.Request) {
	var req communismMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}
	communismID, callerID, ok := communismMemberIDs(w, req.CommunismID, req.UserID)
	if !ok {
		return
	}

	c, err := h.svc.Settle(r.Context(), communismID, callerID)
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}

	writeData(w, http.StatusOK, toCommunismResponse(c))
}

// Cancel handles POST /v1/cancelCommunism.
func (h *CommunismHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	var req communismMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}
	communismID, callerID, ok := communismMemberIDs(w, req.CommunismID, req.UserID)
	if !ok {
		return
	}

	c, err := h.svc.Cancel(r.Context(), communismID, callerID)
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}

	writeData(w, http.StatusOK, toCommunismResponse(c))
}

// List handles GET /v1/listCommunisms. The state filter defaults to
// active communisms.
func (h *CommunismHandler) List(w http.ResponseWriter, r *http.Request) {
	state := domain.CommunismState(r.URL.Query().Get("state"))
	if state == "" {
		state = domain.CommunismStateActive
	}

	if id := r.URL.Query().Get("id"); id != "" {
		communismID, err := uuid.Parse(id)
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "id must be a UUID")
			return
		}
		c, err := h.svc.Get(r.Context(), communismID)
		if err != nil {
			respondError(h.log, w, r, err)
			return
		}
		writeData(w, http.StatusOK, toCommunismResponse(c))
		return
	}

	communisms, err := h.svc.List(r.Context(), state)
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}

	items := make([]communismResponse, 0, len(communisms))
	for _, c := range communisms {
		items = append(items, toCommunismResponse(c))
	}
	writeData(w, http.StatusOK, items)
}

func communismMemberIDs(w http.ResponseWriter, communismID, userID string) (uuid.UUID, uuid.UUID, bool) {
	cid, err := uuid.Parse(communismID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "communismId must be a UUID")
		return uuid.Nil, uuid.Nil, false
	}
	uid, err := uuid.Parse(userID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "userId must be a UUID")
		return uuid.Nil, uuid.Nil, false
	}
	return cid, uid, true
}
