package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/matekasse/matekasse-backend/internal/domain"
)

// membershipService defines the minimal interface needed by MembershipHandler.
type membershipService interface {
	Request(ctx context.Context, creatorID uuid.UUID) (*domain.MembershipPoll, error)
	Vote(ctx context.Context, pollID, voterID uuid.UUID, approve bool) (*domain.MembershipPoll, error)
	Retract(ctx context.Context, pollID, voterID uuid.UUID) (*domain.MembershipPoll, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.MembershipPoll, error)
	List(ctx context.Context, state domain.PollState) ([]*domain.MembershipPoll, error)
}

// MembershipHandler serves membership poll endpoints.
type MembershipHandler struct {
	svc membershipService
	log *slog.Logger
}

// NewMembershipHandler creates a MembershipHandler.
func NewMembershipHandler(svc membershipService, logger *slog.Logger) *MembershipHandler {
	return &MembershipHandler{svc: svc, log: logger.With("handler", "membership")}
}

type requestMembershipRequest struct {
	CreatorID string `json:"creatorId"`
}

// Request handles POST /v1/requestMembership.
func (h *MembershipHandler) Request(w http.ResponseWriter, r *http.Request) {
	var req requestMembershipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}
	creatorID, err := uuid.Parse(req.CreatorID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "creatorId must be a UUID")
		return
	}

	p, err := h.svc.Request(r.Context(), creatorID)
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}

	writeData(w, http.StatusCreated, toPollResponse(p))
}

type voteMembershipRequest struct {
	PollID  string `json:"pollId"`
	VoterID string `json:"voterId"`
	Approve bool   `json:"approve"`
}

// Vote handles POST /v1/voteMembership.
func (h *MembershipHandler) Vote(w http.ResponseWriter, r *http.Request) {
	var req voteMembershipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}
	pollID, err := uuid.Parse(req.PollID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "pollId must be a UUID")
		return
	}
	voterID, err := uuid.Parse(req.VoterID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "voterId must be a UUID")
		return
	}

	p, err := h.svc.Vote(r.Context(), pollID, voterID, req.Approve)
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}

	writeData(w, http.StatusOK, toPollResponse(p))
}

type retractMembershipVoteRequest struct {
	PollID  string `json:"pollId"`
	VoterID string `json:"voterId"`
}

// Retract handles POST /v1/retractMembershipVote.
func (h *MembershipHandler) Retract(w http.ResponseWriter, r *http.Request) {
	var req retractMembershipVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}
	pollID, err := uuid.Parse(req.PollID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "pollId must be a UUID")
		return
	}
	voterID, err := uuid.Parse(req.VoterID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "voterId must be a UUID")
		return
	}

	p, err := h.svc.Retract(r.Context(), pollID, voterID)
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}

	writeData(w, http.StatusOK, toPollResponse(p))
}

// List handles GET /v1/listMembershipPolls. The state filter defaults
// to active polls.
func (h *MembershipHandler) List(w http.ResponseWriter, r *http.Request) {
	state := domain.PollState(r.URL.Query().Get("state"))
	if state == "" {
		state = domain.PollStateActive
	}

	if id := r.URL.Query().Get("id"); id != "" {
		pollID, err := uuid.Parse(id)
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "id must be a UUID")
			return
		}
		p, err := h.svc.Get(r.Context(), pollID)
		if err != nil {
			respondError(h.log, w, r, err)
			return
		}
		writeData(w, http.StatusOK, toPollResponse(p))
		return
	}

	polls, err := h.svc.List(r.Context(), state)
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}

	items := make([]pollResponse, 0, len(polls))
	for _, p := range polls {
		items = append(items, toPollResponse(p))
	}
	writeData(w, http.StatusOK, items)
}
