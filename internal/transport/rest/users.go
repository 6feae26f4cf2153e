package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/matekasse/matekasse-backend/internal/domain"
	"github.com/matekasse/matekasse-backend/internal/service/account"
)

// accountService defines the minimal interface needed by UserHandler.
type accountService interface {
	CreateUser(ctx context.Context, in account.CreateUserInput) (*domain.User, error)
	AddAlias(ctx context.Context, userID uuid.UUID, appUserID string) (*domain.Alias, error)
	DeleteAlias(ctx context.Context, userID, applicationID uuid.UUID) error
	StartVouch(ctx context.Context, voucherID, targetID uuid.UUID) error
	EndVouch(ctx context.Context, voucherID, targetID uuid.UUID) error
	UpdateName(ctx context.Context, id uuid.UUID, name *string) (*domain.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error)
	ListUsers(ctx context.Context, activeOnly bool) ([]*domain.User, error)
	ResolveAlias(ctx context.Context, appUserID string) (*domain.User, error)
	DisableUser(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// UserHandler serves account and alias endpoints.
type UserHandler struct {
	svc accountService
	log *slog.Logger
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(svc accountService, logger *slog.Logger) *UserHandler {
	return &UserHandler{svc: svc, log: logger.With("handler", "users")}
}

type createUserRequest struct {
	Name      *string `json:"name"`
	AppUserID string  `json:"appUserId"`
}

// CreateUser handles POST /v1/createUser.
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}

	u, err := h.svc.CreateUser(r.Context(), account.CreateUserInput{
		Name:      req.Name,
		AppUserID: req.AppUserID,
	})
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}

	writeData(w, http.StatusCreated, toUserResponse(u))
}

type addAliasRequest struct {
	UserID    string `json:"userId"`
	AppUserID string `json:"appUserId"`
}

// AddAlias handles POST /v1/addAlias.
func (h *UserHandler) AddAlias(w http.ResponseWriter, r *http.Request) {
	var req addAliasRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "userId must be a UUID")
		return
	}

	alias, err := h.svc.AddAlias(r.Context(), userID, req.AppUserID)
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}

	writeData(w, http.StatusCreated, toAliasResponse(alias))
}

type deleteAliasRequest struct {
	UserID        string `json:"userId"`
	ApplicationID string `json:"applicationId"`
}

// DeleteAlias handles POST /v1/deleteAlias.
func (h *UserHandler) DeleteAlias(w http.ResponseWriter, r *http.Request) {
	var req deleteAliasRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "userId must be a UUID")
		return
	}
	applicationID, err := uuid.Parse(req.ApplicationID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "applicationId must be a UUID")
		return
	}

	if err := h.svc.DeleteAlias(r.Context(), userID, applicationID); err != nil {
		respondError(h.log, w, r, err)
		return
	}

	writeData(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type vouchRequest struct {
	VoucherID string `json:"voucherId"`
	TargetID  string `json:"targetId"`
}

func (req vouchRequest) ids() (voucherID, targetID uuid.UUID, err error) {
	voucherID, err = uuid.Parse(req.VoucherID)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	targetID, err = uuid.Parse(req.TargetID)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return voucherID, targetID, nil
}

// StartVouch handles POST /v1/startVouch.
func (h *UserHandler) StartVouch(w http.ResponseWriter, r *http.Request) {
	var req vouchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}
	voucherID, targetID, err := req.ids()
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "voucherId and targetId must be UUIDs")
		return
	}

	if err := h.svc.StartVouch(r.Context(), voucherID, targetID); err != nil {
		respondError(h.log, w, r, err)
		return
	}

	writeData(w, http.StatusOK, map[string]string{"status": "vouching"})
}

// EndVouch handles POST /v1/endVouch.
func (h *UserHandler) EndVouch(w http.ResponseWriter, r *http.Request) {
	var req vouchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}
	voucherID, targetID, err := req.ids()
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "voucherId and targetId must be UUIDs")
		return
	}

	if err := h.svc.EndVouch(r.Context(), voucherID, targetID); err != nil {
		respondError(h.log, w, r, err)
		return
	}

	writeData(w, http.StatusOK, map[string]string{"status": "ended"})
}

type updateNameRequest struct {
	UserID string  `json:"userId"`
	Name   *string `json:"name"`
}

// UpdateName handles POST /v1/updateName.
func (h *UserHandler) UpdateName(w http.ResponseWriter, r *http.Request) {
	var req updateNameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "userId must be a UUID")
		return
	}

	u, err := h.svc.UpdateName(r.Context(), userID, req.Name)
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}

	writeData(w, http.StatusOK, toUserResponse(u))
}

type disableUserRequest struct {
	UserID string `json:"userId"`
}

// DisableUser handles POST /v1/disableUser.
func (h *UserHandler) DisableUser(w http.ResponseWriter, r *http.Request) {
	var req disableUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "userId must be a UUID")
		return
	}

	u, err := h.svc.DisableUser(r.Context(), userID)
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}

	writeData(w, http.StatusOK, toUserResponse(u))
}

// GetUser handles GET /v1/getUser. The account is looked up either by
// id or, within the calling application, by appUserId.
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	if appUserID := r.URL.Query().Get("appUserId"); appUserID != "" {
		u, err := h.svc.ResolveAlias(r.Context(), appUserID)
		if err != nil {
			respondError(h.log, w, r, err)
			return
		}
		writeData(w, http.StatusOK, toUserResponse(u))
		return
	}

	id, err := uuid.Parse(r.URL.Query().Get("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "id must be a UUID")
		return
	}

	u, err := h.svc.GetUser(r.Context(), id)
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}

	writeData(w, http.StatusOK, toUserResponse(u))
}

// GetUsers handles GET /v1/getUsers.
func (h *UserHandler) GetUsers(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"

	users, err := h.svc.ListUsers(r.Context(), activeOnly)
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}

	writeData(w, http.StatusOK, toUserResponses(users))
}
