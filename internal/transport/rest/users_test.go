package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/matekasse/matekasse-backend/internal/domain"
	"github.com/matekasse/matekasse-backend/internal/service/account"
)

type accountServiceMock struct {
	CreateUserFunc   func(ctx context.Context, in account.CreateUserInput) (*domain.User, error)
	GetUserFunc      func(ctx context.Context, id uuid.UUID) (*domain.User, error)
	ResolveAliasFunc func(ctx context.Context, appUserID string) (*domain.User, error)
}

func (m *accountServiceMock) CreateUser(ctx context.Context, in account.CreateUserInput) (*domain.User, error) {
	return m.CreateUserFunc(ctx, in)
}

func (m *accountServiceMock) AddAlias(_ context.Context, _ uuid.UUID, _ string) (*domain.Alias, error) {
	return nil, nil
}

func (m *accountServiceMock) DeleteAlias(_ context.Context, _, _ uuid.UUID) error { return nil }

func (m *accountServiceMock) StartVouch(_ context.Context, _, _ uuid.UUID) error { return nil }

func (m *accountServiceMock) EndVouch(_ context.Context, _, _ uuid.UUID) error { return nil }

func (m *accountServiceMock) UpdateName(_ context.Context, _ uuid.UUID, _ *string) (*domain.User, error) {
	return nil, nil
}

func (m *accountServiceMock) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return m.GetUserFunc(ctx, id)
}

func (m *accountServiceMock) ListUsers(_ context.Context, _ bool) ([]*domain.User, error) {
	return nil, nil
}

func (m *accountServiceMock) ResolveAlias(ctx context.Context, appUserID string) (*domain.User, error) {
	return m.ResolveAliasFunc(ctx, appUserID)
}

func (m *accountServiceMock) DisableUser(_ context.Context, _ uuid.UUID) (*domain.User, error) {
	return nil, nil
}

func testLogger() *slog.Logger {
	return slog.Default()
}

func TestCreateUser_Success(t *testing.T) {
	t.Parallel()

	name := "Max"
	mock := &accountServiceMock{
		CreateUserFunc: func(_ context.Context, in account.CreateUserInput) (*domain.User, error) {
			if in.AppUserID != "tg:12345" {
				t.Errorf("expected appUserId 'tg:12345', got %q", in.AppUserID)
			}
			return &domain.User{ID: uuid.New(), Name: &name, Active: true}, nil
		},
	}
	h := NewUserHandler(mock, testLogger())

	body := `{"name":"Max","appUserId":"tg:12345"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/createUser", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.CreateUser(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var env struct {
		Success bool         `json:"success"`
		Data    userResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if !env.Success {
		t.Error("expected success=true")
	}

	if env.Data.Name == nil || *env.Data.Name != "Max" {
		t.Errorf("expected name 'Max', got %v", env.Data.Name)
	}
}

func TestCreateUser_InvalidBody(t *testing.T) {
	t.Parallel()

	h := NewUserHandler(&accountServiceMock{}, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/v1/createUser", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()

	h.CreateUser(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}

	var env errorEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if env.Success {
		t.Error("expected success=false")
	}

	if env.Code != "VALIDATION_ERROR" {
		t.Errorf("expected code VALIDATION_ERROR, got %q", env.Code)
	}
}

func TestGetUser_ByAppUserID(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	mock := &accountServiceMock{
		ResolveAliasFunc: func(_ context.Context, appUserID string) (*domain.User, error) {
			if appUserID != "tg:777" {
				t.Errorf("expected appUserId 'tg:777', got %q", appUserID)
			}
			return &domain.User{ID: userID, Active: true, Internal: true}, nil
		},
	}
	h := NewUserHandler(mock, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/v1/getUser?appUserId=tg:777", nil)
	rec := httptest.NewRecorder()

	h.GetUser(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var env struct {
		Success bool         `json:"success"`
		Data    userResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if env.Data.ID != userID.String() {
		t.Errorf("expected id %s, got %s", userID, env.Data.ID)
	}
}

func TestGetUser_NotFoundMapsTo404(t *testing.T) {
	t.Parallel()

	mock := &accountServiceMock{
		GetUserFunc: func(_ context.Context, _ uuid.UUID) (*domain.User, error) {
			return nil, fmt.Errorf("account.GetUser: %w", domain.ErrNotFound)
		},
	}
	h := NewUserHandler(mock, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/v1/getUser?id="+uuid.NewString(), nil)
	rec := httptest.NewRecorder()

	h.GetUser(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}

	var env errorEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if env.Code != "NOT_FOUND" {
		t.Errorf("expected code NOT_FOUND, got %q", env.Code)
	}
}

func TestRespondError_Mapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", fmt.Errorf("bad input: %w", domain.ErrValidation), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unauthorized", domain.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"forbidden", domain.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{"not found", domain.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"conflict", domain.ErrConflict, http.StatusConflict, "CONFLICT"},
		{"already exists", domain.ErrAlreadyExists, http.StatusConflict, "CONFLICT"},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError, "INTERNAL"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()

			respondError(testLogger(), rec, req, tc.err)

			if rec.Code != tc.wantStatus {
				t.Errorf("expected status %d, got %d", tc.wantStatus, rec.Code)
			}

			var env errorEnvelope
			if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}

			if env.Code != tc.wantCode {
				t.Errorf("expected code %q, got %q", tc.wantCode, env.Code)
			}
		})
	}
}
