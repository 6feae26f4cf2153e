// Package account manages ledger accounts, their application aliases
// and the voucher (sponsorship) relation between members and guests.
package account

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/matekasse/matekasse-backend/internal/domain"
)

// userRepo defines the user repository interface needed by the account service.
type userRepo interface {
	Create(ctx context.Context, u *domain.User) (*domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.User, error)
	List(ctx context.Context, activeOnly bool) ([]*domain.User, error)
	SetVoucher(ctx context.Context, id uuid.UUID, voucherID *uuid.UUID) (*domain.User, error)
	Disable(ctx context.Context, id uuid.UUID) (*domain.User, error)
	UpdateName(ctx context.Context, id uuid.UUID, name *string) (*domain.User, error)

	CreateAlias(ctx context.Context, a *domain.Alias) (*domain.Alias, error)
	GetAlias(ctx context.Context, applicationID uuid.UUID, appUserID string) (*domain.Alias, error)
	ListAliasesByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Alias, error)
	CountAliasesByUser(ctx context.Context, userID uuid.UUID) (int, error)
	DeleteAlias(ctx context.Context, id uuid.UUID) error
}

// applicationRepo resolves applications from the registry.
type applicationRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Application, error)
}

// txManager defines the transaction manager interface needed by the account service.
type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// notifier delivers events to registered application callbacks.
type notifier interface {
	Emit(ctx context.Context, ev domain.Event)
}

// Service implements account and alias management.
type Service struct {
	log    *slog.Logger
	users  userRepo
	apps   applicationRepo
	tx     txManager
	events notifier
}

// NewService creates a new account service instance.
func NewService(
	logger *slog.Logger,
	users userRepo,
	apps applicationRepo,
	tx txManager,
	events notifier,
) *Service {
	return &Service{
		log:    logger.With("service", "account"),
		users:  users,
		apps:   apps,
		tx:     tx,
		events: events,
	}
}
