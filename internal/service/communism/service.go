// Package communism implements the cost-splitting workflow: one user
// pays a bill, others join with a share weight, and settling splits
// the amount across everyone who joined.
package communism

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/matekasse/matekasse-backend/internal/domain"
	"github.com/matekasse/matekasse-backend/internal/service/ledger"
)

// communismRepo defines the communism repository interface needed by the workflow.
type communismRepo interface {
	Create(ctx context.Context, c *domain.Communism) (*domain.Communism, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Communism, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Communism, error)
	ListByState(ctx context.Context, state domain.CommunismState) ([]*domain.Communism, error)
	SetState(ctx context.Context, id uuid.UUID, state domain.CommunismState) (*domain.Communism, error)
	SetParticipant(ctx context.Context, communismID, userID uuid.UUID, quantity int64) error
	RemoveParticipant(ctx context.Context, communismID, userID uuid.UUID) error
}

// userRepo defines the user repository interface needed by the workflow.
type userRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// transferrer executes settlement transfers inside the caller's transaction.
type transferrer interface {
	TransferTx(ctx context.Context, in ledger.TransferInput) (*domain.Transaction, error)
}

// txManager defines the transaction manager interface needed by the workflow.
type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// notifier delivers events to registered application callbacks.
type notifier interface {
	Emit(ctx context.Context, ev domain.Event)
}

// Service implements the communism workflow.
type Service struct {
	log     *slog.Logger
	commies communismRepo
	users   userRepo
	ledger  transferrer
	tx      txManager
	events  notifier
}

// NewService creates a new communism service instance.
func NewService(
	logger *slog.Logger,
	communisms communismRepo,
	users userRepo,
	transfers transferrer,
	tx txManager,
	events notifier,
) *Service {
	return &Service{
		log:     logger.With("service", "communism"),
		commies: communisms,
		users:   users,
		ledger:  transfers,
		tx:      tx,
		events:  events,
	}
}
