// Package refund implements the refund workflow: a member asks the
// community account to pay them back and the other members vote on it.
package refund

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/matekasse/matekasse-backend/internal/domain"
	"github.com/matekasse/matekasse-backend/internal/service/ledger"
	"github.com/matekasse/matekasse-backend/internal/service/voting"
)

// refundRepo defines the refund repository interface needed by the workflow.
type refundRepo interface {
	Create(ctx context.Context, ref *domain.Refund) (*domain.Refund, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Refund, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Refund, error)
	GetActiveByCreator(ctx context.Context, creatorID uuid.UUID) (*domain.Refund, error)
	ListByState(ctx context.Context, state domain.RefundState) ([]*domain.Refund, error)
	SetState(ctx context.Context, id uuid.UUID, state domain.RefundState, transactionID *uuid.UUID) (*domain.Refund, error)
	UpsertVote(ctx context.Context, refundID, voterID uuid.UUID, approve bool) error
	DeleteVote(ctx context.Context, refundID, voterID uuid.UUID) error
}

// userRepo defines the user repository interface needed by the workflow.
type userRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// transferrer executes payouts inside the caller's transaction.
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

// Settings carries the refund workflow's wiring constants.
type Settings struct {
	// CommunityID is the account refunds are paid out of.
	CommunityID uuid.UUID
}

// Service implements the refund workflow.
type Service struct {
	log      *slog.Logger
	refunds  refundRepo
	users    userRepo
	ledger   transferrer
	engine   voting.Engine
	tx       txManager
	events   notifier
	settings Settings
}

// NewService creates a new refund service instance.
func NewService(
	logger *slog.Logger,
	refunds refundRepo,
	users userRepo,
	transfers transferrer,
	engine voting.Engine,
	tx txManager,
	events notifier,
	settings Settings,
) *Service {
	return &Service{
		log:      logger.With("service", "refund"),
		refunds:  refunds,
		users:    users,
		ledger:   transfers,
		engine:   engine,
		tx:       tx,
		events:   events,
		settings: settings,
	}
}
