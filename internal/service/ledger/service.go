// Package ledger implements the money movement engine. Every balance
// change in the system goes through Transfer or TransferTx so the
// transaction log stays the complete audit trail.
package ledger

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/matekasse/matekasse-backend/internal/domain"
)

// userRepo defines the user repository interface needed by the ledger.
type userRepo interface {
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.User, error)
	AddBalance(ctx context.Context, id uuid.UUID, delta int64) (*domain.User, error)
}

// transactionRepo defines the transaction repository interface needed by the ledger.
type transactionRepo interface {
	Create(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Transaction, int, error)
}

// txManager defines the transaction manager interface needed by the ledger.
type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// notifier delivers events to registered application callbacks.
type notifier interface {
	Emit(ctx context.Context, ev domain.Event)
}

// Settings carries the ledger's tunables.
type Settings struct {
	// MaxAmount caps a single transfer. Guards against fat-finger
	// amounts from buggy clients.
	MaxAmount int64
}

// Service implements the transaction engine.
type Service struct {
	log      *slog.Logger
	users    userRepo
	txs      transactionRepo
	tx       txManager
	events   notifier
	settings Settings
}

// NewService creates a new ledger service instance.
func NewService(
	logger *slog.Logger,
	users userRepo,
	txs transactionRepo,
	tx txManager,
	events notifier,
	settings Settings,
) *Service {
	return &Service{
		log:      logger.With("service", "ledger"),
		users:    users,
		txs:      txs,
		tx:       tx,
		events:   events,
		settings: settings,
	}
}
