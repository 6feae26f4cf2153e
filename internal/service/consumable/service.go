// Package consumable implements the drink and snack catalog. Buying a
// consumable books a transfer from the buyer to the community account.
package consumable

import (
	"context"
	"log/slog"
	"math/rand"

	"github.com/google/uuid"

	"github.com/matekasse/matekasse-backend/internal/domain"
	"github.com/matekasse/matekasse-backend/internal/service/ledger"
)

// consumableRepo defines the catalog repository interface needed by the service.
type consumableRepo interface {
	GetByName(ctx context.Context, name string) (*domain.Consumable, error)
	List(ctx context.Context) ([]*domain.Consumable, error)
	DecrementStock(ctx context.Context, id uuid.UUID, quantity int64) (*domain.Consumable, error)
}

// transferrer executes purchases inside the caller's transaction.
type transferrer interface {
	TransferTx(ctx context.Context, in ledger.TransferInput) (*domain.Transaction, error)
}

// txManager defines the transaction manager interface needed by the service.
type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Settings carries the consumable service's wiring constants.
type Settings struct {
	// CommunityID is the account purchases are paid into.
	CommunityID uuid.UUID
}

// Service implements the consumable catalog.
type Service struct {
	log      *slog.Logger
	catalog  consumableRepo
	ledger   transferrer
	tx       txManager
	settings Settings

	// pickMessage selects a consume message. Swapped in tests for a
	// deterministic pick.
	pickMessage func(messages []string) string
}

// NewService creates a new consumable service instance.
func NewService(
	logger *slog.Logger,
	catalog consumableRepo,
	transfers transferrer,
	tx txManager,
	settings Settings,
) *Service {
	return &Service{
		log:      logger.With("service", "consumable"),
		catalog:  catalog,
		ledger:   transfers,
		tx:       tx,
		settings: settings,
		pickMessage: func(messages []string) string {
			if len(messages) == 0 {
				return ""
			}
			return messages[rand.Intn(len(messages))]
		},
	}
}
