package consumable

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/matekasse/matekasse-backend/internal/domain"
	"github.com/matekasse/matekasse-backend/internal/service/ledger"
)

// Purchase is the result of consuming from the catalog.
type Purchase struct {
	Consumable  *domain.Consumable
	Transaction *domain.Transaction
	Message     string
}

// List returns the full catalog.
func (s *Service) List(ctx context.Context) ([]*domain.Consumable, error) {
	items, err := s.catalog.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("consumable.List: %w", err)
	}
	return items, nil
}

// MaxCount caps a single purchase. Keeps price*count well inside int64
// range before the ledger's own amount cap is checked.
const MaxCount = 100

// Consume buys count units of a consumable by name. Stock decrement
// and the payment to the community account happen in one atomic unit.
func (s *Service) Consume(ctx context.Context, userID uuid.UUID, name string, count int64) (*Purchase, error) {
	if count < 1 {
		return nil, fmt.Errorf("consumable.Consume: %w", domain.NewValidationError("count", "must be at least 1"))
	}
	if count > MaxCount {
		return nil, fmt.Errorf("consumable.Consume: %w", domain.NewValidationError("count", fmt.Sprintf("must be at most %d", MaxCount)))
	}
	if name == "" {
		return nil, fmt.Errorf("consumable.Consume: %w", domain.NewValidationError("name", "required"))
	}

	var purchase *Purchase

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		item, err := s.catalog.GetByName(txCtx, name)
		if err != nil {
			return err
		}

		updated, err := s.catalog.DecrementStock(txCtx, item.ID, count)
		if err != nil {
			return fmt.Errorf("decrement stock: %w", err)
		}

		tx, err := s.ledger.TransferTx(txCtx, ledger.TransferInput{
			SenderID:   userID,
			ReceiverID: s.settings.CommunityID,
			Amount:     item.Price * count,
			Reason:     fmt.Sprintf("consume: %d x %s", count, item.Name),
		})
		if err != nil {
			return fmt.Errorf("book purchase: %w", err)
		}

		purchase = &Purchase{
			Consumable:  updated,
			Transaction: tx,
			Message:     s.pickMessage(item.Messages),
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("consumable.Consume: %w", err)
	}

	s.log.InfoContext(ctx, "consumable purchased",
		slog.String("user_id", userID.String()),
		slog.String("name", name),
		slog.Int64("count", count))

	return purchase, nil
}
