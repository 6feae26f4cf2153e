package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/matekasse/matekasse-backend/internal/domain"
)

// TransferInput describes one transfer between two accounts.
type TransferInput struct {
	SenderID   uuid.UUID
	ReceiverID uuid.UUID
	Amount     int64
	Reason     string
}

// Validate checks the static parts of the input. Account existence and
// state are checked inside the transaction.
func (in TransferInput) Validate(maxAmount int64) error {
	var errs []domain.FieldError
	if in.Amount <= 0 {
		errs = append(errs, domain.FieldError{Field: "amount", Message: "must be positive"})
	}
	if maxAmount > 0 && in.Amount > maxAmount {
		errs = append(errs, domain.FieldError{Field: "amount", Message: fmt.Sprintf("must not exceed %d", maxAmount)})
	}
	if in.Reason == "" {
		errs = append(errs, domain.FieldError{Field: "reason", Message: "required"})
	}
	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	if in.SenderID == in.ReceiverID {
		return domain.ErrSelfTransfer
	}
	return nil
}

// Transfer moves amount from sender to receiver in its own atomic unit
// and emits a transaction event after commit.
func (s *Service) Transfer(ctx context.Context, in TransferInput) (*domain.Transaction, error) {
	var created *domain.Transaction

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		tx, err := s.TransferTx(txCtx, in)
		if err != nil {
			return err
		}
		created = tx
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ledger.Transfer: %w", err)
	}

	s.log.InfoContext(ctx, "transfer completed",
		slog.String("transaction_id", created.ID.String()),
		slog.String("sender_id", in.SenderID.String()),
		slog.String("receiver_id", in.ReceiverID.String()),
		slog.Int64("amount", in.Amount))

	s.events.Emit(ctx, domain.NewEvent(domain.EventTransactionMade, created.ID))

	return created, nil
}

// TransferTx performs a transfer inside the caller's transaction. The
// caller owns the atomic unit and emits any events after commit. Both
// user rows are locked in ascending id order so concurrent transfers
// over the same pair cannot deadlock.
func (s *Service) TransferTx(txCtx context.Context, in TransferInput) (*domain.Transaction, error) {
	if err := in.Validate(s.settings.MaxAmount); err != nil {
		return nil, err
	}

	first, second := in.SenderID, in.ReceiverID
	if second.String() < first.String() {
		first, second = second, first
	}

	a, err := s.users.GetForUpdate(txCtx, first)
	if err != nil {
		return nil, fmt.Errorf("lock account: %w", err)
	}
	b, err := s.users.GetForUpdate(txCtx, second)
	if err != nil {
		return nil, fmt.Errorf("lock account: %w", err)
	}

	for _, u := range []*domain.User{a, b} {
		if !u.Active {
			return nil, fmt.Errorf("user %s: %w", u.ID, domain.ErrUserDisabled)
		}
	}

	if _, err := s.users.AddBalance(txCtx, in.SenderID, -in.Amount); err != nil {
		return nil, fmt.Errorf("debit sender: %w", err)
	}
	if _, err := s.users.AddBalance(txCtx, in.ReceiverID, in.Amount); err != nil {
		return nil, fmt.Errorf("credit receiver: %w", err)
	}

	created, err := s.txs.Create(txCtx, &domain.Transaction{
		ID:         uuid.New(),
		SenderID:   in.SenderID,
		ReceiverID: in.ReceiverID,
		Amount:     in.Amount,
		Reason:     in.Reason,
	})
	if err != nil {
		return nil, fmt.Errorf("append transaction: %w", err)
	}

	return created, nil
}

// GetTransaction returns one transaction by id.
func (s *Service) GetTransaction(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	tx, err := s.txs.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ledger.GetTransaction: %w", err)
	}
	return tx, nil
}

// ListTransactions returns the transactions a user took part in,
// newest first.
func (s *Service) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Transaction, int, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	txs, total, err := s.txs.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("ledger.ListTransactions: %w", err)
	}
	return txs, total, nil
}
