package account

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/matekasse/matekasse-backend/internal/domain"
)

// StartVouch makes an internal member the sponsor of an external
// account. A sponsored guest may go into debt and take part in
// cost-splitting events.
func (s *Service) StartVouch(ctx context.Context, voucherID, targetID uuid.UUID) error {
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		voucher, err := s.users.GetByID(txCtx, voucherID)
		if err != nil {
			return fmt.Errorf("load voucher: %w", err)
		}
		if !voucher.Active || !voucher.Internal {
			return fmt.Errorf("%w: only active members may vouch", domain.ErrForbidden)
		}

		target, err := s.users.GetForUpdate(txCtx, targetID)
		if err != nil {
			return fmt.Errorf("load target: %w", err)
		}
		if !target.Active {
			return domain.ErrUserDisabled
		}
		if target.Internal {
			return domain.ErrAlreadyInternal
		}
		if target.IsVouched() {
			return domain.ErrAlreadyVouched
		}

		_, err = s.users.SetVoucher(txCtx, targetID, &voucherID)
		return err
	})
	if err != nil {
		return fmt.Errorf("account.StartVouch: %w", err)
	}

	s.log.InfoContext(ctx, "vouch started",
		slog.String("voucher_id", voucherID.String()),
		slog.String("target_id", targetID.String()))

	s.events.Emit(ctx, domain.NewEvent(domain.EventVoucherUpdated, targetID))

	return nil
}

// EndVouch removes the sponsorship. The sponsor stays on the hook for
// an indebted guest, so ending is refused while the balance is negative.
func (s *Service) EndVouch(ctx context.Context, voucherID, targetID uuid.UUID) error {
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		target, err := s.users.GetForUpdate(txCtx, targetID)
		if err != nil {
			return fmt.Errorf("load target: %w", err)
		}
		if target.VoucherID == nil || *target.VoucherID != voucherID {
			return domain.ErrNotVouching
		}
		if target.Balance < 0 {
			return domain.ErrVoucherHasDebt
		}

		_, err = s.users.SetVoucher(txCtx, targetID, nil)
		return err
	})
	if err != nil {
		return fmt.Errorf("account.EndVouch: %w", err)
	}

	s.log.InfoContext(ctx, "vouch ended",
		slog.String("voucher_id", voucherID.String()),
		slog.String("target_id", targetID.String()))

	s.events.Emit(ctx, domain.NewEvent(domain.EventVoucherUpdated, targetID))

	return nil
}
