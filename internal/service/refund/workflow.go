package refund

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/matekasse/matekasse-backend/internal/domain"
	"github.com/matekasse/matekasse-backend/internal/service/ledger"
	"github.com/matekasse/matekasse-backend/internal/service/voting"
)

// Start opens a refund request. Only active members may ask, and each
// member holds at most one open request at a time.
func (s *Service) Start(ctx context.Context, creatorID uuid.UUID, amount int64, reason string) (*domain.Refund, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("refund.Start: %w", domain.NewValidationError("amount", "must be positive"))
	}
	if reason == "" {
		return nil, fmt.Errorf("refund.Start: %w", domain.NewValidationError("reason", "required"))
	}

	var created *domain.Refund

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		creator, err := s.users.GetByID(txCtx, creatorID)
		if err != nil {
			return fmt.Errorf("load creator: %w", err)
		}
		if !creator.Active {
			return domain.ErrUserDisabled
		}
		if !creator.Internal {
			return fmt.Errorf("%w: only members may request refunds", domain.ErrForbidden)
		}

		if _, err := s.refunds.GetActiveByCreator(txCtx, creatorID); err == nil {
			return domain.ErrDuplicateActiveRefund
		} else if !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		ref, err := s.refunds.Create(txCtx, &domain.Refund{
			ID:        uuid.New(),
			CreatorID: creatorID,
			Amount:    amount,
			Reason:    reason,
		})
		if err != nil {
			// Unique index backstop for a concurrent Start by the
			// same creator.
			if errors.Is(err, domain.ErrAlreadyExists) {
				return domain.ErrDuplicateActiveRefund
			}
			return err
		}
		created = ref
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("refund.Start: %w", err)
	}

	s.log.InfoContext(ctx, "refund opened",
		slog.String("refund_id", created.ID.String()),
		slog.String("creator_id", creatorID.String()),
		slog.Int64("amount", amount))

	s.events.Emit(ctx, domain.NewEvent(domain.EventRefundCreated, created.ID))

	return created, nil
}

// Cancel withdraws an open refund. Only the creator may cancel.
func (s *Service) Cancel(ctx context.Context, refundID, callerID uuid.UUID) (*domain.Refund, error) {
	var cancelled *domain.Refund

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		ref, err := s.refunds.GetForUpdate(txCtx, refundID)
		if err != nil {
			return err
		}
		if ref.CreatorID != callerID {
			return fmt.Errorf("%w: only the creator may cancel", domain.ErrForbidden)
		}
		if ref.State.IsTerminal() {
			return domain.ErrPollClosed
		}

		cancelled, err = s.refunds.SetState(txCtx, refundID, domain.RefundStateCancelled, nil)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("refund.Cancel: %w", err)
	}

	s.events.Emit(ctx, domain.NewEvent(domain.EventRefundClosed, refundID))

	return cancelled, nil
}

// Vote casts or replaces a member's vote. When the fresh tally crosses
// the threshold the refund closes in the same atomic unit, and on
// approval the payout from the community account is booked with it.
func (s *Service) Vote(ctx context.Context, refundID, voterID uuid.UUID, approve bool) (*domain.Refund, error) {
	var (
		result *domain.Refund
		closed bool
	)

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		ref, err := s.refunds.GetForUpdate(txCtx, refundID)
		if err != nil {
			return err
		}
		if ref.State.IsTerminal() {
			return domain.ErrPollClosed
		}
		if ref.CreatorID == voterID {
			return domain.ErrSelfVote
		}

		voter, err := s.users.GetByID(txCtx, voterID)
		if err != nil {
			return fmt.Errorf("load voter: %w", err)
		}
		if !voter.Active {
			return domain.ErrUserDisabled
		}
		if !voter.Internal {
			return domain.ErrExternalVoter
		}

		votes, outcome := s.engine.Cast(ref.Votes, voterID, approve)
		if err := s.refunds.UpsertVote(txCtx, refundID, voterID, approve); err != nil {
			return err
		}
		ref.Votes = votes

		switch outcome {
		case voting.OutcomeAccepted:
			payout, err := s.ledger.TransferTx(txCtx, ledger.TransferInput{
				SenderID:   s.settings.CommunityID,
				ReceiverID: ref.CreatorID,
				Amount:     ref.Amount,
				Reason:     "refund: " + ref.Reason,
			})
			if err != nil {
				return fmt.Errorf("pay out refund: %w", err)
			}
			result, err = s.refunds.SetState(txCtx, refundID, domain.RefundStateAccepted, &payout.ID)
			if err != nil {
				return err
			}
			closed = true
		case voting.OutcomeDeclined:
			result, err = s.refunds.SetState(txCtx, refundID, domain.RefundStateDeclined, nil)
			if err != nil {
				return err
			}
			closed = true
		default:
			result = ref
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("refund.Vote: %w", err)
	}

	if closed {
		s.log.InfoContext(ctx, "refund closed",
			slog.String("refund_id", refundID.String()),
			slog.String("state", result.State.String()))
		s.events.Emit(ctx, domain.NewEvent(domain.EventRefundClosed, refundID))
	} else {
		s.events.Emit(ctx, domain.NewEvent(domain.EventRefundUpdated, refundID))
	}

	return result, nil
}

// Retract removes a voter's vote from an open refund. Retraction never
// closes a ballot; the tally is only evaluated when a vote is cast.
func (s *Service) Retract(ctx context.Context, refundID, voterID uuid.UUID) (*domain.Refund, error) {
	var result *domain.Refund

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		ref, err := s.refunds.GetForUpdate(txCtx, refundID)
		if err != nil {
			return err
		}
		if ref.State.IsTerminal() {
			return domain.ErrPollClosed
		}

		votes, removed := s.engine.Retract(ref.Votes, voterID)
		if !removed {
			return fmt.Errorf("vote: %w", domain.ErrNotFound)
		}
		if err := s.refunds.DeleteVote(txCtx, refundID, voterID); err != nil {
			return err
		}

		ref.Votes = votes
		result = ref
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("refund.Retract: %w", err)
	}

	s.events.Emit(ctx, domain.NewEvent(domain.EventRefundUpdated, refundID))

	return result, nil
}

// Get returns one refund with its votes.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Refund, error) {
	ref, err := s.refunds.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("refund.Get: %w", err)
	}
	return ref, nil
}

// List returns all refunds in the given state.
func (s *Service) List(ctx context.Context, state domain.RefundState) ([]*domain.Refund, error) {
	if !state.IsValid() {
		return nil, fmt.Errorf("refund.List: %w", domain.NewValidationError("state", "unknown state"))
	}
	refs, err := s.refunds.ListByState(ctx, state)
	if err != nil {
		return nil, fmt.Errorf("refund.List: %w", err)
	}
	return refs, nil
}
