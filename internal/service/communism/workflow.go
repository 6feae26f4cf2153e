package communism

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/matekasse/matekasse-backend/internal/domain"
	"github.com/matekasse/matekasse-backend/internal/service/ledger"
)

// Start opens a cost-splitting event. Members may always start one;
// guests need an active sponsor. The creator joins with one share.
func (s *Service) Start(ctx context.Context, creatorID uuid.UUID, amount int64, description string) (*domain.Communism, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("communism.Start: %w", domain.NewValidationError("amount", "must be positive"))
	}
	if description == "" {
		return nil, fmt.Errorf("communism.Start: %w", domain.NewValidationError("description", "required"))
	}

	var created *domain.Communism

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		creator, err := s.users.GetByID(txCtx, creatorID)
		if err != nil {
			return fmt.Errorf("load creator: %w", err)
		}
		if !creator.Active {
			return domain.ErrUserDisabled
		}
		if !creator.MayStartCommunism() {
			return fmt.Errorf("%w: guests need a sponsor to start a communism", domain.ErrForbidden)
		}

		c, err := s.commies.Create(txCtx, &domain.Communism{
			ID:          uuid.New(),
			CreatorID:   creatorID,
			Amount:      amount,
			Description: description,
		})
		if err != nil {
			if errors.Is(err, domain.ErrAlreadyExists) {
				return domain.ErrDuplicateActiveCommune
			}
			return err
		}

		if err := s.commies.SetParticipant(txCtx, c.ID, creatorID, 1); err != nil {
			return err
		}
		c.Participants = []domain.CommunismParticipant{{UserID: creatorID, Quantity: 1}}

		created = c
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("communism.Start: %w", err)
	}

	s.log.InfoContext(ctx, "communism opened",
		slog.String("communism_id", created.ID.String()),
		slog.String("creator_id", creatorID.String()),
		slog.Int64("amount", amount))

	s.events.Emit(ctx, domain.NewEvent(domain.EventCommunismCreated, created.ID))

	return created, nil
}

// Join adds a user to an open communism or updates their share count.
func (s *Service) Join(ctx context.Context, communismID, userID uuid.UUID, quantity int64) (*domain.Communism, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("communism.Join: %w", domain.NewValidationError("quantity", "must be at least 1"))
	}

	var result *domain.Communism

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		c, err := s.commies.GetForUpdate(txCtx, communismID)
		if err != nil {
			return err
		}
		if c.State != domain.CommunismStateActive {
			return domain.ErrPollClosed
		}

		u, err := s.users.GetByID(txCtx, userID)
		if err != nil {
			return fmt.Errorf("load user: %w", err)
		}
		if !u.Active {
			return domain.ErrUserDisabled
		}

		if err := s.commies.SetParticipant(txCtx, communismID, userID, quantity); err != nil {
			return err
		}

		result, err = s.commies.GetByID(txCtx, communismID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("communism.Join: %w", err)
	}

	s.events.Emit(ctx, domain.NewEvent(domain.EventCommunismUpdated, communismID))

	return result, nil
}

// Leave removes a user's share from an open communism.
func (s *Service) Leave(ctx context.Context, communismID, userID uuid.UUID) (*domain.Communism, error) {
	var result *domain.Communism

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		c, err := s.commies.GetForUpdate(txCtx, communismID)
		if err != nil {
			return err
		}
		if c.State != domain.CommunismStateActive {
			return domain.ErrPollClosed
		}
		if c.ParticipantQuantity(userID) == 0 {
			return domain.ErrNotParticipating
		}

		if err := s.commies.RemoveParticipant(txCtx, communismID, userID); err != nil {
			return err
		}

		result, err = s.commies.GetByID(txCtx, communismID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("communism.Leave: %w", err)
	}

	s.events.Emit(ctx, domain.NewEvent(domain.EventCommunismUpdated, communismID))

	return result, nil
}

// Cancel closes an open communism without moving any money.
func (s *Service) Cancel(ctx context.Context, communismID, callerID uuid.UUID) (*domain.Communism, error) {
	var cancelled *domain.Communism

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		c, err := s.commies.GetForUpdate(txCtx, communismID)
		if err != nil {
			return err
		}
		if c.CreatorID != callerID {
			return fmt.Errorf("%w: only the creator may cancel", domain.ErrForbidden)
		}
		if c.State != domain.CommunismStateActive {
			return domain.ErrPollClosed
		}

		cancelled, err = s.commies.SetState(txCtx, communismID, domain.CommunismStateCancelled)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("communism.Cancel: %w", err)
	}

	s.events.Emit(ctx, domain.NewEvent(domain.EventCommunismClosed, communismID))

	return cancelled, nil
}

// Settle splits the bill. The participant set is snapshotted under the
// row lock, each share costs floor(amount / total shares), and every
// participant pays their share count times that to the creator in the
// same atomic unit. The creator's own share is skipped, so any
// rounding remainder stays with the creator.
func (s *Service) Settle(ctx context.Context, communismID, callerID uuid.UUID) (*domain.Communism, error) {
	var settled *domain.Communism

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		c, err := s.commies.GetForUpdate(txCtx, communismID)
		if err != nil {
			return err
		}
		if c.CreatorID != callerID {
			return fmt.Errorf("%w: only the creator may settle", domain.ErrForbidden)
		}
		if c.State != domain.CommunismStateActive {
			return domain.ErrPollClosed
		}

		shares := c.TotalShares()
		if shares == 0 {
			return domain.ErrNoParticipants
		}
		perShare := c.Amount / shares

		for _, p := range c.Participants {
			if p.UserID == c.CreatorID || p.Quantity == 0 || perShare == 0 {
				continue
			}
			if _, err := s.ledger.TransferTx(txCtx, ledger.TransferInput{
				SenderID:   p.UserID,
				ReceiverID: c.CreatorID,
				Amount:     perShare * p.Quantity,
				Reason:     "communism: " + c.Description,
			}); err != nil {
				return fmt.Errorf("settle participant %s: %w", p.UserID, err)
			}
		}

		settled, err = s.commies.SetState(txCtx, communismID, domain.CommunismStateSettled)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("communism.Settle: %w", err)
	}

	s.log.InfoContext(ctx, "communism settled",
		slog.String("communism_id", communismID.String()),
		slog.String("creator_id", callerID.String()))

	s.events.Emit(ctx, domain.NewEvent(domain.EventCommunismClosed, communismID))

	return settled, nil
}

// Get returns one communism with its participants.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Communism, error) {
	c, err := s.commies.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("communism.Get: %w", err)
	}
	return c, nil
}

// List returns all communisms in the given state.
func (s *Service) List(ctx context.Context, state domain.CommunismState) ([]*domain.Communism, error) {
	if !state.IsValid() {
		return nil, fmt.Errorf("communism.List: %w", domain.NewValidationError("state", "unknown state"))
	}
	cs, err := s.commies.ListByState(ctx, state)
	if err != nil {
		return nil, fmt.Errorf("communism.List: %w", err)
	}
	return cs, nil
}
