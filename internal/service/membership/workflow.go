package membership

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/matekasse/matekasse-backend/internal/domain"
	"github.com/matekasse/matekasse-backend/internal/service/voting"
)

// Request opens a membership poll for an external account. Each guest
// holds at most one open poll at a time.
func (s *Service) Request(ctx context.Context, creatorID uuid.UUID) (*domain.MembershipPoll, error) {
	var created *domain.MembershipPoll

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		creator, err := s.users.GetByID(txCtx, creatorID)
		if err != nil {
			return fmt.Errorf("load creator: %w", err)
		}
		if !creator.Active {
			return domain.ErrUserDisabled
		}
		if creator.Internal {
			return domain.ErrAlreadyInternal
		}

		p, err := s.polls.Create(txCtx, &domain.MembershipPoll{
			ID:        uuid.New(),
			CreatorID: creatorID,
		})
		if err != nil {
			if errors.Is(err, domain.ErrAlreadyExists) {
				return domain.ErrDuplicateActivePoll
			}
			return err
		}
		created = p
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("membership.Request: %w", err)
	}

	s.log.InfoContext(ctx, "membership poll opened",
		slog.String("poll_id", created.ID.String()),
		slog.String("creator_id", creatorID.String()))

	s.events.Emit(ctx, domain.NewEvent(domain.EventPollCreated, created.ID))

	return created, nil
}

// Vote casts or replaces a member's vote. Crossing the approval
// threshold promotes the creator in the same atomic unit as the poll
// transition; the voucher relation is cleared by the promotion.
func (s *Service) Vote(ctx context.Context, pollID, voterID uuid.UUID, approve bool) (*domain.MembershipPoll, error) {
	var (
		result *domain.MembershipPoll
		closed bool
	)

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		p, err := s.polls.GetForUpdate(txCtx, pollID)
		if err != nil {
			return err
		}
		if p.State.IsTerminal() {
			return domain.ErrPollClosed
		}
		if p.CreatorID == voterID {
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

		votes, outcome := s.engine.Cast(p.Votes, voterID, approve)
		if err := s.polls.UpsertVote(txCtx, pollID, voterID, approve); err != nil {
			return err
		}
		p.Votes = votes

		switch outcome {
		case voting.OutcomeAccepted:
			if _, err := s.users.Promote(txCtx, p.CreatorID); err != nil {
				return fmt.Errorf("promote creator: %w", err)
			}
			result, err = s.polls.SetState(txCtx, pollID, domain.PollStateApproved)
			if err != nil {
				return err
			}
			closed = true
		case voting.OutcomeDeclined:
			result, err = s.polls.SetState(txCtx, pollID, domain.PollStateRejected)
			if err != nil {
				return err
			}
			closed = true
		default:
			result = p
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("membership.Vote: %w", err)
	}

	if closed {
		s.log.InfoContext(ctx, "membership poll closed",
			slog.String("poll_id", pollID.String()),
			slog.String("state", result.State.String()))
		s.events.Emit(ctx, domain.NewEvent(domain.EventPollClosed, pollID))
		if result.State == domain.PollStateApproved {
			s.events.Emit(ctx, domain.NewEvent(domain.EventUserPromoted, result.CreatorID))
		}
	} else {
		s.events.Emit(ctx, domain.NewEvent(domain.EventPollUpdated, pollID))
	}

	return result, nil
}

// Retract removes a voter's vote from an open poll.
func (s *Service) Retract(ctx context.Context, pollID, voterID uuid.UUID) (*domain.MembershipPoll, error) {
	var result *domain.MembershipPoll

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		p, err := s.polls.GetForUpdate(txCtx, pollID)
		if err != nil {
			return err
		}
		if p.State.IsTerminal() {
			return domain.ErrPollClosed
		}

		votes, removed := s.engine.Retract(p.Votes, voterID)
		if !removed {
			return fmt.Errorf("vote: %w", domain.ErrNotFound)
		}
		if err := s.polls.DeleteVote(txCtx, pollID, voterID); err != nil {
			return err
		}

		p.Votes = votes
		result = p
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("membership.Retract: %w", err)
	}

	s.events.Emit(ctx, domain.NewEvent(domain.EventPollUpdated, pollID))

	return result, nil
}

// Get returns one poll with its votes.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.MembershipPoll, error) {
	p, err := s.polls.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("membership.Get: %w", err)
	}
	return p, nil
}

// List returns all polls in the given state.
func (s *Service) List(ctx context.Context, state domain.PollState) ([]*domain.MembershipPoll, error) {
	if !state.IsValid() {
		return nil, fmt.Errorf("membership.List: %w", domain.NewValidationError("state", "unknown state"))
	}
	polls, err := s.polls.ListByState(ctx, state)
	if err != nil {
		return nil, fmt.Errorf("membership.List: %w", err)
	}
	return polls, nil
}
