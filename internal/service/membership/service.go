// Package membership implements the promotion workflow: a guest asks
// to become a full member and the existing members vote on it.
package membership

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/matekasse/matekasse-backend/internal/domain"
	"github.com/matekasse/matekasse-backend/internal/service/voting"
)

// pollRepo defines the poll repository interface needed by the workflow.
type pollRepo interface {
	Create(ctx context.Context, p *domain.MembershipPoll) (*domain.MembershipPoll, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.MembershipPoll, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.MembershipPoll, error)
	ListByState(ctx context.Context, state domain.PollState) ([]*domain.MembershipPoll, error)
	SetState(ctx context.Context, id uuid.UUID, state domain.PollState) (*domain.MembershipPoll, error)
	UpsertVote(ctx context.Context, pollID, voterID uuid.UUID, approve bool) error
	DeleteVote(ctx context.Context, pollID, voterID uuid.UUID) error
}

// userRepo defines the user repository interface needed by the workflow.
type userRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	Promote(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// txManager defines the transaction manager interface needed by the workflow.
type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// notifier delivers events to registered application callbacks.
type notifier interface {
	Emit(ctx context.Context, ev domain.Event)
}

// Service implements the membership poll workflow.
type Service struct {
	log    *slog.Logger
	polls  pollRepo
	users  userRepo
	engine voting.Engine
	tx     txManager
	events notifier
}

// NewService creates a new membership service instance.
func NewService(
	logger *slog.Logger,
	polls pollRepo,
	users userRepo,
	engine voting.Engine,
	tx txManager,
	events notifier,
) *Service {
	return &Service{
		log:    logger.With("service", "membership"),
		polls:  polls,
		users:  users,
		engine: engine,
		tx:     tx,
		events: events,
	}
}
