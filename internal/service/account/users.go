package account

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/matekasse/matekasse-backend/internal/domain"
	"github.com/matekasse/matekasse-backend/pkg/ctxutil"
)

// CreateUserInput describes a new account created on behalf of the
// calling application.
type CreateUserInput struct {
	Name      *string
	AppUserID string
}

// Validate checks the input and normalizes the optional display name.
func (in *CreateUserInput) Validate() error {
	if in.AppUserID == "" {
		return domain.NewValidationError("app_user_id", "required")
	}
	if in.Name != nil {
		name := domain.NormalizeName(*in.Name)
		if name == "" {
			return domain.NewValidationError("name", "must not be blank")
		}
		in.Name = &name
	}
	return nil
}

// CreateUser creates an external account with a zero balance and binds
// it to the calling application via an alias, both in one atomic unit.
func (s *Service) CreateUser(ctx context.Context, in CreateUserInput) (*domain.User, error) {
	appID, ok := ctxutil.ApplicationIDFromCtx(ctx)
	if !ok {
		return nil, fmt.Errorf("account.CreateUser: %w", domain.ErrUnknownApplication)
	}
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("account.CreateUser: %w", err)
	}

	var created *domain.User

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.apps.GetByID(txCtx, appID); err != nil {
			return domain.ErrUnknownApplication
		}

		u, err := s.users.Create(txCtx, &domain.User{
			ID:       uuid.New(),
			Name:     in.Name,
			Balance:  0,
			Active:   true,
			Internal: false,
		})
		if err != nil {
			return fmt.Errorf("create user: %w", err)
		}

		if _, err := s.users.CreateAlias(txCtx, &domain.Alias{
			ID:            uuid.New(),
			UserID:        u.ID,
			ApplicationID: appID,
			AppUserID:     in.AppUserID,
		}); err != nil {
			return fmt.Errorf("create alias: %w", err)
		}

		created = u
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("account.CreateUser: %w", err)
	}

	s.log.InfoContext(ctx, "user created",
		slog.String("user_id", created.ID.String()),
		slog.String("application_id", appID.String()))

	s.events.Emit(ctx, domain.NewEvent(domain.EventUserCreated, created.ID))

	return created, nil
}

// GetUser returns one account by id.
func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("account.GetUser: %w", err)
	}
	return u, nil
}

// ListUsers returns all accounts, optionally only active ones.
func (s *Service) ListUsers(ctx context.Context, activeOnly bool) ([]*domain.User, error) {
	users, err := s.users.List(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("account.ListUsers: %w", err)
	}
	return users, nil
}

// UpdateName changes an account's display name.
func (s *Service) UpdateName(ctx context.Context, id uuid.UUID, name *string) (*domain.User, error) {
	if name != nil {
		n := domain.NormalizeName(*name)
		if n == "" {
			return nil, fmt.Errorf("account.UpdateName: %w", domain.NewValidationError("name", "must not be blank"))
		}
		name = &n
	}

	u, err := s.users.UpdateName(ctx, id, name)
	if err != nil {
		return nil, fmt.Errorf("account.UpdateName: %w", err)
	}
	return u, nil
}

// DisableUser deactivates an account. The row and its transaction
// history stay, the account just stops taking part in anything.
func (s *Service) DisableUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var disabled *domain.User

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		u, err := s.users.GetForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		if !u.Active {
			return domain.ErrUserDisabled
		}

		disabled, err = s.users.Disable(txCtx, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("account.DisableUser: %w", err)
	}

	s.log.InfoContext(ctx, "user disabled", slog.String("user_id", id.String()))
	s.events.Emit(ctx, domain.NewEvent(domain.EventUserDisabled, id))

	return disabled, nil
}
