package account

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/matekasse/matekasse-backend/internal/domain"
	"github.com/matekasse/matekasse-backend/pkg/ctxutil"
)

// AddAlias binds an existing account to the calling application under
// the given application-scoped identifier.
func (s *Service) AddAlias(ctx context.Context, userID uuid.UUID, appUserID string) (*domain.Alias, error) {
	appID, ok := ctxutil.ApplicationIDFromCtx(ctx)
	if !ok {
		return nil, fmt.Errorf("account.AddAlias: %w", domain.ErrUnknownApplication)
	}
	if appUserID == "" {
		return nil, fmt.Errorf("account.AddAlias: %w", domain.NewValidationError("app_user_id", "required"))
	}

	var created *domain.Alias

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.users.GetByID(txCtx, userID); err != nil {
			return err
		}

		a, err := s.users.CreateAlias(txCtx, &domain.Alias{
			ID:            uuid.New(),
			UserID:        userID,
			ApplicationID: appID,
			AppUserID:     appUserID,
		})
		if err != nil {
			return err
		}
		created = a
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("account.AddAlias: %w", err)
	}

	s.events.Emit(ctx, domain.NewEvent(domain.EventAliasCreated, created.ID))

	return created, nil
}

// DeleteAlias removes the binding between a user and an application.
// The last alias of a user cannot be removed, the account would become
// unreachable from every client.
func (s *Service) DeleteAlias(ctx context.Context, userID, applicationID uuid.UUID) error {
	var deletedID uuid.UUID

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		aliases, err := s.users.ListAliasesByUser(txCtx, userID)
		if err != nil {
			return err
		}

		var target *domain.Alias
		for _, a := range aliases {
			if a.ApplicationID == applicationID {
				target = a
				break
			}
		}
		if target == nil {
			return domain.ErrNotFound
		}
		if len(aliases) == 1 {
			return domain.ErrLastAlias
		}

		deletedID = target.ID
		return s.users.DeleteAlias(txCtx, target.ID)
	})
	if err != nil {
		return fmt.Errorf("account.DeleteAlias: %w", err)
	}

	s.log.InfoContext(ctx, "alias deleted",
		slog.String("user_id", userID.String()),
		slog.String("application_id", applicationID.String()))

	s.events.Emit(ctx, domain.NewEvent(domain.EventAliasDeleted, deletedID))

	return nil
}

// ResolveAlias maps an application-scoped identifier to the account it
// belongs to, in the scope of the calling application.
func (s *Service) ResolveAlias(ctx context.Context, appUserID string) (*domain.User, error) {
	appID, ok := ctxutil.ApplicationIDFromCtx(ctx)
	if !ok {
		return nil, fmt.Errorf("account.ResolveAlias: %w", domain.ErrUnknownApplication)
	}

	alias, err := s.users.GetAlias(ctx, appID, appUserID)
	if err != nil {
		return nil, fmt.Errorf("account.ResolveAlias: %w", err)
	}

	u, err := s.users.GetByID(ctx, alias.UserID)
	if err != nil {
		return nil, fmt.Errorf("account.ResolveAlias: %w", err)
	}
	return u, nil
}
