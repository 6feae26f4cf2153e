package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/matekasse/matekasse-backend/internal/adapter/callback"
	"github.com/matekasse/matekasse-backend/internal/adapter/postgres"
	applicationrepo "github.com/matekasse/matekasse-backend/internal/adapter/postgres/application"
	communismrepo "github.com/matekasse/matekasse-backend/internal/adapter/postgres/communism"
	consumablerepo "github.com/matekasse/matekasse-backend/internal/adapter/postgres/consumable"
	pollrepo "github.com/matekasse/matekasse-backend/internal/adapter/postgres/poll"
	refundrepo "github.com/matekasse/matekasse-backend/internal/adapter/postgres/refund"
	transactionrepo "github.com/matekasse/matekasse-backend/internal/adapter/postgres/transaction"
	userrepo "github.com/matekasse/matekasse-backend/internal/adapter/postgres/user"
	"github.com/matekasse/matekasse-backend/internal/config"
	"github.com/matekasse/matekasse-backend/internal/service/account"
	"github.com/matekasse/matekasse-backend/internal/service/communism"
	"github.com/matekasse/matekasse-backend/internal/service/consumable"
	"github.com/matekasse/matekasse-backend/internal/service/ledger"
	"github.com/matekasse/matekasse-backend/internal/service/membership"
	"github.com/matekasse/matekasse-backend/internal/service/refund"
	"github.com/matekasse/matekasse-backend/internal/service/voting"
	"github.com/matekasse/matekasse-backend/internal/transport/middleware"
	"github.com/matekasse/matekasse-backend/internal/transport/rest"
	"github.com/matekasse/matekasse-backend/migrations"
)

// Run is the application entry point. It loads configuration, connects
// to the database, wires services and the HTTP server, and blocks
// until ctx is cancelled.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)

	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
	)

	// 1. Database.
	if cfg.Database.Migrate {
		if err := runMigrations(ctx, cfg.Database.DSN); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	// 2. Repositories.
	txm := postgres.NewTxManager(pool)
	apps := applicationrepo.New(pool)
	users := userrepo.New(pool)
	transactions := transactionrepo.New(pool)
	refunds := refundrepo.New(pool)
	polls := pollrepo.New(pool)
	communisms := communismrepo.New(pool)
	consumables := consumablerepo.New(pool)

	// 3. Outgoing callback workers.
	notifier := callback.NewNotifier(logger, apps, cfg.Callback)
	defer notifier.Close()

	// 4. Services.
	communityID := cfg.Ledger.CommunityID()

	ledgerService := ledger.NewService(logger, users, transactions, txm, notifier,
		ledger.Settings{MaxAmount: cfg.Ledger.MaxTransactionAmount})

	accountService := account.NewService(logger, users, apps, txm, notifier)

	refundService := refund.NewService(logger, refunds, users, ledgerService,
		voting.NewEngine(cfg.Votes.RefundDelta), txm, notifier,
		refund.Settings{CommunityID: communityID})

	membershipService := membership.NewService(logger, polls, users,
		voting.NewEngine(cfg.Votes.PromoteDelta), txm, notifier)

	communismService := communism.NewService(logger, communisms, users, ledgerService, txm, notifier)

	consumableService := consumable.NewService(logger, consumables, ledgerService, txm,
		consumable.Settings{CommunityID: communityID})

	// 5. Middleware chain for the signed API surface.
	rateLimiter := middleware.NewRateLimiter(time.Minute)
	defer rateLimiter.Stop()

	authed := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID,
		middleware.Logger(logger),
		rateLimiter.Limit(cfg.Server.RateLimit),
		middleware.Auth(apps),
	)

	// 6. Router.
	router := rest.NewRouter(rest.Handlers{
		Health:      rest.NewHealthHandler(pool, BuildVersion()),
		Users:       rest.NewUserHandler(accountService, logger),
		Ledger:      rest.NewTransactionHandler(ledgerService, logger),
		Refunds:     rest.NewRefundHandler(refundService, logger),
		Membership:  rest.NewMembershipHandler(membershipService, logger),
		Communisms:  rest.NewCommunismHandler(communismService, logger),
		Consumables: rest.NewConsumableHandler(consumableService, logger),
	}, authed)

	// 7. HTTP server with graceful shutdown.
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	return nil
}

// runMigrations applies pending goose migrations. goose requires a
// *sql.DB, so a separate stdlib connection is opened just for this.
func runMigrations(ctx context.Context, dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("sql.Open: %w", err)
	}
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return fmt.Errorf("goose new provider: %w", err)
	}

	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}

	return nil
}
