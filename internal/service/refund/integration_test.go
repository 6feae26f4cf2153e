package refund_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/matekasse/matekasse-backend/internal/adapter/postgres"
	refundrepo "github.com/matekasse/matekasse-backend/internal/adapter/postgres/refund"
	"github.com/matekasse/matekasse-backend/internal/adapter/postgres/testhelper"
	transactionrepo "github.com/matekasse/matekasse-backend/internal/adapter/postgres/transaction"
	userrepo "github.com/matekasse/matekasse-backend/internal/adapter/postgres/user"
	"github.com/matekasse/matekasse-backend/internal/domain"
	"github.com/matekasse/matekasse-backend/internal/service/ledger"
	"github.com/matekasse/matekasse-backend/internal/service/refund"
	"github.com/matekasse/matekasse-backend/internal/service/voting"
)

type noopNotifier struct{}

func (noopNotifier) Emit(context.Context, domain.Event) {}

// Two approving votes race on a refund whose threshold is one vote.
// The row lock taken before tallying must serialize them: exactly one
// vote closes the ballot and books the payout, the other sees the
// terminal state.
func TestService_Vote_ConcurrentCrossingVotes(t *testing.T) {
	t.Parallel()
	pool := testhelper.SetupTestDB(t)
	ctx := context.Background()

	users := userrepo.New(pool)
	transactions := transactionrepo.New(pool)
	refunds := refundrepo.New(pool)
	txm := postgres.NewTxManager(pool)

	communityID := uuid.MustParse("00000000-0000-0000-0000-000000000001")

	ledgerService := ledger.NewService(slog.Default(), users, transactions, txm, noopNotifier{},
		ledger.Settings{MaxAmount: 100000})
	svc := refund.NewService(slog.Default(), refunds, users, ledgerService,
		voting.NewEngine(1), txm, noopNotifier{},
		refund.Settings{CommunityID: communityID})

	creator := testhelper.SeedUser(t, pool)
	voter1 := testhelper.SeedUser(t, pool)
	voter2 := testhelper.SeedUser(t, pool)

	created, err := svc.Start(ctx, creator.ID, 500, "pizza for the meetup")
	if err != nil {
		t.Fatalf("Start: unexpected error: %v", err)
	}

	start := make(chan struct{})
	var wg sync.WaitGroup
	voteErrs := make([]error, 2)
	for i, voterID := range []uuid.UUID{voter1.ID, voter2.ID} {
		wg.Add(1)
		go func(i int, voterID uuid.UUID) {
			defer wg.Done()
			<-start
			_, voteErrs[i] = svc.Vote(ctx, created.ID, voterID, true)
		}(i, voterID)
	}
	close(start)
	wg.Wait()

	var closedBallot, wins int
	for _, err := range voteErrs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, domain.ErrPollClosed):
			closedBallot++
		default:
			t.Fatalf("Vote: unexpected error: %v", err)
		}
	}
	if wins != 1 || closedBallot != 1 {
		t.Fatalf("expected one winning vote and one ErrPollClosed, got %d wins, %d closed (errs: %v)",
			wins, closedBallot, voteErrs)
	}

	final, err := svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get: unexpected error: %v", err)
	}
	if final.State != domain.RefundStateAccepted {
		t.Errorf("State = %s, want %s", final.State, domain.RefundStateAccepted)
	}
	if final.TransactionID == nil {
		t.Error("expected the payout transaction to be recorded on the refund")
	}

	var payouts int
	err = pool.QueryRow(ctx,
		`SELECT count(*) FROM transactions WHERE sender_id = $1 AND receiver_id = $2`,
		communityID, creator.ID,
	).Scan(&payouts)
	if err != nil {
		t.Fatalf("count payouts: %v", err)
	}
	if payouts != 1 {
		t.Errorf("payout transactions = %d, want exactly 1", payouts)
	}
}
