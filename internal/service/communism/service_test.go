package communism

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matekasse/matekasse-backend/internal/domain"
	"github.com/matekasse/matekasse-backend/internal/service/ledger"
)

// ===========================================================================
// Manual mocks (moq-style with func fields)
// ===========================================================================

type mockCommunismRepo struct {
	CreateFunc            func(ctx context.Context, c *domain.Communism) (*domain.Communism, error)
	GetByIDFunc           func(ctx context.Context, id uuid.UUID) (*domain.Communism, error)
	GetForUpdateFunc      func(ctx context.Context, id uuid.UUID) (*domain.Communism, error)
	ListByStateFunc       func(ctx context.Context, state domain.CommunismState) ([]*domain.Communism, error)
	SetStateFunc          func(ctx context.Context, id uuid.UUID, state domain.CommunismState) (*domain.Communism, error)
	SetParticipantFunc    func(ctx context.Context, communismID, userID uuid.UUID, quantity int64) error
	RemoveParticipantFunc func(ctx context.Context, communismID, userID uuid.UUID) error
}

func (m *mockCommunismRepo) Create(ctx context.Context, c *domain.Communism) (*domain.Communism, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, c)
	}
	c.State = domain.CommunismStateActive
	return c, nil
}

func (m *mockCommunismRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Communism, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockCommunismRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Communism, error) {
	if m.GetForUpdateFunc != nil {
		return m.GetForUpdateFunc(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockCommunismRepo) ListByState(ctx context.Context, state domain.CommunismState) ([]*domain.Communism, error) {
	if m.ListByStateFunc != nil {
		return m.ListByStateFunc(ctx, state)
	}
	return nil, nil
}

func (m *mockCommunismRepo) SetState(ctx context.Context, id uuid.UUID, state domain.CommunismState) (*domain.Communism, error) {
	if m.SetStateFunc != nil {
		return m.SetStateFunc(ctx, id, state)
	}
	return &domain.Communism{ID: id, State: state}, nil
}

func (m *mockCommunismRepo) SetParticipant(ctx context.Context, communismID, userID uuid.UUID, quantity int64) error {
	if m.SetParticipantFunc != nil {
		return m.SetParticipantFunc(ctx, communismID, userID, quantity)
	}
	return nil
}

func (m *mockCommunismRepo) RemoveParticipant(ctx context.Context, communismID, userID uuid.UUID) error {
	if m.RemoveParticipantFunc != nil {
		return m.RemoveParticipantFunc(ctx, communismID, userID)
	}
	return nil
}

type mockUserRepo struct {
	GetByIDFunc func(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return &domain.User{ID: id, Active: true, Internal: true}, nil
}

type mockTransferrer struct {
	TransferTxFunc func(ctx context.Context, in ledger.TransferInput) (*domain.Transaction, error)
	calls          []ledger.TransferInput
}

func (m *mockTransferrer) TransferTx(ctx context.Context, in ledger.TransferInput) (*domain.Transaction, error) {
	m.calls = append(m.calls, in)
	if m.TransferTxFunc != nil {
		return m.TransferTxFunc(ctx, in)
	}
	return &domain.Transaction{ID: uuid.New(), SenderID: in.SenderID, ReceiverID: in.ReceiverID, Amount: in.Amount}, nil
}

type mockTxManager struct {
	RunInTxFunc func(ctx context.Context, fn func(context.Context) error) error
}

func (m *mockTxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.RunInTxFunc != nil {
		return m.RunInTxFunc(ctx, fn)
	}
	return fn(ctx)
}

type mockNotifier struct {
	events []domain.Event
}

func (m *mockNotifier) Emit(_ context.Context, ev domain.Event) {
	m.events = append(m.events, ev)
}

// ===========================================================================
// Test helpers
// ===========================================================================

type testDeps struct {
	commies   *mockCommunismRepo
	users     *mockUserRepo
	transfers *mockTransferrer
	tx        *mockTxManager
	events    *mockNotifier
}

func newTestService() (*Service, *testDeps) {
	deps := &testDeps{
		commies:   &mockCommunismRepo{},
		users:     &mockUserRepo{},
		transfers: &mockTransferrer{},
		tx:        &mockTxManager{},
		events:    &mockNotifier{},
	}
	svc := NewService(slog.Default(), deps.commies, deps.users, deps.transfers, deps.tx, deps.events)
	return svc, deps
}

func activeCommunism(creatorID uuid.UUID, amount int64, participants ...domain.CommunismParticipant) *domain.Communism {
	return &domain.Communism{
		ID:           uuid.New(),
		CreatorID:    creatorID,
		Amount:       amount,
		Description:  "team dinner",
		State:        domain.CommunismStateActive,
		Participants: participants,
	}
}

// ===========================================================================
// Start tests
// ===========================================================================

func TestService_Start_Success(t *testing.T) {
	t.Parallel()

	creatorID := uuid.New()
	svc, deps := newTestService()

	var joined []uuid.UUID
	deps.commies.SetParticipantFunc = func(_ context.Context, _, userID uuid.UUID, quantity int64) error {
		assert.Equal(t, int64(1), quantity)
		joined = append(joined, userID)
		return nil
	}

	c, err := svc.Start(context.Background(), creatorID, 900, "dinner")

	require.NoError(t, err)
	assert.Equal(t, creatorID, c.CreatorID)
	assert.Equal(t, domain.CommunismStateActive, c.State)
	assert.Equal(t, []uuid.UUID{creatorID}, joined)
	require.Len(t, deps.events.events, 1)
	assert.Equal(t, domain.EventCommunismCreated, deps.events.events[0].Type)
}

func TestService_Start_VouchedGuestMayStart(t *testing.T) {
	t.Parallel()

	voucherID := uuid.New()
	svc, deps := newTestService()
	deps.users.GetByIDFunc = func(_ context.Context, id uuid.UUID) (*domain.User, error) {
		return &domain.User{ID: id, Active: true, Internal: false, VoucherID: &voucherID}, nil
	}

	_, err := svc.Start(context.Background(), uuid.New(), 900, "dinner")

	require.NoError(t, err)
}

func TestService_Start_UnvouchedGuestForbidden(t *testing.T) {
	t.Parallel()

	svc, deps := newTestService()
	deps.users.GetByIDFunc = func(_ context.Context, id uuid.UUID) (*domain.User, error) {
		return &domain.User{ID: id, Active: true, Internal: false}, nil
	}

	_, err := svc.Start(context.Background(), uuid.New(), 900, "dinner")

	require.ErrorIs(t, err, domain.ErrForbidden)
}

func TestService_Start_DuplicateActive(t *testing.T) {
	t.Parallel()

	svc, deps := newTestService()
	deps.commies.CreateFunc = func(_ context.Context, _ *domain.Communism) (*domain.Communism, error) {
		return nil, domain.ErrAlreadyExists
	}

	_, err := svc.Start(context.Background(), uuid.New(), 900, "dinner")

	require.ErrorIs(t, err, domain.ErrDuplicateActiveCommune)
}

func TestService_Start_InvalidInput(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService()

	_, err := svc.Start(context.Background(), uuid.New(), 0, "dinner")
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.Start(context.Background(), uuid.New(), 900, "")
	require.ErrorIs(t, err, domain.ErrValidation)
}

// ===========================================================================
// Join / Leave tests
// ===========================================================================

func TestService_Join_Success(t *testing.T) {
	t.Parallel()

	creatorID := uuid.New()
	userID := uuid.New()
	c := activeCommunism(creatorID, 900, domain.CommunismParticipant{UserID: creatorID, Quantity: 1})

	svc, deps := newTestService()
	deps.commies.GetForUpdateFunc = func(_ context.Context, _ uuid.UUID) (*domain.Communism, error) {
		return c, nil
	}
	deps.commies.GetByIDFunc = func(_ context.Context, id uuid.UUID) (*domain.Communism, error) {
		return c, nil
	}

	var set struct {
		user uuid.UUID
		qty  int64
	}
	deps.commies.SetParticipantFunc = func(_ context.Context, _, userID uuid.UUID, quantity int64) error {
		set.user, set.qty = userID, quantity
		return nil
	}

	_, err := svc.Join(context.Background(), c.ID, userID, 3)

	require.NoError(t, err)
	assert.Equal(t, userID, set.user)
	assert.Equal(t, int64(3), set.qty)
	require.Len(t, deps.events.events, 1)
	assert.Equal(t, domain.EventCommunismUpdated, deps.events.events[0].Type)
}

func TestService_Join_InvalidQuantity(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService()

	_, err := svc.Join(context.Background(), uuid.New(), uuid.New(), 0)

	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestService_Join_ClosedCommunism(t *testing.T) {
	t.Parallel()

	c := activeCommunism(uuid.New(), 900)
	c.State = domain.CommunismStateSettled

	svc, deps := newTestService()
	deps.commies.GetForUpdateFunc = func(_ context.Context, _ uuid.UUID) (*domain.Communism, error) {
		return c, nil
	}

	_, err := svc.Join(context.Background(), c.ID, uuid.New(), 1)

	require.ErrorIs(t, err, domain.ErrPollClosed)
}

func TestService_Leave_NotParticipating(t *testing.T) {
	t.Parallel()

	c := activeCommunism(uuid.New(), 900)

	svc, deps := newTestService()
	deps.commies.GetForUpdateFunc = func(_ context.Context, _ uuid.UUID) (*domain.Communism, error) {
		return c, nil
	}

	_, err := svc.Leave(context.Background(), c.ID, uuid.New())

	require.ErrorIs(t, err, domain.ErrNotParticipating)
}

// ===========================================================================
// Settle tests
// ===========================================================================

func TestService_Settle_SplitsByQuantity(t *testing.T) {
	t.Parallel()

	creatorID := uuid.New()
	p1 := uuid.New()
	p2 := uuid.New()

	// 100 across 4 shares (1 + 3): per share 25, p1 pays 25, p2 pays 75.
	// The creator holds no share here, so the full amount comes back.
	c := activeCommunism(creatorID, 100,
		domain.CommunismParticipant{UserID: p1, Quantity: 1},
		domain.CommunismParticipant{UserID: p2, Quantity: 3},
	)

	svc, deps := newTestService()
	deps.commies.GetForUpdateFunc = func(_ context.Context, _ uuid.UUID) (*domain.Communism, error) {
		return c, nil
	}

	got, err := svc.Settle(context.Background(), c.ID, creatorID)

	require.NoError(t, err)
	assert.Equal(t, domain.CommunismStateSettled, got.State)

	require.Len(t, deps.transfers.calls, 2)
	byUser := map[uuid.UUID]int64{}
	for _, call := range deps.transfers.calls {
		assert.Equal(t, creatorID, call.ReceiverID)
		byUser[call.SenderID] = call.Amount
	}
	assert.Equal(t, int64(25), byUser[p1])
	assert.Equal(t, int64(75), byUser[p2])
}

func TestService_Settle_RoundingLossStaysWithCreator(t *testing.T) {
	t.Parallel()

	creatorID := uuid.New()
	participants := []domain.CommunismParticipant{
		{UserID: creatorID, Quantity: 1},
		{UserID: uuid.New(), Quantity: 1},
		{UserID: uuid.New(), Quantity: 1},
		{UserID: uuid.New(), Quantity: 1},
	}

	// 101 across 4 shares: per share 25. Three participants pay 25
	// each, the creator's share is skipped, 26 stays unrecovered.
	c := activeCommunism(creatorID, 101, participants...)

	svc, deps := newTestService()
	deps.commies.GetForUpdateFunc = func(_ context.Context, _ uuid.UUID) (*domain.Communism, error) {
		return c, nil
	}

	_, err := svc.Settle(context.Background(), c.ID, creatorID)

	require.NoError(t, err)
	require.Len(t, deps.transfers.calls, 3)

	var recovered int64
	for _, call := range deps.transfers.calls {
		assert.NotEqual(t, creatorID, call.SenderID)
		recovered += call.Amount
	}
	assert.Equal(t, int64(75), recovered)
}

func TestService_Settle_NoParticipants(t *testing.T) {
	t.Parallel()

	creatorID := uuid.New()
	c := activeCommunism(creatorID, 100)

	svc, deps := newTestService()
	deps.commies.GetForUpdateFunc = func(_ context.Context, _ uuid.UUID) (*domain.Communism, error) {
		return c, nil
	}

	_, err := svc.Settle(context.Background(), c.ID, creatorID)

	require.ErrorIs(t, err, domain.ErrNoParticipants)
	assert.Empty(t, deps.transfers.calls)
}

func TestService_Settle_NotCreator(t *testing.T) {
	t.Parallel()

	c := activeCommunism(uuid.New(), 100, domain.CommunismParticipant{UserID: uuid.New(), Quantity: 1})

	svc, deps := newTestService()
	deps.commies.GetForUpdateFunc = func(_ context.Context, _ uuid.UUID) (*domain.Communism, error) {
		return c, nil
	}

	_, err := svc.Settle(context.Background(), c.ID, uuid.New())

	require.ErrorIs(t, err, domain.ErrForbidden)
}

func TestService_Settle_AlreadyClosed(t *testing.T) {
	t.Parallel()

	creatorID := uuid.New()
	c := activeCommunism(creatorID, 100, domain.CommunismParticipant{UserID: uuid.New(), Quantity: 1})
	c.State = domain.CommunismStateCancelled

	svc, deps := newTestService()
	deps.commies.GetForUpdateFunc = func(_ context.Context, _ uuid.UUID) (*domain.Communism, error) {
		return c, nil
	}

	_, err := svc.Settle(context.Background(), c.ID, creatorID)

	require.ErrorIs(t, err, domain.ErrPollClosed)
}

// ===========================================================================
// Cancel tests
// ===========================================================================

func TestService_Cancel_Success(t *testing.T) {
	t.Parallel()

	creatorID := uuid.New()
	c := activeCommunism(creatorID, 100)

	svc, deps := newTestService()
	deps.commies.GetForUpdateFunc = func(_ context.Context, _ uuid.UUID) (*domain.Communism, error) {
		return c, nil
	}

	got, err := svc.Cancel(context.Background(), c.ID, creatorID)

	require.NoError(t, err)
	assert.Equal(t, domain.CommunismStateCancelled, got.State)
	assert.Empty(t, deps.transfers.calls)
}
