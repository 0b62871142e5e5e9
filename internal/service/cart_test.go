package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/repo/repotest"
	"github.com/Skotchmaster/storefront/pkg/keylock"
)

// memRepo keeps lines in a map and sleeps between read and write so that
// unserialized callers lose updates.
type memRepo struct {
	mu     sync.Mutex
	lines  map[string]*models.CartLine
	writes int
	gap    time.Duration
	err    error
}

func newMemRepo() *memRepo {
	return &memRepo{lines: map[string]*models.CartLine{}}
}

func (m *memRepo) UpsertCartLine(ctx context.Context, userID, productID string, delta int64, at time.Time) (*models.CartLine, error) {
	return m.AccumulateCartLine(ctx, userID, productID, delta, at)
}

func (m *memRepo) AccumulateCartLine(ctx context.Context, userID, productID string, delta int64, at time.Time) (*models.CartLine, error) {
	if m.err != nil {
		return nil, m.err
	}
	key := userID + "/" + productID

	m.mu.Lock()
	var current int64
	if l, ok := m.lines[key]; ok {
		current = l.Quantity
	}
	m.mu.Unlock()

	select {
	case <-time.After(m.gap):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	l := &models.CartLine{ID: key, UserID: userID, ProductID: productID, Quantity: current + delta, UpdatedAt: at}
	m.lines[key] = l
	m.writes++
	out := *l
	return &out, nil
}

func (m *memRepo) FindCartLines(ctx context.Context, userID, productID string) ([]models.CartLine, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.lines[userID+"/"+productID]; ok {
		return []models.CartLine{*l}, nil
	}
	return nil, nil
}

func (m *memRepo) ListCartItems(ctx context.Context, userID string) ([]models.CartItemView, error) {
	return nil, m.err
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []CartLineUpserted
	keys   []string
	err    error
}

func (p *recordingPublisher) PublishEvent(ctx context.Context, topic, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event.(CartLineUpserted))
	p.keys = append(p.keys, key)
	return p.err
}

func TestCartService_Upsert_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		userID    string
		productID string
		delta     int64
	}{
		{name: "empty user", userID: "", productID: "p1", delta: 1},
		{name: "blank user", userID: "   ", productID: "p1", delta: 1},
		{name: "empty product", userID: "u1", productID: "", delta: 1},
		{name: "too long product", userID: "u1", productID: strings.Repeat("x", MaxIDLength+1), delta: 1},
		{name: "zero delta", userID: "u1", productID: "p1", delta: 0},
		{name: "negative delta", userID: "u1", productID: "p1", delta: -3},
		{name: "delta above maximum", userID: "u1", productID: "p1", delta: models.MaxQuantity + 1},
		{name: "max int64 delta", userID: "u1", productID: "p1", delta: math.MaxInt64},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := newMemRepo()
			pub := &recordingPublisher{}
			svc := &CartService{Repo: r, Atomic: true, Publisher: pub}

			line, err := svc.Upsert(context.Background(), tt.userID, tt.productID, tt.delta)
			require.ErrorIs(t, err, ErrInvalidArgument)
			assert.Nil(t, line)
			assert.Equal(t, KindInvalidArgument, Kind(err))
			assert.Zero(t, r.writes)
			assert.Empty(t, pub.events)
		})
	}
}

func TestCartService_Upsert_AccumulatesEndToEnd(t *testing.T) {
	t.Parallel()

	modes := []struct {
		name   string
		atomic bool
		open   func(*testing.T) *repo.GormRepo
	}{
		{name: "atomic", atomic: true, open: repotest.NewRepo},
		{name: "locked", atomic: false, open: repotest.NewLegacyRepo},
	}

	for _, m := range modes {
		m := m
		t.Run(m.name, func(t *testing.T) {
			t.Parallel()

			svc := &CartService{Repo: m.open(t), Atomic: m.atomic, Locker: keylock.NewMemoryLocker()}
			ctx := context.Background()

			first, err := svc.Upsert(ctx, "u1", "p1", 2)
			require.NoError(t, err)
			assert.EqualValues(t, 2, first.Quantity)

			second, err := svc.Upsert(ctx, "u1", "p1", 3)
			require.NoError(t, err)
			assert.Equal(t, first.ID, second.ID)
			assert.EqualValues(t, 5, second.Quantity)
			assert.False(t, second.UpdatedAt.Before(first.UpdatedAt))

			got, err := svc.GetCartLine(ctx, "u1", "p1")
			require.NoError(t, err)
			assert.Equal(t, second.ID, got.ID)
			assert.EqualValues(t, 5, got.Quantity)

			again, err := svc.GetCartLine(ctx, "u1", "p1")
			require.NoError(t, err)
			assert.Equal(t, got, again)
		})
	}
}

func TestCartService_Upsert_ConcurrentSamePair(t *testing.T) {
	t.Parallel()

	modes := []struct {
		name   string
		atomic bool
		open   func(*testing.T) *repo.GormRepo
	}{
		{name: "atomic", atomic: true, open: repotest.NewRepo},
		{name: "locked", atomic: false, open: repotest.NewLegacyRepo},
	}

	for _, m := range modes {
		m := m
		t.Run(m.name, func(t *testing.T) {
			t.Parallel()

			r := m.open(t)
			svc := &CartService{Repo: r, Atomic: m.atomic, Locker: keylock.NewMemoryLocker()}

			var wg sync.WaitGroup
			for i := 0; i < 2; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, err := svc.Upsert(context.Background(), "u1", "p1", 1)
					assert.NoError(t, err)
				}()
			}
			wg.Wait()

			lines, err := r.FindCartLines(context.Background(), "u1", "p1")
			require.NoError(t, err)
			require.Len(t, lines, 1)
			assert.EqualValues(t, 2, lines[0].Quantity)
		})
	}
}

func TestCartService_LockedMode_SerializesReadModifyWrite(t *testing.T) {
	t.Parallel()

	r := newMemRepo()
	r.gap = 20 * time.Millisecond
	svc := &CartService{Repo: r, Locker: keylock.NewMemoryLocker()}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Upsert(context.Background(), "u1", "p1", 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	line, err := svc.GetCartLine(context.Background(), "u1", "p1")
	require.NoError(t, err)
	assert.EqualValues(t, 5, line.Quantity)
	assert.Equal(t, 5, r.writes)
}

func TestCartService_LockedMode_RequiresLocker(t *testing.T) {
	t.Parallel()

	r := newMemRepo()
	svc := &CartService{Repo: r}

	_, err := svc.Upsert(context.Background(), "u1", "p1", 1)
	require.Error(t, err)
	assert.Zero(t, r.writes)
}

func TestCartService_Upsert_DeadlineIsStorageUnavailable(t *testing.T) {
	t.Parallel()

	r := newMemRepo()
	r.gap = time.Second
	svc := &CartService{Repo: r, Atomic: true}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := svc.Upsert(ctx, "u1", "p1", 1)
	require.ErrorIs(t, err, ErrStorageUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, r.writes)
}

func TestCartService_Upsert_LockTimeoutIsStorageUnavailable(t *testing.T) {
	t.Parallel()

	r := newMemRepo()
	locker := keylock.NewMemoryLocker()
	svc := &CartService{Repo: r, Locker: locker}

	unlock, err := locker.Lock(context.Background(), lockKey("u1", "p1"))
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = svc.Upsert(ctx, "u1", "p1", 1)
	require.ErrorIs(t, err, ErrStorageUnavailable)
	assert.ErrorIs(t, err, keylock.ErrLockTimeout)
	assert.Zero(t, r.writes)
}

func TestCartService_Upsert_ColonIDsDoNotShareLock(t *testing.T) {
	t.Parallel()

	assert.NotEqual(t, lockKey("a:b", "c"), lockKey("a", "b:c"))

	r := newMemRepo()
	locker := keylock.NewMemoryLocker()
	svc := &CartService{Repo: r, Locker: locker}

	unlock, err := locker.Lock(context.Background(), lockKey("a:b", "c"))
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	line, err := svc.Upsert(ctx, "a", "b:c", 1)
	require.NoError(t, err)
	assert.EqualValues(t, 1, line.Quantity)
}

func TestCartService_Upsert_QuantityOverflowIsInvalidArgument(t *testing.T) {
	t.Parallel()

	modes := []struct {
		name   string
		atomic bool
		open   func(*testing.T) *repo.GormRepo
	}{
		{name: "atomic", atomic: true, open: repotest.NewRepo},
		{name: "locked", atomic: false, open: repotest.NewLegacyRepo},
	}

	for _, m := range modes {
		m := m
		t.Run(m.name, func(t *testing.T) {
			t.Parallel()

			r := m.open(t)
			svc := &CartService{Repo: r, Atomic: m.atomic, Locker: keylock.NewMemoryLocker()}
			ctx := context.Background()

			_, err := svc.Upsert(ctx, "u1", "p1", models.MaxQuantity)
			require.NoError(t, err)

			_, err = svc.Upsert(ctx, "u1", "p1", 1)
			require.ErrorIs(t, err, ErrInvalidArgument)
			assert.Equal(t, KindInvalidArgument, Kind(err))

			line, err := svc.GetCartLine(ctx, "u1", "p1")
			require.NoError(t, err)
			assert.EqualValues(t, models.MaxQuantity, line.Quantity)
		})
	}
}

func TestCartService_Upsert_StorageErrorPropagates(t *testing.T) {
	t.Parallel()

	r := newMemRepo()
	r.err = errors.New("connection refused")
	svc := &CartService{Repo: r, Atomic: true}

	_, err := svc.Upsert(context.Background(), "u1", "p1", 1)
	require.ErrorIs(t, err, ErrStorageUnavailable)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, KindStorageUnavailable, Kind(err))
}

func TestCartService_Duplicates(t *testing.T) {
	t.Parallel()

	r := repotest.NewLegacyRepo(t)
	now := time.Now().UTC()
	require.NoError(t, r.DB.Create(&models.CartLine{UserID: "u1", ProductID: "p1", Quantity: 1, UpdatedAt: now}).Error)
	require.NoError(t, r.DB.Create(&models.CartLine{UserID: "u1", ProductID: "p1", Quantity: 2, UpdatedAt: now}).Error)

	pub := &recordingPublisher{}
	svc := &CartService{Repo: r, Locker: keylock.NewMemoryLocker(), Publisher: pub}
	ctx := context.Background()

	_, err := svc.Upsert(ctx, "u1", "p1", 1)
	require.ErrorIs(t, err, ErrDataIntegrity)
	assert.Equal(t, KindDataIntegrity, Kind(err))
	assert.Empty(t, pub.events)

	_, err = svc.GetCartLine(ctx, "u1", "p1")
	require.ErrorIs(t, err, ErrDataIntegrity)

	var total int64
	require.NoError(t, r.DB.Model(&models.CartLine{}).Select("SUM(quantity)").Scan(&total).Error)
	assert.EqualValues(t, 3, total)
}

func TestCartService_GetCartLine_NotFound(t *testing.T) {
	t.Parallel()

	svc := &CartService{Repo: repotest.NewRepo(t), Atomic: true}

	_, err := svc.GetCartLine(context.Background(), "u1", "missing")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, KindNotFound, Kind(err))
}

func TestCartService_PublishesEvent(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	pub := &recordingPublisher{}
	svc := &CartService{
		Repo:      newMemRepo(),
		Atomic:    true,
		Publisher: pub,
		Topic:     "cart_events",
		Now:       func() time.Time { return at },
	}

	line, err := svc.Upsert(context.Background(), "u1", "p1", 4)
	require.NoError(t, err)

	require.Len(t, pub.events, 1)
	ev := pub.events[0]
	assert.Equal(t, EventCartLineUpserted, ev.Type)
	assert.Equal(t, line.ID, ev.LineID)
	assert.EqualValues(t, 4, ev.Delta)
	assert.EqualValues(t, 4, ev.Quantity)
	assert.True(t, ev.At.Equal(at))
	assert.Equal(t, []string{"u1"}, pub.keys)
}

func TestCartService_PublishFailureDoesNotFailUpsert(t *testing.T) {
	t.Parallel()

	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := &CartService{Repo: newMemRepo(), Atomic: true, Publisher: pub}

	line, err := svc.Upsert(context.Background(), "u1", "p1", 1)
	require.NoError(t, err)
	assert.EqualValues(t, 1, line.Quantity)
	assert.Len(t, pub.events, 1)
}

func TestCartService_ListCart_LineTotals(t *testing.T) {
	t.Parallel()

	r := repotest.NewRepo(t)
	require.NoError(t, r.DB.Create(&models.Product{ID: "p1", Name: "Hoodie", Price: decimal.RequireFromString("19.99")}).Error)

	svc := &CartService{Repo: r, Atomic: true}
	ctx := context.Background()
	_, err := svc.Upsert(ctx, "u1", "p1", 3)
	require.NoError(t, err)
	_, err = svc.Upsert(ctx, "u1", "gone", 1)
	require.NoError(t, err)

	items, err := svc.ListCart(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, items, 2)

	byProduct := map[string]models.CartItemView{}
	for _, it := range items {
		byProduct[it.ProductID] = it
	}
	require.True(t, byProduct["p1"].LineTotal.Valid)
	assert.True(t, byProduct["p1"].LineTotal.Decimal.Equal(decimal.RequireFromString("59.97")))
	assert.False(t, byProduct["gone"].LineTotal.Valid)
}

func TestCartService_ListCart_RequiresUser(t *testing.T) {
	t.Parallel()

	svc := &CartService{Repo: newMemRepo()}
	_, err := svc.ListCart(context.Background(), " ")
	require.ErrorIs(t, err, ErrInvalidArgument)
}
