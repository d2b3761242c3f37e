package sequence

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cardlink-engine/services/testutil"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type storeMock struct {
	retrieveFn  func(ctx context.Context, name string) (int64, error)
	decrementFn func(ctx context.Context, name string) (int64, error)
	ensureFn    func(ctx context.Context, name string, initial int64) error
}

func (m *storeMock) RetrieveNextValue(ctx context.Context, name string) (int64, error) {
	if m.retrieveFn != nil {
		return m.retrieveFn(ctx, name)
	}
	return Missing, nil
}

func (m *storeMock) DecrementSequenceValue(ctx context.Context, name string) (int64, error) {
	if m.decrementFn != nil {
		return m.decrementFn(ctx, name)
	}
	return Missing, nil
}

func (m *storeMock) EnsureSequence(ctx context.Context, name string, initial int64) error {
	if m.ensureFn != nil {
		return m.ensureFn(ctx, name, initial)
	}
	return nil
}

func TestAllocatorNextMapsMissingToErrNotFound(t *testing.T) {
	alloc := NewAllocator(&storeMock{})

	_, err := alloc.Next(context.Background(), "unknown")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAllocatorPreviousMapsMissingToErrNotFound(t *testing.T) {
	alloc := NewAllocator(&storeMock{})

	_, err := alloc.Previous(context.Background(), "unknown")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAllocatorPropagatesStoreError(t *testing.T) {
	boom := errors.New("storage offline")
	alloc := NewAllocator(&storeMock{
		retrieveFn: func(ctx context.Context, name string) (int64, error) {
			return Missing, boom
		},
	})

	_, err := alloc.Next(context.Background(), "refs")
	require.ErrorIs(t, err, boom)
	require.NotErrorIs(t, err, ErrNotFound)
}

func TestGormStoreNextIsSequential(t *testing.T) {
	db := testutil.NewTestDB(t, &SequenceValue{})
	store := NewGormStore(db)
	ctx := context.Background()

	require.NoError(t, store.EnsureSequence(ctx, "refs", 0))

	alloc := NewAllocator(store)
	for want := int64(1); want <= 5; want++ {
		got, err := alloc.Next(ctx, "refs")
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
}

func TestGormStoreNextPreviousRoundTrip(t *testing.T) {
	db := testutil.NewTestDB(t, &SequenceValue{})
	store := NewGormStore(db)
	ctx := context.Background()

	require.NoError(t, store.EnsureSequence(ctx, "refs", 100))

	alloc := NewAllocator(store)
	first, err := alloc.Next(ctx, "refs")
	require.NoError(t, err)
	require.Equal(t, int64(101), first)

	released, err := alloc.Previous(ctx, "refs")
	require.NoError(t, err)
	require.Equal(t, int64(100), released)

	again, err := alloc.Next(ctx, "refs")
	require.NoError(t, err)
	require.Equal(t, first, again)
}

func TestGormStoreMissingSequence(t *testing.T) {
	db := testutil.NewTestDB(t, &SequenceValue{})
	store := NewGormStore(db)

	value, err := store.RetrieveNextValue(context.Background(), "never-created")
	require.NoError(t, err)
	require.Equal(t, Missing, value)
}

func TestGormStoreEnsureSequenceIsIdempotent(t *testing.T) {
	db := testutil.NewTestDB(t, &SequenceValue{})
	store := NewGormStore(db)
	ctx := context.Background()

	require.NoError(t, store.EnsureSequence(ctx, "refs", 10))

	alloc := NewAllocator(store)
	got, err := alloc.Next(ctx, "refs")
	require.NoError(t, err)
	require.Equal(t, int64(11), got)

	// Re-provisioning must not reset the counter.
	require.NoError(t, store.EnsureSequence(ctx, "refs", 10))

	got, err = alloc.Next(ctx, "refs")
	require.NoError(t, err)
	require.Equal(t, int64(12), got)
}

func TestGormStoreConcurrentNextIsGapless(t *testing.T) {
	db := testutil.NewTestDB(t, &SequenceValue{})
	store := NewGormStore(db)
	ctx := context.Background()

	require.NoError(t, store.EnsureSequence(ctx, "refs", 0))

	const workers = 16
	alloc := NewAllocator(store)
	values := make([]int64, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := alloc.Next(ctx, "refs")
			if err != nil {
				t.Errorf("worker %d: %v", i, err)
				return
			}
			values[i] = v
		}(i)
	}
	wg.Wait()

	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })
	for i, v := range values {
		require.Equal(t, int64(i+1), v)
	}
}
