package sequence

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"cardlink-engine/pkg/config"
)

var Module = fx.Module("sequence",
	fx.Provide(NewStore, NewAllocator),
)

// Missing is the store-level signal for "sequence does not exist". Stores
// return it instead of an error so callers can distinguish an absent counter
// from a storage failure.
const Missing int64 = -1

// ErrNotFound is returned by the Allocator when the named sequence has never
// been created. It replaces the raw -1 sentinel at the allocator surface.
var ErrNotFound = errors.New("sequence not found")

// Store is the shared counter storage boundary. RetrieveNextValue performs an
// atomic read-and-increment; DecrementSequenceValue unconditionally decrements
// the stored counter and returns the new value. Both return Missing when the
// sequence is absent.
type Store interface {
	RetrieveNextValue(ctx context.Context, name string) (int64, error)
	DecrementSequenceValue(ctx context.Context, name string) (int64, error)
	EnsureSequence(ctx context.Context, name string, initial int64) error
}

// Allocator mints reference numbers from named monotonic sequences.
//
// Previous releases the caller's own immediately preceding allocation. It does
// not undo a specific Next when interleaved with other callers, so it must
// only be used as a compensating action within the same logical operation.
type Allocator interface {
	Next(ctx context.Context, name string) (int64, error)
	Previous(ctx context.Context, name string) (int64, error)
}

type storeAllocator struct {
	store Store
}

func NewAllocator(store Store) Allocator {
	return &storeAllocator{store: store}
}

func (a *storeAllocator) Next(ctx context.Context, name string) (int64, error) {
	value, err := a.store.RetrieveNextValue(ctx, name)
	if err != nil {
		return 0, err
	}
	if value == Missing {
		return 0, ErrNotFound
	}
	return value, nil
}

func (a *storeAllocator) Previous(ctx context.Context, name string) (int64, error) {
	value, err := a.store.DecrementSequenceValue(ctx, name)
	if err != nil {
		return 0, err
	}
	if value == Missing {
		return 0, ErrNotFound
	}
	return value, nil
}

type Params struct {
	fx.In

	Cfg   *config.Config
	DB    *gorm.DB      `optional:"true"`
	Redis *redis.Client `optional:"true"`
}

func NewStore(p Params) Store {
	if p.Cfg.Sequence.Backend == "redis" && p.Redis != nil {
		return NewRedisStore(p.Redis)
	}
	return NewGormStore(p.DB)
}
