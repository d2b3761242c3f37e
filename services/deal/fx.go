package deal

import (
	"context"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"cardlink-engine/pkg/sequence"
)

var Module = fx.Module("deal.service",
	fx.Provide(NewService),
	fx.Invoke(autoMigrate, provisionSequence),
)

func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&ClaimedDeal{}, &DealBatch{})
}

func provisionSequence(store sequence.Store) error {
	return store.EnsureSequence(context.Background(), BatchSequence, 0)
}
