package authorization

import (
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("authorization.service",
	fx.Provide(
		fx.Annotate(NewGormStore, fx.As(new(Store))),
		NewCoordinator,
	),
	fx.Invoke(autoMigrate),
)

func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&Authorization{})
}
