package main

import (
	"log"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"cardlink-engine/pkg/config"
	"cardlink-engine/pkg/db"
	"cardlink-engine/pkg/logger"
	"cardlink-engine/pkg/redis"
	"cardlink-engine/pkg/sequence"
	"cardlink-engine/pkg/task"
	"cardlink-engine/services/authorization"
	"cardlink-engine/services/notification"
	"cardlink-engine/services/settlement"
)

func main() {
	opts := []fx.Option{
		config.Module,
		logger.Module,
		db.Module,
		redis.Module,
		task.Client,
		task.Server,
		sequence.Module,
		fx.Provide(provideSnowflakeNode),
		authorization.Module,
		notification.TaskModule,
		settlement.Module,
		settlement.TaskModule,
		fxLogger,
	}

	if err := fx.ValidateApp(opts...); err != nil {
		log.Fatalf("fx validation failed: %v", err)
	}

	app := fx.New(opts...)

	app.Run()
}

var fxLogger = fx.WithLogger(func(cfg *config.Config, logger *zap.Logger) fxevent.Logger {
	return fxevent.NopLogger
})

func provideSnowflakeNode() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}
