package main

import (
	"log"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"cardlink-engine/internal/httpapi"
	"cardlink-engine/internal/server"
	"cardlink-engine/pkg/config"
	"cardlink-engine/pkg/db"
	"cardlink-engine/pkg/health"
	"cardlink-engine/pkg/logger"
	"cardlink-engine/pkg/redis"
	"cardlink-engine/pkg/sequence"
	"cardlink-engine/pkg/task"
	"cardlink-engine/services/authorization"
	"cardlink-engine/services/deal"
	"cardlink-engine/services/notification"
	"cardlink-engine/services/partner"
)

func main() {
	opts := []fx.Option{
		config.Module,
		logger.Module,
		db.Module,
		redis.Module,
		task.Client,
		sequence.Module,
		health.Module,
		fx.Provide(provideSnowflakeNode),
		authorization.Module,
		partner.Module,
		notification.Module,
		deal.Module,
		httpapi.Module,
		server.Module,
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
