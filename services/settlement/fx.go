package settlement

import (
	"context"

	"go.uber.org/fx"

	"cardlink-engine/pkg/config"
	"cardlink-engine/pkg/sequence"
	"cardlink-engine/services/authorization"
)

var Module = fx.Module("settlement.service",
	fx.Provide(
		fx.Annotate(NewFixedWidthEncoder, fx.As(new(RecordEncoder))),
		fx.Annotate(NewAsynqPublisher, fx.As(new(Publisher))),
		provideFileSink,
		NewBuilder,
		NewTask,
		NewScheduler,
	),
	fx.Invoke(provisionSequences),
)

var TaskModule = fx.Module("task.settlement",
	fx.Invoke(registerHandlers, StartScheduler),
)

func provideFileSink(cfg *config.Config) FileSink {
	dir := cfg.Settlement.OutputDir
	if dir == "" {
		dir = "settlement-out"
	}
	return NewLocalFileSink(dir)
}

func provisionSequences(store sequence.Store) error {
	for _, p := range authorization.Partners() {
		if err := store.EnsureSequence(context.Background(), ReferenceSequence(p), 0); err != nil {
			return err
		}
	}
	return nil
}
