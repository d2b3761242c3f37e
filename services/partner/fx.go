package partner

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"cardlink-engine/pkg/config"
	"cardlink-engine/services/authorization"
)

var Module = fx.Module("partner.executors",
	fx.Provide(NewExecutors),
)

// Executors holds one assembled authorization executor per enabled partner.
type Executors struct {
	byPartner map[authorization.Partner]*authorization.Executor
}

type ExecutorsParams struct {
	fx.In

	Cfg         *config.Config
	Node        *snowflake.Node
	Coordinator *authorization.Coordinator
	Dispatcher  authorization.Dispatcher
}

func NewExecutors(p ExecutorsParams) (*Executors, error) {
	enabled := make(map[authorization.Partner]bool, len(p.Cfg.Partners.Enabled))
	for _, tag := range p.Cfg.Partners.Enabled {
		enabled[authorization.Partner(tag)] = true
	}

	byPartner := make(map[authorization.Partner]*authorization.Executor)
	for _, tag := range authorization.Partners() {
		if len(enabled) > 0 && !enabled[tag] {
			continue
		}
		adapter, err := ForPartner(tag)
		if err != nil {
			return nil, err
		}
		byPartner[tag] = authorization.NewExecutor(authorization.ExecutorParams{
			Partner:     tag,
			Node:        p.Node,
			Adapter:     adapter,
			Coordinator: p.Coordinator,
			Dispatcher:  p.Dispatcher,
			Dispatch:    DispatchModeFor(tag),
		})
	}
	return &Executors{byPartner: byPartner}, nil
}

func (e *Executors) For(p authorization.Partner) (*authorization.Executor, bool) {
	exec, ok := e.byPartner[p]
	return exec, ok
}
