package settlement

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"cardlink-engine/pkg/config"
	"cardlink-engine/services/authorization"
)

type Scheduler struct {
	task *Task
	cfg  *config.Config

	cancel context.CancelFunc
	done   chan struct{}
}

func NewScheduler(task *Task, cfg *config.Config) *Scheduler {
	return &Scheduler{task: task, cfg: cfg}
}

// StartScheduler is invoked by FX on service start. The run loop is bound to
// its own context rather than the OnStart one, which fx cancels once the
// start deadline elapses.
func StartScheduler(lc fx.Lifecycle, s *Scheduler) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ctx, cancel := context.WithCancel(context.Background())
			s.cancel = cancel
			s.done = make(chan struct{})
			go s.run(ctx)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			s.cancel()
			select {
			case <-s.done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)

	zap.L().Info("[Scheduler] started settlement scheduler")

	for {
		now := time.Now()
		next := nextRunTime(now, s.cfg.Settlement.RunHour, s.cfg.Settlement.RunMinute)

		sleepDuration := next.Sub(now)
		zap.L().Info("[Scheduler] next settlement run scheduled",
			zap.Time("next_run", next),
			zap.Duration("sleep_for", sleepDuration),
		)
		select {
		case <-time.After(sleepDuration):
			s.runDaily(ctx)
		case <-ctx.Done():
			zap.L().Warn("[Scheduler] stopped")
			return
		}
	}
}

func (s *Scheduler) runDaily(ctx context.Context) {
	start := time.Now()
	zap.L().Info("[Scheduler] enqueueing settlement runs")

	windowEnd := time.Now()
	for _, p := range authorization.Partners() {
		if err := s.task.EnqueueRun(ctx, p, windowEnd); err != nil {
			zap.L().Error("[Scheduler] failed to enqueue settlement run",
				zap.String("partner", string(p)),
				zap.Error(err),
			)
		}
	}

	zap.L().Info("[Scheduler] finished enqueueing settlement runs",
		zap.Duration("duration", time.Since(start)),
	)
}

func nextRunTime(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if now.After(next) {
		next = next.Add(24 * time.Hour)
	}
	return next
}
