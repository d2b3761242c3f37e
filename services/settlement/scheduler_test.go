package settlement

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"

	"cardlink-engine/pkg/config"
)

func TestSchedulerOutlivesStartDeadline(t *testing.T) {
	cfg := &config.Config{}
	next := time.Now().Add(3 * time.Hour)
	cfg.Settlement.RunHour = next.Hour()
	cfg.Settlement.RunMinute = next.Minute()

	s := NewScheduler(&Task{}, cfg)

	lc := fxtest.NewLifecycle(t)
	StartScheduler(lc, s)

	startCtx, cancel := context.WithCancel(context.Background())
	require.NoError(t, lc.Start(startCtx))
	cancel()

	select {
	case <-s.done:
		t.Fatal("scheduler loop exited with the start context")
	case <-time.After(200 * time.Millisecond):
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	require.NoError(t, lc.Stop(stopCtx))

	select {
	case <-s.done:
	case <-time.After(time.Second):
		t.Fatal("scheduler loop did not exit on shutdown")
	}
}
