package settlement

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/hibiken/asynq"

	"cardlink-engine/pkg/task"
	"cardlink-engine/pkg/taskname"
	"cardlink-engine/services/authorization"
)

// AsynqPublisher forwards TransactionDetails to the downstream publishing
// queue; the external rebate consumer drains it.
type AsynqPublisher struct {
	enqueuer task.Enqueuer
}

func NewAsynqPublisher(enqueuer task.Enqueuer) *AsynqPublisher {
	return &AsynqPublisher{enqueuer: enqueuer}
}

func (p *AsynqPublisher) PublishTransactionDetails(ctx context.Context, details []TransactionDetail) error {
	if len(details) == 0 {
		return nil
	}

	payload, err := json.Marshal(details)
	if err != nil {
		return err
	}

	_, err = p.enqueuer.Enqueue(ctx, asynq.NewTask(taskname.SettlementPublishDetails, payload), asynq.Queue(task.QueueDefault))
	return err
}

// LocalFileSink writes settlement files under one directory. The physical
// partner transfer picks them up from there.
type LocalFileSink struct {
	dir string
}

func NewLocalFileSink(dir string) *LocalFileSink {
	return &LocalFileSink{dir: dir}
}

func (s *LocalFileSink) Deliver(ctx context.Context, p authorization.Partner, name string, lines []string) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}

	content := strings.Join(lines, "\n") + "\n"
	return os.WriteFile(filepath.Join(s.dir, name), []byte(content), 0o644)
}
