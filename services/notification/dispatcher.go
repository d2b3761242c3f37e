package notification

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
	"go.uber.org/fx"

	"cardlink-engine/pkg/task"
	"cardlink-engine/pkg/taskname"
	"cardlink-engine/services/authorization"
)

var Module = fx.Module("notification.dispatcher",
	fx.Provide(
		fx.Annotate(NewAsynqDispatcher, fx.As(new(authorization.Dispatcher))),
	),
)

// AsynqDispatcher hands card-authorization notifications to the task queue.
// Delivery itself happens in the worker; callers only pay the enqueue cost.
type AsynqDispatcher struct {
	enqueuer task.Enqueuer
}

func NewAsynqDispatcher(enqueuer task.Enqueuer) *AsynqDispatcher {
	return &AsynqDispatcher{enqueuer: enqueuer}
}

func (d *AsynqDispatcher) SendNotification(ctx context.Context, n authorization.CardNotification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}

	_, err = d.enqueuer.Enqueue(ctx,
		asynq.NewTask(taskname.NotifyCardAuthorization, payload),
		asynq.Queue(task.QueueCritical),
	)
	return err
}
