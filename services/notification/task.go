package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"cardlink-engine/pkg/taskname"
	"cardlink-engine/services/authorization"
)

var TaskModule = fx.Module("task.notification",
	fx.Provide(NewTask),
	fx.Invoke(registerHandlers),
)

// Task delivers enqueued card-authorization notifications. Delivery transports
// (push, email) hang off this handler; the authorization path never waits on
// them.
type Task struct{}

func NewTask() *Task {
	return &Task{}
}

func registerHandlers(mux *asynq.ServeMux, t *Task) {
	mux.HandleFunc(taskname.NotifyCardAuthorization, t.HandleCardAuthorization)
}

func (t *Task) HandleCardAuthorization(ctx context.Context, at *asynq.Task) error {
	var note authorization.CardNotification
	if err := json.Unmarshal(at.Payload(), &note); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}

	zap.L().Info("delivering card authorization notification",
		zap.String("partner", string(note.Partner)),
		zap.String("card_brand", string(note.CardBrand)),
		zap.String("partner_transaction_id", note.PartnerTransactionID),
		zap.String("discount_display", note.DiscountDisplay),
	)

	return nil
}
