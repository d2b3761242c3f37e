package settlement

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"cardlink-engine/pkg/config"
	"cardlink-engine/pkg/db/option"
	"cardlink-engine/pkg/repository"
	"cardlink-engine/pkg/task"
	"cardlink-engine/pkg/taskname"
	"cardlink-engine/services/authorization"
)

// RunPayload asks the worker to assemble one partner's settlement file for
// everything committed before the window end.
type RunPayload struct {
	Partner   string    `json:"partner"`
	WindowEnd time.Time `json:"window_end"`
}

type Task struct {
	db        *gorm.DB
	auths     repository.Repository[authorization.Authorization]
	cfg       *config.Config
	builder   *Builder
	encoder   RecordEncoder
	publisher Publisher
	sink      FileSink
	enqueuer  task.Enqueuer
}

type TaskParams struct {
	fx.In

	DB        *gorm.DB
	Cfg       *config.Config
	Builder   *Builder
	Encoder   RecordEncoder
	Publisher Publisher
	Sink      FileSink
	Enqueuer  task.Enqueuer `optional:"true"`
}

func NewTask(p TaskParams) *Task {
	return &Task{
		db:        p.DB,
		auths:     repository.ProvideStore[authorization.Authorization](p.DB),
		cfg:       p.Cfg,
		builder:   p.Builder,
		encoder:   p.Encoder,
		publisher: p.Publisher,
		sink:      p.Sink,
		enqueuer:  p.Enqueuer,
	}
}

func registerHandlers(mux *asynq.ServeMux, t *Task) {
	mux.HandleFunc(taskname.SettlementRun, t.HandleSettlementRun)
}

// EnqueueRun schedules a settlement pass for one partner.
func (t *Task) EnqueueRun(ctx context.Context, p authorization.Partner, windowEnd time.Time) error {
	payload, err := json.Marshal(RunPayload{Partner: string(p), WindowEnd: windowEnd})
	if err != nil {
		return err
	}
	_, err = t.enqueuer.Enqueue(ctx, asynq.NewTask(taskname.SettlementRun, payload), asynq.Queue(task.QueueLow))
	return err
}

func (t *Task) HandleSettlementRun(ctx context.Context, at *asynq.Task) error {
	var payload RunPayload
	if err := json.Unmarshal(at.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}

	p := authorization.Partner(payload.Partner)
	windowEnd := payload.WindowEnd
	if windowEnd.IsZero() {
		windowEnd = time.Now()
	}

	zapLog := zap.L().With(
		zap.String("task_type", at.Type()),
		zap.String("partner", payload.Partner),
		zap.Time("window_end", windowEnd),
	)
	zapLog.Info("starting settlement run")

	auths, err := t.auths.Find(ctx,
		&authorization.Authorization{Partner: payload.Partner, Status: authorization.StatusCommitted},
		option.ApplyOperator(option.Condition{Field: "transaction_at", Operator: option.LT, Value: windowEnd}),
		option.WithSortBy(option.QuerySortBy{SortBy: "transaction_at", Allow: map[string]bool{"transaction_at": true}}),
		option.WithLimit(t.cfg.Settlement.BatchLimit),
	)
	if err != nil {
		zapLog.Error("failed to load committed authorizations", zap.Error(err))
		return err
	}
	if len(auths) == 0 {
		zapLog.Info("nothing to settle")
		return nil
	}

	result, err := t.builder.Build(ctx, p, auths)
	if err != nil {
		zapLog.Error("settlement build failed", zap.Error(err))
		return err
	}

	lines, err := t.renderFile(p, result)
	if err != nil {
		zapLog.Error("failed to render settlement file", zap.Error(err))
		return err
	}

	name := fmt.Sprintf("%s-settlement-%s.txt", payload.Partner, windowEnd.Format("20060102"))
	if err := t.sink.Deliver(ctx, p, name, lines); err != nil {
		zapLog.Error("failed to deliver settlement file", zap.Error(err))
		return err
	}

	if err := t.publisher.PublishTransactionDetails(ctx, transactionDetails(auths, result)); err != nil {
		zapLog.Error("failed to publish transaction details", zap.Error(err))
		return err
	}

	if err := t.markSettled(ctx, result); err != nil {
		zapLog.Error("failed to mark authorizations settled", zap.Error(err))
		return err
	}

	zapLog.Info("settlement run finished",
		zap.Int("merchants", len(result.Merchants)),
		zap.Int("settled", len(result.Settled)),
		zap.Int("skipped", len(result.Skipped)),
	)
	return nil
}

// renderFile lays out one merchant record line followed by its detail lines,
// merchants ordered by id so a rerun writes byte-identical output.
func (t *Task) renderFile(p authorization.Partner, result *BuildResult) ([]string, error) {
	merchantIDs := make([]string, 0, len(result.Merchants))
	for id := range result.Merchants {
		merchantIDs = append(merchantIDs, id)
	}
	sort.Strings(merchantIDs)

	var lines []string
	for _, id := range merchantIDs {
		record := result.Merchants[id]
		header, err := t.encoder.EncodeMerchant(p, *record)
		if err != nil {
			return nil, err
		}
		lines = append(lines, header)
		for _, detail := range record.Details {
			lines = append(lines, detail.Line)
		}
	}
	return lines, nil
}

func transactionDetails(auths []*authorization.Authorization, result *BuildResult) []TransactionDetail {
	settled := make(map[int64]bool, len(result.Settled))
	for _, id := range result.Settled {
		settled[int64(id)] = true
	}

	details := make([]TransactionDetail, 0, len(result.Settled))
	for _, auth := range auths {
		if !settled[int64(auth.ID)] {
			continue
		}
		details = append(details, TransactionDetail{
			TransactionDate:  auth.TransactionAt.Format("2006-01-02"),
			DiscountID:       auth.OfferID,
			DealID:           auth.DealID,
			SettlementAmount: auth.SettlementAmount,
			DiscountAmount:   auth.DiscountAmount,
		})
	}
	return details
}

func (t *Task) markSettled(ctx context.Context, result *BuildResult) error {
	if len(result.Settled) == 0 {
		return nil
	}
	now := time.Now()
	return t.db.WithContext(ctx).
		Model(&authorization.Authorization{}).
		Where("authorization_id IN ?", result.Settled).
		Updates(map[string]any{
			"status":     authorization.StatusSettled,
			"settled_at": now,
		}).Error
}
