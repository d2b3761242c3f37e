package settlement

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"cardlink-engine/pkg/config"
	"cardlink-engine/pkg/sequence"
	"cardlink-engine/pkg/taskname"
	"cardlink-engine/services/authorization"
	"cardlink-engine/services/testutil"
)

type publisherMock struct {
	published [][]TransactionDetail
}

func (m *publisherMock) PublishTransactionDetails(ctx context.Context, details []TransactionDetail) error {
	m.published = append(m.published, details)
	return nil
}

type sinkMock struct {
	name  string
	lines []string
}

func (m *sinkMock) Deliver(ctx context.Context, p authorization.Partner, name string, lines []string) error {
	m.name = name
	m.lines = lines
	return nil
}

func TestHandleSettlementRun(t *testing.T) {
	db := testutil.NewTestDB(t, &authorization.Authorization{}, &sequence.SequenceValue{})
	ctx := context.Background()

	store := sequence.NewGormStore(db)
	require.NoError(t, store.EnsureSequence(ctx, ReferenceSequence(authorization.PartnerAmex), 0))

	node, err := snowflake.NewNode(6)
	require.NoError(t, err)

	txnAt := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	auths := []*authorization.Authorization{
		{
			ID: node.Generate(), Partner: "amex", PartnerTransactionID: "t1",
			PartnerMerchantID: "merchant-a", OfferID: "o1", CardToken: "tok1",
			SettlementAmount: 1000, DiscountAmount: 100,
			TransactionAt: txnAt, Status: authorization.StatusCommitted,
		},
		{
			ID: node.Generate(), Partner: "amex", PartnerTransactionID: "t2",
			PartnerMerchantID: "merchant-b", OfferID: "o2", CardToken: "tok2",
			SettlementAmount: 2000, DiscountAmount: 200,
			TransactionAt: txnAt.Add(time.Minute), Status: authorization.StatusCommitted,
		},
		// Outside the window; must not settle.
		{
			ID: node.Generate(), Partner: "amex", PartnerTransactionID: "t3",
			PartnerMerchantID: "merchant-a", OfferID: "o3", CardToken: "tok3",
			SettlementAmount: 3000, DiscountAmount: 300,
			TransactionAt: txnAt.Add(48 * time.Hour), Status: authorization.StatusCommitted,
		},
		// Wrong partner; must not settle.
		{
			ID: node.Generate(), Partner: "visa", PartnerTransactionID: "t4",
			PartnerMerchantID: "merchant-a", OfferID: "o4", CardToken: "tok4",
			SettlementAmount: 4000, DiscountAmount: 400,
			TransactionAt: txnAt, Status: authorization.StatusCommitted,
		},
	}
	for _, a := range auths {
		require.NoError(t, db.Create(a).Error)
	}

	encoder := NewFixedWidthEncoder()
	publisher := &publisherMock{}
	sink := &sinkMock{}
	cfg := &config.Config{}
	cfg.Settlement.BatchLimit = 100

	task := NewTask(TaskParams{
		DB:        db,
		Cfg:       cfg,
		Builder:   NewBuilder(sequence.NewAllocator(store), encoder),
		Encoder:   encoder,
		Publisher: publisher,
		Sink:      sink,
	})

	windowEnd := txnAt.Add(24 * time.Hour)
	payload, err := json.Marshal(RunPayload{Partner: "amex", WindowEnd: windowEnd})
	require.NoError(t, err)

	require.NoError(t, task.HandleSettlementRun(ctx, asynq.NewTask(taskname.SettlementRun, payload)))

	// One merchant header plus one detail line per merchant, merchants sorted.
	require.Equal(t, "amex-settlement-20250602.txt", sink.name)
	require.Len(t, sink.lines, 4)
	require.Equal(t, byte('M'), sink.lines[0][0])
	require.Equal(t, byte('D'), sink.lines[1][0])
	require.Equal(t, byte('M'), sink.lines[2][0])
	require.Equal(t, byte('D'), sink.lines[3][0])

	require.Len(t, publisher.published, 1)
	require.Len(t, publisher.published[0], 2)
	require.Equal(t, int64(100), publisher.published[0][0].DiscountAmount)

	var settledCount int64
	require.NoError(t, db.Model(&authorization.Authorization{}).
		Where("status = ?", authorization.StatusSettled).
		Count(&settledCount).Error)
	require.Equal(t, int64(2), settledCount)

	var untouched authorization.Authorization
	require.NoError(t, db.Where("partner_transaction_id = ?", "t3").First(&untouched).Error)
	require.Equal(t, authorization.StatusCommitted, untouched.Status)
	require.Nil(t, untouched.SettledAt)
}

func TestHandleSettlementRunNothingToSettle(t *testing.T) {
	db := testutil.NewTestDB(t, &authorization.Authorization{}, &sequence.SequenceValue{})

	encoder := NewFixedWidthEncoder()
	publisher := &publisherMock{}
	sink := &sinkMock{}
	cfg := &config.Config{}
	cfg.Settlement.BatchLimit = 100

	task := NewTask(TaskParams{
		DB:        db,
		Cfg:       cfg,
		Builder:   NewBuilder(sequence.NewAllocator(sequence.NewGormStore(db)), encoder),
		Encoder:   encoder,
		Publisher: publisher,
		Sink:      sink,
	})

	payload, err := json.Marshal(RunPayload{Partner: "amex", WindowEnd: time.Now()})
	require.NoError(t, err)

	require.NoError(t, task.HandleSettlementRun(context.Background(), asynq.NewTask(taskname.SettlementRun, payload)))
	require.Empty(t, sink.lines)
	require.Empty(t, publisher.published)
}

func TestNextRunTime(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	next := nextRunTime(now, 23, 30)
	require.Equal(t, time.Date(2025, 6, 1, 23, 30, 0, 0, time.UTC), next)

	next = nextRunTime(now, 2, 0)
	require.Equal(t, time.Date(2025, 6, 2, 2, 0, 0, 0, time.UTC), next)
}
