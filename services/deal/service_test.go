package deal

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"cardlink-engine/pkg/db/pagination"
	"cardlink-engine/pkg/errutil"
	"cardlink-engine/pkg/sequence"
	"cardlink-engine/services/authorization"
	"cardlink-engine/services/testutil"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	db := testutil.NewTestDB(t, &ClaimedDeal{}, &DealBatch{}, &sequence.SequenceValue{})
	node, err := snowflake.NewNode(7)
	require.NoError(t, err)

	store := sequence.NewGormStore(db)
	require.NoError(t, store.EnsureSequence(context.Background(), BatchSequence, 0))

	svc := NewService(Params{
		DB:        db,
		Node:      node,
		Allocator: sequence.NewAllocator(store),
	})
	return svc, db
}

func TestClaimDeal(t *testing.T) {
	svc, _ := newTestService(t)

	claim, err := svc.ClaimDeal(context.Background(), ClaimDealRequest{
		GlobalDealID: "deal-1",
		UserID:       "user-1",
		CardID:       "card-1",
		Partner:      authorization.PartnerAmex,
	})
	require.NoError(t, err)
	require.NotZero(t, claim.ID)
	require.Nil(t, claim.BatchID)
}

func TestClaimDealConflict(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	req := ClaimDealRequest{
		GlobalDealID: "deal-1",
		UserID:       "user-1",
		CardID:       "card-1",
		Partner:      authorization.PartnerAmex,
	}

	_, err := svc.ClaimDeal(ctx, req)
	require.NoError(t, err)

	_, err = svc.ClaimDeal(ctx, req)
	require.Error(t, err)
	var be errutil.BaseError
	require.True(t, errors.As(err, &be))
	require.Equal(t, errutil.StatusConflict, be.Status())
}

func TestClaimDealValidation(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.ClaimDeal(context.Background(), ClaimDealRequest{UserID: "user-1"})
	require.Error(t, err)
	var be errutil.BaseError
	require.True(t, errors.As(err, &be))
	require.Equal(t, errutil.StatusValidationFailed, be.Status())
}

func TestSnapshotBatch(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	for _, dealID := range []string{"deal-1", "deal-2", "deal-3"} {
		_, err := svc.ClaimDeal(ctx, ClaimDealRequest{
			GlobalDealID: dealID,
			UserID:       "user-1",
			CardID:       "card-1",
			Partner:      authorization.PartnerVisa,
		})
		require.NoError(t, err)
	}

	batch, err := svc.SnapshotBatch(ctx, authorization.PartnerVisa)
	require.NoError(t, err)
	require.Equal(t, int64(1), batch.BatchID)

	var dealIDs []string
	require.NoError(t, json.Unmarshal(batch.DealIDs, &dealIDs))
	require.ElementsMatch(t, []string{"deal-1", "deal-2", "deal-3"}, dealIDs)

	var unbatched int64
	require.NoError(t, db.Model(&ClaimedDeal{}).
		Where("partner = ? AND batch_id IS NULL", "visa").
		Count(&unbatched).Error)
	require.Zero(t, unbatched)

	// Claims made after the snapshot do not leak into the frozen batch.
	_, err = svc.ClaimDeal(ctx, ClaimDealRequest{
		GlobalDealID: "deal-4",
		UserID:       "user-1",
		CardID:       "card-1",
		Partner:      authorization.PartnerVisa,
	})
	require.NoError(t, err)

	reloaded, err := svc.GetBatch(ctx, batch.BatchID)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(reloaded.DealIDs, &dealIDs))
	require.Len(t, dealIDs, 3)
}

func TestSnapshotBatchConcurrentClaim(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	for _, dealID := range []string{"deal-1", "deal-2"} {
		_, err := svc.ClaimDeal(ctx, ClaimDealRequest{
			GlobalDealID: dealID,
			UserID:       "user-1",
			CardID:       "card-1",
			Partner:      authorization.PartnerVisa,
		})
		require.NoError(t, err)
	}

	node, err := snowflake.NewNode(8)
	require.NoError(t, err)

	// Insert a claim while the snapshot transaction is in flight, after the
	// unbatched set was read but before the claims are stamped.
	injected := false
	require.NoError(t, db.Callback().Create().Before("gorm:create").
		Register("inject_concurrent_claim", func(tx *gorm.DB) {
			if _, ok := tx.Statement.Dest.(*DealBatch); !ok || injected {
				return
			}
			injected = true
			sess := tx.Session(&gorm.Session{NewDB: true})
			require.NoError(t, sess.Create(&ClaimedDeal{
				ID:           node.Generate(),
				GlobalDealID: "deal-late",
				UserID:       "user-1",
				CardID:       "card-1",
				Partner:      "visa",
			}).Error)
		}))

	batch, err := svc.SnapshotBatch(ctx, authorization.PartnerVisa)
	require.NoError(t, err)
	require.True(t, injected)

	var dealIDs []string
	require.NoError(t, json.Unmarshal(batch.DealIDs, &dealIDs))
	require.ElementsMatch(t, []string{"deal-1", "deal-2"}, dealIDs)

	// The late claim keeps a NULL batch id and lands in the next snapshot.
	var late ClaimedDeal
	require.NoError(t, db.Where("global_deal_id = ?", "deal-late").First(&late).Error)
	require.Nil(t, late.BatchID)

	next, err := svc.SnapshotBatch(ctx, authorization.PartnerVisa)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(next.DealIDs, &dealIDs))
	require.Equal(t, []string{"deal-late"}, dealIDs)
}

func TestSnapshotBatchEmpty(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.SnapshotBatch(context.Background(), authorization.PartnerVisa)
	require.Error(t, err)
	var be errutil.BaseError
	require.True(t, errors.As(err, &be))
	require.Equal(t, errutil.StatusNotFound, be.Status())
}

func TestGetBatchNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.GetBatch(context.Background(), 999)
	require.Error(t, err)
	var be errutil.BaseError
	require.True(t, errors.As(err, &be))
	require.Equal(t, errutil.StatusNotFound, be.Status())
}

func TestListBatches(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for i, dealID := range []string{"deal-1", "deal-2", "deal-3"} {
		_, err := svc.ClaimDeal(ctx, ClaimDealRequest{
			GlobalDealID: dealID,
			UserID:       "user-1",
			CardID:       "card-1",
			Partner:      authorization.PartnerAmex,
		})
		require.NoError(t, err)

		batch, err := svc.SnapshotBatch(ctx, authorization.PartnerAmex)
		require.NoError(t, err)
		require.Equal(t, int64(i+1), batch.BatchID)

		// Distinct creation timestamps keep the cursor ordering unambiguous.
		time.Sleep(5 * time.Millisecond)
	}

	page, info, err := svc.ListBatches(ctx, authorization.PartnerAmex, pagination.Pagination{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.True(t, info.HasMore)
	require.Equal(t, int64(3), page[0].BatchID)
	require.Equal(t, int64(2), page[1].BatchID)

	rest, info, err := svc.ListBatches(ctx, authorization.PartnerAmex, pagination.Pagination{Limit: 2, Cursor: info.NextCursor})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	require.False(t, info.HasMore)
	require.Equal(t, int64(1), rest[0].BatchID)
}
