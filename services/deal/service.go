package deal

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"cardlink-engine/pkg/db/pagination"
	"cardlink-engine/pkg/errutil"
	"cardlink-engine/pkg/repository"
	"cardlink-engine/pkg/sequence"
	"cardlink-engine/services/authorization"
)

// BatchSequence names the counter that mints deal batch ids.
const BatchSequence = "deal:batch"

type Service struct {
	db        *gorm.DB
	node      *snowflake.Node
	allocator sequence.Allocator

	claims  repository.Repository[ClaimedDeal]
	batches repository.Repository[DealBatch]
}

type Params struct {
	fx.In

	DB        *gorm.DB
	Node      *snowflake.Node
	Allocator sequence.Allocator
}

func NewService(p Params) *Service {
	return &Service{
		db:        p.DB,
		node:      p.Node,
		allocator: p.Allocator,
		claims:    repository.ProvideStore[ClaimedDeal](p.DB),
		batches:   repository.ProvideStore[DealBatch](p.DB),
	}
}

type ClaimDealRequest struct {
	GlobalDealID string
	UserID       string
	CardID       string
	Partner      authorization.Partner
}

// ClaimDeal records a deal claim for one user and card. Re-claiming the same
// combination is a conflict, not a second row.
func (s *Service) ClaimDeal(ctx context.Context, req ClaimDealRequest) (*ClaimedDeal, error) {
	if req.GlobalDealID == "" || req.UserID == "" || req.CardID == "" {
		return nil, errutil.ValidationFailed("deal, user and card are required", nil)
	}

	existing, err := s.claims.FindOne(ctx, &ClaimedDeal{
		GlobalDealID: req.GlobalDealID,
		UserID:       req.UserID,
		CardID:       req.CardID,
	})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errutil.Conflict("deal already claimed for this card", nil)
	}

	claim := &ClaimedDeal{
		ID:           s.node.Generate(),
		GlobalDealID: req.GlobalDealID,
		UserID:       req.UserID,
		CardID:       req.CardID,
		Partner:      string(req.Partner),
	}

	if err := s.claims.Create(ctx, claim); err != nil {
		return nil, err
	}

	return claim, nil
}

// SnapshotBatch assigns the partner's unbatched claims to a freshly allocated
// batch id and freezes the deal-id set. If persisting the snapshot fails after
// the id was allocated, the allocation is rolled back so batch ids stay dense.
func (s *Service) SnapshotBatch(ctx context.Context, p authorization.Partner) (*DealBatch, error) {
	var unbatched []*ClaimedDeal
	if err := s.db.WithContext(ctx).
		Where("partner = ? AND batch_id IS NULL", string(p)).
		Order("created_at ASC").
		Find(&unbatched).Error; err != nil {
		return nil, err
	}
	if len(unbatched) == 0 {
		return nil, errutil.NotFound("no unbatched claims for partner", nil)
	}

	batchID, err := s.allocator.Next(ctx, BatchSequence)
	if err != nil {
		if errors.Is(err, sequence.ErrNotFound) {
			return nil, errutil.Internal("deal batch sequence not provisioned", err)
		}
		return nil, err
	}

	dealIDs := make([]string, 0, len(unbatched))
	claimIDs := make([]snowflake.ID, 0, len(unbatched))
	for _, claim := range unbatched {
		dealIDs = append(dealIDs, claim.GlobalDealID)
		claimIDs = append(claimIDs, claim.ID)
	}
	encoded, err := json.Marshal(dealIDs)
	if err != nil {
		return nil, err
	}

	batch := &DealBatch{
		BatchID:   batchID,
		Partner:   string(p),
		DealIDs:   datatypes.JSON(encoded),
		CreatedAt: time.Now(),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.batches.WithTrx(tx).Create(ctx, batch); err != nil {
			return err
		}
		// Stamp exactly the claims in the snapshot. A claim created after the
		// read above stays unbatched and is picked up by the next snapshot.
		return tx.Model(&ClaimedDeal{}).
			Where("claimed_deal_id IN ?", claimIDs).
			Update("batch_id", batchID).Error
	})
	if err != nil {
		if _, rbErr := s.allocator.Previous(ctx, BatchSequence); rbErr != nil {
			zap.L().Error("failed to roll back deal batch id", zap.Int64("batch_id", batchID), zap.Error(rbErr))
		}
		return nil, err
	}

	return batch, nil
}

func (s *Service) GetBatch(ctx context.Context, batchID int64) (*DealBatch, error) {
	batch, err := s.batches.FindOne(ctx, &DealBatch{BatchID: batchID})
	if err != nil {
		return nil, err
	}
	if batch == nil {
		return nil, errutil.NotFound("deal batch not found", nil)
	}
	return batch, nil
}

// ListBatches pages through a partner's batch snapshots, newest first. The
// cursor pins the position by creation time and batch id.
func (s *Service) ListBatches(ctx context.Context, p authorization.Partner, page pagination.Pagination) ([]*DealBatch, *pagination.PageInfo, error) {
	limit := page.Limit
	if limit <= 0 {
		limit = 25
	}

	q := s.db.WithContext(ctx).
		Where("partner = ?", string(p)).
		Order("created_at DESC, batch_id DESC").
		Limit(limit + 1)

	if page.Cursor != "" {
		cursor, err := pagination.DecodeCursor(page.Cursor)
		if err != nil {
			return nil, nil, errutil.ValidationFailed("malformed cursor", err)
		}
		batchID, err := strconv.ParseInt(cursor.ID, 10, 64)
		if err != nil {
			return nil, nil, errutil.ValidationFailed("malformed cursor", err)
		}
		cursorAt, err := time.Parse(time.RFC3339Nano, cursor.CreatedAt)
		if err != nil {
			return nil, nil, errutil.ValidationFailed("malformed cursor", err)
		}
		q = q.Where("created_at < ? OR (created_at = ? AND batch_id < ?)", cursorAt, cursorAt, batchID)
	}

	var batches []*DealBatch
	if err := q.Find(&batches).Error; err != nil {
		return nil, nil, err
	}

	return pagination.Page(batches, limit, func(b *DealBatch) pagination.Cursor {
		return pagination.Cursor{
			CreatedAt: b.CreatedAt.Format(time.RFC3339Nano),
			ID:        strconv.FormatInt(b.BatchID, 10),
		}
	})
}
