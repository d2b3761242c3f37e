package deal

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// ClaimedDeal links a global deal to the user and card it was claimed under.
// Rows are written at claim-processing time and read-only afterward.
type ClaimedDeal struct {
	ID           snowflake.ID `gorm:"column:claimed_deal_id;primaryKey;autoIncrement:false"`
	GlobalDealID string       `gorm:"column:global_deal_id;uniqueIndex:idx_deal_user_card;not null"`
	UserID       string       `gorm:"column:user_id;uniqueIndex:idx_deal_user_card;not null"`
	CardID       string       `gorm:"column:card_id;uniqueIndex:idx_deal_user_card;not null"`
	Partner      string       `gorm:"column:partner;index;not null"`
	BatchID      *int64       `gorm:"column:batch_id;index"`
	CreatedAt    time.Time    `gorm:"column:created_at;autoCreateTime"`
}

func (ClaimedDeal) TableName() string {
	return "claimed_deals"
}

// DealBatch is an immutable point-in-time snapshot of claimed deal ids under
// one batch id.
type DealBatch struct {
	BatchID   int64          `gorm:"column:batch_id;primaryKey;autoIncrement:false"`
	Partner   string         `gorm:"column:partner;index;not null"`
	DealIDs   datatypes.JSON `gorm:"column:deal_ids"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
}

func (DealBatch) TableName() string {
	return "deal_batches"
}
