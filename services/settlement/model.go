package settlement

import (
	"context"
	"time"

	"cardlink-engine/services/authorization"
)

// DetailRecord is one settled transaction inside a merchant group. The
// reference number is allocated from the partner's settlement sequence.
type DetailRecord struct {
	OfferID                 string
	AcquirerReferenceNumber string
	Token                   string
	DiscountAmount          int64
	TransactionDate         time.Time
	ReferenceNumber         int64

	// Line is the fixed-format rendering captured at build time.
	Line string
}

// MerchantRecord groups the ordered detail records for one partner-merchant
// id. A settlement file contains at most one MerchantRecord per merchant.
type MerchantRecord struct {
	PartnerMerchantID string
	Details           []DetailRecord
}

func (m *MerchantRecord) TotalDiscount() int64 {
	var total int64
	for _, d := range m.Details {
		total += d.DiscountAmount
	}
	return total
}

// TransactionDetail is the denormalized publish contract consumed by the
// downstream rebate publisher.
type TransactionDetail struct {
	TransactionDate  string `json:"transaction_date"`
	DiscountID       string `json:"discount_id"`
	DealID           string `json:"deal_id"`
	SettlementAmount int64  `json:"settlement_amount"`
	DiscountAmount   int64  `json:"discount_amount"`
}

// RecordEncoder renders records into the partner's fixed-format lines.
// Column widths and encodings are partner-contract details behind this
// boundary.
type RecordEncoder interface {
	EncodeDetail(p authorization.Partner, d DetailRecord) (string, error)
	EncodeMerchant(p authorization.Partner, m MerchantRecord) (string, error)
}

// Publisher hands TransactionDetails to the downstream publishing
// collaborator.
type Publisher interface {
	PublishTransactionDetails(ctx context.Context, details []TransactionDetail) error
}

// FileSink delivers an assembled settlement file to the partner transfer
// mechanism.
type FileSink interface {
	Deliver(ctx context.Context, p authorization.Partner, name string, lines []string) error
}

// ReferenceSequence names the per-partner counter that mints detail reference
// numbers.
func ReferenceSequence(p authorization.Partner) string {
	return "settlement:refnum:" + string(p)
}
