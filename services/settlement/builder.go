package settlement

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"

	"cardlink-engine/pkg/sequence"
	"cardlink-engine/services/authorization"
)

// Builder groups committed authorizations into merchant records and allocates
// a reference number per detail. It runs as a single-threaded pass over one
// partner's authorizations; the sequence store is the only shared state.
type Builder struct {
	allocator sequence.Allocator
	encoder   RecordEncoder
}

func NewBuilder(allocator sequence.Allocator, encoder RecordEncoder) *Builder {
	return &Builder{allocator: allocator, encoder: encoder}
}

// BuildResult is the outcome of one settlement build pass.
type BuildResult struct {
	// Merchants maps partner-merchant id to its record, one per merchant.
	Merchants map[string]*MerchantRecord
	// Settled holds the authorization ids encoded into the file.
	Settled []snowflake.ID
	// Skipped holds authorization ids dropped after a failed encode; their
	// reference allocations were rolled back.
	Skipped []snowflake.ID
}

// Build partitions the authorizations by partner-merchant id, keeping input
// order within each merchant so reference numbers track transaction
// chronology. When a detail fails to encode after its reference number was
// allocated, the allocation is released via Previous before moving on; leaked
// reference numbers would break the audit trail downstream.
func (b *Builder) Build(ctx context.Context, p authorization.Partner, auths []*authorization.Authorization) (*BuildResult, error) {
	seqName := ReferenceSequence(p)
	result := &BuildResult{
		Merchants: make(map[string]*MerchantRecord),
	}

	for _, auth := range auths {
		ref, err := b.allocator.Next(ctx, seqName)
		if err != nil {
			return nil, err
		}

		detail := DetailRecord{
			OfferID:                 auth.OfferID,
			AcquirerReferenceNumber: auth.AcquirerReferenceNumber,
			Token:                   auth.CardToken,
			DiscountAmount:          auth.DiscountAmount,
			TransactionDate:         auth.TransactionAt,
			ReferenceNumber:         ref,
		}

		line, err := b.encoder.EncodeDetail(p, detail)
		if err != nil {
			zap.L().Warn("detail record failed to encode, releasing reference number",
				zap.String("partner", string(p)),
				zap.String("partner_merchant_id", auth.PartnerMerchantID),
				zap.Int64("reference_number", ref),
				zap.Error(err),
			)
			if _, rbErr := b.allocator.Previous(ctx, seqName); rbErr != nil {
				return nil, rbErr
			}
			result.Skipped = append(result.Skipped, auth.ID)
			continue
		}
		detail.Line = line

		record, ok := result.Merchants[auth.PartnerMerchantID]
		if !ok {
			record = &MerchantRecord{PartnerMerchantID: auth.PartnerMerchantID}
			result.Merchants[auth.PartnerMerchantID] = record
		}
		record.Details = append(record.Details, detail)
		result.Settled = append(result.Settled, auth.ID)
	}

	return result, nil
}
