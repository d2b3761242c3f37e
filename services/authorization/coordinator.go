package authorization

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Coordinator commits a canonical authorization through the storage boundary
// and derives the post-commit display fields.
type Coordinator struct {
	store Store
}

func NewCoordinator(store Store) *Coordinator {
	return &Coordinator{store: store}
}

// Commit stores the exchange's authorization and records the ResultCode on the
// exchange. Storage errors propagate unchanged. On ResultCreated the rendered
// discount string is written back for the adapter to consume.
func (c *Coordinator) Commit(ctx context.Context, ex *Exchange) (ResultCode, error) {
	result, err := c.store.AddAuthorization(ctx, ex.Authorization)
	ex.Result = result
	if err != nil {
		ex.Log().Error("authorization commit failed",
			zap.String("partner", string(ex.Partner)),
			zap.String("partner_transaction_id", ex.Authorization.PartnerTransactionID),
			zap.Error(err),
		)
		return result, err
	}

	if result == ResultCreated {
		ex.DiscountDisplay = FormatDiscount(ex.Authorization.DiscountAmount)
	}

	return result, nil
}

// FormatDiscount renders a discount amount in cents as a display string with
// two decimal places. Decimal arithmetic keeps amounts like 100000001 exact.
func FormatDiscount(cents int64) string {
	return "$" + decimal.New(cents, -2).StringFixed(2)
}
