package partner

import (
	"time"

	"github.com/shopspring/decimal"

	"cardlink-engine/pkg/errutil"
	"cardlink-engine/services/authorization"
)

// ForPartner returns the adapter for a partner tag. The set is closed; an
// unknown tag is a caller bug, not a runtime branch to extend.
func ForPartner(p authorization.Partner) (authorization.PartnerAdapter, error) {
	switch p {
	case authorization.PartnerAmex:
		return NewAmexAdapter(), nil
	case authorization.PartnerMasterCard:
		return NewMasterCardAdapter(), nil
	case authorization.PartnerVisa:
		return NewVisaAdapter(), nil
	case authorization.PartnerFirstData:
		return NewFirstDataAdapter(), nil
	default:
		return nil, errutil.BadRequest("unsupported partner", nil)
	}
}

// DispatchModeFor fixes the notification timing contract per partner. Amex and
// Visa confirmations are awaited; MasterCard and First Data fire in the
// background.
func DispatchModeFor(p authorization.Partner) authorization.DispatchMode {
	switch p {
	case authorization.PartnerMasterCard, authorization.PartnerFirstData:
		return authorization.DispatchBackground
	default:
		return authorization.DispatchSynchronous
	}
}

// NewRequest returns a fresh native request payload for transport binding.
func NewRequest(p authorization.Partner) any {
	switch p {
	case authorization.PartnerAmex:
		return &AmexAuthorizationRequest{}
	case authorization.PartnerMasterCard:
		return &MasterCardAuthorizationRequest{}
	case authorization.PartnerVisa:
		return &VisaAuthorizationRequest{}
	case authorization.PartnerFirstData:
		return &FirstDataAuthorizationRequest{}
	default:
		return nil
	}
}

// parseAmount converts a decimal wire amount ("12.34") into integer cents.
// Anything that is not an exact two-decimal-place amount is rejected.
func parseAmount(field, value string) (int64, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return 0, errutil.ValidationFailed("malformed amount", err,
			errutil.WithDetails(errutil.Detail{Field: field, Message: "must be a decimal amount"}))
	}
	if d.IsNegative() {
		return 0, errutil.ValidationFailed("malformed amount", nil,
			errutil.WithDetails(errutil.Detail{Field: field, Message: "must not be negative"}))
	}

	cents := d.Shift(2)
	if !cents.IsInteger() {
		return 0, errutil.ValidationFailed("malformed amount", nil,
			errutil.WithDetails(errutil.Detail{Field: field, Message: "more than two decimal places"}))
	}

	return cents.IntPart(), nil
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseDate(field, value string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errutil.ValidationFailed("malformed transaction date", nil,
		errutil.WithDetails(errutil.Detail{Field: field, Message: "unrecognized date format"}))
}

func badPayload() error {
	return errutil.ValidationFailed("unexpected request payload type", nil)
}
