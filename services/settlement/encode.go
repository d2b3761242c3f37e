package settlement

import (
	"fmt"
	"strings"

	"cardlink-engine/services/authorization"
)

// Fixed-width column widths shared by all partner detail layouts.
const (
	widthOfferID   = 12
	widthARN       = 23
	widthToken     = 19
	widthAmount    = 10
	widthReference = 10
	widthMerchant  = 15
	widthCount     = 6
	widthTotal     = 12
)

// FixedWidthEncoder renders merchant and detail records as fixed-width lines.
// Fields that overflow their column are an encode failure, not a truncation.
type FixedWidthEncoder struct{}

func NewFixedWidthEncoder() *FixedWidthEncoder {
	return &FixedWidthEncoder{}
}

func (e *FixedWidthEncoder) EncodeDetail(p authorization.Partner, d DetailRecord) (string, error) {
	offer, err := padAlpha("offer_id", d.OfferID, widthOfferID)
	if err != nil {
		return "", err
	}
	arn, err := padAlpha("acquirer_reference_number", d.AcquirerReferenceNumber, widthARN)
	if err != nil {
		return "", err
	}
	token, err := padAlpha("token", d.Token, widthToken)
	if err != nil {
		return "", err
	}
	amount, err := padNumeric("discount_amount", d.DiscountAmount, widthAmount)
	if err != nil {
		return "", err
	}
	ref, err := padNumeric("reference_number", d.ReferenceNumber, widthReference)
	if err != nil {
		return "", err
	}

	return "D" + offer + arn + token + amount + d.TransactionDate.Format("20060102") + ref, nil
}

func (e *FixedWidthEncoder) EncodeMerchant(p authorization.Partner, m MerchantRecord) (string, error) {
	merchant, err := padAlpha("partner_merchant_id", m.PartnerMerchantID, widthMerchant)
	if err != nil {
		return "", err
	}
	count, err := padNumeric("detail_count", int64(len(m.Details)), widthCount)
	if err != nil {
		return "", err
	}
	total, err := padNumeric("total_discount", m.TotalDiscount(), widthTotal)
	if err != nil {
		return "", err
	}

	return "M" + merchant + count + total, nil
}

func padAlpha(field, value string, width int) (string, error) {
	if len(value) > width {
		return "", fmt.Errorf("field %s exceeds %d characters: %q", field, width, value)
	}
	return value + strings.Repeat(" ", width-len(value)), nil
}

func padNumeric(field string, value int64, width int) (string, error) {
	if value < 0 {
		return "", fmt.Errorf("field %s must not be negative: %d", field, value)
	}
	s := fmt.Sprintf("%0*d", width, value)
	if len(s) > width {
		return "", fmt.Errorf("field %s exceeds %d digits: %d", field, width, value)
	}
	return s, nil
}
