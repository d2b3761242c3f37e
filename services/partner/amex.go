package partner

import (
	"cardlink-engine/services/authorization"
)

// AmexAuthorizationRequest is the Amex-native authorization payload. CMAlias
// is the card-member token registered for the offer.
type AmexAuthorizationRequest struct {
	TransactionID     string `json:"transaction_id" binding:"required"`
	CMAlias           string `json:"cm_alias" binding:"required"`
	MerchantNumber    string `json:"merchant_number" binding:"required"`
	OfferID           string `json:"offer_id"`
	TransactionAmount string `json:"transaction_amount" binding:"required"`
	DiscountAmount    string `json:"discount_amount" binding:"required"`
	TransactionDate   string `json:"transaction_date" binding:"required"`
}

type AmexAuthorizationResponse struct {
	RecordNumber    string `json:"record_number"`
	ActionCode      string `json:"action_code"`
	DiscountDisplay string `json:"discount_display,omitempty"`
}

func (r AmexAuthorizationResponse) ResponseCode() string {
	return r.ActionCode
}

type AmexAdapter struct{}

func NewAmexAdapter() *AmexAdapter {
	return &AmexAdapter{}
}

func (a *AmexAdapter) MarshalAuthorization(ex *authorization.Exchange) error {
	req, ok := ex.Request.(*AmexAuthorizationRequest)
	if !ok {
		return badPayload()
	}

	settlement, err := parseAmount("transaction_amount", req.TransactionAmount)
	if err != nil {
		return err
	}
	discount, err := parseAmount("discount_amount", req.DiscountAmount)
	if err != nil {
		return err
	}
	txnAt, err := parseDate("transaction_date", req.TransactionDate)
	if err != nil {
		return err
	}

	auth := ex.Authorization
	auth.PartnerTransactionID = req.TransactionID
	auth.PartnerMerchantID = req.MerchantNumber
	auth.OfferID = req.OfferID
	auth.CardToken = req.CMAlias
	auth.SettlementAmount = settlement
	auth.DiscountAmount = discount
	auth.TransactionAt = txnAt

	ex.CardBrand = authorization.CardBrandAmex
	return nil
}

func (a *AmexAdapter) BuildAuthorizationResponse(ex *authorization.Exchange) authorization.PartnerResponse {
	return AmexAuthorizationResponse{
		RecordNumber:    ex.Authorization.PartnerTransactionID,
		ActionCode:      amexActionCode(ex.Result),
		DiscountDisplay: ex.DiscountDisplay,
	}
}

// amexActionCode maps a commit result onto the ISO 8583 style action codes the
// Amex interface expects.
func amexActionCode(result authorization.ResultCode) string {
	switch result {
	case authorization.ResultCreated:
		return "00"
	case authorization.ResultDuplicate:
		return "94"
	case authorization.ResultNotFound:
		return "14"
	case authorization.ResultValidationFailed:
		return "30"
	default:
		return "96"
	}
}
