package partner

import (
	"strings"

	"cardlink-engine/services/authorization"
)

// FirstDataAuthorizationRequest is the First Data-native payload. First Data
// carries mixed card brands, so the brand rides on the request.
type FirstDataAuthorizationRequest struct {
	TransactionID           string `json:"transaction_id" binding:"required"`
	TokenNumber             string `json:"token_number" binding:"required"`
	MerchantID              string `json:"merchant_id" binding:"required"`
	OfferID                 string `json:"offer_id"`
	CardType                string `json:"card_type"`
	AcquirerReferenceNumber string `json:"acquirer_reference_number"`
	TransactionAmount       string `json:"transaction_amount" binding:"required"`
	DiscountAmount          string `json:"discount_amount" binding:"required"`
	TransactionDate         string `json:"transaction_date" binding:"required"`
}

type FirstDataAuthorizationResponse struct {
	Code string `json:"response_code"`
}

func (r FirstDataAuthorizationResponse) ResponseCode() string {
	return r.Code
}

type FirstDataAdapter struct{}

func NewFirstDataAdapter() *FirstDataAdapter {
	return &FirstDataAdapter{}
}

func (a *FirstDataAdapter) MarshalAuthorization(ex *authorization.Exchange) error {
	req, ok := ex.Request.(*FirstDataAuthorizationRequest)
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
	auth.PartnerMerchantID = req.MerchantID
	auth.OfferID = req.OfferID
	auth.CardToken = req.TokenNumber
	auth.AcquirerReferenceNumber = req.AcquirerReferenceNumber
	auth.SettlementAmount = settlement
	auth.DiscountAmount = discount
	auth.TransactionAt = txnAt

	ex.CardBrand = firstDataCardBrand(req.CardType)
	return nil
}

func (a *FirstDataAdapter) BuildAuthorizationResponse(ex *authorization.Exchange) authorization.PartnerResponse {
	return FirstDataAuthorizationResponse{Code: firstDataResponseCode(ex.Result)}
}

func firstDataCardBrand(cardType string) authorization.CardBrand {
	switch strings.ToLower(cardType) {
	case "visa":
		return authorization.CardBrandVisa
	case "mastercard":
		return authorization.CardBrandMasterCard
	case "amex":
		return authorization.CardBrandAmex
	default:
		return authorization.CardBrandDiscover
	}
}

func firstDataResponseCode(result authorization.ResultCode) string {
	switch result {
	case authorization.ResultCreated:
		return "000"
	case authorization.ResultDuplicate:
		return "094"
	case authorization.ResultNotFound:
		return "014"
	case authorization.ResultValidationFailed:
		return "030"
	default:
		return "096"
	}
}
