package partner

import (
	"cardlink-engine/services/authorization"
)

// VisaAuthorizationRequest is the Visa-native payload. CardID is the VTS token
// reference for the enrolled card.
type VisaAuthorizationRequest struct {
	TransactionID           string `json:"transaction_id" binding:"required"`
	CardID                  string `json:"card_id" binding:"required"`
	VisaMerchantID          string `json:"visa_merchant_id" binding:"required"`
	OfferID                 string `json:"offer_id"`
	AcquirerReferenceNumber string `json:"acquirer_reference_number"`
	TransactionAmount       string `json:"transaction_amount" binding:"required"`
	DiscountAmount          string `json:"discount_amount" binding:"required"`
	TransactionDate         string `json:"transaction_date" binding:"required"`
}

type VisaAuthorizationResponse struct {
	StatusCode      string `json:"status_code"`
	DiscountDisplay string `json:"discount_display,omitempty"`
}

func (r VisaAuthorizationResponse) ResponseCode() string {
	return r.StatusCode
}

type VisaAdapter struct{}

func NewVisaAdapter() *VisaAdapter {
	return &VisaAdapter{}
}

func (a *VisaAdapter) MarshalAuthorization(ex *authorization.Exchange) error {
	req, ok := ex.Request.(*VisaAuthorizationRequest)
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
	auth.PartnerMerchantID = req.VisaMerchantID
	auth.OfferID = req.OfferID
	auth.CardToken = req.CardID
	auth.AcquirerReferenceNumber = req.AcquirerReferenceNumber
	auth.SettlementAmount = settlement
	auth.DiscountAmount = discount
	auth.TransactionAt = txnAt

	ex.CardBrand = authorization.CardBrandVisa
	return nil
}

func (a *VisaAdapter) BuildAuthorizationResponse(ex *authorization.Exchange) authorization.PartnerResponse {
	return VisaAuthorizationResponse{
		StatusCode:      visaStatusCode(ex.Result),
		DiscountDisplay: ex.DiscountDisplay,
	}
}

func visaStatusCode(result authorization.ResultCode) string {
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
