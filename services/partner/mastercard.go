package partner

import (
	"cardlink-engine/pkg/errutil"
	"cardlink-engine/services/authorization"
)

// MasterCardAuthorizationRequest is the MasterCard-native payload. The
// acquirer reference number and issuer ICA must survive into settlement
// encoding untouched.
type MasterCardAuthorizationRequest struct {
	TransactionSequenceNumber string `json:"transaction_sequence_number" binding:"required"`
	BankCustomerNumber        string `json:"bank_customer_number" binding:"required"`
	MerchantICA               string `json:"merchant_ica" binding:"required"`
	MerchantID                string `json:"merchant_id" binding:"required"`
	AcquirerReferenceNumber   string `json:"acquirer_reference_number" binding:"required,arn"`
	TransactionAmount         string `json:"transaction_amount" binding:"required"`
	DiscountAmount            string `json:"discount_amount" binding:"required"`
	TransactionDate           string `json:"transaction_date" binding:"required"`
}

type MasterCardAuthorizationResponse struct {
	Code string `json:"response_code"`
}

func (r MasterCardAuthorizationResponse) ResponseCode() string {
	return r.Code
}

type MasterCardAdapter struct{}

func NewMasterCardAdapter() *MasterCardAdapter {
	return &MasterCardAdapter{}
}

func (a *MasterCardAdapter) MarshalAuthorization(ex *authorization.Exchange) error {
	req, ok := ex.Request.(*MasterCardAuthorizationRequest)
	if !ok {
		return badPayload()
	}

	if len(req.AcquirerReferenceNumber) != 23 {
		return errutil.ValidationFailed("malformed acquirer reference number", nil,
			errutil.WithDetails(errutil.Detail{Field: "acquirer_reference_number", Message: "must be 23 digits"}))
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
	auth.PartnerTransactionID = req.TransactionSequenceNumber
	auth.PartnerMerchantID = req.MerchantID
	auth.CardToken = req.BankCustomerNumber
	auth.BankCustomerNumber = req.BankCustomerNumber
	auth.MerchantICA = req.MerchantICA
	auth.AcquirerReferenceNumber = req.AcquirerReferenceNumber
	auth.SettlementAmount = settlement
	auth.DiscountAmount = discount
	auth.TransactionAt = txnAt

	ex.CardBrand = authorization.CardBrandMasterCard
	return nil
}

func (a *MasterCardAdapter) BuildAuthorizationResponse(ex *authorization.Exchange) authorization.PartnerResponse {
	return MasterCardAuthorizationResponse{Code: masterCardResponseCode(ex.Result)}
}

func masterCardResponseCode(result authorization.ResultCode) string {
	switch result {
	case authorization.ResultCreated:
		return "0000"
	case authorization.ResultDuplicate:
		return "0094"
	case authorization.ResultNotFound:
		return "0014"
	case authorization.ResultValidationFailed:
		return "0030"
	default:
		return "0096"
	}
}
