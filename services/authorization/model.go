package authorization

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
)

// Partner identifies a payment-network partner. The set is closed; executors
// and adapters are selected by this tag at construction time.
type Partner string

const (
	PartnerAmex       Partner = "amex"
	PartnerMasterCard Partner = "mastercard"
	PartnerVisa       Partner = "visa"
	PartnerFirstData  Partner = "firstdata"
)

func Partners() []Partner {
	return []Partner{PartnerAmex, PartnerMasterCard, PartnerVisa, PartnerFirstData}
}

// CardBrand tags the card network carried on notifications.
type CardBrand string

const (
	CardBrandAmex       CardBrand = "AMEX"
	CardBrandMasterCard CardBrand = "MASTERCARD"
	CardBrandVisa       CardBrand = "VISA"
	CardBrandDiscover   CardBrand = "DISCOVER"
)

// ResultCode is the enumerated outcome of one authorization commit.
type ResultCode int

const (
	ResultNone ResultCode = iota
	ResultCreated
	ResultDuplicate
	ResultError
	ResultNotFound
	ResultValidationFailed
)

func (r ResultCode) String() string {
	switch r {
	case ResultCreated:
		return "created"
	case ResultDuplicate:
		return "duplicate"
	case ResultError:
		return "error"
	case ResultNotFound:
		return "not_found"
	case ResultValidationFailed:
		return "validation_failed"
	default:
		return "none"
	}
}

// Authorization statuses.
const (
	StatusCommitted = "committed"
	StatusSettled   = "settled"
)

// Authorization is the canonical, partner-agnostic record of one card-linked
// transaction event. Partner fields required later for settlement encoding
// (acquirer reference number, bank customer number, merchant ICA, token) are
// preserved verbatim. Amounts are integer minor-currency units.
type Authorization struct {
	ID                      snowflake.ID `gorm:"column:authorization_id;primaryKey;autoIncrement:false"`
	Partner                 string       `gorm:"column:partner;uniqueIndex:idx_partner_txn;not null"`
	PartnerTransactionID    string       `gorm:"column:partner_transaction_id;uniqueIndex:idx_partner_txn;not null"`
	PartnerMerchantID       string       `gorm:"column:partner_merchant_id;index;not null"`
	OfferID                 string       `gorm:"column:offer_id"`
	DealID                  string       `gorm:"column:deal_id"`
	CardToken               string       `gorm:"column:card_token;not null"`
	BankCustomerNumber      string       `gorm:"column:bank_customer_number"`
	MerchantICA             string       `gorm:"column:merchant_ica"`
	AcquirerReferenceNumber string       `gorm:"column:acquirer_reference_number"`
	SettlementAmount        int64        `gorm:"column:settlement_amount;not null"`
	DiscountAmount          int64        `gorm:"column:discount_amount;not null"`
	TransactionAt           time.Time    `gorm:"column:transaction_at;not null"`
	Status                  string       `gorm:"column:status;default:'committed'"`
	SettledAt               *time.Time   `gorm:"column:settled_at"`
	CreatedAt               time.Time    `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt               time.Time    `gorm:"column:updated_at;autoUpdateTime"`
}

func (Authorization) TableName() string {
	return "authorizations"
}

// Exchange is the request-scoped state passed by pointer through the
// adapter → coordinator → executor pipeline. It replaces the keyed context bag
// of older designs with named, typed fields; it is never shared across
// requests.
type Exchange struct {
	Partner       Partner
	CardBrand     CardBrand
	Request       any
	Authorization *Authorization
	Result        ResultCode

	// DiscountDisplay is the human-readable discount string rendered by the
	// coordinator after a Created commit, e.g. "$12.34".
	DiscountDisplay string

	Logger *zap.Logger
}

func (ex *Exchange) Log() *zap.Logger {
	if ex.Logger != nil {
		return ex.Logger
	}
	return zap.L()
}

// PartnerResponse is the partner-native reply payload built for every request,
// success or failure.
type PartnerResponse interface {
	ResponseCode() string
}

// PartnerAdapter marshals a partner-native request into the canonical model
// and a commit result back into the partner-native response. Adapters never
// retry and never touch storage.
type PartnerAdapter interface {
	MarshalAuthorization(ex *Exchange) error
	BuildAuthorizationResponse(ex *Exchange) PartnerResponse
}

// Store is the authorization persistence boundary. AddAuthorization is
// idempotency-aware: resubmitting an already-committed partner transaction
// returns ResultDuplicate without writing a second row.
type Store interface {
	AddAuthorization(ctx context.Context, auth *Authorization) (ResultCode, error)
}

// CardNotification is handed to the notification collaborator after a Created
// commit.
type CardNotification struct {
	Partner              Partner   `json:"partner"`
	CardBrand            CardBrand `json:"card_brand"`
	CardToken            string    `json:"card_token"`
	PartnerTransactionID string    `json:"partner_transaction_id"`
	DiscountDisplay      string    `json:"discount_display"`
}

// Dispatcher delivers card-authorization notifications. Executors decide per
// partner whether delivery is awaited or fired in the background.
type Dispatcher interface {
	SendNotification(ctx context.Context, n CardNotification) error
}
