package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Invoice statuses as reported by the gateway. The gateway enforces no
// formal transition graph, so every reported status is treated as
// authoritative and re-applying one is idempotent.
const (
	StatusCreated  = "created"
	StatusPartial  = "partial"
	StatusPaid     = "paid"
	StatusOverpaid = "overpaid"
	StatusCanceled = "canceled"
	StatusExpired  = "expired"
)

// InvoiceIDPrefix is the canonical prefix of stored invoice identifiers.
// The gateway sometimes reports the bare uuid and sometimes the prefixed
// form; everything entering the system is normalized before use.
const InvoiceIDPrefix = "INV-"

// NormalizeInvoiceID prepends the canonical prefix when absent.
func NormalizeInvoiceID(id string) string {
	if id == "" || strings.HasPrefix(id, InvoiceIDPrefix) {
		return id
	}
	return InvoiceIDPrefix + id
}

// Invoice is the aggregate root: one payment request tracked from creation
// through settlement. Monetary fields are fixed-point decimals with 8
// fractional digits; floating point is never used for amounts.
type Invoice struct {
	ID        uint   `gorm:"primarykey" json:"-"`
	InvoiceID string `gorm:"uniqueIndex;not null" json:"invoice_id"`
	// OrderID is merchant-assigned and not unique: a canceled invoice may be
	// superseded by a new one for the same order.
	OrderID string `gorm:"index;not null" json:"order_id"`

	Amount         decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"amount"`
	AmountUSD      decimal.Decimal `gorm:"type:decimal(20,8)" json:"amount_usd"`
	ReceivedAmount decimal.Decimal `gorm:"type:decimal(20,8)" json:"received_amount"`
	Fee            decimal.Decimal `gorm:"type:decimal(20,8)" json:"fee"`
	ServiceFee     decimal.Decimal `gorm:"type:decimal(20,8)" json:"service_fee"`

	FiatCurrency   string  `gorm:"default:'USD'" json:"fiat_currency"`
	CryptoCurrency *string `json:"crypto_currency"`
	PaymentAddress *string `json:"payment_address"`
	PaymentLink    string  `json:"payment_link"`
	CustomerEmail  *string `json:"customer_email,omitempty"`
	TestMode       bool    `json:"test_mode"`
	Metadata       string  `json:"metadata,omitempty"`

	Status string `gorm:"not null;default:'created';index" json:"status"`

	ExpiryDate        *time.Time `json:"expiry_date"`
	PaidAt            *time.Time `json:"paid_at"`
	LastStatusCheckAt *time.Time `json:"last_status_check_at"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`

	Transactions []Transaction `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"transactions"`
}

// IsResolved reports whether the invoice has left the polling backlog.
func (i *Invoice) IsResolved() bool {
	return i.Status != StatusCreated && i.Status != StatusPartial
}

// IsPaid reports whether the invoice reached a settled state.
func (i *Invoice) IsPaid() bool {
	return i.Status == StatusPaid || i.Status == StatusOverpaid
}

// HasTransaction reports whether a payment with the given hash is already
// recorded on this invoice.
func (i *Invoice) HasTransaction(hash string) bool {
	for _, tx := range i.Transactions {
		if tx.TxHash == hash {
			return true
		}
	}
	return false
}
