package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CurrencyUnknown is recorded when the gateway reports a payment without
// naming the crypto currency.
const CurrencyUnknown = "unknown"

// Transaction is a single detected on-chain payment credited toward an
// invoice. The hash is the identity key: the composite unique index makes
// replayed detection events no-ops at the database level as well.
type Transaction struct {
	ID        uint   `gorm:"primarykey" json:"-"`
	InvoiceID uint   `gorm:"not null;uniqueIndex:idx_invoice_tx_hash" json:"-"`
	TxHash    string `gorm:"not null;uniqueIndex:idx_invoice_tx_hash" json:"tx_hash"`

	Amount   decimal.Decimal `gorm:"type:decimal(20,8)" json:"amount"`
	Currency string          `gorm:"default:'unknown'" json:"currency"`

	DetectedAt    time.Time `json:"detected_at"`
	Confirmations int       `gorm:"default:0" json:"confirmations"`
	CreatedAt     time.Time `json:"-"`
}
