package models

import "github.com/shopspring/decimal"

// PostbackNotification is the asynchronous payment notification pushed by
// the gateway when an invoice changes state. It arrives either as JSON or
// as a form-urlencoded body where invoice_info is a JSON-encoded string;
// the ingress layer normalizes both into this type.
//
// The outer notification and the nested InvoiceInfo are two independent
// data sources: status fields come from the nested payload while the
// monetary fields of appended transactions come from the outer
// notification. That asymmetry is intentional and mirrors what the gateway
// actually sends.
type PostbackNotification struct {
	Status       string               `json:"status" form:"status"`
	InvoiceID    string               `json:"invoice_id" form:"invoice_id"`
	OrderID      string               `json:"order_id" form:"order_id"`
	AmountCrypto decimal.Decimal      `json:"amount_crypto" form:"amount_crypto"`
	Currency     string               `json:"currency" form:"currency"`
	Token        string               `json:"token" form:"token"`
	InvoiceInfo  *PostbackInvoiceInfo `json:"invoice_info" form:"-"`
}

// PostbackInvoiceInfo is the detailed invoice payload nested inside a
// postback. Its own invoice_status field, not the outer notification's
// status, drives the status transition.
type PostbackInvoiceInfo struct {
	UUID          string           `json:"uuid"`
	InvoiceStatus string           `json:"invoice_status"`
	Address       *string          `json:"address"`
	Received      decimal.Decimal  `json:"received"`
	Fee           decimal.Decimal  `json:"fee"`
	ServiceFee    decimal.Decimal  `json:"service_fee"`
	CurrencyInfo  PostbackCurrency `json:"currency"`
	DateFinished  string           `json:"date_finished"`
	TxList        []string         `json:"tx_list"`
}

// PostbackCurrency names the crypto currency of the nested payload.
type PostbackCurrency struct {
	FullCode string `json:"fullcode"`
}
