package gateway

import "github.com/shopspring/decimal"

// CreateInvoiceRequest is the outbound create-invoice call body.
type CreateInvoiceRequest struct {
	ShopID              string          `json:"shop_id"`
	Amount              decimal.Decimal `json:"amount"`
	Currency            string          `json:"currency"`
	OrderID             string          `json:"order_id"`
	Email               string          `json:"email,omitempty"`
	CryptoCurrency      string          `json:"cryptocurrency,omitempty"`
	AvailableCurrencies []string        `json:"available_currencies,omitempty"`
	TimeToPay           *TimeToPay      `json:"time_to_pay,omitempty"`
}

// TimeToPay bounds how long the payer has before the invoice expires.
type TimeToPay struct {
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
}

// CurrencyInfo names the crypto currency assigned to an invoice.
type CurrencyInfo struct {
	FullCode string `json:"fullcode"`
}

// InvoiceResult is the gateway's view of a freshly created invoice.
type InvoiceResult struct {
	UUID           string          `json:"uuid"`
	Created        string          `json:"created"`
	Address        *string         `json:"address"`
	ExpiryDate     *string         `json:"expiry_date"`
	Amount         decimal.Decimal `json:"amount"`
	AmountUSD      decimal.Decimal `json:"amount_usd"`
	Fee            decimal.Decimal `json:"fee"`
	ServiceFee     decimal.Decimal `json:"service_fee"`
	SideCommission string          `json:"side_commission"`
	Status         string          `json:"status"`
	Link           string          `json:"link"`
	FiatCurrency   string          `json:"fiat_currency"`
	CurrencyInfo   *CurrencyInfo   `json:"currency"`
	TestMode       bool            `json:"test_mode"`
}

// InvoiceInfo is one entry of a get-invoice-info batch result.
type InvoiceInfo struct {
	UUID         string          `json:"uuid"`
	Address      *string         `json:"address"`
	Received     decimal.Decimal `json:"received"`
	Fee          decimal.Decimal `json:"fee"`
	ServiceFee   decimal.Decimal `json:"service_fee"`
	Status       string          `json:"status"`
	CurrencyInfo *CurrencyInfo   `json:"currency"`
	TxList       []string        `json:"tx_list"`
}

type createInvoiceResponse struct {
	Status string         `json:"status"`
	Result *InvoiceResult `json:"result"`
}

type invoiceInfoResponse struct {
	Status string        `json:"status"`
	Result []InvoiceInfo `json:"result"`
}
