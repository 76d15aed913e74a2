package models

import "github.com/shopspring/decimal"

// InvoiceStatistics aggregates raw invoice counts. Day and month buckets
// are UTC calendar buckets. The derived success rate is computed by the
// caller, never stored.
type InvoiceStatistics struct {
	Total            int64           `json:"total"`
	Paid             int64           `json:"paid"`
	Pending          int64           `json:"pending"`
	Canceled         int64           `json:"canceled"`
	CreatedToday     int64           `json:"created_today"`
	CreatedThisMonth int64           `json:"created_this_month"`
	TotalAmountUSD   decimal.Decimal `json:"total_amount_usd"`
}
