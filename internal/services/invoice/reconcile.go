package invoice

import (
	"time"

	"cryptopay/internal/gateway"
	"cryptopay/internal/models"

	"github.com/shopspring/decimal"
)

// statusUpdate is the common shape both update sources reduce to. Nil
// pointer fields mean "leave the invoice field untouched"; the polling path
// never carries fees while the postback path does.
type statusUpdate struct {
	status         string
	received       decimal.Decimal
	cryptoCurrency *string
	address        *string
	fee            *decimal.Decimal
	serviceFee     *decimal.Decimal

	// paidTime is the remote-reported completion timestamp, used only the
	// first time the invoice enters a paid state. Nil falls back to now.
	paidTime *time.Time

	// txHashes are the reported on-chain payments; txAmount/txCurrency are
	// the monetary fields every newly appended transaction gets.
	txHashes   []string
	txAmount   decimal.Decimal
	txCurrency string
}

// applyUpdate mutates the invoice in place and returns the transactions that
// were not yet recorded. paidAt is set at most once and duplicate hashes are
// no-ops, which makes re-applying the same update idempotent regardless of
// how the two sources interleave.
func applyUpdate(inv *models.Invoice, u statusUpdate, now time.Time) []models.Transaction {
	if u.status != "" {
		inv.Status = u.status
	}
	inv.ReceivedAmount = u.received
	if u.cryptoCurrency != nil {
		inv.CryptoCurrency = u.cryptoCurrency
	}
	if u.address != nil {
		inv.PaymentAddress = u.address
	}
	if u.fee != nil {
		inv.Fee = *u.fee
	}
	if u.serviceFee != nil {
		inv.ServiceFee = *u.serviceFee
	}
	inv.UpdatedAt = now

	if !inv.IsPaid() {
		return nil
	}

	if inv.PaidAt == nil {
		paid := now
		if u.paidTime != nil {
			paid = *u.paidTime
		}
		inv.PaidAt = &paid
	}

	currency := u.txCurrency
	if currency == "" {
		currency = models.CurrencyUnknown
	}
	var newTxs []models.Transaction
	for _, hash := range u.txHashes {
		if hash == "" || inv.HasTransaction(hash) {
			continue
		}
		tx := models.Transaction{
			TxHash:     hash,
			Amount:     u.txAmount,
			Currency:   currency,
			DetectedAt: now,
		}
		inv.Transactions = append(inv.Transactions, tx)
		newTxs = append(newTxs, tx)
	}
	return newTxs
}

// reconcileFromPoll maps a get-invoice-info result onto the update shape.
// Transaction amounts come from the reported received amount.
func reconcileFromPoll(info gateway.InvoiceInfo) statusUpdate {
	u := statusUpdate{
		status:   info.Status,
		received: info.Received,
		address:  info.Address,
		txHashes: info.TxList,
		txAmount: info.Received,
	}
	if info.CurrencyInfo != nil && info.CurrencyInfo.FullCode != "" {
		code := info.CurrencyInfo.FullCode
		u.cryptoCurrency = &code
		u.txCurrency = code
	}
	return u
}

// reconcileFromPostback maps a postback's nested payload onto the update
// shape. Status fields come from the nested invoice_info while the
// transaction's amount and currency come from the outer notification; the
// gateway sends these as two independent sources and the asymmetry is kept.
func reconcileFromPostback(n *models.PostbackNotification) statusUpdate {
	info := n.InvoiceInfo
	u := statusUpdate{
		status:     info.InvoiceStatus,
		received:   info.Received,
		address:    info.Address,
		fee:        &info.Fee,
		serviceFee: &info.ServiceFee,
		txHashes:   info.TxList,
		txAmount:   n.AmountCrypto,
		txCurrency: n.Currency,
	}
	if info.CurrencyInfo.FullCode != "" {
		code := info.CurrencyInfo.FullCode
		u.cryptoCurrency = &code
	}
	if t, ok := parseRemoteTime(info.DateFinished); ok {
		u.paidTime = &t
	}
	return u
}

var remoteTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"02.01.2006 15:04:05",
}

// parseRemoteTime parses the gateway's completion timestamp, which has been
// seen in more than one format.
func parseRemoteTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range remoteTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
