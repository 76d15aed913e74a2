package invoice

import (
	"context"

	"cryptopay/internal/models"

	"github.com/shopspring/decimal"
)

// Service is the reconciliation engine: the single owner of invoice state
// transitions. Updates arrive from two independent sources, the polling
// path and the postback path, and both reduce to the same apply primitive
// so replays and races converge.
type Service interface {
	CreateInvoice(ctx context.Context, params CreateInvoiceParams) (*models.Invoice, error)
	ApplyPollingUpdate(ctx context.Context, invoiceID string) error
	ApplyPostback(ctx context.Context, n *models.PostbackNotification) error

	GetInvoice(ctx context.Context, invoiceID string) (*models.Invoice, error)
	GetInvoiceByOrder(ctx context.Context, orderID string) (*models.Invoice, error)
	GetUnresolvedInvoices(ctx context.Context, maxAgeHours, limit int) ([]models.Invoice, error)
	GetStatistics(ctx context.Context) (*models.InvoiceStatistics, error)
}

// CreateInvoiceParams is the merchant-side input to invoice creation.
type CreateInvoiceParams struct {
	OrderID             string
	Amount              decimal.Decimal
	Currency            string
	Email               string
	CryptoCurrency      string
	AvailableCurrencies []string
	TimeToPayHours      int
	TimeToPayMinutes    int
	Metadata            string
}

// Cache is the narrow slice of the redis cache service the engine uses for
// read-through invoice lookups. A nil Cache disables caching.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
	Delete(ctx context.Context, keys ...string) error
}
