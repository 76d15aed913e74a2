package repositories

import (
	"context"
	"errors"
	"time"

	"cryptopay/internal/models"
)

var (
	ErrInvoiceNotFound = errors.New("invoice not found")
	ErrInvalidInvoice  = errors.New("invalid invoice data")
)

// InvoiceRepository defines the persistence operations the reconciliation
// engine needs. Every single-invoice update goes through UpdateInvoice so
// the read-modify-write is serialized against concurrent writers.
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *models.Invoice) error
	GetByInvoiceID(ctx context.Context, invoiceID string) (*models.Invoice, error)

	// GetActiveByOrderID returns the newest non-canceled invoice for a
	// merchant order, backing the idempotent-create check.
	GetActiveByOrderID(ctx context.Context, orderID string) (*models.Invoice, error)

	// GetLatestByOrderID returns the most recently created invoice for an
	// order regardless of status, including canceled/superseded history.
	GetLatestByOrderID(ctx context.Context, orderID string) (*models.Invoice, error)

	// GetUnresolved returns invoices in created/partial status created
	// within the window, not yet expired, ordered by last_status_check_at
	// ascending with never-checked invoices first, capped at limit.
	GetUnresolved(ctx context.Context, window time.Duration, limit int) ([]models.Invoice, error)

	// UpdateInvoice runs a single-invoice read-modify-write as one database
	// transaction: the invoice is loaded under a row lock, apply mutates it
	// and returns the newly detected transactions, and everything is
	// persisted before the lock is released. A concurrent writer therefore
	// always sees the previously committed state, never a stale read.
	// Replayed transaction hashes are dropped by the composite unique index.
	UpdateInvoice(ctx context.Context, invoiceID string, apply func(*models.Invoice) []models.Transaction) error

	GetStatistics(ctx context.Context) (*models.InvoiceStatistics, error)
}
