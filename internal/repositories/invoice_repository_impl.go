package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cryptopay/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type invoiceRepository struct {
	db *gorm.DB
}

// NewInvoiceRepository creates the gorm-backed InvoiceRepository.
func NewInvoiceRepository(db *gorm.DB) InvoiceRepository {
	return &invoiceRepository{db: db}
}

func (r *invoiceRepository) Create(ctx context.Context, invoice *models.Invoice) error {
	if invoice.InvoiceID == "" || invoice.OrderID == "" {
		return ErrInvalidInvoice
	}
	return r.db.WithContext(ctx).Create(invoice).Error
}

func (r *invoiceRepository) GetByInvoiceID(ctx context.Context, invoiceID string) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.WithContext(ctx).
		Preload("Transactions").
		Where("invoice_id = ?", invoiceID).
		First(&invoice).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepository) GetActiveByOrderID(ctx context.Context, orderID string) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.WithContext(ctx).
		Preload("Transactions").
		Where("order_id = ? AND status <> ?", orderID, models.StatusCanceled).
		Order("created_at DESC").
		First(&invoice).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepository) GetLatestByOrderID(ctx context.Context, orderID string) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.WithContext(ctx).
		Preload("Transactions").
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		First(&invoice).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepository) GetUnresolved(ctx context.Context, window time.Duration, limit int) ([]models.Invoice, error) {
	now := time.Now().UTC()
	cutoff := now.Add(-window)

	var invoices []models.Invoice
	err := r.db.WithContext(ctx).
		Where("status IN ?", []string{models.StatusCreated, models.StatusPartial}).
		Where("created_at >= ?", cutoff).
		Where("expiry_date IS NULL OR expiry_date > ?", now).
		Order("last_status_check_at ASC NULLS FIRST").
		Limit(limit).
		Find(&invoices).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load unresolved invoices: %w", err)
	}
	return invoices, nil
}

// UpdateInvoice serializes the whole read-modify-write: the invoice row is
// loaded FOR UPDATE inside the transaction, so a second writer blocks until
// the first commits and then mutates the committed state instead of a stale
// copy. The sqlite driver drops the locking clause and relies on sqlite's
// single-writer model instead. Duplicate hashes racing in from another
// writer are absorbed by ON CONFLICT DO NOTHING against the composite
// unique index, so concurrent poll/postback updates converge.
func (r *invoiceRepository) UpdateInvoice(ctx context.Context, invoiceID string, apply func(*models.Invoice) []models.Transaction) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var invoice models.Invoice
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Preload("Transactions").
			Where("invoice_id = ?", invoiceID).
			First(&invoice).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvoiceNotFound
			}
			return err
		}

		newTxs := apply(&invoice)

		if err := tx.Omit("Transactions").Save(&invoice).Error; err != nil {
			return fmt.Errorf("failed to save invoice: %w", err)
		}
		for i := range newTxs {
			newTxs[i].InvoiceID = invoice.ID
			err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&newTxs[i]).Error
			if err != nil {
				return fmt.Errorf("failed to save transaction %s: %w", newTxs[i].TxHash, err)
			}
		}
		return nil
	})
}

func (r *invoiceRepository) GetStatistics(ctx context.Context) (*models.InvoiceStatistics, error) {
	db := r.db.WithContext(ctx)
	now := time.Now().UTC()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	paidStatuses := []string{models.StatusPaid, models.StatusOverpaid}
	pendingStatuses := []string{models.StatusCreated, models.StatusPartial}

	var stats models.InvoiceStatistics
	counts := []struct {
		dest  *int64
		query *gorm.DB
	}{
		{&stats.Total, db.Model(&models.Invoice{})},
		{&stats.Paid, db.Model(&models.Invoice{}).Where("status IN ?", paidStatuses)},
		{&stats.Pending, db.Model(&models.Invoice{}).Where("status IN ?", pendingStatuses)},
		{&stats.Canceled, db.Model(&models.Invoice{}).Where("status = ?", models.StatusCanceled)},
		{&stats.CreatedToday, db.Model(&models.Invoice{}).Where("created_at >= ?", startOfDay)},
		{&stats.CreatedThisMonth, db.Model(&models.Invoice{}).Where("created_at >= ?", startOfMonth)},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dest).Error; err != nil {
			return nil, fmt.Errorf("failed to count invoices: %w", err)
		}
	}

	var totalUSD decimal.Decimal
	err := db.Model(&models.Invoice{}).
		Where("status IN ?", paidStatuses).
		Select("COALESCE(SUM(amount_usd), 0)").
		Row().Scan(&totalUSD)
	if err != nil {
		return nil, fmt.Errorf("failed to sum paid amounts: %w", err)
	}
	stats.TotalAmountUSD = totalUSD

	return &stats, nil
}
