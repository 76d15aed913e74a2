package invoice

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"cryptopay/internal/gateway"
	"cryptopay/internal/models"
	"cryptopay/internal/repositories"
	"cryptopay/internal/repositories/cache"
)

type service struct {
	repo            repositories.InvoiceRepository
	gateway         gateway.Client
	cache           Cache
	shopID          string
	defaultCurrency string
	now             func() time.Time
}

// NewService creates the reconciliation engine. cacheSvc may be nil, which
// disables the read-through invoice cache.
func NewService(repo repositories.InvoiceRepository, gw gateway.Client, cacheSvc Cache, shopID, defaultCurrency string) Service {
	if defaultCurrency == "" {
		defaultCurrency = "USD"
	}
	return &service{
		repo:            repo,
		gateway:         gw,
		cache:           cacheSvc,
		shopID:          shopID,
		defaultCurrency: defaultCurrency,
		now:             time.Now,
	}
}

// CreateInvoice creates a gateway invoice for a merchant order. Creation is
// idempotent per order: when a non-canceled invoice already exists for the
// order it is returned unchanged and no remote call is made, so client
// retries cannot double-create or double-charge.
func (s *service) CreateInvoice(ctx context.Context, params CreateInvoiceParams) (*models.Invoice, error) {
	if strings.TrimSpace(params.OrderID) == "" {
		return nil, ErrInvalidOrderID
	}
	if !params.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	existing, err := s.repo.GetActiveByOrderID(ctx, params.OrderID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repositories.ErrInvoiceNotFound) {
		return nil, fmt.Errorf("failed to check existing invoice: %w", err)
	}

	currency := params.Currency
	if currency == "" {
		currency = s.defaultCurrency
	}
	req := gateway.CreateInvoiceRequest{
		ShopID:              s.shopID,
		Amount:              params.Amount,
		Currency:            currency,
		OrderID:             params.OrderID,
		Email:               params.Email,
		CryptoCurrency:      params.CryptoCurrency,
		AvailableCurrencies: params.AvailableCurrencies,
	}
	if params.TimeToPayHours > 0 || params.TimeToPayMinutes > 0 {
		req.TimeToPay = &gateway.TimeToPay{
			Hours:   params.TimeToPayHours,
			Minutes: params.TimeToPayMinutes,
		}
	}

	result, err := s.gateway.CreateInvoice(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}

	now := s.now()
	inv := &models.Invoice{
		InvoiceID:      models.NormalizeInvoiceID(result.UUID),
		OrderID:        params.OrderID,
		Amount:         result.Amount,
		AmountUSD:      result.AmountUSD,
		Fee:            result.Fee,
		ServiceFee:     result.ServiceFee,
		FiatCurrency:   currency,
		PaymentAddress: result.Address,
		PaymentLink:    result.Link,
		TestMode:       result.TestMode,
		Metadata:       params.Metadata,
		Status:         models.StatusCreated,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if result.FiatCurrency != "" {
		inv.FiatCurrency = result.FiatCurrency
	}
	if result.Status != "" {
		inv.Status = result.Status
	}
	if result.CurrencyInfo != nil && result.CurrencyInfo.FullCode != "" {
		code := result.CurrencyInfo.FullCode
		inv.CryptoCurrency = &code
	}
	if params.Email != "" {
		email := params.Email
		inv.CustomerEmail = &email
	}
	if result.ExpiryDate != nil {
		if t, ok := parseRemoteTime(*result.ExpiryDate); ok {
			inv.ExpiryDate = &t
		}
	}

	if err := s.repo.Create(ctx, inv); err != nil {
		return nil, fmt.Errorf("failed to persist invoice: %w", err)
	}
	s.invalidate(ctx, inv.InvoiceID, inv.OrderID)

	log.Printf("invoice %s created for order %s (%s %s)",
		inv.InvoiceID, inv.OrderID, inv.Amount.String(), inv.FiatCurrency)
	return inv, nil
}

// ApplyPollingUpdate refreshes one invoice from the gateway's
// get-invoice-info call. Existence is checked before the remote call so an
// unknown invoice never reaches the gateway; the reconciliation itself runs
// inside UpdateInvoice against a freshly locked load, so a writer that
// raced in between cannot be overwritten from stale state. On a gateway
// failure the invoice is left untouched.
func (s *service) ApplyPollingUpdate(ctx context.Context, invoiceID string) error {
	id := models.NormalizeInvoiceID(invoiceID)
	if _, err := s.repo.GetByInvoiceID(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrInvoiceNotFound) {
			return ErrInvoiceNotFound
		}
		return err
	}

	uuid := strings.TrimPrefix(id, models.InvoiceIDPrefix)
	infos, err := s.gateway.GetInvoiceInfo(ctx, []string{uuid})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	if len(infos) == 0 {
		return fmt.Errorf("%w: no info for invoice %s", ErrGatewayUnavailable, id)
	}

	now := s.now()
	var prev, next, orderID string
	err = s.repo.UpdateInvoice(ctx, id, func(inv *models.Invoice) []models.Transaction {
		prev = inv.Status
		inv.LastStatusCheckAt = &now
		newTxs := applyUpdate(inv, reconcileFromPoll(infos[0]), now)
		next = inv.Status
		orderID = inv.OrderID
		return newTxs
	})
	if err != nil {
		if errors.Is(err, repositories.ErrInvoiceNotFound) {
			return ErrInvoiceNotFound
		}
		return fmt.Errorf("failed to persist polling update: %w", err)
	}
	s.invalidate(ctx, id, orderID)

	if prev != next {
		log.Printf("invoice %s status %s -> %s (poll)", id, prev, next)
	}
	return nil
}

// ApplyPostback applies an admitted postback notification. Postbacks never
// create invoices; one for an unknown invoice is a failure. A notification
// without the detailed invoice_info payload is acknowledged without any
// field mutation, there is nothing to reconcile.
func (s *service) ApplyPostback(ctx context.Context, n *models.PostbackNotification) error {
	id := models.NormalizeInvoiceID(n.InvoiceID)
	if _, err := s.repo.GetByInvoiceID(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrInvoiceNotFound) {
			return ErrInvoiceNotFound
		}
		return err
	}

	if n.InvoiceInfo == nil {
		return nil
	}

	now := s.now()
	var prev, next, orderID string
	err := s.repo.UpdateInvoice(ctx, id, func(inv *models.Invoice) []models.Transaction {
		prev = inv.Status
		newTxs := applyUpdate(inv, reconcileFromPostback(n), now)
		next = inv.Status
		orderID = inv.OrderID
		return newTxs
	})
	if err != nil {
		if errors.Is(err, repositories.ErrInvoiceNotFound) {
			return ErrInvoiceNotFound
		}
		return fmt.Errorf("failed to persist postback update: %w", err)
	}
	s.invalidate(ctx, id, orderID)

	if prev != next {
		log.Printf("invoice %s status %s -> %s (postback)", id, prev, next)
	}
	return nil
}

func (s *service) GetInvoice(ctx context.Context, invoiceID string) (*models.Invoice, error) {
	id := models.NormalizeInvoiceID(invoiceID)
	if s.cache != nil {
		var cached models.Invoice
		if ok, err := s.cache.Get(ctx, cache.InvoiceKey(id), &cached); err == nil && ok {
			return &cached, nil
		}
	}

	inv, err := s.repo.GetByInvoiceID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrInvoiceNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, cache.InvoiceKey(id), inv); err != nil {
			log.Printf("failed to cache invoice %s: %v", id, err)
		}
	}
	return inv, nil
}

// GetInvoiceByOrder returns the most recently created invoice for the
// order, including canceled/superseded history. Reads go through the
// order cache key, which every write path on the invoice drops.
func (s *service) GetInvoiceByOrder(ctx context.Context, orderID string) (*models.Invoice, error) {
	if s.cache != nil {
		var cached models.Invoice
		if ok, err := s.cache.Get(ctx, cache.OrderKey(orderID), &cached); err == nil && ok {
			return &cached, nil
		}
	}

	inv, err := s.repo.GetLatestByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrInvoiceNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, cache.OrderKey(orderID), inv); err != nil {
			log.Printf("failed to cache invoice for order %s: %v", orderID, err)
		}
	}
	return inv, nil
}

// GetUnresolvedInvoices returns the polling backlog: created/partial
// invoices within the monitoring window, never-checked ones first, capped so
// one cycle cannot overload the gateway.
func (s *service) GetUnresolvedInvoices(ctx context.Context, maxAgeHours, limit int) ([]models.Invoice, error) {
	if maxAgeHours <= 0 {
		maxAgeHours = 24
	}
	if limit <= 0 || limit > gateway.MaxInfoBatchSize {
		limit = gateway.MaxInfoBatchSize
	}
	return s.repo.GetUnresolved(ctx, time.Duration(maxAgeHours)*time.Hour, limit)
}

func (s *service) GetStatistics(ctx context.Context) (*models.InvoiceStatistics, error) {
	return s.repo.GetStatistics(ctx)
}

// invalidate drops the cache entries touched by a write. Best effort: a
// cache failure never fails the operation.
func (s *service) invalidate(ctx context.Context, invoiceID, orderID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cache.InvoiceKey(invoiceID), cache.OrderKey(orderID)); err != nil {
		log.Printf("failed to invalidate cache for invoice %s: %v", invoiceID, err)
	}
}
