package handlers

import (
	"errors"

	"cryptopay/internal/models"
	"cryptopay/internal/services/invoice"
	"cryptopay/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type InvoiceHandler struct {
	service invoice.Service
}

func NewInvoiceHandler(svc invoice.Service) *InvoiceHandler {
	return &InvoiceHandler{service: svc}
}

// CreateInvoice handles the merchant-facing invoice creation call.
func (h *InvoiceHandler) CreateInvoice(c *fiber.Ctx) error {
	var input struct {
		OrderID             string          `json:"order_id"`
		Amount              decimal.Decimal `json:"amount"`
		Currency            string          `json:"currency"`
		Email               string          `json:"email"`
		CryptoCurrency      string          `json:"cryptocurrency"`
		AvailableCurrencies []string        `json:"available_currencies"`
		TimeToPayHours      int             `json:"time_to_pay_hours"`
		TimeToPayMinutes    int             `json:"time_to_pay_minutes"`
		Metadata            string          `json:"metadata"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request format")
	}
	if input.OrderID == "" {
		return response.BadRequest(c, "order_id is required")
	}
	if !input.Amount.IsPositive() {
		return response.BadRequest(c, "amount must be greater than zero")
	}

	inv, err := h.service.CreateInvoice(c.Context(), invoice.CreateInvoiceParams{
		OrderID:             input.OrderID,
		Amount:              input.Amount,
		Currency:            input.Currency,
		Email:               input.Email,
		CryptoCurrency:      input.CryptoCurrency,
		AvailableCurrencies: input.AvailableCurrencies,
		TimeToPayHours:      input.TimeToPayHours,
		TimeToPayMinutes:    input.TimeToPayMinutes,
		Metadata:            input.Metadata,
	})
	if err != nil {
		if errors.Is(err, invoice.ErrInvalidOrderID) || errors.Is(err, invoice.ErrInvalidAmount) {
			return response.BadRequest(c, err.Error())
		}
		return response.ServerError(c, "Failed to create invoice")
	}

	return response.Success(c, "Invoice created", inv)
}

// GetInvoice looks an invoice up by gateway id, with or without the
// canonical prefix.
func (h *InvoiceHandler) GetInvoice(c *fiber.Ctx) error {
	id := models.NormalizeInvoiceID(c.Params("id"))
	inv, err := h.service.GetInvoice(c.Context(), id)
	if err != nil {
		if errors.Is(err, invoice.ErrInvoiceNotFound) {
			return response.NotFound(c, "Invoice not found")
		}
		return response.ServerError(c, "Failed to load invoice")
	}
	return response.Success(c, "Invoice found", inv)
}

// GetInvoiceByOrder returns the latest invoice for a merchant order.
func (h *InvoiceHandler) GetInvoiceByOrder(c *fiber.Ctx) error {
	inv, err := h.service.GetInvoiceByOrder(c.Context(), c.Params("orderID"))
	if err != nil {
		if errors.Is(err, invoice.ErrInvoiceNotFound) {
			return response.NotFound(c, "Invoice not found")
		}
		return response.ServerError(c, "Failed to load invoice")
	}
	return response.Success(c, "Invoice found", inv)
}

// RefreshInvoice forces an immediate polling update for one invoice and
// returns its reconciled state. Any update failure, including a remote-call
// failure, maps to a not-found response.
func (h *InvoiceHandler) RefreshInvoice(c *fiber.Ctx) error {
	id := models.NormalizeInvoiceID(c.Params("id"))
	if err := h.service.ApplyPollingUpdate(c.Context(), id); err != nil {
		return response.NotFound(c, "Invoice not found or refresh failed")
	}

	inv, err := h.service.GetInvoice(c.Context(), id)
	if err != nil {
		return response.NotFound(c, "Invoice not found")
	}
	return response.Success(c, "Invoice refreshed", inv)
}

// GetStatistics returns the raw aggregate counts plus the derived success
// rate (paid / total * 100, two decimals, zero when there are no invoices).
func (h *InvoiceHandler) GetStatistics(c *fiber.Ctx) error {
	stats, err := h.service.GetStatistics(c.Context())
	if err != nil {
		return response.ServerError(c, "Failed to load statistics")
	}

	successRate := decimal.Zero
	if stats.Total > 0 {
		successRate = decimal.NewFromInt(stats.Paid).
			Div(decimal.NewFromInt(stats.Total)).
			Mul(decimal.NewFromInt(100)).
			Round(2)
	}

	return response.Success(c, "Statistics", fiber.Map{
		"statistics":   stats,
		"success_rate": successRate,
	})
}
