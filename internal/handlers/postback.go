package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"strings"

	"cryptopay/internal/models"
	"cryptopay/internal/services/invoice"
	"cryptopay/internal/services/verifier"
	"cryptopay/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// PostbackHandler receives the gateway's asynchronous payment
// notifications. The token is verified before any state is touched.
type PostbackHandler struct {
	service  invoice.Service
	verifier *verifier.Verifier
}

func NewPostbackHandler(svc invoice.Service, v *verifier.Verifier) *PostbackHandler {
	return &PostbackHandler{service: svc, verifier: v}
}

// Notify handles a postback delivered as JSON or form-urlencoded. The
// response always carries a body so the gateway's delivery retries can
// distinguish outcomes by status code.
func (h *PostbackHandler) Notify(c *fiber.Ctx) error {
	n, err := parseNotification(c)
	if err != nil {
		return response.BadRequest(c, "Invalid postback body")
	}
	if n.Token == "" || n.InvoiceID == "" {
		return response.BadRequest(c, "token and invoice_id are required")
	}

	if err := h.verifier.VerifyToken(n.Token, n.InvoiceID); err != nil {
		log.Printf("postback rejected for invoice %s: %v", n.InvoiceID, err)
		return response.Unauthorized(c)
	}

	if err := h.service.ApplyPostback(c.Context(), n); err != nil {
		if errors.Is(err, invoice.ErrInvoiceNotFound) {
			return response.NotFound(c, "Invoice not found")
		}
		return response.ServerError(c, "Failed to process postback")
	}

	return c.JSON(fiber.Map{
		"status":     "ok",
		"invoice_id": models.NormalizeInvoiceID(n.InvoiceID),
	})
}

// Test is the liveness probe the gateway calls to validate the postback URL.
func (h *PostbackHandler) Test(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// parseNotification normalizes both accepted body encodings. In the form
// encoding invoice_info arrives as a JSON-encoded string.
func parseNotification(c *fiber.Ctx) (*models.PostbackNotification, error) {
	if strings.Contains(c.Get(fiber.HeaderContentType), fiber.MIMEApplicationForm) {
		return parseFormNotification(c)
	}

	var n models.PostbackNotification
	if err := c.BodyParser(&n); err != nil {
		return nil, err
	}
	return &n, nil
}

func parseFormNotification(c *fiber.Ctx) (*models.PostbackNotification, error) {
	n := &models.PostbackNotification{
		Status:    c.FormValue("status"),
		InvoiceID: c.FormValue("invoice_id"),
		OrderID:   c.FormValue("order_id"),
		Currency:  c.FormValue("currency"),
		Token:     c.FormValue("token"),
	}

	if raw := c.FormValue("amount_crypto"); raw != "" {
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, err
		}
		n.AmountCrypto = amount
	}

	if raw := c.FormValue("invoice_info"); raw != "" {
		var info models.PostbackInvoiceInfo
		if err := json.Unmarshal([]byte(raw), &info); err != nil {
			return nil, err
		}
		n.InvoiceInfo = &info
	}
	return n, nil
}
