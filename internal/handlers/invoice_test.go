package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cryptopay/internal/models"
	"cryptopay/internal/services/invoice"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newInvoiceApp(svc *MockInvoiceService) *fiber.App {
	app := fiber.New()
	h := NewInvoiceHandler(svc)
	app.Post("/api/invoices", h.CreateInvoice)
	app.Get("/api/invoices/stats", h.GetStatistics)
	app.Get("/api/invoices/:id", h.GetInvoice)
	app.Post("/api/invoices/:id/refresh", h.RefreshInvoice)
	return app
}

func TestCreateInvoiceValidation(t *testing.T) {
	svc := new(MockInvoiceService)
	app := newInvoiceApp(svc)

	for _, body := range []string{
		`{"order_id": "", "amount": 100}`,
		`{"order_id": "ORD-1", "amount": 0}`,
		`{"order_id": "ORD-1", "amount": -5}`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/api/invoices", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "body: %s", body)
	}
	svc.AssertNotCalled(t, "CreateInvoice", mock.Anything, mock.Anything)
}

func TestGetInvoiceNormalizesPrefix(t *testing.T) {
	svc := new(MockInvoiceService)
	app := newInvoiceApp(svc)

	inv := &models.Invoice{InvoiceID: "INV-ABC", Status: models.StatusCreated}
	svc.On("GetInvoice", mock.Anything, "INV-ABC").Return(inv, nil).Twice()

	for _, id := range []string{"INV-ABC", "ABC"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/invoices/"+id, nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}
	svc.AssertExpectations(t)
}

func TestRefreshFailureMapsToNotFound(t *testing.T) {
	svc := new(MockInvoiceService)
	app := newInvoiceApp(svc)

	// Even a remote-call failure surfaces as not-found on refresh.
	svc.On("ApplyPollingUpdate", mock.Anything, "INV-ABC").Return(invoice.ErrGatewayUnavailable)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/invoices/INV-ABC/refresh", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStatisticsSuccessRate(t *testing.T) {
	svc := new(MockInvoiceService)
	app := newInvoiceApp(svc)

	svc.On("GetStatistics", mock.Anything).Return(&models.InvoiceStatistics{
		Total: 3,
		Paid:  2,
	}, nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/invoices/stats", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Statistics use the same message/data envelope as every other read.
	var payload struct {
		Message string `json:"message"`
		Data    struct {
			SuccessRate string `json:"success_rate"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, "Statistics", payload.Message)
	assert.Equal(t, "66.67", payload.Data.SuccessRate)
}
