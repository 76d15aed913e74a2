package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"cryptopay/internal/models"
	"cryptopay/internal/services/invoice"
	"cryptopay/internal/services/verifier"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "postback-secret"

type MockInvoiceService struct {
	mock.Mock
}

func (m *MockInvoiceService) CreateInvoice(ctx context.Context, params invoice.CreateInvoiceParams) (*models.Invoice, error) {
	args := m.Called(ctx, params)
	inv, _ := args.Get(0).(*models.Invoice)
	return inv, args.Error(1)
}

func (m *MockInvoiceService) ApplyPollingUpdate(ctx context.Context, invoiceID string) error {
	return m.Called(ctx, invoiceID).Error(0)
}

func (m *MockInvoiceService) ApplyPostback(ctx context.Context, n *models.PostbackNotification) error {
	return m.Called(ctx, n).Error(0)
}

func (m *MockInvoiceService) GetInvoice(ctx context.Context, invoiceID string) (*models.Invoice, error) {
	args := m.Called(ctx, invoiceID)
	inv, _ := args.Get(0).(*models.Invoice)
	return inv, args.Error(1)
}

func (m *MockInvoiceService) GetInvoiceByOrder(ctx context.Context, orderID string) (*models.Invoice, error) {
	args := m.Called(ctx, orderID)
	inv, _ := args.Get(0).(*models.Invoice)
	return inv, args.Error(1)
}

func (m *MockInvoiceService) GetUnresolvedInvoices(ctx context.Context, maxAgeHours, limit int) ([]models.Invoice, error) {
	args := m.Called(ctx, maxAgeHours, limit)
	invs, _ := args.Get(0).([]models.Invoice)
	return invs, args.Error(1)
}

func (m *MockInvoiceService) GetStatistics(ctx context.Context) (*models.InvoiceStatistics, error) {
	args := m.Called(ctx)
	stats, _ := args.Get(0).(*models.InvoiceStatistics)
	return stats, args.Error(1)
}

func decMust(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func newPostbackApp(svc invoice.Service, secret string) *fiber.App {
	app := fiber.New()
	h := NewPostbackHandler(svc, verifier.New(secret))
	app.Post("/api/postback", h.Notify)
	app.Get("/api/postback/test", h.Test)
	return app
}

func signPostbackToken(t *testing.T, invoiceID string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp":        time.Now().Add(10 * time.Minute).Unix(),
		"invoice_id": invoiceID,
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func TestPostbackFormEncoded(t *testing.T) {
	svc := new(MockInvoiceService)
	app := newPostbackApp(svc, testSecret)

	var got *models.PostbackNotification
	svc.On("ApplyPostback", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		got = args.Get(1).(*models.PostbackNotification)
	}).Return(nil)

	form := url.Values{}
	form.Set("status", "success")
	form.Set("invoice_id", "INV-ABC")
	form.Set("order_id", "ORD-1")
	form.Set("amount_crypto", "0.005")
	form.Set("currency", "BTC")
	form.Set("token", signPostbackToken(t, "INV-ABC"))
	form.Set("invoice_info", `{"uuid":"ABC","invoice_status":"paid","received":98.5,"tx_list":["0xhash1"]}`)

	req := httptest.NewRequest(http.MethodPost, "/api/postback", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NotNil(t, got)
	assert.Equal(t, "INV-ABC", got.InvoiceID)
	assert.Equal(t, "ORD-1", got.OrderID)
	assert.Equal(t, "BTC", got.Currency)
	assert.True(t, got.AmountCrypto.Equal(decMust("0.005")))
	require.NotNil(t, got.InvoiceInfo)
	assert.Equal(t, "paid", got.InvoiceInfo.InvoiceStatus)
	assert.Equal(t, []string{"0xhash1"}, got.InvoiceInfo.TxList)
}

func TestPostbackJSON(t *testing.T) {
	svc := new(MockInvoiceService)
	app := newPostbackApp(svc, testSecret)
	svc.On("ApplyPostback", mock.Anything, mock.Anything).Return(nil)

	body := `{
		"status": "success",
		"invoice_id": "INV-ABC",
		"amount_crypto": 0.005,
		"currency": "BTC",
		"token": "` + signPostbackToken(t, "INV-ABC") + `",
		"invoice_info": {"uuid":"ABC","invoice_status":"paid","received":98.5}
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/postback", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	svc.AssertExpectations(t)
}

func TestPostbackMissingTokenOrInvoiceID(t *testing.T) {
	svc := new(MockInvoiceService)
	app := newPostbackApp(svc, testSecret)

	for _, body := range []string{
		`{"invoice_id": "INV-ABC"}`,
		`{"token": "something"}`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/api/postback", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	}
	svc.AssertNotCalled(t, "ApplyPostback", mock.Anything, mock.Anything)
}

func TestPostbackRejectedToken(t *testing.T) {
	svc := new(MockInvoiceService)
	app := newPostbackApp(svc, testSecret)

	body := `{"invoice_id": "INV-ABC", "token": "forged"}`
	req := httptest.NewRequest(http.MethodPost, "/api/postback", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	svc.AssertNotCalled(t, "ApplyPostback", mock.Anything, mock.Anything)
}

func TestPostbackUnknownInvoice(t *testing.T) {
	svc := new(MockInvoiceService)
	app := newPostbackApp(svc, testSecret)
	svc.On("ApplyPostback", mock.Anything, mock.Anything).Return(invoice.ErrInvoiceNotFound)

	body := `{"invoice_id": "INV-GHOST", "token": "` + signPostbackToken(t, "INV-GHOST") + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/postback", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPostbackLivenessProbe(t *testing.T) {
	svc := new(MockInvoiceService)
	app := newPostbackApp(svc, testSecret)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/postback/test", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
