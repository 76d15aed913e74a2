// Package routes defines the API routing configuration.
// It wires repositories, the gateway client and the services into their
// handlers and registers every route.
package routes

import (
	"cryptopay/internal/config"
	"cryptopay/internal/gateway"
	"cryptopay/internal/handlers"
	"cryptopay/internal/repositories"
	"cryptopay/internal/services/invoice"
	"cryptopay/internal/services/verifier"

	"github.com/gofiber/fiber/v2"
)

// SetupRoutes configures all application routes and returns the
// reconciliation engine so main can hand it to the poll scheduler.
func SetupRoutes(app *fiber.App, cfg config.Config) invoice.Service {
	invoiceRepo := repositories.NewInvoiceRepository(repositories.DB)
	gatewayClient := gateway.NewHTTPClient(cfg.APIBaseURL, cfg.APIKey)

	var cacheSvc invoice.Cache
	if repositories.CacheService != nil {
		cacheSvc = repositories.CacheService
	}

	invoiceService := invoice.NewService(invoiceRepo, gatewayClient, cacheSvc, cfg.ShopID, cfg.DefaultCurrency)
	postbackVerifier := verifier.New(cfg.PostbackSecret)

	invoiceHandler := handlers.NewInvoiceHandler(invoiceService)
	postbackHandler := handlers.NewPostbackHandler(invoiceService, postbackVerifier)

	app.Get("/health", handlers.HealthCheck)

	api := app.Group("/api")
	api.Post("/invoices", invoiceHandler.CreateInvoice)
	api.Get("/invoices/stats", invoiceHandler.GetStatistics)
	api.Get("/invoices/order/:orderID", invoiceHandler.GetInvoiceByOrder)
	api.Get("/invoices/:id", invoiceHandler.GetInvoice)
	api.Post("/invoices/:id/refresh", invoiceHandler.RefreshInvoice)

	api.Post("/postback", postbackHandler.Notify)
	api.Get("/postback/test", postbackHandler.Test)

	return invoiceService
}
