// Package main is the entry point for the application.
// It initializes all dependencies, sets up the HTTP server,
// starts the invoice poll scheduler and handles graceful shutdown.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cryptopay/internal/config"
	"cryptopay/internal/repositories"
	"cryptopay/internal/routes"
	"cryptopay/internal/services/poller"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func main() {
	config.LoadEnv()
	cfg := config.Load()

	if err := repositories.InitDB(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if sqlDB, err := repositories.DB.DB(); err == nil {
			sqlDB.Close()
		}
		if repositories.CacheService != nil {
			repositories.CacheService.Close()
		}
	}()

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,HEAD",
	}))

	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// The postback endpoint is public; rate-limit it so the process cannot
	// be flooded with forged notifications.
	app.Use("/api/postback", limiter.New(limiter.Config{
		Max:        60,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(429).JSON(fiber.Map{
				"error": "Too many requests. Please try again later.",
			})
		},
	}))

	invoiceService := routes.SetupRoutes(app, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := poller.NewScheduler(invoiceService, poller.Config{
		StartupDelay: cfg.PollStartupDelay,
		Interval:     cfg.PollInterval,
		InvoiceDelay: cfg.PollInvoiceDelay,
		WindowHours:  cfg.PollWindowHours,
		BatchLimit:   cfg.PollBatchLimit,
	})
	pollerDone := make(chan struct{})
	go func() {
		defer close(pollerDone)
		scheduler.Run(ctx)
	}()

	go func() {
		if err := app.Listen(":" + config.GetEnv("PORT", "3000")); err != nil {
			log.Printf("server stopped: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("server shutdown: %v", err)
	}
	<-pollerDone
}
