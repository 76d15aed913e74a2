// Package poller drives the reconciliation engine's polling path over the
// unresolved-invoice backlog on a fixed cadence.
package poller

import (
	"context"
	"log"
	"time"

	"cryptopay/internal/services/invoice"
)

// Config tunes the scheduler. Zero values fall back to the defaults below.
type Config struct {
	// StartupDelay is the warm-up wait before the first cycle so dependent
	// services can finish initializing.
	StartupDelay time.Duration
	// Interval is the sleep between cycles.
	Interval time.Duration
	// InvoiceDelay is the pause between two invoices within one cycle,
	// bounding the outbound request rate.
	InvoiceDelay time.Duration
	// WindowHours is the monitoring window for the backlog query.
	WindowHours int
	// BatchLimit caps how many invoices one cycle may process.
	BatchLimit int
}

func (c *Config) applyDefaults() {
	if c.StartupDelay <= 0 {
		c.StartupDelay = 10 * time.Second
	}
	if c.Interval <= 0 {
		c.Interval = 60 * time.Second
	}
	if c.InvoiceDelay <= 0 {
		c.InvoiceDelay = 500 * time.Millisecond
	}
	if c.WindowHours <= 0 {
		c.WindowHours = 24
	}
	if c.BatchLimit <= 0 {
		c.BatchLimit = 100
	}
}

// Scheduler runs the polling loop. Invoices within a cycle are processed
// strictly sequentially; a per-invoice failure is counted and never aborts
// the cycle.
type Scheduler struct {
	invoices invoice.Service
	cfg      Config
}

// NewScheduler creates a Scheduler over the reconciliation engine.
func NewScheduler(svc invoice.Service, cfg Config) *Scheduler {
	cfg.applyDefaults()
	return &Scheduler{invoices: svc, cfg: cfg}
}

// Run blocks until ctx is canceled. Cancellation is honored at every
// suspension point: the warm-up delay, the inter-invoice delay and the
// inter-cycle sleep.
func (s *Scheduler) Run(ctx context.Context) {
	if !sleepCtx(ctx, s.cfg.StartupDelay) {
		return
	}
	log.Printf("invoice poller started (interval=%s window=%dh limit=%d)",
		s.cfg.Interval, s.cfg.WindowHours, s.cfg.BatchLimit)

	for {
		s.runCycle(ctx)
		if !sleepCtx(ctx, s.cfg.Interval) {
			log.Println("invoice poller stopped")
			return
		}
	}
}

// runCycle attempts every selected invoice exactly once.
func (s *Scheduler) runCycle(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	backlog, err := s.invoices.GetUnresolvedInvoices(ctx, s.cfg.WindowHours, s.cfg.BatchLimit)
	if err != nil {
		log.Printf("poll cycle: failed to load backlog: %v", err)
		return
	}
	if len(backlog) == 0 {
		return
	}

	var failed int
	for i, inv := range backlog {
		if i > 0 && !sleepCtx(ctx, s.cfg.InvoiceDelay) {
			return
		}
		if err := s.invoices.ApplyPollingUpdate(ctx, inv.InvoiceID); err != nil {
			failed++
			log.Printf("poll cycle: invoice %s: %v", inv.InvoiceID, err)
		}
	}
	log.Printf("poll cycle: processed %d invoices, %d failed", len(backlog), failed)
}

// sleepCtx sleeps for d or until ctx is canceled, reporting whether the
// full duration elapsed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
