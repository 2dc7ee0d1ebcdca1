// Package main is the entry point for the pizza-ordering API server.
//
// main only reads configuration, builds the logger and the external
// collaborators, and hands them to internal/server. All logic lives in the
// internal packages.
package main

import (
	"log/slog"
	"os"

	"github.com/sakif/cheesy-delights/internal/config"
	"github.com/sakif/cheesy-delights/internal/metrics"
	"github.com/sakif/cheesy-delights/internal/notify"
	"github.com/sakif/cheesy-delights/internal/payment"
	"github.com/sakif/cheesy-delights/internal/server"
)

func main() {
	// === 1. CONFIGURATION ===
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 2. LOGGING ===
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// === 3. STORE ===
	store, err := server.OpenStore(cfg.Store)
	if err != nil {
		logger.Error("failed to open store",
			slog.String("driver", cfg.Store.Driver),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	// === 4. COLLABORATORS ===
	// Without credentials the server still starts, but cards are never really
	// charged and receipts only go to the log.
	var charger payment.Charger = payment.Sandbox{}
	if cfg.Stripe.Enabled() {
		charger = payment.NewStripe(cfg.Stripe.BaseURL, cfg.Stripe.SecretKey, cfg.Stripe.Currency, logger)
	} else {
		logger.Warn("STRIPE_SECRET_KEY not set, using the sandbox charger")
	}

	var notifier notify.Notifier = notify.NewLogNotifier(logger)
	if cfg.Mailgun.Enabled() {
		notifier = notify.NewMailgun(notify.MailgunConfig{
			BaseURL: cfg.Mailgun.BaseURL,
			APIKey:  cfg.Mailgun.APIKey,
			Domain:  cfg.Mailgun.Domain,
			From:    cfg.Mailgun.From,
			Company: cfg.CompanyName,
		}, logger)
	} else {
		logger.Warn("MAILGUN_API_KEY, MAILGUN_DOMAIN or MAILGUN_FROM not set, receipts will only be logged")
	}

	// === 5. SERVE ===
	srv, err := server.New(cfg, server.Deps{
		Store:    store,
		Charger:  charger,
		Notifier: notifier,
		Metrics:  metrics.New(),
	}, logger)
	if err != nil {
		store.Close()
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT or SIGTERM, then closes the store.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
