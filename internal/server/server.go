// Package server wires the store, services, handlers, and middleware into an
// HTTP server.
//
// This is the composition root: every dependency is constructed in New (or
// passed in through Deps) and injected downward. Handlers only see services;
// services only see the repository.Store interface.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/cheesy-delights/internal/auth"
	"github.com/sakif/cheesy-delights/internal/config"
	"github.com/sakif/cheesy-delights/internal/handler"
	"github.com/sakif/cheesy-delights/internal/metrics"
	"github.com/sakif/cheesy-delights/internal/middleware"
	"github.com/sakif/cheesy-delights/internal/notify"
	"github.com/sakif/cheesy-delights/internal/payment"
	"github.com/sakif/cheesy-delights/internal/repository"
	"github.com/sakif/cheesy-delights/internal/repository/file"
	"github.com/sakif/cheesy-delights/internal/repository/sqlite"
	"github.com/sakif/cheesy-delights/internal/service"
	"github.com/sakif/cheesy-delights/internal/worker"
)

// Deps are the collaborators a Server runs against. main builds the real
// ones; tests pass fakes.
type Deps struct {
	Store    repository.Store
	Charger  payment.Charger
	Notifier notify.Notifier
	Metrics  *metrics.Metrics
}

// Server represents the HTTP server and all its dependencies.
//
// The Server owns the store: Start closes it during graceful shutdown.
type Server struct {
	router  *chi.Mux
	config  config.Config
	logger  *slog.Logger
	store   repository.Store
	metrics *metrics.Metrics
	menu    *service.MenuService
	auditor *worker.Auditor
}

// OpenStore opens the backend named by cfg.Driver.
func OpenStore(cfg config.StoreConfig) (repository.Store, error) {
	switch cfg.Driver {
	case config.DriverFile:
		return file.New(cfg.DataDir)
	case config.DriverSQLite:
		if cfg.DBPath != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory: %w", err)
			}
		}
		return sqlite.New(cfg.DBPath)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// New builds the services and routes. Metrics is created when deps leaves it nil.
func New(cfg config.Config, deps Deps, logger *slog.Logger) (*Server, error) {
	if deps.Store == nil || deps.Charger == nil || deps.Notifier == nil {
		return nil, errors.New("server: store, charger, and notifier are required")
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}

	s := &Server{
		router:  chi.NewRouter(),
		config:  cfg,
		logger:  logger,
		store:   deps.Store,
		metrics: deps.Metrics,
	}
	s.setupRoutes(deps)
	return s, nil
}

// setupRoutes builds the routing table once. It is never modified afterwards.
//
// ROUTES:
//
//	POST/GET/PUT/DELETE  /api/users
//	POST/GET/PUT/DELETE  /api/tokens
//	GET                  /api/menu, /api/items
//	POST/GET/PUT         /api/carts
//	POST/GET             /api/orders
//	GET                  /api/ping, /metrics
//
// Unknown paths get a JSON 404, known paths with another verb a JSON 405.
//
// MIDDLEWARE ORDER: request id first so every later log line has it, then
// panic recovery, request logging, metrics, and finally the token header.
func (s *Server) setupRoutes(deps Deps) {
	passwords := auth.NewPasswordServiceWithCost(s.config.BcryptCost)
	tokens := auth.NewTokenService(s.store, passwords)

	userService := service.NewUserService(s.store, tokens, passwords, s.logger)
	tokenService := service.NewTokenService(tokens, s.logger)
	cartService := service.NewCartService(s.store, tokens, s.logger)
	orderService := service.NewOrderService(s.store, tokens, deps.Charger, deps.Notifier, s.logger,
		service.WithCollaboratorTimeout(s.config.CollaboratorTimeout),
		service.WithRecorder(s.metrics),
	)
	s.menu = service.NewMenuService(s.store, s.logger)
	s.auditor = worker.NewAuditor(s.store, s.logger, s.config.AuditInterval, s.metrics)

	users := handler.NewUserHandler(userService, s.logger)
	tokenHandler := handler.NewTokenHandler(tokenService, s.logger)
	menu := handler.NewMenuHandler(s.menu, s.logger)
	carts := handler.NewCartHandler(cartService, s.logger)
	orders := handler.NewOrderHandler(orderService, s.logger)

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.Metrics(s.metrics))
	s.router.Use(auth.WithToken)

	s.router.NotFound(handler.NotFound)
	s.router.MethodNotAllowed(handler.MethodNotAllowed)

	s.router.Handle("/metrics", s.metrics.Handler())

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/ping", handler.Ping)

		r.Post("/users", users.HandleCreate)
		r.Get("/users", users.HandleGet)
		r.Put("/users", users.HandleUpdate)
		r.Delete("/users", users.HandleDelete)

		r.Post("/tokens", tokenHandler.HandleCreate)
		r.Get("/tokens", tokenHandler.HandleGet)
		r.Put("/tokens", tokenHandler.HandleExtend)
		r.Delete("/tokens", tokenHandler.HandleDelete)

		r.Get("/menu", menu.HandleList)
		r.Get("/items", menu.HandleGetItem)

		r.Post("/carts", carts.HandleCreate)
		r.Get("/carts", carts.HandleGet)
		r.Put("/carts", carts.HandleUpdate)

		r.Post("/orders", orders.HandleCreate)
		r.Get("/orders", orders.HandleGet)
	})
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Prepare seeds the menu. It must run before the server takes traffic.
func (s *Server) Prepare(ctx context.Context) error {
	if _, err := s.menu.Seed(ctx); err != nil {
		return fmt.Errorf("seeding menu: %w", err)
	}
	return nil
}

// Start seeds the menu, starts the audit worker, and serves until SIGINT or
// SIGTERM.
//
// GRACEFUL SHUTDOWN:
//  1. Stop accepting new connections.
//  2. Wait up to 30s for in-flight requests, including running checkouts.
//  3. Stop the audit worker.
//  4. Close the store.
func (s *Server) Start() error {
	defer s.store.Close()

	if err := s.Prepare(context.Background()); err != nil {
		return err
	}

	s.auditor.Start()
	defer s.auditor.Stop()

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", s.config.HTTP.Port),
		Handler:     s.router,
		ReadTimeout: 15 * time.Second,
		// A checkout makes two collaborator calls, each bounded separately.
		WriteTimeout: 15*time.Second + 2*s.config.CollaboratorTimeout,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.HTTP.Port),
			slog.String("env", s.config.Env),
			slog.String("store", s.config.Store.Driver),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
