package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/myfinancial/backend/internal/config"
	"github.com/myfinancial/backend/internal/handler"
	"github.com/myfinancial/backend/internal/logging"
	"github.com/myfinancial/backend/internal/middleware"
	"github.com/myfinancial/backend/internal/repository"
	"github.com/myfinancial/backend/internal/service/invoice"
	"github.com/myfinancial/backend/internal/service/ledger"
	"github.com/myfinancial/backend/internal/service/payments"
	"github.com/myfinancial/backend/internal/service/summary"
)

const jwtExpiry = 24 * time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Init("myfinancial-api", cfg.LogLevel, cfg.AppEnv)

	db, err := connectDB(cfg)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	users := repository.NewUserRepository(db)
	profiles := repository.NewProfileRepository(db)
	cards := repository.NewCardRepository(db)
	invoices := repository.NewInvoiceRepository(db)
	fixed := repository.NewFixedPaymentRepository(db)
	variable := repository.NewVariablePaymentRepository(db)
	obligations := repository.NewObligationRepository(db)
	rates := repository.NewRateRepository(db)

	paymentSvc := payments.NewService(cards, fixed, variable)
	invoiceSvc := invoice.NewService(invoices, cards, obligations, db)
	ledgerSvc := ledger.NewService(obligations, fixed, variable, invoices, db)
	summarySvc := summary.NewService(obligations, variable, rates, profiles, summary.RatePolicy(cfg.RatePolicy))

	authHandler := handler.NewAuthHandler(users, cfg.JWTSecret, jwtExpiry)
	cardHandler := handler.NewCardHandler(paymentSvc)
	invoiceHandler := handler.NewInvoiceHandler(invoiceSvc)
	paymentHandler := handler.NewPaymentHandler(paymentSvc)
	obligationHandler := handler.NewObligationHandler(ledgerSvc, cfg.DueDay)
	reportHandler := handler.NewReportHandler(summarySvc)
	healthHandler := handler.NewHealthHandler(db)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler.Liveness)
	mux.HandleFunc("GET /health/ready", healthHandler.Readiness)
	mux.HandleFunc("POST /api/v1/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)

	protected := http.NewServeMux()
	protected.HandleFunc("POST /api/v1/cards", cardHandler.Create)
	protected.HandleFunc("GET /api/v1/cards", cardHandler.List)
	protected.HandleFunc("GET /api/v1/cards/{id}", cardHandler.Get)
	protected.HandleFunc("POST /api/v1/cards/{id}/invoices", invoiceHandler.CreateInitial)
	protected.HandleFunc("GET /api/v1/cards/{id}/invoices", invoiceHandler.ListByCard)
	protected.HandleFunc("GET /api/v1/invoices/{id}", invoiceHandler.Get)
	protected.HandleFunc("POST /api/v1/invoices/{id}/close", invoiceHandler.Close)
	protected.HandleFunc("GET /api/v1/invoices/{id}/totals", invoiceHandler.Totals)
	protected.HandleFunc("POST /api/v1/payments/fixed", paymentHandler.CreateFixed)
	protected.HandleFunc("POST /api/v1/payments/variable", paymentHandler.CreateVariable)
	protected.HandleFunc("POST /api/v1/obligations", obligationHandler.Schedule)
	protected.HandleFunc("POST /api/v1/obligations/schedule-month", obligationHandler.ScheduleMonth)
	protected.HandleFunc("GET /api/v1/obligations", obligationHandler.List)
	protected.HandleFunc("GET /api/v1/obligations/summary", obligationHandler.Summary)
	protected.HandleFunc("GET /api/v1/obligations/{id}", obligationHandler.Get)
	protected.HandleFunc("POST /api/v1/obligations/{id}/pay", obligationHandler.Pay)
	protected.HandleFunc("POST /api/v1/obligations/{id}/unpay", obligationHandler.Unpay)
	protected.HandleFunc("GET /api/v1/reports/summary", reportHandler.Summary)

	mux.Handle("/api/v1/", middleware.Auth(cfg.JWTSecret)(protected))

	root := middleware.Tracing(middleware.Logging(middleware.Recovery(mux)))

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           root,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func connectDB(cfg *config.Config) (*sql.DB, error) {
	pool := repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
	}

	var db *sql.DB
	var err error
	for i := range 30 {
		db, err = repository.NewPostgresDB(context.Background(), cfg.DatabaseURL, pool)
		if err == nil {
			return db, nil
		}
		slog.Info("waiting for database", "attempt", i+1)
		time.Sleep(time.Second)
	}

	return nil, fmt.Errorf("connectDB: gave up after 30 attempts: %w", err)
}
