package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fiatops/custody-backoffice/internal/config"
	"github.com/fiatops/custody-backoffice/internal/handler"
	"github.com/fiatops/custody-backoffice/internal/logging"
	"github.com/fiatops/custody-backoffice/internal/lookup"
	"github.com/fiatops/custody-backoffice/internal/middleware"
	"github.com/fiatops/custody-backoffice/internal/repository"
	"github.com/fiatops/custody-backoffice/internal/service"
	claimsvc "github.com/fiatops/custody-backoffice/internal/service/claim"
	ledgersvc "github.com/fiatops/custody-backoffice/internal/service/ledger"
	reconsvc "github.com/fiatops/custody-backoffice/internal/service/recon"
	withdrawalsvc "github.com/fiatops/custody-backoffice/internal/service/withdrawal"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Init("custody-backoffice", cfg.LogLevel, cfg.AppEnv)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	db, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
	})
	cancel()
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	claimRepo := repository.NewClaimRepository(db)
	withdrawalRepo := repository.NewWithdrawalRepository(db)
	reconRepo := repository.NewReconRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	lookupRepo := repository.NewLookupRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	operatorRepo := repository.NewOperatorRepository(db)
	idempotencyRepo := repository.NewIdempotencyRepository(db)

	matchWindow := time.Duration(cfg.MatchWindowHours) * time.Hour
	reconService := reconsvc.NewService(reconRepo, claimRepo, db, matchWindow)
	claimService := claimsvc.NewService(claimRepo, ledgerRepo, auditRepo, reconService, db)
	lookupService := lookup.NewService(lookupRepo)
	withdrawalService := withdrawalsvc.NewService(withdrawalRepo, ledgerRepo, lookupService, auditRepo, db)
	ledgerService := ledgersvc.NewService(ledgerRepo)
	voucherClient := service.NewVoucherClient(cfg.VoucherStoreURL)

	jwtExpiry := time.Duration(cfg.JWTExpiryHours) * time.Hour
	authHandler := handler.NewAuthHandler(operatorRepo, cfg.JWTSecret, jwtExpiry)
	claimHandler := handler.NewClaimHandler(claimService)
	withdrawalHandler := handler.NewWithdrawalHandler(withdrawalService)
	reconHandler := handler.NewReconHandler(reconService)
	lookupHandler := handler.NewLookupHandler(lookupService)
	ledgerHandler := handler.NewLedgerHandler(ledgerService)
	uploadHandler := handler.NewUploadHandler(voucherClient)
	healthHandler := handler.NewHealthHandler(db)

	authMW := middleware.Auth(cfg.JWTSecret)
	idempotencyMW := middleware.Idempotency(idempotencyRepo)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", healthHandler.Liveness)
	mux.HandleFunc("GET /health/ready", healthHandler.Readiness)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)

	mux.Handle("GET /api/v1/claims", authMW(http.HandlerFunc(claimHandler.List)))
	mux.Handle("GET /api/v1/claims/{id}", authMW(http.HandlerFunc(claimHandler.Get)))
	mux.Handle("POST /api/v1/claims/action", authMW(idempotencyMW(http.HandlerFunc(claimHandler.Action))))
	mux.Handle("POST /api/v1/claims/batch-action", authMW(idempotencyMW(http.HandlerFunc(claimHandler.BatchAction))))

	mux.Handle("GET /api/v1/withdrawals", authMW(http.HandlerFunc(withdrawalHandler.List)))
	mux.Handle("GET /api/v1/withdrawals/{id}", authMW(http.HandlerFunc(withdrawalHandler.Get)))
	mux.Handle("POST /api/v1/withdrawals/action", authMW(idempotencyMW(http.HandlerFunc(withdrawalHandler.Action))))
	mux.HandleFunc("POST /api/v1/withdrawals/{id}/cancel", withdrawalHandler.Cancel)

	mux.Handle("GET /api/v1/reconciliation/stats", authMW(http.HandlerFunc(reconHandler.Stats)))
	mux.Handle("GET /api/v1/reconciliation/records", authMW(http.HandlerFunc(reconHandler.ListRecords)))
	mux.Handle("POST /api/v1/reconciliation/rematch", authMW(http.HandlerFunc(reconHandler.Rematch)))
	mux.Handle("POST /api/v1/reconciliation/statements", authMW(http.HandlerFunc(reconHandler.ImportStatements)))

	mux.Handle("GET /api/v1/lookup/channels", authMW(http.HandlerFunc(lookupHandler.Channels)))
	mux.Handle("GET /api/v1/lookup/banks", authMW(http.HandlerFunc(lookupHandler.Banks)))
	mux.Handle("GET /api/v1/lookup/bank-accounts", authMW(http.HandlerFunc(lookupHandler.BankAccounts)))
	mux.Handle("GET /api/v1/lookup/out-cash-fee", authMW(http.HandlerFunc(lookupHandler.OutCashFee)))

	mux.Handle("GET /api/v1/ledger/{customerID}/balances", authMW(http.HandlerFunc(ledgerHandler.Balances)))
	mux.Handle("GET /api/v1/ledger/{customerID}/entries", authMW(http.HandlerFunc(ledgerHandler.Entries)))

	mux.Handle("POST /api/v1/upload/voucher", authMW(http.HandlerFunc(uploadHandler.UploadVoucher)))

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
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
