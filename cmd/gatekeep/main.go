package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/ericfisherdev/gatekeep/internal/adapter/driven/hashing"
	sqliteadapter "github.com/ericfisherdev/gatekeep/internal/adapter/driven/sqlite"
	httphandler "github.com/ericfisherdev/gatekeep/internal/adapter/driving/http"
	"github.com/ericfisherdev/gatekeep/internal/application"
	"github.com/ericfisherdev/gatekeep/internal/config"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on missing keys).
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// 2. Install the process logger.
	logger := newLogger(os.Stderr, cfg)
	slog.SetDefault(logger)
	logger.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"hasher", cfg.Hasher,
		"token_ttl", cfg.TokenTTL,
		"trust_proxy", cfg.TrustProxy,
	)

	// 3. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()
	logger.Info("database opened", "path", cfg.DBPath)

	// 5. Run migrations on writer connection.
	schemaVersion, err := sqliteadapter.RunMigrations(db.Writer)
	if err != nil {
		return err
	}
	logger.Info("migrations complete", "schema_version", schemaVersion)

	// 6. Wire adapters.
	siteStore := sqliteadapter.NewSiteCredentialRepo(db, cfg.SecretKey)
	userStore := sqliteadapter.NewUserRepo(db)
	roleStore := sqliteadapter.NewRoleRepo(db)
	tokenStore := sqliteadapter.NewTokenRepo(db)
	customerStore := sqliteadapter.NewCustomerRepo(db)
	postStore := sqliteadapter.NewPostRepo(db)

	hasher, err := hashing.New(cfg.Hasher)
	if err != nil {
		return err
	}

	// 7. Create application services.
	tokenSvc, err := application.NewTokenService(application.TokenSettings{
		SigningKey: cfg.JWTKey,
		Issuer:     cfg.JWTIssuer,
		Audience:   cfg.JWTAudience,
		TTL:        cfg.TokenTTL,
	}, tokenStore)
	if err != nil {
		return err
	}

	gate := application.NewAccessGate(siteStore, logger)
	authSvc := application.NewAuthService(userStore, roleStore, tokenSvc, hasher, logger)
	customerSvc := application.NewCustomerService(customerStore)
	postSvc := application.NewPostService(postStore, customerStore)

	// 7.5. Drop ledger entries that expired while the server was down.
	if n, err := tokenSvc.PruneExpired(ctx); err != nil {
		logger.Warn("token prune failed", "error", err)
	} else if n > 0 {
		logger.Info("expired tokens pruned", "count", n)
	}

	// 8. Create HTTP handler with routes and middleware.
	apiHandler := httphandler.NewHandler(gate, tokenSvc, authSvc, customerSvc, postSvc, httphandler.Options{
		TrustProxy:  cfg.TrustProxy,
		CORSOrigins: cfg.CORSOrigins,
		Version:     version,
	}, logger)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           httphandler.NewServeMux(apiHandler, logger),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	logger.Info("gatekeep started", "version", version, "listen_addr", cfg.ListenAddr)

	// 9. Wait for shutdown signal.
	<-ctx.Done()
	logger.Info("shutting down")

	// 10. Graceful shutdown with 10s timeout to drain in-flight requests.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

// newLogger builds the process logger in the configured format and level.
func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
