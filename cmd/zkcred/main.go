package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	githubadapter "github.com/agentforge/zkcred/internal/adapter/driven/github"
	ledgeradapter "github.com/agentforge/zkcred/internal/adapter/driven/ledger"
	sqliteadapter "github.com/agentforge/zkcred/internal/adapter/driven/sqlite"
	httphandler "github.com/agentforge/zkcred/internal/adapter/driving/http"
	webhandler "github.com/agentforge/zkcred/internal/adapter/driving/web"
	"github.com/agentforge/zkcred/internal/application"
	"github.com/agentforge/zkcred/internal/config"
	"github.com/agentforge/zkcred/internal/secretbox"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on malformed env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"ledger_url", cfg.LedgerURL,
		"vault_enabled", cfg.HasSecretKey(),
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database opened", "path", cfg.DBPath)

	// 4. Run migrations on writer connection.
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	slog.Info("migrations complete")

	// 5. Wire the vault cipher. Without a key the vault stays metadata-only
	// and writes are rejected with a clear error.
	var box *secretbox.Box
	if cfg.HasSecretKey() {
		box, err = secretbox.New(cfg.SecretKey)
		if err != nil {
			return err
		}
	} else {
		slog.Warn("ZKCRED_SECRET_KEY not set, vault writes disabled")
	}

	// 6. Wire driven adapters.
	agentStore := sqliteadapter.NewAgentRepo(db)
	credentialStore := sqliteadapter.NewCredentialRepo(db)
	verificationStore := sqliteadapter.NewVerificationRepo(db)
	auditStore := sqliteadapter.NewAuditRepo(db)
	walletStore := sqliteadapter.NewWalletRepo(db)
	vaultStore := sqliteadapter.NewVaultRepo(db, box)
	runner := githubadapter.NewActionRunner()

	// 7. Wire the ledger with simulator failover. The first call probes the
	// real endpoint; every later degradation is logged.
	client := ledgeradapter.NewClient(cfg.LedgerURL, cfg.LedgerTimeout, slog.Default())
	ldg := ledgeradapter.NewFailover(client, ledgeradapter.NewSimulator(), slog.Default())
	if client.Available(ctx) {
		slog.Info("ledger reachable", "url", cfg.LedgerURL)
	} else {
		slog.Warn("ledger unreachable, starting in simulated mode", "url", cfg.LedgerURL)
	}

	// 8. Wire application services.
	credSvc := application.NewCredentialService(ldg, credentialStore, verificationStore, auditStore, slog.Default())
	agentSvc := application.NewAgentService(agentStore, credSvc, slog.Default())
	vaultSvc := application.NewVaultService(credSvc, credentialStore, agentStore, vaultStore, auditStore, runner, slog.Default())
	activitySvc := application.NewActivityService(walletStore, auditStore)

	// 9. Create the HTTP handler and register API plus dashboard routes.
	sessions := httphandler.NewSessionManager(cfg.SessionKey, cfg.SessionTTL)
	metrics := httphandler.NewMetrics()
	apiHandler := httphandler.NewHandler(agentSvc, credSvc, vaultSvc, activitySvc,
		walletStore, credentialStore, ldg, sessions, metrics, slog.Default())

	mux := http.NewServeMux()
	httphandler.RegisterRoutes(mux, apiHandler)
	webhandler.RegisterRoutes(mux)

	handler := httphandler.ApplyMiddleware(mux, metrics, slog.Default())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	slog.Info("zkcred started", "listen_addr", cfg.ListenAddr, "ledger_mode", ldg.Mode())

	// 10. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
