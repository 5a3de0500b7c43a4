package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/strimboom/boombucks/internal/api"
	"github.com/strimboom/boombucks/internal/infra/logging"
	"github.com/strimboom/boombucks/internal/infra/metrics"
	"github.com/strimboom/boombucks/internal/infra/pgutils"
	"github.com/strimboom/boombucks/internal/services/wallet"
	"github.com/strimboom/boombucks/pkg/envconf"
	"github.com/strimboom/boombucks/pkg/shutdownqueue"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error running api: %v\n", err)
		//nolint:gocritic
		os.Exit(1)
	}
}

func run(ctx context.Context) (retErr error) {
	envErr := godotenv.Load()

	cfg := new(apiConfig)

	err := envconf.Load(cfg)
	if err != nil {
		return fmt.Errorf("init config: %w", err)
	}

	logging.SetupJSON(cfg.LogLevel)

	if envErr != nil {
		slog.Warn("no .env file loaded, using process environment", "error", envErr)
	}

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		serr := shutdownqueue.Shutdown(shutdownCtx)
		if serr != nil {
			retErr = errors.Join(retErr, serr)
		}
	}()

	// --- Infra ---
	db, err := pgutils.OpenDB(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}

	shutdownqueue.Add(func(context.Context) error {
		slog.Info("Close database")

		return db.Close()
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(db, "boombucks"),
	)

	walletSrv, err := wallet.New(db, wallet.PolicyFromConfig(cfg.Ledger),
		wallet.WithLogger(slog.Default()),
		wallet.WithMetrics(metrics.New(reg)),
	)
	if err != nil {
		return fmt.Errorf("init wallet: %w", err)
	}

	// --- HTTP server ---
	router := api.NewRouter(walletSrv, promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := api.NewServer(cfg.Port, router)

	// Registered after the DB so it runs first (LIFO).
	shutdownqueue.Add(func(c context.Context) error {
		slog.Info("Shut down server")

		err := srv.Shutdown(c)
		if err != nil {
			return fmt.Errorf("shutdown srv: %w", err)
		}

		return nil
	})

	errCh := make(chan error, 1)

	go func() {
		serr := srv.ListenAndServe()
		// http.ErrServerClosed is the normal path during Shutdown
		if serr != nil && !errors.Is(serr, http.ErrServerClosed) {
			errCh <- serr
			return
		}

		errCh <- nil
	}()

	policy := walletSrv.Policy()
	slog.Info("API started",
		"port", cfg.Port,
		"currency", policy.Currency,
		"referral_threshold", policy.ReferralThreshold,
		"referral_reward", policy.ReferralReward,
		"require_recipient", policy.RequireRecipient,
	)

	select {
	case <-ctx.Done():
		return nil
	case serr := <-errCh:
		if serr != nil {
			return fmt.Errorf("server error: %w", serr)
		}

		return nil
	}
}
