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

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/upi-payments/internal/config"
	"github.com/jcmexdev/upi-payments/internal/events"
	"github.com/jcmexdev/upi-payments/internal/httpx"
	"github.com/jcmexdev/upi-payments/internal/ledger"
	"github.com/jcmexdev/upi-payments/internal/npci"
	"github.com/jcmexdev/upi-payments/internal/orchestrator"
	"github.com/jcmexdev/upi-payments/internal/payments/ports"
	"github.com/jcmexdev/upi-payments/internal/pkg/cache"
	"github.com/jcmexdev/upi-payments/internal/pkg/telemetry"
	sqlitestore "github.com/jcmexdev/upi-payments/internal/store/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	telemetry.InitLogger()
	cfg := config.Load()

	shutdown, err := telemetry.SetupTracer(ctx, cfg.ServiceName)
	if err != nil {
		slog.Error("failed to initialise tracer", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			slog.Error("tracer shutdown error", "error", err)
		}
	}()

	store, err := sqlitestore.Open(cfg.SQLitePath)
	if err != nil {
		slog.Error("failed to open transaction store", "path", cfg.SQLitePath, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	ledgerClient := buildLedgerClient(cfg)
	networkClient := npci.New(npci.Mode(cfg.NPCIMode), cfg.NPCISuccessRate, cfg.NPCILatency)

	var publisher ports.EventPublisher = events.Nop{}
	if cfg.KafkaBroker != "" {
		kp := events.NewKafkaPublisher(cfg.KafkaBroker, cfg.KafkaTopic)
		defer kp.Close()
		publisher = kp
		slog.Info("kafka event publishing enabled", "broker", cfg.KafkaBroker, "topic", cfg.KafkaTopic)
	}

	var statusCache cache.Cache
	if cfg.RedisAddr != "" {
		statusCache = cache.NewRedisCache(cfg.RedisAddr, "payments")
		slog.Info("status-query caching enabled", "addr", cfg.RedisAddr)
	}

	coordinator := orchestrator.New(ledgerClient, networkClient, store, publisher, orchestrator.Config{
		NetworkTimeout:             cfg.NetworkTimeout,
		CompensateOnNetworkDecline: cfg.CompensateOnNetworkDecline,
	})
	query := orchestrator.NewQuery(store, statusCache)

	handler := httpx.NewHandler(coordinator, query)
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: httpx.NewRouter(handler),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	slog.Info("payments service running",
		"addr", cfg.HTTPAddr,
		"ledger_mode", cfg.LedgerMode,
		"npci_mode", cfg.NPCIMode,
	)

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server failed", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("http server shutdown error", "error", err)
		}
	}
}

// buildLedgerClient selects the core-banking collaborator. The in-memory
// ledger seeds a few demo accounts for local runs.
func buildLedgerClient(cfg *config.Config) ports.LedgerClient {
	if cfg.LedgerMode == "memory" {
		return ledger.NewInMemory(map[string]decimal.Decimal{
			"ACC001": decimal.NewFromInt(10_000),
			"ACC002": decimal.NewFromInt(10_000),
			"ACC003": decimal.NewFromInt(100),
		})
	}
	return ledger.NewHTTPClient(cfg.CBSAdapterURL, cfg.CBSTimeout)
}
