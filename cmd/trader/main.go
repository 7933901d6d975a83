// krakentrader — a dual-stream trading client for Kraken's WebSocket API.
//
// Architecture:
//
//	main.go                 — entry point: loads config, mints a session token, runs the dispatcher until SIGINT/SIGTERM
//	internal/codec          — wire frame decode/encode, no I/O
//	internal/stream         — one WebSocket connection each for the public and private feeds, no auto-reconnect
//	internal/auth           — mints the private-stream session token via a signed REST call
//	internal/book           — depth-capped L2 order book per symbol
//	internal/orders         — working-order book: client/exchange id reconciliation and fill application
//	internal/position       — running signed quantity and volume-weighted average price per symbol
//	internal/trademon       — bounded public trade buffer and bucketed aggregation per symbol
//	internal/throttle       — per-operation rate limiting for outbound commands
//	internal/dispatch       — the single-goroutine actor that owns all of the above and routes wire events
//
// Unlike the teacher this client is distilled from, there is no
// auto-reconnect, no strategy engine, and no dashboard: a dropped stream
// is a terminal event the caller must react to, and quoting logic lives
// outside this module entirely.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"krakentrader/internal/auth"
	"krakentrader/internal/config"
	"krakentrader/internal/dispatch"
)

func main() {
	cfgPath := "configs/config.yaml"
	if p := os.Getenv("KRAKEN_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("failed to load config", "error", err, "path", cfgPath)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Logging.Level)}
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)

	minter, err := auth.NewMinter(cfg.Kraken.RestBaseURL, cfg.Kraken.ApiKey, cfg.Kraken.Secret)
	if err != nil {
		logger.Error("failed to build token minter", "error", err)
		os.Exit(1)
	}

	eventHandler := dispatch.NewLoggingHandler(logger)

	d := dispatch.New(
		cfg.Kraken.WSPublicURL,
		cfg.Kraken.WSPrivateURL,
		minter,
		eventHandler,
		logger,
		cfg.Book.Depth,
		cfg.TradeMon.BufferSize,
		cfg.Throttle.MaxMsgsPerSec,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		logger.Error("failed to start dispatcher", "error", err)
		os.Exit(1)
	}

	runErr := make(chan error, 1)
	go func() { runErr <- d.Run(ctx) }()

	logger.Info("krakentrader started",
		"public_url", cfg.Kraken.WSPublicURL,
		"private_url", cfg.Kraken.WSPrivateURL,
		"book_depth", cfg.Book.Depth,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig.String())
	case err := <-runErr:
		logger.Error("dispatcher stopped", "error", err)
	}

	cancel()
	d.Close()
	logger.Info("shutdown complete")
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
