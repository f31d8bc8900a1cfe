// Command goadmin-server serves the browser dashboard's JSON endpoints.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	goAdmin "github.com/MrEthical07/goAdmin"
	"github.com/MrEthical07/goAdmin/internal/config"
	"github.com/MrEthical07/goAdmin/internal/logging"
	"github.com/MrEthical07/goAdmin/internal/server"
	flag "github.com/spf13/pflag"
)

func main() {
	var (
		configPath = flag.StringP("config", "c", "", "config file (.yaml, .yml, .json or .jsonc)")
		addr       = flag.String("addr", "", "listen address; overrides server.addr")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath, os.LookupEnv)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, closeLog := logging.Init(cfg.Log)
	code := run(cfg, logger)
	_ = closeLog()
	os.Exit(code)
}

func run(cfg config.File, logger *slog.Logger) int {
	client, err := goAdmin.New().
		WithConfig(cfg.Client).
		WithLogger(logger).
		WithAuditSink(goAdmin.NewSlogSink(logger)).
		Build()
	if err != nil {
		logger.Error("failed to build client", slog.String("error", err.Error()))
		return 1
	}
	defer func() { _ = client.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("serving dashboard",
		slog.String("addr", cfg.Server.Addr),
		slog.String("backend", cfg.Client.Backend.BaseURL),
		slog.String("storage", cfg.Client.Storage.Driver),
	)
	if err := server.New(client, cfg.Server, logger).Run(ctx); err != nil {
		logger.Error("server stopped", slog.String("error", err.Error()))
		return 1
	}
	return 0
}
