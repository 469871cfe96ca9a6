package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Iwinswap/iwinswap-cpamm-go/cmd/poold/config"
	"github.com/Iwinswap/iwinswap-cpamm-go/streams/jsonrpc/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 5 * time.Second

func main() {
	configPath := flag.String("config", "poold.yaml", "Path to the configuration file.")
	flag.Parse()

	bootLogger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		bootLogger.Error("Failed to load configuration", "path", *configPath, "error", err)
		os.Exit(1)
	}
	level, err := parseLevel(cfg.LogLevel)
	if err != nil {
		bootLogger.Error("Failed to load configuration", "path", *configPath, "error", err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Daemon stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.DaemonConfig, logger *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	net, err := buildDevnet(cfg, logger, reg)
	if err != nil {
		return err
	}

	api, err := server.NewAPI(server.Config{
		Registry: net.registry,
		Hub:      net.hub,
		Logger:   logger.With("component", "jsonrpc-server"),
	})
	if err != nil {
		return err
	}
	rpcServer, err := server.NewServer(api)
	if err != nil {
		return err
	}
	defer rpcServer.Stop()

	mux := http.NewServeMux()
	mux.Handle("/ws", rpcServer.WebsocketHandler([]string{"*"}))
	mux.Handle("/", rpcServer)
	servers := []*http.Server{{Addr: cfg.RPCListen, Handler: mux}}

	if cfg.MetricsListen != "" {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		servers = append(servers, &http.Server{Addr: cfg.MetricsListen, Handler: metricsMux})
	}

	errCh := make(chan error, len(servers))
	for _, srv := range servers {
		go func(srv *http.Server) {
			logger.Info("Listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}(srv)
	}

	logger.Info("Pool daemon started",
		"tokens", len(net.tokens.All()),
		"pools", len(net.registry.Views()),
	)

	select {
	case <-ctx.Done():
		logger.Info("Shutting down...")
	case err = <-errCh:
		logger.Error("Listener failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for _, srv := range servers {
		if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Warn("Failed to shut down listener", "addr", srv.Addr, "error", shutdownErr)
		}
	}
	return err
}
