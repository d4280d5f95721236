package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/net/netutil"

	"github.com/yegors/adsb-proxy/internal/adsb"
	"github.com/yegors/adsb-proxy/internal/api"
	"github.com/yegors/adsb-proxy/internal/config"
	"github.com/yegors/adsb-proxy/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config.toml", "Path to the TOML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Error("Proxy stopped with error", logger.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	client := adsb.NewClient(cfg.Local.DataPath, cfg.RemoteURL(), cfg.RemoteTimeout(), log)
	resolver := adsb.NewResolver(client, cfg.Remote.Enabled, cfg.Remote.Name, log)
	router := api.NewRouter(resolver, cfg, log)

	listener, err := net.Listen("tcp", cfg.ListenAddr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.ListenAddr(), err)
	}
	if cfg.Server.MaxConnections > 0 {
		listener = netutil.LimitListener(listener, cfg.Server.MaxConnections)
	}

	server := &http.Server{
		Handler:           router.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		// leave room for one remote fetch
		WriteTimeout: cfg.RemoteTimeout() + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("Aircraft data proxy listening", logger.String("addr", listener.Addr().String()))
	log.Info("Local data file", logger.String("path", cfg.Local.DataPath))
	log.Info("Remote fallback",
		logger.String("source", cfg.Remote.Name),
		logger.Bool("enabled", cfg.Remote.Enabled),
	)
	if cfg.Remote.Enabled {
		log.Info("Remote API", logger.String("url", cfg.RemoteURL()))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.RemoteTimeout()+5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}

	log.Info("Shutdown complete")
	return nil
}
