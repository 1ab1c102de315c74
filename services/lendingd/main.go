package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lendvault/observability/logging"
	lendingserver "lendvault/services/lending/server"
	"lendvault/services/lendingd/config"
)

func main() {
	var (
		cfgPath    string
		genAccount bool
		accountKey string
	)
	flag.StringVar(&cfgPath, "config", "services/lendingd/config.toml", "path to lendingd config")
	flag.BoolVar(&genAccount, "gen-account", false, "generate a keypair, print the address and private key, then exit")
	flag.StringVar(&accountKey, "account-from-key", "", "print the address for a hex-encoded private key, then exit")
	flag.Parse()

	if genAccount {
		address, key, err := generateAccount()
		if err != nil {
			fmt.Fprintf(os.Stderr, "generate account: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("address: %s\nprivate key: %s\n", address, key)
		return
	}
	if accountKey != "" {
		address, err := accountFromKey(accountKey)
		if err != nil {
			fmt.Fprintf(os.Stderr, "derive address: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(address)
		return
	}

	env := strings.TrimSpace(os.Getenv("LV_ENV"))
	logger := logging.Setup("lendingd", env)

	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Error("load config", "path", cfgPath, "error", err)
		os.Exit(1)
	}

	deps, err := lendingserver.Wire(cfg, logger)
	if err != nil {
		logger.Error("wire lending service", "error", err)
		os.Exit(1)
	}
	defer deps.Close()

	service := lendingserver.New(deps, logger, lendingserver.NewTokenAuth(cfg.APITokens))

	router := chi.NewRouter()
	router.Handle("/metrics", promhttp.Handler())
	router.Mount("/", service.Router())

	srv := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("lendingd listening", "address", cfg.ListenAddress)
		serverErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("force closing server", "error", err)
			_ = srv.Close()
		}
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("serve http", "error", err)
			os.Exit(1)
		}
	}
}
