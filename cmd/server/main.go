package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"adminBackend/internal/app"
	"adminBackend/internal/config"
	grpcserver "adminBackend/internal/grpc"
	"adminBackend/internal/httpapi"
	"adminBackend/internal/jobs"
	"adminBackend/internal/logger"
	"adminBackend/internal/outbox"
)

// healthInterval is how often the database is pinged for the gRPC health status.
const healthInterval = 30 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Application error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	load := config.Load
	if os.Getenv("APP_ENV") == "development" {
		load = config.LoadWithDefaults
	}
	cfg, err := load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Initialize logger
	if err := logger.InitLogger(&cfg.Logger); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	log, err := logger.GetLogger()
	if err != nil {
		return fmt.Errorf("get logger: %w", err)
	}
	log.Info(fmt.Sprintf("Configuration loaded: %v", cfg))

	a, err := app.New(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Error(fmt.Sprintf("close db: %v", err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Fees.RulesFile != "" {
		if _, err := a.ImportFeeRules(ctx, "system", cfg.Fees.RulesFile); err != nil {
			return err
		}
	}

	// Outbox relay
	pub, closer, err := a.NewPublisher(ctx)
	if err != nil {
		return err
	}
	defer closer.Close()
	relay := outbox.NewProcessor(a.Repos.Outbox, pub, cfg.Outbox.Interval, log)
	go relay.Start(ctx)

	// gRPC health endpoint
	var grpcSrv *grpcserver.Server
	if cfg.GRPC.Address != "" {
		grpcSrv, err = grpcserver.StartGRPC(cfg.GRPC.Address, cfg.Auth.JWTSecret, log)
		if err != nil {
			return fmt.Errorf("start grpc: %w", err)
		}
		log.Info(fmt.Sprintf("gRPC server listening on %s", grpcSrv.Addr()))
	}

	// Scheduled jobs
	scheduler := jobs.NewScheduler(log)
	scheduler.Add("sync-payments", cfg.Jobs.SyncInterval, func(ctx context.Context) error {
		_, err := a.Payments.Sync(ctx, 0)
		return err
	})
	scheduler.Add("telegram-check-expired", cfg.Jobs.SweepInterval, func(ctx context.Context) error {
		_, err := a.Telegram.Sweep(ctx)
		return err
	})
	if grpcSrv != nil {
		scheduler.Add("db-health", healthInterval, func(ctx context.Context) error {
			err := a.DB.PingContext(ctx)
			grpcSrv.SetServing(err == nil)
			return err
		})
	}
	scheduler.Start(ctx)

	// REST API
	if cfg.Logger.LogLevel != config.LogLevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := httpapi.NewRouter(httpapi.Dependencies{
		JWTSecret: cfg.Auth.JWTSecret,
		Users:     a.Repos.Users,
		Payments:  a.Payments,
		Telegram:  a.Telegram,
		Support:   a.Support,
		FeeRules:  a.Repos.FeeRules,
		Audit:     a.Repos.Audit,
		ShopID:    cfg.Gateway.ShopID,
		SecretKey: cfg.Gateway.SecretKey,
		Ping:      a.DB.PingContext,
		Log:       log,
	}, cfg.HTTP.AllowedOrigins)

	srv := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serverErrors := make(chan error, 1)
	go func() {
		log.Info(fmt.Sprintf("HTTP server listening on %s", cfg.HTTP.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- fmt.Errorf("http server: %w", err)
		}
	}()

	// Block until we receive a signal or server error
	var runErr error
	select {
	case runErr = <-serverErrors:
		stop()
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(fmt.Sprintf("http shutdown: %v", err))
	}
	if grpcSrv != nil {
		if err := grpcSrv.Shutdown(shutdownCtx); err != nil {
			log.Error(fmt.Sprintf("grpc shutdown: %v", err))
		}
	}
	scheduler.Wait()
	log.Info("Server stopped")
	return runErr
}
