package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"adminBackend/internal/app"
	"adminBackend/internal/config"
	"adminBackend/internal/logger"
)

var Version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var dev bool
	rootCmd := &cobra.Command{
		Use:           "admin-cli",
		Short:         "Operator commands for the admin backend",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().BoolVar(&dev, "dev", false, "use development defaults (no JWT_SECRET required)")

	open := func() (*app.App, error) { return openApp(dev) }

	rootCmd.AddCommand(migrateCmd(open))
	rootCmd.AddCommand(syncPaymentsCmd(open))
	rootCmd.AddCommand(drainQueueCmd(open))
	rootCmd.AddCommand(backfillCmd(open))
	rootCmd.AddCommand(reconcileCmd(open))
	rootCmd.AddCommand(fetchReceiptsCmd(open))
	rootCmd.AddCommand(sweepTelegramCmd(open))
	rootCmd.AddCommand(importFeeRulesCmd(open))
	rootCmd.AddCommand(userCmd(open))
	rootCmd.AddCommand(tokenCmd(func() (*config.Config, error) { return loadConfig(dev) }))
	return rootCmd
}

type openFunc func() (*app.App, error)

func loadConfig(dev bool) (*config.Config, error) {
	if dev {
		return config.LoadWithDefaults()
	}
	return config.Load()
}

func openApp(dev bool) (*app.App, error) {
	cfg, err := loadConfig(dev)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := logger.InitLogger(&cfg.Logger); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return app.New(cfg, logger.MustGetLogger())
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
