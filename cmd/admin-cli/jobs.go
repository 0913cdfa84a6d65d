package main

import (
	"github.com/spf13/cobra"

	"adminBackend/internal/payments"
)

func syncPaymentsCmd(open openFunc) *cobra.Command {
	var drainLimit int
	cmd := &cobra.Command{
		Use:   "sync-payments",
		Short: "Fetch recent gateway transactions and drain the queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open()
			if err != nil {
				return err
			}
			defer a.Close()
			res, err := a.Payments.Sync(cmd.Context(), drainLimit)
			if perr := printJSON(cmd.OutOrStdout(), res); perr != nil {
				return perr
			}
			return err
		},
	}
	cmd.Flags().IntVar(&drainLimit, "drain-limit", 0, "max queue items to process (0 = default)")
	return cmd
}

func drainQueueCmd(open openFunc) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "drain-queue",
		Short: "Record queued transactions as payments",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open()
			if err != nil {
				return err
			}
			defer a.Close()
			res, err := a.Payments.Drain(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "max queue items to process (0 = default)")
	return cmd
}

func backfillCmd(open openFunc) *cobra.Command {
	var req payments.BackfillRequest
	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Recompute channel, method, brand and fee for incomplete payments",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open()
			if err != nil {
				return err
			}
			defer a.Close()
			res, err := a.Payments.Backfill(cmd.Context(), "cli", req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().BoolVar(&req.DryRun, "dry-run", false, "report what would change without writing")
	cmd.Flags().IntVar(&req.BatchSize, "batch-size", 0, "rows per batch (0 = default)")
	cmd.Flags().IntVar(&req.MaxTotal, "max-total", 0, "max rows to scan (0 = default)")
	return cmd
}

func reconcileCmd(open openFunc) *cobra.Command {
	var dryRun bool
	var limit int
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Link unlinked payments to customer profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open()
			if err != nil {
				return err
			}
			defer a.Close()
			res, err := a.Payments.Reconcile(cmd.Context(), dryRun, limit)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report matches without linking")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "max payments to scan (0 = default)")
	return cmd
}

func fetchReceiptsCmd(open openFunc) *cobra.Command {
	var req payments.ReceiptRequest
	cmd := &cobra.Command{
		Use:   "fetch-receipts",
		Short: "Fetch missing receipt URLs from the gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open()
			if err != nil {
				return err
			}
			defer a.Close()
			res, err := a.Payments.FetchReceipts(cmd.Context(), "cli", req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().Int64SliceVar(&req.PaymentIDs, "id", nil, "payment ids (default: payments without a receipt)")
	cmd.Flags().IntVarP(&req.Limit, "limit", "n", 0, "max payments when no ids are given")
	return cmd
}

func sweepTelegramCmd(open openFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep-telegram",
		Short: "Revoke expired Telegram grants and expire subscriptions",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open()
			if err != nil {
				return err
			}
			defer a.Close()
			res, err := a.Telegram.Sweep(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
}
