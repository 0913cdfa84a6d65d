package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"adminBackend/internal/db"
)

func migrateCmd(open openFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Inspect or roll back schema migrations",
		Long: `Pending migrations are applied whenever the database is opened.

Examples:
  admin-cli migrate status
  admin-cli migrate rollback`,
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Print the current schema version and every known migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open()
			if err != nil {
				return err
			}
			defer a.Close()
			v, err := db.CurrentVersion(a.DB)
			if err != nil {
				return err
			}
			st, err := db.Status(a.DB)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", v)
			return printJSON(cmd.OutOrStdout(), st)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "rollback",
		Short: "Revert the last applied migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open()
			if err != nil {
				return err
			}
			defer a.Close()
			if err := db.RollbackLast(a.DB); err != nil {
				return fmt.Errorf("rollback: %w", err)
			}
			v, err := db.CurrentVersion(a.DB)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rolled back; schema version %d\n", v)
			return nil
		},
	})
	return cmd
}
