package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"adminBackend/internal/auth"
	"adminBackend/internal/config"
	"adminBackend/models"
)

func importFeeRulesCmd(open openFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "import-fee-rules [file.yaml]",
		Short: "Replace the fee table with rules from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open()
			if err != nil {
				return err
			}
			defer a.Close()
			n, err := a.ImportFeeRules(cmd.Context(), "cli", args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d fee rules\n", n)
			return nil
		},
	}
}

func userCmd(open openFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage staff accounts",
	}
	var role string
	create := &cobra.Command{
		Use:   "create [username]",
		Short: "Create a staff account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			role = strings.ToLower(strings.TrimSpace(role))
			if !models.IsStaffRole(role) {
				return fmt.Errorf("role must be %s or %s", models.RoleAdmin, models.RoleSupport)
			}
			a, err := open()
			if err != nil {
				return err
			}
			defer a.Close()
			u, err := a.Repos.Users.CreateWithRole(cmd.Context(), args[0], role)
			if err != nil {
				return fmt.Errorf("create user: %w", err)
			}
			return printJSON(cmd.OutOrStdout(), u)
		},
	}
	create.Flags().StringVar(&role, "role", models.RoleSupport, "admin or support")

	setRole := &cobra.Command{
		Use:   "set-role [username] [role]",
		Short: "Change the role of a staff account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			newRole := strings.ToLower(strings.TrimSpace(args[1]))
			if !models.IsStaffRole(newRole) && newRole != models.RoleEndUser {
				return fmt.Errorf("unknown role %q", args[1])
			}
			a, err := open()
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.Repos.Users.UpdateRoleByUsername(cmd.Context(), args[0], newRole); err != nil {
				return fmt.Errorf("set role: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", args[0], newRole)
			return nil
		},
	}

	var limit, offset int
	list := &cobra.Command{
		Use:   "list",
		Short: "List staff accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open()
			if err != nil {
				return err
			}
			defer a.Close()
			users, err := a.Repos.Users.List(cmd.Context(), limit, offset)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), users)
		},
	}
	list.Flags().IntVarP(&limit, "limit", "n", 50, "page size")
	list.Flags().IntVar(&offset, "offset", 0, "rows to skip")

	del := &cobra.Command{
		Use:   "delete [username]",
		Short: "Remove a staff account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open()
			if err != nil {
				return err
			}
			defer a.Close()
			u, err := a.Repos.Users.GetByUsername(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if u == nil {
				return fmt.Errorf("user %q not found", args[0])
			}
			if err := a.Repos.Users.Delete(cmd.Context(), u.ID); err != nil {
				return fmt.Errorf("delete user: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(create, setRole, list, del)
	return cmd
}

func tokenCmd(load func() (*config.Config, error)) *cobra.Command {
	var kind string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token [name]",
		Short: "Issue a signed API token",
		Long: `Issue an HS256 token for a staff account or a scheduled caller.

Examples:
  admin-cli token alice --kind admin --ttl 12h
  admin-cli token cron --kind service`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch kind {
			case auth.KindAdmin, auth.KindSupport, auth.KindService:
			default:
				return fmt.Errorf("kind must be admin, support or service")
			}
			cfg, err := load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			tok, err := auth.IssueToken(cfg.Auth.JWTSecret, args[0], kind, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", auth.KindService, "admin, support or service")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (0 = no expiry)")
	return cmd
}
