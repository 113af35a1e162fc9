package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/youcash/permission-hub/pkg/config"
	"github.com/youcash/permission-hub/pkg/ranger"
	"github.com/youcash/permission-hub/pkg/reconcile"
)

// syncCmd represents the sync command
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile a single permission against the policy authority",
	Long:  `Reconcile a single permission against the policy authority without going through the API.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("error: Command 'sync' requires a subcommand (grant, revoke)")
		fmt.Println()
		_ = cmd.Help()
		os.Exit(1)
	},
}

var syncGrantCmd = &cobra.Command{
	Use:   "grant",
	Short: "Grant a permission",
	Long: `Grant a permission on the policy authority.

Example:
  permhubctl sync grant --database sales --table orders --users alice
  permhubctl sync grant --policy-type mask --database sales --table orders \
      --columns card_no --mask-type MASK_HASH --users alice`,
	Run: func(cmd *cobra.Command, args []string) {
		runSync(cmd, reconcile.OpGrant)
	},
}

var syncRevokeCmd = &cobra.Command{
	Use:   "revoke",
	Short: "Revoke a permission",
	Long: `Revoke a permission on the policy authority.

Example:
  permhubctl sync revoke --database sales --table orders --users alice`,
	Run: func(cmd *cobra.Command, args []string) {
		runSync(cmd, reconcile.OpRevoke)
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.AddCommand(syncGrantCmd)
	syncCmd.AddCommand(syncRevokeCmd)

	for _, cmd := range []*cobra.Command{syncGrantCmd, syncRevokeCmd} {
		cmd.Flags().String("policy-type", "normal", "policy type: normal, mask or row_filter")
		cmd.Flags().String("database", "", "database name")
		cmd.Flags().String("table", "", "table name (* for all tables)")
		cmd.Flags().StringSlice("columns", nil, "column names (empty for all columns)")
		cmd.Flags().StringSlice("accesses", []string{"select"}, "access kinds for normal policies")
		cmd.Flags().String("mask-type", "", "mask type for mask policies: MASK_HASH, MASK_NONE or CUSTOM")
		cmd.Flags().String("row-filter", "", "filter expression for row_filter policies")
		cmd.Flags().String("name", "", "explicit policy name override")
		cmd.Flags().StringSlice("users", nil, "user principals")
		cmd.Flags().StringSlice("groups", nil, "group principals")
		cmd.Flags().StringSlice("roles", nil, "role principals")
	}
}

func intentFromFlags(cmd *cobra.Command) (reconcile.Intent, error) {
	policyType, _ := cmd.Flags().GetString("policy-type")
	database, _ := cmd.Flags().GetString("database")
	table, _ := cmd.Flags().GetString("table")
	columns, _ := cmd.Flags().GetStringSlice("columns")
	accesses, _ := cmd.Flags().GetStringSlice("accesses")
	maskType, _ := cmd.Flags().GetString("mask-type")
	rowFilter, _ := cmd.Flags().GetString("row-filter")
	name, _ := cmd.Flags().GetString("name")
	users, _ := cmd.Flags().GetStringSlice("users")
	groups, _ := cmd.Flags().GetStringSlice("groups")
	roles, _ := cmd.Flags().GetStringSlice("roles")

	principals := reconcile.PrincipalSet{Users: users, Groups: groups, Roles: roles}

	switch policyType {
	case "normal":
		return reconcile.AccessIntent{
			Database:   database,
			Table:      table,
			Columns:    columns,
			Accesses:   accesses,
			Name:       name,
			Principals: principals,
		}, nil
	case "mask":
		return reconcile.MaskIntent{
			Database:   database,
			Table:      table,
			Columns:    columns,
			MaskType:   maskType,
			Name:       name,
			Principals: principals,
		}, nil
	case "row_filter":
		return reconcile.RowFilterIntent{
			Database:   database,
			Table:      table,
			FilterExpr: rowFilter,
			Name:       name,
			Principals: principals,
		}, nil
	default:
		return nil, fmt.Errorf("unknown policy type %q", policyType)
	}
}

func runSync(cmd *cobra.Command, op reconcile.Op) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to load configuration:", err)
		os.Exit(1)
	}
	if cfg.Ranger.URL == "" {
		fmt.Fprintln(os.Stderr, "RANGER_URL environment variable is required")
		os.Exit(1)
	}

	intent, err := intentFromFlags(cmd)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := newLogger()
	client := ranger.NewHTTPClient(cfg.Ranger, logger)
	reconciler := reconcile.New(client, cfg.Ranger, logger)

	results, err := reconciler.Apply(context.Background(), op, intent)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Sync failed:", err)
		os.Exit(1)
	}

	for _, result := range results {
		switch {
		case result.Err == reconcile.ErrNothingToRevoke:
			fmt.Printf("%s: nothing to revoke\n", result.Target)
		case result.Err != nil:
			fmt.Printf("%s: error: %v\n", result.Target, result.Err)
		case result.Changed:
			fmt.Printf("%s: updated\n", result.Target)
		default:
			fmt.Printf("%s: already in desired state\n", result.Target)
		}
	}
	if err := results.Err(); err != nil {
		os.Exit(1)
	}
}
