package main

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/youcash/permission-hub/pkg/config"
	"github.com/youcash/permission-hub/pkg/directory"
	"github.com/youcash/permission-hub/pkg/ranger"
	"github.com/youcash/permission-hub/pkg/reconcile"
)

// accountDeleteCmd represents the account delete command
var accountDeleteCmd = &cobra.Command{
	Use:   "delete <account>",
	Short: "Deprovision a directory account",
	Long: `Deprovision an LDAP directory account.

The account and its personal group are removed from the directory, the
principal is removed from every role on the policy authority, and every
policy document referencing it is cleaned up.

The account name is the full provisioned name, including the department
suffix.

Example:
  permhubctl account delete wang_da`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := deleteAccount(args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to delete account: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Deleted directory account '%s'\n", args[0])
	},
}

func init() {
	accountCmd.AddCommand(accountDeleteCmd)
}

func deleteAccount(account string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.Ranger.URL == "" {
		return fmt.Errorf("RANGER_URL environment variable is required")
	}
	if len(cfg.Directory.Servers) == 0 {
		return fmt.Errorf("LDAP_SERVER environment variable is required")
	}

	ctx := context.Background()
	logger := newLogger()
	client := ranger.NewHTTPClient(cfg.Ranger, logger)
	reconciler := reconcile.New(client, cfg.Ranger, logger)
	roles := reconcile.NewRoleReconciler(client, logger)
	dir := directory.NewLDAP(cfg.Directory, logger)

	var merr *multierror.Error
	if err := dir.DeleteUser(ctx, account); err != nil {
		merr = multierror.Append(merr, err)
	}
	for _, service := range cfg.Ranger.Services {
		if err := roles.RemovePrincipalFromAllRoles(ctx, service, account); err != nil {
			merr = multierror.Append(merr, err)
		}
	}
	if err := reconciler.PurgePrincipal(ctx, "user", account); err != nil {
		merr = multierror.Append(merr, err)
	}
	return merr.ErrorOrNil()
}
