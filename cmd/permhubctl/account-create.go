package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/youcash/permission-hub/pkg/config"
	"github.com/youcash/permission-hub/pkg/directory"
	"github.com/youcash/permission-hub/pkg/quota"
	"github.com/youcash/permission-hub/pkg/ranger"
	"github.com/youcash/permission-hub/pkg/reconcile"
)

// accountCreateCmd represents the account create command
var accountCreateCmd = &cobra.Command{
	Use:   "create <username>",
	Short: "Provision a directory account",
	Long: `Provision an LDAP directory account with its default grants.

The account name gets the first two characters of the department appended
as a suffix. Provisioning also ensures the department role membership on
the policy authority, grants the account full access to its personal
database, grants the read-only role select on it, and applies the storage
quota.

The generated password is printed to STDOUT.

Example:
  permhubctl account create wang --department data
  permhubctl account create wang --department data --role etl --quota 200`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		username := args[0]
		department, _ := cmd.Flags().GetString("department")
		role, _ := cmd.Flags().GetString("role")
		password, _ := cmd.Flags().GetString("password")
		quotaGB, _ := cmd.Flags().GetFloat64("quota")

		if department == "" {
			fmt.Fprintln(os.Stderr, "--department is required")
			os.Exit(1)
		}

		generated, account, err := createAccount(username, department, role, password, quotaGB)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create account: %v\n", err)
			os.Exit(1)
		}

		fmt.Fprintf(os.Stderr, "Created directory account '%s'\n", account)
		fmt.Printf("Password for %s: %s\n", account, generated)
	},
}

func init() {
	accountCmd.AddCommand(accountCreateCmd)
	accountCreateCmd.Flags().StringP("department", "d", "", "Department the account belongs to")
	accountCreateCmd.Flags().StringP("role", "r", "", "Additional role to join on the policy authority")
	accountCreateCmd.Flags().String("password", "", "Account password (generated when empty)")
	accountCreateCmd.Flags().Float64("quota", 0, "Personal database quota in GB (defaults to configuration)")
}

// accountSuffix appends the department's first two characters to the
// username, matching the naming scheme of provisioned accounts.
func accountSuffix(username, department string) string {
	prefix := []rune(department)
	if len(prefix) > 2 {
		prefix = prefix[:2]
	}
	return username + "_" + string(prefix)
}

func createAccount(username, department, role, password string, quotaGB float64) (generated, account string, err error) {
	cfg, err := config.Load()
	if err != nil {
		return "", "", err
	}
	if cfg.Ranger.URL == "" {
		return "", "", fmt.Errorf("RANGER_URL environment variable is required")
	}
	if len(cfg.Directory.Servers) == 0 {
		return "", "", fmt.Errorf("LDAP_SERVER environment variable is required")
	}
	if quotaGB <= 0 {
		quotaGB = cfg.DefaultQuotaGB
	}

	ctx := context.Background()
	logger := newLogger()
	client := ranger.NewHTTPClient(cfg.Ranger, logger)
	reconciler := reconcile.New(client, cfg.Ranger, logger)
	roles := reconcile.NewRoleReconciler(client, logger)
	dir := directory.NewLDAP(cfg.Directory, logger)
	enforcer := quota.NewHDFS(logger)

	account = accountSuffix(username, department)
	acct, err := dir.CreateUser(ctx, account, password, []string{department})
	if err != nil {
		return "", "", err
	}

	roleNames := []string{department}
	if role != "" && role != department {
		roleNames = append(roleNames, role)
	}
	for _, service := range cfg.Ranger.Services {
		for _, roleName := range roleNames {
			members := reconcile.PrincipalSet{Users: []string{account}}
			if _, err := roles.EnsureMembership(ctx, service, roleName, members); err != nil {
				return "", "", err
			}
		}
	}

	grants := []reconcile.Intent{
		reconcile.AccessIntent{
			Database:   account,
			Table:      "*",
			Accesses:   []string{"all"},
			Principals: reconcile.PrincipalSet{Users: []string{account}},
		},
		reconcile.AccessIntent{
			Database:   account,
			Table:      "*",
			Accesses:   []string{"select"},
			Principals: reconcile.PrincipalSet{Roles: []string{"only_read"}},
		},
	}
	for _, intent := range grants {
		results, err := reconciler.Grant(ctx, intent)
		if err != nil {
			return "", "", err
		}
		if err := results.Err(); err != nil {
			return "", "", err
		}
	}

	if err := enforcer.Apply(ctx, quota.Change{Database: account, QuotaGB: quotaGB}); err != nil {
		return "", "", err
	}

	return acct.Password, account, nil
}
