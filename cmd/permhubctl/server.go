package main

import (
	"fmt"
	"log"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/youcash/permission-hub/pkg/config"
	"github.com/youcash/permission-hub/pkg/db"
	"github.com/youcash/permission-hub/pkg/directory"
	"github.com/youcash/permission-hub/pkg/quota"
	"github.com/youcash/permission-hub/pkg/ranger"
	"github.com/youcash/permission-hub/pkg/reconcile"
	"github.com/youcash/permission-hub/pkg/server"
	"github.com/youcash/permission-hub/pkg/server/endpoints"
	"github.com/youcash/permission-hub/pkg/sync"
)

func defaultBindAddress() string {
	if addr := os.Getenv("BIND_ADDRESS"); addr != "" {
		return addr
	}
	return "0.0.0.0"
}

func newLogger() hclog.Logger {
	level := hclog.Info
	if lvl := os.Getenv("PERMHUB_LOG_LEVEL"); lvl != "" {
		level = hclog.LevelFromString(lvl)
	}
	return hclog.New(&hclog.LoggerOptions{Name: "permhub", Level: level})
}

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the permission-hub application server",
	Long: `Run the permission-hub application server.

Requires DATABASE_URL and RANGER_URL, either as environment variables or
through the YAML configuration file.

By default, database migrations are run on startup. Use --no-migrate to skip.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintln(os.Stderr, "Failed to load configuration:", err)
			os.Exit(1)
		}
		if err := cfg.Validate(); err != nil {
			fmt.Fprintln(os.Stderr, "Invalid configuration:", err)
			os.Exit(1)
		}

		// Run migrations unless --no-migrate is set
		noMigrate, _ := cmd.Flags().GetBool("no-migrate")
		if !noMigrate {
			log.Println("Running database migrations...")
			if err := runMigrations(cfg.DatabaseURL); err != nil {
				fmt.Fprintf(os.Stderr, "Migration failed: %v\n", err)
				os.Exit(1)
			}
		}

		database, err := db.Connect(db.Config{URL: cfg.DatabaseURL})
		if err != nil {
			fmt.Fprintln(os.Stderr, "Unable to connect to DB:", err)
			os.Exit(1)
		}

		logger := newLogger()
		client := ranger.NewHTTPClient(cfg.Ranger, logger)
		reconciler := reconcile.New(client, cfg.Ranger, logger)
		orchestrator := sync.NewOrchestrator(reconciler, cfg, logger)
		roles := reconcile.NewRoleReconciler(client, logger)
		dir := directory.NewLDAP(cfg.Directory, logger)
		enforcer := quota.NewHDFS(logger)

		host, _ := cmd.Flags().GetString("bind-address")
		port, _ := cmd.Flags().GetString("port")
		if port == "" {
			port = cfg.Port
		}
		s := server.NewServer(cfg, database, orchestrator, roles, reconciler, dir, enforcer, host, port, logger)

		endpoints.RegisterAll(s)

		log.Printf("Running server at http://%s:%s...\n", host, port)
		log.Fatal(s.Start())
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().StringP("port", "p", "", "server listen port (defaults to configuration)")
	serverCmd.Flags().StringP("bind-address", "b", defaultBindAddress(), "server bind address")
	serverCmd.Flags().Bool("no-migrate", false, "skip running database migrations on start")
}
