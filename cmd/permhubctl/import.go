package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/youcash/permission-hub/pkg/bundle"
	"github.com/youcash/permission-hub/pkg/config"
	"github.com/youcash/permission-hub/pkg/db"
	"github.com/youcash/permission-hub/pkg/model"
	"github.com/youcash/permission-hub/pkg/quota"
	"github.com/youcash/permission-hub/pkg/ranger"
	"github.com/youcash/permission-hub/pkg/reconcile"
	"github.com/youcash/permission-hub/pkg/server/store"
	gormstore "github.com/youcash/permission-hub/pkg/server/store/gorm"
	"github.com/youcash/permission-hub/pkg/sync"
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import permissions from a CSV file or YAML bundle",
	Long: `Import permissions from a file and sync them as one batch.

The batch is all-or-nothing: if any row fails to sync, every locally
created record of the batch is removed again.

Files ending in .yaml or .yml are parsed as permission bundles, which
may mix table grants, column masks, row filters and storage quotas in
one document. Any other file is parsed as CSV of a single kind.

CSV columns by kind:
  table:  db_name,table_name,user_name,role_name
  column: db_name,table_name,col_name,mask_type,user_name,role_name
  row:    db_name,table_name,row_filter,user_name,role_name

With --watch the given file is watched instead: whenever it changes, its
contents are read as the path of the file to import.

Example:
  permhubctl import --kind table permissions.csv
  permhubctl import bundle.yaml
  permhubctl import --kind table --watch /run/permhub/import-trigger`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		kind, _ := cmd.Flags().GetString("kind")
		watch, _ := cmd.Flags().GetBool("watch")

		imp, err := newImporter(kind)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Import failed: %v\n", err)
			os.Exit(1)
		}

		if watch {
			if err := imp.watch(args[0]); err != nil {
				fmt.Fprintf(os.Stderr, "Watch failed: %v\n", err)
				os.Exit(1)
			}
			return
		}

		if err := imp.importFile(args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Import failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().String("kind", "table", "permission kind: table, column or row")
	importCmd.Flags().Bool("watch", false, "watch a trigger file instead of importing once")
}

type importer struct {
	kind         string
	orchestrator *sync.Orchestrator
	tables       store.TablePermissionsStore
	columns      store.ColumnPermissionsStore
	rows         store.RowPermissionsStore
	quotas       store.QuotasStore
	enforcer     quota.Enforcer
}

func newImporter(kind string) (*importer, error) {
	switch kind {
	case "table", "column", "row":
	default:
		return nil, fmt.Errorf("unknown permission kind %q", kind)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	database, err := db.Connect(db.Config{URL: cfg.DatabaseURL})
	if err != nil {
		return nil, err
	}

	logger := newLogger()
	client := ranger.NewHTTPClient(cfg.Ranger, logger)
	reconciler := reconcile.New(client, cfg.Ranger, logger)

	return &importer{
		kind:         kind,
		orchestrator: sync.NewOrchestrator(reconciler, cfg, logger),
		tables:       gormstore.NewTablePermissionsStore(database),
		columns:      gormstore.NewColumnPermissionsStore(database),
		rows:         gormstore.NewRowPermissionsStore(database),
		quotas:       gormstore.NewQuotasStore(database),
		enforcer:     quota.NewHDFS(logger),
	}, nil
}

func (imp *importer) importFile(filename string) error {
	if strings.HasSuffix(filename, ".yaml") || strings.HasSuffix(filename, ".yml") {
		return imp.importBundle(filename)
	}
	return imp.importCSV(filename)
}

// importBundle applies a YAML permission bundle: all permission entries
// sync as one batch, quotas are applied after the batch succeeds.
func (imp *importer) importBundle(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}
	b, err := bundle.Parse(data)
	if err != nil {
		return err
	}
	if b.Empty() {
		return fmt.Errorf("%s carries no entries", filename)
	}

	var recs []sync.Record
	rollback := func() {
		for _, rec := range recs {
			if rec.Rollback != nil {
				_ = rec.Rollback()
			}
		}
	}
	add := func(rec sync.Record, err error) error {
		if err != nil {
			rollback()
			return err
		}
		recs = append(recs, rec)
		return nil
	}

	for _, grant := range b.TablePermissions {
		for _, name := range bundlePrincipals(grant.Users, grant.Roles) {
			row := []string{grant.Database, grant.Table, name.user, name.role}
			if err := add(imp.persistKindRow("table", row)); err != nil {
				return err
			}
		}
	}
	for _, mask := range b.ColumnPermissions {
		for _, name := range bundlePrincipals(mask.Users, mask.Roles) {
			row := []string{mask.Database, mask.Table, mask.Column, mask.MaskType, name.user, name.role}
			if err := add(imp.persistKindRow("column", row)); err != nil {
				return err
			}
		}
	}
	for _, filter := range b.RowPermissions {
		for _, name := range bundlePrincipals(filter.Users, filter.Roles) {
			row := []string{filter.Database, filter.Table, filter.Filter, name.user, name.role}
			if err := add(imp.persistKindRow("row", row)); err != nil {
				return err
			}
		}
	}

	if len(recs) > 0 {
		if err := imp.orchestrator.SyncBatch(context.Background(), reconcile.OpGrant, recs); err != nil {
			return err
		}
	}

	for _, q := range b.Quotas {
		record := model.HdfsQuota{Database: q.Database, QuotaGB: q.QuotaGB}
		if err := imp.quotas.Create(&record); err != nil && !errors.Is(err, store.ErrDuplicate) {
			return fmt.Errorf("quota for %s: %w", q.Database, err)
		}
		change := quota.Change{Database: q.Database, QuotaGB: q.QuotaGB}
		if err := imp.enforcer.Apply(context.Background(), change); err != nil {
			return err
		}
	}

	fmt.Printf("Imported %d permission(s) and %d quota(s) from %s\n", len(recs), len(b.Quotas), filename)
	return nil
}

// principalRow is one (user, role) pair a bundle entry expands to;
// exactly one side is set.
type principalRow struct {
	user string
	role string
}

func bundlePrincipals(users, roles bundle.PrincipalList) []principalRow {
	out := make([]principalRow, 0, len(users)+len(roles))
	for _, user := range users {
		out = append(out, principalRow{user: user})
	}
	for _, role := range roles {
		out = append(out, principalRow{role: role})
	}
	return out
}

func (imp *importer) importCSV(filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", filename, err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("%s is empty", filename)
	}

	var recs []sync.Record
	rollback := func() {
		for _, rec := range recs {
			if rec.Rollback != nil {
				_ = rec.Rollback()
			}
		}
	}

	for i, row := range rows {
		rec, err := imp.persistKindRow(imp.kind, row)
		if err != nil {
			rollback()
			return fmt.Errorf("row %d: %w", i+1, err)
		}
		recs = append(recs, rec)
	}

	if err := imp.orchestrator.SyncBatch(context.Background(), reconcile.OpGrant, recs); err != nil {
		return err
	}

	fmt.Printf("Imported %d %s permission(s) from %s\n", len(recs), imp.kind, filename)
	return nil
}

func (imp *importer) persistKindRow(kind string, row []string) (sync.Record, error) {
	field := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	switch kind {
	case "table":
		p := model.TablePermission{
			Database: field(0), Table: field(1),
			UserName: field(2), RoleName: field(3),
		}
		if err := imp.tables.Create(&p); err != nil {
			return sync.Record{}, err
		}
		id := p.ID
		return sync.Record{
			Name: fmt.Sprintf("table-permission/%d", id),
			Intent: reconcile.AccessIntent{
				Database:   p.Database,
				Table:      p.Table,
				Accesses:   []string{"select"},
				Principals: principalSet(p.UserName, p.RoleName),
			},
			Rollback: func() error { return imp.tables.Delete(id) },
		}, nil
	case "column":
		p := model.ColumnPermission{
			Database: field(0), Table: field(1), Column: field(2),
			MaskType: field(3), UserName: field(4), RoleName: field(5),
		}
		if err := imp.columns.Create(&p); err != nil {
			return sync.Record{}, err
		}
		id := p.ID
		return sync.Record{
			Name: fmt.Sprintf("column-permission/%d", id),
			Intent: reconcile.MaskIntent{
				Database:   p.Database,
				Table:      p.Table,
				Columns:    []string{p.Column},
				MaskType:   p.MaskType,
				Principals: principalSet(p.UserName, p.RoleName),
			},
			Rollback: func() error { return imp.columns.Delete(id) },
		}, nil
	default:
		p := model.RowPermission{
			Database: field(0), Table: field(1), RowFilter: field(2),
			UserName: field(3), RoleName: field(4),
		}
		if err := imp.rows.Create(&p); err != nil {
			return sync.Record{}, err
		}
		id := p.ID
		return sync.Record{
			Name: fmt.Sprintf("row-permission/%d", id),
			Intent: reconcile.RowFilterIntent{
				Database:   p.Database,
				Table:      p.Table,
				FilterExpr: p.RowFilter,
				Principals: principalSet(p.UserName, p.RoleName),
			},
			Rollback: func() error { return imp.rows.Delete(id) },
		}, nil
	}
}

func principalSet(userName, roleName string) reconcile.PrincipalSet {
	var p reconcile.PrincipalSet
	if userName != "" {
		p.Users = []string{userName}
	}
	if roleName != "" {
		p.Roles = []string{roleName}
	}
	return p
}

// watch blocks on a trigger file: every write to it is read as the path
// of a CSV file to import.
func (imp *importer) watch(filename string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(filename); err != nil {
		return fmt.Errorf("failed to watch file %s: %w", filename, err)
	}

	fmt.Printf("Watching %s for %s permission imports\n", filename, imp.kind)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
				fmt.Printf("[%s] Trigger file modified, importing...\n", time.Now().Format(time.RFC3339))

				content, err := os.ReadFile(filename)
				if err != nil {
					fmt.Fprintf(os.Stderr, "Error reading trigger file: %v\n", err)
					continue
				}

				csvPath := strings.TrimSpace(string(content))
				if csvPath == "" {
					continue
				}

				if err := imp.importFile(csvPath); err != nil {
					fmt.Fprintf(os.Stderr, "Error importing %s: %v\n", csvPath, err)
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "Watcher error: %v\n", err)
		case sig := <-sigChan:
			fmt.Printf("Received %v, shutting down\n", sig)
			return nil
		}
	}
}
