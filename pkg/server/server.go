package server

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/hashicorp/go-hclog"
	"gorm.io/gorm"

	"github.com/youcash/permission-hub/pkg/config"
	"github.com/youcash/permission-hub/pkg/directory"
	"github.com/youcash/permission-hub/pkg/quota"
	"github.com/youcash/permission-hub/pkg/reconcile"
	"github.com/youcash/permission-hub/pkg/server/middleware"
	"github.com/youcash/permission-hub/pkg/server/store"
	gormstore "github.com/youcash/permission-hub/pkg/server/store/gorm"
	"github.com/youcash/permission-hub/pkg/sync"
)

// PrincipalPurger removes a principal from every policy document that
// references it, across all configured services.
type PrincipalPurger interface {
	PurgePrincipal(ctx context.Context, kind, value string) error
}

// RoleManager maintains role membership on the policy authority.
// *reconcile.RoleReconciler satisfies it.
type RoleManager interface {
	EnsureMembership(ctx context.Context, service, roleName string, members reconcile.PrincipalSet) (bool, error)
	RemovePrincipalFromAllRoles(ctx context.Context, service, user string) error
}

type Server struct {
	Config *config.Config
	Router *mux.Router
	DB     *gorm.DB
	Logger hclog.Logger

	TablePermissions  store.TablePermissionsStore
	ColumnPermissions store.ColumnPermissionsStore
	RowPermissions    store.RowPermissionsStore
	Quotas            store.QuotasStore
	DirectoryUsers    store.DirectoryUsersStore
	AdminUsers        store.AdminUsersStore
	Health            store.HealthStore

	Orchestrator  *sync.Orchestrator
	Roles         RoleManager
	Purger        PrincipalPurger
	Directory     directory.Service
	QuotaEnforcer quota.Enforcer

	Auth *middleware.TokenAuthenticator

	srv *http.Server
}

func NewServer(
	cfg *config.Config,
	db *gorm.DB,
	orchestrator *sync.Orchestrator,
	roles RoleManager,
	purger PrincipalPurger,
	dir directory.Service,
	enforcer quota.Enforcer,
	host string,
	port string,
	logger hclog.Logger,
) *Server {

	router := mux.NewRouter().UseEncodedPath()
	srv := &http.Server{
		Handler: handlers.LoggingHandler(os.Stdout, router),
		Addr:    host + ":" + port,
		// Good practice: enforce timeouts for servers you create!
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	return &Server{
		Config: cfg,
		Router: router,
		DB:     db,
		Logger: logger,

		TablePermissions:  gormstore.NewTablePermissionsStore(db),
		ColumnPermissions: gormstore.NewColumnPermissionsStore(db),
		RowPermissions:    gormstore.NewRowPermissionsStore(db),
		Quotas:            gormstore.NewQuotasStore(db),
		DirectoryUsers:    gormstore.NewDirectoryUsersStore(db),
		AdminUsers:        gormstore.NewAdminUsersStore(db),
		Health:            gormstore.NewHealthStore(db),

		Orchestrator:  orchestrator,
		Roles:         roles,
		Purger:        purger,
		Directory:     dir,
		QuotaEnforcer: enforcer,

		Auth: middleware.NewTokenAuthenticator(cfg),

		srv: srv,
	}
}

func (s Server) Start() error {
	return s.srv.ListenAndServe()
}
