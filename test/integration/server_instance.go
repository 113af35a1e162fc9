package integration

import (
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-hclog"
	"gorm.io/gorm"

	"github.com/youcash/permission-hub/pkg/config"
	"github.com/youcash/permission-hub/pkg/directory"
	"github.com/youcash/permission-hub/pkg/quota"
	"github.com/youcash/permission-hub/pkg/ranger"
	"github.com/youcash/permission-hub/pkg/reconcile"
	"github.com/youcash/permission-hub/pkg/server"
	"github.com/youcash/permission-hub/pkg/server/endpoints"
	permsync "github.com/youcash/permission-hub/pkg/sync"
)

// portCounter is used to allocate unique ports for each test server
var portCounter int32 = 19000

// serverInstance is an in-process server wired to the test doubles.
type serverInstance struct {
	Server *server.Server
	URL    string
}

// startServer boots the full server stack in-process: the real
// reconciler and orchestrator pointed at the fake authority, the
// in-memory directory, and a quota recorder instead of the hdfs CLI.
func startServer(db *gorm.DB, authorityURL string, dir *directory.Fake, quotas *quota.Recorder) (*serverInstance, error) {
	port := int(atomic.AddInt32(&portCounter, 1))

	cfg := &config.Config{
		JWTSecret:      "integration-secret",
		TokenTTLMin:    60,
		SyncAttempts:   2,
		DefaultQuotaGB: 100,
		Ranger: config.Ranger{
			URL:      authorityURL,
			User:     "admin",
			Password: "admin",
			Services: []string{"cm_hive"},
		},
	}

	logger := hclog.NewNullLogger()
	client := ranger.NewHTTPClient(cfg.Ranger, logger)
	reconciler := reconcile.New(client, cfg.Ranger, logger)
	orchestrator := permsync.NewOrchestrator(reconciler, cfg, logger)
	roles := reconcile.NewRoleReconciler(client, logger)

	s := server.NewServer(cfg, db, orchestrator, roles, reconciler, dir, quotas, "127.0.0.1", fmt.Sprintf("%d", port), logger)
	endpoints.RegisterAll(s)

	go func() {
		_ = s.Start()
	}()

	return &serverInstance{
		Server: s,
		URL:    fmt.Sprintf("http://127.0.0.1:%d", port),
	}, nil
}

// Stop is a no-op placeholder; the server dies with the test process.
func (si *serverInstance) Stop() {}

// waitForServer polls the status endpoint until it responds or times out
func waitForServer(serverURL string, timeout time.Duration) error {
	client := &http.Client{Timeout: 2 * time.Second}
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		resp, err := client.Get(serverURL + "/status")
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(100 * time.Millisecond)
	}

	return fmt.Errorf("server did not become ready within %v", timeout)
}
