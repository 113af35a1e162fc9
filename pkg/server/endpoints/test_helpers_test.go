package endpoints

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/require"

	"github.com/youcash/permission-hub/pkg/config"
	"github.com/youcash/permission-hub/pkg/directory"
	"github.com/youcash/permission-hub/pkg/quota"
	"github.com/youcash/permission-hub/pkg/server"
	"github.com/youcash/permission-hub/pkg/sync"
)

// testFixture bundles a fully wired server with every fake it depends
// on, so assertions can reach into the doubles behind the handlers.
type testFixture struct {
	srv     *server.Server
	applier *fakeApplier
	roles   *fakeRoles
	purger  *fakePurger
	dir     *directory.Fake
	quotas  *quota.Recorder

	tablePerms  *memTablePermissions
	columnPerms *memColumnPermissions
	rowPerms    *memRowPermissions
	quotaStore  *memQuotas
	dirUsers    *memDirectoryUsers
	adminUsers  *memAdminUsers
}

func newTestFixture(t *testing.T) *testFixture {
	t.Helper()

	cfg := &config.Config{
		JWTSecret:         "test-secret",
		TokenTTLMin:       60,
		SyncAttempts:      1,
		SyncRetryDelaySec: 0,
		DefaultQuotaGB:    100,
		Ranger:            config.Ranger{Services: []string{"cm_hive"}},
	}

	f := &testFixture{
		applier:     &fakeApplier{},
		roles:       newFakeRoles(),
		purger:      &fakePurger{},
		dir:         directory.NewFake(),
		quotas:      &quota.Recorder{},
		tablePerms:  newMemTablePermissions(),
		columnPerms: newMemColumnPermissions(),
		rowPerms:    newMemRowPermissions(),
		quotaStore:  newMemQuotas(),
		dirUsers:    newMemDirectoryUsers(),
		adminUsers:  newMemAdminUsers(),
	}

	orch := sync.NewOrchestrator(f.applier, cfg, hclog.NewNullLogger())
	srv := server.NewServer(cfg, nil, orch, f.roles, f.purger, f.dir, f.quotas,
		"127.0.0.1", "0", hclog.NewNullLogger())

	srv.TablePermissions = f.tablePerms
	srv.ColumnPermissions = f.columnPerms
	srv.RowPermissions = f.rowPerms
	srv.Quotas = f.quotaStore
	srv.DirectoryUsers = f.dirUsers
	srv.AdminUsers = f.adminUsers
	srv.Health = okHealth{}

	RegisterAll(srv)
	f.srv = srv
	return f
}

// do issues an authenticated request against the wired router and
// returns the recorded response.
func (f *testFixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)

	token, err := f.srv.Auth.IssueToken("admin", true)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	f.srv.Router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dst))
}
