package endpoints

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youcash/permission-hub/pkg/model"
	"github.com/youcash/permission-hub/pkg/reconcile"
	"github.com/youcash/permission-hub/pkg/server/store"
)

func TestTablePermissionCreate(t *testing.T) {
	t.Run("persists the record and grants it", func(t *testing.T) {
		f := newTestFixture(t)

		w := f.do(t, "POST", "/api/v1/table-permissions", model.TablePermission{
			Database: "sales", Table: "orders", UserName: "alice",
		})

		require.Equal(t, http.StatusCreated, w.Code)

		var created model.TablePermission
		decodeBody(t, w, &created)
		assert.NotZero(t, created.ID)

		require.Len(t, f.applier.grants, 1)
		intent, ok := f.applier.grants[0].(reconcile.AccessIntent)
		require.True(t, ok)
		assert.Equal(t, "sales", intent.Database)
		assert.Equal(t, "orders", intent.Table)
		assert.Equal(t, []string{"select"}, intent.Accesses)
		assert.Equal(t, []string{"alice"}, intent.Principals.Users)
	})

	t.Run("rejects a record without principals", func(t *testing.T) {
		f := newTestFixture(t)

		w := f.do(t, "POST", "/api/v1/table-permissions", model.TablePermission{
			Database: "sales", Table: "orders",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, f.tablePerms.items)
		assert.Empty(t, f.applier.grants)
	})

	t.Run("rejects a duplicate tuple", func(t *testing.T) {
		f := newTestFixture(t)
		perm := model.TablePermission{Database: "sales", Table: "orders", UserName: "alice"}

		w := f.do(t, "POST", "/api/v1/table-permissions", perm)
		require.Equal(t, http.StatusCreated, w.Code)

		w = f.do(t, "POST", "/api/v1/table-permissions", perm)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("rolls back the record when sync fails", func(t *testing.T) {
		f := newTestFixture(t)
		f.applier.failDatabase = "sales"

		w := f.do(t, "POST", "/api/v1/table-permissions", model.TablePermission{
			Database: "sales", Table: "orders", UserName: "alice",
		})

		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Empty(t, f.tablePerms.items, "failed sync must not leave a local record")
	})
}

func TestTablePermissionDelete(t *testing.T) {
	create := func(t *testing.T, f *testFixture) model.TablePermission {
		w := f.do(t, "POST", "/api/v1/table-permissions", model.TablePermission{
			Database: "sales", Table: "orders", UserName: "alice",
		})
		require.Equal(t, http.StatusCreated, w.Code)
		var created model.TablePermission
		decodeBody(t, w, &created)
		return created
	}

	t.Run("removes the record and revokes the grant", func(t *testing.T) {
		f := newTestFixture(t)
		created := create(t, f)

		w := f.do(t, "DELETE", "/api/v1/table-permissions/1", nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, f.tablePerms.items)
		require.Len(t, f.applier.revokes, 1)

		_, err := f.tablePerms.ByID(created.ID)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("reports a warning when nothing was granted remotely", func(t *testing.T) {
		f := newTestFixture(t)
		create(t, f)
		f.applier.absentRevoke = true

		w := f.do(t, "DELETE", "/api/v1/table-permissions/1", nil)

		require.Equal(t, http.StatusOK, w.Code)
		var resp map[string]interface{}
		decodeBody(t, w, &resp)
		assert.Contains(t, resp, "warning")
		assert.Empty(t, f.tablePerms.items, "the local record goes away regardless")
	})

	t.Run("404s on an unknown id", func(t *testing.T) {
		f := newTestFixture(t)

		w := f.do(t, "DELETE", "/api/v1/table-permissions/42", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestTablePermissionUpdate(t *testing.T) {
	f := newTestFixture(t)
	w := f.do(t, "POST", "/api/v1/table-permissions", model.TablePermission{
		Database: "sales", Table: "orders", UserName: "alice",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = f.do(t, "PUT", "/api/v1/table-permissions/1", model.TablePermission{
		Database: "sales", Table: "orders", UserName: "bob",
	})

	require.Equal(t, http.StatusOK, w.Code)

	// The old grant is revoked, the new one granted.
	require.Len(t, f.applier.revokes, 1)
	require.Len(t, f.applier.grants, 2)
	oldIntent := f.applier.revokes[0].(reconcile.AccessIntent)
	newIntent := f.applier.grants[1].(reconcile.AccessIntent)
	assert.Equal(t, []string{"alice"}, oldIntent.Principals.Users)
	assert.Equal(t, []string{"bob"}, newIntent.Principals.Users)

	updated, err := f.tablePerms.ByID(1)
	require.NoError(t, err)
	assert.Equal(t, "bob", updated.UserName)
}

func TestTablePermissionUpdateRestoresRecordOnRevokeFailure(t *testing.T) {
	f := newTestFixture(t)
	w := f.do(t, "POST", "/api/v1/table-permissions", model.TablePermission{
		Database: "olddb", Table: "orders", UserName: "alice",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	// The revoke of the old grant fails terminally mid-update.
	f.applier.failDatabase = "olddb"

	w = f.do(t, "PUT", "/api/v1/table-permissions/1", model.TablePermission{
		Database: "newdb", Table: "orders", UserName: "alice",
	})

	require.Equal(t, http.StatusBadGateway, w.Code)

	// The stored record reverts to the old values and the new grant was
	// never attempted, so the local intent still matches the authority.
	kept, err := f.tablePerms.ByID(1)
	require.NoError(t, err)
	assert.Equal(t, "olddb", kept.Database)
	require.Len(t, f.applier.grants, 1)
	assert.Equal(t, "olddb", f.applier.grants[0].(reconcile.AccessIntent).Database)
}

func TestTablePermissionList(t *testing.T) {
	f := newTestFixture(t)
	for _, user := range []string{"alice", "bob"} {
		w := f.do(t, "POST", "/api/v1/table-permissions", model.TablePermission{
			Database: "sales", Table: "orders", UserName: user,
		})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := f.do(t, "GET", "/api/v1/table-permissions?db_name=sales", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var page store.Page[model.TablePermission]
	decodeBody(t, w, &page)
	assert.EqualValues(t, 2, page.Total)
	assert.Len(t, page.Items, 2)
}

func TestTablePermissionBatchImport(t *testing.T) {
	t.Run("persists and grants every item", func(t *testing.T) {
		f := newTestFixture(t)

		w := f.do(t, "POST", "/api/v1/table-permissions/batch", []model.TablePermission{
			{Database: "sales", Table: "orders", UserName: "alice"},
			{Database: "sales", Table: "refunds", UserName: "alice"},
		})

		require.Equal(t, http.StatusCreated, w.Code)
		assert.Len(t, f.tablePerms.items, 2)
		assert.Len(t, f.applier.grants, 2)
	})

	t.Run("one failure rolls back the whole batch", func(t *testing.T) {
		f := newTestFixture(t)
		f.applier.failDatabase = "finance"

		w := f.do(t, "POST", "/api/v1/table-permissions/batch", []model.TablePermission{
			{Database: "sales", Table: "orders", UserName: "alice"},
			{Database: "finance", Table: "ledger", UserName: "alice"},
			{Database: "sales", Table: "refunds", UserName: "alice"},
		})

		require.Equal(t, http.StatusBadGateway, w.Code)
		assert.Empty(t, f.tablePerms.items, "batch is all-or-nothing locally")

		var resp struct {
			Failed []string `json:"failed"`
		}
		decodeBody(t, w, &resp)
		assert.Equal(t, []string{"table-permission/2"}, resp.Failed)
	})
}

func TestEndpointsRequireAuth(t *testing.T) {
	f := newTestFixture(t)

	req := httptest.NewRequest("GET", "/api/v1/table-permissions", nil)
	w := httptest.NewRecorder()
	f.srv.Router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
