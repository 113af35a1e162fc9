package endpoints

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youcash/permission-hub/pkg/model"
	"github.com/youcash/permission-hub/pkg/reconcile"
)

func TestColumnPermissionCreate(t *testing.T) {
	t.Run("grants a mask on the named column", func(t *testing.T) {
		f := newTestFixture(t)

		w := f.do(t, "POST", "/api/v1/column-permissions", model.ColumnPermission{
			Database: "sales", Table: "orders", Column: "card_no",
			MaskType: "MASK_HASH", UserName: "alice",
		})

		require.Equal(t, http.StatusCreated, w.Code)
		require.Len(t, f.applier.grants, 1)

		intent, ok := f.applier.grants[0].(reconcile.MaskIntent)
		require.True(t, ok)
		assert.Equal(t, []string{"card_no"}, intent.Columns)
		assert.Equal(t, "MASK_HASH", intent.MaskType)
	})

	t.Run("rejects a wildcard table before any store write", func(t *testing.T) {
		f := newTestFixture(t)

		w := f.do(t, "POST", "/api/v1/column-permissions", model.ColumnPermission{
			Database: "sales", Table: "*", Column: "card_no",
			MaskType: "MASK_HASH", UserName: "alice",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, f.columnPerms.items)
		assert.Empty(t, f.applier.grants)
	})

	t.Run("rejects an unknown mask type", func(t *testing.T) {
		f := newTestFixture(t)

		w := f.do(t, "POST", "/api/v1/column-permissions", model.ColumnPermission{
			Database: "sales", Table: "orders", Column: "card_no",
			MaskType: "MASK_ROT13", UserName: "alice",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestColumnPermissionUpdateRestoresRecordOnRevokeFailure(t *testing.T) {
	f := newTestFixture(t)

	w := f.do(t, "POST", "/api/v1/column-permissions", model.ColumnPermission{
		Database: "olddb", Table: "orders", Column: "card_no",
		MaskType: "MASK_HASH", UserName: "alice",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	f.applier.failDatabase = "olddb"

	w = f.do(t, "PUT", "/api/v1/column-permissions/1", model.ColumnPermission{
		Database: "newdb", Table: "orders", Column: "card_no",
		MaskType: "MASK_HASH", UserName: "alice",
	})

	require.Equal(t, http.StatusBadGateway, w.Code)

	kept, err := f.columnPerms.ByID(1)
	require.NoError(t, err)
	assert.Equal(t, "olddb", kept.Database)
	require.Len(t, f.applier.grants, 1)
}

func TestColumnPermissionDelete(t *testing.T) {
	f := newTestFixture(t)

	w := f.do(t, "POST", "/api/v1/column-permissions", model.ColumnPermission{
		Database: "sales", Table: "orders", Column: "card_no",
		MaskType: "MASK_HASH", UserName: "alice",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = f.do(t, "DELETE", "/api/v1/column-permissions/1", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, f.columnPerms.items)
	require.Len(t, f.applier.revokes, 1)
	assert.IsType(t, reconcile.MaskIntent{}, f.applier.revokes[0])
}
