package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandTargets(t *testing.T) {
	somePrincipals := PrincipalSet{Users: []string{"alice"}}

	t.Run("one target per column per service", func(t *testing.T) {
		intent := AccessIntent{
			Database:   "sales",
			Table:      "orders",
			Columns:    []string{"amount", "buyer"},
			Accesses:   []string{"select"},
			Principals: somePrincipals,
		}

		targets, err := ExpandTargets(intent, []string{"cm_hive", "trino"}, nil)

		require.NoError(t, err)
		require.Len(t, targets, 4)
		assert.Equal(t, "sales.orders.amount.normal", targets[0].PolicyName)
		assert.Equal(t, "cm_hive", targets[0].Service)
		assert.Equal(t, "sales.orders.amount.normal", targets[1].PolicyName)
		assert.Equal(t, "trino", targets[1].Service)
		assert.Equal(t, "sales.orders.buyer.normal", targets[2].PolicyName)
	})

	t.Run("wildcards map to the literal all", func(t *testing.T) {
		intent := AccessIntent{
			Database:   "sales",
			Table:      "*",
			Accesses:   []string{"select"},
			Principals: somePrincipals,
		}

		targets, err := ExpandTargets(intent, []string{"cm_hive"}, nil)

		require.NoError(t, err)
		require.Len(t, targets, 1)
		assert.Equal(t, "sales.all.all.normal", targets[0].PolicyName)
		assert.Equal(t, "*", targets[0].Column)
	})

	t.Run("doris targets carry the catalog in the name", func(t *testing.T) {
		intent := AccessIntent{
			Database:   "sales",
			Table:      "orders",
			Accesses:   []string{"select"},
			Principals: somePrincipals,
		}

		targets, err := ExpandTargets(intent, []string{"doris"}, []string{"internal", "hive"})

		require.NoError(t, err)
		require.Len(t, targets, 2)
		assert.Equal(t, "doris.internal.sales.orders.all.normal", targets[0].PolicyName)
		assert.Equal(t, "internal", targets[0].Catalog)
		assert.Equal(t, "doris.hive.sales.orders.all.normal", targets[1].PolicyName)
	})

	t.Run("doris without catalogs is rejected", func(t *testing.T) {
		intent := AccessIntent{
			Database:   "sales",
			Table:      "orders",
			Accesses:   []string{"select"},
			Principals: somePrincipals,
		}

		_, err := ExpandTargets(intent, []string{"doris"}, nil)

		assert.True(t, IsValidation(err))
	})

	t.Run("explicit name overrides a single-column derivation", func(t *testing.T) {
		intent := AccessIntent{
			Database:   "sales",
			Table:      "orders",
			Columns:    []string{"amount"},
			Accesses:   []string{"select"},
			Name:       "sales-special",
			Principals: somePrincipals,
		}

		targets, err := ExpandTargets(intent, []string{"cm_hive"}, nil)

		require.NoError(t, err)
		require.Len(t, targets, 1)
		assert.Equal(t, "sales-special", targets[0].PolicyName)
	})

	t.Run("explicit name is ignored when no columns are given", func(t *testing.T) {
		intent := AccessIntent{
			Database:   "sales",
			Table:      "orders",
			Accesses:   []string{"select"},
			Name:       "sales-special",
			Principals: somePrincipals,
		}

		targets, err := ExpandTargets(intent, []string{"cm_hive"}, nil)

		require.NoError(t, err)
		require.Len(t, targets, 1)
		assert.Equal(t, "sales.orders.all.normal", targets[0].PolicyName)
		assert.Equal(t, "*", targets[0].Column)
	})

	t.Run("explicit name is ignored when fanning out over columns", func(t *testing.T) {
		intent := AccessIntent{
			Database:   "sales",
			Table:      "orders",
			Columns:    []string{"amount", "buyer"},
			Accesses:   []string{"select"},
			Name:       "sales-special",
			Principals: somePrincipals,
		}

		targets, err := ExpandTargets(intent, []string{"cm_hive"}, nil)

		require.NoError(t, err)
		require.Len(t, targets, 2)
		assert.Equal(t, "sales.orders.amount.normal", targets[0].PolicyName)
		assert.Equal(t, "sales.orders.buyer.normal", targets[1].PolicyName)
	})

	t.Run("mask names", func(t *testing.T) {
		intent := MaskIntent{
			Database:   "sales",
			Table:      "orders",
			Columns:    []string{"card_no"},
			MaskType:   "MASK_HASH",
			Principals: somePrincipals,
		}

		targets, err := ExpandTargets(intent, []string{"cm_hive"}, nil)

		require.NoError(t, err)
		require.Len(t, targets, 1)
		assert.Equal(t, "sales.orders.card_no.mask", targets[0].PolicyName)
	})

	t.Run("row filter names", func(t *testing.T) {
		intent := RowFilterIntent{
			Database:   "sales",
			Table:      "orders",
			FilterExpr: "region = 'eu'",
			Principals: somePrincipals,
		}

		targets, err := ExpandTargets(intent, []string{"cm_hive"}, nil)

		require.NoError(t, err)
		require.Len(t, targets, 1)
		assert.Equal(t, "sales.orders.row_filter", targets[0].PolicyName)
		assert.Empty(t, targets[0].Column)
	})
}
