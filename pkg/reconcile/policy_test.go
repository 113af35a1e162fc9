package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youcash/permission-hub/pkg/ranger"
)

func accessItem(users []string, accesses ...string) ranger.PolicyItem {
	return ranger.PolicyItem{
		Accesses: itemAccesses(accesses),
		Users:    users,
	}
}

func TestMergeAccessGrant(t *testing.T) {
	t.Run("appends when no item matches the access set", func(t *testing.T) {
		policy := &ranger.Policy{
			PolicyItems: []ranger.PolicyItem{accessItem([]string{"alice"}, "select")},
		}

		changed := mergeAccessGrant(policy, accessItem([]string{"bob"}, "drop"))

		assert.True(t, changed)
		require.Len(t, policy.PolicyItems, 2)
		assert.Equal(t, []string{"bob"}, policy.PolicyItems[1].Users)
	})

	t.Run("inserts at the front when the access set matches but principals are missing", func(t *testing.T) {
		policy := &ranger.Policy{
			PolicyItems: []ranger.PolicyItem{accessItem([]string{"alice"}, "select")},
		}

		changed := mergeAccessGrant(policy, accessItem([]string{"bob"}, "select"))

		assert.True(t, changed)
		require.Len(t, policy.PolicyItems, 2)
		assert.Equal(t, []string{"bob"}, policy.PolicyItems[0].Users)
		assert.Equal(t, []string{"alice"}, policy.PolicyItems[1].Users)
	})

	t.Run("never widens an existing item in place", func(t *testing.T) {
		policy := &ranger.Policy{
			PolicyItems: []ranger.PolicyItem{accessItem([]string{"alice"}, "select")},
		}

		mergeAccessGrant(policy, accessItem([]string{"bob"}, "select"))

		assert.Equal(t, []string{"alice"}, policy.PolicyItems[1].Users)
	})

	t.Run("is a no-op when principals are already covered", func(t *testing.T) {
		policy := &ranger.Policy{
			PolicyItems: []ranger.PolicyItem{accessItem([]string{"alice", "bob"}, "select")},
		}

		changed := mergeAccessGrant(policy, accessItem([]string{"bob"}, "select"))

		assert.False(t, changed)
		assert.Len(t, policy.PolicyItems, 1)
	})

	t.Run("access set comparison ignores order and case", func(t *testing.T) {
		policy := &ranger.Policy{
			PolicyItems: []ranger.PolicyItem{accessItem([]string{"alice"}, "SELECT", "DROP")},
		}

		changed := mergeAccessGrant(policy, accessItem([]string{"alice"}, "drop", "select"))

		assert.False(t, changed)
	})

	t.Run("idempotent across two identical grants", func(t *testing.T) {
		policy := &ranger.Policy{}

		first := mergeAccessGrant(policy, accessItem([]string{"alice"}, "select"))
		second := mergeAccessGrant(policy, accessItem([]string{"alice"}, "select"))

		assert.True(t, first)
		assert.False(t, second)
		assert.Len(t, policy.PolicyItems, 1)
	})
}

func TestMergeMaskGrant(t *testing.T) {
	maskItem := func(users []string, maskType string) ranger.DataMaskPolicyItem {
		return ranger.DataMaskPolicyItem{
			PolicyItem:   ranger.PolicyItem{Accesses: itemAccesses([]string{"select"}), Users: users},
			DataMaskInfo: ranger.DataMaskInfo{DataMaskType: maskType},
		}
	}

	t.Run("matches on mask type", func(t *testing.T) {
		policy := &ranger.Policy{
			DataMaskPolicyItems: []ranger.DataMaskPolicyItem{maskItem([]string{"alice"}, "MASK_HASH")},
		}

		changed := mergeMaskGrant(policy, maskItem([]string{"bob"}, "MASK_HASH"))

		assert.True(t, changed)
		require.Len(t, policy.DataMaskPolicyItems, 2)
		assert.Equal(t, []string{"bob"}, policy.DataMaskPolicyItems[0].Users)
	})

	t.Run("different mask type appends", func(t *testing.T) {
		policy := &ranger.Policy{
			DataMaskPolicyItems: []ranger.DataMaskPolicyItem{maskItem([]string{"alice"}, "MASK_HASH")},
		}

		changed := mergeMaskGrant(policy, maskItem([]string{"alice"}, "MASK_NONE"))

		assert.True(t, changed)
		require.Len(t, policy.DataMaskPolicyItems, 2)
		assert.Equal(t, "MASK_NONE", policy.DataMaskPolicyItems[1].DataMaskInfo.DataMaskType)
	})
}

func TestMergeRowFilterGrant(t *testing.T) {
	filterItem := func(users []string, expr string) ranger.RowFilterPolicyItem {
		return ranger.RowFilterPolicyItem{
			PolicyItem:    ranger.PolicyItem{Accesses: itemAccesses([]string{"select"}), Users: users},
			RowFilterInfo: ranger.RowFilterInfo{FilterExpr: expr},
		}
	}

	t.Run("matches on filter expression", func(t *testing.T) {
		policy := &ranger.Policy{
			RowFilterPolicyItems: []ranger.RowFilterPolicyItem{filterItem([]string{"alice"}, "region = 'eu'")},
		}

		changed := mergeRowFilterGrant(policy, filterItem([]string{"alice"}, "region = 'eu'"))
		assert.False(t, changed)

		changed = mergeRowFilterGrant(policy, filterItem([]string{"bob"}, "region = 'us'"))
		assert.True(t, changed)
		assert.Len(t, policy.RowFilterPolicyItems, 2)
	})
}

func TestRevokeAccessItems(t *testing.T) {
	principals := func(users ...string) PrincipalSet {
		return PrincipalSet{Users: users}
	}

	t.Run("strips principals and keeps the remainder", func(t *testing.T) {
		policy := &ranger.Policy{
			PolicyItems: []ranger.PolicyItem{accessItem([]string{"alice", "bob"}, "select")},
		}

		outcome := revokeAccessItems(policy, itemAccesses([]string{"select"}), principals("bob"))

		assert.Equal(t, RevokeUpdate, outcome)
		require.Len(t, policy.PolicyItems, 1)
		assert.Equal(t, []string{"alice"}, policy.PolicyItems[0].Users)
	})

	t.Run("prunes items emptied of all principals", func(t *testing.T) {
		policy := &ranger.Policy{
			PolicyItems: []ranger.PolicyItem{
				accessItem([]string{"alice"}, "select"),
				accessItem([]string{"bob"}, "drop"),
			},
		}

		outcome := revokeAccessItems(policy, itemAccesses([]string{"select"}), principals("alice"))

		assert.Equal(t, RevokeUpdate, outcome)
		require.Len(t, policy.PolicyItems, 1)
		assert.Equal(t, []string{"bob"}, policy.PolicyItems[0].Users)
	})

	t.Run("signals delete when the last item empties", func(t *testing.T) {
		policy := &ranger.Policy{
			PolicyItems: []ranger.PolicyItem{accessItem([]string{"alice"}, "select")},
		}

		outcome := revokeAccessItems(policy, itemAccesses([]string{"select"}), principals("alice"))

		assert.Equal(t, RevokeDelete, outcome)
		assert.Empty(t, policy.PolicyItems)
	})

	t.Run("reports nothing when no principal is present", func(t *testing.T) {
		policy := &ranger.Policy{
			PolicyItems: []ranger.PolicyItem{accessItem([]string{"alice"}, "select")},
		}

		outcome := revokeAccessItems(policy, itemAccesses([]string{"select"}), principals("mallory"))

		assert.Equal(t, RevokeNothing, outcome)
		require.Len(t, policy.PolicyItems, 1)
		assert.Equal(t, []string{"alice"}, policy.PolicyItems[0].Users)
	})

	t.Run("a wider access set does not match", func(t *testing.T) {
		policy := &ranger.Policy{
			PolicyItems: []ranger.PolicyItem{accessItem([]string{"alice"}, "select", "drop")},
		}

		outcome := revokeAccessItems(policy, itemAccesses([]string{"select"}), principals("alice"))

		assert.Equal(t, RevokeNothing, outcome)
	})
}

func TestRevokeMaskItems(t *testing.T) {
	policy := &ranger.Policy{
		DataMaskPolicyItems: []ranger.DataMaskPolicyItem{
			{
				PolicyItem:   ranger.PolicyItem{Users: []string{"alice"}},
				DataMaskInfo: ranger.DataMaskInfo{DataMaskType: "MASK_HASH"},
			},
			{
				PolicyItem:   ranger.PolicyItem{Users: []string{"alice"}},
				DataMaskInfo: ranger.DataMaskInfo{DataMaskType: "MASK_NONE"},
			},
		},
	}

	outcome := revokeMaskItems(policy, "MASK_HASH", PrincipalSet{Users: []string{"alice"}})

	assert.Equal(t, RevokeUpdate, outcome)
	require.Len(t, policy.DataMaskPolicyItems, 1)
	assert.Equal(t, "MASK_NONE", policy.DataMaskPolicyItems[0].DataMaskInfo.DataMaskType)
}

func TestRevokeRowFilterItems(t *testing.T) {
	policy := &ranger.Policy{
		RowFilterPolicyItems: []ranger.RowFilterPolicyItem{
			{
				PolicyItem:    ranger.PolicyItem{Users: []string{"alice"}, Groups: []string{"analysts"}},
				RowFilterInfo: ranger.RowFilterInfo{FilterExpr: "region = 'eu'"},
			},
		},
	}

	outcome := revokeRowFilterItems(policy, "region = 'eu'", PrincipalSet{Users: []string{"alice"}})

	assert.Equal(t, RevokeUpdate, outcome)
	require.Len(t, policy.RowFilterPolicyItems, 1)
	assert.Empty(t, policy.RowFilterPolicyItems[0].Users)
	assert.Equal(t, []string{"analysts"}, policy.RowFilterPolicyItems[0].Groups)
}
