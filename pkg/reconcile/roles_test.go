package reconcile

import (
	"context"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youcash/permission-hub/pkg/ranger"
)

func TestEnsureMembership(t *testing.T) {
	t.Run("creates a missing role with the members", func(t *testing.T) {
		client := newFakeClient()
		rec := NewRoleReconciler(client, hclog.NewNullLogger())

		changed, err := rec.EnsureMembership(context.Background(), "cm_hive", "analysts", PrincipalSet{Users: []string{"alice", "bob"}})

		require.NoError(t, err)
		assert.True(t, changed)
		role := client.roles["cm_hive/analysts"]
		require.NotNil(t, role)
		assert.Equal(t, []string{"alice", "bob"}, ranger.MemberNames(role.Users))
	})

	t.Run("creates a missing role carrying groups and nested roles", func(t *testing.T) {
		client := newFakeClient()
		rec := NewRoleReconciler(client, hclog.NewNullLogger())

		members := PrincipalSet{
			Users:  []string{"alice"},
			Groups: []string{"finance"},
			Roles:  []string{"auditors"},
		}
		changed, err := rec.EnsureMembership(context.Background(), "cm_hive", "analysts", members)

		require.NoError(t, err)
		assert.True(t, changed)
		role := client.roles["cm_hive/analysts"]
		require.NotNil(t, role)
		assert.Equal(t, []string{"alice"}, ranger.MemberNames(role.Users))
		assert.Equal(t, []string{"finance"}, ranger.MemberNames(role.Groups))
		assert.Equal(t, []string{"auditors"}, ranger.MemberNames(role.Roles))
	})

	t.Run("adds only the missing members", func(t *testing.T) {
		client := newFakeClient()
		rec := NewRoleReconciler(client, hclog.NewNullLogger())
		_, err := rec.EnsureMembership(context.Background(), "cm_hive", "analysts", PrincipalSet{Users: []string{"alice"}})
		require.NoError(t, err)

		changed, err := rec.EnsureMembership(context.Background(), "cm_hive", "analysts", PrincipalSet{Users: []string{"alice", "bob"}})

		require.NoError(t, err)
		assert.True(t, changed)
		role := client.roles["cm_hive/analysts"]
		assert.Equal(t, []string{"alice", "bob"}, ranger.MemberNames(role.Users))
	})

	t.Run("unions groups into an existing role", func(t *testing.T) {
		client := newFakeClient()
		rec := NewRoleReconciler(client, hclog.NewNullLogger())
		_, err := rec.EnsureMembership(context.Background(), "cm_hive", "analysts", PrincipalSet{Groups: []string{"finance"}})
		require.NoError(t, err)

		changed, err := rec.EnsureMembership(context.Background(), "cm_hive", "analysts", PrincipalSet{Groups: []string{"finance", "risk"}})

		require.NoError(t, err)
		assert.True(t, changed)
		role := client.roles["cm_hive/analysts"]
		assert.Equal(t, []string{"finance", "risk"}, ranger.MemberNames(role.Groups))
	})

	t.Run("skips the update when everyone is already a member", func(t *testing.T) {
		client := newFakeClient()
		rec := NewRoleReconciler(client, hclog.NewNullLogger())
		_, err := rec.EnsureMembership(context.Background(), "cm_hive", "analysts", PrincipalSet{Users: []string{"alice"}, Groups: []string{"finance"}})
		require.NoError(t, err)

		changed, err := rec.EnsureMembership(context.Background(), "cm_hive", "analysts", PrincipalSet{Users: []string{"alice"}, Groups: []string{"finance"}})

		require.NoError(t, err)
		assert.False(t, changed)
		assert.Equal(t, 0, client.updated)
	})
}

func TestRemoveMembership(t *testing.T) {
	t.Run("removes members and writes back", func(t *testing.T) {
		client := newFakeClient()
		rec := NewRoleReconciler(client, hclog.NewNullLogger())
		_, err := rec.EnsureMembership(context.Background(), "cm_hive", "analysts", PrincipalSet{Users: []string{"alice", "bob"}})
		require.NoError(t, err)

		changed, err := rec.RemoveMembership(context.Background(), "cm_hive", "analysts", PrincipalSet{Users: []string{"alice"}})

		require.NoError(t, err)
		assert.True(t, changed)
		role := client.roles["cm_hive/analysts"]
		assert.Equal(t, []string{"bob"}, ranger.MemberNames(role.Users))
	})

	t.Run("removes groups and nested roles", func(t *testing.T) {
		client := newFakeClient()
		rec := NewRoleReconciler(client, hclog.NewNullLogger())
		members := PrincipalSet{
			Users:  []string{"alice"},
			Groups: []string{"finance", "risk"},
			Roles:  []string{"auditors"},
		}
		_, err := rec.EnsureMembership(context.Background(), "cm_hive", "analysts", members)
		require.NoError(t, err)

		changed, err := rec.RemoveMembership(context.Background(), "cm_hive", "analysts", PrincipalSet{Groups: []string{"risk"}, Roles: []string{"auditors"}})

		require.NoError(t, err)
		assert.True(t, changed)
		role := client.roles["cm_hive/analysts"]
		assert.Equal(t, []string{"alice"}, ranger.MemberNames(role.Users))
		assert.Equal(t, []string{"finance"}, ranger.MemberNames(role.Groups))
		assert.Empty(t, ranger.MemberNames(role.Roles))
	})

	t.Run("a missing role is a no-op", func(t *testing.T) {
		client := newFakeClient()
		rec := NewRoleReconciler(client, hclog.NewNullLogger())

		changed, err := rec.RemoveMembership(context.Background(), "cm_hive", "ghosts", PrincipalSet{Users: []string{"alice"}})

		require.NoError(t, err)
		assert.False(t, changed)
	})

	t.Run("a user who was never a member is a no-op", func(t *testing.T) {
		client := newFakeClient()
		rec := NewRoleReconciler(client, hclog.NewNullLogger())
		_, err := rec.EnsureMembership(context.Background(), "cm_hive", "analysts", PrincipalSet{Users: []string{"alice"}})
		require.NoError(t, err)

		changed, err := rec.RemoveMembership(context.Background(), "cm_hive", "analysts", PrincipalSet{Users: []string{"mallory"}})

		require.NoError(t, err)
		assert.False(t, changed)
		assert.Equal(t, 0, client.updated)
	})
}

func TestRemovePrincipalFromAllRoles(t *testing.T) {
	client := newFakeClient()
	rec := NewRoleReconciler(client, hclog.NewNullLogger())
	ctx := context.Background()
	_, err := rec.EnsureMembership(ctx, "cm_hive", "analysts", PrincipalSet{Users: []string{"alice", "bob"}})
	require.NoError(t, err)
	_, err = rec.EnsureMembership(ctx, "cm_hive", "admins", PrincipalSet{Users: []string{"alice"}})
	require.NoError(t, err)

	err = rec.RemovePrincipalFromAllRoles(ctx, "cm_hive", "alice")

	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, ranger.MemberNames(client.roles["cm_hive/analysts"].Users))
	assert.Empty(t, ranger.MemberNames(client.roles["cm_hive/admins"].Users))
}
