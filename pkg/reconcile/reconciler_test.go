package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youcash/permission-hub/pkg/config"
	"github.com/youcash/permission-hub/pkg/ranger"
)

// fakeClient is an in-memory ranger.Client keyed by (service, name).
type fakeClient struct {
	policies map[string]*ranger.Policy
	roles    map[string]*ranger.Role
	nextID   int64

	created int
	updated int
	deleted int

	failGet error
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		policies: map[string]*ranger.Policy{},
		roles:    map[string]*ranger.Role{},
		nextID:   100,
	}
}

func policyKey(service, name string) string { return service + "/" + name }

func (f *fakeClient) GetPolicy(_ context.Context, service, name string) (*ranger.Policy, error) {
	if f.failGet != nil {
		return nil, f.failGet
	}
	return f.policies[policyKey(service, name)], nil
}

func (f *fakeClient) CreatePolicy(_ context.Context, policy *ranger.Policy) (int64, error) {
	f.nextID++
	policy.ID = f.nextID
	f.policies[policyKey(policy.Service, policy.Name)] = policy
	f.created++
	return policy.ID, nil
}

func (f *fakeClient) UpdatePolicy(_ context.Context, id int64, policy *ranger.Policy) error {
	f.updated++
	f.policies[policyKey(policy.Service, policy.Name)] = policy
	return nil
}

func (f *fakeClient) DeletePolicy(_ context.Context, id int64) error {
	for key, policy := range f.policies {
		if policy.ID == id {
			delete(f.policies, key)
		}
	}
	f.deleted++
	return nil
}

func (f *fakeClient) GetRole(_ context.Context, service, name string) (*ranger.Role, error) {
	return f.roles[policyKey(service, name)], nil
}

func (f *fakeClient) CreateRole(_ context.Context, service string, role *ranger.Role) (int64, error) {
	f.nextID++
	role.ID = f.nextID
	f.roles[policyKey(service, role.Name)] = role
	f.created++
	return role.ID, nil
}

func (f *fakeClient) UpdateRole(_ context.Context, id int64, role *ranger.Role) error {
	f.updated++
	for key, existing := range f.roles {
		if existing.ID == id {
			f.roles[key] = role
		}
	}
	return nil
}

func (f *fakeClient) FindRolesForUser(_ context.Context, user string) ([]ranger.Role, error) {
	var out []ranger.Role
	for _, role := range f.roles {
		for _, member := range role.Users {
			if member.Name == user {
				out = append(out, *role)
			}
		}
	}
	return out, nil
}

func (f *fakeClient) FindPoliciesByPrincipal(_ context.Context, service, kind, value string) ([]ranger.Policy, error) {
	return nil, nil
}

func newTestReconciler(client ranger.Client) *Reconciler {
	cfg := config.Ranger{Services: []string{"cm_hive"}}
	return New(client, cfg, hclog.NewNullLogger())
}

func TestReconcilerGrant(t *testing.T) {
	intent := AccessIntent{
		Database:   "sales",
		Table:      "orders",
		Accesses:   []string{"select"},
		Principals: PrincipalSet{Users: []string{"alice"}},
	}

	t.Run("creates a document when none exists", func(t *testing.T) {
		client := newFakeClient()

		results, err := newTestReconciler(client).Grant(context.Background(), intent)

		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.True(t, results.Changed())
		assert.NoError(t, results.Err())
		assert.Equal(t, 1, client.created)

		policy := client.policies["cm_hive/sales.orders.all.normal"]
		require.NotNil(t, policy)
		assert.Equal(t, ranger.PolicyTypeAccess, policy.PolicyType)
		assert.Equal(t, []string{"sales"}, policy.Resources["database"].Values)
		assert.Equal(t, []string{"orders"}, policy.Resources["table"].Values)
		assert.Equal(t, []string{"*"}, policy.Resources["column"].Values)
		require.Len(t, policy.PolicyItems, 1)
		assert.Equal(t, []string{"alice"}, policy.PolicyItems[0].Users)
	})

	t.Run("merges into an existing document", func(t *testing.T) {
		client := newFakeClient()
		rec := newTestReconciler(client)
		_, err := rec.Grant(context.Background(), intent)
		require.NoError(t, err)

		second := intent
		second.Principals = PrincipalSet{Users: []string{"bob"}}
		results, err := rec.Grant(context.Background(), second)

		require.NoError(t, err)
		assert.True(t, results.Changed())
		assert.Equal(t, 1, client.created)
		assert.Equal(t, 1, client.updated)

		policy := client.policies["cm_hive/sales.orders.all.normal"]
		require.Len(t, policy.PolicyItems, 2)
	})

	t.Run("repeating a grant issues no write", func(t *testing.T) {
		client := newFakeClient()
		rec := newTestReconciler(client)
		_, err := rec.Grant(context.Background(), intent)
		require.NoError(t, err)

		results, err := rec.Grant(context.Background(), intent)

		require.NoError(t, err)
		assert.False(t, results.Changed())
		assert.Equal(t, 0, client.updated)
	})

	t.Run("validation failure aborts before any remote call", func(t *testing.T) {
		client := newFakeClient()
		bad := intent
		bad.Principals = PrincipalSet{}

		_, err := newTestReconciler(client).Grant(context.Background(), bad)

		assert.True(t, IsValidation(err))
		assert.Equal(t, 0, client.created)
	})

	t.Run("remote failure lands in the target result", func(t *testing.T) {
		client := newFakeClient()
		client.failGet = errors.New("boom")

		results, err := newTestReconciler(client).Grant(context.Background(), intent)

		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.ErrorContains(t, results[0].Err, "boom")
		assert.ErrorContains(t, results.Err(), "boom")
	})

	t.Run("initial mask document rejects MASK_NONE", func(t *testing.T) {
		client := newFakeClient()
		mask := MaskIntent{
			Database:   "sales",
			Table:      "orders",
			Columns:    []string{"card_no"},
			MaskType:   "MASK_NONE",
			Principals: PrincipalSet{Users: []string{"alice"}},
		}

		results, err := newTestReconciler(client).Grant(context.Background(), mask)

		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.True(t, IsValidation(results[0].Err))
		assert.Equal(t, 0, client.created)
	})

	t.Run("MASK_NONE merges into an existing mask document", func(t *testing.T) {
		client := newFakeClient()
		rec := newTestReconciler(client)
		mask := MaskIntent{
			Database:   "sales",
			Table:      "orders",
			Columns:    []string{"card_no"},
			MaskType:   "MASK_HASH",
			Principals: PrincipalSet{Users: []string{"alice"}},
		}
		_, err := rec.Grant(context.Background(), mask)
		require.NoError(t, err)

		mask.MaskType = "MASK_NONE"
		mask.Principals = PrincipalSet{Users: []string{"bob"}}
		results, err := rec.Grant(context.Background(), mask)

		require.NoError(t, err)
		assert.NoError(t, results.Err())
		assert.True(t, results.Changed())

		policy := client.policies["cm_hive/sales.orders.card_no.mask"]
		require.NotNil(t, policy)
		require.Len(t, policy.DataMaskPolicyItems, 2)
	})
}

func TestReconcilerRevoke(t *testing.T) {
	intent := AccessIntent{
		Database:   "sales",
		Table:      "orders",
		Accesses:   []string{"select"},
		Principals: PrincipalSet{Users: []string{"alice"}},
	}

	t.Run("deletes the document when the last item empties", func(t *testing.T) {
		client := newFakeClient()
		rec := newTestReconciler(client)
		_, err := rec.Grant(context.Background(), intent)
		require.NoError(t, err)

		results, err := rec.Revoke(context.Background(), intent)

		require.NoError(t, err)
		assert.True(t, results.Changed())
		assert.Equal(t, 1, client.deleted)
		assert.Equal(t, 0, client.updated)
		assert.NotContains(t, client.policies, "cm_hive/sales.orders.all.normal")
	})

	t.Run("updates when other principals remain", func(t *testing.T) {
		client := newFakeClient()
		rec := newTestReconciler(client)
		broad := intent
		broad.Principals = PrincipalSet{Users: []string{"alice", "bob"}}
		_, err := rec.Grant(context.Background(), broad)
		require.NoError(t, err)

		results, err := rec.Revoke(context.Background(), intent)

		require.NoError(t, err)
		assert.True(t, results.Changed())
		assert.Equal(t, 1, client.updated)
		policy := client.policies["cm_hive/sales.orders.all.normal"]
		require.Len(t, policy.PolicyItems, 1)
		assert.Equal(t, []string{"bob"}, policy.PolicyItems[0].Users)
	})

	t.Run("nothing to revoke when the document is absent", func(t *testing.T) {
		client := newFakeClient()

		results, err := newTestReconciler(client).Revoke(context.Background(), intent)

		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.ErrorIs(t, results[0].Err, ErrNothingToRevoke)
		assert.NoError(t, results.Err())
		assert.False(t, results.Changed())
	})

	t.Run("nothing to revoke when the principal was never granted", func(t *testing.T) {
		client := newFakeClient()
		rec := newTestReconciler(client)
		_, err := rec.Grant(context.Background(), intent)
		require.NoError(t, err)

		other := intent
		other.Principals = PrincipalSet{Users: []string{"mallory"}}
		results, err := rec.Revoke(context.Background(), other)

		require.NoError(t, err)
		assert.ErrorIs(t, results[0].Err, ErrNothingToRevoke)
		assert.Equal(t, 0, client.updated)
		assert.Equal(t, 0, client.deleted)
	})
}

func TestReconcilerDorisFanout(t *testing.T) {
	client := newFakeClient()
	cfg := config.Ranger{Services: []string{"cm_hive", "doris"}, Catalogs: []string{"internal"}}
	rec := New(client, cfg, hclog.NewNullLogger())

	intent := AccessIntent{
		Database:   "sales",
		Table:      "orders",
		Accesses:   []string{"select"},
		Principals: PrincipalSet{Users: []string{"alice"}},
	}

	results, err := rec.Grant(context.Background(), intent)

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 2, client.created)

	hive := client.policies["cm_hive/sales.orders.all.normal"]
	require.NotNil(t, hive)
	require.Len(t, hive.PolicyItems, 1)
	assert.Equal(t, []ranger.ItemAccess{{Type: "select", IsAllowed: true}}, hive.PolicyItems[0].Accesses)
	assert.NotContains(t, hive.Resources, "catalog")

	doris := client.policies["doris/doris.internal.sales.orders.all.normal"]
	require.NotNil(t, doris)
	assert.Equal(t, []string{"internal"}, doris.Resources["catalog"].Values)
	require.Len(t, doris.PolicyItems, 1)
	assert.Equal(t, []ranger.ItemAccess{
		{Type: "SELECT", IsAllowed: true},
		{Type: "SHOW", IsAllowed: true},
	}, doris.PolicyItems[0].Accesses)
}
