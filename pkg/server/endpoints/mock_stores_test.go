package endpoints

import (
	"context"
	"errors"

	"github.com/youcash/permission-hub/pkg/model"
	"github.com/youcash/permission-hub/pkg/reconcile"
	"github.com/youcash/permission-hub/pkg/server/store"
)

// In-memory store implementations for handler tests. They honor the same
// uniqueness and not-found semantics as the gorm stores but skip
// filtering beyond exact matches.

type memTablePermissions struct {
	nextID uint
	items  map[uint]model.TablePermission
}

func newMemTablePermissions() *memTablePermissions {
	return &memTablePermissions{items: map[uint]model.TablePermission{}}
}

func (m *memTablePermissions) Create(p *model.TablePermission) error {
	for _, it := range m.items {
		if it.Database == p.Database && it.Table == p.Table &&
			it.UserName == p.UserName && it.RoleName == p.RoleName {
			return store.ErrDuplicate
		}
	}
	m.nextID++
	p.ID = m.nextID
	m.items[p.ID] = *p
	return nil
}

func (m *memTablePermissions) Update(p *model.TablePermission) error {
	if _, ok := m.items[p.ID]; !ok {
		return store.ErrNotFound
	}
	m.items[p.ID] = *p
	return nil
}

func (m *memTablePermissions) Delete(id uint) error {
	if _, ok := m.items[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *memTablePermissions) ByID(id uint) (*model.TablePermission, error) {
	it, ok := m.items[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &it, nil
}

func (m *memTablePermissions) List(filter store.PermissionFilter) (*store.Page[model.TablePermission], error) {
	var items []model.TablePermission
	for _, it := range m.items {
		items = append(items, it)
	}
	return &store.Page[model.TablePermission]{
		Total: int64(len(items)), Page: 1, PageSize: 10, Items: items,
	}, nil
}

type memColumnPermissions struct {
	nextID uint
	items  map[uint]model.ColumnPermission
}

func newMemColumnPermissions() *memColumnPermissions {
	return &memColumnPermissions{items: map[uint]model.ColumnPermission{}}
}

func (m *memColumnPermissions) Create(p *model.ColumnPermission) error {
	for _, it := range m.items {
		if it.Database == p.Database && it.Table == p.Table && it.Column == p.Column &&
			it.UserName == p.UserName && it.RoleName == p.RoleName {
			return store.ErrDuplicate
		}
	}
	m.nextID++
	p.ID = m.nextID
	m.items[p.ID] = *p
	return nil
}

func (m *memColumnPermissions) Update(p *model.ColumnPermission) error {
	if _, ok := m.items[p.ID]; !ok {
		return store.ErrNotFound
	}
	m.items[p.ID] = *p
	return nil
}

func (m *memColumnPermissions) Delete(id uint) error {
	if _, ok := m.items[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *memColumnPermissions) ByID(id uint) (*model.ColumnPermission, error) {
	it, ok := m.items[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &it, nil
}

func (m *memColumnPermissions) List(filter store.PermissionFilter) (*store.Page[model.ColumnPermission], error) {
	var items []model.ColumnPermission
	for _, it := range m.items {
		items = append(items, it)
	}
	return &store.Page[model.ColumnPermission]{
		Total: int64(len(items)), Page: 1, PageSize: 10, Items: items,
	}, nil
}

type memRowPermissions struct {
	nextID uint
	items  map[uint]model.RowPermission
}

func newMemRowPermissions() *memRowPermissions {
	return &memRowPermissions{items: map[uint]model.RowPermission{}}
}

func (m *memRowPermissions) Create(p *model.RowPermission) error {
	for _, it := range m.items {
		if it.Database == p.Database && it.Table == p.Table &&
			it.UserName == p.UserName && it.RoleName == p.RoleName {
			return store.ErrDuplicate
		}
	}
	m.nextID++
	p.ID = m.nextID
	m.items[p.ID] = *p
	return nil
}

func (m *memRowPermissions) Update(p *model.RowPermission) error {
	if _, ok := m.items[p.ID]; !ok {
		return store.ErrNotFound
	}
	m.items[p.ID] = *p
	return nil
}

func (m *memRowPermissions) Delete(id uint) error {
	if _, ok := m.items[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *memRowPermissions) ByID(id uint) (*model.RowPermission, error) {
	it, ok := m.items[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &it, nil
}

func (m *memRowPermissions) List(filter store.PermissionFilter) (*store.Page[model.RowPermission], error) {
	var items []model.RowPermission
	for _, it := range m.items {
		items = append(items, it)
	}
	return &store.Page[model.RowPermission]{
		Total: int64(len(items)), Page: 1, PageSize: 10, Items: items,
	}, nil
}

type memQuotas struct {
	nextID uint
	items  map[uint]model.HdfsQuota
}

func newMemQuotas() *memQuotas {
	return &memQuotas{items: map[uint]model.HdfsQuota{}}
}

func (m *memQuotas) Create(q *model.HdfsQuota) error {
	for _, it := range m.items {
		if it.Database == q.Database {
			return store.ErrDuplicate
		}
	}
	m.nextID++
	q.ID = m.nextID
	m.items[q.ID] = *q
	return nil
}

func (m *memQuotas) Update(q *model.HdfsQuota) error {
	if _, ok := m.items[q.ID]; !ok {
		return store.ErrNotFound
	}
	m.items[q.ID] = *q
	return nil
}

func (m *memQuotas) Delete(id uint) error {
	if _, ok := m.items[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *memQuotas) ByID(id uint) (*model.HdfsQuota, error) {
	it, ok := m.items[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &it, nil
}

func (m *memQuotas) ByDatabase(database string) (*model.HdfsQuota, error) {
	for _, it := range m.items {
		if it.Database == database {
			return &it, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memQuotas) List(filter store.PermissionFilter) (*store.Page[model.HdfsQuota], error) {
	var items []model.HdfsQuota
	for _, it := range m.items {
		items = append(items, it)
	}
	return &store.Page[model.HdfsQuota]{
		Total: int64(len(items)), Page: 1, PageSize: 10, Items: items,
	}, nil
}

type memDirectoryUsers struct {
	nextID uint
	items  map[uint]model.DirectoryUser
}

func newMemDirectoryUsers() *memDirectoryUsers {
	return &memDirectoryUsers{items: map[uint]model.DirectoryUser{}}
}

func (m *memDirectoryUsers) Create(u *model.DirectoryUser) error {
	for _, it := range m.items {
		if it.Username == u.Username {
			return store.ErrDuplicate
		}
	}
	m.nextID++
	u.ID = m.nextID
	m.items[u.ID] = *u
	return nil
}

func (m *memDirectoryUsers) Update(u *model.DirectoryUser) error {
	if _, ok := m.items[u.ID]; !ok {
		return store.ErrNotFound
	}
	m.items[u.ID] = *u
	return nil
}

func (m *memDirectoryUsers) Delete(id uint) error {
	if _, ok := m.items[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *memDirectoryUsers) ByID(id uint) (*model.DirectoryUser, error) {
	it, ok := m.items[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &it, nil
}

func (m *memDirectoryUsers) ByUsername(username string) (*model.DirectoryUser, error) {
	for _, it := range m.items {
		if it.Username == username {
			return &it, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memDirectoryUsers) List(filter store.PermissionFilter) (*store.Page[model.DirectoryUser], error) {
	var items []model.DirectoryUser
	for _, it := range m.items {
		items = append(items, it)
	}
	return &store.Page[model.DirectoryUser]{
		Total: int64(len(items)), Page: 1, PageSize: 10, Items: items,
	}, nil
}

type memAdminUsers struct {
	nextID uint
	items  map[string]model.AdminUser
}

func newMemAdminUsers() *memAdminUsers {
	return &memAdminUsers{items: map[string]model.AdminUser{}}
}

func (m *memAdminUsers) Create(u *model.AdminUser) error {
	if _, ok := m.items[u.Username]; ok {
		return store.ErrDuplicate
	}
	m.nextID++
	u.ID = m.nextID
	m.items[u.Username] = *u
	return nil
}

func (m *memAdminUsers) ByUsername(username string) (*model.AdminUser, error) {
	it, ok := m.items[username]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &it, nil
}

type okHealth struct{}

func (okHealth) CheckConnectivity() error { return nil }

// fakeApplier stands in for the reconciler. Grants and revokes are
// recorded; intents against failDatabase fail permanently, and
// absentRevoke makes every revoke report nothing to revoke.
type fakeApplier struct {
	grants  []reconcile.Intent
	revokes []reconcile.Intent

	failDatabase string
	absentRevoke bool
}

func intentDatabase(intent reconcile.Intent) string {
	switch in := intent.(type) {
	case reconcile.AccessIntent:
		return in.Database
	case reconcile.MaskIntent:
		return in.Database
	case reconcile.RowFilterIntent:
		return in.Database
	}
	return ""
}

func (f *fakeApplier) Apply(ctx context.Context, op reconcile.Op, intent reconcile.Intent) (reconcile.Results, error) {
	if err := intent.Validate(op); err != nil {
		return nil, err
	}
	if f.failDatabase != "" && intentDatabase(intent) == f.failDatabase {
		return nil, errors.New("authority unavailable")
	}
	if op == reconcile.OpRevoke {
		f.revokes = append(f.revokes, intent)
		if f.absentRevoke {
			return reconcile.Results{{Err: reconcile.ErrNothingToRevoke}}, nil
		}
		return reconcile.Results{{Changed: true}}, nil
	}
	f.grants = append(f.grants, intent)
	return reconcile.Results{{Changed: true}}, nil
}

type fakeRoles struct {
	memberships map[string][]string
	removals    []string
}

func newFakeRoles() *fakeRoles {
	return &fakeRoles{memberships: map[string][]string{}}
}

func (f *fakeRoles) EnsureMembership(ctx context.Context, service, roleName string, members reconcile.PrincipalSet) (bool, error) {
	key := service + "/" + roleName
	f.memberships[key] = append(f.memberships[key], members.Users...)
	f.memberships[key] = append(f.memberships[key], members.Groups...)
	f.memberships[key] = append(f.memberships[key], members.Roles...)
	return true, nil
}

func (f *fakeRoles) RemovePrincipalFromAllRoles(ctx context.Context, service, user string) error {
	f.removals = append(f.removals, service+"/"+user)
	return nil
}

type fakePurger struct {
	purged []string
}

func (f *fakePurger) PurgePrincipal(ctx context.Context, kind, value string) error {
	f.purged = append(f.purged, kind+"/"+value)
	return nil
}
