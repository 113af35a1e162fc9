package gorm

import (
	"gorm.io/gorm"

	"github.com/youcash/permission-hub/pkg/model"
	"github.com/youcash/permission-hub/pkg/server/store"
)

// Ensure the implementations satisfy the interfaces
var _ store.TablePermissionsStore = (*TablePermissionsStore)(nil)
var _ store.ColumnPermissionsStore = (*ColumnPermissionsStore)(nil)
var _ store.RowPermissionsStore = (*RowPermissionsStore)(nil)

// TablePermissionsStore implements store.TablePermissionsStore using GORM
type TablePermissionsStore struct {
	db *gorm.DB
}

// NewTablePermissionsStore creates a new TablePermissionsStore
func NewTablePermissionsStore(db *gorm.DB) *TablePermissionsStore {
	return &TablePermissionsStore{db: db}
}

func (s *TablePermissionsStore) Create(permission *model.TablePermission) error {
	taken, err := tupleTaken(s.db, &model.TablePermission{}, map[string]interface{}{
		"db_name":    permission.Database,
		"table_name": permission.Table,
		"user_name":  permission.UserName,
		"role_name":  permission.RoleName,
	}, 0)
	if err != nil {
		return err
	}
	if taken {
		return store.ErrDuplicate
	}
	return s.db.Create(permission).Error
}

func (s *TablePermissionsStore) Update(permission *model.TablePermission) error {
	if err := exists(s.db, &model.TablePermission{}, permission.ID); err != nil {
		return err
	}
	taken, err := tupleTaken(s.db, &model.TablePermission{}, map[string]interface{}{
		"db_name":    permission.Database,
		"table_name": permission.Table,
		"user_name":  permission.UserName,
		"role_name":  permission.RoleName,
	}, permission.ID)
	if err != nil {
		return err
	}
	if taken {
		return store.ErrDuplicate
	}
	return s.db.Save(permission).Error
}

func (s *TablePermissionsStore) Delete(id uint) error {
	return deleteByID(s.db, &model.TablePermission{}, id)
}

func (s *TablePermissionsStore) ByID(id uint) (*model.TablePermission, error) {
	var permission model.TablePermission
	if err := byID(s.db, &permission, id); err != nil {
		return nil, err
	}
	return &permission, nil
}

func (s *TablePermissionsStore) List(filter store.PermissionFilter) (*store.Page[model.TablePermission], error) {
	page, pageSize := normalizePage(filter)

	tx := s.db.Model(&model.TablePermission{})
	tx = likeFilter(tx, "db_name", filter.Database)
	tx = likeFilter(tx, "table_name", filter.Table)
	tx = likeFilter(tx, "user_name", filter.UserName)
	tx = likeFilter(tx, "role_name", filter.RoleName)

	var items []model.TablePermission
	total, err := paginate(tx, page, pageSize, &items)
	if err != nil {
		return nil, err
	}
	return &store.Page[model.TablePermission]{Total: total, Page: page, PageSize: pageSize, Items: items}, nil
}

// ColumnPermissionsStore implements store.ColumnPermissionsStore using GORM
type ColumnPermissionsStore struct {
	db *gorm.DB
}

// NewColumnPermissionsStore creates a new ColumnPermissionsStore
func NewColumnPermissionsStore(db *gorm.DB) *ColumnPermissionsStore {
	return &ColumnPermissionsStore{db: db}
}

func (s *ColumnPermissionsStore) tuple(permission *model.ColumnPermission) map[string]interface{} {
	return map[string]interface{}{
		"db_name":    permission.Database,
		"table_name": permission.Table,
		"col_name":   permission.Column,
		"user_name":  permission.UserName,
		"role_name":  permission.RoleName,
	}
}

func (s *ColumnPermissionsStore) Create(permission *model.ColumnPermission) error {
	taken, err := tupleTaken(s.db, &model.ColumnPermission{}, s.tuple(permission), 0)
	if err != nil {
		return err
	}
	if taken {
		return store.ErrDuplicate
	}
	return s.db.Create(permission).Error
}

func (s *ColumnPermissionsStore) Update(permission *model.ColumnPermission) error {
	if err := exists(s.db, &model.ColumnPermission{}, permission.ID); err != nil {
		return err
	}
	taken, err := tupleTaken(s.db, &model.ColumnPermission{}, s.tuple(permission), permission.ID)
	if err != nil {
		return err
	}
	if taken {
		return store.ErrDuplicate
	}
	return s.db.Save(permission).Error
}

func (s *ColumnPermissionsStore) Delete(id uint) error {
	return deleteByID(s.db, &model.ColumnPermission{}, id)
}

func (s *ColumnPermissionsStore) ByID(id uint) (*model.ColumnPermission, error) {
	var permission model.ColumnPermission
	if err := byID(s.db, &permission, id); err != nil {
		return nil, err
	}
	return &permission, nil
}

func (s *ColumnPermissionsStore) List(filter store.PermissionFilter) (*store.Page[model.ColumnPermission], error) {
	page, pageSize := normalizePage(filter)

	tx := s.db.Model(&model.ColumnPermission{})
	tx = likeFilter(tx, "db_name", filter.Database)
	tx = likeFilter(tx, "table_name", filter.Table)
	tx = likeFilter(tx, "col_name", filter.Column)
	tx = likeFilter(tx, "user_name", filter.UserName)
	tx = likeFilter(tx, "role_name", filter.RoleName)

	var items []model.ColumnPermission
	total, err := paginate(tx, page, pageSize, &items)
	if err != nil {
		return nil, err
	}
	return &store.Page[model.ColumnPermission]{Total: total, Page: page, PageSize: pageSize, Items: items}, nil
}

// RowPermissionsStore implements store.RowPermissionsStore using GORM
type RowPermissionsStore struct {
	db *gorm.DB
}

// NewRowPermissionsStore creates a new RowPermissionsStore
func NewRowPermissionsStore(db *gorm.DB) *RowPermissionsStore {
	return &RowPermissionsStore{db: db}
}

func (s *RowPermissionsStore) tuple(permission *model.RowPermission) map[string]interface{} {
	return map[string]interface{}{
		"db_name":    permission.Database,
		"table_name": permission.Table,
		"user_name":  permission.UserName,
		"role_name":  permission.RoleName,
	}
}

func (s *RowPermissionsStore) Create(permission *model.RowPermission) error {
	taken, err := tupleTaken(s.db, &model.RowPermission{}, s.tuple(permission), 0)
	if err != nil {
		return err
	}
	if taken {
		return store.ErrDuplicate
	}
	return s.db.Create(permission).Error
}

func (s *RowPermissionsStore) Update(permission *model.RowPermission) error {
	if err := exists(s.db, &model.RowPermission{}, permission.ID); err != nil {
		return err
	}
	taken, err := tupleTaken(s.db, &model.RowPermission{}, s.tuple(permission), permission.ID)
	if err != nil {
		return err
	}
	if taken {
		return store.ErrDuplicate
	}
	return s.db.Save(permission).Error
}

func (s *RowPermissionsStore) Delete(id uint) error {
	return deleteByID(s.db, &model.RowPermission{}, id)
}

func (s *RowPermissionsStore) ByID(id uint) (*model.RowPermission, error) {
	var permission model.RowPermission
	if err := byID(s.db, &permission, id); err != nil {
		return nil, err
	}
	return &permission, nil
}

func (s *RowPermissionsStore) List(filter store.PermissionFilter) (*store.Page[model.RowPermission], error) {
	page, pageSize := normalizePage(filter)

	tx := s.db.Model(&model.RowPermission{})
	tx = likeFilter(tx, "db_name", filter.Database)
	tx = likeFilter(tx, "table_name", filter.Table)
	tx = likeFilter(tx, "user_name", filter.UserName)
	tx = likeFilter(tx, "role_name", filter.RoleName)

	var items []model.RowPermission
	total, err := paginate(tx, page, pageSize, &items)
	if err != nil {
		return nil, err
	}
	return &store.Page[model.RowPermission]{Total: total, Page: page, PageSize: pageSize, Items: items}, nil
}
