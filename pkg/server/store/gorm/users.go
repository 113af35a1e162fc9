package gorm

import (
	"gorm.io/gorm"

	"github.com/youcash/permission-hub/pkg/model"
	"github.com/youcash/permission-hub/pkg/server/store"
)

// Ensure the implementations satisfy the interfaces
var _ store.DirectoryUsersStore = (*DirectoryUsersStore)(nil)
var _ store.AdminUsersStore = (*AdminUsersStore)(nil)

// DirectoryUsersStore implements store.DirectoryUsersStore using GORM
type DirectoryUsersStore struct {
	db *gorm.DB
}

// NewDirectoryUsersStore creates a new DirectoryUsersStore
func NewDirectoryUsersStore(db *gorm.DB) *DirectoryUsersStore {
	return &DirectoryUsersStore{db: db}
}

func (s *DirectoryUsersStore) Create(user *model.DirectoryUser) error {
	taken, err := tupleTaken(s.db, &model.DirectoryUser{}, map[string]interface{}{
		"username": user.Username,
	}, 0)
	if err != nil {
		return err
	}
	if taken {
		return store.ErrDuplicate
	}
	return s.db.Create(user).Error
}

func (s *DirectoryUsersStore) Update(user *model.DirectoryUser) error {
	if err := exists(s.db, &model.DirectoryUser{}, user.ID); err != nil {
		return err
	}
	return s.db.Save(user).Error
}

func (s *DirectoryUsersStore) Delete(id uint) error {
	return deleteByID(s.db, &model.DirectoryUser{}, id)
}

func (s *DirectoryUsersStore) ByID(id uint) (*model.DirectoryUser, error) {
	var user model.DirectoryUser
	if err := byID(s.db, &user, id); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *DirectoryUsersStore) ByUsername(username string) (*model.DirectoryUser, error) {
	var user model.DirectoryUser
	err := s.db.Where("username = ?", username).First(&user).Error
	if err == gorm.ErrRecordNotFound {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *DirectoryUsersStore) List(filter store.PermissionFilter) (*store.Page[model.DirectoryUser], error) {
	page, pageSize := normalizePage(filter)

	tx := s.db.Model(&model.DirectoryUser{})
	tx = likeFilter(tx, "username", filter.UserName)
	tx = likeFilter(tx, "role_name", filter.RoleName)

	var items []model.DirectoryUser
	total, err := paginate(tx, page, pageSize, &items)
	if err != nil {
		return nil, err
	}
	return &store.Page[model.DirectoryUser]{Total: total, Page: page, PageSize: pageSize, Items: items}, nil
}

// AdminUsersStore implements store.AdminUsersStore using GORM
type AdminUsersStore struct {
	db *gorm.DB
}

// NewAdminUsersStore creates a new AdminUsersStore
func NewAdminUsersStore(db *gorm.DB) *AdminUsersStore {
	return &AdminUsersStore{db: db}
}

func (s *AdminUsersStore) Create(user *model.AdminUser) error {
	taken, err := tupleTaken(s.db, &model.AdminUser{}, map[string]interface{}{
		"username": user.Username,
	}, 0)
	if err != nil {
		return err
	}
	if taken {
		return store.ErrDuplicate
	}
	return s.db.Create(user).Error
}

func (s *AdminUsersStore) ByUsername(username string) (*model.AdminUser, error) {
	var user model.AdminUser
	err := s.db.Where("username = ?", username).First(&user).Error
	if err == gorm.ErrRecordNotFound {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
