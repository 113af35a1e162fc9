package store

import (
	"github.com/youcash/permission-hub/pkg/model"
)

// DirectoryUsersStore holds records of provisioned LDAP accounts.
type DirectoryUsersStore interface {
	Create(user *model.DirectoryUser) error
	Update(user *model.DirectoryUser) error
	Delete(id uint) error
	ByID(id uint) (*model.DirectoryUser, error)
	ByUsername(username string) (*model.DirectoryUser, error)
	List(filter PermissionFilter) (*Page[model.DirectoryUser], error)
}

// AdminUsersStore holds the local accounts of the API itself.
type AdminUsersStore interface {
	Create(user *model.AdminUser) error
	ByUsername(username string) (*model.AdminUser, error)
}
