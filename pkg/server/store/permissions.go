package store

import (
	"errors"

	"github.com/youcash/permission-hub/pkg/model"
)

// ErrNotFound is returned when a record doesn't exist.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when a create or update would violate a
// uniqueness constraint.
var ErrDuplicate = errors.New("record already exists")

// PermissionFilter narrows a permission listing. String fields match as
// case-insensitive substrings; zero values are ignored.
type PermissionFilter struct {
	Database string
	Table    string
	Column   string
	UserName string
	RoleName string

	Page     int
	PageSize int
}

// Page is one page of a filtered listing.
type Page[T any] struct {
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Items    []T   `json:"items"`
}

// TablePermissionsStore holds plain table access records.
type TablePermissionsStore interface {
	// Create inserts the record. Returns ErrDuplicate when the same
	// (database, table, principal) tuple already exists.
	Create(permission *model.TablePermission) error

	// Update rewrites the record. Returns ErrNotFound when absent and
	// ErrDuplicate when the change collides with another record.
	Update(permission *model.TablePermission) error

	// Delete removes the record by id. Returns ErrNotFound when absent.
	Delete(id uint) error

	ByID(id uint) (*model.TablePermission, error)
	List(filter PermissionFilter) (*Page[model.TablePermission], error)
}

// ColumnPermissionsStore holds column mask records.
type ColumnPermissionsStore interface {
	Create(permission *model.ColumnPermission) error
	Update(permission *model.ColumnPermission) error
	Delete(id uint) error
	ByID(id uint) (*model.ColumnPermission, error)
	List(filter PermissionFilter) (*Page[model.ColumnPermission], error)
}

// RowPermissionsStore holds row filter records.
type RowPermissionsStore interface {
	Create(permission *model.RowPermission) error
	Update(permission *model.RowPermission) error
	Delete(id uint) error
	ByID(id uint) (*model.RowPermission, error)
	List(filter PermissionFilter) (*Page[model.RowPermission], error)
}
