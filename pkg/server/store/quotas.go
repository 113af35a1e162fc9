package store

import (
	"github.com/youcash/permission-hub/pkg/model"
)

// QuotasStore holds per-database storage quota records.
type QuotasStore interface {
	// Create inserts the record. Returns ErrDuplicate when the database
	// already has a quota.
	Create(quota *model.HdfsQuota) error

	Update(quota *model.HdfsQuota) error
	Delete(id uint) error
	ByID(id uint) (*model.HdfsQuota, error)
	ByDatabase(database string) (*model.HdfsQuota, error)
	List(filter PermissionFilter) (*Page[model.HdfsQuota], error)
}
