package gorm

import (
	"gorm.io/gorm"

	"github.com/youcash/permission-hub/pkg/model"
	"github.com/youcash/permission-hub/pkg/server/store"
)

// Ensure QuotasStore implements store.QuotasStore
var _ store.QuotasStore = (*QuotasStore)(nil)

// QuotasStore implements store.QuotasStore using GORM
type QuotasStore struct {
	db *gorm.DB
}

// NewQuotasStore creates a new QuotasStore
func NewQuotasStore(db *gorm.DB) *QuotasStore {
	return &QuotasStore{db: db}
}

func (s *QuotasStore) Create(quota *model.HdfsQuota) error {
	taken, err := tupleTaken(s.db, &model.HdfsQuota{}, map[string]interface{}{
		"db_name": quota.Database,
	}, 0)
	if err != nil {
		return err
	}
	if taken {
		return store.ErrDuplicate
	}
	return s.db.Create(quota).Error
}

func (s *QuotasStore) Update(quota *model.HdfsQuota) error {
	if err := exists(s.db, &model.HdfsQuota{}, quota.ID); err != nil {
		return err
	}
	taken, err := tupleTaken(s.db, &model.HdfsQuota{}, map[string]interface{}{
		"db_name": quota.Database,
	}, quota.ID)
	if err != nil {
		return err
	}
	if taken {
		return store.ErrDuplicate
	}
	return s.db.Save(quota).Error
}

func (s *QuotasStore) Delete(id uint) error {
	return deleteByID(s.db, &model.HdfsQuota{}, id)
}

func (s *QuotasStore) ByID(id uint) (*model.HdfsQuota, error) {
	var quota model.HdfsQuota
	if err := byID(s.db, &quota, id); err != nil {
		return nil, err
	}
	return &quota, nil
}

func (s *QuotasStore) ByDatabase(database string) (*model.HdfsQuota, error) {
	var quota model.HdfsQuota
	err := s.db.Where("db_name = ?", database).First(&quota).Error
	if err == gorm.ErrRecordNotFound {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &quota, nil
}

func (s *QuotasStore) List(filter store.PermissionFilter) (*store.Page[model.HdfsQuota], error) {
	page, pageSize := normalizePage(filter)

	tx := s.db.Model(&model.HdfsQuota{})
	tx = likeFilter(tx, "db_name", filter.Database)

	var items []model.HdfsQuota
	total, err := paginate(tx, page, pageSize, &items)
	if err != nil {
		return nil, err
	}
	return &store.Page[model.HdfsQuota]{Total: total, Page: page, PageSize: pageSize, Items: items}, nil
}
