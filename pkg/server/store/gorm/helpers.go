package gorm

import (
	"strings"

	"gorm.io/gorm"

	"github.com/youcash/permission-hub/pkg/server/store"
)

const defaultPageSize = 10

// normalizePage clamps the filter's pagination to sane values.
func normalizePage(filter store.PermissionFilter) (page, pageSize int) {
	page = filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize = filter.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return page, pageSize
}

// likeFilter adds a case-insensitive substring condition when value is
// non-blank.
func likeFilter(tx *gorm.DB, column, value string) *gorm.DB {
	if strings.TrimSpace(value) == "" {
		return tx
	}
	return tx.Where(column+" ILIKE ?", "%"+value+"%")
}

// tupleTaken reports whether another record already occupies the given
// column tuple. excludeID skips the record being updated.
func tupleTaken(db *gorm.DB, m interface{}, tuple map[string]interface{}, excludeID uint) (bool, error) {
	tx := db.Model(m).Where(tuple)
	if excludeID != 0 {
		tx = tx.Where("id <> ?", excludeID)
	}
	var count int64
	if err := tx.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func exists(db *gorm.DB, m interface{}, id uint) error {
	var count int64
	if err := db.Model(m).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return store.ErrNotFound
	}
	return nil
}

func byID(db *gorm.DB, dest interface{}, id uint) error {
	err := db.Where("id = ?", id).First(dest).Error
	if err == gorm.ErrRecordNotFound {
		return store.ErrNotFound
	}
	return err
}

func deleteByID(db *gorm.DB, m interface{}, id uint) error {
	tx := db.Where("id = ?", id).Delete(m)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// paginate runs the count-then-page query pair shared by every listing.
func paginate(tx *gorm.DB, page, pageSize int, items interface{}) (int64, error) {
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return 0, err
	}
	err := tx.Offset((page - 1) * pageSize).Limit(pageSize).Find(items).Error
	return total, err
}
