package gorm

import "gorm.io/gorm"

// HealthStore checks connectivity by running a trivial query through
// the shared gorm handle.
type HealthStore struct {
	db *gorm.DB
}

func NewHealthStore(db *gorm.DB) *HealthStore {
	return &HealthStore{db: db}
}

func (s *HealthStore) CheckConnectivity() error {
	return s.db.Exec("SELECT 1").Error
}
