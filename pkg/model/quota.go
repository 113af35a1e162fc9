package model

import "time"

// HdfsQuota records the desired storage space quota for one database.
type HdfsQuota struct {
	ID        uint      `gorm:"column:id;primaryKey" json:"id"`
	Database  string    `gorm:"column:db_name;uniqueIndex" json:"db_name"`
	QuotaGB   float64   `gorm:"column:hdfs_quota" json:"hdfs_quota"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (HdfsQuota) TableName() string {
	return "hdfs_quotas"
}
