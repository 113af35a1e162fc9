package model

import "time"

// DirectoryUser records an LDAP account provisioned through permission-hub.
// Password holds the base64-encoded form of the account password; the raw
// password is only returned once, at creation time.
type DirectoryUser struct {
	ID             uint      `gorm:"column:id;primaryKey" json:"id"`
	Username       string    `gorm:"column:username;uniqueIndex" json:"username"`
	Password       string    `gorm:"column:password" json:"-"`
	RoleName       string    `gorm:"column:role_name;index" json:"role_name"`
	DepartmentName string    `gorm:"column:department_name;index" json:"department_name"`
	QuotaGB        float64   `gorm:"column:hdfs_quota" json:"hdfs_quota"`
	Description    string    `gorm:"column:description" json:"description"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (DirectoryUser) TableName() string {
	return "directory_users"
}
