package model

import "time"

// AdminUser is a local administrator account for the permission-hub API.
type AdminUser struct {
	ID           uint      `gorm:"column:id;primaryKey" json:"id"`
	Username     string    `gorm:"column:username;uniqueIndex" json:"username"`
	PasswordHash string    `gorm:"column:password_hash" json:"-"`
	IsActive     bool      `gorm:"column:is_active;default:true" json:"is_active"`
	IsAdmin      bool      `gorm:"column:is_admin;default:false" json:"is_admin"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (AdminUser) TableName() string {
	return "admin_users"
}
