package model

import "time"

// TablePermission grants plain access on a table to a user or role.
type TablePermission struct {
	ID         uint      `gorm:"column:id;primaryKey" json:"id"`
	Database   string    `gorm:"column:db_name;index" json:"db_name"`
	Table      string    `gorm:"column:table_name;index" json:"table_name"`
	UserName   string    `gorm:"column:user_name;index" json:"user_name"`
	RoleName   string    `gorm:"column:role_name;index" json:"role_name"`
	CreateTime time.Time `gorm:"column:create_time;autoCreateTime" json:"create_time"`
	UpdateTime time.Time `gorm:"column:update_time;autoUpdateTime" json:"update_time"`
}

func (TablePermission) TableName() string {
	return "table_permissions"
}

// ColumnPermission grants masked access on one column to a user or role.
type ColumnPermission struct {
	ID         uint      `gorm:"column:id;primaryKey" json:"id"`
	Database   string    `gorm:"column:db_name;index" json:"db_name"`
	Table      string    `gorm:"column:table_name;index" json:"table_name"`
	Column     string    `gorm:"column:col_name;index" json:"col_name"`
	MaskType   string    `gorm:"column:mask_type" json:"mask_type"`
	UserName   string    `gorm:"column:user_name;index" json:"user_name"`
	RoleName   string    `gorm:"column:role_name;index" json:"role_name"`
	CreateTime time.Time `gorm:"column:create_time;autoCreateTime" json:"create_time"`
	UpdateTime time.Time `gorm:"column:update_time;autoUpdateTime" json:"update_time"`
}

func (ColumnPermission) TableName() string {
	return "column_permissions"
}

// RowPermission grants filtered access on a table to a user or role.
type RowPermission struct {
	ID         uint      `gorm:"column:id;primaryKey" json:"id"`
	Database   string    `gorm:"column:db_name;index" json:"db_name"`
	Table      string    `gorm:"column:table_name;index" json:"table_name"`
	RowFilter  string    `gorm:"column:row_filter" json:"row_filter"`
	UserName   string    `gorm:"column:user_name;index" json:"user_name"`
	RoleName   string    `gorm:"column:role_name;index" json:"role_name"`
	CreateTime time.Time `gorm:"column:create_time;autoCreateTime" json:"create_time"`
	UpdateTime time.Time `gorm:"column:update_time;autoUpdateTime" json:"update_time"`
}

func (RowPermission) TableName() string {
	return "row_permissions"
}
