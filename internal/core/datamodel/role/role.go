package role

import (
	"time"

	"gorm.io/gorm"
)

type Role struct {
	ID        int64          `gorm:"primaryKey"`
	Name      string         `gorm:"column:name;not null"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (Role) TableName() string {
	return "roles"
}

type RolePermission struct {
	RoleID       int64     `gorm:"column:role_id;primaryKey;autoIncrement:false"`
	PermissionID int64     `gorm:"column:permission_id;primaryKey;autoIncrement:false"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (RolePermission) TableName() string {
	return "role_permissions"
}

type UserRole struct {
	UserID    int64     `gorm:"column:user_id;primaryKey;autoIncrement:false"`
	RoleID    int64     `gorm:"column:role_id;primaryKey;autoIncrement:false"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (UserRole) TableName() string {
	return "user_roles"
}
