package permission

import (
	"time"

	"gorm.io/gorm"
)

type Permission struct {
	ID         int64          `gorm:"primaryKey"`
	Name       string         `gorm:"column:name;not null"`
	Permission string         `gorm:"column:permission;uniqueIndex;not null"`
	CreatedAt  time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt  gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (Permission) TableName() string {
	return "permissions"
}
