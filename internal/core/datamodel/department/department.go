package department

import (
	"time"

	"gorm.io/gorm"
)

type Department struct {
	ID        int64          `gorm:"primaryKey"`
	Name      string         `gorm:"column:name;not null"`
	Desc      string         `gorm:"column:description"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (Department) TableName() string {
	return "departments"
}
