package user

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID           int64          `gorm:"primaryKey"`
	Username     *string        `gorm:"column:username"`
	Name         string         `gorm:"column:name;not null"`
	StuID        string         `gorm:"column:stu_id;uniqueIndex;not null"`
	Email        *string        `gorm:"column:email"`
	PasswordHash string         `gorm:"column:password_hash;not null"`
	Status       int            `gorm:"column:status;not null;default:0"`
	DepartmentID int64          `gorm:"column:department_id;index;not null"`
	LastLogin    *time.Time     `gorm:"column:last_login"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt    gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (User) TableName() string {
	return "users"
}
