package workhour

import (
	"time"

	"gorm.io/gorm"
)

// WorkDesc is one line of declared work, stored as an element of a JSON array.
type WorkDesc struct {
	Desc string `json:"desc"`
	Hour uint32 `json:"hour"`
}

// Include credits hours from another record to the owning record.
type Include struct {
	RecordID int64  `json:"id"`
	Hour     uint32 `json:"hour"`
}

type Campaign struct {
	ID        int64          `gorm:"primaryKey"`
	Name      string         `gorm:"column:name;not null"`
	EndTime   time.Time      `gorm:"column:end_time;not null"`
	Status    int            `gorm:"column:status;not null;default:0"`
	Comment   *string        `gorm:"column:comment"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (Campaign) TableName() string {
	return "work_hours"
}

type Record struct {
	ID         int64      `gorm:"primaryKey"`
	CampaignID int64      `gorm:"column:campaign_id;not null;uniqueIndex:uq_work_hour_records_campaign_user"`
	UserID     int64      `gorm:"column:user_id;not null;uniqueIndex:uq_work_hour_records_campaign_user"`
	WorkDescs  []WorkDesc `gorm:"column:work_descs;type:text;serializer:json;not null"`
	Includes   *[]Include `gorm:"column:includes;type:text;serializer:json"`
	Comment    *string    `gorm:"column:comment"`
	Status     int        `gorm:"column:status;not null;default:0"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Record) TableName() string {
	return "work_hour_records"
}
