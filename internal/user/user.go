package user

import (
	"time"

	userDatamodel "github.com/qnxg/yqwork/internal/core/datamodel/user"
)

type Status int

const (
	StatusUnknown Status = 0
	StatusIntern  Status = 1
	StatusFormal  Status = 2
	StatusRetired Status = 3
)

// DecodeStatus maps a stored value to a Status. Values outside the known
// range read as StatusUnknown.
func DecodeStatus(v int) Status {
	switch s := Status(v); s {
	case StatusIntern, StatusFormal, StatusRetired:
		return s
	default:
		return StatusUnknown
	}
}

func (s Status) String() string {
	switch s {
	case StatusIntern:
		return "intern"
	case StatusFormal:
		return "formal"
	case StatusRetired:
		return "retired"
	default:
		return "unknown"
	}
}

type User struct {
	ID           int64      `json:"id"`
	Username     *string    `json:"username"`
	Name         string     `json:"name"`
	StuID        string     `json:"stuId"`
	Email        *string    `json:"email"`
	Status       Status     `json:"status"`
	DepartmentID int64      `json:"departmentId"`
	LastLogin    *time.Time `json:"lastLogin"`
	CreatedAt    time.Time  `json:"createdAt"`
}

func (u *User) IsRetired() bool {
	return u.Status == StatusRetired
}

func FromDataModel(u *userDatamodel.User) *User {
	return &User{
		ID:           u.ID,
		Username:     u.Username,
		Name:         u.Name,
		StuID:        u.StuID,
		Email:        u.Email,
		Status:       DecodeStatus(u.Status),
		DepartmentID: u.DepartmentID,
		LastLogin:    u.LastLogin,
		CreatedAt:    u.CreatedAt,
	}
}

func ToDataModel(u *User) *userDatamodel.User {
	return &userDatamodel.User{
		ID:           u.ID,
		Username:     u.Username,
		Name:         u.Name,
		StuID:        u.StuID,
		Email:        u.Email,
		Status:       int(u.Status),
		DepartmentID: u.DepartmentID,
		LastLogin:    u.LastLogin,
		CreatedAt:    u.CreatedAt,
	}
}
