package user

import "github.com/qnxg/yqwork/internal/permission"

type CreateUserDTO struct {
	Username     *string `json:"username" validate:"omitempty,max=64"`
	Password     string  `json:"password" validate:"required,min=6,max=72"`
	Name         string  `json:"name" validate:"required,max=64"`
	StuID        string  `json:"stuId" validate:"required,max=32"`
	Email        *string `json:"email" validate:"omitempty,email"`
	DepartmentID int64   `json:"departmentId" validate:"required,gt=0"`
	Status       int     `json:"status" validate:"min=0,max=3"`
	RoleIDs      []int64 `json:"roleIds" validate:"dive,gt=0"`
}

// UpdateUserDTO replaces the editable profile. Password and RoleIDs are
// left untouched when nil.
type UpdateUserDTO struct {
	Username     *string  `json:"username" validate:"omitempty,max=64"`
	Name         string   `json:"name" validate:"required,max=64"`
	StuID        string   `json:"stuId" validate:"required,max=32"`
	Email        *string  `json:"email" validate:"omitempty,email"`
	DepartmentID int64    `json:"departmentId" validate:"required,gt=0"`
	Status       int      `json:"status" validate:"min=0,max=3"`
	Password     *string  `json:"password" validate:"omitempty,min=6,max=72"`
	RoleIDs      *[]int64 `json:"roleIds" validate:"omitempty,dive,gt=0"`
}

type ListFilter struct {
	StuID        string
	Name         string
	DepartmentID *int64
	Status       *int
	Limit        int
	Offset       int
}

type MeResponse struct {
	*User
	permission.MyPermissions
}
