package permission

type CreatePermissionDTO struct {
	Name       string `json:"name" validate:"required,max=64"`
	Permission string `json:"permission" validate:"required,max=128"`
}

type UpdatePermissionDTO struct {
	Name       string `json:"name" validate:"required,max=64"`
	Permission string `json:"permission" validate:"required,max=128"`
}

type MyPermissions struct {
	Permissions []string `json:"permissions"`
	IsAdmin     bool     `json:"isAdmin"`
}
