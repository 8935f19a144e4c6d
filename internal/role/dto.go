package role

type SaveRoleDTO struct {
	Name          string  `json:"name" validate:"required,max=64"`
	PermissionIDs []int64 `json:"permissionIds" validate:"dive,gt=0"`
}

type AssignRolesDTO struct {
	RoleIDs []int64 `json:"roleIds" validate:"dive,gt=0"`
}
