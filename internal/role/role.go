package role

import (
	permissionDatamodel "github.com/qnxg/yqwork/internal/core/datamodel/permission"
	roleDatamodel "github.com/qnxg/yqwork/internal/core/datamodel/role"
	"github.com/qnxg/yqwork/internal/permission"
)

// Role is a named bundle of catalog permissions.
type Role struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	Permissions []permission.Item `json:"permissions"`
}

func FromDataModel(r *roleDatamodel.Role, perms []*permissionDatamodel.Permission) *Role {
	out := &Role{ID: r.ID, Name: r.Name, Permissions: make([]permission.Item, 0, len(perms))}
	for _, p := range perms {
		out.Permissions = append(out.Permissions, permission.ToItem(p))
	}
	return out
}

func ToDataModel(r *Role) *roleDatamodel.Role {
	return &roleDatamodel.Role{ID: r.ID, Name: r.Name}
}
