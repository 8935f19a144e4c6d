package postgres

import (
	"context"
	"errors"

	permissionDatamodel "github.com/qnxg/yqwork/internal/core/datamodel/permission"
	roleDatamodel "github.com/qnxg/yqwork/internal/core/datamodel/role"
	"github.com/qnxg/yqwork/internal/role"
	"gorm.io/gorm"
)

type RoleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) role.RepositoryAPI {
	return &RoleRepository{db: db}
}

func (r *RoleRepository) List(ctx context.Context) ([]*roleDatamodel.Role, error) {
	var rows []*roleDatamodel.Role
	err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error
	return rows, err
}

func (r *RoleRepository) GetByID(ctx context.Context, id int64) (*roleDatamodel.Role, error) {
	var row roleDatamodel.Role
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, role.ErrRoleNotFound
		}
		return nil, err
	}
	return &row, nil
}

func (r *RoleRepository) CountByIDs(ctx context.Context, ids []int64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&roleDatamodel.Role{}).Where("id IN ?", ids).Count(&n).Error
	return n, err
}

func (r *RoleRepository) Permissions(ctx context.Context, roleID int64) ([]*permissionDatamodel.Permission, error) {
	var rows []*permissionDatamodel.Permission
	err := r.db.WithContext(ctx).
		Joins("JOIN role_permissions ON role_permissions.permission_id = permissions.id").
		Where("role_permissions.role_id = ?", roleID).
		Order("permissions.id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *RoleRepository) Create(ctx context.Context, row *roleDatamodel.Role, permissionIDs []int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(row).Error; err != nil {
			return err
		}
		return attachPermissions(tx, row.ID, permissionIDs)
	})
}

// Update renames the role and replaces its permission list.
func (r *RoleRepository) Update(ctx context.Context, row *roleDatamodel.Role, permissionIDs []int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(row).Error; err != nil {
			return err
		}
		if err := tx.Where("role_id = ?", row.ID).Delete(&roleDatamodel.RolePermission{}).Error; err != nil {
			return err
		}
		return attachPermissions(tx, row.ID, permissionIDs)
	})
}

func (r *RoleRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("role_id = ?", id).Delete(&roleDatamodel.RolePermission{}).Error; err != nil {
			return err
		}
		if err := tx.Where("role_id = ?", id).Delete(&roleDatamodel.UserRole{}).Error; err != nil {
			return err
		}
		return tx.Delete(&roleDatamodel.Role{}, id).Error
	})
}

func (r *RoleRepository) UserRoles(ctx context.Context, userID int64) ([]*roleDatamodel.Role, error) {
	var rows []*roleDatamodel.Role
	err := r.db.WithContext(ctx).
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ?", userID).
		Order("roles.id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *RoleRepository) ReplaceUserRoles(ctx context.Context, userID int64, roleIDs []int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&roleDatamodel.UserRole{}).Error; err != nil {
			return err
		}
		if len(roleIDs) == 0 {
			return nil
		}
		links := make([]roleDatamodel.UserRole, 0, len(roleIDs))
		for _, id := range roleIDs {
			links = append(links, roleDatamodel.UserRole{UserID: userID, RoleID: id})
		}
		return tx.Create(&links).Error
	})
}

func attachPermissions(tx *gorm.DB, roleID int64, permissionIDs []int64) error {
	if len(permissionIDs) == 0 {
		return nil
	}
	seen := make(map[int64]struct{}, len(permissionIDs))
	links := make([]roleDatamodel.RolePermission, 0, len(permissionIDs))
	for _, id := range permissionIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		links = append(links, roleDatamodel.RolePermission{RoleID: roleID, PermissionID: id})
	}
	return tx.Create(&links).Error
}
