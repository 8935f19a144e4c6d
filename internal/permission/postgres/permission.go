package postgres

import (
	"context"
	"errors"

	permissionDatamodel "github.com/qnxg/yqwork/internal/core/datamodel/permission"
	"github.com/qnxg/yqwork/internal/permission"
	"gorm.io/gorm"
)

type PermissionRepository struct {
	db *gorm.DB
}

func NewPermissionRepository(db *gorm.DB) permission.RepositoryAPI {
	return &PermissionRepository{db: db}
}

func (r *PermissionRepository) List(ctx context.Context) ([]*permissionDatamodel.Permission, error) {
	var rows []*permissionDatamodel.Permission
	err := r.db.WithContext(ctx).Order("permission ASC").Find(&rows).Error
	return rows, err
}

func (r *PermissionRepository) GetByID(ctx context.Context, id int64) (*permissionDatamodel.Permission, error) {
	var row permissionDatamodel.Permission
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, permission.ErrPermissionNotFound
		}
		return nil, err
	}
	return &row, nil
}

func (r *PermissionRepository) GetByPermission(ctx context.Context, p string) (*permissionDatamodel.Permission, error) {
	var row permissionDatamodel.Permission
	err := r.db.WithContext(ctx).Where("permission = ?", p).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *PermissionRepository) CountByIDs(ctx context.Context, ids []int64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&permissionDatamodel.Permission{}).Where("id IN ?", ids).Count(&n).Error
	return n, err
}

func (r *PermissionRepository) Create(ctx context.Context, p *permissionDatamodel.Permission) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *PermissionRepository) Update(ctx context.Context, p *permissionDatamodel.Permission) error {
	return r.db.WithContext(ctx).Save(p).Error
}

// Delete soft-deletes the entry and detaches it from every role.
func (r *PermissionRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM role_permissions WHERE permission_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&permissionDatamodel.Permission{}, id).Error
	})
}
