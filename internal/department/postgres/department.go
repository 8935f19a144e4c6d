package postgres

import (
	"context"
	"errors"

	departmentDatamodel "github.com/qnxg/yqwork/internal/core/datamodel/department"
	userDatamodel "github.com/qnxg/yqwork/internal/core/datamodel/user"
	"github.com/qnxg/yqwork/internal/department"
	"gorm.io/gorm"
)

type DepartmentRepository struct {
	db *gorm.DB
}

func NewDepartmentRepository(db *gorm.DB) department.RepositoryAPI {
	return &DepartmentRepository{db: db}
}

func (r *DepartmentRepository) GetAll(ctx context.Context) ([]*departmentDatamodel.Department, error) {
	var rows []*departmentDatamodel.Department
	err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error
	return rows, err
}

func (r *DepartmentRepository) GetByID(ctx context.Context, id int64) (*departmentDatamodel.Department, error) {
	var row departmentDatamodel.Department
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, department.ErrDepartmentNotFound
		}
		return nil, err
	}
	return &row, nil
}

func (r *DepartmentRepository) MemberCount(ctx context.Context, id int64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&userDatamodel.User{}).Where("department_id = ?", id).Count(&n).Error
	return n, err
}

func (r *DepartmentRepository) Create(ctx context.Context, d *departmentDatamodel.Department) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *DepartmentRepository) Update(ctx context.Context, d *departmentDatamodel.Department) error {
	return r.db.WithContext(ctx).Save(d).Error
}

func (r *DepartmentRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&departmentDatamodel.Department{}, id).Error
}
