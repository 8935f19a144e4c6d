package department

import (
	"context"
	"log/slog"

	errors "github.com/qnxg/yqwork/internal"
	"github.com/qnxg/yqwork/internal/core/common/validation"
	departmentDatamodel "github.com/qnxg/yqwork/internal/core/datamodel/department"
)

const (
	PermissionQuery  = "system:department:query"
	PermissionAdd    = "system:department:add"
	PermissionEdit   = "system:department:edit"
	PermissionDelete = "system:department:delete"
)

var (
	ErrDepartmentNotFound = errors.NewNotFoundError("department not found", errors.ErrCodeDepartmentNotFound)
	ErrDepartmentInUse    = errors.NewConflictError("department still has members", errors.ErrCodeDepartmentInUse)
)

type RepositoryAPI interface {
	GetAll(ctx context.Context) ([]*departmentDatamodel.Department, error)
	GetByID(ctx context.Context, id int64) (*departmentDatamodel.Department, error)
	MemberCount(ctx context.Context, id int64) (int64, error)
	Create(ctx context.Context, d *departmentDatamodel.Department) error
	Update(ctx context.Context, d *departmentDatamodel.Department) error
	Delete(ctx context.Context, id int64) error
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) List(ctx context.Context) ([]*Department, error) {
	rows, err := s.repo.GetAll(ctx)
	if err != nil {
		s.logger.Error("failed to get departments from repository", "error", err)
		return nil, err
	}

	out := make([]*Department, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromDataModel(row))
	}
	return out, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*Department, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromDataModel(row), nil
}

// Exists is used by the user service before moving a member.
func (s *Service) Exists(ctx context.Context, id int64) (bool, error) {
	_, err := s.repo.GetByID(ctx, id)
	if err == nil {
		return true, nil
	}
	if errors.IsNotFound(err) {
		return false, nil
	}
	return false, err
}

func (s *Service) Create(ctx context.Context, dto SaveDepartmentDTO) (*Department, error) {
	if err := validation.Struct(dto); err != nil {
		return nil, err
	}

	row := &departmentDatamodel.Department{Name: dto.Name, Desc: dto.Desc}
	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.Error("failed to create department", "name", dto.Name, "error", err)
		return nil, err
	}
	s.logger.Info("department created", "department_id", row.ID)
	return FromDataModel(row), nil
}

func (s *Service) Update(ctx context.Context, id int64, dto SaveDepartmentDTO) (*Department, error) {
	if err := validation.Struct(dto); err != nil {
		return nil, err
	}

	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	row.Name = dto.Name
	row.Desc = dto.Desc
	if err := s.repo.Update(ctx, row); err != nil {
		s.logger.Error("failed to update department", "department_id", id, "error", err)
		return nil, err
	}
	return FromDataModel(row), nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	n, err := s.repo.MemberCount(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		s.logger.Warn("delete department denied: members remain", "department_id", id, "members", n)
		return ErrDepartmentInUse
	}
	return s.repo.Delete(ctx, id)
}
