package permission

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	errors "github.com/qnxg/yqwork/internal"
	"github.com/qnxg/yqwork/internal/core/common/validation"
	permissionDatamodel "github.com/qnxg/yqwork/internal/core/datamodel/permission"
)

const (
	PermissionQuery  = "system:permission:query"
	PermissionAdd    = "system:permission:add"
	PermissionEdit   = "system:permission:edit"
	PermissionDelete = "system:permission:delete"
)

var (
	ErrPermissionNotFound = errors.NewNotFoundError("permission not found", errors.ErrCodePermissionMissing)
	ErrPermissionExists   = errors.NewConflictError("permission string already exists", errors.ErrCodePermissionExists)
	ErrInvalidPermission  = errors.NewValidationFieldError("permission", "permission must be '*' or non-empty ':' separated segments", errors.ErrCodeInvalidPermission)
)

type RepositoryAPI interface {
	List(ctx context.Context) ([]*permissionDatamodel.Permission, error)
	GetByID(ctx context.Context, id int64) (*permissionDatamodel.Permission, error)
	GetByPermission(ctx context.Context, permission string) (*permissionDatamodel.Permission, error)
	CountByIDs(ctx context.Context, ids []int64) (int64, error)
	Create(ctx context.Context, p *permissionDatamodel.Permission) error
	Update(ctx context.Context, p *permissionDatamodel.Permission) error
	Delete(ctx context.Context, id int64) error
}

// RoleLookup resolves a user's roles and the catalog items attached to them.
type RoleLookup interface {
	UserRoleIDs(ctx context.Context, userID int64) ([]int64, error)
	RolePermissions(ctx context.Context, roleIDs []int64) ([]Item, error)
}

type Service struct {
	repo   RepositoryAPI
	lookup RoleLookup
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, lookup RoleLookup, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		lookup: lookup,
		logger: logger,
	}
}

// ForUser computes the effective permission set of userID. A user without
// roles gets an empty set without touching the role_permissions table.
func (s *Service) ForUser(ctx context.Context, userID int64) (Set, error) {
	roleIDs, err := s.lookup.UserRoleIDs(ctx, userID)
	if err != nil {
		return Set{}, fmt.Errorf("load roles of user %d: %w", userID, err)
	}
	if len(roleIDs) == 0 {
		return Set{}, nil
	}

	items, err := s.lookup.RolePermissions(ctx, roleIDs)
	if err != nil {
		return Set{}, fmt.Errorf("load permissions of user %d: %w", userID, err)
	}
	return NewSet(items), nil
}

func (s *Service) List(ctx context.Context) ([]Item, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list permissions", "error", err)
		return nil, err
	}

	items := make([]Item, 0, len(rows))
	for _, row := range rows {
		items = append(items, ToItem(row))
	}
	return items, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*Item, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	it := ToItem(row)
	return &it, nil
}

// AllExist reports whether every id refers to a live catalog entry.
func (s *Service) AllExist(ctx context.Context, ids []int64) (bool, error) {
	unique := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		unique[id] = struct{}{}
	}
	if len(unique) == 0 {
		return true, nil
	}

	keys := make([]int64, 0, len(unique))
	for id := range unique {
		keys = append(keys, id)
	}
	n, err := s.repo.CountByIDs(ctx, keys)
	if err != nil {
		return false, err
	}
	return n == int64(len(keys)), nil
}

func (s *Service) Create(ctx context.Context, dto CreatePermissionDTO) (*Item, error) {
	dto.Permission = strings.TrimSpace(dto.Permission)
	if err := validation.Struct(dto); err != nil {
		return nil, err
	}
	if !ValidString(dto.Permission) {
		return nil, ErrInvalidPermission
	}
	if err := s.ensureUnique(ctx, dto.Permission, 0); err != nil {
		return nil, err
	}

	row := &permissionDatamodel.Permission{Name: dto.Name, Permission: dto.Permission}
	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.Error("failed to create permission", "permission", dto.Permission, "error", err)
		return nil, err
	}

	s.logger.Info("permission created", "permission_id", row.ID, "permission", row.Permission)
	it := ToItem(row)
	return &it, nil
}

func (s *Service) Update(ctx context.Context, id int64, dto UpdatePermissionDTO) (*Item, error) {
	dto.Permission = strings.TrimSpace(dto.Permission)
	if err := validation.Struct(dto); err != nil {
		return nil, err
	}
	if !ValidString(dto.Permission) {
		return nil, ErrInvalidPermission
	}

	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUnique(ctx, dto.Permission, id); err != nil {
		return nil, err
	}

	row.Name = dto.Name
	row.Permission = dto.Permission
	if err := s.repo.Update(ctx, row); err != nil {
		s.logger.Error("failed to update permission", "permission_id", id, "error", err)
		return nil, err
	}

	it := ToItem(row)
	return &it, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete permission", "permission_id", id, "error", err)
		return err
	}
	s.logger.Info("permission deleted", "permission_id", id)
	return nil
}

func (s *Service) ensureUnique(ctx context.Context, permission string, selfID int64) error {
	existing, err := s.repo.GetByPermission(ctx, permission)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != selfID {
		return ErrPermissionExists
	}
	return nil
}
