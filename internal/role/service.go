package role

import (
	"context"
	"log/slog"

	errors "github.com/qnxg/yqwork/internal"
	"github.com/qnxg/yqwork/internal/core/common/validation"
	permissionDatamodel "github.com/qnxg/yqwork/internal/core/datamodel/permission"
	roleDatamodel "github.com/qnxg/yqwork/internal/core/datamodel/role"
	"github.com/qnxg/yqwork/internal/permission"
)

const (
	PermissionQuery  = "system:role:query"
	PermissionAdd    = "system:role:add"
	PermissionEdit   = "system:role:edit"
	PermissionDelete = "system:role:delete"
)

var (
	ErrRoleNotFound       = errors.NewNotFoundError("role not found", errors.ErrCodeRoleNotFound)
	ErrUnknownPermissions = errors.NewValidationFieldError("permissionIds", "one or more permissions do not exist", errors.ErrCodePermissionMissing)
	ErrRoleNotGranted     = errors.NewForbiddenError("cannot assign a role you do not hold", errors.ErrCodeRoleNotGranted)
)

type RepositoryAPI interface {
	List(ctx context.Context) ([]*roleDatamodel.Role, error)
	GetByID(ctx context.Context, id int64) (*roleDatamodel.Role, error)
	CountByIDs(ctx context.Context, ids []int64) (int64, error)
	Permissions(ctx context.Context, roleID int64) ([]*permissionDatamodel.Permission, error)
	Create(ctx context.Context, r *roleDatamodel.Role, permissionIDs []int64) error
	Update(ctx context.Context, r *roleDatamodel.Role, permissionIDs []int64) error
	Delete(ctx context.Context, id int64) error
	UserRoles(ctx context.Context, userID int64) ([]*roleDatamodel.Role, error)
	ReplaceUserRoles(ctx context.Context, userID int64, roleIDs []int64) error
}

// PermissionCatalog verifies permission ids before they are attached to a role.
type PermissionCatalog interface {
	AllExist(ctx context.Context, ids []int64) (bool, error)
}

type Service struct {
	repo    RepositoryAPI
	catalog PermissionCatalog
	logger  *slog.Logger
}

func NewService(repo RepositoryAPI, catalog PermissionCatalog, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		catalog: catalog,
		logger:  logger,
	}
}

func (s *Service) List(ctx context.Context) ([]*Role, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list roles", "error", err)
		return nil, err
	}
	return s.withPermissions(ctx, rows)
}

func (s *Service) Get(ctx context.Context, id int64) (*Role, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	perms, err := s.repo.Permissions(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromDataModel(row, perms), nil
}

func (s *Service) Create(ctx context.Context, dto SaveRoleDTO) (*Role, error) {
	if err := s.validate(ctx, dto); err != nil {
		return nil, err
	}

	row := &roleDatamodel.Role{Name: dto.Name}
	if err := s.repo.Create(ctx, row, dto.PermissionIDs); err != nil {
		s.logger.Error("failed to create role", "name", dto.Name, "error", err)
		return nil, err
	}

	s.logger.Info("role created", "role_id", row.ID, "permissions", len(dto.PermissionIDs))
	return s.Get(ctx, row.ID)
}

func (s *Service) Update(ctx context.Context, id int64, dto SaveRoleDTO) (*Role, error) {
	if err := s.validate(ctx, dto); err != nil {
		return nil, err
	}

	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	row.Name = dto.Name
	if err := s.repo.Update(ctx, row, dto.PermissionIDs); err != nil {
		s.logger.Error("failed to update role", "role_id", id, "error", err)
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete role", "role_id", id, "error", err)
		return err
	}
	s.logger.Info("role deleted", "role_id", id)
	return nil
}

func (s *Service) UserRoles(ctx context.Context, userID int64) ([]*Role, error) {
	rows, err := s.repo.UserRoles(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.withPermissions(ctx, rows)
}

// AssignUserRoles replaces the role list of userID after CheckAssignable.
func (s *Service) AssignUserRoles(ctx context.Context, actor permission.Actor, userID int64, roleIDs []int64) error {
	roleIDs = dedupe(roleIDs)
	if err := s.CheckAssignable(ctx, actor, roleIDs); err != nil {
		s.logger.Warn("assign roles denied", "actor_id", actor.UserID, "user_id", userID, "error", err)
		return err
	}

	if err := s.repo.ReplaceUserRoles(ctx, userID, roleIDs); err != nil {
		s.logger.Error("failed to assign roles", "user_id", userID, "error", err)
		return err
	}

	s.logger.Info("user roles replaced", "actor_id", actor.UserID, "user_id", userID, "roles", roleIDs)
	return nil
}

// CheckAssignable verifies that every role exists and that actor may hand
// it out. Admins may assign any role; everybody else only roles they hold.
func (s *Service) CheckAssignable(ctx context.Context, actor permission.Actor, roleIDs []int64) error {
	if err := validation.Struct(AssignRolesDTO{RoleIDs: roleIDs}); err != nil {
		return err
	}
	roleIDs = dedupe(roleIDs)
	if len(roleIDs) == 0 {
		return nil
	}

	n, err := s.repo.CountByIDs(ctx, roleIDs)
	if err != nil {
		return err
	}
	if n != int64(len(roleIDs)) {
		return ErrRoleNotFound
	}

	if actor.IsAdmin() {
		return nil
	}

	held, err := s.repo.UserRoles(ctx, actor.UserID)
	if err != nil {
		return err
	}
	owned := make(map[int64]struct{}, len(held))
	for _, r := range held {
		owned[r.ID] = struct{}{}
	}
	for _, id := range roleIDs {
		if _, ok := owned[id]; !ok {
			return ErrRoleNotGranted
		}
	}
	return nil
}

func (s *Service) validate(ctx context.Context, dto SaveRoleDTO) error {
	if err := validation.Struct(dto); err != nil {
		return err
	}
	ok, err := s.catalog.AllExist(ctx, dto.PermissionIDs)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnknownPermissions
	}
	return nil
}

func (s *Service) withPermissions(ctx context.Context, rows []*roleDatamodel.Role) ([]*Role, error) {
	out := make([]*Role, 0, len(rows))
	for _, row := range rows {
		perms, err := s.repo.Permissions(ctx, row.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, FromDataModel(row, perms))
	}
	return out, nil
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
