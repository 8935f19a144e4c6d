package user

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	errors "github.com/qnxg/yqwork/internal"
	"github.com/qnxg/yqwork/internal/core/common/validation"
	userDatamodel "github.com/qnxg/yqwork/internal/core/datamodel/user"
	"github.com/qnxg/yqwork/internal/permission"
)

const (
	PermissionPrefix = "yq:user"
	PermissionQuery  = PermissionPrefix + ":query"
	PermissionAdd    = PermissionPrefix + ":add"
	PermissionEdit   = PermissionPrefix + ":edit"
	PermissionDelete = PermissionPrefix + ":delete"
)

var (
	ErrUserNotFound       = errors.NewNotFoundError("user not found", errors.ErrCodeUserNotFound)
	ErrStuIDTaken         = errors.NewValidationFieldError("stuId", "student id already exists", errors.ErrCodeValidationFailed)
	ErrDepartmentNotFound = errors.NewValidationFieldError("departmentId", "department does not exist", errors.ErrCodeDepartmentNotFound)
)

type RepositoryAPI interface {
	GetByID(ctx context.Context, id int64) (*userDatamodel.User, error)
	GetByIDs(ctx context.Context, ids []int64) ([]*userDatamodel.User, error)
	GetByStuID(ctx context.Context, stuID string) (*userDatamodel.User, error)
	List(ctx context.Context, filter ListFilter) ([]*userDatamodel.User, int64, error)
	Create(ctx context.Context, u *userDatamodel.User) error
	Update(ctx context.Context, u *userDatamodel.User) error
	UpdatePassword(ctx context.Context, id int64, hash string) error
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
	Delete(ctx context.Context, id int64) error
}

type DepartmentChecker interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

type RoleAssigner interface {
	CheckAssignable(ctx context.Context, actor permission.Actor, roleIDs []int64) error
	AssignUserRoles(ctx context.Context, actor permission.Actor, userID int64, roleIDs []int64) error
}

type PasswordHasher interface {
	Hash(password string) (string, error)
}

type Service struct {
	repo        RepositoryAPI
	departments DepartmentChecker
	roles       RoleAssigner
	hasher      PasswordHasher
	logger      *slog.Logger
}

func NewService(repo RepositoryAPI, departments DepartmentChecker, roles RoleAssigner, hasher PasswordHasher, logger *slog.Logger) *Service {
	return &Service{
		repo:        repo,
		departments: departments,
		roles:       roles,
		hasher:      hasher,
		logger:      logger,
	}
}

func (s *Service) GetByID(ctx context.Context, id int64) (*User, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromDataModel(row), nil
}

// GetByIDs returns the live users among ids, keyed by id.
func (s *Service) GetByIDs(ctx context.Context, ids []int64) (map[int64]*User, error) {
	out := make(map[int64]*User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := s.repo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = FromDataModel(row)
	}
	return out, nil
}

func (s *Service) TouchLastLogin(ctx context.Context, id int64) error {
	return s.repo.UpdateLastLogin(ctx, id, time.Now())
}

// Get returns a user visible to actor. Non-admins only see their own
// department; other users read as not found.
func (s *Service) Get(ctx context.Context, actor permission.Actor, id int64) (*User, error) {
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && u.DepartmentID != actor.DepartmentID {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (s *Service) List(ctx context.Context, actor permission.Actor, filter ListFilter) ([]*User, int64, error) {
	if !actor.IsAdmin() {
		dept := actor.DepartmentID
		filter.DepartmentID = &dept
	}

	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list users", "error", err)
		return nil, 0, err
	}

	out := make([]*User, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromDataModel(row))
	}
	return out, total, nil
}

func (s *Service) Create(ctx context.Context, actor permission.Actor, dto CreateUserDTO) (*User, error) {
	if err := validation.Struct(dto); err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && dto.DepartmentID != actor.DepartmentID {
		s.logger.Warn("create user denied: foreign department", "actor_id", actor.UserID, "department_id", dto.DepartmentID)
		return nil, errors.ErrPermissionDenied
	}
	if err := s.ensureStuIDFree(ctx, dto.StuID, 0); err != nil {
		return nil, err
	}
	if err := s.ensureDepartment(ctx, dto.DepartmentID); err != nil {
		return nil, err
	}
	if err := s.roles.CheckAssignable(ctx, actor, dto.RoleIDs); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(dto.Password)
	if err != nil {
		return nil, errors.NewInternalError("failed to hash password", err)
	}

	row := &userDatamodel.User{
		Username:     dto.Username,
		Name:         dto.Name,
		StuID:        dto.StuID,
		Email:        dto.Email,
		PasswordHash: hash,
		Status:       int(DecodeStatus(dto.Status)),
		DepartmentID: dto.DepartmentID,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.Error("failed to create user", "stu_id", dto.StuID, "error", err)
		return nil, err
	}
	if err := s.roles.AssignUserRoles(ctx, actor, row.ID, dto.RoleIDs); err != nil {
		return nil, fmt.Errorf("assign roles to new user %d: %w", row.ID, err)
	}

	s.logger.Info("user created", "actor_id", actor.UserID, "user_id", row.ID, "department_id", row.DepartmentID)
	return FromDataModel(row), nil
}

// Update edits a user profile. Callers without the edit permission may
// only change their own username and email. Non-admins stay inside their
// own department and cannot move users out of it.
func (s *Service) Update(ctx context.Context, actor permission.Actor, id int64, dto UpdateUserDTO) (*User, error) {
	if err := validation.Struct(dto); err != nil {
		return nil, err
	}

	canEdit := actor.Has(PermissionEdit)
	if !canEdit && actor.UserID != id {
		return nil, errors.ErrPermissionDenied
	}

	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !actor.IsAdmin() && row.DepartmentID != actor.DepartmentID {
		return nil, errors.ErrPermissionDenied
	}
	if !canEdit && restrictedFieldsChanged(row, dto) {
		s.logger.Warn("update user denied: restricted fields", "actor_id", actor.UserID, "user_id", id)
		return nil, errors.ErrPermissionDenied
	}
	if !actor.IsAdmin() && dto.DepartmentID != actor.DepartmentID {
		return nil, errors.ErrPermissionDenied
	}

	if dto.DepartmentID != row.DepartmentID {
		if err := s.ensureDepartment(ctx, dto.DepartmentID); err != nil {
			return nil, err
		}
	}
	if dto.StuID != row.StuID {
		if err := s.ensureStuIDFree(ctx, dto.StuID, id); err != nil {
			return nil, err
		}
	}
	if dto.RoleIDs != nil {
		if err := s.roles.CheckAssignable(ctx, actor, *dto.RoleIDs); err != nil {
			return nil, err
		}
	}

	row.Username = dto.Username
	row.Name = dto.Name
	row.StuID = dto.StuID
	row.Email = dto.Email
	row.DepartmentID = dto.DepartmentID
	row.Status = int(DecodeStatus(dto.Status))
	if err := s.repo.Update(ctx, row); err != nil {
		s.logger.Error("failed to update user", "user_id", id, "error", err)
		return nil, err
	}

	if dto.Password != nil {
		hash, err := s.hasher.Hash(*dto.Password)
		if err != nil {
			return nil, errors.NewInternalError("failed to hash password", err)
		}
		if err := s.repo.UpdatePassword(ctx, id, hash); err != nil {
			return nil, err
		}
	}
	if dto.RoleIDs != nil {
		if err := s.roles.AssignUserRoles(ctx, actor, id, *dto.RoleIDs); err != nil {
			return nil, err
		}
	}

	return FromDataModel(row), nil
}

func (s *Service) Delete(ctx context.Context, actor permission.Actor, id int64) error {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() && row.DepartmentID != actor.DepartmentID {
		return errors.ErrPermissionDenied
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete user", "user_id", id, "error", err)
		return err
	}
	s.logger.Info("user deleted", "actor_id", actor.UserID, "user_id", id)
	return nil
}

// AssignRoles replaces the roles of a user in actor's reach.
func (s *Service) AssignRoles(ctx context.Context, actor permission.Actor, id int64, roleIDs []int64) error {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return err
	}
	return s.roles.AssignUserRoles(ctx, actor, id, roleIDs)
}

func (s *Service) ensureStuIDFree(ctx context.Context, stuID string, selfID int64) error {
	existing, err := s.repo.GetByStuID(ctx, stuID)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != selfID {
		return ErrStuIDTaken
	}
	return nil
}

func (s *Service) ensureDepartment(ctx context.Context, id int64) error {
	ok, err := s.departments.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrDepartmentNotFound
	}
	return nil
}

func restrictedFieldsChanged(row *userDatamodel.User, dto UpdateUserDTO) bool {
	return dto.Name != row.Name ||
		dto.StuID != row.StuID ||
		dto.DepartmentID != row.DepartmentID ||
		int(DecodeStatus(dto.Status)) != row.Status ||
		dto.Password != nil ||
		dto.RoleIDs != nil
}
