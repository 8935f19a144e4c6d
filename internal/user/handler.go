package user

import (
	"context"
	"net/http"
	"strings"

	coreUser "github.com/qnxg/yqwork/internal/core/user"
	"github.com/qnxg/yqwork/internal/permission"
	"github.com/qnxg/yqwork/internal/role"
	"github.com/qnxg/yqwork/internal/transport"
)

type ServiceAPI interface {
	GetByID(ctx context.Context, id int64) (*User, error)
	Get(ctx context.Context, actor permission.Actor, id int64) (*User, error)
	List(ctx context.Context, actor permission.Actor, filter ListFilter) ([]*User, int64, error)
	Create(ctx context.Context, actor permission.Actor, dto CreateUserDTO) (*User, error)
	Update(ctx context.Context, actor permission.Actor, id int64, dto UpdateUserDTO) (*User, error)
	Delete(ctx context.Context, actor permission.Actor, id int64) error
	AssignRoles(ctx context.Context, actor permission.Actor, id int64, roleIDs []int64) error
}

type RoleReader interface {
	UserRoles(ctx context.Context, userID int64) ([]*role.Role, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
	Roles   RoleReader
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI, roles RoleReader) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
		Roles:       roles,
	}
}

// Me returns the caller's profile together with the effective permissions.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	principal, ok := coreUser.PrincipalFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	u, err := h.Service.GetByID(r.Context(), principal.ID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteData(w, MeResponse{User: u, MyPermissions: principal.Permissions.Summary()})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor, err := coreUser.ActorFromContext(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	filter := ListFilter{
		StuID: strings.TrimSpace(r.URL.Query().Get("stuId")),
		Name:  strings.TrimSpace(r.URL.Query().Get("name")),
	}
	filter.Limit, filter.Offset = h.Pagination(r)
	if filter.DepartmentID, err = h.QueryInt64(r, "departmentId"); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	status, err := h.QueryInt64(r, "status")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	if status != nil {
		v := int(*status)
		filter.Status = &v
	}

	users, total, err := h.Service.List(r.Context(), actor, filter)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteData(w, transport.Page[*User]{Total: total, Rows: users})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	actor, err := coreUser.ActorFromContext(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	id, err := h.URLParamInt64(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	u, err := h.Service.Get(r.Context(), actor, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteData(w, u)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actor, err := coreUser.ActorFromContext(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var dto CreateUserDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	u, err := h.Service.Create(r.Context(), actor, dto)
	if err != nil {
		h.Logger.Warn("CreateUser: service error", "error", err, "actor_id", actor.UserID)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteData(w, u)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	actor, err := coreUser.ActorFromContext(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	id, err := h.URLParamInt64(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var dto UpdateUserDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	u, err := h.Service.Update(r.Context(), actor, id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteData(w, u)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, err := coreUser.ActorFromContext(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	id, err := h.URLParamInt64(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	if err := h.Service.Delete(r.Context(), actor, id); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteData(w, nil)
}

func (h *Handler) GetRoles(w http.ResponseWriter, r *http.Request) {
	actor, err := coreUser.ActorFromContext(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	id, err := h.URLParamInt64(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	if _, err := h.Service.Get(r.Context(), actor, id); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	roles, err := h.Roles.UserRoles(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteData(w, roles)
}

func (h *Handler) AssignRoles(w http.ResponseWriter, r *http.Request) {
	actor, err := coreUser.ActorFromContext(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	id, err := h.URLParamInt64(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var dto role.AssignRolesDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	if err := h.Service.AssignRoles(r.Context(), actor, id, dto.RoleIDs); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteData(w, nil)
}
