package permission

import (
	"context"
	"net/http"

	"github.com/qnxg/yqwork/internal/transport"
)

type ServiceAPI interface {
	List(ctx context.Context) ([]Item, error)
	Create(ctx context.Context, dto CreatePermissionDTO) (*Item, error)
	Update(ctx context.Context, id int64, dto UpdatePermissionDTO) (*Item, error)
	Delete(ctx context.Context, id int64) error
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.List(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteData(w, items)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var dto CreatePermissionDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	item, err := h.Service.Create(r.Context(), dto)
	if err != nil {
		h.Logger.Warn("CreatePermission: service error", "error", err, "permission", dto.Permission)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteData(w, item)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := h.URLParamInt64(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var dto UpdatePermissionDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	item, err := h.Service.Update(r.Context(), id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteData(w, item)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := h.URLParamInt64(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	if err := h.Service.Delete(r.Context(), id); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteData(w, nil)
}
