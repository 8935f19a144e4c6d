package workhour

import (
	"context"
	"net/http"

	errors "github.com/qnxg/yqwork/internal"
	"github.com/qnxg/yqwork/internal/core/common/validation"
	coreUser "github.com/qnxg/yqwork/internal/core/user"
	"github.com/qnxg/yqwork/internal/transport"
)

type ServiceAPI interface {
	ListCampaigns(ctx context.Context, limit, offset int) ([]*Campaign, int64, error)
	GetCampaign(ctx context.Context, id int64) (*Campaign, error)
	CreateCampaign(ctx context.Context, dto SaveCampaignDTO) (*Campaign, error)
	UpdateCampaign(ctx context.Context, id int64, dto SaveCampaignDTO) (*Campaign, error)
	DeleteCampaign(ctx context.Context, id int64) error
	MyRecord(ctx context.Context, campaignID, userID int64) (*RecordView, error)
	FinanceList(ctx context.Context, campaignID int64, limit, offset int) ([]*RecordView, int64, error)
	DepartmentList(ctx context.Context, campaignID, departmentID int64, limit, offset int) ([]*RecordView, int64, error)
	Statistics(ctx context.Context, campaignID int64) ([]DepartmentStat, error)
}

type WorkflowAPI interface {
	Submit(ctx context.Context, campaignID int64, actor Actor, descs []WorkDesc) (int64, error)
	Transition(ctx context.Context, ref RecordRef, target RecordStatus, actor Actor, comment *string) error
	SaveInclusions(ctx context.Context, actor Actor, items []TableItem) error
	AcceptAll(ctx context.Context, campaignID int64, actor Actor) (int, error)
	CloseAll(ctx context.Context, campaignID int64, actor Actor) (int, error)
}

type Handler struct {
	*transport.BaseHandler
	Service  ServiceAPI
	Workflow WorkflowAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI, workflow WorkflowAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
		Workflow:    workflow,
	}
}

func (h *Handler) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	limit, offset := h.Pagination(r)
	rows, total, err := h.Service.ListCampaigns(r.Context(), limit, offset)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteData(w, transport.Page[*Campaign]{Total: total, Rows: rows})
}

func (h *Handler) GetCampaign(w http.ResponseWriter, r *http.Request) {
	id, err := h.URLParamInt64(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	c, err := h.Service.GetCampaign(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteData(w, c)
}

func (h *Handler) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var dto SaveCampaignDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	c, err := h.Service.CreateCampaign(r.Context(), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteData(w, c)
}

func (h *Handler) UpdateCampaign(w http.ResponseWriter, r *http.Request) {
	id, err := h.URLParamInt64(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	var dto SaveCampaignDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	c, err := h.Service.UpdateCampaign(r.Context(), id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteData(w, c)
}

func (h *Handler) DeleteCampaign(w http.ResponseWriter, r *http.Request) {
	id, err := h.URLParamInt64(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	if err := h.Service.DeleteCampaign(r.Context(), id); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteData(w, nil)
}

func (h *Handler) Statistics(w http.ResponseWriter, r *http.Request) {
	id, err := h.URLParamInt64(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	stats, err := h.Service.Statistics(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteData(w, stats)
}

func (h *Handler) AcceptAll(w http.ResponseWriter, r *http.Request) {
	h.bulk(w, r, h.Workflow.AcceptAll)
}

func (h *Handler) CloseAll(w http.ResponseWriter, r *http.Request) {
	h.bulk(w, r, h.Workflow.CloseAll)
}

func (h *Handler) bulk(w http.ResponseWriter, r *http.Request, op func(context.Context, int64, Actor) (int, error)) {
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
	moved, err := op(r.Context(), id, actor)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteData(w, BulkResult{Moved: moved})
}

// FinanceList serves GET /work-hours-record?workHourId=.
func (h *Handler) FinanceList(w http.ResponseWriter, r *http.Request) {
	campaignID, err := h.requiredQueryID(r, "workHourId")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	limit, offset := h.Pagination(r)
	rows, total, err := h.Service.FinanceList(r.Context(), campaignID, limit, offset)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteData(w, transport.Page[*RecordView]{Total: total, Rows: rows})
}

func (h *Handler) DepartmentList(w http.ResponseWriter, r *http.Request) {
	actor, err := coreUser.ActorFromContext(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	campaignID, err := h.requiredQueryID(r, "workHourId")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	limit, offset := h.Pagination(r)
	rows, total, err := h.Service.DepartmentList(r.Context(), campaignID, actor.DepartmentID, limit, offset)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteData(w, transport.Page[*RecordView]{Total: total, Rows: rows})
}

// Transition serves PUT /work-hours-record?workHourId=&userId= and moves
// the identified record to the requested status.
func (h *Handler) Transition(w http.ResponseWriter, r *http.Request) {
	actor, err := coreUser.ActorFromContext(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	campaignID, err := h.requiredQueryID(r, "workHourId")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	userID, err := h.requiredQueryID(r, "userId")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	var dto TransitionDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	target, err := ParseRecordStatus(dto.Status)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	ref := RecordRef{CampaignID: campaignID, UserID: userID}
	if err := h.Workflow.Transition(r.Context(), ref, target, actor, dto.Comment); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteData(w, nil)
}

func (h *Handler) MyRecord(w http.ResponseWriter, r *http.Request) {
	actor, err := coreUser.ActorFromContext(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	campaignID, err := h.requiredQueryID(r, "workHourId")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	rec, err := h.Service.MyRecord(r.Context(), campaignID, actor.UserID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteData(w, rec)
}

func (h *Handler) SubmitMyRecord(w http.ResponseWriter, r *http.Request) {
	actor, err := coreUser.ActorFromContext(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	campaignID, err := h.requiredQueryID(r, "workHourId")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	var dto SubmitRecordDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	if err := validation.Struct(dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	id, err := h.Workflow.Submit(r.Context(), campaignID, actor, dto.WorkDescs)
	if err != nil {
		h.Logger.Warn("SubmitMyRecord: service error", "error", err, "campaign_id", campaignID, "user_id", actor.UserID)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteData(w, map[string]int64{"id": id})
}

// SaveTable serves PUT /work-hours-record/save.
func (h *Handler) SaveTable(w http.ResponseWriter, r *http.Request) {
	actor, err := coreUser.ActorFromContext(r.Context())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	var dto SaveTableDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	if err := validation.Struct(dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	if err := h.Workflow.SaveInclusions(r.Context(), actor, dto.Data); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteData(w, nil)
}

func (h *Handler) requiredQueryID(r *http.Request, name string) (int64, error) {
	v, err := h.QueryInt64(r, name)
	if err != nil {
		return 0, err
	}
	if v == nil || *v <= 0 {
		return 0, errors.NewValidationFieldError(name, name+" is required", errors.ErrCodeInvalidRequest)
	}
	return *v, nil
}
