package workhour_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	apperrors "github.com/qnxg/yqwork/internal"
	coreUser "github.com/qnxg/yqwork/internal/core/user"
	"github.com/qnxg/yqwork/internal/permission"
	"github.com/qnxg/yqwork/internal/transport"
	"github.com/qnxg/yqwork/internal/workhour"
)

type fakeWorkflow struct {
	ref     workhour.RecordRef
	target  workhour.RecordStatus
	comment *string
	actor   workhour.Actor
	descs   []workhour.WorkDesc
	items   []workhour.TableItem
	err     error
}

func (f *fakeWorkflow) Submit(ctx context.Context, campaignID int64, actor workhour.Actor, descs []workhour.WorkDesc) (int64, error) {
	f.actor, f.descs = actor, descs
	f.ref = workhour.RecordRef{CampaignID: campaignID, UserID: actor.UserID}
	return 7, f.err
}

func (f *fakeWorkflow) Transition(ctx context.Context, ref workhour.RecordRef, target workhour.RecordStatus, actor workhour.Actor, comment *string) error {
	f.ref, f.target, f.actor, f.comment = ref, target, actor, comment
	return f.err
}

func (f *fakeWorkflow) SaveInclusions(ctx context.Context, actor workhour.Actor, items []workhour.TableItem) error {
	f.actor, f.items = actor, items
	return f.err
}

func (f *fakeWorkflow) AcceptAll(ctx context.Context, campaignID int64, actor workhour.Actor) (int, error) {
	f.ref = workhour.RecordRef{CampaignID: campaignID}
	return 3, f.err
}

func (f *fakeWorkflow) CloseAll(ctx context.Context, campaignID int64, actor workhour.Actor) (int, error) {
	f.ref = workhour.RecordRef{CampaignID: campaignID}
	return 0, f.err
}

type fakeService struct {
	workhour.ServiceAPI
	departmentID int64
}

func (f *fakeService) DepartmentList(ctx context.Context, campaignID, departmentID int64, limit, offset int) ([]*workhour.RecordView, int64, error) {
	f.departmentID = departmentID
	return []*workhour.RecordView{}, 0, nil
}

type envelope struct {
	Code  int             `json:"code"`
	Data  json.RawMessage `json:"data"`
	Msg   string          `json:"msg"`
	Error map[string]any  `json:"error"`
}

var _ = Describe("Work hour handler", func() {
	var (
		flow      *fakeWorkflow
		service   *fakeService
		router    chi.Router
		principal *coreUser.Principal
	)

	BeforeEach(func() {
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		flow = &fakeWorkflow{}
		service = &fakeService{}
		principal = &coreUser.Principal{
			ID:           12,
			DepartmentID: 3,
			Permissions:  permission.FromStrings(workhour.PermCheckDepartment),
		}
		handler := workhour.NewHandler(transport.NewBaseHandler(slogger), service, flow)

		router = chi.NewRouter()
		router.Route("/anonymous", func(r chi.Router) {
			r.Put("/work-hours-record", handler.Transition)
		})
		router.Group(func(r chi.Router) {
			r.Use(func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
					next.ServeHTTP(w, req.WithContext(coreUser.WithPrincipal(req.Context(), principal)))
				})
			})
			r.Put("/work-hours-record", handler.Transition)
			r.Get("/work-hours-record/department", handler.DepartmentList)
			r.Put("/work-hours-record/my", handler.SubmitMyRecord)
			r.Put("/work-hours-record/save", handler.SaveTable)
			r.Post("/work-hours/{id}/accept-all", handler.AcceptAll)
		})
	})

	do := func(method, path, body string) (*httptest.ResponseRecorder, envelope) {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		var env envelope
		Expect(json.NewDecoder(w.Body).Decode(&env)).To(Succeed())
		return w, env
	}

	It("passes the record reference, target and comment to the workflow", func() {
		w, env := do(http.MethodPut, "/work-hours-record?workHourId=4&userId=10", `{"status":0,"comment":"add detail"}`)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(env.Msg).To(Equal("ok"))
		Expect(flow.ref).To(Equal(workhour.RecordRef{CampaignID: 4, UserID: 10}))
		Expect(flow.target).To(Equal(workhour.StatusUnsubmitted))
		Expect(*flow.comment).To(Equal("add detail"))
		Expect(flow.actor.UserID).To(Equal(int64(12)))
		Expect(flow.actor.DepartmentID).To(Equal(int64(3)))
	})

	It("rejects an unknown target status before calling the workflow", func() {
		w, env := do(http.MethodPut, "/work-hours-record?workHourId=4&userId=10", `{"status":9}`)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(env.Error["code"]).To(Equal(string(apperrors.ErrCodeUnknownStatus)))
		Expect(flow.ref).To(Equal(workhour.RecordRef{}))
	})

	It("requires both query parameters", func() {
		w, _ := do(http.MethodPut, "/work-hours-record?workHourId=4", `{"status":2}`)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("maps workflow errors to their status codes", func() {
		flow.err = workhour.ErrCommentRequired
		w, env := do(http.MethodPut, "/work-hours-record?workHourId=4&userId=10", `{"status":0}`)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(env.Error["code"]).To(Equal(string(apperrors.ErrCodeCommentRequired)))

		flow.err = apperrors.ErrPermissionDenied
		w, _ = do(http.MethodPut, "/work-hours-record?workHourId=4&userId=10", `{"status":2}`)
		Expect(w.Code).To(Equal(http.StatusForbidden))

		flow.err = workhour.ErrRecordNotFound
		w, _ = do(http.MethodPut, "/work-hours-record?workHourId=4&userId=10", `{"status":2}`)
		Expect(w.Code).To(Equal(http.StatusNotFound))
	})

	It("needs an authenticated caller", func() {
		w, _ := do(http.MethodPut, "/anonymous/work-hours-record?workHourId=4&userId=10", `{"status":2}`)
		Expect(w.Code).To(Equal(http.StatusUnauthorized))
	})

	It("submits the caller's own declaration", func() {
		w, env := do(http.MethodPut, "/work-hours-record/my?workHourId=4", `{"workDescs":[{"desc":"tutoring","hour":4}]}`)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(string(env.Data)).To(MatchJSON(`{"id":7}`))
		Expect(flow.ref).To(Equal(workhour.RecordRef{CampaignID: 4, UserID: 12}))
		Expect(flow.descs).To(Equal([]workhour.WorkDesc{{Desc: "tutoring", Hour: 4}}))
	})

	It("decodes the inclusion table", func() {
		w, _ := do(http.MethodPut, "/work-hours-record/save", `{"data":[{"id":3,"includes":[{"id":5,"hour":2}]}]}`)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(flow.items).To(Equal([]workhour.TableItem{
			{RecordID: 3, Includes: []workhour.Include{{RecordID: 5, Hour: 2}}},
		}))
	})

	It("rejects malformed declarations before calling the workflow", func() {
		for _, body := range []string{
			`{"workDescs":[]}`,
			`{"workDescs":[{"desc":"","hour":4}]}`,
			`{"workDescs":[{"desc":"tutoring","hour":0}]}`,
		} {
			w, env := do(http.MethodPut, "/work-hours-record/my?workHourId=4", body)
			Expect(w.Code).To(Equal(http.StatusBadRequest), body)
			Expect(env.Error["code"]).To(Equal(string(apperrors.ErrCodeValidationFailed)), body)
		}
		Expect(flow.descs).To(BeNil())
	})

	It("rejects malformed inclusion tables before calling the workflow", func() {
		for _, body := range []string{
			`{}`,
			`{"data":[{"id":0,"includes":[]}]}`,
			`{"data":[{"id":3,"includes":[{"id":0,"hour":2}]}]}`,
			`{"data":[{"id":3,"includes":[{"id":5,"hour":0}]}]}`,
		} {
			w, env := do(http.MethodPut, "/work-hours-record/save", body)
			Expect(w.Code).To(Equal(http.StatusBadRequest), body)
			Expect(env.Error["code"]).To(Equal(string(apperrors.ErrCodeValidationFailed)), body)
		}
		Expect(flow.items).To(BeNil())
	})

	It("scopes the department list to the caller's department", func() {
		w, env := do(http.MethodGet, "/work-hours-record/department?workHourId=4", "")
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(service.departmentID).To(Equal(int64(3)))
		Expect(string(env.Data)).To(MatchJSON(`{"count":0,"rows":[]}`))
	})

	It("reports how many records a bulk operation moved", func() {
		w, env := do(http.MethodPost, "/work-hours/4/accept-all", "")
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(string(env.Data)).To(MatchJSON(`{"moved":3}`))
		Expect(flow.ref.CampaignID).To(Equal(int64(4)))
	})
})
