package workhour_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	apperrors "github.com/qnxg/yqwork/internal"
	departmentDatamodel "github.com/qnxg/yqwork/internal/core/datamodel/department"
	userDatamodel "github.com/qnxg/yqwork/internal/core/datamodel/user"
	workhourDatamodel "github.com/qnxg/yqwork/internal/core/datamodel/workhour"
	"github.com/qnxg/yqwork/internal/core/events"
	"github.com/qnxg/yqwork/internal/department"
	departmentPostgres "github.com/qnxg/yqwork/internal/department/postgres"
	"github.com/qnxg/yqwork/internal/permission"
	"github.com/qnxg/yqwork/internal/user"
	userPostgres "github.com/qnxg/yqwork/internal/user/postgres"
	"github.com/qnxg/yqwork/internal/workhour"
	workhourPostgres "github.com/qnxg/yqwork/internal/workhour/postgres"
)

type recordingPublisher struct {
	mu    sync.Mutex
	types []string
}

func (p *recordingPublisher) Publish(ctx context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.types = append(p.types, e.EventType())
	return nil
}

func (p *recordingPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.types...)
}

// flakyRepo fails every record update after the first failAfter ones.
type flakyRepo struct {
	workhour.RepositoryAPI
	failAfter int
	updates   *int
}

func (f flakyRepo) UpdateRecord(ctx context.Context, row *workhourDatamodel.Record, expected workhour.RecordStatus) error {
	*f.updates++
	if *f.updates > f.failAfter {
		return errors.New("disk full")
	}
	return f.RepositoryAPI.UpdateRecord(ctx, row, expected)
}

func (f flakyRepo) WithinTx(ctx context.Context, fn func(repo workhour.RepositoryAPI) error) error {
	return f.RepositoryAPI.WithinTx(ctx, func(repo workhour.RepositoryAPI) error {
		return fn(flakyRepo{RepositoryAPI: repo, failAfter: f.failAfter, updates: f.updates})
	})
}

func transitionCount(reg *prometheus.Registry, to string) float64 {
	families, err := reg.Gather()
	Expect(err).NotTo(HaveOccurred())
	for _, mf := range families {
		if mf.GetName() != "yqwork_workhour_transitions_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "to" && lp.GetValue() == to {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

var _ = Describe("Work hour workflow against storage", func() {
	const (
		techDept    int64 = 1
		financeDept int64 = 2
		uID         int64 = 10
		vID         int64 = 11
	)

	var (
		ctx        context.Context
		db         *gorm.DB
		repo       workhour.RepositoryAPI
		users      *user.Service
		flow       *workhour.Workflow
		service    *workhour.Service
		publisher  *recordingPublisher
		reg        *prometheus.Registry
		slogger    *slog.Logger
		campaignID int64

		u           = workhour.Actor{UserID: uID, DepartmentID: techDept, Permissions: permission.FromStrings(workhour.PermQuery)}
		v           = workhour.Actor{UserID: vID, DepartmentID: financeDept, Permissions: permission.FromStrings(workhour.PermQuery)}
		techHead    = workhour.Actor{UserID: 12, DepartmentID: techDept, Permissions: permission.FromStrings(workhour.PermCheckDepartment)}
		financeHead = workhour.Actor{UserID: 14, DepartmentID: financeDept, Permissions: permission.FromStrings(workhour.PermCheckDepartment)}
		finance     = workhour.Actor{UserID: 13, DepartmentID: financeDept, Permissions: permission.FromStrings(workhour.PermGenerateTable)}
		nobody      = workhour.Actor{UserID: 15, DepartmentID: techDept}
	)

	submit := func(a workhour.Actor, hours uint32) int64 {
		id, err := flow.Submit(ctx, campaignID, a, []workhour.WorkDesc{{Desc: "tutoring", Hour: hours}})
		Expect(err).NotTo(HaveOccurred())
		return id
	}
	move := func(a workhour.Actor, owner int64, to workhour.RecordStatus, comment *string) error {
		return flow.Transition(ctx, workhour.RecordRef{CampaignID: campaignID, UserID: owner}, to, a, comment)
	}
	load := func(owner int64) *workhour.RecordView {
		rec, err := service.MyRecord(ctx, campaignID, owner)
		Expect(err).NotTo(HaveOccurred())
		Expect(rec).NotTo(BeNil())
		return rec
	}
	toFinance := func() (int64, int64) {
		uRec := submit(u, 4)
		vRec := submit(v, 3)
		Expect(move(techHead, uID, workhour.StatusPendingFinance, nil)).To(Succeed())
		Expect(move(financeHead, vID, workhour.StatusPendingFinance, nil)).To(Succeed())
		return uRec, vRec
	}

	BeforeEach(func() {
		ctx = context.Background()

		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)

		Expect(db.AutoMigrate(
			&departmentDatamodel.Department{},
			&userDatamodel.User{},
			&workhourDatamodel.Campaign{},
			&workhourDatamodel.Record{},
		)).To(Succeed())

		Expect(db.Create(&departmentDatamodel.Department{ID: techDept, Name: "Tech"}).Error).To(Succeed())
		Expect(db.Create(&departmentDatamodel.Department{ID: financeDept, Name: "Finance"}).Error).To(Succeed())
		for _, row := range []userDatamodel.User{
			{ID: uID, Name: "U", StuID: "2023001", PasswordHash: "x", Status: 2, DepartmentID: techDept},
			{ID: vID, Name: "V", StuID: "2023002", PasswordHash: "x", Status: 2, DepartmentID: financeDept},
			{ID: 12, Name: "D", StuID: "2023003", PasswordHash: "x", Status: 2, DepartmentID: techDept},
			{ID: 13, Name: "F", StuID: "2023004", PasswordHash: "x", Status: 2, DepartmentID: financeDept},
		} {
			row := row
			Expect(db.Create(&row).Error).To(Succeed())
		}

		slogger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		repo = workhourPostgres.NewWorkHourRepository(db)
		users = user.NewService(userPostgres.NewUserRepository(db), nil, nil, nil, slogger)
		departments := department.NewService(departmentPostgres.NewDepartmentRepository(db), slogger)
		publisher = &recordingPublisher{}
		reg = prometheus.NewRegistry()
		flow = workhour.NewWorkflow(repo, users, publisher, workhour.NewMetrics(reg), slogger)
		service = workhour.NewService(repo, users, departments, slogger)

		c, err := service.CreateCampaign(ctx, workhour.SaveCampaignDTO{Name: "2026 autumn", EndTime: "2026-11-30T18:00", Status: 1})
		Expect(err).NotTo(HaveOccurred())
		campaignID = c.ID
	})

	Describe("Submit", func() {
		It("creates a pending record for the caller", func() {
			id, err := flow.Submit(ctx, campaignID, u, []workhour.WorkDesc{{Desc: "  tutoring ", Hour: 4}})
			Expect(err).NotTo(HaveOccurred())
			Expect(id).To(BeNumerically(">", 0))

			rec := load(uID)
			Expect(rec.ID).To(Equal(id))
			Expect(rec.Status).To(Equal(workhour.StatusPendingApproval))
			Expect(rec.WorkDescs).To(Equal([]workhour.WorkDesc{{Desc: "tutoring", Hour: 4}}))
			Expect(rec.Includes).To(BeNil())
			Expect(rec.User.Name).To(Equal("U"))
		})

		It("returns nothing before the first declaration", func() {
			rec, err := service.MyRecord(ctx, campaignID, vID)
			Expect(err).NotTo(HaveOccurred())
			Expect(rec).To(BeNil())
		})

		It("rejects empty or blank declarations", func() {
			_, err := flow.Submit(ctx, campaignID, u, nil)
			Expect(err).To(MatchError(workhour.ErrEmptyWorkDescs))
			_, err = flow.Submit(ctx, campaignID, u, []workhour.WorkDesc{{Desc: "  ", Hour: 2}})
			Expect(err).To(MatchError(workhour.ErrEmptyWorkDescs))
			_, err = flow.Submit(ctx, campaignID, u, []workhour.WorkDesc{{Desc: "tutoring", Hour: 0}})
			Expect(err).To(MatchError(workhour.ErrEmptyWorkDescs))
		})

		It("reports an unknown campaign", func() {
			_, err := flow.Submit(ctx, campaignID+100, u, []workhour.WorkDesc{{Desc: "tutoring", Hour: 4}})
			Expect(err).To(MatchError(workhour.ErrCampaignNotFound))
		})

		It("requires the query permission", func() {
			_, err := flow.Submit(ctx, campaignID, nobody, []workhour.WorkDesc{{Desc: "tutoring", Hour: 4}})
			Expect(err).To(MatchError(apperrors.ErrPermissionDenied))
		})

		It("only allows resubmission while unsubmitted", func() {
			id := submit(u, 4)

			_, err := flow.Submit(ctx, campaignID, u, []workhour.WorkDesc{{Desc: "more tutoring", Hour: 8}})
			Expect(err).To(MatchError(workhour.ErrAlreadySubmitted))
			Expect(load(uID).WorkDescs).To(Equal([]workhour.WorkDesc{{Desc: "tutoring", Hour: 4}}))

			Expect(move(techHead, uID, workhour.StatusUnsubmitted, strPtr("add detail"))).To(Succeed())
			rejected := load(uID)
			Expect(rejected.Status).To(Equal(workhour.StatusUnsubmitted))
			Expect(*rejected.Comment).To(Equal("add detail"))

			again, err := flow.Submit(ctx, campaignID, u, []workhour.WorkDesc{{Desc: "tutoring, two groups", Hour: 6}})
			Expect(err).NotTo(HaveOccurred())
			Expect(again).To(Equal(id))

			rec := load(uID)
			Expect(rec.Status).To(Equal(workhour.StatusPendingApproval))
			Expect(rec.WorkDescs).To(Equal([]workhour.WorkDesc{{Desc: "tutoring, two groups", Hour: 6}}))
			Expect(rec.Comment).To(BeNil())

			var n int64
			Expect(db.Model(&workhourDatamodel.Record{}).Count(&n).Error).To(Succeed())
			Expect(n).To(Equal(int64(1)))
		})
	})

	Describe("Transition", func() {
		It("leaves the record untouched when a rejection has no comment", func() {
			submit(u, 4)
			Expect(move(techHead, uID, workhour.StatusUnsubmitted, nil)).To(MatchError(workhour.ErrCommentRequired))
			Expect(load(uID).Status).To(Equal(workhour.StatusPendingApproval))
		})

		It("keeps department heads to their own department", func() {
			submit(u, 4)
			Expect(move(financeHead, uID, workhour.StatusPendingFinance, nil)).To(MatchError(apperrors.ErrPermissionDenied))
			Expect(load(uID).Status).To(Equal(workhour.StatusPendingApproval))
		})

		It("rejects skipping a stage", func() {
			submit(u, 4)
			err := move(finance, uID, workhour.StatusPendingDistribution, nil)
			Expect(errors.Is(err, workhour.ErrIllegalTransition)).To(BeTrue())
		})

		It("reports a missing record", func() {
			Expect(move(techHead, vID, workhour.StatusPendingFinance, nil)).To(MatchError(workhour.ErrRecordNotFound))
		})

		It("reports a missing owner", func() {
			Expect(db.Create(&workhourDatamodel.Record{
				CampaignID: campaignID,
				UserID:     99,
				WorkDescs:  []workhourDatamodel.WorkDesc{{Desc: "ghost", Hour: 1}},
				Status:     int(workhour.StatusPendingApproval),
			}).Error).To(Succeed())
			Expect(move(techHead, 99, workhour.StatusPendingFinance, nil)).To(MatchError(workhour.ErrUserNotFound))
		})

		It("carries declared items forward and counts transitions", func() {
			submit(u, 4)
			Expect(move(techHead, uID, workhour.StatusPendingFinance, nil)).To(Succeed())

			rec := load(uID)
			Expect(rec.Status).To(Equal(workhour.StatusPendingFinance))
			Expect(rec.WorkDescs).To(Equal([]workhour.WorkDesc{{Desc: "tutoring", Hour: 4}}))
			Expect(transitionCount(reg, "pending_approval")).To(Equal(1.0))
			Expect(transitionCount(reg, "pending_finance")).To(Equal(1.0))
			Expect(publisher.Types()).To(Equal([]string{events.EventTypeRecordSubmitted, events.EventTypeRecordApproved}))
		})
	})

	Describe("SaveInclusions", func() {
		It("replaces the whole inclusion list", func() {
			uRec, vRec := toFinance()

			Expect(flow.SaveInclusions(ctx, finance, []workhour.TableItem{
				{RecordID: vRec, Includes: []workhour.Include{{RecordID: uRec, Hour: 4}}},
			})).To(Succeed())
			Expect(flow.SaveInclusions(ctx, finance, []workhour.TableItem{
				{RecordID: vRec, Includes: []workhour.Include{{RecordID: uRec, Hour: 2}}},
			})).To(Succeed())

			rec := load(vID)
			Expect(rec.Includes).To(Equal([]workhour.Include{{RecordID: uRec, Hour: 2}}))
			Expect(rec.Status).To(Equal(workhour.StatusPendingFinance))
			Expect(rec.WorkDescs).To(Equal([]workhour.WorkDesc{{Desc: "tutoring", Hour: 3}}))
			Expect(load(uID).Includes).To(BeNil())
			Expect(publisher.Types()).To(ContainElement(events.EventTypeInclusionsSaved))
		})

		It("requires the finance permission", func() {
			uRec, vRec := toFinance()
			err := flow.SaveInclusions(ctx, techHead, []workhour.TableItem{
				{RecordID: vRec, Includes: []workhour.Include{{RecordID: uRec, Hour: 4}}},
			})
			Expect(err).To(MatchError(apperrors.ErrPermissionDenied))
		})

		It("attaches inclusions at any stage without moving the record", func() {
			uRec := submit(u, 4)
			vRec := submit(v, 3)
			Expect(flow.SaveInclusions(ctx, finance, []workhour.TableItem{
				{RecordID: vRec, Includes: []workhour.Include{{RecordID: uRec, Hour: 4}}},
			})).To(Succeed())

			rec := load(vID)
			Expect(rec.Status).To(Equal(workhour.StatusPendingApproval))
			Expect(rec.WorkDescs).To(Equal([]workhour.WorkDesc{{Desc: "tutoring", Hour: 3}}))
			Expect(rec.Includes).To(Equal([]workhour.Include{{RecordID: uRec, Hour: 4}}))

			Expect(move(techHead, uID, workhour.StatusPendingFinance, nil)).To(Succeed())
			Expect(move(financeHead, vID, workhour.StatusPendingFinance, nil)).To(Succeed())
			moved, err := flow.AcceptAll(ctx, campaignID, finance)
			Expect(err).NotTo(HaveOccurred())
			Expect(moved).To(Equal(2))

			Expect(flow.SaveInclusions(ctx, finance, []workhour.TableItem{
				{RecordID: vRec, Includes: []workhour.Include{{RecordID: uRec, Hour: 2}}},
			})).To(Succeed())

			rec = load(vID)
			Expect(rec.Status).To(Equal(workhour.StatusPendingDistribution))
			Expect(rec.WorkDescs).To(Equal([]workhour.WorkDesc{{Desc: "tutoring", Hour: 3}}))
			Expect(rec.Includes).To(Equal([]workhour.Include{{RecordID: uRec, Hour: 2}}))
		})

		It("rejects unknown, foreign and self references without writing anything", func() {
			uRec, vRec := toFinance()

			other, err := service.CreateCampaign(ctx, workhour.SaveCampaignDTO{Name: "2026 winter", EndTime: "2026-12-31T18:00", Status: 0})
			Expect(err).NotTo(HaveOccurred())
			foreign, err := flow.Submit(ctx, other.ID, u, []workhour.WorkDesc{{Desc: "tutoring", Hour: 1}})
			Expect(err).NotTo(HaveOccurred())

			for _, includes := range [][]workhour.Include{
				{{RecordID: 9999, Hour: 1}},
				{{RecordID: foreign, Hour: 1}},
				{{RecordID: vRec, Hour: 1}},
				{{RecordID: uRec, Hour: 0}},
			} {
				err := flow.SaveInclusions(ctx, finance, []workhour.TableItem{{RecordID: vRec, Includes: includes}})
				Expect(err).To(MatchError(workhour.ErrInvalidInclusion))
			}

			err = flow.SaveInclusions(ctx, finance, []workhour.TableItem{
				{RecordID: vRec, Includes: []workhour.Include{{RecordID: uRec, Hour: 4}}},
				{RecordID: uRec, Includes: []workhour.Include{{RecordID: 9999, Hour: 1}}},
			})
			Expect(err).To(MatchError(workhour.ErrInvalidInclusion))
			Expect(load(vID).Includes).To(BeNil())
		})

		It("reports an unknown target record", func() {
			err := flow.SaveInclusions(ctx, finance, []workhour.TableItem{{RecordID: 4242}})
			Expect(err).To(MatchError(workhour.ErrRecordNotFound))
		})
	})

	Describe("Bulk operations", func() {
		It("accepts and closes every eligible record", func() {
			toFinance()

			moved, err := flow.AcceptAll(ctx, campaignID, finance)
			Expect(err).NotTo(HaveOccurred())
			Expect(moved).To(Equal(2))
			Expect(load(uID).Status).To(Equal(workhour.StatusPendingDistribution))

			moved, err = flow.CloseAll(ctx, campaignID, finance)
			Expect(err).NotTo(HaveOccurred())
			Expect(moved).To(Equal(2))
			Expect(load(uID).Status).To(Equal(workhour.StatusClosed))
			Expect(load(vID).Status).To(Equal(workhour.StatusClosed))
		})

		It("leaves records in earlier stages alone", func() {
			submit(u, 4)
			moved, err := flow.AcceptAll(ctx, campaignID, finance)
			Expect(err).NotTo(HaveOccurred())
			Expect(moved).To(BeZero())
			Expect(load(uID).Status).To(Equal(workhour.StatusPendingApproval))
		})

		It("is a no-op when everything is already closed", func() {
			toFinance()
			_, err := flow.AcceptAll(ctx, campaignID, finance)
			Expect(err).NotTo(HaveOccurred())
			_, err = flow.CloseAll(ctx, campaignID, finance)
			Expect(err).NotTo(HaveOccurred())

			var before []workhourDatamodel.Record
			Expect(db.Order("id").Find(&before).Error).To(Succeed())
			published := len(publisher.Types())

			moved, err := flow.CloseAll(ctx, campaignID, finance)
			Expect(err).NotTo(HaveOccurred())
			Expect(moved).To(BeZero())

			var after []workhourDatamodel.Record
			Expect(db.Order("id").Find(&after).Error).To(Succeed())
			Expect(after).To(HaveLen(len(before)))
			for i := range after {
				Expect(after[i].UpdatedAt).To(Equal(before[i].UpdatedAt))
				Expect(after[i].Status).To(Equal(int(workhour.StatusClosed)))
			}
			Expect(publisher.Types()).To(HaveLen(published))
			Expect(transitionCount(reg, "closed")).To(Equal(2.0))
		})

		It("rolls the whole batch back on the first failure", func() {
			toFinance()
			updates := 0
			flaky := workhour.NewWorkflow(flakyRepo{RepositoryAPI: repo, failAfter: 1, updates: &updates}, users, publisher, nil, slogger)

			_, err := flaky.AcceptAll(ctx, campaignID, finance)
			Expect(err).To(MatchError(ContainSubstring("disk full")))
			Expect(load(uID).Status).To(Equal(workhour.StatusPendingFinance))
			Expect(load(vID).Status).To(Equal(workhour.StatusPendingFinance))
		})

		It("requires the finance permission", func() {
			_, err := flow.CloseAll(ctx, campaignID, techHead)
			Expect(err).To(MatchError(apperrors.ErrPermissionDenied))
		})

		It("reports an unknown campaign", func() {
			_, err := flow.AcceptAll(ctx, campaignID+100, finance)
			Expect(err).To(MatchError(workhour.ErrCampaignNotFound))
		})
	})

	Describe("Views and statistics", func() {
		It("runs a declaration from submission to payout", func() {
			uRec := submit(u, 4)
			Expect(load(uID).Status).To(Equal(workhour.StatusPendingApproval))

			Expect(move(techHead, uID, workhour.StatusPendingFinance, nil)).To(Succeed())
			Expect(load(uID).Status).To(Equal(workhour.StatusPendingFinance))

			vRec := submit(v, 3)
			Expect(move(financeHead, vID, workhour.StatusPendingFinance, nil)).To(Succeed())
			Expect(flow.SaveInclusions(ctx, finance, []workhour.TableItem{
				{RecordID: vRec, Includes: []workhour.Include{{RecordID: uRec, Hour: 4}}},
			})).To(Succeed())

			Expect(move(finance, uID, workhour.StatusPendingDistribution, nil)).To(Succeed())
			Expect(move(finance, uID, workhour.StatusClosed, nil)).To(Succeed())
			Expect(load(uID).Status).To(Equal(workhour.StatusClosed))

			stats, err := service.Statistics(ctx, campaignID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats).To(Equal([]workhour.DepartmentStat{
				{DepartmentID: techDept, DepartmentName: "Tech", Count: 1, TotalHours: 4},
				{DepartmentID: financeDept, DepartmentName: "Finance", Count: 1, TotalHours: 3},
			}))
		})

		It("counts records in every status", func() {
			submit(u, 4)
			Expect(move(techHead, uID, workhour.StatusUnsubmitted, strPtr("split by week"))).To(Succeed())
			submit(v, 5)

			stats, err := service.Statistics(ctx, campaignID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats).To(HaveLen(2))
			Expect(stats[0].TotalHours).To(Equal(uint64(4)))
			Expect(stats[1].TotalHours).To(Equal(uint64(5)))
		})

		It("reports an unknown campaign", func() {
			_, err := service.Statistics(ctx, campaignID+100)
			Expect(err).To(MatchError(workhour.ErrCampaignNotFound))
		})

		It("shows each reviewer the right stage", func() {
			submit(u, 4)
			submit(v, 3)
			Expect(move(financeHead, vID, workhour.StatusPendingFinance, nil)).To(Succeed())

			rows, total, err := service.DepartmentList(ctx, campaignID, techDept, 10, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(Equal(int64(1)))
			Expect(rows[0].UserID).To(Equal(uID))
			Expect(rows[0].User.DepartmentID).To(Equal(techDept))

			rows, total, err = service.FinanceList(ctx, campaignID, 10, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(Equal(int64(1)))
			Expect(rows[0].UserID).To(Equal(vID))
		})
	})

	Describe("Campaigns", func() {
		It("validates the deadline and status", func() {
			_, err := service.CreateCampaign(ctx, workhour.SaveCampaignDTO{Name: "bad", EndTime: "2026/11/30", Status: 0})
			appErr, ok := apperrors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(apperrors.ErrorTypeValidation))

			_, err = service.CreateCampaign(ctx, workhour.SaveCampaignDTO{Name: "gap", EndTime: "2026-11-30T18:00", Status: 3})
			Expect(err).To(MatchError(workhour.ErrUnknownStatus))
		})

		It("updates and soft deletes", func() {
			c, err := service.UpdateCampaign(ctx, campaignID, workhour.SaveCampaignDTO{
				Name: "2026 autumn", EndTime: "2026-12-01T09:30", Status: 2, Comment: strPtr(" extended "),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Status).To(Equal(workhour.CampaignEnded))
			Expect(c.EndTime.Format(workhour.EndTimeLayout)).To(Equal("2026-12-01T09:30"))
			Expect(*c.Comment).To(Equal("extended"))

			rows, total, err := service.ListCampaigns(ctx, 10, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(Equal(int64(1)))
			Expect(rows[0].Name).To(Equal("2026 autumn"))

			Expect(service.DeleteCampaign(ctx, campaignID)).To(Succeed())
			_, err = service.GetCampaign(ctx, campaignID)
			Expect(err).To(MatchError(workhour.ErrCampaignNotFound))
			Expect(service.DeleteCampaign(ctx, campaignID)).To(MatchError(workhour.ErrCampaignNotFound))
		})
	})
})
