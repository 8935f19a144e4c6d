package workhour

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	errors "github.com/qnxg/yqwork/internal"
	"github.com/qnxg/yqwork/internal/core/common/validation"
	workhourDatamodel "github.com/qnxg/yqwork/internal/core/datamodel/workhour"
	"github.com/qnxg/yqwork/internal/core/events"
	"github.com/qnxg/yqwork/internal/department"
	"github.com/qnxg/yqwork/internal/user"
)

// RepositoryAPI is the work hour store. SubmitRecord is an atomic upsert
// keyed by (campaign_id, user_id); UpdateRecord only applies while the row
// still has the expected status.
type RepositoryAPI interface {
	ListCampaigns(ctx context.Context, limit, offset int) ([]*workhourDatamodel.Campaign, int64, error)
	GetCampaign(ctx context.Context, id int64) (*workhourDatamodel.Campaign, error)
	CreateCampaign(ctx context.Context, c *workhourDatamodel.Campaign) error
	UpdateCampaign(ctx context.Context, c *workhourDatamodel.Campaign) error
	DeleteCampaign(ctx context.Context, id int64) error

	GetRecord(ctx context.Context, id int64) (*workhourDatamodel.Record, error)
	FindRecord(ctx context.Context, campaignID, userID int64) (*workhourDatamodel.Record, error)
	GetRecordsByIDs(ctx context.Context, ids []int64) ([]*workhourDatamodel.Record, error)
	ListRecords(ctx context.Context, filter RecordFilter) ([]*workhourDatamodel.Record, int64, error)
	SubmitRecord(ctx context.Context, r *workhourDatamodel.Record) error
	UpdateRecord(ctx context.Context, r *workhourDatamodel.Record, expected RecordStatus) error
	WithinTx(ctx context.Context, fn func(repo RepositoryAPI) error) error
}

type UserDirectory interface {
	GetByID(ctx context.Context, id int64) (*user.User, error)
	GetByIDs(ctx context.Context, ids []int64) (map[int64]*user.User, error)
}

type DepartmentDirectory interface {
	List(ctx context.Context) ([]*department.Department, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// Service serves campaign administration and the read side of records.
type Service struct {
	repo        RepositoryAPI
	users       UserDirectory
	departments DepartmentDirectory
	logger      *slog.Logger
}

func NewService(repo RepositoryAPI, users UserDirectory, departments DepartmentDirectory, logger *slog.Logger) *Service {
	return &Service{
		repo:        repo,
		users:       users,
		departments: departments,
		logger:      logger,
	}
}

func (s *Service) ListCampaigns(ctx context.Context, limit, offset int) ([]*Campaign, int64, error) {
	rows, total, err := s.repo.ListCampaigns(ctx, limit, offset)
	if err != nil {
		s.logger.Error("failed to list campaigns", "error", err)
		return nil, 0, err
	}
	out := make([]*Campaign, 0, len(rows))
	for _, row := range rows {
		out = append(out, CampaignFromDataModel(row))
	}
	return out, total, nil
}

func (s *Service) GetCampaign(ctx context.Context, id int64) (*Campaign, error) {
	row, err := s.repo.GetCampaign(ctx, id)
	if err != nil {
		return nil, err
	}
	return CampaignFromDataModel(row), nil
}

func (s *Service) CreateCampaign(ctx context.Context, dto SaveCampaignDTO) (*Campaign, error) {
	row := &workhourDatamodel.Campaign{}
	if err := applyCampaign(row, dto); err != nil {
		return nil, err
	}
	if err := s.repo.CreateCampaign(ctx, row); err != nil {
		s.logger.Error("failed to create campaign", "name", dto.Name, "error", err)
		return nil, err
	}
	s.logger.Info("campaign created", "campaign_id", row.ID, "status", CampaignStatus(row.Status).String())
	return CampaignFromDataModel(row), nil
}

func (s *Service) UpdateCampaign(ctx context.Context, id int64, dto SaveCampaignDTO) (*Campaign, error) {
	row, err := s.repo.GetCampaign(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyCampaign(row, dto); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateCampaign(ctx, row); err != nil {
		s.logger.Error("failed to update campaign", "campaign_id", id, "error", err)
		return nil, err
	}
	return CampaignFromDataModel(row), nil
}

func (s *Service) DeleteCampaign(ctx context.Context, id int64) error {
	if _, err := s.repo.GetCampaign(ctx, id); err != nil {
		return err
	}
	if err := s.repo.DeleteCampaign(ctx, id); err != nil {
		s.logger.Error("failed to delete campaign", "campaign_id", id, "error", err)
		return err
	}
	s.logger.Info("campaign deleted", "campaign_id", id)
	return nil
}

// MyRecord returns the caller's record for a campaign, or nil when nothing
// has been declared yet.
func (s *Service) MyRecord(ctx context.Context, campaignID, userID int64) (*RecordView, error) {
	row, err := s.repo.FindRecord(ctx, campaignID, userID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	views, err := s.enrich(ctx, []*workhourDatamodel.Record{row})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

// FinanceList lists the records that passed department review.
func (s *Service) FinanceList(ctx context.Context, campaignID int64, limit, offset int) ([]*RecordView, int64, error) {
	floor := StatusPendingFinance
	return s.listRecords(ctx, RecordFilter{CampaignID: campaignID, MinStatus: &floor, Limit: limit, Offset: offset})
}

// DepartmentList lists the submitted records of one department's members.
func (s *Service) DepartmentList(ctx context.Context, campaignID, departmentID int64, limit, offset int) ([]*RecordView, int64, error) {
	floor := StatusPendingApproval
	return s.listRecords(ctx, RecordFilter{
		CampaignID:   campaignID,
		MinStatus:    &floor,
		DepartmentID: &departmentID,
		Limit:        limit,
		Offset:       offset,
	})
}

// Statistics folds every record of a campaign by the submitter's department.
// Only declared work items are counted; inclusions are left out so hours
// moved between records are not counted twice. Records whose owner no
// longer exists are grouped under department 0.
func (s *Service) Statistics(ctx context.Context, campaignID int64) ([]DepartmentStat, error) {
	if _, err := s.repo.GetCampaign(ctx, campaignID); err != nil {
		return nil, err
	}
	rows, _, err := s.repo.ListRecords(ctx, RecordFilter{CampaignID: campaignID})
	if err != nil {
		s.logger.Error("failed to load records for statistics", "campaign_id", campaignID, "error", err)
		return nil, err
	}

	owners, err := s.users.GetByIDs(ctx, ownerIDs(rows))
	if err != nil {
		return nil, err
	}
	departments, err := s.departments.List(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(departments))
	for _, d := range departments {
		names[d.ID] = d.Name
	}

	acc := make(map[int64]*DepartmentStat)
	for _, row := range rows {
		var deptID int64
		if owner, ok := owners[row.UserID]; ok {
			deptID = owner.DepartmentID
		}
		stat, ok := acc[deptID]
		if !ok {
			stat = &DepartmentStat{DepartmentID: deptID, DepartmentName: names[deptID]}
			acc[deptID] = stat
		}
		stat.Count++
		stat.TotalHours += RecordFromDataModel(row).TotalHours()
	}

	out := make([]DepartmentStat, 0, len(acc))
	for _, stat := range acc {
		out = append(out, *stat)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DepartmentID < out[j].DepartmentID })
	return out, nil
}

func (s *Service) listRecords(ctx context.Context, filter RecordFilter) ([]*RecordView, int64, error) {
	rows, total, err := s.repo.ListRecords(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list records", "campaign_id", filter.CampaignID, "error", err)
		return nil, 0, err
	}
	views, err := s.enrich(ctx, rows)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

func (s *Service) enrich(ctx context.Context, rows []*workhourDatamodel.Record) ([]*RecordView, error) {
	owners, err := s.users.GetByIDs(ctx, ownerIDs(rows))
	if err != nil {
		return nil, err
	}
	views := make([]*RecordView, 0, len(rows))
	for _, row := range rows {
		views = append(views, &RecordView{Record: RecordFromDataModel(row), User: owners[row.UserID]})
	}
	return views, nil
}

func applyCampaign(row *workhourDatamodel.Campaign, dto SaveCampaignDTO) error {
	if err := validation.Struct(dto); err != nil {
		return err
	}
	endTime, err := time.ParseInLocation(EndTimeLayout, strings.TrimSpace(dto.EndTime), time.Local)
	if err != nil {
		return errors.NewValidationFieldError("endTime", "endTime must look like 2006-01-02T15:04", errors.ErrCodeValidationFailed)
	}
	status, err := ParseCampaignStatus(dto.Status)
	if err != nil {
		return err
	}

	row.Name = strings.TrimSpace(dto.Name)
	row.EndTime = endTime
	row.Status = int(status)
	row.Comment = nil
	if dto.Comment != nil {
		if c := strings.TrimSpace(*dto.Comment); c != "" {
			row.Comment = &c
		}
	}
	return nil
}

func ownerIDs(rows []*workhourDatamodel.Record) []int64 {
	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.UserID)
	}
	return dedupe(ids)
}
