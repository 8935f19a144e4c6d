package postgres

import (
	"context"
	"errors"
	"fmt"

	workhourDatamodel "github.com/qnxg/yqwork/internal/core/datamodel/workhour"
	"github.com/qnxg/yqwork/internal/workhour"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const recordsTable = "work_hour_records"

type WorkHourRepository struct {
	db *gorm.DB
}

func NewWorkHourRepository(db *gorm.DB) workhour.RepositoryAPI {
	return &WorkHourRepository{db: db}
}

func (r *WorkHourRepository) WithinTx(ctx context.Context, fn func(repo workhour.RepositoryAPI) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&WorkHourRepository{db: tx})
	})
}

func (r *WorkHourRepository) ListCampaigns(ctx context.Context, limit, offset int) ([]*workhourDatamodel.Campaign, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&workhourDatamodel.Campaign{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count campaigns: %w", err)
	}
	var rows []*workhourDatamodel.Campaign
	err := r.db.WithContext(ctx).Order("id DESC").Limit(limit).Offset(offset).Find(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list campaigns: %w", err)
	}
	return rows, total, nil
}

func (r *WorkHourRepository) GetCampaign(ctx context.Context, id int64) (*workhourDatamodel.Campaign, error) {
	var row workhourDatamodel.Campaign
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, workhour.ErrCampaignNotFound
		}
		return nil, fmt.Errorf("get campaign %d: %w", id, err)
	}
	return &row, nil
}

func (r *WorkHourRepository) CreateCampaign(ctx context.Context, c *workhourDatamodel.Campaign) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *WorkHourRepository) UpdateCampaign(ctx context.Context, c *workhourDatamodel.Campaign) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *WorkHourRepository) DeleteCampaign(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&workhourDatamodel.Campaign{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete campaign %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return workhour.ErrCampaignNotFound
	}
	return nil
}

func (r *WorkHourRepository) GetRecord(ctx context.Context, id int64) (*workhourDatamodel.Record, error) {
	var row workhourDatamodel.Record
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, workhour.ErrRecordNotFound
		}
		return nil, fmt.Errorf("get record %d: %w", id, err)
	}
	return &row, nil
}

func (r *WorkHourRepository) FindRecord(ctx context.Context, campaignID, userID int64) (*workhourDatamodel.Record, error) {
	var row workhourDatamodel.Record
	err := r.db.WithContext(ctx).
		Where("campaign_id = ? AND user_id = ?", campaignID, userID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, workhour.ErrRecordNotFound
		}
		return nil, fmt.Errorf("find record (%d, %d): %w", campaignID, userID, err)
	}
	return &row, nil
}

func (r *WorkHourRepository) GetRecordsByIDs(ctx context.Context, ids []int64) ([]*workhourDatamodel.Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []*workhourDatamodel.Record
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("get records by ids: %w", err)
	}
	return rows, nil
}

// ListRecords returns the matching records newest first together with the
// total match count. A zero Limit returns every match.
func (r *WorkHourRepository) ListRecords(ctx context.Context, f workhour.RecordFilter) ([]*workhourDatamodel.Record, int64, error) {
	q := r.db.WithContext(ctx).
		Model(&workhourDatamodel.Record{}).
		Where(recordsTable+".campaign_id = ?", f.CampaignID)
	if f.Status != nil {
		q = q.Where(recordsTable+".status = ?", int(*f.Status))
	}
	if f.MinStatus != nil {
		q = q.Where(recordsTable+".status >= ?", int(*f.MinStatus))
	}
	if f.DepartmentID != nil {
		q = q.Joins("JOIN users ON users.id = "+recordsTable+".user_id AND users.deleted_at IS NULL").
			Where("users.department_id = ?", *f.DepartmentID)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count records: %w", err)
	}

	find := q.Select(recordsTable + ".*").Order(recordsTable + ".id DESC")
	if f.Limit > 0 {
		find = find.Limit(f.Limit).Offset(f.Offset)
	}
	var rows []*workhourDatamodel.Record
	if err := find.Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("list records: %w", err)
	}
	return rows, total, nil
}

// SubmitRecord inserts the record or overwrites the existing one for the
// same campaign and user, but only while that one is still unsubmitted.
// The conflict target is the unique (campaign_id, user_id) index, so two
// concurrent submissions can never produce two rows.
func (r *WorkHourRepository) SubmitRecord(ctx context.Context, row *workhourDatamodel.Record) error {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "campaign_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"work_descs", "includes", "comment", "status", "updated_at"}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Eq{
				Column: clause.Column{Table: recordsTable, Name: "status"},
				Value:  int(workhour.StatusUnsubmitted),
			},
		}},
	}).Create(row)
	if res.Error != nil {
		return fmt.Errorf("upsert record (%d, %d): %w", row.CampaignID, row.UserID, res.Error)
	}
	if res.RowsAffected == 0 {
		return workhour.ErrAlreadySubmitted
	}
	if row.ID == 0 {
		existing, err := r.FindRecord(ctx, row.CampaignID, row.UserID)
		if err != nil {
			return err
		}
		row.ID = existing.ID
	}
	return nil
}

// UpdateRecord writes the mutable columns of row if the stored status still
// equals expected.
func (r *WorkHourRepository) UpdateRecord(ctx context.Context, row *workhourDatamodel.Record, expected workhour.RecordStatus) error {
	res := r.db.WithContext(ctx).
		Model(row).
		Where("status = ?", int(expected)).
		Select("work_descs", "includes", "comment", "status", "updated_at").
		Updates(row)
	if res.Error != nil {
		return fmt.Errorf("update record %d: %w", row.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return workhour.ErrRecordChanged
	}
	return nil
}
