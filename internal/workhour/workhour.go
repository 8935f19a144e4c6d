package workhour

import (
	"fmt"
	"time"

	errors "github.com/qnxg/yqwork/internal"
	workhourDatamodel "github.com/qnxg/yqwork/internal/core/datamodel/workhour"
	"github.com/qnxg/yqwork/internal/permission"
	"github.com/qnxg/yqwork/internal/user"
	"github.com/qnxg/yqwork/pkg/logger"
)

const (
	PermQuery           = "yq:workHours:query"
	PermAdd             = "yq:workHours:add"
	PermEdit            = "yq:workHours:edit"
	PermDelete          = "yq:workHours:delete"
	PermCheckDepartment = "yq:workHours:checkDepartment"
	PermGenerateTable   = "yq:workHours:generateTable"
)

// EndTimeLayout is the wire format of a campaign deadline.
const EndTimeLayout = "2006-01-02T15:04"

var (
	ErrCampaignNotFound  = errors.NewNotFoundError("work hour campaign not found", errors.ErrCodeCampaignNotFound)
	ErrRecordNotFound    = errors.NewNotFoundError("work hour record not found", errors.ErrCodeRecordNotFound)
	ErrUserNotFound      = errors.NewNotFoundError("record owner not found", errors.ErrCodeUserNotFound)
	ErrIllegalTransition = errors.NewValidationError("illegal status transition", errors.ErrCodeIllegalTransition)
	ErrCommentRequired   = errors.NewValidationError("a comment is required when returning a record", errors.ErrCodeCommentRequired)
	ErrCommentNotAllowed = errors.NewValidationError("approval and closing take no comment", errors.ErrCodeIllegalTransition)
	ErrAlreadySubmitted  = errors.NewValidationError("record has already been submitted", errors.ErrCodeAlreadySubmitted)
	ErrRecordChanged     = errors.NewConflictError("record was changed by another request", errors.ErrCodeRecordChanged)
	ErrInvalidInclusion  = errors.NewValidationError("invalid inclusion", errors.ErrCodeInvalidInclusion)
	ErrUnknownStatus     = errors.NewValidationError("unknown status", errors.ErrCodeUnknownStatus)
	ErrEmptyWorkDescs    = errors.NewValidationFieldError("workDescs", "at least one work item with a description and positive hours is required", errors.ErrCodeValidationFailed)
)

// Actor is the caller performing a workflow operation.
type Actor = permission.Actor

type CampaignStatus int

const (
	CampaignPending CampaignStatus = 0
	CampaignOngoing CampaignStatus = 1
	CampaignEnded   CampaignStatus = 2
	// 3 is unassigned and kept free for compatibility.
	CampaignClosed CampaignStatus = 4
)

func ParseCampaignStatus(v int) (CampaignStatus, error) {
	switch s := CampaignStatus(v); s {
	case CampaignPending, CampaignOngoing, CampaignEnded, CampaignClosed:
		return s, nil
	}
	return CampaignClosed, ErrUnknownStatus.WithMessage(fmt.Sprintf("unknown campaign status %d", v))
}

// DecodeCampaignStatus reads a stored value. Unknown values are treated as
// Closed.
func DecodeCampaignStatus(v int) CampaignStatus {
	s, err := ParseCampaignStatus(v)
	if err != nil {
		logger.LoggerWrapper().Warn("unknown campaign status in storage, treating as closed", "status", v)
	}
	return s
}

func (s CampaignStatus) String() string {
	switch s {
	case CampaignPending:
		return "pending"
	case CampaignOngoing:
		return "ongoing"
	case CampaignEnded:
		return "ended"
	case CampaignClosed:
		return "closed"
	}
	return fmt.Sprintf("campaign_status(%d)", int(s))
}

type RecordStatus int

const (
	StatusUnsubmitted         RecordStatus = 0
	StatusPendingApproval     RecordStatus = 1
	StatusPendingFinance      RecordStatus = 2
	StatusPendingDistribution RecordStatus = 3
	StatusClosed              RecordStatus = 4
)

var recordStatuses = []RecordStatus{
	StatusUnsubmitted,
	StatusPendingApproval,
	StatusPendingFinance,
	StatusPendingDistribution,
	StatusClosed,
}

// RecordStatuses returns every record status in lifecycle order.
func RecordStatuses() []RecordStatus {
	out := make([]RecordStatus, len(recordStatuses))
	copy(out, recordStatuses)
	return out
}

func ParseRecordStatus(v int) (RecordStatus, error) {
	if v < int(StatusUnsubmitted) || v > int(StatusClosed) {
		return StatusClosed, ErrUnknownStatus.WithMessage(fmt.Sprintf("unknown record status %d", v))
	}
	return RecordStatus(v), nil
}

// DecodeRecordStatus reads a stored value. Unknown values are treated as
// Closed so the row stays out of every active queue.
func DecodeRecordStatus(v int) RecordStatus {
	s, err := ParseRecordStatus(v)
	if err != nil {
		logger.LoggerWrapper().Warn("unknown record status in storage, treating as closed", "status", v)
	}
	return s
}

func (s RecordStatus) String() string {
	switch s {
	case StatusUnsubmitted:
		return "unsubmitted"
	case StatusPendingApproval:
		return "pending_approval"
	case StatusPendingFinance:
		return "pending_finance"
	case StatusPendingDistribution:
		return "pending_distribution"
	case StatusClosed:
		return "closed"
	}
	return fmt.Sprintf("record_status(%d)", int(s))
}

type Campaign struct {
	ID      int64          `json:"id"`
	Name    string         `json:"name"`
	EndTime time.Time      `json:"endTime"`
	Status  CampaignStatus `json:"status"`
	Comment *string        `json:"comment"`
}

type WorkDesc struct {
	Desc string `json:"desc" validate:"required,max=255"`
	Hour uint32 `json:"hour" validate:"gt=0"`
}

// Include credits Hour hours from record RecordID to the record holding it.
type Include struct {
	RecordID int64  `json:"id" validate:"gt=0"`
	Hour     uint32 `json:"hour" validate:"gt=0"`
}

type Record struct {
	ID         int64        `json:"id"`
	CampaignID int64        `json:"workHourId"`
	UserID     int64        `json:"userId"`
	WorkDescs  []WorkDesc   `json:"workDescs"`
	Includes   []Include    `json:"includes"`
	Comment    *string      `json:"comment"`
	Status     RecordStatus `json:"status"`
}

// TotalHours sums the declared hours, ignoring inclusions.
func (r *Record) TotalHours() uint64 {
	var total uint64
	for _, d := range r.WorkDescs {
		total += uint64(d.Hour)
	}
	return total
}

// RecordView is a record enriched with its submitter.
type RecordView struct {
	*Record
	User *user.User `json:"user"`
}

type DepartmentStat struct {
	DepartmentID   int64  `json:"departmentId"`
	DepartmentName string `json:"departmentName"`
	Count          int    `json:"count"`
	TotalHours     uint64 `json:"totalHours"`
}

func CampaignFromDataModel(c *workhourDatamodel.Campaign) *Campaign {
	return &Campaign{
		ID:      c.ID,
		Name:    c.Name,
		EndTime: c.EndTime,
		Status:  DecodeCampaignStatus(c.Status),
		Comment: c.Comment,
	}
}

func RecordFromDataModel(r *workhourDatamodel.Record) *Record {
	descs := make([]WorkDesc, 0, len(r.WorkDescs))
	for _, d := range r.WorkDescs {
		descs = append(descs, WorkDesc{Desc: d.Desc, Hour: d.Hour})
	}
	var includes []Include
	if r.Includes != nil {
		includes = make([]Include, 0, len(*r.Includes))
		for _, inc := range *r.Includes {
			includes = append(includes, Include{RecordID: inc.RecordID, Hour: inc.Hour})
		}
	}
	return &Record{
		ID:         r.ID,
		CampaignID: r.CampaignID,
		UserID:     r.UserID,
		WorkDescs:  descs,
		Includes:   includes,
		Comment:    r.Comment,
		Status:     DecodeRecordStatus(r.Status),
	}
}

func RecordToDataModel(r *Record) *workhourDatamodel.Record {
	descs := make([]workhourDatamodel.WorkDesc, 0, len(r.WorkDescs))
	for _, d := range r.WorkDescs {
		descs = append(descs, workhourDatamodel.WorkDesc{Desc: d.Desc, Hour: d.Hour})
	}
	var includes *[]workhourDatamodel.Include
	if r.Includes != nil {
		list := make([]workhourDatamodel.Include, 0, len(r.Includes))
		for _, inc := range r.Includes {
			list = append(list, workhourDatamodel.Include{RecordID: inc.RecordID, Hour: inc.Hour})
		}
		includes = &list
	}
	return &workhourDatamodel.Record{
		ID:         r.ID,
		CampaignID: r.CampaignID,
		UserID:     r.UserID,
		WorkDescs:  descs,
		Includes:   includes,
		Comment:    r.Comment,
		Status:     int(r.Status),
	}
}
