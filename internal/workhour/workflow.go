package workhour

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"

	errors "github.com/qnxg/yqwork/internal"
	workhourDatamodel "github.com/qnxg/yqwork/internal/core/datamodel/workhour"
	"github.com/qnxg/yqwork/internal/core/events"
)

type action int

const (
	actionSubmit action = iota
	actionApprove
	actionReject
	actionClose
)

func (a action) eventType() string {
	switch a {
	case actionSubmit:
		return events.EventTypeRecordSubmitted
	case actionApprove:
		return events.EventTypeRecordApproved
	case actionReject:
		return events.EventTypeRecordRejected
	default:
		return events.EventTypeRecordClosed
	}
}

type gate int

const (
	gateOwner gate = iota
	gateDepartmentHead
	gateFinance
)

type edge struct {
	from, to RecordStatus
}

type rule struct {
	action action
	gate   gate
}

// Every pair missing from this table is an illegal transition.
var transitionTable = map[edge]rule{
	{StatusUnsubmitted, StatusPendingApproval}:        {actionSubmit, gateOwner},
	{StatusPendingApproval, StatusPendingFinance}:     {actionApprove, gateDepartmentHead},
	{StatusPendingApproval, StatusUnsubmitted}:        {actionReject, gateDepartmentHead},
	{StatusPendingFinance, StatusPendingDistribution}: {actionApprove, gateFinance},
	{StatusPendingFinance, StatusUnsubmitted}:         {actionReject, gateFinance},
	{StatusPendingDistribution, StatusClosed}:         {actionClose, gateFinance},
}

// Allowed reports whether from -> to is a legal transition for some actor.
func Allowed(from, to RecordStatus) bool {
	_, ok := transitionTable[edge{from, to}]
	return ok
}

// CheckTransition validates moving rec to target on behalf of actor without
// touching storage. ownerDepartmentID is the department of the record owner.
// Checks run in a fixed order: the pair, then the comment and content rules,
// then the actor's permission and department.
func CheckTransition(rec *Record, ownerDepartmentID int64, target RecordStatus, actor Actor, comment *string) error {
	_, err := checkTransition(rec, ownerDepartmentID, target, actor, comment)
	return err
}

func checkTransition(rec *Record, ownerDepartmentID int64, target RecordStatus, actor Actor, comment *string) (rule, error) {
	r, ok := transitionTable[edge{rec.Status, target}]
	if !ok {
		return rule{}, ErrIllegalTransition.WithMessage(fmt.Sprintf("cannot move record from %s to %s", rec.Status, target))
	}

	hasComment := comment != nil && strings.TrimSpace(*comment) != ""
	switch r.action {
	case actionReject:
		if !hasComment {
			return rule{}, ErrCommentRequired
		}
	default:
		if hasComment {
			return rule{}, ErrCommentNotAllowed
		}
	}
	if r.action == actionSubmit && len(rec.WorkDescs) == 0 {
		return rule{}, ErrIllegalTransition.WithMessage("cannot submit a record without work items")
	}

	switch r.gate {
	case gateOwner:
		if actor.UserID != rec.UserID || !actor.Has(PermQuery) {
			return rule{}, errors.ErrPermissionDenied
		}
	case gateDepartmentHead:
		if !actor.Has(PermCheckDepartment) || actor.DepartmentID != ownerDepartmentID {
			return rule{}, errors.ErrPermissionDenied
		}
	case gateFinance:
		if !actor.Has(PermGenerateTable) {
			return rule{}, errors.ErrPermissionDenied
		}
	}
	return r, nil
}

// Workflow owns every status change of a work hour record.
type Workflow struct {
	repo      RepositoryAPI
	users     UserDirectory
	publisher EventPublisher
	metrics   *Metrics
	logger    *slog.Logger
}

// NewWorkflow wires the record state machine. publisher and metrics may be nil.
func NewWorkflow(repo RepositoryAPI, users UserDirectory, publisher EventPublisher, metrics *Metrics, logger *slog.Logger) *Workflow {
	return &Workflow{
		repo:      repo,
		users:     users,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
	}
}

// Submit declares the caller's hours for a campaign. The record is created
// on first submission and may only be overwritten while Unsubmitted.
func (w *Workflow) Submit(ctx context.Context, campaignID int64, actor Actor, descs []WorkDesc) (int64, error) {
	cleaned, err := cleanWorkDescs(descs)
	if err != nil {
		return 0, err
	}
	if _, err := w.repo.GetCampaign(ctx, campaignID); err != nil {
		return 0, err
	}
	if !actor.Has(PermQuery) {
		w.logger.Warn("submit denied: insufficient permissions", "campaign_id", campaignID, "user_id", actor.UserID)
		return 0, errors.ErrPermissionDenied
	}

	row := RecordToDataModel(&Record{
		CampaignID: campaignID,
		UserID:     actor.UserID,
		WorkDescs:  cleaned,
		Status:     StatusPendingApproval,
	})
	if err := w.repo.SubmitRecord(ctx, row); err != nil {
		if stderrors.Is(err, ErrAlreadySubmitted) {
			w.logger.Warn("resubmission rejected", "campaign_id", campaignID, "user_id", actor.UserID)
		} else {
			w.logger.Error("failed to submit work hour record", "campaign_id", campaignID, "user_id", actor.UserID, "error", err)
		}
		return 0, err
	}

	w.logger.Info("work hour record submitted",
		"record_id", row.ID,
		"campaign_id", campaignID,
		"user_id", actor.UserID,
		"items", len(cleaned))

	w.metrics.observe(StatusPendingApproval, 1)
	w.publish(ctx, events.NewRecordTransitionEvent(events.EventTypeRecordSubmitted,
		row.ID, campaignID, actor.UserID, actor.UserID,
		int(StatusUnsubmitted), int(StatusPendingApproval), ""))
	return row.ID, nil
}

// Transition moves a single record to target.
func (w *Workflow) Transition(ctx context.Context, ref RecordRef, target RecordStatus, actor Actor, comment *string) error {
	row, err := w.loadRecord(ctx, ref)
	if err != nil {
		return err
	}
	owner, err := w.users.GetByID(ctx, row.UserID)
	if err != nil {
		if errors.IsNotFound(err) {
			return ErrUserNotFound
		}
		return err
	}

	rec := RecordFromDataModel(row)
	r, err := checkTransition(rec, owner.DepartmentID, target, actor, comment)
	if err != nil {
		w.logger.Warn("transition rejected",
			"record_id", rec.ID,
			"from", rec.Status.String(),
			"to", target.String(),
			"actor_id", actor.UserID,
			"error", err)
		return err
	}

	from := rec.Status
	next := *rec
	next.Status = target
	next.Comment = nil
	var note string
	if r.action == actionReject {
		note = strings.TrimSpace(*comment)
		next.Comment = &note
	}

	if err := w.repo.UpdateRecord(ctx, RecordToDataModel(&next), from); err != nil {
		if !stderrors.Is(err, ErrRecordChanged) {
			w.logger.Error("failed to update work hour record", "record_id", rec.ID, "error", err)
		}
		return err
	}

	w.logger.Info("work hour record transitioned",
		"record_id", rec.ID,
		"from", from.String(),
		"to", target.String(),
		"actor_id", actor.UserID)

	w.metrics.observe(target, 1)
	w.publish(ctx, events.NewRecordTransitionEvent(r.action.eventType(),
		rec.ID, rec.CampaignID, rec.UserID, actor.UserID, int(from), int(target), note))
	return nil
}

// SaveInclusions replaces the inclusion list of every listed record. All
// records are validated first and written in a single transaction.
func (w *Workflow) SaveInclusions(ctx context.Context, actor Actor, items []TableItem) error {
	if !actor.Has(PermGenerateTable) {
		w.logger.Warn("save inclusions denied: insufficient permissions", "actor_id", actor.UserID)
		return errors.ErrPermissionDenied
	}
	if len(items) == 0 {
		return nil
	}

	targets := make([]*workhourDatamodel.Record, 0, len(items))
	seen := make(map[int64]bool, len(items))
	var refIDs []int64
	for _, item := range items {
		if seen[item.RecordID] {
			return ErrInvalidInclusion.WithMessage(fmt.Sprintf("record %d is listed more than once", item.RecordID))
		}
		seen[item.RecordID] = true

		row, err := w.repo.GetRecord(ctx, item.RecordID)
		if err != nil {
			return err
		}
		for _, inc := range item.Includes {
			if inc.Hour == 0 {
				return ErrInvalidInclusion.WithMessage("included hours must be positive")
			}
			if inc.RecordID == item.RecordID {
				return ErrInvalidInclusion.WithMessage(fmt.Sprintf("record %d cannot include itself", item.RecordID))
			}
			refIDs = append(refIDs, inc.RecordID)
		}
		targets = append(targets, row)
	}

	refs, err := w.repo.GetRecordsByIDs(ctx, dedupe(refIDs))
	if err != nil {
		return err
	}
	campaignOf := make(map[int64]int64, len(refs))
	for _, ref := range refs {
		campaignOf[ref.ID] = ref.CampaignID
	}
	for i, item := range items {
		for _, inc := range item.Includes {
			if cid, ok := campaignOf[inc.RecordID]; !ok || cid != targets[i].CampaignID {
				return ErrInvalidInclusion.WithMessage(fmt.Sprintf("record %d is not part of the same campaign", inc.RecordID))
			}
		}
	}

	err = w.repo.WithinTx(ctx, func(repo RepositoryAPI) error {
		for i, item := range items {
			rec := RecordFromDataModel(targets[i])
			rec.Includes = append([]Include{}, item.Includes...)
			// status stays as read; a concurrent move surfaces as ErrRecordChanged
			if err := repo.UpdateRecord(ctx, RecordToDataModel(rec), rec.Status); err != nil {
				return fmt.Errorf("save inclusions for record %d: %w", rec.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		w.logger.Error("failed to save inclusions", "records", len(items), "error", err)
		return err
	}

	w.logger.Info("inclusions saved", "records", len(items), "actor_id", actor.UserID)
	for i, item := range items {
		w.publish(ctx, events.NewInclusionsSavedEvent(item.RecordID, targets[i].CampaignID, actor.UserID, len(item.Includes)))
	}
	return nil
}

// AcceptAll moves every PendingFinance record of a campaign to
// PendingDistribution.
func (w *Workflow) AcceptAll(ctx context.Context, campaignID int64, actor Actor) (int, error) {
	return w.bulk(ctx, campaignID, actor, StatusPendingFinance, StatusPendingDistribution)
}

// CloseAll moves every PendingDistribution record of a campaign to Closed.
func (w *Workflow) CloseAll(ctx context.Context, campaignID int64, actor Actor) (int, error) {
	return w.bulk(ctx, campaignID, actor, StatusPendingDistribution, StatusClosed)
}

// bulk is all-or-nothing: the first failing record rolls back the batch.
func (w *Workflow) bulk(ctx context.Context, campaignID int64, actor Actor, from, to RecordStatus) (int, error) {
	r := transitionTable[edge{from, to}]
	if !actor.Has(PermGenerateTable) {
		w.logger.Warn("bulk transition denied: insufficient permissions",
			"campaign_id", campaignID,
			"to", to.String(),
			"actor_id", actor.UserID)
		return 0, errors.ErrPermissionDenied
	}
	if _, err := w.repo.GetCampaign(ctx, campaignID); err != nil {
		return 0, err
	}

	var moved []*workhourDatamodel.Record
	err := w.repo.WithinTx(ctx, func(repo RepositoryAPI) error {
		status := from
		rows, _, err := repo.ListRecords(ctx, RecordFilter{CampaignID: campaignID, Status: &status})
		if err != nil {
			return err
		}
		for _, row := range rows {
			row.Status = int(to)
			row.Comment = nil
			if err := repo.UpdateRecord(ctx, row, from); err != nil {
				return fmt.Errorf("move record %d to %s: %w", row.ID, to, err)
			}
			moved = append(moved, row)
		}
		return nil
	})
	if err != nil {
		w.logger.Error("bulk transition rolled back",
			"campaign_id", campaignID,
			"to", to.String(),
			"error", err)
		return 0, err
	}

	w.logger.Info("bulk transition applied",
		"campaign_id", campaignID,
		"from", from.String(),
		"to", to.String(),
		"moved", len(moved),
		"actor_id", actor.UserID)

	w.metrics.observe(to, len(moved))
	for _, row := range moved {
		w.publish(ctx, events.NewRecordTransitionEvent(r.action.eventType(),
			row.ID, row.CampaignID, row.UserID, actor.UserID, int(from), int(to), ""))
	}
	return len(moved), nil
}

func (w *Workflow) loadRecord(ctx context.Context, ref RecordRef) (*workhourDatamodel.Record, error) {
	if ref.ID != 0 {
		return w.repo.GetRecord(ctx, ref.ID)
	}
	return w.repo.FindRecord(ctx, ref.CampaignID, ref.UserID)
}

func (w *Workflow) publish(ctx context.Context, evt events.Event) {
	if w.publisher == nil {
		return
	}
	if err := w.publisher.Publish(ctx, evt); err != nil {
		w.logger.Warn("failed to publish work hour event", "event_type", evt.EventType(), "error", err)
	}
}

func cleanWorkDescs(descs []WorkDesc) ([]WorkDesc, error) {
	if len(descs) == 0 {
		return nil, ErrEmptyWorkDescs
	}
	out := make([]WorkDesc, 0, len(descs))
	for _, d := range descs {
		desc := strings.TrimSpace(d.Desc)
		if desc == "" || d.Hour == 0 {
			return nil, ErrEmptyWorkDescs
		}
		out = append(out, WorkDesc{Desc: desc, Hour: d.Hour})
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
