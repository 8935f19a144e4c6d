package events

const (
	EventTypeRecordSubmitted = "workhour.record.submitted"
	EventTypeRecordApproved  = "workhour.record.approved"
	EventTypeRecordRejected  = "workhour.record.rejected"
	EventTypeRecordClosed    = "workhour.record.closed"
	EventTypeInclusionsSaved = "workhour.record.inclusions_saved"
)

// TransitionEventTypes lists every event emitted by the record workflow.
var TransitionEventTypes = []string{
	EventTypeRecordSubmitted,
	EventTypeRecordApproved,
	EventTypeRecordRejected,
	EventTypeRecordClosed,
	EventTypeInclusionsSaved,
}

type RecordTransitionEvent struct {
	BaseEvent
	RecordID   int64  `json:"record_id"`
	CampaignID int64  `json:"campaign_id"`
	UserID     int64  `json:"user_id"`
	ActorID    int64  `json:"actor_id"`
	From       int    `json:"from"`
	To         int    `json:"to"`
	Comment    string `json:"comment,omitempty"`
}

func NewRecordTransitionEvent(eventType string, recordID, campaignID, userID, actorID int64, from, to int, comment string) *RecordTransitionEvent {
	return &RecordTransitionEvent{
		BaseEvent: newBaseEvent(eventType, map[string]any{
			"record_id":   recordID,
			"campaign_id": campaignID,
			"user_id":     userID,
			"actor_id":    actorID,
			"from":        from,
			"to":          to,
			"comment":     comment,
		}),
		RecordID:   recordID,
		CampaignID: campaignID,
		UserID:     userID,
		ActorID:    actorID,
		From:       from,
		To:         to,
		Comment:    comment,
	}
}

type InclusionsSavedEvent struct {
	BaseEvent
	RecordID   int64 `json:"record_id"`
	CampaignID int64 `json:"campaign_id"`
	ActorID    int64 `json:"actor_id"`
	Included   int   `json:"included"`
}

func NewInclusionsSavedEvent(recordID, campaignID, actorID int64, included int) *InclusionsSavedEvent {
	return &InclusionsSavedEvent{
		BaseEvent: newBaseEvent(EventTypeInclusionsSaved, map[string]any{
			"record_id":   recordID,
			"campaign_id": campaignID,
			"actor_id":    actorID,
			"included":    included,
		}),
		RecordID:   recordID,
		CampaignID: campaignID,
		ActorID:    actorID,
		Included:   included,
	}
}
