package workhour

type SaveCampaignDTO struct {
	Name    string  `json:"name" validate:"required,max=100"`
	EndTime string  `json:"endTime" validate:"required"`
	Status  int     `json:"status"`
	Comment *string `json:"comment" validate:"omitempty,max=255"`
}

type SubmitRecordDTO struct {
	WorkDescs []WorkDesc `json:"workDescs" validate:"required,min=1,dive"`
}

type TransitionDTO struct {
	Status  int     `json:"status"`
	Comment *string `json:"comment"`
}

// TableItem replaces the inclusion list of one record.
type TableItem struct {
	RecordID int64     `json:"id" validate:"gt=0"`
	Includes []Include `json:"includes" validate:"dive"`
}

type SaveTableDTO struct {
	Data []TableItem `json:"data" validate:"required,dive"`
}

// RecordRef locates a record by id, or by campaign and owner when ID is zero.
type RecordRef struct {
	ID         int64
	CampaignID int64
	UserID     int64
}

type RecordFilter struct {
	CampaignID   int64
	Status       *RecordStatus
	MinStatus    *RecordStatus
	DepartmentID *int64
	Limit        int
	Offset       int
}

// BulkResult reports how many records a bulk transition moved.
type BulkResult struct {
	Moved int `json:"moved"`
}
