package model

import "time"

// ImportJobStatus is the lifecycle state of a background CSV import.
type ImportJobStatus string

const (
	ImportJobQueued    ImportJobStatus = "queued"
	ImportJobRunning   ImportJobStatus = "running"
	ImportJobCompleted ImportJobStatus = "completed"
	ImportJobFailed    ImportJobStatus = "failed"
)

// ImportJob tracks a CSV import queued with ?async=true.
type ImportJob struct {
	ID               string          `json:"jobId"`
	Status           ImportJobStatus `json:"status"`
	FileName         string          `json:"fileName"`
	RecordsProcessed int64           `json:"recordsProcessed"`
	RowsSkipped      int             `json:"rowsSkipped"`
	Error            string          `json:"error,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// ImportJobAccepted is the 202 body of an async upload.
type ImportJobAccepted struct {
	JobID      string          `json:"jobId"`
	Status     ImportJobStatus `json:"status"`
	StatusLink string          `json:"statusLink"`
}
