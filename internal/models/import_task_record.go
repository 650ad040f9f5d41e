package models

import (
	"time"
)

// ImportTaskRecord is the local history of bulk-import jobs observed on
// the server. The server owns the task; each polled snapshot overwrites
// this mirror so past imports stay inspectable offline.
type ImportTaskRecord struct {
	ID             int64      `gorm:"primaryKey" json:"id"` // server task ID
	WorkAcronym    string     `gorm:"column:work_acronym" json:"work_acronym"`
	Status         string     `gorm:"not null" json:"status"` // PENDING, PROCESSING, COMPLETED, FAILED
	TotalItems     int        `gorm:"not null;default:0" json:"total_items"`
	ProcessedItems int        `gorm:"not null;default:0" json:"processed_items"`
	CurrentLog     string     `gorm:"type:text" json:"current_log"`
	ErrorMessage   string     `gorm:"type:text" json:"error_message"`
	SubmittedAt    time.Time  `json:"submitted_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// TableName specifies the table name for GORM
func (ImportTaskRecord) TableName() string {
	return "import_task_records"
}
