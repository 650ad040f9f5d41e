package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StatsSnapshot is a periodic capture of the backend dashboard counts,
// taken by the scheduler so the dashboard can plot trends locally.
type StatsSnapshot struct {
	ID                  string    `gorm:"primaryKey" json:"id"`
	TotalWorks          int       `json:"total_works"`
	TotalAuthors        int       `json:"total_authors"`
	TotalTopics         int       `json:"total_topics"`
	TotalChunks         int       `json:"total_chunks"`
	ChunksWithoutVector int       `gorm:"column:chunks_without_vector" json:"chunks_without_vector"`
	TotalStudyNotes     int       `gorm:"column:total_study_notes" json:"total_study_notes"`
	NotesWithoutVector  int       `gorm:"column:notes_without_vector" json:"notes_without_vector"`
	TakenAt             time.Time `json:"taken_at"`
}

// BeforeCreate hook to generate UUID before creating record
func (s *StatsSnapshot) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for GORM
func (StatsSnapshot) TableName() string {
	return "stats_snapshots"
}
