package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ServerProfile stores a known Veritas backend plus the session token
// kept for it, encrypted at rest.
type ServerProfile struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"unique;not null" json:"name"`
	BaseURL   string    `gorm:"not null;column:base_url" json:"base_url"`
	TokenEnc  string    `gorm:"column:token_enc" json:"-"` // Encrypted, never expose in JSON
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate hook to generate UUID before creating record
func (p *ServerProfile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for GORM
func (ServerProfile) TableName() string {
	return "server_profiles"
}
