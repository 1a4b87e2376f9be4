package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	StatusCompleted  = "completed"
	StatusDownloaded = "downloaded"
)

// Document is a generated proposal kept for download until retention expires.
type Document struct {
	ID           string         `gorm:"primaryKey;size:191" json:"id"`
	ProposalType string         `gorm:"size:191;not null;index" json:"proposal_type"`
	ClientName   string         `json:"client_name"`
	Filename     string         `gorm:"not null" json:"filename"`
	StoragePath  string         `gorm:"not null" json:"storage_path"`
	FileSize     int64          `json:"file_size"`
	MimeType     string         `json:"mime_type"`
	Landscape    bool           `json:"landscape"`
	Data         string         `gorm:"type:json" json:"data"`     // placeholder values used
	Warnings     string         `gorm:"type:json" json:"warnings"` // JSON array
	Status       string         `gorm:"size:32;default:'completed'" json:"status"`
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Document) TableName() string {
	return "proposal_documents"
}
