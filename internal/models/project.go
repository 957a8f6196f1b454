package models

import (
	"time"

	"github.com/google/uuid"
)

// Project represents an uploaded BIM model and its ownership metadata.
// ModelURL is never persisted; it carries a fresh presigned download URL
// generated at read time.
type Project struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"projectId"`
	Name          string    `gorm:"not null" json:"projectName"`
	ModelKey      string    `gorm:"not null" json:"-"`
	CompressedKey string    `json:"-"`
	ModelSize     int64     `json:"modelSize"`
	OwnerID       string    `gorm:"index" json:"ownerId"`
	CreatedAt     time.Time `json:"createdAt"`

	ModelURL string `gorm:"-" json:"modelUrl,omitempty"`
}
