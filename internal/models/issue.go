package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	IssueStatusOpen       = "open"
	IssueStatusInProgress = "in-progress"
	IssueStatusResolved   = "resolved"

	IssuePriorityLow    = "low"
	IssuePriorityMedium = "medium"
	IssuePriorityHigh   = "high"
)

// Issue is an annotation attached to a project and, informally, to one
// model part via ObjectID. ObjectID is free-form: it is derived from
// scene-graph node identity and is not guaranteed stable across re-exports
// of the same model.
type Issue struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID   uuid.UUID `gorm:"type:uuid;index" json:"projectId"`
	ObjectID    string    `gorm:"index" json:"objectId"`
	Title       string    `gorm:"not null" json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Priority    string    `json:"priority"`
	Author      string    `json:"author"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ValidIssueStatus reports whether s is one of the allowed status values.
func ValidIssueStatus(s string) bool {
	switch s {
	case IssueStatusOpen, IssueStatusInProgress, IssueStatusResolved:
		return true
	}
	return false
}

// ValidIssuePriority reports whether p is one of the allowed priority values.
func ValidIssuePriority(p string) bool {
	switch p {
	case IssuePriorityLow, IssuePriorityMedium, IssuePriorityHigh:
		return true
	}
	return false
}
