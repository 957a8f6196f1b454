package models

import "github.com/google/uuid"

const (
	RoleOwner        = "owner"
	RoleCollaborator = "collaborator"
)

// Permission grants a user access to a project. The owner row is created
// together with the project; collaborator rows come from invitations.
type Permission struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"permissionId"`
	ProjectID uuid.UUID `gorm:"type:uuid;index" json:"projectId"`
	UserID    string    `gorm:"index" json:"userId"`
	Role      string    `json:"role"`
}
