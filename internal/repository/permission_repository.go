package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"bim-viewer-service/internal/models"
)

// PermissionRepository defines database operations for project permissions.
type PermissionRepository interface {
	Create(permission *models.Permission) error
	Get(projectID uuid.UUID, userID string) (*models.Permission, error)
	ListByUser(userID string) ([]models.Permission, error)
	DeleteByProject(projectID uuid.UUID) error
}

// PermissionRepositoryImpl provides methods to interact with the Permission model in the database.
type PermissionRepositoryImpl struct {
	db *gorm.DB
}

// NewPermissionRepository creates a new PermissionRepositoryImpl instance with the provided GORM database connection.
func NewPermissionRepository(db *gorm.DB) *PermissionRepositoryImpl {
	return &PermissionRepositoryImpl{db: db}
}

// Create inserts a new Permission into the database.
func (r *PermissionRepositoryImpl) Create(permission *models.Permission) error {
	return r.db.Create(permission).Error
}

// Get retrieves the Permission a user holds on a project, if any.
func (r *PermissionRepositoryImpl) Get(projectID uuid.UUID, userID string) (*models.Permission, error) {
	var permission models.Permission
	err := r.db.First(&permission, "project_id = ? AND user_id = ?", projectID, userID).Error
	return &permission, err
}

// ListByUser retrieves all Permissions held by a user.
func (r *PermissionRepositoryImpl) ListByUser(userID string) ([]models.Permission, error) {
	var permissions []models.Permission
	err := r.db.Find(&permissions, "user_id = ?", userID).Error
	return permissions, err
}

// DeleteByProject removes all Permissions attached to a project.
func (r *PermissionRepositoryImpl) DeleteByProject(projectID uuid.UUID) error {
	return r.db.Delete(&models.Permission{}, "project_id = ?", projectID).Error
}
