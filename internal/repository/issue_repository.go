package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"bim-viewer-service/internal/models"
)

// IssueFilter narrows issue listings. Empty fields match everything.
type IssueFilter struct {
	ObjectID string
	Status   string
	Priority string
}

// IssueRepository defines database operations for issues.
type IssueRepository interface {
	Create(issue *models.Issue) error
	GetByID(id uuid.UUID) (*models.Issue, error)
	ListByProject(projectID uuid.UUID, filter IssueFilter) ([]models.Issue, error)
	Update(issue *models.Issue) error
	Delete(id uuid.UUID) error
	DeleteByProject(projectID uuid.UUID) error
}

// IssueRepositoryImpl provides methods to interact with the Issue model in the database.
type IssueRepositoryImpl struct {
	db *gorm.DB
}

// NewIssueRepository creates a new IssueRepositoryImpl instance with the provided GORM database connection.
func NewIssueRepository(db *gorm.DB) *IssueRepositoryImpl {
	return &IssueRepositoryImpl{db: db}
}

// Create inserts a new Issue into the database.
func (r *IssueRepositoryImpl) Create(issue *models.Issue) error {
	return r.db.Create(issue).Error
}

// GetByID retrieves an Issue by its ID from the database.
func (r *IssueRepositoryImpl) GetByID(id uuid.UUID) (*models.Issue, error) {
	var issue models.Issue
	err := r.db.First(&issue, "id = ?", id).Error
	return &issue, err
}

// ListByProject retrieves all Issues for a project matching the filter, newest first.
func (r *IssueRepositoryImpl) ListByProject(projectID uuid.UUID, filter IssueFilter) ([]models.Issue, error) {
	var issues []models.Issue
	q := r.db.Where("project_id = ?", projectID)
	if filter.ObjectID != "" {
		q = q.Where("object_id = ?", filter.ObjectID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Priority != "" {
		q = q.Where("priority = ?", filter.Priority)
	}
	err := q.Order("created_at DESC").Find(&issues).Error
	return issues, err
}

// Update saves an existing Issue in the database.
func (r *IssueRepositoryImpl) Update(issue *models.Issue) error {
	return r.db.Save(issue).Error
}

// Delete removes an Issue by its ID from the database.
func (r *IssueRepositoryImpl) Delete(id uuid.UUID) error {
	return r.db.Delete(&models.Issue{}, "id = ?", id).Error
}

// DeleteByProject removes all Issues attached to a project.
func (r *IssueRepositoryImpl) DeleteByProject(projectID uuid.UUID) error {
	return r.db.Delete(&models.Issue{}, "project_id = ?", projectID).Error
}
