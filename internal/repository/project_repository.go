package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"bim-viewer-service/internal/models"
)

// ProjectRepository defines database operations for projects.
type ProjectRepository interface {
	Create(project *models.Project) error
	GetByID(id uuid.UUID) (*models.Project, error)
	ListByIDs(ids []uuid.UUID) ([]models.Project, error)
	Update(project *models.Project) error
	Delete(id uuid.UUID) error
}

// ProjectRepositoryImpl provides methods to interact with the Project model in the database.
type ProjectRepositoryImpl struct {
	db *gorm.DB
}

// NewProjectRepository creates a new ProjectRepositoryImpl instance with the provided GORM database connection.
func NewProjectRepository(db *gorm.DB) *ProjectRepositoryImpl {
	return &ProjectRepositoryImpl{db: db}
}

// Create inserts a new Project into the database.
func (r *ProjectRepositoryImpl) Create(project *models.Project) error {
	return r.db.Create(project).Error
}

// GetByID retrieves a Project by its ID from the database.
func (r *ProjectRepositoryImpl) GetByID(id uuid.UUID) (*models.Project, error) {
	var project models.Project
	err := r.db.First(&project, "id = ?", id).Error
	return &project, err
}

// ListByIDs retrieves all Projects with the given IDs, newest first.
func (r *ProjectRepositoryImpl) ListByIDs(ids []uuid.UUID) ([]models.Project, error) {
	var projects []models.Project
	if len(ids) == 0 {
		return projects, nil
	}
	err := r.db.Where("id IN ?", ids).Order("created_at DESC").Find(&projects).Error
	return projects, err
}

// Update saves an existing Project in the database.
func (r *ProjectRepositoryImpl) Update(project *models.Project) error {
	return r.db.Save(project).Error
}

// Delete removes a Project by its ID from the database.
func (r *ProjectRepositoryImpl) Delete(id uuid.UUID) error {
	return r.db.Delete(&models.Project{}, "id = ?", id).Error
}
