package services

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"bim-viewer-service/internal/metrics"
	"bim-viewer-service/internal/models"
	"bim-viewer-service/internal/repository"
)

// IssueService provides issue tracking scoped to projects the caller can
// access.
type IssueService struct {
	Repo        repository.IssueRepository
	Permissions repository.PermissionRepository
}

// NewIssueService creates a new IssueService with the given repositories.
func NewIssueService(repo repository.IssueRepository, permissions repository.PermissionRepository) *IssueService {
	return &IssueService{Repo: repo, Permissions: permissions}
}

// CreateIssueInput carries the client-supplied fields of a new issue.
type CreateIssueInput struct {
	ProjectID   string `json:"projectId"`
	ObjectID    string `json:"objectId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	Author      string `json:"author"`
}

// IssueStats aggregates issue counts for a project.
type IssueStats struct {
	Total      int            `json:"total"`
	ByStatus   map[string]int `json:"by_status"`
	ByPriority map[string]int `json:"by_priority"`
}

// CreateIssue validates and stores a new issue. Status always starts open;
// priority defaults to medium.
func (s *IssueService) CreateIssue(userID string, input CreateIssueInput) (*models.Issue, error) {
	projectID, err := uuid.Parse(input.ProjectID)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidInput, "projectId must be a valid UUID")
	}
	for field, value := range map[string]string{
		"title":       input.Title,
		"description": input.Description,
		"objectId":    input.ObjectID,
		"author":      input.Author,
	} {
		if strings.TrimSpace(value) == "" {
			return nil, errors.Wrapf(ErrInvalidInput, "missing or empty field: %s", field)
		}
	}
	priority := input.Priority
	if priority == "" {
		priority = models.IssuePriorityMedium
	}
	if !models.ValidIssuePriority(priority) {
		return nil, errors.Wrap(ErrInvalidInput, "priority must be 'low', 'medium', or 'high'")
	}

	if err := s.checkAccess(projectID, userID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	issue := &models.Issue{
		ID:          uuid.New(),
		ProjectID:   projectID,
		ObjectID:    strings.TrimSpace(input.ObjectID),
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Status:      models.IssueStatusOpen,
		Priority:    priority,
		Author:      strings.TrimSpace(input.Author),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Repo.Create(issue); err != nil {
		return nil, errors.Wrap(err, "failed to save issue")
	}
	metrics.IssuesCreatedTotal.Inc()
	return issue, nil
}

// ListIssues returns a project's issues matching the filter, newest first.
// No matches is an empty list, never an error.
func (s *IssueService) ListIssues(userID string, projectID uuid.UUID, filter repository.IssueFilter) ([]models.Issue, error) {
	if filter.Status != "" && !models.ValidIssueStatus(filter.Status) {
		return nil, errors.Wrap(ErrInvalidInput, "invalid status filter")
	}
	if filter.Priority != "" && !models.ValidIssuePriority(filter.Priority) {
		return nil, errors.Wrap(ErrInvalidInput, "invalid priority filter")
	}
	if err := s.checkAccess(projectID, userID); err != nil {
		return nil, err
	}
	issues, err := s.Repo.ListByProject(projectID, filter)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list issues")
	}
	if issues == nil {
		issues = []models.Issue{}
	}
	return issues, nil
}

// UpdateIssueStatus changes the status of one issue and nothing else.
// Title, description and author are immutable after creation.
func (s *IssueService) UpdateIssueStatus(userID string, id uuid.UUID, status string) (*models.Issue, error) {
	if !models.ValidIssueStatus(status) {
		return nil, errors.Wrap(ErrInvalidInput, "status must be 'open', 'in-progress', or 'resolved'")
	}
	issue, err := s.Repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if err := s.checkAccess(issue.ProjectID, userID); err != nil {
		return nil, err
	}
	issue.Status = status
	issue.UpdatedAt = time.Now().UTC()
	if err := s.Repo.Update(issue); err != nil {
		return nil, errors.Wrap(err, "failed to update issue")
	}
	return issue, nil
}

// DeleteIssue removes one issue.
func (s *IssueService) DeleteIssue(userID string, id uuid.UUID) error {
	issue, err := s.Repo.GetByID(id)
	if err != nil {
		return err
	}
	if err := s.checkAccess(issue.ProjectID, userID); err != nil {
		return err
	}
	return s.Repo.Delete(id)
}

// IssueStats aggregates counts by status and priority for one project.
func (s *IssueService) IssueStats(userID string, projectID uuid.UUID) (*IssueStats, error) {
	issues, err := s.ListIssues(userID, projectID, repository.IssueFilter{})
	if err != nil {
		return nil, err
	}
	stats := &IssueStats{
		Total: len(issues),
		ByStatus: map[string]int{
			models.IssueStatusOpen:       0,
			models.IssueStatusInProgress: 0,
			models.IssueStatusResolved:   0,
		},
		ByPriority: map[string]int{
			models.IssuePriorityLow:    0,
			models.IssuePriorityMedium: 0,
			models.IssuePriorityHigh:   0,
		},
	}
	for _, issue := range issues {
		if _, ok := stats.ByStatus[issue.Status]; ok {
			stats.ByStatus[issue.Status]++
		}
		if _, ok := stats.ByPriority[issue.Priority]; ok {
			stats.ByPriority[issue.Priority]++
		}
	}
	return stats, nil
}

func (s *IssueService) checkAccess(projectID uuid.UUID, userID string) error {
	if _, err := s.Permissions.Get(projectID, userID); err != nil {
		return ErrAccessDenied
	}
	return nil
}
