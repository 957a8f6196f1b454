package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"bim-viewer-service/internal/models"
	"bim-viewer-service/internal/repository"
)

const (
	testUser     = "user-sub-1"
	testStranger = "user-sub-2"
)

func newIssueFixture(t *testing.T) (*IssueService, uuid.UUID) {
	t.Helper()
	permissions := newFakePermissionRepo()
	projectID := uuid.New()
	require.NoError(t, permissions.Create(&models.Permission{
		ID:        uuid.New(),
		ProjectID: projectID,
		UserID:    testUser,
		Role:      models.RoleOwner,
	}))
	return NewIssueService(newFakeIssueRepo(), permissions), projectID
}

func validInput(projectID uuid.UUID) CreateIssueInput {
	return CreateIssueInput{
		ProjectID:   projectID.String(),
		ObjectID:    "Basic Wall [312459]",
		Title:       "Crack in wall",
		Description: "Visible crack near the window",
		Priority:    models.IssuePriorityHigh,
		Author:      "Alex",
	}
}

func TestCreateIssue(t *testing.T) {
	svc, projectID := newIssueFixture(t)

	issue, err := svc.CreateIssue(testUser, validInput(projectID))
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, issue.ID)
	assert.Equal(t, projectID, issue.ProjectID)
	assert.Equal(t, models.IssueStatusOpen, issue.Status)
	assert.Equal(t, models.IssuePriorityHigh, issue.Priority)
	assert.Equal(t, "Crack in wall", issue.Title)
	assert.False(t, issue.CreatedAt.IsZero())

	issues, err := svc.ListIssues(testUser, projectID, repository.IssueFilter{})
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, issue.ID, issues[0].ID)
}

func TestCreateIssueDefaultsPriority(t *testing.T) {
	svc, projectID := newIssueFixture(t)
	input := validInput(projectID)
	input.Priority = ""

	issue, err := svc.CreateIssue(testUser, input)
	require.NoError(t, err)
	assert.Equal(t, models.IssuePriorityMedium, issue.Priority)
}

func TestCreateIssueValidation(t *testing.T) {
	svc, projectID := newIssueFixture(t)

	cases := map[string]func(*CreateIssueInput){
		"bad project id":    func(i *CreateIssueInput) { i.ProjectID = "not-a-uuid" },
		"empty title":       func(i *CreateIssueInput) { i.Title = "   " },
		"empty description": func(i *CreateIssueInput) { i.Description = "" },
		"empty object id":   func(i *CreateIssueInput) { i.ObjectID = "" },
		"empty author":      func(i *CreateIssueInput) { i.Author = "" },
		"bad priority":      func(i *CreateIssueInput) { i.Priority = "urgent" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			input := validInput(projectID)
			mutate(&input)
			_, err := svc.CreateIssue(testUser, input)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestCreateIssueDeniedWithoutPermission(t *testing.T) {
	svc, projectID := newIssueFixture(t)

	_, err := svc.CreateIssue(testStranger, validInput(projectID))
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestListIssuesFilters(t *testing.T) {
	svc, projectID := newIssueFixture(t)

	mk := func(objectID, priority string, age time.Duration) uuid.UUID {
		input := validInput(projectID)
		input.ObjectID = objectID
		input.Priority = priority
		issue, err := svc.CreateIssue(testUser, input)
		require.NoError(t, err)
		// Stagger creation times so ordering is deterministic.
		issue.CreatedAt = time.Now().UTC().Add(-age)
		require.NoError(t, svc.Repo.Update(issue))
		return issue.ID
	}
	oldWall := mk("wall-1", models.IssuePriorityLow, 2*time.Hour)
	newWall := mk("wall-1", models.IssuePriorityHigh, time.Hour)
	door := mk("door-7", models.IssuePriorityHigh, 0)

	all, err := svc.ListIssues(testUser, projectID, repository.IssueFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, door, all[0].ID)
	assert.Equal(t, newWall, all[1].ID)
	assert.Equal(t, oldWall, all[2].ID)

	walls, err := svc.ListIssues(testUser, projectID, repository.IssueFilter{ObjectID: "wall-1"})
	require.NoError(t, err)
	assert.Len(t, walls, 2)

	high, err := svc.ListIssues(testUser, projectID, repository.IssueFilter{ObjectID: "wall-1", Priority: models.IssuePriorityHigh})
	require.NoError(t, err)
	require.Len(t, high, 1)
	assert.Equal(t, newWall, high[0].ID)

	_, err = svc.ListIssues(testUser, projectID, repository.IssueFilter{Status: "done"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestListIssuesEmptyProject(t *testing.T) {
	svc, projectID := newIssueFixture(t)

	issues, err := svc.ListIssues(testUser, projectID, repository.IssueFilter{})
	require.NoError(t, err)
	assert.NotNil(t, issues)
	assert.Empty(t, issues)
}

func TestUpdateIssueStatusOnly(t *testing.T) {
	svc, projectID := newIssueFixture(t)
	created, err := svc.CreateIssue(testUser, validInput(projectID))
	require.NoError(t, err)

	updated, err := svc.UpdateIssueStatus(testUser, created.ID, models.IssueStatusResolved)
	require.NoError(t, err)

	assert.Equal(t, models.IssueStatusResolved, updated.Status)
	assert.Equal(t, created.Title, updated.Title)
	assert.Equal(t, created.Description, updated.Description)
	assert.Equal(t, created.Author, updated.Author)
	assert.Equal(t, created.Priority, updated.Priority)
	assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt))

	_, err = svc.UpdateIssueStatus(testUser, created.ID, "closed")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.UpdateIssueStatus(testUser, uuid.New(), models.IssueStatusOpen)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestDeleteIssue(t *testing.T) {
	svc, projectID := newIssueFixture(t)
	created, err := svc.CreateIssue(testUser, validInput(projectID))
	require.NoError(t, err)

	require.Error(t, svc.DeleteIssue(testStranger, created.ID))
	require.NoError(t, svc.DeleteIssue(testUser, created.ID))

	issues, err := svc.ListIssues(testUser, projectID, repository.IssueFilter{})
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestIssueStats(t *testing.T) {
	svc, projectID := newIssueFixture(t)

	for _, priority := range []string{models.IssuePriorityLow, models.IssuePriorityHigh, models.IssuePriorityHigh} {
		input := validInput(projectID)
		input.Priority = priority
		_, err := svc.CreateIssue(testUser, input)
		require.NoError(t, err)
	}
	issues, err := svc.ListIssues(testUser, projectID, repository.IssueFilter{})
	require.NoError(t, err)
	_, err = svc.UpdateIssueStatus(testUser, issues[0].ID, models.IssueStatusResolved)
	require.NoError(t, err)

	stats, err := svc.IssueStats(testUser, projectID)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.ByStatus[models.IssueStatusOpen])
	assert.Equal(t, 1, stats.ByStatus[models.IssueStatusResolved])
	assert.Equal(t, 0, stats.ByStatus[models.IssueStatusInProgress])
	assert.Equal(t, 1, stats.ByPriority[models.IssuePriorityLow])
	assert.Equal(t, 0, stats.ByPriority[models.IssuePriorityMedium])
	assert.Equal(t, 2, stats.ByPriority[models.IssuePriorityHigh])
}
