package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"bim-viewer-service/internal/auth"
	"bim-viewer-service/internal/repository"
	"bim-viewer-service/internal/services"
)

// IssueHandler defines handlers for issue tracking routes.
type IssueHandler struct {
	Service *services.IssueService
}

// NewIssueHandler creates a new IssueHandler with the given IssueService.
func NewIssueHandler(service *services.IssueService) *IssueHandler {
	return &IssueHandler{Service: service}
}

// CreateIssue handles POST /issues to report an issue on a model object.
// @Summary Create an issue
// @Description Report an issue anchored to one object of a project's model
// @Tags issues
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateIssueInput true "Issue fields"
// @Success 201 {object} models.Issue "Issue successfully created"
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Failure 404 {object} map[string]interface{} "Project not found"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /issues [post]
func (h *IssueHandler) CreateIssue(c *fiber.Ctx) error {
	var input services.CreateIssueInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": true, "message": "invalid request body",
		})
	}
	issue, err := h.Service.CreateIssue(auth.UserID(c), input)
	if err != nil {
		return issueError(c, err)
	}
	log.Printf("Successfully created issue %s on project %s", issue.ID, issue.ProjectID)
	return c.Status(fiber.StatusCreated).JSON(issue)
}

// ListIssues handles GET /issues to list a project's issues.
// @Summary List issues
// @Description List a project's issues, newest first, optionally filtered by object, status or priority
// @Tags issues
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param projectId query string true "Project ID"
// @Param objectId query string false "Filter by object ID"
// @Param status query string false "Filter by status (open, in-progress, resolved)"
// @Param priority query string false "Filter by priority (low, medium, high)"
// @Success 200 {array} models.Issue "List of issues"
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Failure 404 {object} map[string]interface{} "Project not found"
// @Router /issues [get]
func (h *IssueHandler) ListIssues(c *fiber.Ctx) error {
	projectID, err := uuid.Parse(c.Query("projectId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": true, "message": "projectId query parameter must be a valid UUID",
		})
	}
	filter := repository.IssueFilter{
		ObjectID: c.Query("objectId"),
		Status:   c.Query("status"),
		Priority: c.Query("priority"),
	}
	issues, err := h.Service.ListIssues(auth.UserID(c), projectID, filter)
	if err != nil {
		return issueError(c, err)
	}
	return c.JSON(issues)
}

// UpdateIssue handles PUT /issues/:id to change an issue's status.
// @Summary Update an issue's status
// @Description Move an issue between open, in-progress and resolved. Other fields are immutable.
// @Tags issues
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Issue ID"
// @Param body body object{status=string} true "New status"
// @Success 200 {object} models.Issue "Updated issue"
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Failure 404 {object} map[string]interface{} "Issue not found"
// @Router /issues/{id} [put]
func (h *IssueHandler) UpdateIssue(c *fiber.Ctx) error {
	issueID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": true, "message": InvalidUuidError,
		})
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": true, "message": "invalid request body",
		})
	}
	issue, err := h.Service.UpdateIssueStatus(auth.UserID(c), issueID, req.Status)
	if err != nil {
		return issueError(c, err)
	}
	log.Printf("Successfully updated issue %s to status %s", issue.ID, issue.Status)
	return c.JSON(issue)
}

// DeleteIssue handles DELETE /issues/:id to remove an issue.
// @Summary Delete an issue
// @Description Remove one issue from its project
// @Tags issues
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Issue ID"
// @Success 200 {object} map[string]interface{} "Deletion confirmation"
// @Failure 400 {object} map[string]interface{} "Invalid UUID"
// @Failure 404 {object} map[string]interface{} "Issue not found"
// @Router /issues/{id} [delete]
func (h *IssueHandler) DeleteIssue(c *fiber.Ctx) error {
	issueID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": true, "message": InvalidUuidError,
		})
	}
	if err := h.Service.DeleteIssue(auth.UserID(c), issueID); err != nil {
		return issueError(c, err)
	}
	log.Printf("Successfully deleted issue %s", issueID)
	return c.JSON(fiber.Map{"message": "issue deleted successfully"})
}

// IssueStats handles GET /issues/stats to summarize a project's issues.
// @Summary Issue statistics
// @Description Count a project's issues by status and by priority
// @Tags issues
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param projectId query string true "Project ID"
// @Success 200 {object} services.IssueStats "Issue counts"
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Failure 404 {object} map[string]interface{} "Project not found"
// @Router /issues/stats [get]
func (h *IssueHandler) IssueStats(c *fiber.Ctx) error {
	projectID, err := uuid.Parse(c.Query("projectId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": true, "message": "projectId query parameter must be a valid UUID",
		})
	}
	stats, err := h.Service.IssueStats(auth.UserID(c), projectID)
	if err != nil {
		return issueError(c, err)
	}
	return c.JSON(stats)
}

func issueError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": true, "message": err.Error(),
		})
	case errors.Is(err, services.ErrAccessDenied):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": true, "message": ProjectNotFoundError,
		})
	case errors.Is(err, gorm.ErrRecordNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": true, "message": "issue not found",
		})
	}
	log.Printf("Issue operation failed: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": true, "message": err.Error(),
	})
}
