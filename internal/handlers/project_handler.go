package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"bim-viewer-service/internal/auth"
	"bim-viewer-service/internal/services"
)

const InvalidUuidError = "invalid UUID"
const ProjectNotFoundError = "project not found"

// ProjectHandler defines handlers for managing BIM projects.
type ProjectHandler struct {
	Service *services.ProjectService
}

// NewProjectHandler creates a new ProjectHandler with the given ProjectService.
func NewProjectHandler(service *services.ProjectService) *ProjectHandler {
	return &ProjectHandler{Service: service}
}

// ListProjects handles GET /projects to retrieve the caller's projects.
// @Summary List projects
// @Description Gets all projects the authenticated user can access, newest first, with fresh model URLs
// @Tags projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Project "List of projects"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /projects [get]
func (h *ProjectHandler) ListProjects(c *fiber.Ctx) error {
	userID := auth.UserID(c)
	projects, err := h.Service.ListProjects(c.Context(), userID)
	if err != nil {
		log.Printf("Error listing projects for user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": true, "message": err.Error(),
		})
	}
	log.Printf("Successfully listed %d projects for user %s", len(projects), userID)
	return c.JSON(projects)
}

// GetProject handles GET /projects/:id to retrieve a single project.
// @Summary Get a project by ID
// @Description Get one project with a fresh presigned model URL
// @Tags projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Success 200 {object} models.Project "Project found"
// @Failure 400 {object} map[string]interface{} "Invalid UUID"
// @Failure 404 {object} map[string]interface{} "Project not found"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /projects/{id} [get]
func (h *ProjectHandler) GetProject(c *fiber.Ctx) error {
	projectID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": true, "message": InvalidUuidError,
		})
	}
	project, err := h.Service.GetProject(c.Context(), auth.UserID(c), projectID)
	if err != nil {
		return projectError(c, projectID, err)
	}
	return c.JSON(project)
}

// CreateProject handles POST /projects to upload a model and create a project.
// @Summary Create a project
// @Description Upload a .glb model (or a .zip bundle containing one) and create a project owned by the caller
// @Tags projects
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param projectName formData string true "Project display name"
// @Param model formData file true "Model file (.glb, or .zip bundle)"
// @Success 201 {object} models.Project "Project successfully created"
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /projects [post]
func (h *ProjectHandler) CreateProject(c *fiber.Ctx) error {
	userID := auth.UserID(c)
	projectName := c.FormValue("projectName")
	fileHeader, err := c.FormFile("model")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": true, "message": "request must include 'model' file and 'projectName' form field",
		})
	}
	log.Printf("Processing model upload: %s (%d bytes) for user %s", fileHeader.Filename, fileHeader.Size, userID)

	project, err := h.Service.CreateProject(c.Context(), userID, projectName, fileHeader)
	if err != nil {
		if errors.Is(err, services.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": true, "message": err.Error(),
			})
		}
		log.Printf("Project creation failed for user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": true, "message": err.Error(),
		})
	}
	log.Printf("Successfully created project: ID=%s, Name=%s", project.ID, project.Name)
	return c.Status(fiber.StatusCreated).JSON(project)
}

// RenameProject handles PUT /projects/:id to rename a project.
// @Summary Rename a project
// @Description Change a project's display name (owner only)
// @Tags projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Param body body object{projectName=string} true "New name"
// @Success 200 {object} models.Project "Updated project"
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Failure 403 {object} map[string]interface{} "Not the owner"
// @Failure 404 {object} map[string]interface{} "Project not found"
// @Router /projects/{id} [put]
func (h *ProjectHandler) RenameProject(c *fiber.Ctx) error {
	projectID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": true, "message": InvalidUuidError,
		})
	}
	var req struct {
		ProjectName string `json:"projectName"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": true, "message": "invalid request body",
		})
	}
	project, err := h.Service.RenameProject(auth.UserID(c), projectID, req.ProjectName)
	if err != nil {
		return projectError(c, projectID, err)
	}
	log.Printf("Successfully renamed project %s to %q", projectID, project.Name)
	return c.JSON(project)
}

// DeleteProject handles DELETE /projects/:id to remove a project.
// @Summary Delete a project
// @Description Delete a project, its issues, its permissions and its stored model files (owner only)
// @Tags projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Success 200 {object} map[string]interface{} "Deletion confirmation"
// @Failure 400 {object} map[string]interface{} "Invalid UUID"
// @Failure 403 {object} map[string]interface{} "Not the owner"
// @Failure 404 {object} map[string]interface{} "Project not found"
// @Router /projects/{id} [delete]
func (h *ProjectHandler) DeleteProject(c *fiber.Ctx) error {
	projectID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": true, "message": InvalidUuidError,
		})
	}
	if err := h.Service.DeleteProject(c.Context(), auth.UserID(c), projectID); err != nil {
		return projectError(c, projectID, err)
	}
	log.Printf("Successfully deleted project %s", projectID)
	return c.JSON(fiber.Map{"message": "project deleted successfully"})
}

// InviteUser handles POST /projects/:id/invite to add a collaborator.
// @Summary Invite a collaborator
// @Description Grant project access to the user registered under the given email (owner only)
// @Tags projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Param body body object{email=string} true "Invitee email"
// @Success 200 {object} map[string]interface{} "Invitation confirmation"
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Failure 403 {object} map[string]interface{} "Not the owner"
// @Failure 404 {object} map[string]interface{} "Project not found"
// @Router /projects/{id}/invite [post]
func (h *ProjectHandler) InviteUser(c *fiber.Ctx) error {
	projectID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": true, "message": InvalidUuidError,
		})
	}
	var req struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": true, "message": "invalid request body",
		})
	}
	if err := h.Service.InviteUser(c.Context(), auth.UserID(c), projectID, req.Email); err != nil {
		return projectError(c, projectID, err)
	}
	log.Printf("Successfully invited %s to project %s", req.Email, projectID)
	return c.JSON(fiber.Map{"message": "successfully invited " + req.Email + " to the project"})
}

// InspectObject handles POST /projects/:id/inspect to resolve a clicked
// scene node into its Object Record.
// @Summary Inspect a model object
// @Description Produce the flat attribute record for one scene node of the project's model
// @Tags projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Param body body object{nodeIndex=int} true "Scene node index"
// @Success 200 {object} map[string]interface{} "Object record"
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Failure 404 {object} map[string]interface{} "Project or node not found"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /projects/{id}/inspect [post]
func (h *ProjectHandler) InspectObject(c *fiber.Ctx) error {
	projectID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": true, "message": InvalidUuidError,
		})
	}
	var req struct {
		NodeIndex int `json:"nodeIndex"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": true, "message": "invalid request body",
		})
	}
	record, err := h.Service.InspectObject(c.Context(), auth.UserID(c), projectID, req.NodeIndex)
	if err != nil {
		if errors.Is(err, services.ErrNodeNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": true, "message": err.Error(),
			})
		}
		return projectError(c, projectID, err)
	}
	return c.JSON(record)
}

// projectError maps service errors to HTTP responses, shared across the
// project routes.
func projectError(c *fiber.Ctx, projectID uuid.UUID, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": true, "message": err.Error(),
		})
	case errors.Is(err, services.ErrAccessDenied), errors.Is(err, gorm.ErrRecordNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": true, "message": ProjectNotFoundError,
		})
	case errors.Is(err, services.ErrNotOwner):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": true, "message": err.Error(),
		})
	}
	log.Printf("Project operation failed: ID=%s, Error=%v", projectID, err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": true, "message": err.Error(),
	})
}
