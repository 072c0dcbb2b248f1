package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"pmts-access/app/domain"
	"pmts-access/app/port"
	"pmts-access/app/view"
)

// ProjectHandler serves the project and department listings. Rows pass
// through the view composer so monetary fields never reach a staff
// client, whatever the store returned.
type ProjectHandler struct {
	projects port.ProjectStore
	sessions port.SessionReader
	roles    port.RoleReader
	composer *view.Composer
	logger   *slog.Logger
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(
	projects port.ProjectStore,
	sessions port.SessionReader,
	roles port.RoleReader,
	composer *view.Composer,
	logger *slog.Logger,
) *ProjectHandler {
	return &ProjectHandler{
		projects: projects,
		sessions: sessions,
		roles:    roles,
		composer: composer,
		logger:   logger.With("component", "project_handler"),
	}
}

// ListProjects handles GET /v1/projects with search, status,
// department_id and mine query filters
func (h *ProjectHandler) ListProjects(c echo.Context) error {
	ctx := c.Request().Context()
	snap := h.sessions.Snapshot()

	filter := domain.ProjectFilter{
		Search: c.QueryParam("search"),
	}

	if raw := c.QueryParam("status"); raw != "" {
		status := domain.ProjectStatus(raw)
		if !status.Valid() {
			return c.JSON(http.StatusBadRequest, ErrorResponse{
				Error: "unknown project status: " + raw,
				Code:  "INVALID_INPUT",
			})
		}
		filter.Status = status
	}

	if raw := c.QueryParam("department_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{
				Error: "department_id must be an integer",
				Code:  "INVALID_INPUT",
			})
		}
		filter.DepartmentID = id
	}

	if c.QueryParam("mine") == "true" {
		filter.CreatedBy = snap.SubjectID()
	}

	role, err := h.roles.Wait(ctx, snap.SubjectID())
	if err != nil {
		return nil
	}

	projects, err := h.projects.FetchProjects(ctx, filter)
	if err != nil {
		h.logger.Error("project listing failed", "error", err)
		return respondError(c, h.logger, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"variant":  h.composer.VariantFor(role),
		"projects": h.composer.ComposeProjects(role, projects),
	})
}

// ListDepartments handles GET /v1/departments. The route is guarded to
// executive and admin, so the composed rows keep their totals.
func (h *ProjectHandler) ListDepartments(c echo.Context) error {
	ctx := c.Request().Context()
	snap := h.sessions.Snapshot()

	role, err := h.roles.Wait(ctx, snap.SubjectID())
	if err != nil {
		return nil
	}

	departments, err := h.projects.FetchDepartments(ctx)
	if err != nil {
		h.logger.Error("department listing failed", "error", err)
		return respondError(c, h.logger, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"departments": h.composer.ComposeDepartments(role, departments),
	})
}
