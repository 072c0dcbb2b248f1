package handlers

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"pmts-access/app/domain"
	"pmts-access/app/guard"
	"pmts-access/app/port"
	"pmts-access/app/view"
)

// DashboardHandler renders the role-differentiated dashboard. The
// executive variant carries cross-department aggregates and totals; the
// staff variant sees its own projects with monetary fields redacted by
// the view composer.
type DashboardHandler struct {
	projects port.ProjectStore
	sessions port.SessionReader
	roles    port.RoleReader
	guard    *guard.Guard
	composer *view.Composer
	logger   *slog.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(
	projects port.ProjectStore,
	sessions port.SessionReader,
	roles port.RoleReader,
	g *guard.Guard,
	composer *view.Composer,
	logger *slog.Logger,
) *DashboardHandler {
	return &DashboardHandler{
		projects: projects,
		sessions: sessions,
		roles:    roles,
		guard:    g,
		composer: composer,
		logger:   logger.With("component", "dashboard_handler"),
	}
}

// Dashboard handles GET /v1/dashboard. Route access is already settled
// by the guard middleware; what remains is variant selection and the
// in-place gate on the department aggregates panel.
func (h *DashboardHandler) Dashboard(c echo.Context) error {
	ctx := c.Request().Context()
	snap := h.sessions.Snapshot()
	subjectID := snap.SubjectID()

	role, err := h.roles.Wait(ctx, subjectID)
	if err != nil {
		// Caller gone before the role resolved.
		return nil
	}

	variant := h.composer.VariantFor(role)
	response := map[string]interface{}{
		"variant": variant,
	}

	stats, err := h.projects.FetchDashboardStats(ctx)
	if err != nil {
		h.logger.Error("dashboard stats fetch failed", "error", err)
		return respondError(c, h.logger, err)
	}
	response["stats"] = h.composer.ComposeStats(role, *stats)

	// Department aggregates are an in-place gated panel: staff keep the
	// rest of the dashboard and see a restricted placeholder instead.
	decision, err := h.guard.WaitSection(ctx, domain.RoleExecutive, domain.RoleAdmin)
	if err != nil {
		return nil
	}
	if decision.Granted() {
		departments, err := h.projects.FetchDepartments(ctx)
		if err != nil {
			h.logger.Error("department aggregates fetch failed", "error", err)
			return respondError(c, h.logger, err)
		}
		response["departments"] = h.composer.ComposeDepartments(role, departments)
	} else {
		response["departments_restricted"] = map[string]interface{}{
			"required_roles": roleNames(decision.RequiredRoles),
		}
	}

	if variant == view.VariantStaff {
		own, err := h.projects.FetchProjects(ctx, domain.ProjectFilter{CreatedBy: subjectID})
		if err != nil {
			h.logger.Error("own projects fetch failed", "error", err)
			return respondError(c, h.logger, err)
		}
		response["my_projects"] = h.composer.ComposeProjects(role, own)
	}

	return c.JSON(http.StatusOK, response)
}

func roleNames(roles []domain.Role) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		out = append(out, string(r))
	}
	return out
}
