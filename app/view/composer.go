package view

import (
	"time"

	"pmts-access/app/domain"
)

// Variant names which rendition of a shared screen the subject gets
type Variant string

const (
	// VariantExecutive carries full financial and cross-department data
	VariantExecutive Variant = "executive"
	// VariantStaff is the own-scope, non-financial rendition
	VariantStaff Variant = "staff"
)

// Composer selects the screen variant and the rendered field set for a
// resolved role. Redaction happens here, in the rendering layer, even
// though fetched records already carry the monetary values.
type Composer struct {
	policy Policy
}

// NewComposer creates a new Composer instance
func NewComposer(policy Policy) *Composer {
	return &Composer{policy: policy}
}

// VariantFor picks the screen variant as a pure function of capability.
// Anything short of executive-or-admin — including unresolved — gets
// the staff variant.
func (c *Composer) VariantFor(role domain.Role) Variant {
	if role.IsExecutiveOrAdmin() {
		return VariantExecutive
	}
	return VariantStaff
}

// VisibleFields exposes the policy table's decision for handlers
func (c *Composer) VisibleFields(screen Screen, role domain.Role) []string {
	return c.policy.VisibleFields(screen, role)
}

// ComposeProject renders one project row with only the fields the role
// may see
func (c *Composer) ComposeProject(role domain.Role, project domain.Project) map[string]interface{} {
	row := map[string]interface{}{
		"id":                       project.ID,
		"title":                    project.Title,
		"description":              project.Description,
		"project_type":             project.ProjectType,
		"department":               project.Department,
		"county":                   project.County,
		"subcounty":                project.Subcounty,
		"ward":                     project.Ward,
		"status":                   project.Status,
		"start_date":               project.StartDate.Format(time.RFC3339),
		"expected_completion_date": project.ExpectedCompletionDate.Format(time.RFC3339),
		"completion_percentage":    project.CompletionPercentage,
		"is_flagship":              project.IsFlagship,
		"budget_allocation":        project.BudgetAllocation,
		"expenditure":              project.Expenditure,
	}
	return c.filter(ScreenProjects, role, row)
}

// ComposeProjects renders a project listing
func (c *Composer) ComposeProjects(role domain.Role, projects []domain.Project) []map[string]interface{} {
	rows := make([]map[string]interface{}, 0, len(projects))
	for _, p := range projects {
		rows = append(rows, c.ComposeProject(role, p))
	}
	return rows
}

// ComposeDepartment renders one department aggregate row
func (c *Composer) ComposeDepartment(role domain.Role, dept domain.Department) map[string]interface{} {
	row := map[string]interface{}{
		"id":                dept.ID,
		"name":              dept.Name,
		"project_count":     dept.ProjectCount,
		"total_budget":      dept.TotalBudget,
		"total_expenditure": dept.TotalExpenditure,
	}
	return c.filter(ScreenDepartments, role, row)
}

// ComposeDepartments renders department aggregates
func (c *Composer) ComposeDepartments(role domain.Role, depts []domain.Department) []map[string]interface{} {
	rows := make([]map[string]interface{}, 0, len(depts))
	for _, d := range depts {
		rows = append(rows, c.ComposeDepartment(role, d))
	}
	return rows
}

// ComposeStats renders the dashboard totals
func (c *Composer) ComposeStats(role domain.Role, stats domain.DashboardStats) map[string]interface{} {
	row := map[string]interface{}{
		"total_projects":     stats.TotalProjects,
		"completed_projects": stats.CompletedProjects,
		"ongoing_projects":   stats.OngoingProjects,
		"planning_projects":  stats.PlanningProjects,
		"total_budget":       stats.TotalBudget,
		"total_expenditure":  stats.TotalExpenditure,
		"completion_rate":    stats.CompletionRate,
	}
	return c.filter(ScreenDashboard, role, row)
}

func (c *Composer) filter(screen Screen, role domain.Role, row map[string]interface{}) map[string]interface{} {
	visible := c.policy.VisibleFields(screen, role)
	out := make(map[string]interface{}, len(visible))
	for _, field := range visible {
		if v, ok := row[field]; ok {
			out[field] = v
		}
	}
	return out
}
