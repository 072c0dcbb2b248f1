package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"pmts-access/app/domain"
)

// ProjectRepository implements port.ProjectStore for PostgreSQL.
// Records come back with their monetary fields intact; redaction is the
// view composer's job.
type ProjectRepository struct {
	db     DatabaseIface
	logger *slog.Logger
}

// NewProjectRepository creates a new PostgreSQL project repository
func NewProjectRepository(db DatabaseIface, logger *slog.Logger) *ProjectRepository {
	return &ProjectRepository{
		db:     db,
		logger: logger.With("component", "project_repository"),
	}
}

const projectColumns = `
	p.id, p.title, p.description, p.project_type, p.department_id,
	d.name, p.county, p.subcounty, p.ward, p.budget_allocation,
	p.expenditure, p.status, p.start_date, p.expected_completion_date,
	p.actual_completion_date, p.completion_percentage, p.is_flagship,
	p.created_by, p.created_at`

// FetchProjects lists projects matching the filter, newest first
func (r *ProjectRepository) FetchProjects(ctx context.Context, filter domain.ProjectFilter) ([]domain.Project, error) {
	var (
		conditions []string
		args       []interface{}
	)

	addArg := func(value interface{}) string {
		args = append(args, value)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.Search != "" {
		placeholder := addArg("%" + filter.Search + "%")
		conditions = append(conditions, fmt.Sprintf("(p.title ILIKE %s OR p.description ILIKE %s)", placeholder, placeholder))
	}
	if filter.Status != "" {
		conditions = append(conditions, "p.status = "+addArg(string(filter.Status)))
	}
	if filter.DepartmentID != 0 {
		conditions = append(conditions, "p.department_id = "+addArg(filter.DepartmentID))
	}
	if filter.CreatedBy != uuid.Nil {
		conditions = append(conditions, "p.created_by = "+addArg(filter.CreatedBy))
	}

	query := `SELECT ` + projectColumns + `
		FROM projects p
		JOIN departments d ON d.id = p.department_id`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY p.created_at DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	var projects []domain.Project
	for rows.Next() {
		var p domain.Project
		err := rows.Scan(
			&p.ID, &p.Title, &p.Description, &p.ProjectType, &p.DepartmentID,
			&p.Department, &p.County, &p.Subcounty, &p.Ward, &p.BudgetAllocation,
			&p.Expenditure, &p.Status, &p.StartDate, &p.ExpectedCompletionDate,
			&p.ActualCompletionDate, &p.CompletionPercentage, &p.IsFlagship,
			&p.CreatedBy, &p.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project row: %w", err)
		}
		projects = append(projects, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("project row iteration failed: %w", err)
	}

	return projects, nil
}

// FetchDepartments returns per-department aggregates for the executive
// dashboard variant
func (r *ProjectRepository) FetchDepartments(ctx context.Context) ([]domain.Department, error) {
	query := `
		SELECT d.id, d.name,
			COUNT(p.id),
			COALESCE(SUM(p.budget_allocation), 0),
			COALESCE(SUM(p.expenditure), 0)
		FROM departments d
		LEFT JOIN projects p ON p.department_id = d.id
		GROUP BY d.id, d.name
		ORDER BY d.name`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query departments: %w", err)
	}
	defer rows.Close()

	var departments []domain.Department
	for rows.Next() {
		var d domain.Department
		if err := rows.Scan(&d.ID, &d.Name, &d.ProjectCount, &d.TotalBudget, &d.TotalExpenditure); err != nil {
			return nil, fmt.Errorf("failed to scan department row: %w", err)
		}
		departments = append(departments, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("department row iteration failed: %w", err)
	}

	return departments, nil
}

// FetchDashboardStats returns the cross-department totals
func (r *ProjectRepository) FetchDashboardStats(ctx context.Context) (*domain.DashboardStats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COUNT(*) FILTER (WHERE status = 'ongoing'),
			COUNT(*) FILTER (WHERE status = 'planning'),
			COALESCE(SUM(budget_allocation), 0),
			COALESCE(SUM(expenditure), 0)
		FROM projects`

	var stats domain.DashboardStats
	err := r.db.QueryRow(ctx, query).Scan(
		&stats.TotalProjects,
		&stats.CompletedProjects,
		&stats.OngoingProjects,
		&stats.PlanningProjects,
		&stats.TotalBudget,
		&stats.TotalExpenditure,
	)
	if err != nil {
		if noRows(err) {
			return &domain.DashboardStats{}, nil
		}
		return nil, fmt.Errorf("failed to query dashboard stats: %w", err)
	}

	if stats.TotalProjects > 0 {
		stats.CompletionRate = float64(stats.CompletedProjects) / float64(stats.TotalProjects) * 100
	}

	return &stats, nil
}
