package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ProjectStatus represents the lifecycle status of a project
type ProjectStatus string

const (
	ProjectStatusPlanning  ProjectStatus = "planning"
	ProjectStatusOngoing   ProjectStatus = "ongoing"
	ProjectStatusCompleted ProjectStatus = "completed"
	ProjectStatusOnHold    ProjectStatus = "on_hold"
	ProjectStatusCancelled ProjectStatus = "cancelled"
)

// Valid returns true for a recognized status
func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectStatusPlanning, ProjectStatusOngoing, ProjectStatusCompleted,
		ProjectStatusOnHold, ProjectStatusCancelled:
		return true
	default:
		return false
	}
}

// Project is a tracked development project. BudgetAllocation and
// Expenditure are the monetary fields subject to role-based redaction
// in the view layer.
type Project struct {
	ID                     int64         `json:"id"`
	Title                  string        `json:"title"`
	Description            string        `json:"description"`
	ProjectType            string        `json:"project_type"`
	DepartmentID           int64         `json:"department_id"`
	Department             string        `json:"department"`
	County                 string        `json:"county"`
	Subcounty              string        `json:"subcounty"`
	Ward                   string        `json:"ward"`
	BudgetAllocation       float64       `json:"budget_allocation"`
	Expenditure            float64       `json:"expenditure"`
	Status                 ProjectStatus `json:"status"`
	StartDate              time.Time     `json:"start_date"`
	ExpectedCompletionDate time.Time     `json:"expected_completion_date"`
	ActualCompletionDate   *time.Time    `json:"actual_completion_date,omitempty"`
	CompletionPercentage   int           `json:"completion_percentage"`
	IsFlagship             bool          `json:"is_flagship"`
	CreatedBy              uuid.UUID     `json:"created_by"`
	CreatedAt              time.Time     `json:"created_at"`
}

// Validate checks the project's required fields
func (p *Project) Validate() error {
	if p.Title == "" {
		return fmt.Errorf("title is required")
	}
	if !p.Status.Valid() {
		return fmt.Errorf("invalid status: %s", p.Status)
	}
	if p.CompletionPercentage < 0 || p.CompletionPercentage > 100 {
		return fmt.Errorf("completion percentage out of range: %d", p.CompletionPercentage)
	}
	return nil
}

// ProjectFilter narrows a project listing
type ProjectFilter struct {
	Search       string
	Status       ProjectStatus
	DepartmentID int64
	// CreatedBy limits results to a single subject's own projects,
	// used by the staff screen variant.
	CreatedBy uuid.UUID
}

// Department is a department-level aggregate fetched only for the
// executive dashboard variant
type Department struct {
	ID               int64   `json:"id"`
	Name             string  `json:"name"`
	ProjectCount     int     `json:"project_count"`
	TotalBudget      float64 `json:"total_budget"`
	TotalExpenditure float64 `json:"total_expenditure"`
}

// DashboardStats are the cross-department totals on the executive dashboard
type DashboardStats struct {
	TotalProjects     int     `json:"total_projects"`
	CompletedProjects int     `json:"completed_projects"`
	OngoingProjects   int     `json:"ongoing_projects"`
	PlanningProjects  int     `json:"planning_projects"`
	TotalBudget       float64 `json:"total_budget"`
	TotalExpenditure  float64 `json:"total_expenditure"`
	CompletionRate    float64 `json:"completion_rate"`
}
