package view

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pmts-access/app/domain"
)

func testProject() domain.Project {
	return domain.Project{
		ID:                     42,
		Title:                  "Kiambu Road Rehabilitation",
		Description:            "Resurfacing of 12km stretch",
		ProjectType:            "infrastructure",
		DepartmentID:           3,
		Department:             "Roads and Transport",
		County:                 "Kiambu",
		Subcounty:              "Kiambaa",
		Ward:                   "Cianda",
		BudgetAllocation:       125_000_000,
		Expenditure:            83_500_000,
		Status:                 domain.ProjectStatusOngoing,
		StartDate:              time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		ExpectedCompletionDate: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		CompletionPercentage:   60,
		IsFlagship:             true,
		CreatedBy:              uuid.New(),
	}
}

func TestComposer_VariantFor(t *testing.T) {
	composer := NewComposer(DefaultPolicy())

	tests := []struct {
		role domain.Role
		want Variant
	}{
		{domain.RoleExecutive, VariantExecutive},
		{domain.RoleAdmin, VariantExecutive},
		{domain.RoleStaff, VariantStaff},
		{domain.RoleNone, VariantStaff},
		{domain.RoleUnresolved, VariantStaff},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			assert.Equal(t, tt.want, composer.VariantFor(tt.role))
		})
	}
}

func TestComposer_MonetaryFieldsRedactedForStaff(t *testing.T) {
	composer := NewComposer(DefaultPolicy())
	project := testProject()

	row := composer.ComposeProject(domain.RoleStaff, project)

	assert.Equal(t, "Kiambu Road Rehabilitation", row["title"])
	assert.Equal(t, domain.ProjectStatusOngoing, row["status"])
	assert.NotContains(t, row, "budget_allocation")
	assert.NotContains(t, row, "expenditure")
}

func TestComposer_MonetaryFieldsVisibleToExecutiveAndAdmin(t *testing.T) {
	composer := NewComposer(DefaultPolicy())
	project := testProject()

	for _, role := range []domain.Role{domain.RoleExecutive, domain.RoleAdmin} {
		row := composer.ComposeProject(role, project)
		assert.Equal(t, 125_000_000.0, row["budget_allocation"], "role %s", role)
		assert.Equal(t, 83_500_000.0, row["expenditure"], "role %s", role)
	}
}

func TestComposer_UnresolvedRoleGetsStaffRendition(t *testing.T) {
	composer := NewComposer(DefaultPolicy())

	// A record fetched with monetary values present is still redacted
	// when the role never resolved.
	row := composer.ComposeProject(domain.RoleUnresolved, testProject())
	assert.NotContains(t, row, "budget_allocation")
	assert.NotContains(t, row, "expenditure")
	assert.Contains(t, row, "title")
}

func TestComposer_StatsRedaction(t *testing.T) {
	composer := NewComposer(DefaultPolicy())
	stats := domain.DashboardStats{
		TotalProjects:    120,
		TotalBudget:      4_000_000_000,
		TotalExpenditure: 2_500_000_000,
		CompletionRate:   41.7,
	}

	staffRow := composer.ComposeStats(domain.RoleStaff, stats)
	assert.Equal(t, 120, staffRow["total_projects"])
	assert.NotContains(t, staffRow, "total_budget")
	assert.NotContains(t, staffRow, "total_expenditure")

	execRow := composer.ComposeStats(domain.RoleExecutive, stats)
	assert.Equal(t, 4_000_000_000.0, execRow["total_budget"])
	assert.Equal(t, 2_500_000_000.0, execRow["total_expenditure"])
}

func TestComposer_DepartmentRedaction(t *testing.T) {
	composer := NewComposer(DefaultPolicy())
	dept := domain.Department{
		ID:               3,
		Name:             "Roads and Transport",
		ProjectCount:     18,
		TotalBudget:      900_000_000,
		TotalExpenditure: 640_000_000,
	}

	staffRow := composer.ComposeDepartment(domain.RoleNone, dept)
	assert.Equal(t, "Roads and Transport", staffRow["name"])
	assert.NotContains(t, staffRow, "total_budget")

	adminRows := composer.ComposeDepartments(domain.RoleAdmin, []domain.Department{dept})
	require.Len(t, adminRows, 1)
	assert.Equal(t, 900_000_000.0, adminRows[0]["total_budget"])
}

func TestComposer_ComposeProjectsKeepsOrder(t *testing.T) {
	composer := NewComposer(DefaultPolicy())

	first := testProject()
	second := testProject()
	second.ID = 43
	second.Title = "Market Shed Construction"

	rows := composer.ComposeProjects(domain.RoleStaff, []domain.Project{first, second})
	require.Len(t, rows, 2)
	assert.Equal(t, "Kiambu Road Rehabilitation", rows[0]["title"])
	assert.Equal(t, "Market Shed Construction", rows[1]["title"])
}
