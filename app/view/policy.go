package view

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"pmts-access/app/domain"
)

// Screen identifies a dashboard screen for field-visibility purposes
type Screen string

const (
	ScreenDashboard   Screen = "dashboard"
	ScreenProjects    Screen = "projects"
	ScreenDepartments Screen = "departments"
)

// FieldPolicy splits a screen's fields into those everyone sees and
// those reserved for executive/admin capability
type FieldPolicy struct {
	Base       []string `yaml:"base" json:"base"`
	Privileged []string `yaml:"privileged" json:"privileged"`
}

// Policy is the field-visibility table keyed by screen. Keeping the
// whole redaction policy in one auditable table is the point: no screen
// re-implements its own monetary-column logic.
type Policy struct {
	Screens map[Screen]FieldPolicy `yaml:"screens"`
}

// DefaultPolicy returns the built-in visibility table. Monetary fields
// are privileged everywhere they appear.
func DefaultPolicy() Policy {
	return Policy{
		Screens: map[Screen]FieldPolicy{
			ScreenProjects: {
				Base: []string{
					"id", "title", "description", "project_type",
					"department", "county", "subcounty", "ward",
					"status", "start_date", "expected_completion_date",
					"completion_percentage", "is_flagship",
				},
				Privileged: []string{"budget_allocation", "expenditure"},
			},
			ScreenDashboard: {
				Base: []string{
					"total_projects", "completed_projects",
					"ongoing_projects", "planning_projects",
					"completion_rate",
				},
				Privileged: []string{"total_budget", "total_expenditure"},
			},
			ScreenDepartments: {
				Base:       []string{"id", "name", "project_count"},
				Privileged: []string{"total_budget", "total_expenditure"},
			},
		},
	}
}

// LoadPolicy reads a visibility table from a YAML file
func LoadPolicy(path string) (Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("failed to read policy file: %w", err)
	}

	var policy Policy
	if err := yaml.Unmarshal(data, &policy); err != nil {
		return Policy{}, fmt.Errorf("failed to parse policy file: %w", err)
	}

	if len(policy.Screens) == 0 {
		return Policy{}, fmt.Errorf("policy file %s defines no screens", path)
	}

	return policy, nil
}

// VisibleFields returns the rendered field set for a screen and role.
// Privileged fields are included iff the role carries the
// executive-or-admin capability; an unresolved role sees the base set.
func (p Policy) VisibleFields(screen Screen, role domain.Role) []string {
	fp, ok := p.Screens[screen]
	if !ok {
		return nil
	}

	fields := make([]string, 0, len(fp.Base)+len(fp.Privileged))
	fields = append(fields, fp.Base...)
	if role.IsExecutiveOrAdmin() {
		fields = append(fields, fp.Privileged...)
	}
	return fields
}

// Visible reports whether a single field is rendered for the role
func (p Policy) Visible(screen Screen, role domain.Role, field string) bool {
	for _, f := range p.VisibleFields(screen, role) {
		if f == field {
			return true
		}
	}
	return false
}
