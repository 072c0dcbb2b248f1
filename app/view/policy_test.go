package view

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pmts-access/app/domain"
)

func TestDefaultPolicy_MonetaryFieldsArePrivilegedEverywhere(t *testing.T) {
	policy := DefaultPolicy()

	monetary := map[Screen][]string{
		ScreenProjects:    {"budget_allocation", "expenditure"},
		ScreenDashboard:   {"total_budget", "total_expenditure"},
		ScreenDepartments: {"total_budget", "total_expenditure"},
	}

	for screen, fields := range monetary {
		for _, field := range fields {
			assert.False(t, policy.Visible(screen, domain.RoleStaff, field),
				"%s/%s must be hidden from staff", screen, field)
			assert.False(t, policy.Visible(screen, domain.RoleUnresolved, field),
				"%s/%s must be hidden while unresolved", screen, field)
			assert.True(t, policy.Visible(screen, domain.RoleExecutive, field),
				"%s/%s must be visible to executive", screen, field)
		}
	}
}

func TestPolicy_UnknownScreenRendersNothing(t *testing.T) {
	policy := DefaultPolicy()
	assert.Empty(t, policy.VisibleFields(Screen("unknown"), domain.RoleAdmin))
}

func TestLoadPolicy(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
		check   func(*testing.T, Policy)
	}{
		{
			name: "valid override",
			content: `screens:
  projects:
    base: [id, title]
    privileged: [budget_allocation]
`,
			check: func(t *testing.T, p Policy) {
				assert.Equal(t, []string{"id", "title"}, p.Screens[ScreenProjects].Base)
				assert.True(t, p.Visible(ScreenProjects, domain.RoleAdmin, "budget_allocation"))
				assert.False(t, p.Visible(ScreenProjects, domain.RoleStaff, "budget_allocation"))
			},
		},
		{
			name:    "empty table rejected",
			content: "screens: {}\n",
			wantErr: true,
		},
		{
			name:    "malformed yaml rejected",
			content: "screens: [not a map",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "policy.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))

			policy, err := LoadPolicy(path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, policy)
		})
	}
}

func TestLoadPolicy_MissingFile(t *testing.T) {
	_, err := LoadPolicy(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
