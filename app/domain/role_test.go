package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestRole_Capabilities(t *testing.T) {
	tests := []struct {
		name               string
		role               Role
		isStaff            bool
		isExecutive        bool
		isAdmin            bool
		isExecutiveOrAdmin bool
	}{
		{name: "staff", role: RoleStaff, isStaff: true},
		{name: "executive", role: RoleExecutive, isExecutive: true, isExecutiveOrAdmin: true},
		{name: "admin", role: RoleAdmin, isAdmin: true, isExecutiveOrAdmin: true},
		{name: "none has no capabilities", role: RoleNone},
		{name: "unresolved has no capabilities", role: RoleUnresolved},
		{name: "garbage has no capabilities", role: Role("superuser")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.isStaff, tt.role.IsStaff())
			assert.Equal(t, tt.isExecutive, tt.role.IsExecutive())
			assert.Equal(t, tt.isAdmin, tt.role.IsAdmin())
			assert.Equal(t, tt.isExecutiveOrAdmin, tt.role.IsExecutiveOrAdmin())
		})
	}
}

func TestRole_In(t *testing.T) {
	tests := []struct {
		name  string
		role  Role
		allow []Role
		want  bool
	}{
		{name: "member", role: RoleAdmin, allow: []Role{RoleExecutive, RoleAdmin}, want: true},
		{name: "non-member", role: RoleStaff, allow: []Role{RoleExecutive, RoleAdmin}, want: false},
		{name: "none never satisfies", role: RoleNone, allow: []Role{RoleNone}, want: false},
		{name: "unresolved never satisfies", role: RoleUnresolved, allow: []Role{RoleUnresolved, RoleAdmin}, want: false},
		{name: "empty allow-set", role: RoleAdmin, allow: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.role.In(tt.allow...))
		})
	}
}

func TestParseRole(t *testing.T) {
	for _, valid := range []string{"staff", "executive", "admin"} {
		role, err := ParseRole(valid)
		assert.NoError(t, err)
		assert.Equal(t, Role(valid), role)
	}

	for _, invalid := range []string{"", "none", "unresolved", "root", "Admin"} {
		role, err := ParseRole(invalid)
		assert.Error(t, err, "expected %q to be rejected", invalid)
		assert.Equal(t, RoleUnresolved, role)
	}
}

func TestRoleCacheEntry_Stale(t *testing.T) {
	now := time.Now()
	entry := RoleCacheEntry{
		SubjectID: uuid.New(),
		Role:      RoleAdmin,
		FetchedAt: now,
	}

	ttl := 5 * time.Minute
	assert.False(t, entry.Stale(ttl, now))
	assert.False(t, entry.Stale(ttl, now.Add(ttl-time.Second)))
	assert.True(t, entry.Stale(ttl, now.Add(ttl)))
	assert.True(t, entry.Stale(ttl, now.Add(ttl+time.Second)))
}
