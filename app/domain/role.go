package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role represents a subject's authorization tier
type Role string

const (
	RoleStaff     Role = "staff"
	RoleExecutive Role = "executive"
	RoleAdmin     Role = "admin"

	// RoleNone means the subject has no role row in the data store
	RoleNone Role = "none"
	// RoleUnresolved means no role has been fetched for the subject yet
	RoleUnresolved Role = "unresolved"
)

// ParseRole converts a stored role string into a Role.
// Unknown strings are rejected rather than mapped to a privileged tier.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleStaff, RoleExecutive, RoleAdmin:
		return Role(s), nil
	default:
		return RoleUnresolved, fmt.Errorf("unknown role: %q", s)
	}
}

// Known returns true for the three assigned tiers.
// RoleNone and RoleUnresolved are never "known" and satisfy no allow-set.
func (r Role) Known() bool {
	switch r {
	case RoleStaff, RoleExecutive, RoleAdmin:
		return true
	default:
		return false
	}
}

// IsStaff returns true if the role is staff
func (r Role) IsStaff() bool {
	return r == RoleStaff
}

// IsExecutive returns true if the role is executive
func (r Role) IsExecutive() bool {
	return r == RoleExecutive
}

// IsAdmin returns true if the role is admin
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// IsExecutiveOrAdmin returns true for either tier that may see
// financial and cross-department data
func (r Role) IsExecutiveOrAdmin() bool {
	return r == RoleExecutive || r == RoleAdmin
}

// In reports whether the role is a member of the allow-set.
// RoleNone and RoleUnresolved are rejected even if listed.
func (r Role) In(allow ...Role) bool {
	if !r.Known() {
		return false
	}
	for _, a := range allow {
		if r == a {
			return true
		}
	}
	return false
}

// RoleCacheEntry is a cached subject-to-role fact with its fetch time.
// At most one live entry exists per subject at a time.
type RoleCacheEntry struct {
	SubjectID uuid.UUID `json:"subject_id"`
	Role      Role      `json:"role"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Stale returns true once the entry has outlived the given TTL
func (e RoleCacheEntry) Stale(ttl time.Duration, now time.Time) bool {
	return now.Sub(e.FetchedAt) >= ttl
}
