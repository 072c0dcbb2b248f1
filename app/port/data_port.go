package port

//go:generate mockgen -source=data_port.go -destination=../mocks/mock_data_port.go

import (
	"context"

	"github.com/google/uuid"

	"pmts-access/app/domain"
)

// RoleStore is the data-service contract for subject role lookup
type RoleStore interface {
	// FetchRoles returns the subject's role rows in provider-return
	// order. An empty slice means the subject has no role row. Callers
	// own the tie-break when more than one row comes back.
	FetchRoles(ctx context.Context, subjectID uuid.UUID) ([]domain.Role, error)
}

// ProjectStore is the data-service contract for project records.
// Fetched records carry monetary fields; redaction is the view layer's
// responsibility, not the store's.
type ProjectStore interface {
	FetchProjects(ctx context.Context, filter domain.ProjectFilter) ([]domain.Project, error)
	FetchDepartments(ctx context.Context) ([]domain.Department, error)
	FetchDashboardStats(ctx context.Context) (*domain.DashboardStats, error)
}

// ProfileStore writes the profile row created alongside a new identity
type ProfileStore interface {
	CreateProfile(ctx context.Context, profile *domain.Profile) error
}
