package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"pmts-access/app/domain"
)

// ProfileRepository implements port.ProfileStore for PostgreSQL
type ProfileRepository struct {
	db     DatabaseIface
	logger *slog.Logger
}

// NewProfileRepository creates a new PostgreSQL profile repository
func NewProfileRepository(db DatabaseIface, logger *slog.Logger) *ProfileRepository {
	return &ProfileRepository{
		db:     db,
		logger: logger.With("component", "profile_repository"),
	}
}

// CreateProfile writes the profile row created alongside a new identity
func (r *ProfileRepository) CreateProfile(ctx context.Context, profile *domain.Profile) error {
	query := `
		INSERT INTO profiles (user_id, full_name, department, created_at)
		VALUES ($1, $2, $3, $4)`

	_, err := r.db.Exec(ctx, query,
		profile.SubjectID,
		profile.FullName,
		profile.Department,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert profile: %w", err)
	}

	r.logger.Info("profile created", "subject_id", profile.SubjectID)
	return nil
}
