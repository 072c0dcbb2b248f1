package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"pmts-access/app/domain"
)

// RoleRepository implements port.RoleStore for PostgreSQL
type RoleRepository struct {
	db     DatabaseIface
	logger *slog.Logger
}

// NewRoleRepository creates a new PostgreSQL role repository
func NewRoleRepository(db DatabaseIface, logger *slog.Logger) *RoleRepository {
	return &RoleRepository{
		db:     db,
		logger: logger.With("component", "role_repository"),
	}
}

// FetchRoles returns the subject's role rows in store-return order.
// An empty slice means no role row exists; the resolver maps that to
// RoleNone. Rows with unrecognized role strings fail the whole lookup
// rather than silently degrading.
func (r *RoleRepository) FetchRoles(ctx context.Context, subjectID uuid.UUID) ([]domain.Role, error) {
	query := `SELECT role FROM user_roles WHERE user_id = $1`

	rows, err := r.db.Query(ctx, query, subjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query user roles: %w", err)
	}
	defer rows.Close()

	var roles []domain.Role
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan role row: %w", err)
		}

		role, err := domain.ParseRole(raw)
		if err != nil {
			return nil, fmt.Errorf("subject %s has malformed role row: %w", subjectID, err)
		}
		roles = append(roles, role)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("role row iteration failed: %w", err)
	}

	return roles, nil
}

// noRows keeps pgx.ErrNoRows handling in one place for single-row
// helpers in this package
func noRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
