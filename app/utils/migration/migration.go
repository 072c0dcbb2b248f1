package migration

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

// Migration is one versioned schema change with its rollback
type Migration struct {
	Version   int
	Name      string
	UpSQL     string
	DownSQL   string
	AppliedAt time.Time
}

// Migrator applies and rolls back schema migrations, tracking them in a
// schema_migrations table
type Migrator struct {
	db           *sql.DB
	logger       *slog.Logger
	migrationsFS fs.FS
}

// NewMigrator creates a migration manager over the given filesystem.
// Files follow the NNN_name.up.sql / NNN_name.down.sql convention.
func NewMigrator(db *sql.DB, logger *slog.Logger, migrationsFS fs.FS) *Migrator {
	return &Migrator{
		db:           db,
		logger:       logger.With("component", "migrator"),
		migrationsFS: migrationsFS,
	}
}

func (m *Migrator) ensureTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP,
		checksum VARCHAR(64) NOT NULL
	)`

	if _, err := m.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}

// Load reads every migration pair from the filesystem, sorted by version
func (m *Migrator) Load() ([]Migration, error) {
	var migrations []Migration

	err := fs.WalkDir(m.migrationsFS, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".up.sql") {
			return nil
		}

		filename := filepath.Base(path)
		parts := strings.SplitN(filename, "_", 2)
		if len(parts) < 2 {
			m.logger.Warn("skipping migration with unexpected filename", "filename", filename)
			return nil
		}

		version, err := strconv.Atoi(parts[0])
		if err != nil {
			m.logger.Warn("skipping migration with non-numeric version", "filename", filename)
			return nil
		}

		upSQL, err := fs.ReadFile(m.migrationsFS, path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		downPath := strings.Replace(path, ".up.sql", ".down.sql", 1)
		downSQL, err := fs.ReadFile(m.migrationsFS, downPath)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", downPath, err)
		}

		migrations = append(migrations, Migration{
			Version: version,
			Name:    strings.TrimSuffix(parts[1], ".up.sql"),
			UpSQL:   string(upSQL),
			DownSQL: string(downSQL),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load migrations: %w", err)
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, nil
}

func (m *Migrator) applied() ([]Migration, error) {
	rows, err := m.db.Query(`SELECT version, name, applied_at FROM schema_migrations ORDER BY version`)
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	var migrations []Migration
	for rows.Next() {
		var mig Migration
		if err := rows.Scan(&mig.Version, &mig.Name, &mig.AppliedAt); err != nil {
			return nil, fmt.Errorf("failed to scan migration row: %w", err)
		}
		migrations = append(migrations, mig)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("migration row iteration failed: %w", err)
	}
	return migrations, nil
}

// Up applies all pending migrations in version order
func (m *Migrator) Up() error {
	if err := m.ensureTable(); err != nil {
		return err
	}

	all, err := m.Load()
	if err != nil {
		return err
	}

	appliedList, err := m.applied()
	if err != nil {
		return err
	}
	appliedSet := make(map[int]bool, len(appliedList))
	for _, mig := range appliedList {
		appliedSet[mig.Version] = true
	}

	for _, mig := range all {
		if appliedSet[mig.Version] {
			continue
		}
		if err := m.apply(mig); err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", mig.Version, err)
		}
		m.logger.Info("applied migration", "version", mig.Version, "name", mig.Name)
	}
	return nil
}

// Down rolls back the most recently applied migration
func (m *Migrator) Down() error {
	appliedList, err := m.applied()
	if err != nil {
		return err
	}
	if len(appliedList) == 0 {
		m.logger.Info("no migrations to roll back")
		return nil
	}
	last := appliedList[len(appliedList)-1]

	all, err := m.Load()
	if err != nil {
		return err
	}

	for _, mig := range all {
		if mig.Version != last.Version {
			continue
		}
		if err := m.rollback(mig); err != nil {
			return fmt.Errorf("failed to roll back migration %d: %w", mig.Version, err)
		}
		m.logger.Info("rolled back migration", "version", mig.Version, "name", mig.Name)
		return nil
	}
	return fmt.Errorf("migration %d not found in filesystem", last.Version)
}

// Status logs every known migration with its applied state
func (m *Migrator) Status() error {
	if err := m.ensureTable(); err != nil {
		return err
	}

	all, err := m.Load()
	if err != nil {
		return err
	}
	appliedList, err := m.applied()
	if err != nil {
		return err
	}
	appliedAt := make(map[int]time.Time, len(appliedList))
	for _, mig := range appliedList {
		appliedAt[mig.Version] = mig.AppliedAt
	}

	for _, mig := range all {
		if at, ok := appliedAt[mig.Version]; ok {
			m.logger.Info("migration applied", "version", mig.Version, "name", mig.Name, "applied_at", at)
		} else {
			m.logger.Info("migration pending", "version", mig.Version, "name", mig.Name)
		}
	}
	return nil
}

func (m *Migrator) apply(mig Migration) error {
	tx, err := m.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(mig.UpSQL); err != nil {
		return fmt.Errorf("failed to execute migration: %w", err)
	}

	insert := `INSERT INTO schema_migrations (version, name, checksum) VALUES ($1, $2, $3)`
	if _, err := tx.Exec(insert, mig.Version, mig.Name, checksum(mig.UpSQL)); err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}

	return tx.Commit()
}

func (m *Migrator) rollback(mig Migration) error {
	tx, err := m.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(mig.DownSQL); err != nil {
		return fmt.Errorf("failed to execute rollback: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM schema_migrations WHERE version = $1`, mig.Version); err != nil {
		return fmt.Errorf("failed to remove migration record: %w", err)
	}

	return tx.Commit()
}

func checksum(sqlText string) string {
	sum := sha256.Sum256([]byte(sqlText))
	return hex.EncodeToString(sum[:])
}
