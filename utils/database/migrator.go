package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// errNoStep is the terminal signal of the migration loop.
var errNoStep = errors.New("no migration step applies")

// StepResult describes one applied migration step.
type StepResult struct {
	From        int
	To          int
	Kind        string
	Description string
	Duration    time.Duration
}

// Migrator walks the linear chain of schema steps from the stored
// user_version up to LatestVersion.
type Migrator struct {
	store *Store
}

func NewMigrator(store *Store) *Migrator {
	return &Migrator{store: store}
}

// Migrate applies every pending step and returns them in the order they ran.
func (m *Migrator) Migrate(ctx context.Context) ([]StepResult, error) {
	return m.MigrateTo(ctx, LatestVersion)
}

// MigrateTo applies pending steps until the stored version reaches target.
// A version already at or past target is left untouched.
func (m *Migrator) MigrateTo(ctx context.Context, target int) ([]StepResult, error) {
	if target > LatestVersion {
		return nil, fmt.Errorf("target version %d is past the latest version %d", target, LatestVersion)
	}

	conn, err := m.store.db.Connx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire migration connection: %w", err)
	}
	defer conn.Close()

	// Table rewrites rename tables that others reference, so foreign keys
	// are switched off for the duration and references keep their names.
	if _, err := conn.ExecContext(ctx, "PRAGMA foreign_keys = OFF"); err != nil {
		return nil, fmt.Errorf("failed to disable foreign keys: %w", err)
	}
	if _, err := conn.ExecContext(ctx, "PRAGMA legacy_alter_table = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable legacy alter table: %w", err)
	}
	defer func() {
		restoreCtx := context.WithoutCancel(ctx)
		if _, err := conn.ExecContext(restoreCtx, "PRAGMA legacy_alter_table = OFF"); err != nil {
			logger.WithError(err).Error("Failed to restore legacy_alter_table")
		}
		if _, err := conn.ExecContext(restoreCtx, "PRAGMA foreign_keys = ON"); err != nil {
			logger.WithError(err).Error("Failed to restore foreign keys")
		}
	}()

	var results []StepResult
	for {
		var version int
		if err := conn.GetContext(ctx, &version, "PRAGMA user_version"); err != nil {
			return results, fmt.Errorf("failed to read user_version: %w", err)
		}
		if version >= target {
			return results, nil
		}

		result, err := m.step(ctx, conn, version)
		if errors.Is(err, errNoStep) {
			return results, nil
		}
		if err != nil {
			return results, err
		}
		results = append(results, result)

		if result.To == LatestVersion {
			return results, nil
		}
	}
}

// step applies the single step leaving version.
func (m *Migrator) step(ctx context.Context, conn *sqlx.Conn, version int) (StepResult, error) {
	if version < 0 || version >= len(migrationSteps) {
		return StepResult{}, errNoStep
	}
	s := migrationSteps[version]
	result := StepResult{From: version, To: version + 1, Kind: s.kind, Description: s.description}
	started := time.Now()

	fail := func(err error) (StepResult, error) {
		return result, &MigrationError{From: result.From, To: result.To, Err: err}
	}

	tx, err := conn.BeginTxx(ctx, nil)
	if err != nil {
		return fail(fmt.Errorf("failed to begin transaction: %w", err))
	}
	if err := s.apply(ctx, tx); err != nil {
		_ = tx.Rollback()
		return fail(err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", result.To)); err != nil {
		_ = tx.Rollback()
		return fail(fmt.Errorf("failed to bump user_version: %w", err))
	}
	if err := tx.Commit(); err != nil {
		return fail(fmt.Errorf("failed to commit: %w", err))
	}

	result.Duration = time.Since(started)
	logger.WithFields(logrus.Fields{
		"from": result.From,
		"to":   result.To,
		"kind": result.Kind,
	}).Info("Applied migration: " + result.Description)
	return result, nil
}
