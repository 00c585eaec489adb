package database

import (
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound is returned by lookups that match no row.
	ErrNotFound = errors.New("not found")
	// ErrConstraintViolation is returned when a write breaks a uniqueness
	// or foreign key constraint.
	ErrConstraintViolation = errors.New("constraint violation")
	// ErrMigrationFailed matches every *MigrationError.
	ErrMigrationFailed = errors.New("migration failed")
	// ErrInvalidReminderType is returned when a reminder has no known type.
	ErrInvalidReminderType = errors.New("invalid reminder type")
)

// MigrationError reports the schema step that could not be applied.
type MigrationError struct {
	From int
	To   int
	Err  error
}

func (e *MigrationError) Error() string {
	return fmt.Sprintf("migration %d -> %d failed: %v", e.From, e.To, e.Err)
}

func (e *MigrationError) Unwrap() error { return e.Err }

func (e *MigrationError) Is(target error) bool { return target == ErrMigrationFailed }

// translateError maps driver errors onto the package sentinels.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return fmt.Errorf("%w: %v", ErrConstraintViolation, err)
	}
	return err
}
