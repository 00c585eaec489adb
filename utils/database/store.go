package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"discord-modbot/model"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

var logger = logrus.WithField("p", "database")

// Store is the single-writer handle around the bot's SQLite file.
type Store struct {
	db   *sqlx.DB
	path string
}

// Open connects to the SQLite file at path, creating parent directories as
// needed. Foreign keys are enforced on every connection and the pool is
// limited to one connection, so all statements are serialized.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path)
	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	return &Store{db: db, path: path}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the file the store was opened from.
func (s *Store) Path() string {
	return s.path
}

// Update runs fn inside a transaction that is committed when fn returns nil
// and rolled back on error or panic.
func (s *Store) Update(ctx context.Context, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = translateError(fn(tx))
	return err
}

// View runs fn inside a transaction that is always released without commit.
func (s *Store) View(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	return translateError(fn(tx))
}

// UserVersion returns the persisted schema version.
func (s *Store) UserVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.GetContext(ctx, &version, "PRAGMA user_version"); err != nil {
		return 0, fmt.Errorf("failed to read user_version: %w", err)
	}
	return version, nil
}

// queryRows runs a query and returns every row keyed by column name.
func queryRows(ctx context.Context, tx *sqlx.Tx, query string, args ...interface{}) ([]model.Row, error) {
	rows, err := tx.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Row
	for rows.Next() {
		row := make(map[string]interface{})
		if err := rows.MapScan(row); err != nil {
			return nil, err
		}
		result = append(result, model.Row(row))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// selectAll runs query and converts every row with conv.
func selectAll[T any](ctx context.Context, tx *sqlx.Tx, conv func(model.Row) (T, error), query string, args ...interface{}) ([]T, error) {
	rows, err := queryRows(ctx, tx, query, args...)
	if err != nil {
		return nil, err
	}

	result := make([]T, 0, len(rows))
	for _, row := range rows {
		v, err := conv(row)
		if err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	return result, nil
}

// selectEach is selectAll for scheduler queries: a row that fails
// conversion is logged and skipped so the remaining rows still come back.
func selectEach[T any](ctx context.Context, tx *sqlx.Tx, conv func(model.Row) (T, error), query string, args ...interface{}) ([]T, error) {
	rows, err := queryRows(ctx, tx, query, args...)
	if err != nil {
		return nil, err
	}

	result := make([]T, 0, len(rows))
	for _, row := range rows {
		v, err := conv(row)
		if err != nil {
			logger.WithError(err).WithField("id", row["id"]).Warn("Skipping unreadable row")
			continue
		}
		result = append(result, v)
	}
	return result, nil
}

// selectOne runs query and converts the first row, or returns ErrNotFound.
func selectOne[T any](ctx context.Context, tx *sqlx.Tx, conv func(model.Row) (T, error), query string, args ...interface{}) (T, error) {
	var zero T
	rows, err := queryRows(ctx, tx, query, args...)
	if err != nil {
		return zero, err
	}
	if len(rows) == 0 {
		return zero, ErrNotFound
	}
	return conv(rows[0])
}

// insert executes an INSERT and returns the id of the new row.
func insert(ctx context.Context, tx *sqlx.Tx, query string, args ...interface{}) (int64, error) {
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// execAffecting executes a statement and returns ErrNotFound when no row
// was touched.
func execAffecting(ctx context.Context, tx *sqlx.Tx, query string, args ...interface{}) error {
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// IsNotFound reports whether err, or sql.ErrNoRows, means a missing row.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, sql.ErrNoRows)
}

// SelectAll is selectAll for repositories living in subpackages.
func SelectAll[T any](ctx context.Context, tx *sqlx.Tx, conv func(model.Row) (T, error), query string, args ...interface{}) ([]T, error) {
	return selectAll(ctx, tx, conv, query, args...)
}

// SelectOne is selectOne for repositories living in subpackages.
func SelectOne[T any](ctx context.Context, tx *sqlx.Tx, conv func(model.Row) (T, error), query string, args ...interface{}) (T, error) {
	return selectOne(ctx, tx, conv, query, args...)
}

// Insert executes an INSERT and returns the id of the new row.
func Insert(ctx context.Context, tx *sqlx.Tx, query string, args ...interface{}) (int64, error) {
	return insert(ctx, tx, query, args...)
}

// ExecAffecting executes a statement and returns ErrNotFound when no row
// was touched.
func ExecAffecting(ctx context.Context, tx *sqlx.Tx, query string, args ...interface{}) error {
	return execAffecting(ctx, tx, query, args...)
}
