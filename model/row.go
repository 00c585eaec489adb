package model

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"discord-modbot/utils"

	"github.com/volatiletech/null/v8"
)

// ErrSchemaMismatch is returned when a row lacks a required column or holds
// a value of an incompatible type.
var ErrSchemaMismatch = errors.New("schema mismatch")

// Row is a database row keyed by column name.
type Row map[string]interface{}

// rowReader lifts typed values out of a Row and remembers the first failure,
// so a FromRow function can read every column and check the error once.
type rowReader struct {
	row   Row
	table string
	err   error
}

func newRowReader(table string, row Row) *rowReader {
	return &rowReader{row: row, table: table}
}

func (r *rowReader) fail(col string, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("%s.%s: %w", r.table, col, err)
	}
}

func (r *rowReader) lookup(col string, required bool) (interface{}, bool) {
	v, ok := r.row[col]
	if !ok {
		r.fail(col, fmt.Errorf("%w: missing column", ErrSchemaMismatch))
		return nil, false
	}
	if v == nil {
		if required {
			r.fail(col, fmt.Errorf("%w: unexpected NULL", ErrSchemaMismatch))
		}
		return nil, false
	}
	return v, true
}

func (r *rowReader) int64(col string) int64 {
	v, ok := r.lookup(col, true)
	if !ok {
		return 0
	}
	n, err := toInt64(v)
	if err != nil {
		r.fail(col, err)
	}
	return n
}

func (r *rowReader) nullInt64(col string) null.Int64 {
	v, ok := r.lookup(col, false)
	if !ok {
		return null.Int64{}
	}
	n, err := toInt64(v)
	if err != nil {
		r.fail(col, err)
		return null.Int64{}
	}
	return null.Int64From(n)
}

func (r *rowReader) string(col string) string {
	v, ok := r.lookup(col, true)
	if !ok {
		return ""
	}
	s, err := toString(v)
	if err != nil {
		r.fail(col, err)
	}
	return s
}

func (r *rowReader) nullString(col string) null.String {
	v, ok := r.lookup(col, false)
	if !ok {
		return null.String{}
	}
	s, err := toString(v)
	if err != nil {
		r.fail(col, err)
		return null.String{}
	}
	return null.StringFrom(s)
}

func (r *rowReader) bool(col string) bool {
	v, ok := r.lookup(col, true)
	if !ok {
		return false
	}
	switch b := v.(type) {
	case bool:
		return b
	default:
		n, err := toInt64(v)
		if err != nil {
			r.fail(col, err)
		}
		return n != 0
	}
}

func (r *rowReader) time(col string) time.Time {
	v, ok := r.lookup(col, true)
	if !ok {
		return time.Time{}
	}
	switch t := v.(type) {
	case time.Time:
		return t.UTC()
	case string:
		return r.decode(col, t)
	case []byte:
		return r.decode(col, string(t))
	default:
		r.fail(col, fmt.Errorf("%w: %T is not a timestamp", ErrSchemaMismatch, v))
		return time.Time{}
	}
}

func (r *rowReader) decode(col, s string) time.Time {
	t, err := utils.DecodeTime(s)
	if err != nil {
		r.fail(col, err)
	}
	return t
}

func toInt64(v interface{}) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	case string:
		return parseInt(n)
	case []byte:
		return parseInt(string(n))
	default:
		return 0, fmt.Errorf("%w: %T is not an integer", ErrSchemaMismatch, v)
	}
}

func parseInt(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrSchemaMismatch, s)
	}
	return n, nil
}

func toString(v interface{}) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case []byte:
		return string(s), nil
	case int64:
		return strconv.FormatInt(s, 10), nil
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("%w: %T is not text", ErrSchemaMismatch, v)
	}
}
