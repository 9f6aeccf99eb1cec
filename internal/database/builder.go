package database

import (
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Map-shaped statement building. Every repository in this package goes
// through these helpers: values and conditions arrive as column→value
// maps, identifiers are validated before interpolation, and values
// always travel as positional placeholders. Conditions combine with
// AND, equality only.
var (
	// ErrNoValues is returned when an insert or update is attempted
	// with an empty value map.
	ErrNoValues = errors.New("database: at least one column value is required")
	// ErrNoConditions is returned when an update or delete is
	// attempted without conditions. Unconditional mass updates and
	// deletes are never allowed.
	ErrNoConditions = errors.New("database: at least one condition is required")
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func checkIdent(name string) error {
	if !identPattern.MatchString(name) {
		return fmt.Errorf("database: invalid identifier %q", name)
	}
	return nil
}

// sortedKeys returns the map keys in sorted order so generated
// statements are deterministic regardless of map iteration order.
func sortedKeys(m map[string]any) ([]string, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		if err := checkIdent(k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// buildWhere renders "WHERE a = ? AND b = ?" plus the matching args.
func buildWhere(conds map[string]any) (string, []any, error) {
	keys, err := sortedKeys(conds)
	if err != nil {
		return "", nil, err
	}

	var sb strings.Builder
	args := make([]any, 0, len(keys))
	sb.WriteString(" WHERE ")
	for i, k := range keys {
		if i > 0 {
			sb.WriteString(" AND ")
		}
		sb.WriteString(k)
		sb.WriteString(" = ?")
		args = append(args, conds[k])
	}
	return sb.String(), args, nil
}

func buildInsert(table string, values map[string]any) (string, []any, error) {
	if err := checkIdent(table); err != nil {
		return "", nil, err
	}
	if len(values) == 0 {
		return "", nil, ErrNoValues
	}

	keys, err := sortedKeys(values)
	if err != nil {
		return "", nil, err
	}

	args := make([]any, 0, len(keys))
	placeholders := make([]string, 0, len(keys))
	for _, k := range keys {
		args = append(args, values[k])
		placeholders = append(placeholders, "?")
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(keys, ", "), strings.Join(placeholders, ", "))
	return query, args, nil
}

func buildSelect(table string, columns []string, conds map[string]any) (string, []any, error) {
	if err := checkIdent(table); err != nil {
		return "", nil, err
	}

	cols := "*"
	if len(columns) > 0 {
		for _, c := range columns {
			if err := checkIdent(c); err != nil {
				return "", nil, err
			}
		}
		cols = strings.Join(columns, ", ")
	}

	query := fmt.Sprintf("SELECT %s FROM %s", cols, table)
	if len(conds) == 0 {
		return query, nil, nil
	}

	where, args, err := buildWhere(conds)
	if err != nil {
		return "", nil, err
	}
	return query + where, args, nil
}

func buildUpdate(table string, values, conds map[string]any) (string, []any, error) {
	if err := checkIdent(table); err != nil {
		return "", nil, err
	}
	if len(values) == 0 {
		return "", nil, ErrNoValues
	}
	if len(conds) == 0 {
		return "", nil, ErrNoConditions
	}

	keys, err := sortedKeys(values)
	if err != nil {
		return "", nil, err
	}

	var sb strings.Builder
	args := make([]any, 0, len(keys)+len(conds))
	sb.WriteString("UPDATE ")
	sb.WriteString(table)
	sb.WriteString(" SET ")
	for i, k := range keys {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(k)
		sb.WriteString(" = ?")
		args = append(args, values[k])
	}

	where, whereArgs, err := buildWhere(conds)
	if err != nil {
		return "", nil, err
	}
	sb.WriteString(where)
	args = append(args, whereArgs...)
	return sb.String(), args, nil
}

func buildDelete(table string, conds map[string]any) (string, []any, error) {
	if err := checkIdent(table); err != nil {
		return "", nil, err
	}
	if len(conds) == 0 {
		return "", nil, ErrNoConditions
	}

	where, args, err := buildWhere(conds)
	if err != nil {
		return "", nil, err
	}
	return "DELETE FROM " + table + where, args, nil
}

// Insert builds and executes an insert, returning the store-assigned
// row id. Uniqueness violations surface as ErrConflict.
func (db *DB) Insert(table string, values map[string]any) (int64, error) {
	query, args, err := buildInsert(table, values)
	if err != nil {
		return 0, err
	}

	result, err := db.Exec(query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("insert into %s: %w", table, ErrConflict)
		}
		return 0, fmt.Errorf("failed to insert into %s: %w", table, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read %s insert id: %w", table, err)
	}
	return id, nil
}

// SelectRows builds and executes a select. A nil column list selects
// all columns; nil conditions select all rows. The caller owns the
// returned rows.
func (db *DB) SelectRows(table string, columns []string, conds map[string]any) (*sql.Rows, error) {
	query, args, err := buildSelect(table, columns, conds)
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select from %s: %w", table, err)
	}
	return rows, nil
}

// UpdateWhere builds and executes a conditional update. Both maps are
// mandatory; an unconditional update is a caller error.
func (db *DB) UpdateWhere(table string, values, conds map[string]any) error {
	query, args, err := buildUpdate(table, values, conds)
	if err != nil {
		return err
	}

	if _, err := db.Exec(query, args...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("update %s: %w", table, ErrConflict)
		}
		return fmt.Errorf("failed to update %s: %w", table, err)
	}
	return nil
}

// DeleteWhere builds and executes a conditional delete. Conditions are
// mandatory; an unconditional delete is a caller error.
func (db *DB) DeleteWhere(table string, conds map[string]any) error {
	query, args, err := buildDelete(table, conds)
	if err != nil {
		return err
	}

	if _, err := db.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	return nil
}
