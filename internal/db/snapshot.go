package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tordrt/spannerddl/internal/schema"
)

// A snapshot is a copy of the information_schema streams kept in an
// ordinary SQL database, so a schema can be rendered without access to the
// live Spanner instance. The position columns keep source order.
const (
	snapshotTables       = "ddl_tables"
	snapshotColumns      = "ddl_columns"
	snapshotIndexes      = "ddl_indexes"
	snapshotIndexColumns = "ddl_index_columns"
)

var snapshotDDL = []string{
	`CREATE TABLE IF NOT EXISTS %s (
		position INTEGER NOT NULL,
		table_name VARCHAR(255) NOT NULL,
		parent_table_name VARCHAR(255),
		on_delete_action VARCHAR(32)
	)`,
	`CREATE TABLE IF NOT EXISTS %s (
		table_name VARCHAR(255) NOT NULL,
		column_name VARCHAR(255) NOT NULL,
		ordinal_position BIGINT NOT NULL,
		spanner_type VARCHAR(1024) NOT NULL,
		is_nullable VARCHAR(8) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS %s (
		position INTEGER NOT NULL,
		table_name VARCHAR(255) NOT NULL,
		index_name VARCHAR(255) NOT NULL,
		index_type VARCHAR(32) NOT NULL,
		parent_table_name VARCHAR(255),
		is_unique BOOLEAN NOT NULL,
		is_null_filtered BOOLEAN NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS %s (
		position INTEGER NOT NULL,
		table_name VARCHAR(255) NOT NULL,
		index_name VARCHAR(255) NOT NULL,
		column_name VARCHAR(255) NOT NULL,
		ordinal_position BIGINT,
		column_ordering VARCHAR(8)
	)`,
}

var snapshotNames = []string{snapshotTables, snapshotColumns, snapshotIndexes, snapshotIndexColumns}

const (
	queryTables       = `SELECT table_name, parent_table_name, on_delete_action FROM %s ORDER BY position`
	queryColumns      = `SELECT table_name, column_name, ordinal_position, spanner_type, is_nullable FROM %s ORDER BY table_name, ordinal_position`
	queryIndexes      = `SELECT table_name, index_name, index_type, parent_table_name, is_unique, is_null_filtered FROM %s ORDER BY position`
	queryIndexColumns = `SELECT table_name, index_name, column_name, ordinal_position, column_ordering FROM %s ORDER BY position`
)

// rowScanner is the part of *sql.Rows and pgx.Rows the decoders need
type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanTableRows(rows rowScanner) ([]TableRow, error) {
	var out []TableRow
	for rows.Next() {
		var r TableRow
		var parent, action sql.NullString
		if err := rows.Scan(&r.Name, &parent, &action); err != nil {
			return nil, err
		}
		r.Parent = parent.String
		r.OnDeleteAction = action.String
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanColumnRows(rows rowScanner) ([]ColumnRow, error) {
	var out []ColumnRow
	for rows.Next() {
		var r ColumnRow
		if err := rows.Scan(&r.Table, &r.Name, &r.Ordinal, &r.SpannerType, &r.IsNullable); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanIndexRows(rows rowScanner) ([]IndexRow, error) {
	var out []IndexRow
	for rows.Next() {
		var r IndexRow
		var parent sql.NullString
		if err := rows.Scan(&r.Table, &r.Name, &r.Type, &parent, &r.Unique, &r.NullFiltered); err != nil {
			return nil, err
		}
		r.Parent = parent.String
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanIndexColumnRows(rows rowScanner) ([]IndexColumnRow, error) {
	var out []IndexColumnRow
	for rows.Next() {
		var r IndexColumnRow
		var ordering sql.NullString
		if err := rows.Scan(&r.Table, &r.Index, &r.Column, &r.Ordinal, &ordering); err != nil {
			return nil, err
		}
		r.Ordering = ordering.String
		out = append(out, r)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// WriteSnapshot stores s in db (SQLite or MySQL), replacing any previous
// snapshot
func WriteSnapshot(ctx context.Context, db *sql.DB, s *schema.Schema) error {
	rows, err := Unfold(s)
	if err != nil {
		return fmt.Errorf("failed to flatten schema: %w", err)
	}
	return WriteSnapshotRows(ctx, db, rows)
}

// WriteSnapshotRows stores metadata rows in db in a single transaction
func WriteSnapshotRows(ctx context.Context, db *sql.DB, rows Rows) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, ddl := range snapshotDDL {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(ddl, snapshotNames[i])); err != nil {
			return fmt.Errorf("failed to create %s: %w", snapshotNames[i], err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+snapshotNames[i]); err != nil {
			return fmt.Errorf("failed to clear %s: %w", snapshotNames[i], err)
		}
	}

	for i, r := range rows.Tables {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO "+snapshotTables+" (position, table_name, parent_table_name, on_delete_action) VALUES (?, ?, ?, ?)",
			i, r.Name, nullString(r.Parent), nullString(r.OnDeleteAction)); err != nil {
			return fmt.Errorf("failed to write table %s: %w", r.Name, err)
		}
	}
	for _, r := range rows.Columns {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO "+snapshotColumns+" (table_name, column_name, ordinal_position, spanner_type, is_nullable) VALUES (?, ?, ?, ?, ?)",
			r.Table, r.Name, r.Ordinal, r.SpannerType, r.IsNullable); err != nil {
			return fmt.Errorf("failed to write column %s.%s: %w", r.Table, r.Name, err)
		}
	}
	for i, r := range rows.Indexes {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO "+snapshotIndexes+" (position, table_name, index_name, index_type, parent_table_name, is_unique, is_null_filtered) VALUES (?, ?, ?, ?, ?, ?, ?)",
			i, r.Table, r.Name, r.Type, nullString(r.Parent), r.Unique, r.NullFiltered); err != nil {
			return fmt.Errorf("failed to write index %s: %w", r.Name, err)
		}
	}
	for i, r := range rows.IndexColumns {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO "+snapshotIndexColumns+" (position, table_name, index_name, column_name, ordinal_position, column_ordering) VALUES (?, ?, ?, ?, ?, ?)",
			i, r.Table, r.Index, r.Column, r.Ordinal, nullString(r.Ordering)); err != nil {
			return fmt.Errorf("failed to write index column %s.%s: %w", r.Index, r.Column, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}
