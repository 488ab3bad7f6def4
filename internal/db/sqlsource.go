package db

import (
	"context"
	"database/sql"
	"fmt"
)

// SQLSource reads snapshot tables through database/sql. It serves both the
// SQLite and the MySQL clients.
type SQLSource struct {
	db *sql.DB
}

// NewSQLSource creates a source over the snapshot stored in db
func NewSQLSource(db *sql.DB) *SQLSource {
	return &SQLSource{db: db}
}

func (s *SQLSource) query(ctx context.Context, query, table string, decode func(rowScanner) error) error {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(query, table))
	if err != nil {
		return err
	}
	defer rows.Close()
	return decode(rows)
}

func (s *SQLSource) TableRows(ctx context.Context) (out []TableRow, err error) {
	err = s.query(ctx, queryTables, snapshotTables, func(rows rowScanner) (err error) {
		out, err = scanTableRows(rows)
		return err
	})
	return out, err
}

func (s *SQLSource) ColumnRows(ctx context.Context) (out []ColumnRow, err error) {
	err = s.query(ctx, queryColumns, snapshotColumns, func(rows rowScanner) (err error) {
		out, err = scanColumnRows(rows)
		return err
	})
	return out, err
}

func (s *SQLSource) IndexRows(ctx context.Context) (out []IndexRow, err error) {
	err = s.query(ctx, queryIndexes, snapshotIndexes, func(rows rowScanner) (err error) {
		out, err = scanIndexRows(rows)
		return err
	})
	return out, err
}

func (s *SQLSource) IndexColumnRows(ctx context.Context) (out []IndexColumnRow, err error) {
	err = s.query(ctx, queryIndexColumns, snapshotIndexColumns, func(rows rowScanner) (err error) {
		out, err = scanIndexColumnRows(rows)
		return err
	})
	return out, err
}
