package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresClient manages a connection pool to a PostgreSQL database holding
// a schema snapshot
type PostgresClient struct {
	pool *pgxpool.Pool
}

// NewPostgresClient creates a new PostgreSQL client
func NewPostgresClient(ctx context.Context, connString string) (*PostgresClient, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test the connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresClient{pool: pool}, nil
}

// Close closes the connection pool
func (c *PostgresClient) Close() {
	c.pool.Close()
}

// GetPool returns the underlying connection pool
func (c *PostgresClient) GetPool() *pgxpool.Pool {
	return c.pool
}

// PostgresSource reads snapshot tables stored in one PostgreSQL schema
type PostgresSource struct {
	client *PostgresClient
	schema string
}

// NewPostgresSource creates a source over the snapshot in schemaName
func NewPostgresSource(client *PostgresClient, schemaName string) *PostgresSource {
	return &PostgresSource{client: client, schema: schemaName}
}

func (s *PostgresSource) table(name string) string {
	return pgx.Identifier{s.schema, name}.Sanitize()
}

func (s *PostgresSource) query(ctx context.Context, query, table string, decode func(rowScanner) error) error {
	rows, err := s.client.GetPool().Query(ctx, fmt.Sprintf(query, s.table(table)))
	if err != nil {
		return err
	}
	defer rows.Close()
	return decode(rows)
}

func (s *PostgresSource) TableRows(ctx context.Context) (out []TableRow, err error) {
	err = s.query(ctx, queryTables, snapshotTables, func(rows rowScanner) (err error) {
		out, err = scanTableRows(rows)
		return err
	})
	return out, err
}

func (s *PostgresSource) ColumnRows(ctx context.Context) (out []ColumnRow, err error) {
	err = s.query(ctx, queryColumns, snapshotColumns, func(rows rowScanner) (err error) {
		out, err = scanColumnRows(rows)
		return err
	})
	return out, err
}

func (s *PostgresSource) IndexRows(ctx context.Context) (out []IndexRow, err error) {
	err = s.query(ctx, queryIndexes, snapshotIndexes, func(rows rowScanner) (err error) {
		out, err = scanIndexRows(rows)
		return err
	})
	return out, err
}

func (s *PostgresSource) IndexColumnRows(ctx context.Context) (out []IndexColumnRow, err error) {
	err = s.query(ctx, queryIndexColumns, snapshotIndexColumns, func(rows rowScanner) (err error) {
		out, err = scanIndexColumnRows(rows)
		return err
	})
	return out, err
}

// WriteSnapshot stores rows in the client's snapshot schema using COPY,
// replacing any previous snapshot
func (s *PostgresSource) WriteSnapshot(ctx context.Context, rows Rows) error {
	tx, err := s.client.GetPool().Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+pgx.Identifier{s.schema}.Sanitize()); err != nil {
		return fmt.Errorf("failed to create schema %s: %w", s.schema, err)
	}
	for i, ddl := range snapshotDDL {
		if _, err := tx.Exec(ctx, fmt.Sprintf(ddl, s.table(snapshotNames[i]))); err != nil {
			return fmt.Errorf("failed to create %s: %w", snapshotNames[i], err)
		}
		if _, err := tx.Exec(ctx, "DELETE FROM "+s.table(snapshotNames[i])); err != nil {
			return fmt.Errorf("failed to clear %s: %w", snapshotNames[i], err)
		}
	}

	copies := []struct {
		table   string
		columns []string
		rows    [][]any
	}{
		{snapshotTables, []string{"position", "table_name", "parent_table_name", "on_delete_action"}, tableValues(rows.Tables)},
		{snapshotColumns, []string{"table_name", "column_name", "ordinal_position", "spanner_type", "is_nullable"}, columnValues(rows.Columns)},
		{snapshotIndexes, []string{"position", "table_name", "index_name", "index_type", "parent_table_name", "is_unique", "is_null_filtered"}, indexValues(rows.Indexes)},
		{snapshotIndexColumns, []string{"position", "table_name", "index_name", "column_name", "ordinal_position", "column_ordering"}, indexColumnValues(rows.IndexColumns)},
	}
	for _, c := range copies {
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{s.schema, c.table}, c.columns, pgx.CopyFromRows(c.rows)); err != nil {
			return fmt.Errorf("failed to copy %s: %w", c.table, err)
		}
	}

	return tx.Commit(ctx)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func tableValues(rows []TableRow) [][]any {
	out := make([][]any, len(rows))
	for i, r := range rows {
		out[i] = []any{int32(i), r.Name, optional(r.Parent), optional(r.OnDeleteAction)}
	}
	return out
}

func columnValues(rows []ColumnRow) [][]any {
	out := make([][]any, len(rows))
	for i, r := range rows {
		out[i] = []any{r.Table, r.Name, r.Ordinal, r.SpannerType, r.IsNullable}
	}
	return out
}

func indexValues(rows []IndexRow) [][]any {
	out := make([][]any, len(rows))
	for i, r := range rows {
		out[i] = []any{int32(i), r.Table, r.Name, r.Type, optional(r.Parent), r.Unique, r.NullFiltered}
	}
	return out
}

func indexColumnValues(rows []IndexColumnRow) [][]any {
	out := make([][]any, len(rows))
	for i, r := range rows {
		var ordinal *int64
		if r.Ordinal.Valid {
			ordinal = &r.Ordinal.Int64
		}
		out[i] = []any{int32(i), r.Table, r.Index, r.Column, ordinal, optional(r.Ordering)}
	}
	return out
}
