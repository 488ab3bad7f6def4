package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"

	"github.com/tordrt/spannerddl/internal/schema"
)

// SQLClient manages a database/sql connection to a SQLite or MySQL
// database holding a schema snapshot
type SQLClient struct {
	db     *sql.DB
	driver string
}

// NewSQLiteClient opens the SQLite database at path
func NewSQLiteClient(ctx context.Context, path string) (*SQLClient, error) {
	return openSQL(ctx, "sqlite3", path)
}

// NewMySQLClient opens a MySQL database from a go-sql-driver DSN
func NewMySQLClient(ctx context.Context, dsn string) (*SQLClient, error) {
	return openSQL(ctx, "mysql", dsn)
}

func openSQL(ctx context.Context, driver, dsn string) (*SQLClient, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test the connection
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLClient{db: db, driver: driver}, nil
}

// Close closes the database connection
func (c *SQLClient) Close() error {
	return c.db.Close()
}

// GetDB returns the underlying database connection
func (c *SQLClient) GetDB() *sql.DB {
	return c.db
}

// Driver returns the database/sql driver name
func (c *SQLClient) Driver() string {
	return c.driver
}

// Source returns a RowSource over the client's snapshot
func (c *SQLClient) Source() *SQLSource {
	return NewSQLSource(c.db)
}

// WriteSnapshot replaces the client's snapshot with s
func (c *SQLClient) WriteSnapshot(ctx context.Context, s *schema.Schema) error {
	return WriteSnapshot(ctx, c.db, s)
}
