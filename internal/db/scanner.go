package db

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/tordrt/spannerddl/internal/schema"
)

// RowSource reads the metadata streams of one database. Each method must
// return rows already ordered: tables, then columns by table and ordinal
// position, then indexes and their columns.
type RowSource interface {
	TableRows(ctx context.Context) ([]TableRow, error)
	ColumnRows(ctx context.Context) ([]ColumnRow, error)
	IndexRows(ctx context.Context) ([]IndexRow, error)
	IndexColumnRows(ctx context.Context) ([]IndexColumnRow, error)
}

// Scanner handles schema extraction from a RowSource
type Scanner struct {
	source RowSource
}

// NewScanner creates a new schema scanner
func NewScanner(source RowSource) *Scanner {
	return &Scanner{source: source}
}

// ReadRows fetches all four streams concurrently
func (s *Scanner) ReadRows(ctx context.Context) (Rows, error) {
	var rows Rows
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		if rows.Tables, err = s.source.TableRows(ctx); err != nil {
			return fmt.Errorf("failed to list tables: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		if rows.Columns, err = s.source.ColumnRows(ctx); err != nil {
			return fmt.Errorf("failed to list columns: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		if rows.Indexes, err = s.source.IndexRows(ctx); err != nil {
			return fmt.Errorf("failed to list indexes: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		if rows.IndexColumns, err = s.source.IndexColumnRows(ctx); err != nil {
			return fmt.Errorf("failed to list index columns: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return Rows{}, err
	}
	return rows, nil
}

// Scan extracts the complete schema
func (s *Scanner) Scan(ctx context.Context) (*schema.Schema, error) {
	rows, err := s.ReadRows(ctx)
	if err != nil {
		return nil, err
	}
	return Fold(rows)
}
