package db

import (
	"cmp"
	"context"
	"database/sql"
	"fmt"
	"slices"

	"cloud.google.com/go/spanner"
)

// SpannerClient manages the connection to a Cloud Spanner database
type SpannerClient struct {
	client *spanner.Client
}

// NewSpannerClient connects to database, given as
// projects/<project>/instances/<instance>/databases/<database>.
// SPANNER_EMULATOR_HOST is honored by the underlying client.
func NewSpannerClient(ctx context.Context, database string) (*SpannerClient, error) {
	client, err := spanner.NewClient(ctx, database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &SpannerClient{client: client}, nil
}

// Close closes the client sessions
func (c *SpannerClient) Close() {
	c.client.Close()
}

// SpannerSource reads the live information_schema of the default schema
type SpannerSource struct {
	client *SpannerClient
}

// NewSpannerSource creates a source reading through client
func NewSpannerSource(client *SpannerClient) *SpannerSource {
	return &SpannerSource{client: client}
}

func (s *SpannerSource) query(ctx context.Context, sql string, fn func(row *spanner.Row) error) error {
	iter := s.client.client.Single().Query(ctx, spanner.NewStatement(sql))
	return iter.Do(fn)
}

func (s *SpannerSource) TableRows(ctx context.Context) ([]TableRow, error) {
	query := `
		SELECT t.table_name, t.parent_table_name, t.on_delete_action
		FROM information_schema.tables AS t
		WHERE t.table_catalog = '' AND t.table_schema = '' AND t.table_type = 'BASE TABLE'
		ORDER BY t.table_name
	`

	var out []TableRow
	err := s.query(ctx, query, func(row *spanner.Row) error {
		var r TableRow
		var parent, action spanner.NullString
		if err := row.Columns(&r.Name, &parent, &action); err != nil {
			return err
		}
		r.Parent = parent.StringVal
		r.OnDeleteAction = action.StringVal
		out = append(out, r)
		return nil
	})
	return out, err
}

func (s *SpannerSource) ColumnRows(ctx context.Context) ([]ColumnRow, error) {
	query := `
		SELECT c.table_name, c.column_name, c.ordinal_position, c.spanner_type, c.is_nullable
		FROM information_schema.columns AS c
		JOIN information_schema.tables AS t
			ON t.table_catalog = c.table_catalog
			AND t.table_schema = c.table_schema
			AND t.table_name = c.table_name
		WHERE c.table_catalog = '' AND c.table_schema = '' AND t.table_type = 'BASE TABLE'
		ORDER BY c.table_name, c.ordinal_position
	`

	var out []ColumnRow
	err := s.query(ctx, query, func(row *spanner.Row) error {
		var r ColumnRow
		if err := row.Columns(&r.Table, &r.Name, &r.Ordinal, &r.SpannerType, &r.IsNullable); err != nil {
			return err
		}
		out = append(out, r)
		return nil
	})
	return out, err
}

func (s *SpannerSource) IndexRows(ctx context.Context) ([]IndexRow, error) {
	query := `
		SELECT i.table_name, i.index_name, i.index_type, i.parent_table_name, i.is_unique, i.is_null_filtered
		FROM information_schema.indexes AS i
		WHERE i.table_catalog = '' AND i.table_schema = '' AND i.spanner_is_managed = FALSE
		ORDER BY i.table_name, i.index_name
	`

	var out []IndexRow
	err := s.query(ctx, query, func(row *spanner.Row) error {
		var r IndexRow
		var parent spanner.NullString
		if err := row.Columns(&r.Table, &r.Name, &r.Type, &parent, &r.Unique, &r.NullFiltered); err != nil {
			return err
		}
		r.Parent = parent.StringVal
		out = append(out, r)
		return nil
	})
	return out, err
}

func (s *SpannerSource) IndexColumnRows(ctx context.Context) ([]IndexColumnRow, error) {
	query := `
		SELECT ic.table_name, ic.index_name, ic.column_name, ic.ordinal_position, ic.column_ordering
		FROM information_schema.index_columns AS ic
		WHERE ic.table_catalog = '' AND ic.table_schema = ''
		ORDER BY ic.table_name, ic.index_name, ic.ordinal_position, ic.column_name
	`

	var out []IndexColumnRow
	err := s.query(ctx, query, func(row *spanner.Row) error {
		var r IndexColumnRow
		var ordinal spanner.NullInt64
		var ordering spanner.NullString
		if err := row.Columns(&r.Table, &r.Index, &r.Column, &ordinal, &ordering); err != nil {
			return err
		}
		r.Ordinal.Int64, r.Ordinal.Valid = ordinal.Int64, ordinal.Valid
		r.Ordering = ordering.StringVal
		out = append(out, r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortIndexColumnRows(out)
	return out, nil
}

// sortIndexColumnRows orders index columns by table and index, key columns
// first by ordinal position, then stored columns by name. Stored columns
// have no position in information_schema, so the name is their only stable
// order.
func sortIndexColumnRows(rows []IndexColumnRow) {
	slices.SortStableFunc(rows, func(a, b IndexColumnRow) int {
		return cmp.Or(
			cmp.Compare(a.Table, b.Table),
			cmp.Compare(a.Index, b.Index),
			compareOrdinal(a.Ordinal, b.Ordinal),
			cmp.Compare(a.Column, b.Column),
		)
	})
}

func compareOrdinal(a, b sql.NullInt64) int {
	switch {
	case a.Valid && b.Valid:
		return cmp.Compare(a.Int64, b.Int64)
	case a.Valid:
		return -1
	case b.Valid:
		return 1
	}
	return 0
}
