package db

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/tordrt/spannerddl/internal/schema"
)

// PrimaryKeyIndex is the index type and name information_schema uses for
// a table's primary key
const PrimaryKeyIndex = "PRIMARY_KEY"

// TableRow is one row of information_schema.tables
type TableRow struct {
	Name           string
	Parent         string // empty for root tables
	OnDeleteAction string // CASCADE or NO ACTION
}

// ColumnRow is one row of information_schema.columns
type ColumnRow struct {
	Table       string
	Name        string
	Ordinal     int64
	SpannerType string
	IsNullable  string
}

// IndexRow is one row of information_schema.indexes
type IndexRow struct {
	Table        string
	Name         string
	Type         string // INDEX or PRIMARY_KEY
	Parent       string
	Unique       bool
	NullFiltered bool
}

// IndexColumnRow is one row of information_schema.index_columns. Stored
// columns have no ordinal position.
type IndexColumnRow struct {
	Table    string
	Index    string
	Column   string
	Ordinal  sql.NullInt64
	Ordering string
}

// Rows holds the metadata streams of one schema, each in source order
type Rows struct {
	Tables       []TableRow
	Columns      []ColumnRow
	Indexes      []IndexRow
	IndexColumns []IndexColumnRow
}

type indexKey struct {
	table string
	index string
}

// Fold builds a schema from metadata rows in a single forward pass: tables
// and their parents first, then columns, then keys and indexes
func Fold(rows Rows) (*schema.Schema, error) {
	b := schema.NewBuilder()

	for _, r := range rows.Tables {
		b.CreateTable(r.Name).
			InterleaveInParent(r.Parent).
			SetOnDeleteCascade(strings.EqualFold(r.OnDeleteAction, "CASCADE")).
			EndTable()
	}

	for _, r := range rows.Columns {
		b.CreateTable(r.Table).
			Column(r.Name).ParseType(r.SpannerType).Nullable(isNullable(r.IsNullable)).EndColumn().
			EndTable()
	}

	columns := make(map[indexKey][]schema.IndexColumn)
	for _, r := range rows.IndexColumns {
		key := indexKey{table: r.Table, index: r.Index}
		columns[key] = append(columns[key], schema.IndexColumn{Name: r.Column, Direction: direction(r)})
	}

	for _, r := range rows.Indexes {
		cols := columns[indexKey{table: r.Table, index: r.Name}]
		tb := b.CreateTable(r.Table)

		if r.Type == PrimaryKeyIndex {
			pk := tb.PrimaryKey()
			for _, c := range cols {
				pk.Add(c.Name, c.Direction)
			}
			pk.End().EndTable()
			continue
		}

		ib := tb.CreateIndex(r.Name).InterleaveIn(r.Parent)
		if r.Unique {
			ib.Unique()
		}
		if r.NullFiltered {
			ib.NullFiltered()
		}
		cb := ib.Columns()
		for _, c := range cols {
			cb.Add(c.Name, c.Direction)
		}
		cb.End().EndIndex().EndTable()
	}

	s, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build schema: %w", err)
	}
	return s, nil
}

func isNullable(v string) bool {
	return strings.EqualFold(v, "true") || strings.EqualFold(v, "YES")
}

func direction(r IndexColumnRow) schema.Direction {
	if !r.Ordinal.Valid {
		return schema.Storing
	}
	if strings.EqualFold(r.Ordering, "DESC") {
		return schema.Descending
	}
	return schema.Ascending
}

// Unfold is the inverse of Fold: it flattens s into metadata rows, tables
// in insertion order
func Unfold(s *schema.Schema) (Rows, error) {
	var rows Rows
	for _, t := range s.Tables() {
		action := "NO ACTION"
		if t.OnDeleteCascade {
			action = "CASCADE"
		}
		rows.Tables = append(rows.Tables, TableRow{Name: t.Name, Parent: t.InterleaveInParent, OnDeleteAction: action})

		for i, c := range t.Columns {
			typ, err := schema.FormatType(c.Type)
			if err != nil {
				return Rows{}, fmt.Errorf("table %s column %s: %w", t.Name, c.Name, err)
			}
			nullable := "YES"
			if c.NotNull {
				nullable = "NO"
			}
			rows.Columns = append(rows.Columns, ColumnRow{
				Table:       t.Name,
				Name:        c.Name,
				Ordinal:     int64(i + 1),
				SpannerType: typ,
				IsNullable:  nullable,
			})
		}

		if t.HasPrimaryKey() {
			rows.Indexes = append(rows.Indexes, IndexRow{Table: t.Name, Name: PrimaryKeyIndex, Type: PrimaryKeyIndex, Unique: true})
			rows.IndexColumns = append(rows.IndexColumns, indexColumnRows(t.Name, PrimaryKeyIndex, t.PrimaryKey)...)
		}
		for _, idx := range t.Indexes {
			rows.Indexes = append(rows.Indexes, IndexRow{
				Table:        t.Name,
				Name:         idx.Name,
				Type:         "INDEX",
				Parent:       idx.InterleaveIn,
				Unique:       idx.Unique,
				NullFiltered: idx.NullFiltered,
			})
			rows.IndexColumns = append(rows.IndexColumns, indexColumnRows(t.Name, idx.Name, idx.Columns)...)
		}
	}
	return rows, nil
}

func indexColumnRows(table, index string, cols []schema.IndexColumn) []IndexColumnRow {
	out := make([]IndexColumnRow, 0, len(cols))
	ordinal := int64(0)
	for _, c := range cols {
		r := IndexColumnRow{Table: table, Index: index, Column: c.Name}
		if c.IsKey() {
			ordinal++
			r.Ordinal = sql.NullInt64{Int64: ordinal, Valid: true}
			r.Ordering = c.Direction.Keyword()
		}
		out = append(out, r)
	}
	return out
}
