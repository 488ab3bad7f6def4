package schema

import "slices"

// Direction is the role of a column inside an index or primary key
type Direction int

const (
	Ascending Direction = iota
	Descending
	Storing
)

// Keyword returns the DDL keyword for the direction
func (d Direction) Keyword() string {
	switch d {
	case Descending:
		return "DESC"
	case Storing:
		return "STORING"
	default:
		return "ASC"
	}
}

// Column represents a table column. Columns accept NULL unless NotNull is set.
type Column struct {
	Name    string
	Type    Type
	NotNull bool
}

// Nullable reports whether the column accepts NULL
func (c Column) Nullable() bool {
	return !c.NotNull
}

// IndexColumn names a column of an index or primary key
type IndexColumn struct {
	Name      string
	Direction Direction
}

// IsKey reports whether the column is part of the sort key
func (c IndexColumn) IsKey() bool {
	return c.Direction != Storing
}

// Index represents a secondary index
type Index struct {
	Name         string
	Table        string
	Columns      []IndexColumn
	Unique       bool
	NullFiltered bool
	InterleaveIn string
}

// KeyColumns returns the sort key columns in declared order
func (i Index) KeyColumns() []IndexColumn {
	var out []IndexColumn
	for _, c := range i.Columns {
		if c.IsKey() {
			out = append(out, c)
		}
	}
	return out
}

// StoringColumns returns the names of the stored columns in declared order
func (i Index) StoringColumns() []string {
	var out []string
	for _, c := range i.Columns {
		if !c.IsKey() {
			out = append(out, c.Name)
		}
	}
	return out
}

// Table represents a database table. An empty InterleaveInParent marks a
// root table. A nil PrimaryKey means no key was declared; a non-nil empty
// one is the zero-column key of a single-row table.
type Table struct {
	Name               string
	Columns            []Column
	Indexes            []Index
	PrimaryKey         []IndexColumn
	InterleaveInParent string
	OnDeleteCascade    bool
}

// IsRoot reports whether the table is not interleaved in a parent
func (t Table) IsRoot() bool {
	return t.InterleaveInParent == ""
}

// HasPrimaryKey reports whether a primary key was declared, possibly empty
func (t Table) HasPrimaryKey() bool {
	return t.PrimaryKey != nil
}

// Column looks up a column by name
func (t Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

func (t Table) clone() Table {
	out := t
	out.Columns = slices.Clone(t.Columns)
	out.PrimaryKey = slices.Clone(t.PrimaryKey)
	if t.Indexes != nil {
		out.Indexes = make([]Index, len(t.Indexes))
		for i, idx := range t.Indexes {
			idx.Columns = slices.Clone(idx.Columns)
			out.Indexes[i] = idx
		}
	}
	return out
}
