package schema

import (
	"fmt"
	"slices"
)

// Builder assembles a Schema from tables registered in any order. A table
// may be opened several times; each EndTable merges into the same entry.
type Builder struct {
	tables   map[string]Table
	order    []string
	roots    []string
	children map[string][]string
	err      error
}

// NewBuilder creates an empty schema builder
func NewBuilder() *Builder {
	return &Builder{
		tables:   make(map[string]Table),
		children: make(map[string][]string),
	}
}

// CreateTable opens a table builder. If the table was already added, the
// builder starts from its current state.
func (b *Builder) CreateTable(name string) *TableBuilder {
	if t, ok := b.tables[name]; ok {
		return &TableBuilder{parent: b, table: t.clone()}
	}
	return &TableBuilder{parent: b, table: Table{Name: name}}
}

// AddTable validates t and registers it, replacing any table of the same name
func (b *Builder) AddTable(t Table) error {
	if err := validateTable(t); err != nil {
		return err
	}
	b.addTable(t.clone())
	return nil
}

func (b *Builder) addTable(t Table) {
	old, exists := b.tables[t.Name]
	if !exists {
		b.order = append(b.order, t.Name)
	}
	if !exists || old.InterleaveInParent != t.InterleaveInParent {
		if exists {
			b.unlink(old.InterleaveInParent, t.Name)
		}
		b.link(t.InterleaveInParent, t.Name)
	}
	b.tables[t.Name] = t
}

func (b *Builder) link(parent, name string) {
	if parent == "" {
		b.roots = append(b.roots, name)
		return
	}
	b.children[parent] = append(b.children[parent], name)
}

func (b *Builder) unlink(parent, name string) {
	if parent == "" {
		b.roots = slices.DeleteFunc(b.roots, func(n string) bool { return n == name })
		return
	}
	kids := slices.DeleteFunc(b.children[parent], func(n string) bool { return n == name })
	if len(kids) == 0 {
		delete(b.children, parent)
		return
	}
	b.children[parent] = kids
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Err returns the first error recorded by a finished sub-builder
func (b *Builder) Err() error {
	return b.err
}

// Build freezes the builder into a Schema
func (b *Builder) Build() (*Schema, error) {
	if b.err != nil {
		return nil, b.err
	}

	owners := make(map[string]string)
	for _, name := range b.order {
		for _, idx := range b.tables[name].Indexes {
			if owner, dup := owners[idx.Name]; dup {
				return nil, fmt.Errorf("%w: index %q is declared on both %q and %q", ErrMalformedSchema, idx.Name, owner, name)
			}
			owners[idx.Name] = name
		}
	}

	s := &Schema{
		tables:   make(map[string]Table, len(b.tables)),
		order:    slices.Clone(b.order),
		roots:    slices.Clone(b.roots),
		children: make(map[string][]string, len(b.children)),
	}
	for name, t := range b.tables {
		s.tables[name] = t.clone()
	}
	for parent, kids := range b.children {
		s.children[parent] = slices.Clone(kids)
	}
	return s, nil
}

// TableBuilder accumulates one table
type TableBuilder struct {
	parent *Builder
	table  Table
	err    error
}

// InterleaveInParent nests the table under parent. An empty name makes it a
// root table.
func (t *TableBuilder) InterleaveInParent(parent string) *TableBuilder {
	t.table.InterleaveInParent = parent
	return t
}

// OnDeleteCascade deletes child rows together with the parent row
func (t *TableBuilder) OnDeleteCascade() *TableBuilder {
	t.table.OnDeleteCascade = true
	return t
}

// SetOnDeleteCascade sets the cascade flag explicitly
func (t *TableBuilder) SetOnDeleteCascade(cascade bool) *TableBuilder {
	t.table.OnDeleteCascade = cascade
	return t
}

// Column opens a builder for a new column appended to the table
func (t *TableBuilder) Column(name string) *ColumnBuilder {
	return &ColumnBuilder{parent: t, column: Column{Name: name}}
}

// PrimaryKey opens the primary key column list, replacing any previous key
func (t *TableBuilder) PrimaryKey() *IndexColumnsBuilder[*TableBuilder] {
	return &IndexColumnsBuilder[*TableBuilder]{
		parent: t,
		done:   func(cols []IndexColumn) { t.table.PrimaryKey = cols },
	}
}

// CreateIndex opens a builder for a new index on the table
func (t *TableBuilder) CreateIndex(name string) *IndexBuilder {
	return &IndexBuilder{parent: t, index: Index{Name: name, Table: t.table.Name}}
}

func (t *TableBuilder) fail(err error) {
	if t.err == nil {
		t.err = err
	}
}

// Build validates and returns the table without registering it
func (t *TableBuilder) Build() (Table, error) {
	if t.err != nil {
		return Table{}, t.err
	}
	if err := validateTable(t.table); err != nil {
		return Table{}, err
	}
	return t.table.clone(), nil
}

// EndTable registers the table with the schema builder and returns it
func (t *TableBuilder) EndTable() *Builder {
	table, err := t.Build()
	if err != nil {
		t.parent.fail(err)
		return t.parent
	}
	t.parent.addTable(table)
	return t.parent
}

func validateTable(t Table) error {
	if t.Name == "" {
		return fmt.Errorf("%w: table name is required", ErrMalformedSchema)
	}

	seen := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		if err := validateColumn(c); err != nil {
			return fmt.Errorf("table %q: %w", t.Name, err)
		}
		if seen[c.Name] {
			return fmt.Errorf("%w: table %q declares column %q twice", ErrMalformedSchema, t.Name, c.Name)
		}
		seen[c.Name] = true
	}

	for _, c := range t.PrimaryKey {
		if c.Name == "" {
			return fmt.Errorf("%w: table %q has an unnamed primary key column", ErrMalformedSchema, t.Name)
		}
		if !c.IsKey() {
			return fmt.Errorf("%w: table %q primary key column %q cannot be STORING", ErrMalformedSchema, t.Name, c.Name)
		}
	}

	names := make(map[string]bool, len(t.Indexes))
	for _, idx := range t.Indexes {
		if err := validateIndex(idx); err != nil {
			return fmt.Errorf("table %q: %w", t.Name, err)
		}
		if idx.Table != t.Name {
			return fmt.Errorf("%w: index %q targets %q but is owned by %q", ErrMalformedSchema, idx.Name, idx.Table, t.Name)
		}
		if names[idx.Name] {
			return fmt.Errorf("%w: table %q declares index %q twice", ErrMalformedSchema, t.Name, idx.Name)
		}
		names[idx.Name] = true
	}
	return nil
}

// ColumnBuilder accumulates one column
type ColumnBuilder struct {
	parent  *TableBuilder
	column  Column
	typ     Type
	hasType bool
	size    Size
	err     error
}

// Type sets the column type. A size carried by t is kept unless Size or Max
// is called afterwards.
func (c *ColumnBuilder) Type(t Type) *ColumnBuilder {
	c.typ = t
	c.hasType = true
	c.size = t.Scalar().Size
	return c
}

func (c *ColumnBuilder) Bool() *ColumnBuilder      { return c.Type(Bool()) }
func (c *ColumnBuilder) Int64() *ColumnBuilder     { return c.Type(Int64()) }
func (c *ColumnBuilder) Float64() *ColumnBuilder   { return c.Type(Float64()) }
func (c *ColumnBuilder) Date() *ColumnBuilder      { return c.Type(Date()) }
func (c *ColumnBuilder) Timestamp() *ColumnBuilder { return c.Type(Timestamp()) }

// String sets a STRING type; the bound comes from Size or Max
func (c *ColumnBuilder) String() *ColumnBuilder { return c.Type(String(NoSize)) }

// Bytes sets a BYTES type; the bound comes from Size or Max
func (c *ColumnBuilder) Bytes() *ColumnBuilder { return c.Type(Bytes(NoSize)) }

// Array wraps the current type in an ARRAY
func (c *ColumnBuilder) Array() *ColumnBuilder {
	if !c.hasType {
		c.fail(fmt.Errorf("%w: column %q: ARRAY needs an element type", ErrMalformedSchema, c.column.Name))
		return c
	}
	c.typ = Array(c.typ)
	return c
}

// Size sets the length bound of a STRING or BYTES column
func (c *ColumnBuilder) Size(n int64) *ColumnBuilder {
	c.size = Size(n)
	return c
}

// Max makes the length bound unbounded
func (c *ColumnBuilder) Max() *ColumnBuilder {
	c.size = MaxSize
	return c
}

// ParseType sets type and size from Spanner type text such as STRING(MAX)
func (c *ColumnBuilder) ParseType(text string) *ColumnBuilder {
	t, err := ParseType(text)
	if err != nil {
		c.fail(fmt.Errorf("column %q: %w", c.column.Name, err))
		return c
	}
	return c.Type(t)
}

// NotNull marks the column as NOT NULL
func (c *ColumnBuilder) NotNull() *ColumnBuilder {
	c.column.NotNull = true
	return c
}

// Nullable sets whether the column accepts NULL
func (c *ColumnBuilder) Nullable(nullable bool) *ColumnBuilder {
	c.column.NotNull = !nullable
	return c
}

func (c *ColumnBuilder) fail(err error) {
	if c.err == nil {
		c.err = err
	}
}

// Build validates and returns the column without registering it
func (c *ColumnBuilder) Build() (Column, error) {
	if c.err != nil {
		return Column{}, c.err
	}
	if !c.hasType {
		return Column{}, fmt.Errorf("%w: column %q has no type", ErrMalformedSchema, c.column.Name)
	}
	col := c.column
	col.Type = c.typ.withSize(c.size)
	if err := validateColumn(col); err != nil {
		return Column{}, err
	}
	return col, nil
}

// EndColumn appends the column to its table and returns the table builder
func (c *ColumnBuilder) EndColumn() *TableBuilder {
	col, err := c.Build()
	if err != nil {
		c.parent.fail(fmt.Errorf("table %q: %w", c.parent.table.Name, err))
		return c.parent
	}
	c.parent.table.Columns = append(c.parent.table.Columns, col)
	return c.parent
}

func validateColumn(c Column) error {
	if c.Name == "" {
		return fmt.Errorf("%w: column name is required", ErrMalformedSchema)
	}
	if c.Type.Kind == 0 {
		return fmt.Errorf("%w: column %q has no type", ErrMalformedSchema, c.Name)
	}
	size := c.Type.Scalar().Size
	if c.Type.Sized() && size == NoSize {
		return fmt.Errorf("%w: column %q: %w: %s requires a size bound",
			ErrMalformedSchema, c.Name, ErrInvalidType, scalarKeywords[c.Type.Scalar().Kind])
	}
	if !c.Type.Sized() && size != NoSize {
		return fmt.Errorf("%w: column %q: %w: %s takes no size bound",
			ErrMalformedSchema, c.Name, ErrInvalidType, scalarKeywords[c.Type.Scalar().Kind])
	}
	if _, err := FormatType(c.Type); err != nil {
		return fmt.Errorf("%w: column %q: %w", ErrMalformedSchema, c.Name, err)
	}
	return nil
}

// IndexBuilder accumulates one secondary index
type IndexBuilder struct {
	parent *TableBuilder
	index  Index
}

func (i *IndexBuilder) Unique() *IndexBuilder {
	i.index.Unique = true
	return i
}

func (i *IndexBuilder) NullFiltered() *IndexBuilder {
	i.index.NullFiltered = true
	return i
}

// InterleaveIn co-locates the index with table
func (i *IndexBuilder) InterleaveIn(table string) *IndexBuilder {
	i.index.InterleaveIn = table
	return i
}

// Columns opens the index column list, replacing any previous list
func (i *IndexBuilder) Columns() *IndexColumnsBuilder[*IndexBuilder] {
	return &IndexColumnsBuilder[*IndexBuilder]{
		parent: i,
		done:   func(cols []IndexColumn) { i.index.Columns = cols },
	}
}

// Build validates and returns the index without registering it
func (i *IndexBuilder) Build() (Index, error) {
	if err := validateIndex(i.index); err != nil {
		return Index{}, err
	}
	idx := i.index
	idx.Columns = slices.Clone(i.index.Columns)
	return idx, nil
}

// EndIndex appends the index to its table and returns the table builder
func (i *IndexBuilder) EndIndex() *TableBuilder {
	idx, err := i.Build()
	if err != nil {
		i.parent.fail(fmt.Errorf("table %q: %w", i.parent.table.Name, err))
		return i.parent
	}
	i.parent.table.Indexes = append(i.parent.table.Indexes, idx)
	return i.parent
}

func validateIndex(idx Index) error {
	if idx.Name == "" {
		return fmt.Errorf("%w: index name is required", ErrMalformedSchema)
	}
	if idx.Table == "" {
		return fmt.Errorf("%w: index %q has no table", ErrMalformedSchema, idx.Name)
	}
	if len(idx.KeyColumns()) == 0 {
		return fmt.Errorf("%w: index %q has no key columns", ErrMalformedSchema, idx.Name)
	}
	for _, c := range idx.Columns {
		if c.Name == "" {
			return fmt.Errorf("%w: index %q has an unnamed column", ErrMalformedSchema, idx.Name)
		}
	}
	return nil
}

// IndexColumnsBuilder collects an ordered column list and hands it back to
// the index or table that opened it
type IndexColumnsBuilder[P any] struct {
	parent  P
	columns []IndexColumn
	done    func([]IndexColumn)
}

func (b *IndexColumnsBuilder[P]) Asc(name string) *IndexColumnsBuilder[P] {
	return b.Add(name, Ascending)
}

func (b *IndexColumnsBuilder[P]) Desc(name string) *IndexColumnsBuilder[P] {
	return b.Add(name, Descending)
}

func (b *IndexColumnsBuilder[P]) Storing(name string) *IndexColumnsBuilder[P] {
	return b.Add(name, Storing)
}

// Add appends a column with an explicit direction
func (b *IndexColumnsBuilder[P]) Add(name string, dir Direction) *IndexColumnsBuilder[P] {
	b.columns = append(b.columns, IndexColumn{Name: name, Direction: dir})
	return b
}

// End hands the list to the parent builder and returns it. The list is
// never nil, so an empty primary key stays declared.
func (b *IndexColumnsBuilder[P]) End() P {
	b.done(append([]IndexColumn{}, b.columns...))
	return b.parent
}
