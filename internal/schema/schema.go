// Package schema models a Cloud Spanner database schema: tables, columns,
// indexes, primary keys and the interleave hierarchy that nests child tables
// under their parents.
//
// A Schema is assembled through a Builder and is immutable afterwards, so it
// can be read from any number of goroutines. Accessors return copies.
package schema

import (
	"errors"
	"fmt"
)

// Schema represents a complete database schema
type Schema struct {
	tables   map[string]Table
	order    []string
	roots    []string
	children map[string][]string
}

// Node is a table positioned in the interleave hierarchy. Root tables have
// depth 0.
type Node struct {
	Table Table
	Depth int
}

// Len returns the number of tables
func (s *Schema) Len() int {
	return len(s.order)
}

// Tables returns all tables in the order they were first added
func (s *Schema) Tables() []Table {
	out := make([]Table, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.tables[name].clone())
	}
	return out
}

// Table looks up a table by name
func (s *Schema) Table(name string) (Table, bool) {
	t, ok := s.tables[name]
	if !ok {
		return Table{}, false
	}
	return t.clone(), true
}

// RootTables returns the tables that are not interleaved in a parent
func (s *Schema) RootTables() []Table {
	return s.lookup(s.roots)
}

// Children returns the tables interleaved directly in parent
func (s *Schema) Children(parent string) []Table {
	return s.lookup(s.children[parent])
}

func (s *Schema) lookup(names []string) []Table {
	out := make([]Table, 0, len(names))
	for _, name := range names {
		out = append(out, s.tables[name].clone())
	}
	return out
}

// Hierarchy returns every table in pre-order: each root table in insertion
// order, followed depth first by its descendants. It fails with
// ErrCyclicSchema when the interleave relation is not a forest and with
// ErrUnknownReference when a table names a parent that does not exist.
func (s *Schema) Hierarchy() ([]Node, error) {
	type frame struct {
		name  string
		depth int
	}

	stack := make([]frame, 0, len(s.roots))
	for i := len(s.roots) - 1; i >= 0; i-- {
		stack = append(stack, frame{name: s.roots[i]})
	}

	visited := make(map[string]bool, len(s.order))
	nodes := make([]Node, 0, len(s.order))
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if visited[f.name] {
			return nil, fmt.Errorf("%w: table %q reached twice", ErrCyclicSchema, f.name)
		}
		visited[f.name] = true
		nodes = append(nodes, Node{Table: s.tables[f.name].clone(), Depth: f.depth})

		kids := s.children[f.name]
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, frame{name: kids[i], depth: f.depth + 1})
		}
	}

	if len(visited) < len(s.order) {
		for _, name := range s.order {
			if !visited[name] {
				return nil, s.unreachable(name)
			}
		}
	}
	return nodes, nil
}

// unreachable explains why name cannot be reached from any root table
func (s *Schema) unreachable(name string) error {
	seen := map[string]bool{name: true}
	for cur := name; ; {
		parent := s.tables[cur].InterleaveInParent
		if _, ok := s.tables[parent]; !ok {
			return fmt.Errorf("%w: table %q is interleaved in unknown table %q", ErrUnknownReference, cur, parent)
		}
		if seen[parent] {
			return fmt.Errorf("%w: interleave cycle through table %q", ErrCyclicSchema, parent)
		}
		seen[parent] = true
		cur = parent
	}
}

// Walk calls fn for every table in Hierarchy order. The hierarchy is
// validated before fn is first called.
func (s *Schema) Walk(fn func(n Node) error) error {
	nodes, err := s.Hierarchy()
	if err != nil {
		return err
	}
	for _, n := range nodes {
		if err := fn(n); err != nil {
			return err
		}
	}
	return nil
}

// CheckReferences verifies that primary keys and indexes only name columns
// of their table and that interleave targets exist
func (s *Schema) CheckReferences() error {
	var errs []error
	for _, name := range s.order {
		t := s.tables[name]
		for _, c := range t.PrimaryKey {
			if _, ok := t.Column(c.Name); !ok {
				errs = append(errs, fmt.Errorf("%w: primary key of %q names unknown column %q", ErrUnknownReference, t.Name, c.Name))
			}
		}
		if !t.IsRoot() {
			if _, ok := s.tables[t.InterleaveInParent]; !ok {
				errs = append(errs, fmt.Errorf("%w: table %q is interleaved in unknown table %q", ErrUnknownReference, t.Name, t.InterleaveInParent))
			}
		}
		for _, idx := range t.Indexes {
			for _, c := range idx.Columns {
				if _, ok := t.Column(c.Name); !ok {
					errs = append(errs, fmt.Errorf("%w: index %q names unknown column %q", ErrUnknownReference, idx.Name, c.Name))
				}
			}
			if idx.InterleaveIn != "" {
				if _, ok := s.tables[idx.InterleaveIn]; !ok {
					errs = append(errs, fmt.Errorf("%w: index %q is interleaved in unknown table %q", ErrUnknownReference, idx.Name, idx.InterleaveIn))
				}
			}
		}
	}
	return errors.Join(errs...)
}
