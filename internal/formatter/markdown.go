package formatter

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/spannerddl/internal/schema"
)

// MarkdownFormatter formats schema as markdown
type MarkdownFormatter struct {
	writer io.Writer
}

// NewMarkdownFormatter creates a new markdown formatter
func NewMarkdownFormatter(w io.Writer) *MarkdownFormatter {
	return &MarkdownFormatter{writer: w}
}

// Format writes the schema in markdown format, tables in interleave order
func (f *MarkdownFormatter) Format(s *schema.Schema) error {
	nodes, err := s.Hierarchy()
	if err != nil {
		return fmt.Errorf("failed to render schema: %w", err)
	}

	var buf bytes.Buffer
	_, _ = fmt.Fprintln(&buf, "# Database Schema")
	_, _ = fmt.Fprintln(&buf)
	for _, n := range nodes {
		if err := writeMarkdownTable(&buf, n.Table); err != nil {
			return err
		}
	}
	_, err = buf.WriteTo(f.writer)
	return err
}

// FormatTable formats a single table (exported for use by multifile formatter)
func (f *MarkdownFormatter) FormatTable(table schema.Table) error {
	return writeMarkdownTable(f.writer, table)
}

func writeMarkdownTable(w io.Writer, table schema.Table) error {
	_, _ = fmt.Fprintf(w, "## %s\n\n", table.Name)

	if !table.IsRoot() {
		cascade := ""
		if table.OnDeleteCascade {
			cascade = " (ON DELETE CASCADE)"
		}
		_, _ = fmt.Fprintf(w, "**Interleaved in:** %s%s\n\n", table.InterleaveInParent, cascade)
	}

	// Columns
	if len(table.Columns) > 0 {
		_, _ = fmt.Fprintln(w, "### Columns")
		_, _ = fmt.Fprintln(w)
		for _, col := range table.Columns {
			typ, err := schema.FormatType(col.Type)
			if err != nil {
				return fmt.Errorf("table %s column %s: %w", table.Name, col.Name, err)
			}
			if constraints := formatConstraints(col, table.PrimaryKey); constraints != "" {
				_, _ = fmt.Fprintf(w, "- **%s:** %s, %s\n", col.Name, typ, constraints)
			} else {
				_, _ = fmt.Fprintf(w, "- **%s:** %s\n", col.Name, typ)
			}
		}
		_, _ = fmt.Fprintln(w)
	}

	if table.HasPrimaryKey() {
		key := joinIndexColumns(table.PrimaryKey)
		if key == "" {
			key = "(empty, single row)"
		}
		_, _ = fmt.Fprintf(w, "**Primary key:** %s\n\n", key)
	}

	// Indexes
	if len(table.Indexes) > 0 {
		_, _ = fmt.Fprintln(w, "### Indexes")
		_, _ = fmt.Fprintln(w)
		for _, idx := range table.Indexes {
			_, _ = fmt.Fprintf(w, "- %s on (%s)%s\n", idx.Name, joinIndexColumns(idx.KeyColumns()), indexModifiers(idx))
		}
		_, _ = fmt.Fprintln(w)
	}

	return nil
}

func formatConstraints(col schema.Column, primaryKey []schema.IndexColumn) string {
	var constraints []string

	for _, pk := range primaryKey {
		if pk.Name == col.Name {
			constraints = append(constraints, "PK")
			break
		}
	}

	if col.NotNull {
		constraints = append(constraints, "NOT NULL")
	}

	return strings.Join(constraints, ", ")
}

func indexModifiers(idx schema.Index) string {
	var mods []string
	if idx.Unique {
		mods = append(mods, "unique")
	}
	if idx.NullFiltered {
		mods = append(mods, "null-filtered")
	}
	if storing := idx.StoringColumns(); len(storing) > 0 {
		mods = append(mods, "storing "+strings.Join(storing, ", "))
	}
	if idx.InterleaveIn != "" {
		mods = append(mods, "interleaved in "+idx.InterleaveIn)
	}
	if len(mods) == 0 {
		return ""
	}
	return ", " + strings.Join(mods, "; ")
}
