package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/spannerddl/internal/schema"
)

// columnWidth is the padded width of column names in CREATE TABLE bodies
const columnWidth = 40

// DDLFormatter formats schema as canonical Spanner DDL
type DDLFormatter struct {
	writer io.Writer
}

// NewDDLFormatter creates a new DDL formatter
func NewDDLFormatter(w io.Writer) *DDLFormatter {
	return &DDLFormatter{writer: w}
}

// Format writes the rendered schema followed by a newline. Nothing is
// written when rendering fails.
func (f *DDLFormatter) Format(s *schema.Schema) error {
	text, err := Render(s)
	if err != nil {
		return err
	}
	if text == "" {
		return nil
	}
	_, err = io.WriteString(f.writer, text+"\n")
	return err
}

// FormatTable writes a single table and its indexes (exported for use by multifile formatter)
func (f *DDLFormatter) FormatTable(table schema.Table) error {
	text, err := RenderTable(table)
	if err != nil {
		return err
	}
	_, err = io.WriteString(f.writer, text+"\n")
	return err
}

// Render returns the canonical DDL for s: every table in interleave
// pre-order, parents before children, joined by newlines
func Render(s *schema.Schema) (string, error) {
	var sb strings.Builder
	err := s.Walk(func(n schema.Node) error {
		text, err := RenderTable(n.Table)
		if err != nil {
			return err
		}
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(text)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to render schema: %w", err)
	}
	return sb.String(), nil
}

// RenderTable returns the CREATE TABLE statement for t followed by its
// CREATE INDEX statements
func RenderTable(t schema.Table) (string, error) {
	var sb strings.Builder
	sb.WriteString("CREATE TABLE ")
	sb.WriteString(t.Name)
	sb.WriteString(" (")
	for _, col := range t.Columns {
		text, err := RenderColumn(col)
		if err != nil {
			return "", fmt.Errorf("table %s: %w", t.Name, err)
		}
		sb.WriteString("\n\t")
		sb.WriteString(text)
		sb.WriteByte(',')
	}

	if t.HasPrimaryKey() {
		sb.WriteString("\n) PRIMARY KEY (")
		sb.WriteString(joinIndexColumns(t.PrimaryKey))
		sb.WriteByte(')')
	} else {
		sb.WriteString("\n)")
	}

	if !t.IsRoot() {
		sb.WriteString("\nINTERLEAVE IN PARENT ")
		sb.WriteString(t.InterleaveInParent)
		if t.OnDeleteCascade {
			sb.WriteString(" ON DELETE CASCADE")
		}
	}

	for _, idx := range t.Indexes {
		sb.WriteByte('\n')
		sb.WriteString(RenderIndex(idx))
	}
	return sb.String(), nil
}

// RenderColumn returns the padded column name, its type and NOT NULL when set
func RenderColumn(c schema.Column) (string, error) {
	typ, err := schema.FormatType(c.Type)
	if err != nil {
		return "", fmt.Errorf("column %s: %w", c.Name, err)
	}
	text := fmt.Sprintf("%-*s%s", columnWidth, c.Name, typ)
	if c.NotNull {
		text += " NOT NULL"
	}
	return text, nil
}

// RenderIndex returns the CREATE INDEX statement for idx
func RenderIndex(idx schema.Index) string {
	var sb strings.Builder
	sb.WriteString("CREATE")
	if idx.Unique {
		sb.WriteString(" UNIQUE")
	}
	if idx.NullFiltered {
		sb.WriteString(" NULL_FILTERED")
	}
	sb.WriteString(" INDEX ")
	sb.WriteString(idx.Name)
	sb.WriteString(" ON ")
	sb.WriteString(idx.Table)
	sb.WriteByte('(')
	sb.WriteString(joinIndexColumns(idx.KeyColumns()))
	sb.WriteByte(')')

	if storing := idx.StoringColumns(); len(storing) > 0 {
		sb.WriteString(" STORING (")
		sb.WriteString(strings.Join(storing, ", "))
		sb.WriteByte(')')
	}
	if idx.InterleaveIn != "" {
		sb.WriteString(" INTERLEAVE IN ")
		sb.WriteString(idx.InterleaveIn)
	}
	return sb.String()
}

// RenderIndexColumn returns "name DIRECTION"
func RenderIndexColumn(c schema.IndexColumn) string {
	return c.Name + " " + c.Direction.Keyword()
}

func joinIndexColumns(cols []schema.IndexColumn) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = RenderIndexColumn(c)
	}
	return strings.Join(parts, ", ")
}
