package formatter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tordrt/spannerddl/internal/schema"
)

const (
	FormatMarkdown = "markdown"
	FormatDDL      = "ddl"
)

// MultiFileFormatter writes schema to multiple files in a directory
type MultiFileFormatter struct {
	OutputDir    string
	OutputFormat string // "ddl" or "markdown"
}

// NewMultiFileFormatter creates a new multi-file formatter
func NewMultiFileFormatter(outputDir, format string) *MultiFileFormatter {
	return &MultiFileFormatter{
		OutputDir:    outputDir,
		OutputFormat: format,
	}
}

// Format writes an overview of the interleave tree and one file per table
func (f *MultiFileFormatter) Format(s *schema.Schema) error {
	if f.OutputFormat != FormatDDL && f.OutputFormat != FormatMarkdown {
		return fmt.Errorf("invalid format: %s (must be '%s' or '%s')", f.OutputFormat, FormatDDL, FormatMarkdown)
	}

	nodes, err := s.Hierarchy()
	if err != nil {
		return fmt.Errorf("failed to render schema: %w", err)
	}

	// Create output directory if it doesn't exist
	if err := os.MkdirAll(f.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := f.writeOverview(nodes); err != nil {
		return fmt.Errorf("failed to write overview: %w", err)
	}

	for _, n := range nodes {
		if err := f.writeTableFile(n.Table); err != nil {
			return fmt.Errorf("failed to write table file for %s: %w", n.Table.Name, err)
		}
	}

	return nil
}

// writeOverview writes the overview file
func (f *MultiFileFormatter) writeOverview(nodes []schema.Node) error {
	ext := f.getFileExtension()
	filename := filepath.Join(f.OutputDir, "_overview"+ext)

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	if f.OutputFormat == FormatMarkdown {
		return writeMarkdownOverview(file, nodes, ext)
	}
	return writeDDLOverview(file, nodes, ext)
}

func writeMarkdownOverview(w io.Writer, nodes []schema.Node, ext string) error {
	_, _ = fmt.Fprintf(w, "# Schema Overview\n\n")
	_, _ = fmt.Fprintf(w, "Each table has a corresponding file: `<table_name>%s`\n\n", ext)
	_, _ = fmt.Fprintf(w, "## Tables\n\n")

	for _, n := range nodes {
		_, _ = fmt.Fprintf(w, "%s- **%s**", strings.Repeat("  ", n.Depth), n.Table.Name)
		if n.Table.OnDeleteCascade && !n.Table.IsRoot() {
			_, _ = fmt.Fprint(w, " (on delete cascade)")
		}
		_, _ = fmt.Fprintf(w, "\n")
	}

	return nil
}

func writeDDLOverview(w io.Writer, nodes []schema.Node, ext string) error {
	_, _ = fmt.Fprintf(w, "-- SCHEMA OVERVIEW\n")
	_, _ = fmt.Fprintf(w, "-- Each table has a file: <table_name>%s\n", ext)
	_, _ = fmt.Fprintf(w, "--\n")

	for _, n := range nodes {
		_, _ = fmt.Fprintf(w, "-- %s%s\n", strings.Repeat("  ", n.Depth), n.Table.Name)
	}

	return nil
}

// writeTableFile writes a single table to its own file
func (f *MultiFileFormatter) writeTableFile(table schema.Table) error {
	filename := filepath.Join(f.OutputDir, table.Name+f.getFileExtension())

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	if f.OutputFormat == FormatMarkdown {
		return NewMarkdownFormatter(file).FormatTable(table)
	}
	return NewDDLFormatter(file).FormatTable(table)
}

func (f *MultiFileFormatter) getFileExtension() string {
	if f.OutputFormat == FormatMarkdown {
		return ".md"
	}
	return ".sql"
}
