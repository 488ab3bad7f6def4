package formatter

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMarkdownFormatter(t *testing.T) {
	var buf bytes.Buffer
	if err := NewMarkdownFormatter(&buf).Format(singersSchema(t)); err != nil {
		t.Fatalf("Format() unexpected error: %v", err)
	}
	output := buf.String()

	wantLines := []string{
		"# Database Schema",
		"## Singers",
		"- **SingerId:** INT64, PK, NOT NULL",
		"- **SingerInfo:** BYTES(MAX)",
		"**Primary key:** SingerId ASC",
		"**Interleaved in:** Singers (ON DELETE CASCADE)",
		"**Primary key:** SingerId ASC, AlbumId DESC",
		"- AlbumsByAlbumTitle on (AlbumTitle DESC), unique; null-filtered; storing MarketingBudget",
	}
	for _, line := range wantLines {
		if !strings.Contains(output, line+"\n") {
			t.Errorf("markdown output missing line %q\n%s", line, output)
		}
	}
	if strings.Index(output, "## Singers") > strings.Index(output, "## Albums") {
		t.Error("Singers should be rendered before Albums")
	}
}

func TestMultiFileFormatter(t *testing.T) {
	tests := []struct {
		format       string
		wantFiles    []string
		wantOverview []string
	}{
		{
			format:       FormatDDL,
			wantFiles:    []string{"_overview.sql", "Singers.sql", "Albums.sql"},
			wantOverview: []string{"-- Singers\n", "--   Albums\n"},
		},
		{
			format:       FormatMarkdown,
			wantFiles:    []string{"_overview.md", "Singers.md", "Albums.md"},
			wantOverview: []string{"- **Singers**\n", "  - **Albums** (on delete cascade)\n"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			dir := t.TempDir()
			if err := NewMultiFileFormatter(dir, tt.format).Format(singersSchema(t)); err != nil {
				t.Fatalf("Format() unexpected error: %v", err)
			}
			for _, name := range tt.wantFiles {
				if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
					t.Errorf("expected %s to be created: %v", name, err)
				}
			}

			overview, err := os.ReadFile(filepath.Join(dir, tt.wantFiles[0]))
			if err != nil {
				t.Fatalf("failed to read overview: %v", err)
			}
			for _, want := range tt.wantOverview {
				if !strings.Contains(string(overview), want) {
					t.Errorf("overview missing %q\n%s", want, overview)
				}
			}
		})
	}
}

func TestMultiFileFormatterDDLTableFile(t *testing.T) {
	dir := t.TempDir()
	if err := NewMultiFileFormatter(dir, FormatDDL).Format(singersSchema(t)); err != nil {
		t.Fatalf("Format() unexpected error: %v", err)
	}
	content, err := os.ReadFile(filepath.Join(dir, "Albums.sql"))
	if err != nil {
		t.Fatalf("failed to read Albums.sql: %v", err)
	}
	want := canonicalDDL[strings.Index(canonicalDDL, "CREATE TABLE Albums"):] + "\n"
	if string(content) != want {
		t.Errorf("Albums.sql = %q, want %q", content, want)
	}
}

func TestMultiFileFormatterInvalidFormat(t *testing.T) {
	if err := NewMultiFileFormatter(t.TempDir(), "text").Format(singersSchema(t)); err == nil {
		t.Error("expected error for unknown format")
	}
}
