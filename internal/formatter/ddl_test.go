package formatter

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/tordrt/spannerddl/internal/schema"
)

const canonicalDDL = "CREATE TABLE Singers (\n" +
	"\tSingerId                                INT64 NOT NULL,\n" +
	"\tFirstName                               STRING(1024),\n" +
	"\tLastName                                STRING(1024),\n" +
	"\tSingerInfo                              BYTES(MAX),\n" +
	") PRIMARY KEY (SingerId ASC)\n" +
	"CREATE TABLE Albums (\n" +
	"\tSingerId                                INT64 NOT NULL,\n" +
	"\tAlbumId                                 INT64 NOT NULL,\n" +
	"\tAlbumTitle                              STRING(1024),\n" +
	") PRIMARY KEY (SingerId ASC, AlbumId DESC)\n" +
	"INTERLEAVE IN PARENT Singers ON DELETE CASCADE\n" +
	"CREATE UNIQUE NULL_FILTERED INDEX AlbumsByAlbumTitle ON Albums(AlbumTitle DESC) " +
	"STORING (MarketingBudget)"

func singersSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.NewBuilder().
		CreateTable("Singers").
		Column("SingerId").Int64().NotNull().EndColumn().
		Column("FirstName").String().Size(1024).EndColumn().
		Column("LastName").String().Size(1024).EndColumn().
		Column("SingerInfo").Bytes().Max().EndColumn().
		PrimaryKey().Asc("SingerId").End().
		EndTable().
		CreateTable("Albums").
		Column("SingerId").Int64().NotNull().EndColumn().
		Column("AlbumId").Int64().NotNull().EndColumn().
		Column("AlbumTitle").String().Size(1024).EndColumn().
		PrimaryKey().Asc("SingerId").Desc("AlbumId").End().
		InterleaveInParent("Singers").OnDeleteCascade().
		CreateIndex("AlbumsByAlbumTitle").
		Unique().
		NullFiltered().
		Columns().
		Desc("AlbumTitle").
		Storing("MarketingBudget").
		End().
		EndIndex().
		EndTable().
		Build()
	if err != nil {
		t.Fatalf("Build() unexpected error: %v", err)
	}
	return s
}

func TestRenderCanonical(t *testing.T) {
	got, err := Render(singersSchema(t))
	if err != nil {
		t.Fatalf("Render() unexpected error: %v", err)
	}
	if got != canonicalDDL {
		t.Errorf("Render() mismatch\ngot:\n%s\nwant:\n%s", got, canonicalDDL)
	}
}

func TestRenderChildDeclaredFirst(t *testing.T) {
	b := schema.NewBuilder()
	b.CreateTable("Albums").InterleaveInParent("Singers").Column("AlbumId").Int64().EndColumn().EndTable()
	b.CreateTable("Singers").Column("SingerId").Int64().EndColumn().EndTable()
	s, err := b.Build()
	if err != nil {
		t.Fatalf("Build() unexpected error: %v", err)
	}

	got, err := Render(s)
	if err != nil {
		t.Fatalf("Render() unexpected error: %v", err)
	}
	if strings.Index(got, "CREATE TABLE Singers") > strings.Index(got, "CREATE TABLE Albums") {
		t.Errorf("parent rendered after child:\n%s", got)
	}
}

func TestRenderTable(t *testing.T) {
	tests := []struct {
		name  string
		table schema.Table
		want  string
	}{
		{
			name:  "no columns no key",
			table: schema.Table{Name: "Empty"},
			want:  "CREATE TABLE Empty (\n)",
		},
		{
			name: "interleaved without cascade",
			table: schema.Table{
				Name:               "Child",
				Columns:            []schema.Column{{Name: "Tags", Type: schema.Array(schema.String(schema.MaxSize))}},
				PrimaryKey:         []schema.IndexColumn{{Name: "Tags"}},
				InterleaveInParent: "Parent",
			},
			want: "CREATE TABLE Child (\n" +
				"\tTags                                    ARRAY<STRING(MAX)>,\n" +
				") PRIMARY KEY (Tags ASC)\n" +
				"INTERLEAVE IN PARENT Parent",
		},
		{
			name: "declared empty primary key",
			table: schema.Table{
				Name:       "Singleton",
				Columns:    []schema.Column{{Name: "V", Type: schema.Int64()}},
				PrimaryKey: []schema.IndexColumn{},
			},
			want: "CREATE TABLE Singleton (\n" +
				"\tV                                       INT64,\n" +
				") PRIMARY KEY ()",
		},
		{
			name: "cascade ignored on root table",
			table: schema.Table{
				Name:            "Root",
				Columns:         []schema.Column{{Name: "Id", Type: schema.Int64(), NotNull: true}},
				OnDeleteCascade: true,
			},
			want: "CREATE TABLE Root (\n" +
				"\tId                                      INT64 NOT NULL,\n" +
				")",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RenderTable(tt.table)
			if err != nil {
				t.Fatalf("RenderTable() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("RenderTable() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderIndex(t *testing.T) {
	tests := []struct {
		name  string
		index schema.Index
		want  string
	}{
		{
			name: "plain",
			index: schema.Index{Name: "ByName", Table: "T", Columns: []schema.IndexColumn{
				{Name: "Last", Direction: schema.Ascending},
				{Name: "First", Direction: schema.Descending},
			}},
			want: "CREATE INDEX ByName ON T(Last ASC, First DESC)",
		},
		{
			name: "null filtered only",
			index: schema.Index{Name: "I", Table: "T", NullFiltered: true, Columns: []schema.IndexColumn{
				{Name: "A"},
			}},
			want: "CREATE NULL_FILTERED INDEX I ON T(A ASC)",
		},
		{
			name: "unique only",
			index: schema.Index{Name: "I", Table: "T", Unique: true, Columns: []schema.IndexColumn{
				{Name: "A"},
			}},
			want: "CREATE UNIQUE INDEX I ON T(A ASC)",
		},
		{
			name: "storing interleaved between keys",
			index: schema.Index{Name: "I", Table: "T", InterleaveIn: "P", Columns: []schema.IndexColumn{
				{Name: "S1", Direction: schema.Storing},
				{Name: "A", Direction: schema.Descending},
				{Name: "S2", Direction: schema.Storing},
				{Name: "B"},
			}},
			want: "CREATE INDEX I ON T(A DESC, B ASC) STORING (S1, S2) INTERLEAVE IN P",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RenderIndex(tt.index); got != tt.want {
				t.Errorf("RenderIndex() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderCycleFails(t *testing.T) {
	b := schema.NewBuilder()
	b.CreateTable("Root").EndTable()
	b.CreateTable("A").InterleaveInParent("B").EndTable()
	b.CreateTable("B").InterleaveInParent("A").EndTable()
	s, err := b.Build()
	if err != nil {
		t.Fatalf("Build() unexpected error: %v", err)
	}

	got, err := Render(s)
	if !errors.Is(err, schema.ErrCyclicSchema) {
		t.Fatalf("Render() error = %v, want ErrCyclicSchema", err)
	}
	if got != "" {
		t.Errorf("Render() returned partial output %q", got)
	}

	var buf bytes.Buffer
	if err := NewDDLFormatter(&buf).Format(s); !errors.Is(err, schema.ErrCyclicSchema) {
		t.Fatalf("Format() error = %v, want ErrCyclicSchema", err)
	}
	if buf.Len() != 0 {
		t.Errorf("Format() wrote partial output %q", buf.String())
	}
}

func TestDDLFormatterFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := NewDDLFormatter(&buf).Format(singersSchema(t)); err != nil {
		t.Fatalf("Format() unexpected error: %v", err)
	}
	if buf.String() != canonicalDDL+"\n" {
		t.Errorf("Format() = %q", buf.String())
	}
}

// forest builds n tables where table i is interleaved in parents[i] when
// parents[i] < i, and is a root table otherwise
func forest(parents []int) (*schema.Schema, error) {
	b := schema.NewBuilder()
	for i := len(parents) - 1; i >= 0; i-- {
		tb := b.CreateTable(fmt.Sprintf("T%d", i)).Column("Id").Int64().NotNull().EndColumn()
		if p := parents[i]; p < i {
			tb.InterleaveInParent(fmt.Sprintf("T%d", p)).OnDeleteCascade()
		}
		tb.PrimaryKey().Asc("Id").End().EndTable()
	}
	return b.Build()
}

func TestProperty_RenderForest(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("rendering is deterministic and parents precede children", prop.ForAll(
		func(parents []int) bool {
			s, err := forest(parents)
			if err != nil {
				return false
			}
			first, err := Render(s)
			if err != nil {
				return false
			}
			second, err := Render(s)
			if err != nil || first != second {
				return false
			}
			for i, p := range parents {
				if p >= i {
					continue
				}
				parentAt := strings.Index(first, fmt.Sprintf("CREATE TABLE T%d (", p))
				childAt := strings.Index(first, fmt.Sprintf("CREATE TABLE T%d (", i))
				if parentAt < 0 || childAt < 0 || parentAt > childAt {
					return false
				}
			}
			return strings.Count(first, "CREATE TABLE ") == len(parents)
		},
		gen.SliceOf(gen.IntRange(0, 20)),
	))

	properties.TestingRun(t)
}

func TestRenderBuiltSingleRowTable(t *testing.T) {
	s, err := schema.NewBuilder().
		CreateTable("Singleton").Column("V").Int64().EndColumn().PrimaryKey().End().EndTable().
		CreateTable("Keyless").Column("V").Int64().EndColumn().EndTable().
		Build()
	if err != nil {
		t.Fatalf("Build() unexpected error: %v", err)
	}

	got, err := Render(s)
	if err != nil {
		t.Fatalf("Render() unexpected error: %v", err)
	}
	want := "CREATE TABLE Singleton (\n" +
		"\tV                                       INT64,\n" +
		") PRIMARY KEY ()\n" +
		"CREATE TABLE Keyless (\n" +
		"\tV                                       INT64,\n" +
		")"
	if got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}
}
