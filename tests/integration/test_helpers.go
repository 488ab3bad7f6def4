//go:build integration
// +build integration

package integration

import (
	"os"
	"testing"

	"github.com/tordrt/spannerddl/internal/schema"
)

// envOr returns the environment variable name, or fallback when unset
func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

// musicSchema is the Singers/Albums/Songs fixture every snapshot test writes
func musicSchema(t *testing.T) *schema.Schema {
	t.Helper()
	b := schema.NewBuilder()
	b.CreateTable("Singers").
		Column("SingerId").Int64().NotNull().EndColumn().
		Column("FirstName").String().Size(1024).EndColumn().
		Column("SingerInfo").Bytes().Max().EndColumn().
		PrimaryKey().Asc("SingerId").End().
		EndTable()
	b.CreateTable("Albums").InterleaveInParent("Singers").OnDeleteCascade().
		Column("SingerId").Int64().NotNull().EndColumn().
		Column("AlbumId").Int64().NotNull().EndColumn().
		Column("AlbumTitle").String().Max().EndColumn().
		Column("Tags").String().Size(64).Array().EndColumn().
		PrimaryKey().Asc("SingerId").Desc("AlbumId").End().
		CreateIndex("AlbumsByAlbumTitle").Unique().NullFiltered().
		Columns().Asc("AlbumTitle").Storing("Tags").End().EndIndex().
		EndTable()
	b.CreateTable("Songs").InterleaveInParent("Albums").
		Column("SingerId").Int64().NotNull().EndColumn().
		Column("AlbumId").Int64().NotNull().EndColumn().
		Column("TrackId").Int64().NotNull().EndColumn().
		PrimaryKey().Asc("SingerId").Desc("AlbumId").Asc("TrackId").End().
		EndTable()

	s, err := b.Build()
	if err != nil {
		t.Fatalf("Build() unexpected error: %v", err)
	}
	return s
}

// verifyTablesExist checks that all expected tables are present in the schema
func verifyTablesExist(t *testing.T, s *schema.Schema, expectedTables []string) {
	t.Helper()

	if s.Len() != len(expectedTables) {
		t.Errorf("Expected %d tables, got %d", len(expectedTables), s.Len())
	}

	for _, tableName := range expectedTables {
		if _, ok := s.Table(tableName); !ok {
			t.Errorf("Expected table %s not found in schema", tableName)
		}
	}
}

// verifyColumns checks that expected columns exist in a table
func verifyColumns(t *testing.T, table schema.Table, expectedColumns []string) {
	t.Helper()

	for _, colName := range expectedColumns {
		if _, ok := table.Column(colName); !ok {
			t.Errorf("Expected column %s not found in %s table", colName, table.Name)
		}
	}
}

// verifyPrimaryKey checks that a table has the expected primary key columns
func verifyPrimaryKey(t *testing.T, table schema.Table, expectedPK []string) {
	t.Helper()

	if len(table.PrimaryKey) != len(expectedPK) {
		t.Errorf("Expected primary key %v, got %v", expectedPK, table.PrimaryKey)
		return
	}

	for i, pk := range expectedPK {
		if table.PrimaryKey[i].Name != pk {
			t.Errorf("Expected primary key %v, got %v", expectedPK, table.PrimaryKey)
			return
		}
	}
}

// verifyInterleave checks the parent of an interleaved table
func verifyInterleave(t *testing.T, s *schema.Schema, tableName, parent string) {
	t.Helper()

	table := mustTable(t, s, tableName)
	if table.InterleaveInParent != parent {
		t.Errorf("Expected %s to be interleaved in %q, got %q", tableName, parent, table.InterleaveInParent)
	}
}

// verifyIndex checks that an index exists with the expected key columns
func verifyIndex(t *testing.T, s *schema.Schema, tableName, indexName string, expectedColumns []string) {
	t.Helper()

	table := mustTable(t, s, tableName)
	for _, idx := range table.Indexes {
		if idx.Name != indexName {
			continue
		}
		keys := idx.KeyColumns()
		if len(keys) != len(expectedColumns) {
			t.Errorf("Expected index %s on %v, got %v", indexName, expectedColumns, keys)
			return
		}
		for i, col := range expectedColumns {
			if keys[i].Name != col {
				t.Errorf("Expected index %s on %v, got %v", indexName, expectedColumns, keys)
				return
			}
		}
		return
	}

	t.Errorf("Expected index %s on %s table not found", indexName, tableName)
}

func mustTable(t *testing.T, s *schema.Schema, tableName string) schema.Table {
	t.Helper()
	table, ok := s.Table(tableName)
	if !ok {
		t.Fatalf("Table %s not found", tableName)
	}
	return table
}

// verifyMusicSchema runs the common checks against a scanned fixture
func verifyMusicSchema(t *testing.T, s *schema.Schema) {
	t.Helper()

	verifyTablesExist(t, s, []string{"Singers", "Albums", "Songs"})
	verifyPrimaryKey(t, mustTable(t, s, "Albums"), []string{"SingerId", "AlbumId"})
	verifyColumns(t, mustTable(t, s, "Singers"), []string{"SingerId", "FirstName", "SingerInfo"})
	verifyInterleave(t, s, "Albums", "Singers")
	verifyInterleave(t, s, "Songs", "Albums")
	verifyIndex(t, s, "Albums", "AlbumsByAlbumTitle", []string{"AlbumTitle"})
}
