package schema

import (
	"errors"
	"strings"
	"sync"
	"testing"
)

func buildSchema(t *testing.T, build func(b *Builder)) *Schema {
	t.Helper()
	b := NewBuilder()
	build(b)
	s, err := b.Build()
	if err != nil {
		t.Fatalf("Build() unexpected error: %v", err)
	}
	return s
}

func nodeNames(nodes []Node) []string {
	names := make([]string, len(nodes))
	for i, n := range nodes {
		names[i] = n.Table.Name
	}
	return names
}

func TestHierarchyPreOrder(t *testing.T) {
	// Children are declared before their parents on purpose.
	s := buildSchema(t, func(b *Builder) {
		b.CreateTable("Tracks").InterleaveInParent("Albums").EndTable()
		b.CreateTable("Albums").InterleaveInParent("Singers").EndTable()
		b.CreateTable("Venues").EndTable()
		b.CreateTable("Concerts").InterleaveInParent("Singers").EndTable()
		b.CreateTable("Singers").EndTable()
		b.CreateTable("Lyrics").InterleaveInParent("Tracks").EndTable()
	})

	nodes, err := s.Hierarchy()
	if err != nil {
		t.Fatalf("Hierarchy() unexpected error: %v", err)
	}

	wantNames := []string{"Venues", "Singers", "Albums", "Tracks", "Lyrics", "Concerts"}
	wantDepths := []int{0, 0, 1, 2, 3, 1}
	got := nodeNames(nodes)
	if strings.Join(got, ",") != strings.Join(wantNames, ",") {
		t.Fatalf("Hierarchy() order = %v, want %v", got, wantNames)
	}
	for i, n := range nodes {
		if n.Depth != wantDepths[i] {
			t.Errorf("%s depth = %d, want %d", n.Table.Name, n.Depth, wantDepths[i])
		}
	}
}

func TestHierarchyCycle(t *testing.T) {
	tests := []struct {
		name  string
		build func(b *Builder)
	}{
		{
			name: "two tables",
			build: func(b *Builder) {
				b.CreateTable("Root").EndTable()
				b.CreateTable("A").InterleaveInParent("B").EndTable()
				b.CreateTable("B").InterleaveInParent("A").EndTable()
			},
		},
		{
			name: "self interleave",
			build: func(b *Builder) {
				b.CreateTable("A").InterleaveInParent("A").EndTable()
			},
		},
		{
			name: "cycle below a chain",
			build: func(b *Builder) {
				b.CreateTable("Leaf").InterleaveInParent("X").EndTable()
				b.CreateTable("X").InterleaveInParent("Y").EndTable()
				b.CreateTable("Y").InterleaveInParent("Z").EndTable()
				b.CreateTable("Z").InterleaveInParent("X").EndTable()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := buildSchema(t, tt.build)
			nodes, err := s.Hierarchy()
			if !errors.Is(err, ErrCyclicSchema) {
				t.Fatalf("Hierarchy() error = %v, want ErrCyclicSchema", err)
			}
			if nodes != nil {
				t.Errorf("Hierarchy() returned %d nodes alongside an error", len(nodes))
			}
		})
	}
}

func TestHierarchyUnknownParent(t *testing.T) {
	s := buildSchema(t, func(b *Builder) {
		b.CreateTable("Orphan").InterleaveInParent("Missing").EndTable()
	})
	if _, err := s.Hierarchy(); !errors.Is(err, ErrUnknownReference) {
		t.Fatalf("Hierarchy() error = %v, want ErrUnknownReference", err)
	}
}

func TestWalkDoesNotStartOnInvalidHierarchy(t *testing.T) {
	s := buildSchema(t, func(b *Builder) {
		b.CreateTable("Ok").EndTable()
		b.CreateTable("A").InterleaveInParent("B").EndTable()
		b.CreateTable("B").InterleaveInParent("A").EndTable()
	})

	calls := 0
	err := s.Walk(func(Node) error {
		calls++
		return nil
	})
	if !errors.Is(err, ErrCyclicSchema) {
		t.Fatalf("Walk() error = %v, want ErrCyclicSchema", err)
	}
	if calls != 0 {
		t.Errorf("Walk() visited %d tables before failing", calls)
	}
}

func TestWalkStopsOnCallbackError(t *testing.T) {
	s := buildSchema(t, func(b *Builder) {
		b.CreateTable("A").EndTable()
		b.CreateTable("B").EndTable()
	})
	stop := errors.New("stop")
	calls := 0
	err := s.Walk(func(Node) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) || calls != 1 {
		t.Errorf("Walk() = %v after %d calls, want stop after 1", err, calls)
	}
}

func TestCheckReferences(t *testing.T) {
	tests := []struct {
		name    string
		build   func(b *Builder)
		wantErr bool
	}{
		{
			name: "all references resolve",
			build: func(b *Builder) {
				b.CreateTable("T").
					Column("A").Int64().EndColumn().
					Column("B").String().Max().EndColumn().
					PrimaryKey().Asc("A").End().
					CreateIndex("TByB").Columns().Desc("B").Storing("A").End().EndIndex().
					EndTable()
			},
		},
		{
			name: "unknown primary key column",
			build: func(b *Builder) {
				b.CreateTable("T").Column("A").Int64().EndColumn().PrimaryKey().Asc("Z").End().EndTable()
			},
			wantErr: true,
		},
		{
			name: "unknown storing column",
			build: func(b *Builder) {
				b.CreateTable("T").Column("A").Int64().EndColumn().
					CreateIndex("I").Columns().Asc("A").Storing("Z").End().EndIndex().EndTable()
			},
			wantErr: true,
		},
		{
			name: "unknown index interleave",
			build: func(b *Builder) {
				b.CreateTable("T").Column("A").Int64().EndColumn().
					CreateIndex("I").InterleaveIn("Nope").Columns().Asc("A").End().EndIndex().EndTable()
			},
			wantErr: true,
		},
		{
			name: "unknown parent table",
			build: func(b *Builder) {
				b.CreateTable("T").InterleaveInParent("Nope").EndTable()
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := buildSchema(t, tt.build).CheckReferences()
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownReference) {
					t.Errorf("CheckReferences() error = %v, want ErrUnknownReference", err)
				}
				return
			}
			if err != nil {
				t.Errorf("CheckReferences() unexpected error: %v", err)
			}
		})
	}
}

func TestSchemaConcurrentReads(t *testing.T) {
	s := buildSchema(t, func(b *Builder) {
		b.CreateTable("P").Column("Id").Int64().EndColumn().EndTable()
		b.CreateTable("C").InterleaveInParent("P").Column("Id").Int64().EndColumn().EndTable()
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if _, err := s.Hierarchy(); err != nil {
					t.Errorf("Hierarchy() unexpected error: %v", err)
					return
				}
				_ = s.Tables()
				_ = s.Children("P")
			}
		}()
	}
	wg.Wait()
}
