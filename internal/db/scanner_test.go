package db

import (
	"context"
	"errors"
	"testing"
)

type fakeSource struct {
	rows Rows
	err  error
}

func (f *fakeSource) TableRows(context.Context) ([]TableRow, error) {
	return f.rows.Tables, nil
}

func (f *fakeSource) ColumnRows(context.Context) ([]ColumnRow, error) {
	return f.rows.Columns, nil
}

func (f *fakeSource) IndexRows(context.Context) ([]IndexRow, error) {
	return f.rows.Indexes, f.err
}

func (f *fakeSource) IndexColumnRows(context.Context) ([]IndexColumnRow, error) {
	return f.rows.IndexColumns, nil
}

func TestScannerScan(t *testing.T) {
	s, err := NewScanner(&fakeSource{rows: singersRows()}).Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan() unexpected error: %v", err)
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
}

func TestScannerSourceError(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewScanner(&fakeSource{rows: singersRows(), err: boom}).Scan(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("Scan() error = %v, want boom", err)
	}
}
