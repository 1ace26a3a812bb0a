package store

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockStore(t *testing.T) (*SQLStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS kv").
		WillReturnResult(sqlmock.NewResult(0, 0))
	st, err := NewSQLStore(db)
	if err != nil {
		t.Fatalf("NewSQLStore failed: %v", err)
	}
	return st, mock
}

func TestSQLStore_LoadNoRow(t *testing.T) {
	st, mock := newMockStore(t)
	mock.ExpectQuery("SELECT value FROM kv").
		WithArgs(CartKey).
		WillReturnRows(sqlmock.NewRows([]string{"value"}))

	lines, err := st.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(lines) != 0 {
		t.Errorf("expected empty cart, got %+v", lines)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestSQLStore_LoadRow(t *testing.T) {
	st, mock := newMockStore(t)
	value, _ := json.Marshal(sampleLines())
	mock.ExpectQuery("SELECT value FROM kv").
		WithArgs(CartKey).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(string(value)))

	lines, err := st.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(lines) != 2 || lines[0].ProductID != 1 || lines[1].FilamentType != "PETG" {
		t.Errorf("unexpected lines: %+v", lines)
	}
}

func TestSQLStore_LoadMalformedRowIsEmptyCart(t *testing.T) {
	st, mock := newMockStore(t)
	mock.ExpectQuery("SELECT value FROM kv").
		WithArgs(CartKey).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("{not json"))

	lines, err := st.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(lines) != 0 {
		t.Errorf("expected empty cart, got %+v", lines)
	}
}

func TestSQLStore_SaveUpserts(t *testing.T) {
	st, mock := newMockStore(t)
	want := sampleLines()
	value, _ := json.Marshal(want)
	mock.ExpectExec("INSERT INTO kv").
		WithArgs(CartKey, string(value)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := st.Save(want); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestOpenSQLiteCreatesStateDirectory(t *testing.T) {
	// A fresh profile's state directory does not exist yet; opening the
	// database must create it rather than fail.
	path := filepath.Join(t.TempDir(), ".storefront", "storefront.db")
	st, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	defer st.Close()

	want := sampleLines()
	if err := st.Save(want); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	got, err := st.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got) != len(want) || got[0] != want[0] {
		t.Errorf("round trip = %+v; want %+v", got, want)
	}
}

func TestSQLStore_Clear(t *testing.T) {
	st, mock := newMockStore(t)
	mock.ExpectExec("DELETE FROM kv").
		WithArgs(CartKey).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := st.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
