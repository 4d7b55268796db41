package store

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenClose(t *testing.T) {
	s := openTestStore(t)
	if s.DB() == nil {
		t.Fatal("expected non-nil db")
	}
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		{"journal_mode", "wal"},
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestCredentialRoundTrip(t *testing.T) {
	s := openTestStore(t)
	repo := s.CredentialRepo()
	ctx := context.Background()

	// Nothing stored yet.
	_, ok, err := repo.Get(ctx, "token")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatal("expected no value before put")
	}

	if err := repo.Put(ctx, "token", "abc"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := repo.Put(ctx, "token", "def"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	got, ok, err := repo.Get(ctx, "token")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok || got != "def" {
		t.Errorf("Get = (%q, %v), want (\"def\", true)", got, ok)
	}

	if err := repo.Delete(ctx, "token"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(ctx, "token"); err != nil {
		t.Fatalf("delete missing key: %v", err)
	}
	if _, ok, _ := repo.Get(ctx, "token"); ok {
		t.Error("expected value to be gone after delete")
	}
}

func TestCredentialPersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persist.db")
	ctx := context.Background()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.CredentialRepo().Put(ctx, "token", "keep-me"); err != nil {
		t.Fatalf("put: %v", err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	got, ok, err := s.CredentialRepo().Get(ctx, "token")
	if err != nil || !ok || got != "keep-me" {
		t.Errorf("Get after reopen = (%q, %v, %v)", got, ok, err)
	}
}

func TestDefaultDBPathEnvOverride(t *testing.T) {
	want := filepath.Join(t.TempDir(), "nested", "custom.db")
	t.Setenv("MINIQUIZ_DB", want)

	got, err := DefaultDBPath()
	if err != nil {
		t.Fatalf("DefaultDBPath: %v", err)
	}
	if got != want {
		t.Errorf("DefaultDBPath = %q, want %q", got, want)
	}
}

func TestDefaultDBPathXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("MINIQUIZ_DB", "")
	t.Setenv("XDG_DATA_HOME", dir)

	got, err := DefaultDBPath()
	if err != nil {
		t.Fatalf("DefaultDBPath: %v", err)
	}
	want := filepath.Join(dir, "miniquiz", "miniquiz.db")
	if got != want {
		t.Errorf("DefaultDBPath = %q, want %q", got, want)
	}
}

func TestCredentialsTableMigrated(t *testing.T) {
	s := openTestStore(t)

	rows, err := s.DB().Query("SELECT name FROM pragma_table_info('credentials') ORDER BY cid")
	if err != nil {
		t.Fatalf("table info: %v", err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("scan: %v", err)
		}
		cols = append(cols, name)
	}
	want := []string{"key", "value", "updated_at"}
	if len(cols) != len(want) {
		t.Fatalf("columns = %v, want %v", cols, want)
	}
	for i := range want {
		if cols[i] != want[i] {
			t.Errorf("column %d = %q, want %q", i, cols[i], want[i])
		}
	}

	// Migrating an existing database is a no-op.
	if err := migrate(context.Background(), s.drv); err != nil {
		t.Errorf("re-migrate: %v", err)
	}
}
