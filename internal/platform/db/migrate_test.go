package db

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLoadMigrationsSortsByVersion(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "0002_logs.sql", "CREATE TABLE b (id INT);")
	writeFile(t, dir, "0001_requests.sql", "CREATE TABLE a (id INT);")
	writeFile(t, dir, "0010_indexes.sql", "CREATE INDEX i ON a (id);")

	migrations, err := NewMigrator(nil, dir).LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations: %v", err)
	}
	if len(migrations) != 3 {
		t.Fatalf("expected 3 migrations, got %d", len(migrations))
	}
	wantVersions := []int{1, 2, 10}
	for i, m := range migrations {
		if m.Version != wantVersions[i] {
			t.Errorf("slot %d: version = %d, want %d", i, m.Version, wantVersions[i])
		}
		if m.SQL == "" {
			t.Errorf("slot %d: SQL not loaded", i)
		}
	}
}

func TestLoadMigrationsSkipsNonMigrationFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "0001_requests.sql", "CREATE TABLE a (id INT);")
	writeFile(t, dir, "README.md", "notes")
	writeFile(t, dir, "noversion.sql", "SELECT 1;")
	writeFile(t, dir, "abc_bad.sql", "SELECT 1;")

	migrations, err := NewMigrator(nil, dir).LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations: %v", err)
	}
	if len(migrations) != 1 || migrations[0].Name != "0001_requests.sql" {
		t.Errorf("unexpected migrations: %+v", migrations)
	}
}

func TestLoadMigrationsMissingDir(t *testing.T) {
	if _, err := NewMigrator(nil, filepath.Join(t.TempDir(), "missing")).LoadMigrations(); err == nil {
		t.Error("expected error for missing directory")
	}
}
