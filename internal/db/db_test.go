package db

import (
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T, driver string) *DB {
	t.Helper()
	database, err := Open(driver, filepath.Join(t.TempDir(), "data", "myday.db"))
	if err != nil {
		t.Fatalf("Open(%s) failed: %v", driver, err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func exerciseKV(t *testing.T, database *DB) {
	t.Helper()

	v, err := database.Get("projects")
	if err != nil || v != nil {
		t.Fatalf("Expected nil, nil for missing key; got %q, %v", v, err)
	}

	if err := database.Set("projects", []byte(`{"version":1}`)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := database.Set("projects", []byte(`{"version":1,"projects":[]}`)); err != nil {
		t.Fatalf("Set (overwrite) failed: %v", err)
	}
	if err := database.Set("last_view", []byte(`My Day`)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	v, err = database.Get("projects")
	if err != nil || string(v) != `{"version":1,"projects":[]}` {
		t.Fatalf("Unexpected value %q, %v", v, err)
	}

	keys, err := database.Keys()
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 2 || keys[0] != "last_view" || keys[1] != "projects" {
		t.Errorf("Expected [last_view projects], got %v", keys)
	}

	if err := database.Delete("projects"); err != nil {
		t.Fatal(err)
	}
	if v, _ := database.Get("projects"); v != nil {
		t.Errorf("Expected deleted key to be nil, got %q", v)
	}
}

func TestPureDriver(t *testing.T) {
	exerciseKV(t, openTestDB(t, DriverPure))
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "myday.db")
	first, err := Open(DriverPure, path)
	if err != nil {
		t.Fatal(err)
	}
	if err := first.Set("projects", []byte("[]")); err != nil {
		t.Fatal(err)
	}
	first.Close()

	second, err := Open(DriverPure, path)
	if err != nil {
		t.Fatal(err)
	}
	defer second.Close()
	if v, err := second.Get("projects"); err != nil || string(v) != "[]" {
		t.Errorf("Expected persisted value, got %q, %v", v, err)
	}
}

func TestUnknownDriver(t *testing.T) {
	if _, err := Open("postgres", filepath.Join(t.TempDir(), "x.db")); err == nil {
		t.Fatal("Expected error for unknown driver")
	}
}
