package db

import (
	"database/sql"
	"strings"
	"testing"

	_ "modernc.org/sqlite"
)

func TestRunMigrationsSqlite(t *testing.T) {
	dsn := "file:test_migrations?mode=memory&cache=shared"
	dbConn, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	defer func() { _ = dbConn.Close() }()
	dbConn.SetMaxOpenConns(1)

	if err := RunMigrations(dbConn, "sqlite"); err != nil {
		t.Fatalf("RunMigrations failed: %v", err)
	}
	// A second run must be a no-op.
	if err := RunMigrations(dbConn, "sqlite"); err != nil {
		t.Fatalf("second RunMigrations failed: %v", err)
	}

	var n int
	if err := dbConn.QueryRow("SELECT COUNT(*) FROM schema_migrations WHERE version = ?", "0001_init").Scan(&n); err != nil {
		t.Fatalf("query schema_migrations failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 0001_init recorded once, got %d", n)
	}

	for _, table := range captureTables {
		var name string
		err := dbConn.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name = ?", table).Scan(&name)
		if err != nil {
			t.Fatalf("table %s missing after migrations: %v", table, err)
		}
	}
}

func TestRunMigrations_CheckConstraintRejectsUnknownMethod(t *testing.T) {
	dsn := "file:test_migrations_check?mode=memory&cache=shared"
	dbConn, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	defer func() { _ = dbConn.Close() }()
	dbConn.SetMaxOpenConns(1)

	if err := RunMigrations(dbConn, "sqlite"); err != nil {
		t.Fatalf("RunMigrations failed: %v", err)
	}
	_, err = dbConn.Exec(`INSERT INTO credentials (timestamp, client_ip, port, auth_type, username, secret) VALUES (?, ?, ?, ?, ?, ?)`,
		"2026-10-18 00:00:00+00:00", "203.0.113.5", 2222, "keyboard-interactive", "root", "")
	if err == nil {
		t.Fatalf("expected CHECK constraint to reject unknown auth_type")
	}
	if MapDBError(err) != ErrInvalidRecord {
		t.Fatalf("expected mapped ErrInvalidRecord, got %v", err)
	}
}

func TestRunMigrations_UnknownType(t *testing.T) {
	dbConn, err := sql.Open("sqlite", "file:test_migrations_unknown?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	defer func() { _ = dbConn.Close() }()

	err = RunMigrations(dbConn, "oracle")
	if err == nil || !strings.Contains(err.Error(), "no migrations embedded") {
		t.Fatalf("expected missing migrations error, got %v", err)
	}
}

func TestSplitStatements(t *testing.T) {
	got := splitStatements("CREATE TABLE a (x INT);\n\n  CREATE INDEX i ON a(x) ;\n;")
	if len(got) != 2 {
		t.Fatalf("expected 2 statements, got %d: %q", len(got), got)
	}
	if got[0] != "CREATE TABLE a (x INT)" || got[1] != "CREATE INDEX i ON a(x)" {
		t.Fatalf("unexpected statements: %q", got)
	}
}

func TestRunDBMaintenanceSqlite_Smoke(t *testing.T) {
	dsn := "file:test_maint?mode=memory&cache=shared"
	if err := RunDBMaintenance("sqlite", dsn); err != nil {
		t.Fatalf("RunDBMaintenance failed: %v", err)
	}
}

func TestNewStoreFromDSN_UnsupportedType(t *testing.T) {
	if _, err := NewStoreFromDSN("oracle", "x"); err == nil {
		t.Fatalf("expected error for unsupported database type")
	}
	if err := RunDBMaintenance("oracle", "x"); err == nil {
		t.Fatalf("expected error for unsupported maintenance type")
	}
}
