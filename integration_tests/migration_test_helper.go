package integration_tests

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/rubiojr/edjs/pkg/db"
	"github.com/rubiojr/edjs/pkg/storage"
)

// TestMigration is a migration file written into a scratch migrations directory.
type TestMigration struct {
	Version int
	Name    string
	SQL     string
}

// MigrationTestHelper runs migration scenarios against throwaway databases.
type MigrationTestHelper struct {
	t             *testing.T
	tempDir       string
	migrationsDir string
}

func NewMigrationTestHelper(t *testing.T) *MigrationTestHelper {
	t.Helper()
	tempDir := t.TempDir()
	migrationsDir := filepath.Join(tempDir, "migrations")
	if err := os.MkdirAll(migrationsDir, 0755); err != nil {
		t.Fatalf("Failed to create migrations directory: %v", err)
	}
	return &MigrationTestHelper{t: t, tempDir: tempDir, migrationsDir: migrationsDir}
}

// WriteMigrations writes each migration as NNN_name.sql.
func (h *MigrationTestHelper) WriteMigrations(migrations ...TestMigration) {
	h.t.Helper()
	for _, m := range migrations {
		name := fmt.Sprintf("%03d_%s.sql", m.Version, m.Name)
		if err := os.WriteFile(filepath.Join(h.migrationsDir, name), []byte(m.SQL), 0644); err != nil {
			h.t.Fatalf("Failed to write migration %s: %v", name, err)
		}
	}
}

// WriteFile writes an arbitrary file into the migrations directory.
func (h *MigrationTestHelper) WriteFile(name, content string) {
	h.t.Helper()
	if err := os.WriteFile(filepath.Join(h.migrationsDir, name), []byte(content), 0644); err != nil {
		h.t.Fatalf("Failed to write %s: %v", name, err)
	}
}

// CreateTestDatabase opens a database with the same pragmas the server uses.
func (h *MigrationTestHelper) CreateTestDatabase(name string) *sql.DB {
	h.t.Helper()
	conn, err := storage.OpenDB(filepath.Join(h.tempDir, name+".db"))
	if err != nil {
		h.t.Fatalf("Failed to open database: %v", err)
	}
	h.t.Cleanup(func() {
		if err := conn.Close(); err != nil {
			h.t.Logf("Warning: failed to close database: %v", err)
		}
	})
	return conn
}

func (h *MigrationTestHelper) CreateMigrationManager(database *sql.DB) *db.MigrationManager {
	return db.NewMigrationManagerFromPath(database, h.migrationsDir)
}

func (h *MigrationTestHelper) VerifyTableExists(database *sql.DB, tableName string) bool {
	var count int
	err := database.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", tableName).Scan(&count)
	if err != nil {
		h.t.Logf("Error checking table %s: %v", tableName, err)
		return false
	}
	return count > 0
}

func (h *MigrationTestHelper) VerifyColumnExists(database *sql.DB, tableName, columnName string) bool {
	var count int
	err := database.QueryRow("SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?", tableName, columnName).Scan(&count)
	if err != nil {
		h.t.Logf("Error getting table info for %s: %v", tableName, err)
		return false
	}
	return count > 0
}

// GetAppliedMigrations returns applied versions in ascending order.
func (h *MigrationTestHelper) GetAppliedMigrations(database *sql.DB) []int {
	h.t.Helper()
	rows, err := database.Query("SELECT version FROM migrations ORDER BY version")
	if err != nil {
		h.t.Fatalf("Failed to query migrations: %v", err)
	}
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			h.t.Fatalf("Failed to scan migration version: %v", err)
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		h.t.Fatalf("Failed reading migrations: %v", err)
	}
	return versions
}
