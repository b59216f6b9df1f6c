package integration_tests

import (
	"testing"
	"time"

	"github.com/rubiojr/edjs/pkg/db"
	"github.com/rubiojr/edjs/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationSystemIntegration(t *testing.T) {
	helper := NewMigrationTestHelper(t)
	database := helper.CreateTestDatabase("scenario")

	helper.WriteMigrations(
		TestMigration{Version: 2, Name: "add_checksum", SQL: `ALTER TABLE uploads ADD COLUMN checksum TEXT;`},
		TestMigration{Version: 1, Name: "uploads", SQL: `CREATE TABLE uploads (id TEXT PRIMARY KEY, name TEXT NOT NULL);`},
	)
	manager := helper.CreateMigrationManager(database)

	t.Run("status before applying", func(t *testing.T) {
		status, err := manager.GetMigrationStatus()
		require.NoError(t, err)
		assert.Empty(t, status.Applied)
		require.Len(t, status.Pending, 2)
		assert.Equal(t, 1, status.Pending[0].Version)
		assert.Equal(t, "add_checksum", status.Pending[1].Name)
	})

	t.Run("applies in version order", func(t *testing.T) {
		require.NoError(t, manager.ApplyPendingMigrations())
		assert.Equal(t, []int{1, 2}, helper.GetAppliedMigrations(database))
		assert.True(t, helper.VerifyColumnExists(database, "uploads", "checksum"))
	})

	t.Run("rerun is a no-op", func(t *testing.T) {
		require.NoError(t, manager.ApplyPendingMigrations())
		pending, err := manager.GetPendingMigrations()
		require.NoError(t, err)
		assert.Empty(t, pending)
	})

	t.Run("new migration is picked up", func(t *testing.T) {
		helper.WriteMigrations(TestMigration{Version: 3, Name: "tags", SQL: `CREATE TABLE upload_tags (upload_id TEXT, tag TEXT);`})
		require.NoError(t, manager.ApplyPendingMigrations())
		assert.Equal(t, []int{1, 2, 3}, helper.GetAppliedMigrations(database))
		assert.True(t, helper.VerifyTableExists(database, "upload_tags"))

		status, err := manager.GetMigrationStatus()
		require.NoError(t, err)
		require.Len(t, status.Applied, 3)
		require.NotNil(t, status.Applied[2].AppliedAt)
		assert.WithinDuration(t, time.Now(), *status.Applied[2].AppliedAt, time.Hour)
	})
}

func TestMigrationErrorHandling(t *testing.T) {
	helper := NewMigrationTestHelper(t)
	database := helper.CreateTestDatabase("broken")

	helper.WriteMigrations(
		TestMigration{Version: 1, Name: "ok", SQL: `CREATE TABLE first (id INTEGER);`},
		TestMigration{Version: 2, Name: "broken", SQL: `CREATE TABLE second (id INTEGER); INSERT INTO missing_table VALUES (1);`},
		TestMigration{Version: 3, Name: "after", SQL: `CREATE TABLE third (id INTEGER);`},
	)
	manager := helper.CreateMigrationManager(database)

	err := manager.ApplyPendingMigrations()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "applying migration 2 (broken)")

	assert.Equal(t, []int{1}, helper.GetAppliedMigrations(database))
	assert.True(t, helper.VerifyTableExists(database, "first"))
	assert.False(t, helper.VerifyTableExists(database, "second"), "failed migration is rolled back")
	assert.False(t, helper.VerifyTableExists(database, "third"), "later migrations wait for the broken one")
}

func TestMigrationFilesOutsideNamingSchemeAreIgnored(t *testing.T) {
	helper := NewMigrationTestHelper(t)
	database := helper.CreateTestDatabase("naming")

	helper.WriteMigrations(TestMigration{Version: 1, Name: "real", SQL: `CREATE TABLE real_table (id INTEGER);`})
	helper.WriteFile("README.md", "# migrations")
	helper.WriteFile("notes.sql", "DROP TABLE real_table;")
	helper.WriteFile("draft_next.sql", "DROP TABLE real_table;")
	manager := helper.CreateMigrationManager(database)

	available, err := manager.GetAvailableMigrations()
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, "real", available[0].Name)
	require.NoError(t, manager.ApplyPendingMigrations())
	assert.True(t, helper.VerifyTableExists(database, "real_table"))
}

func TestEmbeddedMigrationsMatchStorageSchema(t *testing.T) {
	store, err := storage.Open(t.TempDir(), time.Hour)
	require.NoError(t, err)
	defer store.Close()

	status, err := db.NewMigrationManager(store.DB()).GetMigrationStatus()
	require.NoError(t, err)
	assert.Empty(t, status.Pending)
	assert.Equal(t, len(status.Available), len(status.Applied))

	helper := NewMigrationTestHelper(t)
	for _, column := range []string{"id", "kind", "name", "disk_name", "extension", "content_type", "size", "created_at"} {
		assert.True(t, helper.VerifyColumnExists(store.DB(), "uploads", column), column)
	}
}
