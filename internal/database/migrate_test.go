package database

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPgxURL(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@localhost:5432/db?sslmode=disable", pgxURL("postgres://u:p@localhost:5432/db?sslmode=disable"))
	assert.Equal(t, "pgx5://localhost/db", pgxURL("postgresql://localhost/db"))
	assert.Equal(t, "pgx5://localhost/db", pgxURL("pgx5://localhost/db"))
}

func TestMigrationFilesArePaired(t *testing.T) {
	ups, err := fs.Glob(migrationFiles, "migrations/*.up.sql")
	require.NoError(t, err)
	downs, err := fs.Glob(migrationFiles, "migrations/*.down.sql")
	require.NoError(t, err)

	assert.NotEmpty(t, ups)
	assert.Len(t, downs, len(ups))
}

func TestAutoMigrate_SQLite(t *testing.T) {
	db, err := Connect(MemoryURL(t.Name()), Options{})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))

	for _, table := range []string{"bank_accounts", "transactions", "obligations", "recurring_templates", "recurring_instances"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}
