package repository

import (
	"testing"

	"skybound/internal/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMigrationVersion(t *testing.T) {
	version, err := database.MigrationVersion(testDB)
	require.NoError(t, err)
	assert.Equal(t, int64(5), version)

	// Re-running is a no-op and leaves the version unchanged.
	require.NoError(t, database.RunMigrations(testDB, zap.NewNop()))
	again, err := database.MigrationVersion(testDB)
	require.NoError(t, err)
	assert.Equal(t, version, again)
}
