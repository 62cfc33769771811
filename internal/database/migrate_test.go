package database_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/grantledger/internal/database"
)

func TestMigrations(t *testing.T) {
	migrations, err := database.Migrations()
	require.NoError(t, err)
	require.Len(t, migrations, 2)

	assert.Equal(t, 1, migrations[0].Version)
	assert.Equal(t, "budget_ledger", migrations[0].Name)
	assert.Contains(t, migrations[0].SQL, "CREATE TABLE IF NOT EXISTS budget_items")
	assert.Contains(t, migrations[0].SQL, "CREATE TABLE IF NOT EXISTS budget_transactions")

	assert.Equal(t, 2, migrations[1].Version)
	assert.Contains(t, migrations[1].SQL, "item_description_mappings")
}
