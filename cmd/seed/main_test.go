package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"shareit/internal/config"
	"shareit/internal/models"
	"shareit/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixturesYAML = `
users:
  - name: Ann
    email: ann@example.com
  - name: Bob
    email: bob@example.com
requests:
  - key: ladder
    requester: bob@example.com
    description: need a ladder for the weekend
items:
  - owner: ann@example.com
    name: Ladder
    description: 3m aluminium ladder
    available: true
    request: ladder
  - owner: ann@example.com
    name: Drill
    description: cordless drill
    available: false
`

func writeFixtures(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixtures.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestSeed(t *testing.T) {
	f, err := loadFixtures(writeFixtures(t, fixturesYAML))
	require.NoError(t, err)

	logger := zerolog.Nop()
	store := repository.NewMemoryStore()
	ctx := context.Background()

	stats, err := seed(ctx, store, f, &logger)
	require.NoError(t, err)
	assert.Equal(t, seedStats{users: 2, requests: 1, items: 2}, stats)

	users, err := store.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)

	reqs, err := store.ListRequests(ctx, users[1].ID, false, models.Page{})
	require.NoError(t, err)
	require.Len(t, reqs, 1)

	linked, err := store.ListItemsByRequests(ctx, []int64{reqs[0].ID})
	require.NoError(t, err)
	require.Len(t, linked, 1)
	assert.Equal(t, "Ladder", linked[0].Name)
	assert.Equal(t, users[0].ID, linked[0].OwnerID)
}

func TestSeedUnknownReferences(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	f := &Fixtures{
		Users: []models.User{{Name: "Ann", Email: "ann@example.com"}},
		Items: []itemFixture{{Owner: "nobody@example.com", Name: "Saw", Description: "saw", Available: true}},
	}
	_, err := seed(ctx, repository.NewMemoryStore(), f, &logger)
	assert.Error(t, err)

	f.Items[0].Owner = "ann@example.com"
	f.Items[0].Request = "missing"
	_, err = seed(ctx, repository.NewMemoryStore(), f, &logger)
	assert.Error(t, err)
}

func TestLoadFixturesErrors(t *testing.T) {
	_, err := loadFixtures(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = loadFixtures(writeFixtures(t, "users: []\n"))
	assert.Error(t, err)

	_, err = loadFixtures(writeFixtures(t, "users: [unterminated"))
	assert.Error(t, err)
}

func TestDatabasePath(t *testing.T) {
	sqlite := config.DatabaseConfig{Driver: config.StorageSQLite, Path: "data/shareit.db"}
	memory := config.DatabaseConfig{Driver: config.StorageMemory}

	assert.Equal(t, "data/shareit.db", databasePath(sqlite, ""))
	assert.Equal(t, "/tmp/seed.db", databasePath(sqlite, " /tmp/seed.db "))
	assert.Equal(t, "", databasePath(memory, ""))
	assert.Equal(t, "/tmp/seed.db", databasePath(memory, "/tmp/seed.db"))
}
