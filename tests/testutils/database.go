package testutils

import (
	"database/sql"
	"path/filepath"
	"testing"

	"whereiam/db"
	"whereiam/internal/config"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

// SetupTestDatabase opens a fresh SQLite file with the schema applied.
// It is closed when the test ends.
func SetupTestDatabase(t *testing.T) *sql.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	testDB, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_timeout=10000")
	require.NoError(t, err)
	require.NoError(t, db.InitializeSchema(testDB))

	t.Cleanup(func() { testDB.Close() })
	return testDB
}

// SetupTestRepositoryFactory returns a factory over a fresh SQLite database
func SetupTestRepositoryFactory(t *testing.T) *db.RepositoryFactory {
	return db.NewRepositoryFactory(SetupTestDatabase(t), "")
}

// SetupJSONRepositoryFactory returns a factory over a JSON store in a temp dir
func SetupJSONRepositoryFactory(t *testing.T) (*db.RepositoryFactory, string) {
	path := filepath.Join(t.TempDir(), "locations.json")
	return db.NewRepositoryFactory(nil, path), path
}

func GetTestConfig() *config.Config {
	return &config.Config{
		DatabaseType:       config.SQLite,
		SQLitePath:         ":memory:",
		StorePath:          "locations.json",
		GeneratorProvider:  "openai",
		HomeName:           "Rouen, France",
		GenerationCacheTTL: DefaultTestTTL,
		LogLevel:           "error",
		Username:           "test_admin",
		Password:           "test_password",
		JWTSecret:          "test_jwt_secret_key_for_testing_only",
	}
}
