package testutil

import (
	"context"
	"os"
	"testing"

	"github.com/onnwee/al/db"
)

// SetupTestLedgerDB opens the postgres ledger named by TEST_PG_DSN and runs
// migrations. It skips the test if TEST_PG_DSN is not set.
func SetupTestLedgerDB(t *testing.T) *db.SQLStore {
	t.Helper()
	dsn := os.Getenv("TEST_PG_DSN")
	if dsn == "" {
		t.Skip("TEST_PG_DSN not set")
	}
	database, driver, err := db.Connect(dsn)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if _, err := database.Exec(`TRUNCATE ledger_users, ledger_mentions`); err != nil {
		t.Logf("truncate skipped: %v", err)
	}
	s, err := db.NewSQLStore(context.Background(), database, driver)
	if err != nil {
		database.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})
	return s
}
