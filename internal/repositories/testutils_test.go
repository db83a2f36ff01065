package repositories_test

import (
	"testing"

	"github.com/storyloom/storyloom/sqlite"
)

// newTestDB creates a new in-memory database for testing purposes.
func newTestDB(t *testing.T) *sqlite.DBs {
	t.Helper()
	dbs, err := sqlite.NewDB(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := dbs.Close(); err != nil {
			t.Fatal(err)
		}
	})
	return dbs
}
