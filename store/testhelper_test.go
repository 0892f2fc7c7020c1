package store_test

import (
	"path/filepath"
	"testing"

	"github.com/mbolis/qr-requests/database"
	"github.com/mbolis/qr-requests/store"
)

// newTestStore opens a fresh migrated database in a temp dir.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return store.New(db)
}
