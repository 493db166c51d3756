// Package storetest opens throwaway sqlite databases for the gorm store tests.
package storetest

import (
	"path/filepath"
	"testing"

	"github.com/fox-one/pkg/store/db"
	_ "github.com/jinzhu/gorm/dialects/sqlite"
)

// Open migrated sqlite database under t's temp dir, closed on cleanup. A
// file is used rather than :memory: so every pooled connection sees the
// same schema.
func Open(t *testing.T) *db.DB {
	t.Helper()

	cfg := db.SqliteInMemory()
	cfg.Host = filepath.Join(t.TempDir(), "cdp.db")

	database, err := db.Open(cfg)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	t.Cleanup(func() { _ = database.Close() })

	if err := db.Migrate(database); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return database
}
