// Package testutil holds helpers shared by package tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/dynprot/engine/internal/models"
	"github.com/dynprot/engine/pkg/database"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// NewDB opens a migrated SQLite database private to the test.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := "sqlite://" + filepath.Join(t.TempDir(), "dynprot.db")
	db, err := database.Open(context.Background(), dsn, database.Options{Retries: 1})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}
