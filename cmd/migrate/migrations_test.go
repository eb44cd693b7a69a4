package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dynprot/engine/internal/models"
	"github.com/dynprot/engine/pkg/database"
	"github.com/dynprot/engine/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.Use(zap.NewNop())
	m.Run()
}

func TestRunMigrationsIsRepeatable(t *testing.T) {
	db, err := database.Open(context.Background(), "sqlite://"+filepath.Join(t.TempDir(), "m.db"), database.Options{Retries: 1})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	require.NoError(t, runMigrations(db))
	require.NoError(t, runMigrations(db))

	for _, m := range models.All() {
		require.True(t, db.Migrator().HasTable(m))
	}
	require.True(t, db.Migrator().HasIndex(&models.User{}, "idx_users_email_lower"))
}
