package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/linkbridge/linkbridge/internal/config"
	"github.com/linkbridge/linkbridge/internal/models"
)

func TestOpen_SQLiteFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "links.db")
	db, err := Open(config.DatabaseConfig{Driver: "sqlite", Name: path}, zap.NewNop())
	require.NoError(t, err)
	defer Close(db) //nolint:errcheck

	require.True(t, db.Migrator().HasTable(&models.Link{}))
	require.True(t, db.Migrator().HasTable(&models.Provider{}))
	require.True(t, db.Migrator().HasIndex(&models.Link{}, "Token"))
}

func TestOpen_Memory(t *testing.T) {
	t.Parallel()

	db, err := Open(config.DatabaseConfig{Driver: "sqlite", Name: MemoryName}, nil)
	require.NoError(t, err)
	defer Close(db) //nolint:errcheck

	require.NoError(t, db.Create(&models.Link{Token: "abcdefgh", OriginalURL: "https://a.com", ExternalShortURL: "https://x.co/a"}).Error)
	var n int64
	require.NoError(t, db.Model(&models.Link{}).Count(&n).Error)
	require.EqualValues(t, 1, n)
}

func TestOpen_UnknownDriver(t *testing.T) {
	t.Parallel()

	_, err := Open(config.DatabaseConfig{Driver: "mysql"}, nil)
	require.Error(t, err)

	_, err = Open(config.DatabaseConfig{Driver: "postgres"}, nil)
	require.Error(t, err)
}
