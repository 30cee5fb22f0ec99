package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func TestDialector(t *testing.T) {
	testCases := []struct {
		dbType   string
		wantName string
	}{
		{"", "sqlite"},
		{"sqlite", "sqlite"},
		{"mysql", "mysql"},
		{"postgres", "postgres"},
	}
	for _, tc := range testCases {
		t.Run("type="+tc.dbType, func(t *testing.T) {
			d, err := Dialector(tc.dbType, "")
			require.NoError(t, err)
			assert.Equal(t, tc.wantName, d.Name())
		})
	}

	_, err := Dialector("oracle", "")
	assert.EqualError(t, err, `unsupported database type "oracle"`)
}

type migrateProbe struct {
	ID   uint
	Name string
}

func TestNewGormDB_SQLiteAndMigrate(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "dialect.db")
	gormDB, err := NewGormDB("sqlite", dsn, logger.Silent)
	require.NoError(t, err)
	defer func() {
		if sqlDB, err := gormDB.DB(); err == nil {
			sqlDB.Close()
		}
	}()

	require.NoError(t, AutoMigrate(gormDB, &migrateProbe{}))
	assert.True(t, gormDB.Migrator().HasTable(&migrateProbe{}))
}
