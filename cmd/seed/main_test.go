package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func seedEnv(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.db")
	t.Setenv("LOG_MODE", "test")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "file:"+path+"?_foreign_keys=off")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("NEO4J_URI", "")
	t.Setenv("OTEL_ENABLED", "false")
	return path
}

func TestRunSeedsDatabase(t *testing.T) {
	path := seedEnv(t)

	require.NoError(t, run("../../seeds/regulatory.yaml", false))
	require.NoError(t, run("../../seeds/regulatory.yaml", false), "seeding twice is an upsert")

	db, err := gorm.Open(sqlite.Open("file:"+path), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	var frameworks int64
	require.NoError(t, db.Table("regulatory_framework").Count(&frameworks).Error)
	assert.Equal(t, int64(3), frameworks)
}

func TestRunReportsMissingFile(t *testing.T) {
	seedEnv(t)
	assert.Error(t, run(filepath.Join(t.TempDir(), "missing.yaml"), false))
}
