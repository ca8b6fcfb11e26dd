package db

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/mizanhq/mizan-backend/internal/platform/logger"
)

func TestConfigDSN(t *testing.T) {
	cfg := Config{User: "u", Password: "p", Host: "h", Port: "5432", Name: "mizan"}
	want := "postgres://u:p@h:5432/mizan?sslmode=disable"
	if got := cfg.DSN(); got != want {
		t.Fatalf("DSN() = %q, want %q", got, want)
	}
	cfg.SSLMode = "require"
	if got := cfg.DSN(); got != "postgres://u:p@h:5432/mizan?sslmode=require" {
		t.Fatalf("unexpected DSN with sslmode: %q", got)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if IsUniqueViolation(nil) {
		t.Fatalf("nil is not a violation")
	}
	if !IsUniqueViolation(fmt.Errorf("create: %w", gorm.ErrDuplicatedKey)) {
		t.Fatalf("gorm duplicated key should be detected")
	}
	if !IsUniqueViolation(&pgconn.PgError{Code: "23505"}) {
		t.Fatalf("pg 23505 should be detected")
	}
	if IsUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Fatalf("foreign key violation is not unique violation")
	}
}

func TestSQLiteMigrate(t *testing.T) {
	svc, err := NewDatabaseService(logger.NewNop(), Config{Driver: DriverSQLite, SQLitePath: "file::memory:?cache=shared"})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer svc.Close()

	if svc.Driver() != DriverSQLite {
		t.Fatalf("unexpected driver: %s", svc.Driver())
	}
	if err := svc.AutoMigrateAll(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	for _, table := range []string{"regulatory_framework", "regulatory_control", "regulatory_article", "regulatory_provision", "regulatory_edge", "user", "user_token"} {
		if !svc.DB().Migrator().HasTable(table) {
			t.Fatalf("missing table %s", table)
		}
	}
}

func TestUnsupportedDriver(t *testing.T) {
	if _, err := NewDatabaseService(logger.NewNop(), Config{Driver: "oracle"}); err == nil {
		t.Fatalf("expected error for unsupported driver")
	}
}
