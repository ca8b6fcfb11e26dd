package db

import (
	"fmt"

	types "github.com/mizanhq/mizan-backend/internal/domain"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(

		// =========================
		// Identity + auth
		// =========================
		&types.User{},
		&types.UserToken{},

		// =========================
		// Regulatory entities
		// =========================
		&types.Framework{},
		&types.Control{},
		&types.Article{},
		&types.Provision{},

		// =========================
		// Regulatory graph
		// =========================
		&types.Edge{},
	)
}

// EnsureRegulatoryIndexes creates the indexes gorm tags cannot express. The
// statements are portable between Postgres and SQLite.
func EnsureRegulatoryIndexes(db *gorm.DB) error {
	stmts := []struct {
		name string
		sql  string
	}{
		{"idx_regulatory_edge_to_relation", `CREATE INDEX IF NOT EXISTS idx_regulatory_edge_to_relation ON regulatory_edge(to_id, relation);`},
		{"idx_regulatory_edge_from_relation", `CREATE INDEX IF NOT EXISTS idx_regulatory_edge_from_relation ON regulatory_edge(from_id, relation);`},
		{"idx_regulatory_control_priority", `CREATE INDEX IF NOT EXISTS idx_regulatory_control_priority ON regulatory_control(framework_id, priority);`},
	}
	for _, s := range stmts {
		if err := db.Exec(s.sql).Error; err != nil {
			return fmt.Errorf("create %s: %w", s.name, err)
		}
	}
	return nil
}
