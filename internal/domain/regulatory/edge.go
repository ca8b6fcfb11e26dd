package regulatory

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/mizanhq/mizan-backend/internal/regmap"
)

// Edge is a typed, directed relation between any two regulatory entities.
// The from/to kinds are stored alongside the ids so the edge table can be
// read without joining all four entity tables.
type Edge struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	FromID    uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:idx_regulatory_edge_triple,priority:1;column:from_id" json:"from_id"`
	FromKind  regmap.Kind     `gorm:"not null;column:from_kind" json:"from_kind"`
	ToID      uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:idx_regulatory_edge_triple,priority:2;column:to_id" json:"to_id"`
	ToKind    regmap.Kind     `gorm:"not null;column:to_kind" json:"to_kind"`
	Relation  regmap.Relation `gorm:"not null;uniqueIndex:idx_regulatory_edge_triple,priority:3;column:relation" json:"relation"`
	Note      string          `gorm:"column:note" json:"note,omitempty"`
	Metadata  datatypes.JSON  `gorm:"column:metadata" json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

func (Edge) TableName() string { return "regulatory_edge" }

func (e *Edge) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

func (e *Edge) GraphEdge() regmap.Edge {
	return regmap.Edge{
		ID:       e.ID.String(),
		From:     e.FromID.String(),
		To:       e.ToID.String(),
		Relation: e.Relation,
	}
}

// ContainsEdge builds the structural parent → child edge.
func ContainsEdge(parentID uuid.UUID, parentKind regmap.Kind, childID uuid.UUID, childKind regmap.Kind) *Edge {
	return &Edge{
		FromID:   parentID,
		FromKind: parentKind,
		ToID:     childID,
		ToKind:   childKind,
		Relation: regmap.RelContains,
	}
}
