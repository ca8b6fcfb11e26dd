package regulatory

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/mizanhq/mizan-backend/internal/regmap"
)

// Framework is a top-level regulatory instrument, e.g. a law or a standard.
type Framework struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Code        string         `gorm:"not null;uniqueIndex;column:code" json:"code"`
	Name        string         `gorm:"not null;column:name" json:"name"`
	Description string         `gorm:"column:description" json:"description"`
	Authority   string         `gorm:"column:authority" json:"authority"`
	Category    string         `gorm:"column:category;index" json:"category"`
	Version     string         `gorm:"column:version" json:"version"`
	Metadata    datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func (Framework) TableName() string { return "regulatory_framework" }

func (f *Framework) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

func (f *Framework) Node() regmap.Node {
	return regmap.Node{
		ID:          f.ID.String(),
		Kind:        regmap.KindFramework,
		Code:        f.Code,
		Name:        f.Name,
		Description: f.Description,
		Category:    f.Category,
	}
}
