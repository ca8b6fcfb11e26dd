package regulatory

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/mizanhq/mizan-backend/internal/regmap"
)

// Control is an actionable requirement that belongs to a Framework.
type Control struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	FrameworkID uuid.UUID      `gorm:"type:uuid;not null;index;uniqueIndex:idx_control_framework_code,priority:1;column:framework_id" json:"framework_id"`
	Code        string         `gorm:"not null;uniqueIndex:idx_control_framework_code,priority:2;column:code" json:"code"`
	Name        string         `gorm:"not null;column:name" json:"name"`
	Description string         `gorm:"column:description" json:"description"`
	Domain      string         `gorm:"column:domain;index" json:"domain"`
	Priority    Priority       `gorm:"not null;column:priority" json:"priority"`
	Metadata    datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func (Control) TableName() string { return "regulatory_control" }

func (c *Control) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (c *Control) Node() regmap.Node {
	return regmap.Node{
		ID:          c.ID.String(),
		Kind:        regmap.KindControl,
		Code:        c.Code,
		Name:        c.Name,
		Description: c.Description,
		Category:    c.Domain,
		Priority:    string(c.Priority),
		ParentID:    c.FrameworkID.String(),
	}
}
