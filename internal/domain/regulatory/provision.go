package regulatory

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/mizanhq/mizan-backend/internal/regmap"
)

// Provision is a clause of an Article.
type Provision struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ArticleID uuid.UUID      `gorm:"type:uuid;not null;index;uniqueIndex:idx_provision_article_code,priority:1;column:article_id" json:"article_id"`
	Code      string         `gorm:"not null;uniqueIndex:idx_provision_article_code,priority:2;column:code" json:"code"`
	Name      string         `gorm:"not null;column:name" json:"name"`
	Text      string         `gorm:"column:text" json:"text"`
	Category  string         `gorm:"column:category;index" json:"category"`
	Priority  Priority       `gorm:"not null;column:priority" json:"priority"`
	Metadata  datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (Provision) TableName() string { return "regulatory_provision" }

func (p *Provision) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (p *Provision) Node() regmap.Node {
	return regmap.Node{
		ID:          p.ID.String(),
		Kind:        regmap.KindProvision,
		Code:        p.Code,
		Name:        p.Name,
		Description: p.Text,
		Category:    p.Category,
		Priority:    string(p.Priority),
		ParentID:    p.ArticleID.String(),
	}
}
