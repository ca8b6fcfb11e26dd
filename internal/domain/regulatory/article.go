package regulatory

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/mizanhq/mizan-backend/internal/regmap"
)

// Article is a numbered piece of legal text within a Framework.
type Article struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	FrameworkID uuid.UUID      `gorm:"type:uuid;not null;index;uniqueIndex:idx_article_framework_code,priority:1;column:framework_id" json:"framework_id"`
	Code        string         `gorm:"not null;uniqueIndex:idx_article_framework_code,priority:2;column:code" json:"code"`
	Title       string         `gorm:"not null;column:title" json:"title"`
	Body        string         `gorm:"column:body" json:"body"`
	Category    string         `gorm:"column:category;index" json:"category"`
	Priority    Priority       `gorm:"not null;column:priority" json:"priority"`
	Metadata    datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func (Article) TableName() string { return "regulatory_article" }

func (a *Article) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

func (a *Article) Node() regmap.Node {
	return regmap.Node{
		ID:          a.ID.String(),
		Kind:        regmap.KindArticle,
		Code:        a.Code,
		Name:        a.Title,
		Description: a.Body,
		Category:    a.Category,
		Priority:    string(a.Priority),
		ParentID:    a.FrameworkID.String(),
	}
}
