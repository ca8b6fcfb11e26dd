package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/mizanhq/mizan-backend/internal/domain"
	"github.com/mizanhq/mizan-backend/internal/regmap"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:        uuid.New(),
		Email:     email,
		Password:  "pw",
		FirstName: "A",
		LastName:  "B",
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedFramework(tb testing.TB, ctx context.Context, tx *gorm.DB, code string) *types.Framework {
	tb.Helper()
	f := &types.Framework{
		ID:       uuid.New(),
		Code:     code,
		Name:     code + " framework",
		Category: "privacy",
	}
	if err := tx.WithContext(ctx).Create(f).Error; err != nil {
		tb.Fatalf("seed framework: %v", err)
	}
	return f
}

// SeedControl creates the control and its structural edge.
func SeedControl(tb testing.TB, ctx context.Context, tx *gorm.DB, frameworkID uuid.UUID, code string) *types.Control {
	tb.Helper()
	c := &types.Control{
		ID:          uuid.New(),
		FrameworkID: frameworkID,
		Code:        code,
		Name:        "control " + code,
		Domain:      "governance",
		Priority:    "high",
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed control: %v", err)
	}
	SeedEdge(tb, ctx, tx, frameworkID, regmap.KindFramework, c.ID, regmap.KindControl, regmap.RelContains)
	return c
}

// SeedArticle creates the article and its structural edge.
func SeedArticle(tb testing.TB, ctx context.Context, tx *gorm.DB, frameworkID uuid.UUID, code string) *types.Article {
	tb.Helper()
	a := &types.Article{
		ID:          uuid.New(),
		FrameworkID: frameworkID,
		Code:        code,
		Title:       "article " + code,
		Priority:    "medium",
	}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed article: %v", err)
	}
	SeedEdge(tb, ctx, tx, frameworkID, regmap.KindFramework, a.ID, regmap.KindArticle, regmap.RelContains)
	return a
}

// SeedProvision creates the provision and its structural edge.
func SeedProvision(tb testing.TB, ctx context.Context, tx *gorm.DB, articleID uuid.UUID, code string) *types.Provision {
	tb.Helper()
	p := &types.Provision{
		ID:        uuid.New(),
		ArticleID: articleID,
		Code:      code,
		Name:      "provision " + code,
		Priority:  "low",
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed provision: %v", err)
	}
	SeedEdge(tb, ctx, tx, articleID, regmap.KindArticle, p.ID, regmap.KindProvision, regmap.RelContains)
	return p
}

func SeedEdge(tb testing.TB, ctx context.Context, tx *gorm.DB, fromID uuid.UUID, fromKind regmap.Kind, toID uuid.UUID, toKind regmap.Kind, rel regmap.Relation) *types.Edge {
	tb.Helper()
	e := &types.Edge{
		ID:       uuid.New(),
		FromID:   fromID,
		FromKind: fromKind,
		ToID:     toID,
		ToKind:   toKind,
		Relation: rel,
	}
	if err := tx.WithContext(ctx).Create(e).Error; err != nil {
		tb.Fatalf("seed edge: %v", err)
	}
	return e
}
