package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mizanhq/mizan-backend/internal/data/repos"
	types "github.com/mizanhq/mizan-backend/internal/domain"
	"github.com/mizanhq/mizan-backend/internal/pkg/dbctx"
	pkgerrors "github.com/mizanhq/mizan-backend/internal/pkg/errors"
	"github.com/mizanhq/mizan-backend/internal/platform/logger"
	"github.com/mizanhq/mizan-backend/internal/regmap"
)

type ArticleInput struct {
	FrameworkID string          `json:"framework_id" validate:"required,uuid"`
	Code        string          `json:"code" validate:"required,max=64"`
	Title       string          `json:"title" validate:"required,max=255"`
	Body        string          `json:"body" validate:"max=100000"`
	Category    string          `json:"category" validate:"max=128"`
	Priority    string          `json:"priority" validate:"oneof=low medium high critical"`
	Metadata    json.RawMessage `json:"metadata"`
}

func (in *ArticleInput) normalize() {
	in.FrameworkID = strings.TrimSpace(in.FrameworkID)
	in.Code = strings.TrimSpace(in.Code)
	in.Title = strings.TrimSpace(in.Title)
	in.Body = strings.TrimSpace(in.Body)
	in.Category = strings.ToLower(strings.TrimSpace(in.Category))
	in.Priority = normalizePriority(in.Priority)
}

type ArticleService interface {
	Get(ctx context.Context, id uuid.UUID) (*types.Article, error)
	Create(ctx context.Context, in ArticleInput) (*types.Article, error)
	Update(ctx context.Context, id uuid.UUID, in ArticleInput) (*types.Article, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListProvisions(ctx context.Context, id uuid.UUID) ([]*types.Provision, error)
}

type articleService struct {
	db         *gorm.DB
	log        *logger.Logger
	frameworks repos.FrameworkRepo
	articles   repos.ArticleRepo
	provisions repos.ProvisionRepo
	edges      repos.EdgeRepo
	graph      GraphInvalidator
}

func NewArticleService(
	db *gorm.DB,
	log *logger.Logger,
	frameworks repos.FrameworkRepo,
	articles repos.ArticleRepo,
	provisions repos.ProvisionRepo,
	edges repos.EdgeRepo,
	graph GraphInvalidator,
) ArticleService {
	return &articleService{
		db:         db,
		log:        log.With("service", "ArticleService"),
		frameworks: frameworks,
		articles:   articles,
		provisions: provisions,
		edges:      edges,
		graph:      graph,
	}
}

func (as *articleService) Get(ctx context.Context, id uuid.UUID) (*types.Article, error) {
	return as.get(dbctx.Context{Ctx: ctx}, id)
}

func (as *articleService) get(dbc dbctx.Context, id uuid.UUID) (*types.Article, error) {
	rows, err := as.articles.GetByIDs(dbc, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, notFound("article", id)
	}
	return rows[0], nil
}

func (as *articleService) requireFramework(dbc dbctx.Context, id uuid.UUID) error {
	rows, err := as.frameworks.GetByIDs(dbc, []uuid.UUID{id})
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("%w: framework %s does not exist", pkgerrors.ErrInvalidArgument, id)
	}
	return nil
}

func (as *articleService) Create(ctx context.Context, in ArticleInput) (*types.Article, error) {
	in.normalize()
	if err := validateInput(in); err != nil {
		return nil, err
	}
	meta, err := metadataJSON(in.Metadata)
	if err != nil {
		return nil, err
	}
	frameworkID := uuid.MustParse(in.FrameworkID)

	a := &types.Article{
		FrameworkID: frameworkID,
		Code:        in.Code,
		Title:       in.Title,
		Body:        in.Body,
		Category:    in.Category,
		Priority:    types.Priority(in.Priority),
		Metadata:    meta,
	}
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if err := as.requireFramework(dbc, frameworkID); err != nil {
			return err
		}
		if _, err := as.articles.Create(dbc, []*types.Article{a}); err != nil {
			return classifyWriteErr(err, fmt.Sprintf("article %q", in.Code))
		}
		return ensureContains(dbc, as.edges, frameworkID, regmap.KindFramework, a.ID, regmap.KindArticle)
	})
	if err != nil {
		return nil, err
	}
	as.log.Info("article created", "article_id", a.ID, "framework_id", frameworkID, "code", a.Code)
	as.graph.Invalidate(ctx)
	return a, nil
}

func (as *articleService) Update(ctx context.Context, id uuid.UUID, in ArticleInput) (*types.Article, error) {
	in.normalize()
	if err := validateInput(in); err != nil {
		return nil, err
	}
	meta, err := metadataJSON(in.Metadata)
	if err != nil {
		return nil, err
	}
	frameworkID := uuid.MustParse(in.FrameworkID)

	var out *types.Article
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		a, err := as.get(dbc, id)
		if err != nil {
			return err
		}
		if a.FrameworkID != frameworkID {
			if err := as.requireFramework(dbc, frameworkID); err != nil {
				return err
			}
			if err := as.edges.Reparent(dbc, a.ID, frameworkID); err != nil {
				return err
			}
		}
		a.FrameworkID = frameworkID
		a.Code = in.Code
		a.Title = in.Title
		a.Body = in.Body
		a.Category = in.Category
		a.Priority = types.Priority(in.Priority)
		a.Metadata = meta
		if err := as.articles.Update(dbc, a); err != nil {
			return classifyWriteErr(err, fmt.Sprintf("article %q", in.Code))
		}
		if err := ensureContains(dbc, as.edges, frameworkID, regmap.KindFramework, a.ID, regmap.KindArticle); err != nil {
			return err
		}
		out = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	as.graph.Invalidate(ctx)
	return out, nil
}

// Delete removes the article, its provisions and every edge touching them.
func (as *articleService) Delete(ctx context.Context, id uuid.UUID) error {
	err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := as.get(dbc, id); err != nil {
			return err
		}
		provisions, err := as.provisions.GetByArticleIDs(dbc, []uuid.UUID{id})
		if err != nil {
			return err
		}
		ids := []uuid.UUID{id}
		provisionIDs := make([]uuid.UUID, 0, len(provisions))
		for _, p := range provisions {
			provisionIDs = append(provisionIDs, p.ID)
		}
		ids = append(ids, provisionIDs...)
		if err := as.edges.DeleteTouching(dbc, ids); err != nil {
			return err
		}
		if err := as.provisions.DeleteByIDs(dbc, provisionIDs); err != nil {
			return err
		}
		return as.articles.DeleteByIDs(dbc, []uuid.UUID{id})
	})
	if err != nil {
		return err
	}
	as.log.Info("article deleted", "article_id", id)
	as.graph.Invalidate(ctx)
	return nil
}

func (as *articleService) ListProvisions(ctx context.Context, id uuid.UUID) ([]*types.Provision, error) {
	dbc := dbctx.Context{Ctx: ctx}
	if _, err := as.get(dbc, id); err != nil {
		return nil, err
	}
	return as.provisions.GetByArticleIDs(dbc, []uuid.UUID{id})
}
