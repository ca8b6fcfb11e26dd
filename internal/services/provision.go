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

type ProvisionInput struct {
	ArticleID string          `json:"article_id" validate:"required,uuid"`
	Code      string          `json:"code" validate:"required,max=64"`
	Name      string          `json:"name" validate:"required,max=255"`
	Text      string          `json:"text" validate:"max=100000"`
	Category  string          `json:"category" validate:"max=128"`
	Priority  string          `json:"priority" validate:"oneof=low medium high critical"`
	Metadata  json.RawMessage `json:"metadata"`
}

func (in *ProvisionInput) normalize() {
	in.ArticleID = strings.TrimSpace(in.ArticleID)
	in.Code = strings.TrimSpace(in.Code)
	in.Name = strings.TrimSpace(in.Name)
	in.Text = strings.TrimSpace(in.Text)
	in.Category = strings.ToLower(strings.TrimSpace(in.Category))
	in.Priority = normalizePriority(in.Priority)
}

type ProvisionService interface {
	Get(ctx context.Context, id uuid.UUID) (*types.Provision, error)
	Create(ctx context.Context, in ProvisionInput) (*types.Provision, error)
	Update(ctx context.Context, id uuid.UUID, in ProvisionInput) (*types.Provision, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type provisionService struct {
	db         *gorm.DB
	log        *logger.Logger
	articles   repos.ArticleRepo
	provisions repos.ProvisionRepo
	edges      repos.EdgeRepo
	graph      GraphInvalidator
}

func NewProvisionService(
	db *gorm.DB,
	log *logger.Logger,
	articles repos.ArticleRepo,
	provisions repos.ProvisionRepo,
	edges repos.EdgeRepo,
	graph GraphInvalidator,
) ProvisionService {
	return &provisionService{
		db:         db,
		log:        log.With("service", "ProvisionService"),
		articles:   articles,
		provisions: provisions,
		edges:      edges,
		graph:      graph,
	}
}

func (ps *provisionService) Get(ctx context.Context, id uuid.UUID) (*types.Provision, error) {
	return ps.get(dbctx.Context{Ctx: ctx}, id)
}

func (ps *provisionService) get(dbc dbctx.Context, id uuid.UUID) (*types.Provision, error) {
	rows, err := ps.provisions.GetByIDs(dbc, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, notFound("provision", id)
	}
	return rows[0], nil
}

func (ps *provisionService) requireArticle(dbc dbctx.Context, id uuid.UUID) error {
	rows, err := ps.articles.GetByIDs(dbc, []uuid.UUID{id})
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("%w: article %s does not exist", pkgerrors.ErrInvalidArgument, id)
	}
	return nil
}

func (ps *provisionService) Create(ctx context.Context, in ProvisionInput) (*types.Provision, error) {
	in.normalize()
	if err := validateInput(in); err != nil {
		return nil, err
	}
	meta, err := metadataJSON(in.Metadata)
	if err != nil {
		return nil, err
	}
	articleID := uuid.MustParse(in.ArticleID)

	p := &types.Provision{
		ArticleID: articleID,
		Code:      in.Code,
		Name:      in.Name,
		Text:      in.Text,
		Category:  in.Category,
		Priority:  types.Priority(in.Priority),
		Metadata:  meta,
	}
	err = ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if err := ps.requireArticle(dbc, articleID); err != nil {
			return err
		}
		if _, err := ps.provisions.Create(dbc, []*types.Provision{p}); err != nil {
			return classifyWriteErr(err, fmt.Sprintf("provision %q", in.Code))
		}
		return ensureContains(dbc, ps.edges, articleID, regmap.KindArticle, p.ID, regmap.KindProvision)
	})
	if err != nil {
		return nil, err
	}
	ps.log.Info("provision created", "provision_id", p.ID, "article_id", articleID, "code", p.Code)
	ps.graph.Invalidate(ctx)
	return p, nil
}

func (ps *provisionService) Update(ctx context.Context, id uuid.UUID, in ProvisionInput) (*types.Provision, error) {
	in.normalize()
	if err := validateInput(in); err != nil {
		return nil, err
	}
	meta, err := metadataJSON(in.Metadata)
	if err != nil {
		return nil, err
	}
	articleID := uuid.MustParse(in.ArticleID)

	var out *types.Provision
	err = ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		p, err := ps.get(dbc, id)
		if err != nil {
			return err
		}
		if p.ArticleID != articleID {
			if err := ps.requireArticle(dbc, articleID); err != nil {
				return err
			}
			if err := ps.edges.Reparent(dbc, p.ID, articleID); err != nil {
				return err
			}
		}
		p.ArticleID = articleID
		p.Code = in.Code
		p.Name = in.Name
		p.Text = in.Text
		p.Category = in.Category
		p.Priority = types.Priority(in.Priority)
		p.Metadata = meta
		if err := ps.provisions.Update(dbc, p); err != nil {
			return classifyWriteErr(err, fmt.Sprintf("provision %q", in.Code))
		}
		if err := ensureContains(dbc, ps.edges, articleID, regmap.KindArticle, p.ID, regmap.KindProvision); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	ps.graph.Invalidate(ctx)
	return out, nil
}

func (ps *provisionService) Delete(ctx context.Context, id uuid.UUID) error {
	err := ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := ps.get(dbc, id); err != nil {
			return err
		}
		if err := ps.edges.DeleteTouching(dbc, []uuid.UUID{id}); err != nil {
			return err
		}
		return ps.provisions.DeleteByIDs(dbc, []uuid.UUID{id})
	})
	if err != nil {
		return err
	}
	ps.log.Info("provision deleted", "provision_id", id)
	ps.graph.Invalidate(ctx)
	return nil
}
