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
	"github.com/mizanhq/mizan-backend/internal/platform/logger"
)

type FrameworkInput struct {
	Code        string          `json:"code" validate:"required,max=64"`
	Name        string          `json:"name" validate:"required,max=255"`
	Description string          `json:"description" validate:"max=20000"`
	Authority   string          `json:"authority" validate:"max=255"`
	Category    string          `json:"category" validate:"max=128"`
	Version     string          `json:"version" validate:"max=64"`
	Metadata    json.RawMessage `json:"metadata"`
}

func (in *FrameworkInput) normalize() {
	in.Code = strings.TrimSpace(in.Code)
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Authority = strings.TrimSpace(in.Authority)
	in.Category = strings.ToLower(strings.TrimSpace(in.Category))
	in.Version = strings.TrimSpace(in.Version)
}

type FrameworkService interface {
	List(ctx context.Context) ([]*types.Framework, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Framework, error)
	Create(ctx context.Context, in FrameworkInput) (*types.Framework, error)
	Update(ctx context.Context, id uuid.UUID, in FrameworkInput) (*types.Framework, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListControls(ctx context.Context, id uuid.UUID) ([]*types.Control, error)
	ListArticles(ctx context.Context, id uuid.UUID) ([]*types.Article, error)
}

type frameworkService struct {
	db         *gorm.DB
	log        *logger.Logger
	frameworks repos.FrameworkRepo
	controls   repos.ControlRepo
	articles   repos.ArticleRepo
	provisions repos.ProvisionRepo
	edges      repos.EdgeRepo
	graph      GraphInvalidator
}

func NewFrameworkService(
	db *gorm.DB,
	log *logger.Logger,
	frameworks repos.FrameworkRepo,
	controls repos.ControlRepo,
	articles repos.ArticleRepo,
	provisions repos.ProvisionRepo,
	edges repos.EdgeRepo,
	graph GraphInvalidator,
) FrameworkService {
	return &frameworkService{
		db:         db,
		log:        log.With("service", "FrameworkService"),
		frameworks: frameworks,
		controls:   controls,
		articles:   articles,
		provisions: provisions,
		edges:      edges,
		graph:      graph,
	}
}

func (fs *frameworkService) List(ctx context.Context) ([]*types.Framework, error) {
	return fs.frameworks.List(dbctx.Context{Ctx: ctx})
}

func (fs *frameworkService) Get(ctx context.Context, id uuid.UUID) (*types.Framework, error) {
	return fs.get(dbctx.Context{Ctx: ctx}, id)
}

func (fs *frameworkService) get(dbc dbctx.Context, id uuid.UUID) (*types.Framework, error) {
	rows, err := fs.frameworks.GetByIDs(dbc, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, notFound("framework", id)
	}
	return rows[0], nil
}

func (fs *frameworkService) Create(ctx context.Context, in FrameworkInput) (*types.Framework, error) {
	in.normalize()
	if err := validateInput(in); err != nil {
		return nil, err
	}
	meta, err := metadataJSON(in.Metadata)
	if err != nil {
		return nil, err
	}
	f := &types.Framework{
		Code:        in.Code,
		Name:        in.Name,
		Description: in.Description,
		Authority:   in.Authority,
		Category:    in.Category,
		Version:     in.Version,
		Metadata:    meta,
	}
	if _, err := fs.frameworks.Create(dbctx.Context{Ctx: ctx}, []*types.Framework{f}); err != nil {
		return nil, classifyWriteErr(err, fmt.Sprintf("framework %q", in.Code))
	}
	fs.log.Info("framework created", "framework_id", f.ID, "code", f.Code)
	fs.graph.Invalidate(ctx)
	return f, nil
}

func (fs *frameworkService) Update(ctx context.Context, id uuid.UUID, in FrameworkInput) (*types.Framework, error) {
	in.normalize()
	if err := validateInput(in); err != nil {
		return nil, err
	}
	meta, err := metadataJSON(in.Metadata)
	if err != nil {
		return nil, err
	}

	var out *types.Framework
	err = fs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		f, err := fs.get(dbc, id)
		if err != nil {
			return err
		}
		f.Code = in.Code
		f.Name = in.Name
		f.Description = in.Description
		f.Authority = in.Authority
		f.Category = in.Category
		f.Version = in.Version
		f.Metadata = meta
		if err := fs.frameworks.Update(dbc, f); err != nil {
			return classifyWriteErr(err, fmt.Sprintf("framework %q", in.Code))
		}
		out = f
		return nil
	})
	if err != nil {
		return nil, err
	}
	fs.graph.Invalidate(ctx)
	return out, nil
}

// Delete removes the framework with its controls, articles, their provisions
// and every edge touching any of them.
func (fs *frameworkService) Delete(ctx context.Context, id uuid.UUID) error {
	var removed int
	err := fs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := fs.get(dbc, id); err != nil {
			return err
		}
		controls, err := fs.controls.GetByFrameworkIDs(dbc, []uuid.UUID{id})
		if err != nil {
			return err
		}
		articles, err := fs.articles.GetByFrameworkIDs(dbc, []uuid.UUID{id})
		if err != nil {
			return err
		}
		articleIDs := make([]uuid.UUID, 0, len(articles))
		for _, a := range articles {
			articleIDs = append(articleIDs, a.ID)
		}
		provisions, err := fs.provisions.GetByArticleIDs(dbc, articleIDs)
		if err != nil {
			return err
		}

		controlIDs := make([]uuid.UUID, 0, len(controls))
		for _, c := range controls {
			controlIDs = append(controlIDs, c.ID)
		}
		provisionIDs := make([]uuid.UUID, 0, len(provisions))
		for _, p := range provisions {
			provisionIDs = append(provisionIDs, p.ID)
		}

		all := append([]uuid.UUID{id}, controlIDs...)
		all = append(all, articleIDs...)
		all = append(all, provisionIDs...)
		if err := fs.edges.DeleteTouching(dbc, all); err != nil {
			return err
		}
		if err := fs.provisions.DeleteByIDs(dbc, provisionIDs); err != nil {
			return err
		}
		if err := fs.articles.DeleteByIDs(dbc, articleIDs); err != nil {
			return err
		}
		if err := fs.controls.DeleteByIDs(dbc, controlIDs); err != nil {
			return err
		}
		removed = len(all)
		return fs.frameworks.DeleteByIDs(dbc, []uuid.UUID{id})
	})
	if err != nil {
		return err
	}
	fs.log.Info("framework deleted", "framework_id", id, "entities_removed", removed)
	fs.graph.Invalidate(ctx)
	return nil
}

func (fs *frameworkService) ListControls(ctx context.Context, id uuid.UUID) ([]*types.Control, error) {
	dbc := dbctx.Context{Ctx: ctx}
	if _, err := fs.get(dbc, id); err != nil {
		return nil, err
	}
	return fs.controls.GetByFrameworkIDs(dbc, []uuid.UUID{id})
}

func (fs *frameworkService) ListArticles(ctx context.Context, id uuid.UUID) ([]*types.Article, error) {
	dbc := dbctx.Context{Ctx: ctx}
	if _, err := fs.get(dbc, id); err != nil {
		return nil, err
	}
	return fs.articles.GetByFrameworkIDs(dbc, []uuid.UUID{id})
}
