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

const maxEdgeListLimit = 5000

type EdgeInput struct {
	FromID   string          `json:"from_id" validate:"required,uuid"`
	ToID     string          `json:"to_id" validate:"required,uuid,nefield=FromID"`
	Relation string          `json:"relation" validate:"required,oneof=implements cites maps_to related"`
	Note     string          `json:"note" validate:"max=2000"`
	Metadata json.RawMessage `json:"metadata"`
}

func (in *EdgeInput) normalize() {
	in.FromID = strings.TrimSpace(in.FromID)
	in.ToID = strings.TrimSpace(in.ToID)
	in.Relation = strings.ToLower(strings.TrimSpace(in.Relation))
	in.Note = strings.TrimSpace(in.Note)
}

type EdgeListParams struct {
	FromID   string
	ToID     string
	Relation string
	Limit    int
}

type EdgeService interface {
	List(ctx context.Context, params EdgeListParams) ([]*types.Edge, error)
	Create(ctx context.Context, in EdgeInput) (*types.Edge, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type edgeService struct {
	db       *gorm.DB
	log      *logger.Logger
	edges    repos.EdgeRepo
	resolver nodeResolver
	graph    GraphInvalidator
}

func NewEdgeService(
	db *gorm.DB,
	log *logger.Logger,
	frameworks repos.FrameworkRepo,
	controls repos.ControlRepo,
	articles repos.ArticleRepo,
	provisions repos.ProvisionRepo,
	edges repos.EdgeRepo,
	graph GraphInvalidator,
) EdgeService {
	return &edgeService{
		db:    db,
		log:   log.With("service", "EdgeService"),
		edges: edges,
		resolver: nodeResolver{
			frameworks: frameworks,
			controls:   controls,
			articles:   articles,
			provisions: provisions,
		},
		graph: graph,
	}
}

func (es *edgeService) List(ctx context.Context, params EdgeListParams) ([]*types.Edge, error) {
	filter := repos.EdgeFilter{Limit: params.Limit}
	if strings.TrimSpace(params.FromID) != "" {
		id, err := parseID(params.FromID, "from_id")
		if err != nil {
			return nil, err
		}
		filter.FromID = id
	}
	if strings.TrimSpace(params.ToID) != "" {
		id, err := parseID(params.ToID, "to_id")
		if err != nil {
			return nil, err
		}
		filter.ToID = id
	}
	if rel := strings.ToLower(strings.TrimSpace(params.Relation)); rel != "" {
		r := regmap.Relation(rel)
		if !r.Valid() {
			return nil, fmt.Errorf("%w: unknown relation %q", pkgerrors.ErrInvalidArgument, rel)
		}
		filter.Relation = r
	}
	if filter.Limit < 0 {
		return nil, fmt.Errorf("%w: limit must not be negative", pkgerrors.ErrInvalidArgument)
	}
	if filter.Limit > maxEdgeListLimit {
		filter.Limit = maxEdgeListLimit
	}
	return es.edges.List(dbctx.Context{Ctx: ctx}, filter)
}

// Create adds a cross-reference edge. Structural contains edges are owned by
// the entity services and cannot be created here.
func (es *edgeService) Create(ctx context.Context, in EdgeInput) (*types.Edge, error) {
	in.normalize()
	if err := validateInput(in); err != nil {
		return nil, err
	}
	meta, err := metadataJSON(in.Metadata)
	if err != nil {
		return nil, err
	}
	fromID := uuid.MustParse(in.FromID)
	toID := uuid.MustParse(in.ToID)
	rel := regmap.Relation(in.Relation)

	var out *types.Edge
	err = es.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		fromKind, err := es.resolver.kindOf(dbc, fromID)
		if err != nil {
			return err
		}
		toKind, err := es.resolver.kindOf(dbc, toID)
		if err != nil {
			return err
		}
		exists, err := es.edges.Exists(dbc, fromID, toID, rel)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("edge %s -[%s]-> %s already exists: %w", fromID, rel, toID, pkgerrors.ErrConflict)
		}
		e := &types.Edge{
			FromID:   fromID,
			FromKind: fromKind,
			ToID:     toID,
			ToKind:   toKind,
			Relation: rel,
			Note:     in.Note,
			Metadata: meta,
		}
		if _, err := es.edges.Create(dbc, []*types.Edge{e}); err != nil {
			return classifyWriteErr(err, "edge")
		}
		out = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	es.log.Info("edge created", "edge_id", out.ID, "relation", string(rel))
	es.graph.Invalidate(ctx)
	return out, nil
}

func (es *edgeService) Delete(ctx context.Context, id uuid.UUID) error {
	err := es.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		rows, err := es.edges.GetByIDs(dbc, []uuid.UUID{id})
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return notFound("edge", id)
		}
		if rows[0].Relation == regmap.RelContains {
			return fmt.Errorf("%w: contains edges follow their child entity; delete or move the child instead", pkgerrors.ErrInvalidArgument)
		}
		return es.edges.DeleteByIDs(dbc, []uuid.UUID{id})
	})
	if err != nil {
		return err
	}
	es.log.Info("edge deleted", "edge_id", id)
	es.graph.Invalidate(ctx)
	return nil
}
