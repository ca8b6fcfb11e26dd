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

type ControlInput struct {
	FrameworkID string          `json:"framework_id" validate:"required,uuid"`
	Code        string          `json:"code" validate:"required,max=64"`
	Name        string          `json:"name" validate:"required,max=255"`
	Description string          `json:"description" validate:"max=20000"`
	Domain      string          `json:"domain" validate:"max=128"`
	Priority    string          `json:"priority" validate:"oneof=low medium high critical"`
	Metadata    json.RawMessage `json:"metadata"`
}

func (in *ControlInput) normalize() {
	in.FrameworkID = strings.TrimSpace(in.FrameworkID)
	in.Code = strings.TrimSpace(in.Code)
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Domain = strings.ToLower(strings.TrimSpace(in.Domain))
	in.Priority = normalizePriority(in.Priority)
}

type ControlService interface {
	Get(ctx context.Context, id uuid.UUID) (*types.Control, error)
	Create(ctx context.Context, in ControlInput) (*types.Control, error)
	Update(ctx context.Context, id uuid.UUID, in ControlInput) (*types.Control, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type controlService struct {
	db         *gorm.DB
	log        *logger.Logger
	frameworks repos.FrameworkRepo
	controls   repos.ControlRepo
	edges      repos.EdgeRepo
	graph      GraphInvalidator
}

func NewControlService(
	db *gorm.DB,
	log *logger.Logger,
	frameworks repos.FrameworkRepo,
	controls repos.ControlRepo,
	edges repos.EdgeRepo,
	graph GraphInvalidator,
) ControlService {
	return &controlService{
		db:         db,
		log:        log.With("service", "ControlService"),
		frameworks: frameworks,
		controls:   controls,
		edges:      edges,
		graph:      graph,
	}
}

func (cs *controlService) Get(ctx context.Context, id uuid.UUID) (*types.Control, error) {
	return cs.get(dbctx.Context{Ctx: ctx}, id)
}

func (cs *controlService) get(dbc dbctx.Context, id uuid.UUID) (*types.Control, error) {
	rows, err := cs.controls.GetByIDs(dbc, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, notFound("control", id)
	}
	return rows[0], nil
}

func (cs *controlService) requireFramework(dbc dbctx.Context, id uuid.UUID) error {
	rows, err := cs.frameworks.GetByIDs(dbc, []uuid.UUID{id})
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("%w: framework %s does not exist", pkgerrors.ErrInvalidArgument, id)
	}
	return nil
}

func (cs *controlService) Create(ctx context.Context, in ControlInput) (*types.Control, error) {
	in.normalize()
	if err := validateInput(in); err != nil {
		return nil, err
	}
	meta, err := metadataJSON(in.Metadata)
	if err != nil {
		return nil, err
	}
	frameworkID := uuid.MustParse(in.FrameworkID)

	c := &types.Control{
		FrameworkID: frameworkID,
		Code:        in.Code,
		Name:        in.Name,
		Description: in.Description,
		Domain:      in.Domain,
		Priority:    types.Priority(in.Priority),
		Metadata:    meta,
	}
	err = cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if err := cs.requireFramework(dbc, frameworkID); err != nil {
			return err
		}
		if _, err := cs.controls.Create(dbc, []*types.Control{c}); err != nil {
			return classifyWriteErr(err, fmt.Sprintf("control %q", in.Code))
		}
		return ensureContains(dbc, cs.edges, frameworkID, regmap.KindFramework, c.ID, regmap.KindControl)
	})
	if err != nil {
		return nil, err
	}
	cs.log.Info("control created", "control_id", c.ID, "framework_id", frameworkID, "code", c.Code)
	cs.graph.Invalidate(ctx)
	return c, nil
}

// Update replaces the control's fields. Moving it to another framework moves
// its structural edge with it.
func (cs *controlService) Update(ctx context.Context, id uuid.UUID, in ControlInput) (*types.Control, error) {
	in.normalize()
	if err := validateInput(in); err != nil {
		return nil, err
	}
	meta, err := metadataJSON(in.Metadata)
	if err != nil {
		return nil, err
	}
	frameworkID := uuid.MustParse(in.FrameworkID)

	var out *types.Control
	err = cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		c, err := cs.get(dbc, id)
		if err != nil {
			return err
		}
		if c.FrameworkID != frameworkID {
			if err := cs.requireFramework(dbc, frameworkID); err != nil {
				return err
			}
			if err := cs.edges.Reparent(dbc, c.ID, frameworkID); err != nil {
				return err
			}
		}
		c.FrameworkID = frameworkID
		c.Code = in.Code
		c.Name = in.Name
		c.Description = in.Description
		c.Domain = in.Domain
		c.Priority = types.Priority(in.Priority)
		c.Metadata = meta
		if err := cs.controls.Update(dbc, c); err != nil {
			return classifyWriteErr(err, fmt.Sprintf("control %q", in.Code))
		}
		if err := ensureContains(dbc, cs.edges, frameworkID, regmap.KindFramework, c.ID, regmap.KindControl); err != nil {
			return err
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	cs.graph.Invalidate(ctx)
	return out, nil
}

func (cs *controlService) Delete(ctx context.Context, id uuid.UUID) error {
	err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := cs.get(dbc, id); err != nil {
			return err
		}
		if err := cs.edges.DeleteTouching(dbc, []uuid.UUID{id}); err != nil {
			return err
		}
		return cs.controls.DeleteByIDs(dbc, []uuid.UUID{id})
	})
	if err != nil {
		return err
	}
	cs.log.Info("control deleted", "control_id", id)
	cs.graph.Invalidate(ctx)
	return nil
}
