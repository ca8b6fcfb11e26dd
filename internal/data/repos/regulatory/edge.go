package regulatory

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/mizanhq/mizan-backend/internal/domain"
	"github.com/mizanhq/mizan-backend/internal/pkg/dbctx"
	"github.com/mizanhq/mizan-backend/internal/platform/logger"
	"github.com/mizanhq/mizan-backend/internal/regmap"
)

// EdgeFilter narrows List. Zero fields match everything.
type EdgeFilter struct {
	FromID   uuid.UUID
	ToID     uuid.UUID
	Relation regmap.Relation
	Limit    int
}

type EdgeRepo interface {
	Create(dbc dbctx.Context, edges []*types.Edge) ([]*types.Edge, error)
	List(dbc dbctx.Context, filter EdgeFilter) ([]*types.Edge, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Edge, error)
	Exists(dbc dbctx.Context, fromID, toID uuid.UUID, relation regmap.Relation) (bool, error)
	Reparent(dbc dbctx.Context, childID, newParentID uuid.UUID) error
	DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
	DeleteTouching(dbc dbctx.Context, nodeIDs []uuid.UUID) error
	DeleteAll(dbc dbctx.Context) error
}

type edgeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEdgeRepo(db *gorm.DB, baseLog *logger.Logger) EdgeRepo {
	repoLog := baseLog.With("repo", "EdgeRepo")
	return &edgeRepo{db: db, log: repoLog}
}

func (r *edgeRepo) Create(dbc dbctx.Context, edges []*types.Edge) ([]*types.Edge, error) {
	if len(edges) == 0 {
		return []*types.Edge{}, nil
	}
	if err := dbc.DB(r.db).Create(&edges).Error; err != nil {
		return nil, err
	}
	return edges, nil
}

// List returns edges in insertion order so outgoing edge order is stable
// across snapshot loads.
func (r *edgeRepo) List(dbc dbctx.Context, filter EdgeFilter) ([]*types.Edge, error) {
	q := dbc.DB(r.db).Model(&types.Edge{})
	if filter.FromID != uuid.Nil {
		q = q.Where("from_id = ?", filter.FromID)
	}
	if filter.ToID != uuid.Nil {
		q = q.Where("to_id = ?", filter.ToID)
	}
	if filter.Relation != "" {
		q = q.Where("relation = ?", filter.Relation)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var results []*types.Edge
	if err := q.Order("created_at ASC, id ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *edgeRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Edge, error) {
	var results []*types.Edge
	if len(ids) == 0 {
		return results, nil
	}
	if err := dbc.DB(r.db).Where("id IN ?", ids).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *edgeRepo) Exists(dbc dbctx.Context, fromID, toID uuid.UUID, relation regmap.Relation) (bool, error) {
	var count int64
	if err := dbc.DB(r.db).
		Model(&types.Edge{}).
		Where("from_id = ? AND to_id = ? AND relation = ?", fromID, toID, relation).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Reparent moves the structural edge that points at childID so it hangs off
// newParentID.
func (r *edgeRepo) Reparent(dbc dbctx.Context, childID, newParentID uuid.UUID) error {
	return dbc.DB(r.db).
		Model(&types.Edge{}).
		Where("to_id = ? AND relation = ?", childID, regmap.RelContains).
		Update("from_id", newParentID).Error
}

func (r *edgeRepo) DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return dbc.DB(r.db).Where("id IN ?", ids).Delete(&types.Edge{}).Error
}

// DeleteTouching removes every edge with either endpoint in nodeIDs.
func (r *edgeRepo) DeleteTouching(dbc dbctx.Context, nodeIDs []uuid.UUID) error {
	if len(nodeIDs) == 0 {
		return nil
	}
	return dbc.DB(r.db).
		Where("from_id IN ? OR to_id IN ?", nodeIDs, nodeIDs).
		Delete(&types.Edge{}).Error
}

func (r *edgeRepo) DeleteAll(dbc dbctx.Context) error {
	return dbc.DB(r.db).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&types.Edge{}).Error
}
