package regulatory

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/mizanhq/mizan-backend/internal/domain"
	"github.com/mizanhq/mizan-backend/internal/pkg/dbctx"
	"github.com/mizanhq/mizan-backend/internal/platform/logger"
)

type ControlRepo interface {
	Create(dbc dbctx.Context, controls []*types.Control) ([]*types.Control, error)
	List(dbc dbctx.Context) ([]*types.Control, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Control, error)
	GetByFrameworkIDs(dbc dbctx.Context, frameworkIDs []uuid.UUID) ([]*types.Control, error)
	GetByFrameworkAndCode(dbc dbctx.Context, frameworkID uuid.UUID, code string) (*types.Control, error)
	Update(dbc dbctx.Context, control *types.Control) error
	DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
	DeleteAll(dbc dbctx.Context) error
}

type controlRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewControlRepo(db *gorm.DB, baseLog *logger.Logger) ControlRepo {
	repoLog := baseLog.With("repo", "ControlRepo")
	return &controlRepo{db: db, log: repoLog}
}

func (r *controlRepo) Create(dbc dbctx.Context, controls []*types.Control) ([]*types.Control, error) {
	if len(controls) == 0 {
		return []*types.Control{}, nil
	}
	if err := dbc.DB(r.db).Create(&controls).Error; err != nil {
		return nil, err
	}
	return controls, nil
}

func (r *controlRepo) List(dbc dbctx.Context) ([]*types.Control, error) {
	var results []*types.Control
	if err := dbc.DB(r.db).Order("framework_id ASC, code ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *controlRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Control, error) {
	var results []*types.Control
	if len(ids) == 0 {
		return results, nil
	}
	if err := dbc.DB(r.db).
		Where("id IN ?", ids).
		Order("code ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *controlRepo) GetByFrameworkIDs(dbc dbctx.Context, frameworkIDs []uuid.UUID) ([]*types.Control, error) {
	var results []*types.Control
	if len(frameworkIDs) == 0 {
		return results, nil
	}
	if err := dbc.DB(r.db).
		Where("framework_id IN ?", frameworkIDs).
		Order("code ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// GetByFrameworkAndCode returns nil, nil when no row matches.
func (r *controlRepo) GetByFrameworkAndCode(dbc dbctx.Context, frameworkID uuid.UUID, code string) (*types.Control, error) {
	var results []*types.Control
	if err := dbc.DB(r.db).
		Where("framework_id = ? AND code = ?", frameworkID, code).
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (r *controlRepo) Update(dbc dbctx.Context, control *types.Control) error {
	return dbc.DB(r.db).Save(control).Error
}

func (r *controlRepo) DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return dbc.DB(r.db).Where("id IN ?", ids).Delete(&types.Control{}).Error
}

func (r *controlRepo) DeleteAll(dbc dbctx.Context) error {
	return dbc.DB(r.db).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&types.Control{}).Error
}
