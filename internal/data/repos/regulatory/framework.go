package regulatory

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/mizanhq/mizan-backend/internal/domain"
	"github.com/mizanhq/mizan-backend/internal/pkg/dbctx"
	"github.com/mizanhq/mizan-backend/internal/platform/logger"
)

type FrameworkRepo interface {
	Create(dbc dbctx.Context, frameworks []*types.Framework) ([]*types.Framework, error)
	List(dbc dbctx.Context) ([]*types.Framework, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Framework, error)
	GetByCodes(dbc dbctx.Context, codes []string) ([]*types.Framework, error)
	Update(dbc dbctx.Context, framework *types.Framework) error
	DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
	DeleteAll(dbc dbctx.Context) error
}

type frameworkRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFrameworkRepo(db *gorm.DB, baseLog *logger.Logger) FrameworkRepo {
	repoLog := baseLog.With("repo", "FrameworkRepo")
	return &frameworkRepo{db: db, log: repoLog}
}

func (r *frameworkRepo) Create(dbc dbctx.Context, frameworks []*types.Framework) ([]*types.Framework, error) {
	if len(frameworks) == 0 {
		return []*types.Framework{}, nil
	}
	if err := dbc.DB(r.db).Create(&frameworks).Error; err != nil {
		return nil, err
	}
	return frameworks, nil
}

func (r *frameworkRepo) List(dbc dbctx.Context) ([]*types.Framework, error) {
	var results []*types.Framework
	if err := dbc.DB(r.db).Order("code ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *frameworkRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Framework, error) {
	var results []*types.Framework
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

func (r *frameworkRepo) GetByCodes(dbc dbctx.Context, codes []string) ([]*types.Framework, error) {
	var results []*types.Framework
	if len(codes) == 0 {
		return results, nil
	}
	if err := dbc.DB(r.db).
		Where("code IN ?", codes).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *frameworkRepo) Update(dbc dbctx.Context, framework *types.Framework) error {
	return dbc.DB(r.db).Save(framework).Error
}

func (r *frameworkRepo) DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return dbc.DB(r.db).Where("id IN ?", ids).Delete(&types.Framework{}).Error
}

func (r *frameworkRepo) DeleteAll(dbc dbctx.Context) error {
	return dbc.DB(r.db).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&types.Framework{}).Error
}
