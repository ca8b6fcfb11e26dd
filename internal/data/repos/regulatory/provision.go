package regulatory

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/mizanhq/mizan-backend/internal/domain"
	"github.com/mizanhq/mizan-backend/internal/pkg/dbctx"
	"github.com/mizanhq/mizan-backend/internal/platform/logger"
)

type ProvisionRepo interface {
	Create(dbc dbctx.Context, provisions []*types.Provision) ([]*types.Provision, error)
	List(dbc dbctx.Context) ([]*types.Provision, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Provision, error)
	GetByArticleIDs(dbc dbctx.Context, articleIDs []uuid.UUID) ([]*types.Provision, error)
	GetByArticleAndCode(dbc dbctx.Context, articleID uuid.UUID, code string) (*types.Provision, error)
	Update(dbc dbctx.Context, provision *types.Provision) error
	DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
	DeleteAll(dbc dbctx.Context) error
}

type provisionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProvisionRepo(db *gorm.DB, baseLog *logger.Logger) ProvisionRepo {
	repoLog := baseLog.With("repo", "ProvisionRepo")
	return &provisionRepo{db: db, log: repoLog}
}

func (r *provisionRepo) Create(dbc dbctx.Context, provisions []*types.Provision) ([]*types.Provision, error) {
	if len(provisions) == 0 {
		return []*types.Provision{}, nil
	}
	if err := dbc.DB(r.db).Create(&provisions).Error; err != nil {
		return nil, err
	}
	return provisions, nil
}

func (r *provisionRepo) List(dbc dbctx.Context) ([]*types.Provision, error) {
	var results []*types.Provision
	if err := dbc.DB(r.db).Order("article_id ASC, code ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *provisionRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Provision, error) {
	var results []*types.Provision
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

func (r *provisionRepo) GetByArticleIDs(dbc dbctx.Context, articleIDs []uuid.UUID) ([]*types.Provision, error) {
	var results []*types.Provision
	if len(articleIDs) == 0 {
		return results, nil
	}
	if err := dbc.DB(r.db).
		Where("article_id IN ?", articleIDs).
		Order("code ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// GetByArticleAndCode returns nil, nil when no row matches.
func (r *provisionRepo) GetByArticleAndCode(dbc dbctx.Context, articleID uuid.UUID, code string) (*types.Provision, error) {
	var results []*types.Provision
	if err := dbc.DB(r.db).
		Where("article_id = ? AND code = ?", articleID, code).
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (r *provisionRepo) Update(dbc dbctx.Context, provision *types.Provision) error {
	return dbc.DB(r.db).Save(provision).Error
}

func (r *provisionRepo) DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return dbc.DB(r.db).Where("id IN ?", ids).Delete(&types.Provision{}).Error
}

func (r *provisionRepo) DeleteAll(dbc dbctx.Context) error {
	return dbc.DB(r.db).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&types.Provision{}).Error
}
