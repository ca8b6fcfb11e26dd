package regulatory

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/mizanhq/mizan-backend/internal/domain"
	"github.com/mizanhq/mizan-backend/internal/pkg/dbctx"
	"github.com/mizanhq/mizan-backend/internal/platform/logger"
)

type ArticleRepo interface {
	Create(dbc dbctx.Context, articles []*types.Article) ([]*types.Article, error)
	List(dbc dbctx.Context) ([]*types.Article, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Article, error)
	GetByFrameworkIDs(dbc dbctx.Context, frameworkIDs []uuid.UUID) ([]*types.Article, error)
	GetByFrameworkAndCode(dbc dbctx.Context, frameworkID uuid.UUID, code string) (*types.Article, error)
	Update(dbc dbctx.Context, article *types.Article) error
	DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
	DeleteAll(dbc dbctx.Context) error
}

type articleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewArticleRepo(db *gorm.DB, baseLog *logger.Logger) ArticleRepo {
	repoLog := baseLog.With("repo", "ArticleRepo")
	return &articleRepo{db: db, log: repoLog}
}

func (r *articleRepo) Create(dbc dbctx.Context, articles []*types.Article) ([]*types.Article, error) {
	if len(articles) == 0 {
		return []*types.Article{}, nil
	}
	if err := dbc.DB(r.db).Create(&articles).Error; err != nil {
		return nil, err
	}
	return articles, nil
}

func (r *articleRepo) List(dbc dbctx.Context) ([]*types.Article, error) {
	var results []*types.Article
	if err := dbc.DB(r.db).Order("framework_id ASC, code ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *articleRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Article, error) {
	var results []*types.Article
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

func (r *articleRepo) GetByFrameworkIDs(dbc dbctx.Context, frameworkIDs []uuid.UUID) ([]*types.Article, error) {
	var results []*types.Article
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
func (r *articleRepo) GetByFrameworkAndCode(dbc dbctx.Context, frameworkID uuid.UUID, code string) (*types.Article, error) {
	var results []*types.Article
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

func (r *articleRepo) Update(dbc dbctx.Context, article *types.Article) error {
	return dbc.DB(r.db).Save(article).Error
}

func (r *articleRepo) DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return dbc.DB(r.db).Where("id IN ?", ids).Delete(&types.Article{}).Error
}

func (r *articleRepo) DeleteAll(dbc dbctx.Context) error {
	return dbc.DB(r.db).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&types.Article{}).Error
}
