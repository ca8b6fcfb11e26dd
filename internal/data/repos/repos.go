package repos

import (
	"github.com/mizanhq/mizan-backend/internal/data/repos/auth"
	"github.com/mizanhq/mizan-backend/internal/data/repos/regulatory"
	"github.com/mizanhq/mizan-backend/internal/data/repos/user"
	"github.com/mizanhq/mizan-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type UserRepo = user.UserRepo
type UserTokenRepo = auth.UserTokenRepo

type FrameworkRepo = regulatory.FrameworkRepo
type ControlRepo = regulatory.ControlRepo
type ArticleRepo = regulatory.ArticleRepo
type ProvisionRepo = regulatory.ProvisionRepo
type EdgeRepo = regulatory.EdgeRepo
type EdgeFilter = regulatory.EdgeFilter

func NewUserRepo(db *gorm.DB, log *logger.Logger) UserRepo { return user.NewUserRepo(db, log) }
func NewUserTokenRepo(db *gorm.DB, log *logger.Logger) UserTokenRepo {
	return auth.NewUserTokenRepo(db, log)
}

func NewFrameworkRepo(db *gorm.DB, log *logger.Logger) FrameworkRepo {
	return regulatory.NewFrameworkRepo(db, log)
}
func NewControlRepo(db *gorm.DB, log *logger.Logger) ControlRepo {
	return regulatory.NewControlRepo(db, log)
}
func NewArticleRepo(db *gorm.DB, log *logger.Logger) ArticleRepo {
	return regulatory.NewArticleRepo(db, log)
}
func NewProvisionRepo(db *gorm.DB, log *logger.Logger) ProvisionRepo {
	return regulatory.NewProvisionRepo(db, log)
}
func NewEdgeRepo(db *gorm.DB, log *logger.Logger) EdgeRepo { return regulatory.NewEdgeRepo(db, log) }
