package app

import (
	"gorm.io/gorm"

	"github.com/mizanhq/mizan-backend/internal/data/repos"
	"github.com/mizanhq/mizan-backend/internal/platform/logger"
)

type Repos struct {
	// Identity
	User      repos.UserRepo
	UserToken repos.UserTokenRepo

	// Regulatory
	Framework repos.FrameworkRepo
	Control   repos.ControlRepo
	Article   repos.ArticleRepo
	Provision repos.ProvisionRepo
	Edge      repos.EdgeRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:      repos.NewUserRepo(db, log),
		UserToken: repos.NewUserTokenRepo(db, log),

		Framework: repos.NewFrameworkRepo(db, log),
		Control:   repos.NewControlRepo(db, log),
		Article:   repos.NewArticleRepo(db, log),
		Provision: repos.NewProvisionRepo(db, log),
		Edge:      repos.NewEdgeRepo(db, log),
	}
}
