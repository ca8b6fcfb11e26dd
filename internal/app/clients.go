package app

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/mizanhq/mizan-backend/internal/clients/redis"
	"github.com/mizanhq/mizan-backend/internal/data/db"
	"github.com/mizanhq/mizan-backend/internal/platform/logger"
	"github.com/mizanhq/mizan-backend/internal/platform/neo4jdb"
)

type Clients struct {
	Database *db.DatabaseService
	// Redis and Neo4j are nil when not configured.
	Redis *goredis.Client
	Neo4j *neo4jdb.Client
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	// Database
	database, err := db.NewDatabaseService(log, cfg.DB)
	if err != nil {
		return Clients{}, fmt.Errorf("init database: %w", err)
	}
	if err := database.AutoMigrateAll(); err != nil {
		_ = database.Close()
		return Clients{}, fmt.Errorf("database automigrate: %w", err)
	}

	// Redis
	rdb, err := redis.NewClient(ctx, cfg.Redis)
	if err != nil {
		_ = database.Close()
		return Clients{}, fmt.Errorf("init redis: %w", err)
	}
	if rdb == nil {
		log.Info("REDIS_ADDR not set; graph snapshot cache is process local")
	}

	// Neo4j
	graphDB, err := neo4jdb.New(log, cfg.Neo4j)
	if err != nil {
		if rdb != nil {
			_ = rdb.Close()
		}
		_ = database.Close()
		return Clients{}, fmt.Errorf("init neo4j: %w", err)
	}
	if graphDB == nil {
		log.Info("NEO4J_URI not set; graph projection disabled")
	}

	return Clients{
		Database: database,
		Redis:    rdb,
		Neo4j:    graphDB,
	}, nil
}

func (c *Clients) Close(ctx context.Context) {
	if c == nil {
		return
	}
	if c.Neo4j != nil {
		_ = c.Neo4j.Close(ctx)
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.Database != nil {
		_ = c.Database.Close()
	}
}
