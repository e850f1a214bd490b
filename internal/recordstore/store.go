// Package recordstore implements domain.RecordStore: whole collections kept
// as JSON arrays under a collection name, on memory, SQLite, Postgres or Redis.
package recordstore

import (
	"context"
	"fmt"

	"studiobook/internal/config"
	"studiobook/internal/domain"
	"studiobook/internal/logging"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Store is a RecordStore that owns resources.
type Store interface {
	domain.RecordStore
	Close() error
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*SQLStore)(nil)
	_ Store = (*RedisStore)(nil)
	_ Store = (*FailoverStore)(nil)
)

// Open builds the store selected by cfg.Store.Driver. The redis client is
// only used by the redis driver and may be nil otherwise.
func Open(ctx context.Context, cfg *config.Config, rdb *redis.Client, logger *zerolog.Logger) (Store, error) {
	log := logging.Component(logger, "recordstore")

	var (
		primary Store
		err     error
	)
	switch cfg.Store.Driver {
	case config.StoreMemory:
		return NewMemoryStore(), nil
	case config.StoreSQLite:
		primary, err = NewSQLiteStore(ctx, cfg.Store.Path)
	case config.StorePostgres:
		primary, err = NewPostgresStore(ctx, cfg.Postgres.DSN(), cfg.Postgres.MaxConnections)
	case config.StoreRedis:
		if rdb == nil {
			return nil, fmt.Errorf("redis store requires a redis client")
		}
		primary = NewRedisStore(rdb, cfg.Store.RedisPrefix)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}

	log.Info().Str("driver", cfg.Store.Driver).Bool("failover", cfg.Store.Failover).Msg("Record store opened")

	if cfg.Store.Failover {
		return NewFailoverStore(primary, NewMemoryStore(), log), nil
	}
	return primary, nil
}
