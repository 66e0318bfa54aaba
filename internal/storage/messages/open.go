package messages

import (
	"context"
	"fmt"

	"github.com/zhouzirui/peoplemap/backend/internal/config"
	"github.com/zhouzirui/peoplemap/backend/internal/model/chat"
)

// Store is a chat.Store that owns a connection to release on shutdown.
type Store interface {
	chat.Store
	Close(ctx context.Context) error
}

// Open builds the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case config.StoreMongo:
		return NewMongoStore(ctx, MongoConfig{
			URI:        cfg.MongoURI,
			Database:   cfg.MongoDatabase,
			Collection: cfg.MongoCollection,
			Timeout:    cfg.ConnectTimeout,
		})
	case config.StorePostgres:
		return NewPostgresStore(ctx, cfg.DatabaseURL)
	case config.StoreSQLite:
		return NewSQLiteStore(cfg.SQLitePath)
	case config.StoreMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported chat store %q", cfg.Driver)
	}
}
