// Package storage selects the review store backend named by configuration.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"review_hub/internal/domain"
	"review_hub/internal/shared"
	"review_hub/internal/storage/memory"
	mongostore "review_hub/internal/storage/mongo"
	mysqlrepo "review_hub/internal/storage/mysql"
)

// Open connects the backend named by cfg.StoreDriver. The returned func releases it.
func Open(ctx context.Context, cfg shared.Config) (domain.Store, func(), error) {
	switch cfg.StoreDriver {
	case "mysql", "":
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("sql.Open: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("db.Ping: %w", err)
		}
		log.Info().Msg("database connection ok")
		return mysqlrepo.New(db), func() { _ = db.Close() }, nil

	case "mongo":
		client, err := mongostore.Connect(ctx, cfg.MongoURI)
		if err != nil {
			return nil, nil, err
		}
		s := mongostore.New(client.Database(cfg.MongoDB))
		if err := s.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(ctx)
			return nil, nil, err
		}
		return s, func() { _ = client.Disconnect(context.Background()) }, nil

	case "memory":
		log.Warn().Msg("using in-memory store; data is lost on exit")
		return memory.New(), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
}
