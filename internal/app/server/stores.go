package server

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"leavestride/internal/domain/holidays"
	"leavestride/internal/domain/leave"
	"leavestride/internal/domain/users"
	"leavestride/internal/platform/config"
	"leavestride/internal/platform/db"
	"leavestride/internal/platform/memstore"
	"leavestride/internal/platform/mongodb"
)

// stores is the persistence selected by STORE_DRIVER.
type stores struct {
	Users    users.StoreAPI
	Holidays holidays.StoreAPI
	Leaves   leave.StoreAPI
	ping     func(ctx context.Context) error
	close    func()
}

func openStores(ctx context.Context, cfg config.Config) (*stores, error) {
	switch cfg.StoreDriver {
	case "memory":
		mem := memstore.New()
		slog.Warn("using in-memory store; data is lost on restart")
		return &stores{
			Users:    mem.Users(),
			Holidays: mem.Holidays(),
			Leaves:   mem.Leaves(),
			ping:     mem.Ping,
			close:    func() {},
		}, nil
	case "postgres":
		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if cfg.RunMigrations {
			if err := db.Migrate(ctx, pool); err != nil {
				pool.Close()
				return nil, fmt.Errorf("migrate: %w", err)
			}
		}
		return &stores{
			Users:    users.NewStore(pool),
			Holidays: holidays.NewStore(pool),
			Leaves:   leave.NewStore(pool),
			ping:     pool.Ping,
			close:    pool.Close,
		}, nil
	case "mongo":
		client, database, err := mongodb.Connect(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		if cfg.RunMigrations {
			if err := mongodb.EnsureIndexes(ctx, database); err != nil {
				_ = client.Disconnect(context.Background())
				return nil, fmt.Errorf("ensure indexes: %w", err)
			}
		}
		leaves := leave.NewMongoStore(database)
		leaves.Transactions = mongodb.SupportsTransactions(ctx, database)
		if !leaves.Transactions {
			slog.Warn("mongo is standalone; leave transitions use compensating writes")
		}
		return &stores{
			Users:    users.NewMongoStore(database),
			Holidays: holidays.NewMongoStore(database),
			Leaves:   leaves,
			ping: func(ctx context.Context) error {
				return client.Ping(ctx, readpref.Primary())
			},
			close: func() {
				if err := client.Disconnect(context.Background()); err != nil {
					slog.Warn("mongo disconnect failed", "err", err)
				}
			},
		}, nil
	}
	return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
}
