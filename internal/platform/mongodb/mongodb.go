package mongodb

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"leavestride/internal/domain/holidays"
	"leavestride/internal/domain/leave"
	"leavestride/internal/domain/users"
	"leavestride/internal/platform/config"
)

func Connect(ctx context.Context, cfg config.Config) (*mongo.Client, *mongo.Database, error) {
	client, err := mongo.Connect(options.Client().
		ApplyURI(cfg.MongoURI).
		SetMaxPoolSize(20).
		SetServerSelectionTimeout(5 * time.Second))
	if err != nil {
		return nil, nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, err
	}
	return client, client.Database(cfg.MongoDatabase), nil
}

// EnsureIndexes creates the unique and lookup indexes every collection relies on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	sets := []struct {
		collection string
		models     []mongo.IndexModel
	}{
		{users.Collection, users.Indexes()},
		{holidays.Collection, holidays.Indexes()},
		{leave.Collection, leave.Indexes()},
	}
	for _, set := range sets {
		names, err := db.Collection(set.collection).Indexes().CreateMany(ctx, set.models)
		if err != nil {
			return fmt.Errorf("create %s indexes: %w", set.collection, err)
		}
		slog.Debug("mongo indexes ensured", "collection", set.collection, "indexes", names)
	}
	return nil
}

type helloReply struct {
	SetName string `bson:"setName"`
	Msg     string `bson:"msg"`
}

// transactional is true for replica set members and mongos routers.
func (h helloReply) transactional() bool {
	return h.SetName != "" || h.Msg == "isdbgrid"
}

// SupportsTransactions reports whether the server is a replica set member or a mongos router.
func SupportsTransactions(ctx context.Context, db *mongo.Database) bool {
	var hello helloReply
	if err := db.RunCommand(ctx, bson.D{{Key: "hello", Value: 1}}).Decode(&hello); err != nil {
		slog.Warn("mongo hello failed, transactions disabled", "err", err)
		return false
	}
	return hello.transactional()
}
