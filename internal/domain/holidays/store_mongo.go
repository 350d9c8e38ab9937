package holidays

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const Collection = "holidays"

type MongoStore struct {
	Coll *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{Coll: db.Collection(Collection)}
}

func (s *MongoStore) Create(ctx context.Context, h Holiday) error {
	_, err := s.Coll.InsertOne(ctx, h)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateDate
	}
	return err
}

func (s *MongoStore) List(ctx context.Context, from, to time.Time) ([]Holiday, error) {
	q := bson.M{}
	rng := bson.M{}
	if !from.IsZero() {
		rng["$gte"] = from
	}
	if !to.IsZero() {
		rng["$lte"] = to
	}
	if len(rng) > 0 {
		q["date"] = rng
	}
	cur, err := s.Coll.Find(ctx, q, options.Find().SetSort(bson.D{{Key: "date", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var out []Holiday
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Date = Day(out[i].Date)
	}
	return out, nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) (Holiday, error) {
	var h Holiday
	err := s.Coll.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&h)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Holiday{}, ErrNotFound
	}
	return h, err
}

func Indexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{Keys: bson.D{{Key: "date", Value: 1}}, Options: options.Index().SetUnique(true).SetName("date_unique")},
	}
}
