package users

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const Collection = "users"

type MongoStore struct {
	Coll *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{Coll: db.Collection(Collection)}
}

func translateMongo(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		if strings.Contains(err.Error(), "employeeId") {
			return ErrEmployeeIDTaken
		}
		return ErrEmailTaken
	}
	return err
}

func (s *MongoStore) Create(ctx context.Context, u User) error {
	_, err := s.Coll.InsertOne(ctx, u)
	return translateMongo(err)
}

func (s *MongoStore) Get(ctx context.Context, id string) (User, error) {
	var u User
	err := s.Coll.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	return u, translateMongo(err)
}

func (s *MongoStore) GetByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := s.Coll.FindOne(ctx, bson.M{"email": email}).Decode(&u)
	return u, translateMongo(err)
}

func (s *MongoStore) GetMany(ctx context.Context, ids []string) (map[string]User, error) {
	out := make(map[string]User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := s.Coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	var found []User
	if err := cur.All(ctx, &found); err != nil {
		return nil, err
	}
	for _, u := range found {
		out[u.ID] = u
	}
	return out, nil
}

func listFilter(filter ListFilter) bson.M {
	q := bson.M{}
	if filter.Search != "" {
		rx := bson.Regex{Pattern: regexp.QuoteMeta(filter.Search), Options: "i"}
		q["$or"] = bson.A{
			bson.M{"firstName": rx},
			bson.M{"lastName": rx},
			bson.M{"email": rx},
			bson.M{"employeeId": rx},
		}
	}
	if filter.Department != "" {
		q["department"] = filter.Department
	}
	if filter.Role != "" {
		q["role"] = filter.Role
	}
	switch filter.Status {
	case StatusActive:
		q["isActive"] = true
	case StatusInactive:
		q["isActive"] = false
	}
	if filter.IDs != nil {
		q["_id"] = bson.M{"$in": filter.IDs}
	}
	return q
}

func (s *MongoStore) List(ctx context.Context, filter ListFilter) ([]User, int, error) {
	q := listFilter(filter)
	total, err := s.Coll.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64(filter.Offset)).
		SetLimit(int64(filter.Limit))
	cur, err := s.Coll.Find(ctx, q, opts)
	if err != nil {
		return nil, 0, err
	}
	var out []User
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, int(total), nil
}

func (s *MongoStore) Update(ctx context.Context, u User) error {
	set := bson.M{
		"firstName":     u.FirstName,
		"lastName":      u.LastName,
		"email":         u.Email,
		"role":          u.Role,
		"department":    u.Department,
		"isActive":      u.IsActive,
		"updatedAt":     u.UpdatedAt,
	}
	update := bson.M{"$set": set}
	if u.ManagerID == "" {
		update["$unset"] = bson.M{"managerId": ""}
	} else {
		set["managerId"] = u.ManagerID
	}
	return s.updateOne(ctx, u.ID, update)
}

func (s *MongoStore) updateOne(ctx context.Context, id string, update bson.M) error {
	res, err := s.Coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return translateMongo(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) SetBalances(ctx context.Context, id string, b Balances, at time.Time) error {
	return s.updateOne(ctx, id, bson.M{"$set": bson.M{"leaveBalances": b, "updatedAt": at}})
}

func (s *MongoStore) SetPassword(ctx context.Context, id, hash string) error {
	return s.updateOne(ctx, id, bson.M{"$set": bson.M{"passwordHash": hash, "updatedAt": time.Now().UTC()}})
}

func (s *MongoStore) SetActive(ctx context.Context, id string, active bool) error {
	return s.updateOne(ctx, id, bson.M{"$set": bson.M{"isActive": active, "updatedAt": time.Now().UTC()}})
}

func (s *MongoStore) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	return s.updateOne(ctx, id, bson.M{"$set": bson.M{"lastLogin": at}})
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	res, err := s.Coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	_, err = s.Coll.UpdateMany(ctx, bson.M{"managerId": id}, bson.M{"$unset": bson.M{"managerId": ""}})
	return err
}

func (s *MongoStore) CountEmployeeIDPrefix(ctx context.Context, prefix string) (int, error) {
	n, err := s.Coll.CountDocuments(ctx, bson.M{"employeeId": bson.Regex{Pattern: "^" + regexp.QuoteMeta(prefix)}})
	return int(n), err
}

func (s *MongoStore) ListManagers(ctx context.Context) ([]User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "firstName", Value: 1}, {Key: "lastName", Value: 1}})
	cur, err := s.Coll.Find(ctx, bson.M{
		"isActive": true,
		"role":     bson.M{"$in": bson.A{RoleManager, RoleAdmin}},
	}, opts)
	if err != nil {
		return nil, err
	}
	var out []User
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MongoStore) ReportIDs(ctx context.Context, managerID string) ([]string, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cur, err := s.Coll.Find(ctx, bson.M{"managerId": managerID}, opts)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		ID string `bson:"_id"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ID)
	}
	return out, nil
}

func (s *MongoStore) CountActive(ctx context.Context) (int, error) {
	n, err := s.Coll.CountDocuments(ctx, bson.M{"isActive": true})
	return int(n), err
}

// Indexes lists the unique keys the collection relies on.
func Indexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("email_unique")},
		{Keys: bson.D{{Key: "employeeId", Value: 1}}, Options: options.Index().SetUnique(true).SetName("employeeId_unique")},
		{Keys: bson.D{{Key: "managerId", Value: 1}}},
	}
}
