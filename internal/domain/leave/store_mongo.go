package leave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"leavestride/internal/domain/users"
)

const Collection = "leave_requests"

// MongoStore keeps requests and balances in separate collections. On replica sets
// (Transactions) a status change and its balance write commit together. Standalone servers
// fall back to conditional updates with a failed debit compensated by restoring PENDING.
type MongoStore struct {
	Coll         *mongo.Collection
	Users        *mongo.Collection
	Transactions bool
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{Coll: db.Collection(Collection), Users: db.Collection(users.Collection)}
}

var notDeleted = bson.M{"deletedAt": nil}

func (s *MongoStore) Create(ctx context.Context, r Request) error {
	_, err := s.Coll.InsertOne(ctx, r)
	return err
}

func (s *MongoStore) Get(ctx context.Context, id string) (Request, error) {
	var r Request
	err := s.Coll.FindOne(ctx, bson.M{"_id": id, "deletedAt": nil}).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Request{}, ErrNotFound
	}
	return r, err
}

func (s *MongoStore) Overlapping(ctx context.Context, userID string, from, to time.Time) (bool, error) {
	n, err := s.Coll.CountDocuments(ctx, bson.M{
		"userId":    userID,
		"deletedAt": nil,
		"status":    bson.M{"$in": bson.A{StatusPending, StatusApproved}},
		"from":      bson.M{"$lte": to},
		"to":        bson.M{"$gte": from},
	}, options.Count().SetLimit(1))
	return n > 0, err
}

func listQuery(filter ListFilter) bson.M {
	q := bson.M{"deletedAt": nil}
	if filter.Status != "" {
		q["status"] = filter.Status
	}
	if filter.LeaveType != "" {
		q["leaveType"] = filter.LeaveType
	}
	fromCond := bson.M{}
	toCond := bson.M{}
	if !filter.Start.IsZero() {
		fromCond["$gte"] = filter.Start
	}
	if !filter.OverlapTo.IsZero() {
		fromCond["$lte"] = filter.OverlapTo
	}
	if !filter.End.IsZero() {
		toCond["$lte"] = filter.End
	}
	if !filter.OverlapFrom.IsZero() {
		toCond["$gte"] = filter.OverlapFrom
	}
	if len(fromCond) > 0 {
		q["from"] = fromCond
	}
	if len(toCond) > 0 {
		q["to"] = toCond
	}
	if filter.UserIDs != nil {
		q["userId"] = bson.M{"$in": filter.UserIDs}
	}
	return q
}

func (s *MongoStore) List(ctx context.Context, filter ListFilter) ([]Request, int, error) {
	q := listQuery(filter)
	total, err := s.Coll.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if filter.Limit > 0 {
		opts.SetSkip(int64(filter.Offset)).SetLimit(int64(filter.Limit))
	}
	cur, err := s.Coll.Find(ctx, q, opts)
	if err != nil {
		return nil, 0, err
	}
	var out []Request
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, int(total), nil
}

func balancePath(field string) (string, error) {
	if !users.ValidBalanceField(field) {
		return "", fmt.Errorf("unknown balance field %q", field)
	}
	return "leaveBalances." + field, nil
}

func (s *MongoStore) Apply(ctx context.Context, t Transition) (Request, error) {
	if !s.Transactions {
		return s.applyCompensated(ctx, t)
	}
	var r Request
	err := s.inTx(ctx, func(ctx context.Context) error {
		var err error
		if r, err = s.markTransition(ctx, t); err != nil {
			return err
		}
		return s.debit(ctx, r.UserID, t)
	})
	if err != nil {
		return Request{}, err
	}
	return r, nil
}

// applyCompensated is used on standalone servers. A crash between the two writes leaves the
// request decided without its debit.
func (s *MongoStore) applyCompensated(ctx context.Context, t Transition) (Request, error) {
	r, err := s.markTransition(ctx, t)
	if err != nil {
		return Request{}, err
	}
	if err := s.debit(ctx, r.UserID, t); err != nil {
		s.restorePending(ctx, t)
		return Request{}, err
	}
	return r, nil
}

func (s *MongoStore) markTransition(ctx context.Context, t Transition) (Request, error) {
	set := bson.M{"status": t.To, "updatedAt": t.At}
	if t.ApproverID != "" {
		set["approverId"] = t.ApproverID
	}
	var r Request
	err := s.Coll.FindOneAndUpdate(ctx,
		bson.M{"_id": t.RequestID, "status": StatusPending, "deletedAt": nil},
		bson.M{"$set": set, "$push": bson.M{"history": t.Entry}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Request{}, ErrInvalidState
	}
	return r, err
}

func (s *MongoStore) debit(ctx context.Context, userID string, t Transition) error {
	if t.DebitField == "" || t.Days <= 0 {
		return nil
	}
	path, err := balancePath(t.DebitField)
	if err != nil {
		return err
	}
	res, err := s.Users.UpdateOne(ctx,
		bson.M{"_id": userID, path: bson.M{"$gte": t.Days}},
		bson.M{"$inc": bson.M{path: -t.Days}, "$set": bson.M{"updatedAt": t.At}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrInsufficientBalance
	}
	return nil
}

func (s *MongoStore) restorePending(ctx context.Context, t Transition) {
	update := bson.M{
		"$set": bson.M{"status": StatusPending},
		"$pop": bson.M{"history": 1},
	}
	if t.ApproverID != "" {
		update["$unset"] = bson.M{"approverId": ""}
	}
	if _, err := s.Coll.UpdateOne(ctx, bson.M{"_id": t.RequestID, "status": t.To}, update); err != nil {
		slog.Error("restore pending leave failed", "leave_id", t.RequestID, "err", err)
	}
}

func (s *MongoStore) SoftDelete(ctx context.Context, id string, at time.Time, recredit bool) (Request, error) {
	var r Request
	err := s.inTx(ctx, func(ctx context.Context) error {
		err := s.Coll.FindOneAndUpdate(ctx,
			bson.M{"_id": id, "deletedAt": nil},
			bson.M{"$set": bson.M{"deletedAt": at, "updatedAt": at}},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&r)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		field, credit := DeleteCredit(r, recredit)
		if !credit {
			return nil
		}
		path, err := balancePath(field)
		if err != nil {
			return err
		}
		_, err = s.Users.UpdateOne(ctx, bson.M{"_id": r.UserID},
			bson.M{"$inc": bson.M{path: r.Days}, "$set": bson.M{"updatedAt": at}})
		return err
	})
	if err != nil {
		return Request{}, err
	}
	return r, nil
}

// inTx runs fn inside a multi-document transaction when the deployment supports one.
func (s *MongoStore) inTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if !s.Transactions {
		return fn(ctx)
	}
	session, err := s.Coll.Database().Client().StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)
	_, err = session.WithTransaction(ctx, func(ctx context.Context) (any, error) {
		return nil, fn(ctx)
	})
	return err
}

func (s *MongoStore) DeleteByUser(ctx context.Context, userID string) error {
	_, err := s.Coll.DeleteMany(ctx, bson.M{"userId": userID})
	return err
}

func (s *MongoStore) Counts(ctx context.Context, monthStart, monthEnd time.Time) (Counts, error) {
	var c Counts
	month := bson.M{"$gte": monthStart, "$lt": monthEnd}
	queries := []struct {
		dst *int
		q   bson.M
	}{
		{&c.Pending, bson.M{"deletedAt": nil, "status": StatusPending}},
		{&c.Total, notDeleted},
		{&c.ApprovedThisMonth, bson.M{"deletedAt": nil, "status": StatusApproved, "updatedAt": month}},
		{&c.RejectedThisMonth, bson.M{"deletedAt": nil, "status": StatusRejected, "updatedAt": month}},
	}
	for _, item := range queries {
		n, err := s.Coll.CountDocuments(ctx, item.q)
		if err != nil {
			return Counts{}, err
		}
		*item.dst = int(n)
	}
	return c, nil
}

func Indexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "status", Value: 1}, {Key: "from", Value: 1}, {Key: "to", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	}
}
