package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names, one per entity.
const (
	ServiceRequestsCollection = "service_requests"
	PaymentsCollection        = "payments"
	UsersCollection           = "users"
	StaffCollectionName       = "staff"
	SystemConfigCollection    = "system_config"
)

var (
	ErrNotFound        = errors.New("document not found")
	ErrVersionConflict = errors.New("document was modified concurrently")
	ErrNilCollection   = errors.New("mongo collection is nil")
)

// newestFirst orders documents by creation time, newest first, with the id
// as a tie breaker so equal timestamps still sort deterministically.
var newestFirst = bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}

// ConnectMongo connects to MongoDB and verifies the connection with a ping.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo.Connect error: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo.Ping error: %w", err)
	}
	return client, nil
}

// Store groups the collections of one database.
type Store struct {
	ServiceRequests *MongoServiceRequestCollection
	Payments        *MongoPaymentCollection
	Profiles        *MongoProfileCollection
	Staff           *MongoStaffCollection
	Config          *MongoConfigCollection
}

// NewStore binds every collection of the named database.
func NewStore(database *mongo.Database) *Store {
	return &Store{
		ServiceRequests: &MongoServiceRequestCollection{Collection: database.Collection(ServiceRequestsCollection)},
		Payments:        &MongoPaymentCollection{Collection: database.Collection(PaymentsCollection)},
		Profiles:        &MongoProfileCollection{Collection: database.Collection(UsersCollection)},
		Staff:           &MongoStaffCollection{Collection: database.Collection(StaffCollectionName)},
		Config:          &MongoConfigCollection{Collection: database.Collection(SystemConfigCollection)},
	}
}

// EnsureIndexes creates the lookup and uniqueness indexes the queries rely on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []struct {
		coll   *mongo.Collection
		models []mongo.IndexModel
	}{
		{s.ServiceRequests.Collection, []mongo.IndexModel{
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
		}},
		{s.Payments.Collection, []mongo.IndexModel{
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}}},
		}},
		{s.Profiles.Collection, []mongo.IndexModel{
			{Keys: bson.D{{Key: "supabase_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		}},
		{s.Staff.Collection, []mongo.IndexModel{
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		}},
		{s.Config.Collection, []mongo.IndexModel{
			{Keys: bson.D{{Key: "key", Value: 1}}, Options: options.Index().SetUnique(true)},
		}},
	}

	for _, idx := range indexes {
		if _, err := idx.coll.Indexes().CreateMany(ctx, idx.models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", idx.coll.Name(), err)
		}
	}
	return nil
}
