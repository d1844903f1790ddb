package db

import (
	"context"
	"errors"
	"time"

	"github.com/ukydev/roadside-assist/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoProfileCollection implements ProfileCollection for MongoDB
type MongoProfileCollection struct {
	Collection *mongo.Collection
}

// UpsertProfile creates the profile for input.SupabaseID if it is absent,
// otherwise overwrites the non-empty fields of input. Last write wins.
func (c *MongoProfileCollection) UpsertProfile(ctx context.Context, input models.UpsertUserInput) (*models.User, error) {
	if c.Collection == nil {
		return nil, ErrNilCollection
	}

	now := time.Now().UTC()
	set := bson.M{"updated_at": now}
	for field, value := range map[string]string{
		"name":           input.Name,
		"email":          input.Email,
		"phone":          input.Phone,
		"vehicle_number": input.VehicleNumber,
		"vehicle_type":   input.VehicleType,
	} {
		if value != "" {
			set[field] = value
		}
	}

	update := bson.M{
		"$set": set,
		"$setOnInsert": bson.M{
			"supabase_id": input.SupabaseID,
			"role":        models.RoleCustomer,
			"created_at":  now,
		},
		"$inc": bson.M{"version": 1},
	}

	filter := bson.M{"supabase_id": input.SupabaseID}
	user, err := c.upsert(ctx, filter, update)
	if mongo.IsDuplicateKeyError(err) {
		// A concurrent first upsert inserted the profile between our match and
		// insert. Retrying matches that document and updates it.
		user, err = c.upsert(ctx, filter, update)
	}
	return user, err
}

func (c *MongoProfileCollection) upsert(ctx context.Context, filter, update bson.M) (*models.User, error) {
	var user models.User
	err := c.Collection.FindOneAndUpdate(
		ctx,
		filter,
		update,
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindProfileBySupabaseID finds a profile by the auth provider identifier
func (c *MongoProfileCollection) FindProfileBySupabaseID(ctx context.Context, supabaseID string) (*models.User, error) {
	if c.Collection == nil {
		return nil, ErrNilCollection
	}

	var user models.User
	err := c.Collection.FindOne(ctx, bson.M{"supabase_id": supabaseID}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}
