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

// MongoConfigCollection implements ConfigCollection for MongoDB
type MongoConfigCollection struct {
	Collection *mongo.Collection
}

// GetConfig returns the entry stored under key
func (c *MongoConfigCollection) GetConfig(ctx context.Context, key string) (*models.ConfigEntry, error) {
	if c.Collection == nil {
		return nil, ErrNilCollection
	}

	var entry models.ConfigEntry
	if err := c.Collection.FindOne(ctx, bson.M{"key": key}).Decode(&entry); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &entry, nil
}

// SetConfig creates or replaces the value stored under key
func (c *MongoConfigCollection) SetConfig(ctx context.Context, key, value string) (*models.ConfigEntry, error) {
	if c.Collection == nil {
		return nil, ErrNilCollection
	}

	var entry models.ConfigEntry
	err := c.Collection.FindOneAndUpdate(
		ctx,
		bson.M{"key": key},
		bson.M{"$set": bson.M{"value": value, "updated_at": time.Now().UTC()}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&entry)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListConfig returns every entry ordered by key
func (c *MongoConfigCollection) ListConfig(ctx context.Context) ([]models.ConfigEntry, error) {
	if c.Collection == nil {
		return nil, ErrNilCollection
	}

	cursor, err := c.Collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "key", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	entries := []models.ConfigEntry{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
