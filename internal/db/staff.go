package db

import (
	"context"
	"errors"
	"time"

	"github.com/ukydev/roadside-assist/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoStaffCollection implements StaffCollection for MongoDB
type MongoStaffCollection struct {
	Collection *mongo.Collection
}

// InsertStaff inserts a new staff account
func (c *MongoStaffCollection) InsertStaff(ctx context.Context, staff *models.StaffAccount) error {
	if c.Collection == nil {
		return ErrNilCollection
	}

	now := time.Now().UTC()
	if staff.ID.IsZero() {
		staff.ID = primitive.NewObjectID()
	}
	staff.CreatedAt = now
	staff.UpdatedAt = now

	_, err := c.Collection.InsertOne(ctx, staff)
	return err
}

// FindStaffByUsername finds a staff account by username
func (c *MongoStaffCollection) FindStaffByUsername(ctx context.Context, username string) (*models.StaffAccount, error) {
	if c.Collection == nil {
		return nil, ErrNilCollection
	}

	var staff models.StaffAccount
	err := c.Collection.FindOne(ctx, bson.M{"username": username}).Decode(&staff)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &staff, nil
}

// UpdateLastLogin updates the last login time for a staff account
func (c *MongoStaffCollection) UpdateLastLogin(ctx context.Context, id string) error {
	if c.Collection == nil {
		return ErrNilCollection
	}

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	now := time.Now().UTC()
	_, err = c.Collection.UpdateOne(
		ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": bson.M{"last_login": now, "updated_at": now}},
	)
	return err
}
