package db

import (
	"context"
	"errors"
	"time"

	"github.com/ukydev/roadside-assist/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoServiceRequestCollection implements ServiceRequestCollection for MongoDB
type MongoServiceRequestCollection struct {
	Collection *mongo.Collection
}

// InsertServiceRequest assigns the id, timestamps and first version, then
// stores the request.
func (c *MongoServiceRequestCollection) InsertServiceRequest(ctx context.Context, req *models.ServiceRequest) error {
	if c.Collection == nil {
		return ErrNilCollection
	}

	now := time.Now().UTC()
	req.ID = primitive.NewObjectID()
	req.Version = 1
	req.CreatedAt = now
	req.UpdatedAt = now

	_, err := c.Collection.InsertOne(ctx, req)
	return err
}

// FindServiceRequestByID finds a request by its hex id. Malformed ids are
// reported as not found.
func (c *MongoServiceRequestCollection) FindServiceRequestByID(ctx context.Context, id string) (*models.ServiceRequest, error) {
	if c.Collection == nil {
		return nil, ErrNilCollection
	}

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var req models.ServiceRequest
	err = c.Collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&req)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

// FindServiceRequests returns the matching requests, newest first.
func (c *MongoServiceRequestCollection) FindServiceRequests(ctx context.Context, filter bson.M) ([]models.ServiceRequest, error) {
	if c.Collection == nil {
		return nil, ErrNilCollection
	}
	if filter == nil {
		filter = bson.M{}
	}

	cursor, err := c.Collection.Find(ctx, filter, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	requests := []models.ServiceRequest{}
	if err := cursor.All(ctx, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

// UpdateServiceRequestStatus writes status (and price when set) only if the
// stored version still equals expectedVersion. It returns ErrNotFound when
// the id does not exist and ErrVersionConflict when the version moved.
func (c *MongoServiceRequestCollection) UpdateServiceRequestStatus(ctx context.Context, id string, expectedVersion int64, status models.RequestStatus, price *float64) (*models.ServiceRequest, error) {
	if c.Collection == nil {
		return nil, ErrNilCollection
	}

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	set := bson.M{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}
	if price != nil {
		set["price"] = *price
	}

	var updated models.ServiceRequest
	err = c.Collection.FindOneAndUpdate(
		ctx,
		bson.M{"_id": objectID, "version": expectedVersion},
		bson.M{"$set": set, "$inc": bson.M{"version": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err == nil {
		return &updated, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	count, err := c.Collection.CountDocuments(ctx, bson.M{"_id": objectID})
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrNotFound
	}
	return nil, ErrVersionConflict
}
