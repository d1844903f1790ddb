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

// MongoPaymentCollection implements PaymentCollection for MongoDB
type MongoPaymentCollection struct {
	Collection *mongo.Collection
}

// InsertPayment stores a new payment record.
func (c *MongoPaymentCollection) InsertPayment(ctx context.Context, payment *models.Payment) error {
	if c.Collection == nil {
		return ErrNilCollection
	}

	now := time.Now().UTC()
	payment.ID = primitive.NewObjectID()
	payment.Timestamp = now
	payment.UpdatedAt = now

	_, err := c.Collection.InsertOne(ctx, payment)
	return err
}

// FindPaymentByID finds a payment by its hex id
func (c *MongoPaymentCollection) FindPaymentByID(ctx context.Context, id string) (*models.Payment, error) {
	if c.Collection == nil {
		return nil, ErrNilCollection
	}

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var payment models.Payment
	if err := c.Collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&payment); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &payment, nil
}

// FindPayments returns matching payments, newest first.
func (c *MongoPaymentCollection) FindPayments(ctx context.Context, filter bson.M) ([]models.Payment, error) {
	if c.Collection == nil {
		return nil, ErrNilCollection
	}
	if filter == nil {
		filter = bson.M{}
	}

	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := c.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	payments := []models.Payment{}
	if err := cursor.All(ctx, &payments); err != nil {
		return nil, err
	}
	return payments, nil
}

// UpdatePaymentStatus moves a payment from one status to another. The write
// only applies while the payment is still in status from; otherwise
// ErrVersionConflict is returned. An empty transactionID keeps the stored one.
func (c *MongoPaymentCollection) UpdatePaymentStatus(ctx context.Context, id string, from, to models.PaymentStatus, transactionID string) (*models.Payment, error) {
	if c.Collection == nil {
		return nil, ErrNilCollection
	}

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	set := bson.M{"status": to, "updated_at": time.Now().UTC()}
	if transactionID != "" {
		set["transaction_id"] = transactionID
	}

	var updated models.Payment
	err = c.Collection.FindOneAndUpdate(
		ctx,
		bson.M{"_id": objectID, "status": from},
		bson.M{"$set": set},
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
