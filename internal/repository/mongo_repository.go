package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"cafecart/internal/domain"
)

// addLineAttempts bounds the retry loop for the inc-or-push race window.
const addLineAttempts = 3

type MongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{
		collection: db.Collection("orders"),
	}
}

func activeFilter(userID string) bson.M {
	return bson.M{"user_id": userID, "is_paid": false}
}

func (m *MongoRepository) ActiveCart(ctx context.Context, userID string) (*domain.Order, error) {
	var order domain.Order

	err := m.collection.FindOne(ctx, activeFilter(userID)).Decode(&order)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get active cart: %w", err)
	}

	return &order, nil
}

func (m *MongoRepository) EnsureActiveCart(ctx context.Context, userID string) (*domain.Order, error) {
	now := time.Now()

	// user_id and is_paid are inherited from the filter's equality
	// conditions on insert; repeating them here would conflict.
	update := bson.M{
		"$setOnInsert": bson.M{
			"_id":        uuid.NewString(),
			"items":      []domain.LineItem{},
			"created_at": now,
			"updated_at": now,
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var order domain.Order
	err := m.collection.FindOneAndUpdate(ctx, activeFilter(userID), update, opts).Decode(&order)
	if mongo.IsDuplicateKeyError(err) {
		// Lost the upsert race against a concurrent request; the winner's
		// cart is there now.
		return m.ActiveCart(ctx, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to ensure active cart: %w", err)
	}

	return &order, nil
}

func (m *MongoRepository) AddLine(ctx context.Context, userID string, itemID int64, qty int32) error {
	now := time.Now()

	for attempt := 0; attempt < addLineAttempts; attempt++ {
		// Existing line: bump its quantity in place.
		incFilter := bson.M{
			"user_id":       userID,
			"is_paid":       false,
			"items.item_id": itemID,
		}
		incUpdate := bson.M{
			"$inc": bson.M{"items.$.qty": qty},
			"$set": bson.M{"updated_at": now},
		}

		res, err := m.collection.UpdateOne(ctx, incFilter, incUpdate)
		if err != nil {
			return fmt.Errorf("failed to increment line: %w", err)
		}
		if res.MatchedCount > 0 {
			return nil
		}

		// No such line yet: push one, but only onto a cart that still has
		// no line for this item, so two concurrent first-adds cannot both
		// append.
		pushFilter := bson.M{
			"user_id":       userID,
			"is_paid":       false,
			"items.item_id": bson.M{"$ne": itemID},
		}
		pushUpdate := bson.M{
			"$push": bson.M{"items": domain.LineItem{ItemID: itemID, Qty: qty, AddedAt: now}},
			"$set":  bson.M{"updated_at": now},
		}

		res, err = m.collection.UpdateOne(ctx, pushFilter, pushUpdate)
		if err != nil {
			return fmt.Errorf("failed to push line: %w", err)
		}
		if res.MatchedCount > 0 {
			return nil
		}

		// Neither matched: either no active cart exists yet, or a
		// concurrent add appended the line between the two updates.
		// Make sure a cart is there and go around again.
		if _, err := m.EnsureActiveCart(ctx, userID); err != nil {
			return err
		}
	}

	return fmt.Errorf("failed to add line for item %d after %d attempts", itemID, addLineAttempts)
}

func (m *MongoRepository) SetLineQty(ctx context.Context, userID string, itemID int64, qty int32) error {
	now := time.Now()

	filter := bson.M{
		"user_id":       userID,
		"is_paid":       false,
		"items.item_id": itemID,
	}

	var update bson.M
	var opts []*options.UpdateOptions
	if qty <= 0 {
		update = bson.M{
			"$pull": bson.M{"items": bson.M{"item_id": itemID}},
			"$set":  bson.M{"updated_at": now},
		}
	} else {
		update = bson.M{
			"$set": bson.M{
				"items.$[elem].qty": qty,
				"updated_at":        now,
			},
		}
		opts = append(opts, options.Update().SetArrayFilters(options.ArrayFilters{
			Filters: []interface{}{
				bson.M{"elem.item_id": itemID},
			},
		}))
	}

	res, err := m.collection.UpdateOne(ctx, filter, update, opts...)
	if err != nil {
		return fmt.Errorf("failed to set line quantity: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrLineNotFound
	}

	return nil
}

func (m *MongoRepository) Checkout(ctx context.Context, userID string) (*domain.Order, error) {
	now := time.Now()

	// Guarded by items.0 so an empty cart can never transition; the flip,
	// the guard and the timestamp land in one atomic document update.
	filter := bson.M{
		"user_id": userID,
		"is_paid": false,
		"items.0": bson.M{"$exists": true},
	}
	update := bson.M{
		"$set": bson.M{
			"is_paid":    true,
			"paid_at":    now,
			"updated_at": now,
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var order domain.Order
	err := m.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&order)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrEmptyCart
		}
		return nil, fmt.Errorf("failed to checkout: %w", err)
	}

	return &order, nil
}

func (m *MongoRepository) PaidOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	filter := bson.M{"user_id": userID, "is_paid": true}
	opts := options.Find().SetSort(bson.D{{Key: "paid_at", Value: -1}})

	cursor, err := m.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query paid orders: %w", err)
	}

	var orders []domain.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("failed to decode paid orders: %w", err)
	}

	return orders, nil
}

// CreateIndexes sets up the partial unique index that makes "one active cart
// per user" hold under concurrent lazy creation.
func (m *MongoRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"is_paid": false}),
		},
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "is_paid", Value: 1},
				{Key: "paid_at", Value: -1},
			},
		},
	}

	_, err := m.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}
