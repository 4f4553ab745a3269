package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collection = "carts"

type Store struct {
	coll *mongo.Collection
}

func NewStore(db *mongo.Database) *Store {
	return &Store{coll: db.Collection(collection)}
}

// EnsureIndexes makes user_id unique so upserts cannot fork a cart.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create cart index: %w", err)
	}
	return nil
}

// Get returns the user's cart, or an empty one if none was saved.
func (s *Store) Get(ctx context.Context, userID string) (Cart, error) {
	var d cartDoc
	err := s.coll.FindOne(ctx, bson.M{"user_id": userID}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Cart{UserID: userID, Items: []Item{}, TotalAmount: decimal.Zero}, nil
	}
	if err != nil {
		return Cart{}, fmt.Errorf("get cart: %w", err)
	}
	return fromDoc(d), nil
}

// Replace overwrites the item list and recomputes the total.
func (s *Store) Replace(ctx context.Context, userID string, items []Item) (Cart, error) {
	if err := Validate(items); err != nil {
		return Cart{}, err
	}
	if items == nil {
		items = []Item{}
	}
	c := Cart{UserID: userID, Items: items, TotalAmount: total(items), UpdatedAt: time.Now().UTC()}
	_, err := s.coll.UpdateOne(ctx, bson.M{"user_id": userID}, bson.M{"$set": toDoc(c)}, options.Update().SetUpsert(true))
	if err != nil {
		return Cart{}, fmt.Errorf("upsert cart: %w", err)
	}
	return c, nil
}

// Clear empties the cart if one exists.
func (s *Store) Clear(ctx context.Context, userID string) error {
	_, err := s.coll.UpdateOne(ctx, bson.M{"user_id": userID}, bson.M{"$set": bson.M{
		"items":        bson.A{},
		"total_amount": toDecimal128(decimal.Zero),
		"updated_at":   time.Now().UTC(),
	}})
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
