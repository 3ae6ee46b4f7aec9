// Package inventory is the ledger of per-product available quantity.
// Both operations take the caller's context so they join whatever mongo
// session/transaction the caller is running; a reservation never outlives
// an aborted order write.
package inventory

import (
	"context"
	"errors"
	"time"

	"agrolink/db"

	"go.mongodb.org/mongo-driver/bson"
)

var ErrInsufficientStock = errors.New("insufficient stock")
var ErrProductNotFound = errors.New("product not found")

// Reserve decrements stock by qty with an atomic floor check: the filter only
// matches while stock >= qty, so concurrent reservations can never drive the
// count negative.
func Reserve(ctx context.Context, productID string, qty int) error {
	if qty <= 0 {
		return ErrInsufficientStock
	}

	res, err := db.ProductsCollection.UpdateOne(ctx, bson.M{
		"productid": productID,
		"stock":     bson.M{"$gte": qty},
	}, bson.M{
		"$inc": bson.M{"stock": -qty},
		"$set": bson.M{"updatedat": time.Now()},
	})
	if err != nil {
		return err
	}
	if res.ModifiedCount == 0 {
		// Distinguish missing product from an out-of-stock one
		n, err := db.ProductsCollection.CountDocuments(ctx, bson.M{"productid": productID})
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrProductNotFound
		}
		return ErrInsufficientStock
	}

	// Flag sold-out products so listings can hide them
	_, err = db.ProductsCollection.UpdateOne(ctx, bson.M{
		"productid": productID,
		"stock":     0,
	}, bson.M{
		"$set": bson.M{"instock": false},
	})
	return err
}

// Release restores qty units, marking the product purchasable again.
func Release(ctx context.Context, productID string, qty int) error {
	if qty <= 0 {
		return nil
	}

	res, err := db.ProductsCollection.UpdateOne(ctx, bson.M{
		"productid": productID,
	}, bson.M{
		"$inc": bson.M{"stock": qty},
		"$set": bson.M{"instock": true, "updatedat": time.Now()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrProductNotFound
	}
	return nil
}
