package db

import (
	"context"
	"log"
	"os"

	"agrolink/models"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	UserCollection          *mongo.Collection
	ProductsCollection      *mongo.Collection
	OrdersCollection        *mongo.Collection
	OrderItemsCollection    *mongo.Collection
	PaymentsCollection      *mongo.Collection
	NotificationsCollection *mongo.Collection
	DeliveriesCollection    *mongo.Collection
	Client                  *mongo.Client
)

// Initialize MongoDB connection
func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found; using system environment")
	}

	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	var err error
	Client, err = mongo.Connect(context.TODO(), options.Client().ApplyURI(uri))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}

	database := Client.Database("agrodb")
	UserCollection = database.Collection("users")
	ProductsCollection = database.Collection("products")
	OrdersCollection = database.Collection("orders")
	OrderItemsCollection = database.Collection("orderitems")
	PaymentsCollection = database.Collection("payments")
	NotificationsCollection = database.Collection("notifications")
	DeliveriesCollection = database.Collection("deliveries")
}

// EnsureIndexes creates the unique indexes the auth, order and payment flows
// rely on. Usernames, order numbers and payment references must collide at
// insert time so raced writes surface as duplicate-key errors.
func EnsureIndexes(ctx context.Context) error {
	_, err := UserCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.M{"username": 1},
		Options: options.Index().SetUnique(true).SetName("unique_username"),
	})
	if err != nil {
		return err
	}

	_, err = OrdersCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.M{"ordernumber": 1},
		Options: options.Index().SetUnique(true).SetName("unique_ordernumber"),
	})
	if err != nil {
		return err
	}

	_, err = PaymentsCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.M{"reference": 1},
		Options: options.Index().SetUnique(true).SetName("unique_payment_reference"),
	})
	if err != nil {
		return err
	}

	_, err = OrderItemsCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.M{"orderid": 1},
		Options: options.Index().SetName("orderitems_by_order"),
	})
	if err != nil {
		return err
	}

	_, err = NotificationsCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.M{"userid": 1, "createdat": -1},
		Options: options.Index().SetName("notifications_by_user"),
	})
	return err
}

// ActiveDeliveryFilter matches the order's delivery that is still in play.
// Failed and cancelled deliveries stay in the collection so a replacement
// supplier can be assigned; every lookup that means "the delivery for this
// order" must skip them or it can resolve to a dead doc.
func ActiveDeliveryFilter(orderID string) bson.M {
	return bson.M{
		"orderid": orderID,
		"status":  bson.M{"$nin": []string{models.DeliveryFailed, models.DeliveryCancelled}},
	}
}

// IsDuplicateKeyError reports whether a mongo write failed on a unique index.
func IsDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if we, ok := err.(mongo.WriteException); ok {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	return mongo.IsDuplicateKeyError(err)
}
