package mongo

import (
	"context"
	"fmt"
	"time"

	aqm "github.com/appetiteclub/apt"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/oscartejera/josephine-kds/internal/kds"
	"github.com/oscartejera/josephine-kds/pkg/enums/prepstatus"
)

// OrderFeed implements kds.OrderFeed over the shared order database.
// The order service owns the schema; this adapter only reads the
// active-order view and writes status transitions back.
type OrderFeed struct {
	client     *mongo.Client
	db         *mongo.Database
	collection *mongo.Collection
	logger     aqm.Logger
	config     *aqm.Config
}

func NewOrderFeed(config *aqm.Config, logger aqm.Logger) *OrderFeed {
	return &OrderFeed{
		logger: logger,
		config: config,
	}
}

func (f *OrderFeed) Start(ctx context.Context) error {
	mongoURL, _ := f.config.GetString("db.mongo.url")
	if mongoURL == "" {
		mongoURL = "mongodb://localhost:27017"
	}

	dbName, _ := f.config.GetString("db.mongo.name")
	if dbName == "" {
		dbName = "josephine_orders"
	}

	clientOptions := options.Client().ApplyURI(mongoURL).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return fmt.Errorf("cannot connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("cannot ping MongoDB: %w", err)
	}

	f.client = client
	f.db = client.Database(dbName)
	f.collection = f.db.Collection("orders")

	stationIndexModel := mongo.IndexModel{
		Keys: bson.D{{Key: "station_id", Value: 1}},
	}
	if _, err := f.collection.Indexes().CreateOne(ctx, stationIndexModel); err != nil {
		return fmt.Errorf("cannot create station_id index: %w", err)
	}

	itemIndexModel := mongo.IndexModel{
		Keys: bson.D{{Key: "items._id", Value: 1}},
	}
	if _, err := f.collection.Indexes().CreateOne(ctx, itemIndexModel); err != nil {
		return fmt.Errorf("cannot create items._id index: %w", err)
	}

	f.logger.Infof("Connected to MongoDB: %s, database: %s, collection: orders", mongoURL, dbName)
	return nil
}

func (f *OrderFeed) Stop(ctx context.Context) error {
	if f.client != nil {
		if err := f.client.Disconnect(ctx); err != nil {
			return fmt.Errorf("cannot disconnect from MongoDB: %w", err)
		}
		f.logger.Info("Disconnected from MongoDB")
	}
	return nil
}

// ListActiveOrders returns the station's orders that still have at
// least one pending or preparing item, oldest ticket first.
func (f *OrderFeed) ListActiveOrders(ctx context.Context, stationID string) ([]kds.Order, error) {
	query := bson.M{
		"station_id": stationID,
		"items.status": bson.M{"$in": []string{
			prepstatus.Statuses.Pending.Code(),
			prepstatus.Statuses.Preparing.Code(),
		}},
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "opened_at", Value: 1}})

	cursor, err := f.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("cannot find active orders: %w", err)
	}
	defer cursor.Close(ctx)

	var orders []kds.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("cannot decode orders: %w", err)
	}

	return orders, nil
}

// SetItemStatus persists one item transition with its timestamp side
// effects. A vanished item reports an error; the session treats it as
// eventual-consistency drift, not a fault.
func (f *OrderFeed) SetItemStatus(ctx context.Context, itemID kds.ItemID, status string, ts kds.StatusTimestamps) error {
	filter := bson.M{"items._id": itemID}
	update := bson.M{"$set": bson.M{
		"items.$.status":          status,
		"items.$.prep_started_at": ts.PrepStartedAt,
		"items.$.ready_at":        ts.ReadyAt,
		"updated_at":              time.Now(),
	}}

	result, err := f.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("cannot update item status: %w", err)
	}

	if result.MatchedCount == 0 {
		return fmt.Errorf("item not found")
	}

	return nil
}

// CompleteOrder forces every pending or preparing item of the order to
// ready, the bulk variant behind a whole-order bump.
func (f *OrderFeed) CompleteOrder(ctx context.Context, orderID kds.OrderID) error {
	now := time.Now()
	filter := bson.M{"_id": orderID}
	update := bson.M{"$set": bson.M{
		"items.$[active].status":   prepstatus.Statuses.Ready.Code(),
		"items.$[active].ready_at": now,
		"updated_at":               now,
	}}

	opts := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{bson.M{
			"active.status": bson.M{"$in": []string{
				prepstatus.Statuses.Pending.Code(),
				prepstatus.Statuses.Preparing.Code(),
			}},
		}},
	})

	result, err := f.collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("cannot complete order: %w", err)
	}

	if result.MatchedCount == 0 {
		return fmt.Errorf("order not found")
	}

	return nil
}
