package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ukydev/service-center/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoInventoryCollection implements InventoryCollection for MongoDB.
type MongoInventoryCollection struct {
	Collection *mongo.Collection
}

// InsertInventory inserts an item; a duplicate (sku, service center) pair is ErrConflict.
func (c *MongoInventoryCollection) InsertInventory(ctx context.Context, item *models.Inventory) error {
	if c.Collection == nil {
		return errNilCollection
	}
	if item.ID.IsZero() {
		item.ID = primitive.NewObjectID()
	}
	item.CreatedAt = time.Now()
	item.UpdatedAt = item.CreatedAt
	_, err := c.Collection.InsertOne(ctx, item)
	return translate("inventory item", err)
}

// FindInventoryByID finds an inventory item by its ID.
func (c *MongoInventoryCollection) FindInventoryByID(ctx context.Context, id string) (*models.Inventory, error) {
	oid, err := objectID("inventory item", id)
	if err != nil {
		return nil, err
	}
	var item models.Inventory
	if err := c.Collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&item); err != nil {
		return nil, translate("inventory item", err)
	}
	return &item, nil
}

// FindInventory lists inventory items sorted by part name.
func (c *MongoInventoryCollection) FindInventory(ctx context.Context, filter InventoryFilter) ([]models.Inventory, error) {
	query := bson.M{}
	if filter.ServiceCenterID != "" {
		query["service_center_id"] = filter.ServiceCenterID
	}
	if filter.LowStockOnly {
		query["$expr"] = bson.M{"$lte": bson.A{"$current_stock", "$reorder_level"}}
	}
	cursor, err := c.Collection.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "part_name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	items := []models.Inventory{}
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// DecrementStock removes qty units guarded by current_stock >= qty, so
// concurrent consumers can never oversell.
func (c *MongoInventoryCollection) DecrementStock(ctx context.Context, id string, qty int) (*models.Inventory, error) {
	oid, err := objectID("inventory item", id)
	if err != nil {
		return nil, err
	}
	var item models.Inventory
	err = c.Collection.FindOneAndUpdate(ctx,
		bson.M{"_id": oid, "current_stock": bson.M{"$gte": qty}},
		bson.M{
			"$inc": bson.M{"current_stock": -qty},
			"$set": bson.M{"updated_at": time.Now()},
		},
		findOneAndSet(),
	).Decode(&item)
	if errors.Is(err, mongo.ErrNoDocuments) {
		n, err := c.Collection.CountDocuments(ctx, bson.M{"_id": oid})
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, fmt.Errorf("inventory item %w", ErrNotFound)
		}
		return nil, fmt.Errorf("inventory item %s: %w", id, ErrInsufficientStock)
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// IncrementStock adds qty units.
func (c *MongoInventoryCollection) IncrementStock(ctx context.Context, id string, qty int) (*models.Inventory, error) {
	oid, err := objectID("inventory item", id)
	if err != nil {
		return nil, err
	}
	var item models.Inventory
	err = c.Collection.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{
			"$inc": bson.M{"current_stock": qty},
			"$set": bson.M{"updated_at": time.Now()},
		},
		findOneAndSet(),
	).Decode(&item)
	if err != nil {
		return nil, translate("inventory item", err)
	}
	return &item, nil
}

// MongoStockRequestCollection implements StockRequestCollection for MongoDB.
type MongoStockRequestCollection struct {
	Collection *mongo.Collection
}

// InsertStockRequest inserts a stock request.
func (c *MongoStockRequestCollection) InsertStockRequest(ctx context.Context, request *models.StockRequest) error {
	if c.Collection == nil {
		return errNilCollection
	}
	if request.ID.IsZero() {
		request.ID = primitive.NewObjectID()
	}
	request.CreatedAt = time.Now()
	request.UpdatedAt = request.CreatedAt
	_, err := c.Collection.InsertOne(ctx, request)
	return translate("stock request", err)
}

// FindStockRequestByID finds a stock request by its ID.
func (c *MongoStockRequestCollection) FindStockRequestByID(ctx context.Context, id string) (*models.StockRequest, error) {
	oid, err := objectID("stock request", id)
	if err != nil {
		return nil, err
	}
	var request models.StockRequest
	if err := c.Collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&request); err != nil {
		return nil, translate("stock request", err)
	}
	return &request, nil
}

// FindStockRequests lists stock requests, newest first.
func (c *MongoStockRequestCollection) FindStockRequests(ctx context.Context, filter StockRequestFilter) ([]models.StockRequest, error) {
	query := bson.M{}
	if filter.RequestedBy != "" {
		query["requested_by"] = filter.RequestedBy
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	cursor, err := c.Collection.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	requests := []models.StockRequest{}
	if err := cursor.All(ctx, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

// TransitionStockRequest moves a stock request between statuses in one conditional write.
func (c *MongoStockRequestCollection) TransitionStockRequest(ctx context.Context, id string, from, to models.StockRequestStatus, patch StockRequestPatch) (*models.StockRequest, error) {
	oid, err := objectID("stock request", id)
	if err != nil {
		return nil, err
	}
	set := bson.M{"status": to, "updated_at": time.Now()}
	setIfPresent(set, "admin_notes", patch.AdminNotes)
	setIfPresent(set, "reviewed_by", patch.ReviewedBy)
	setIfPresent(set, "fulfilled_at", patch.FulfilledAt)

	var request models.StockRequest
	err = c.Collection.FindOneAndUpdate(ctx,
		bson.M{"_id": oid, "status": from},
		bson.M{"$set": set},
		findOneAndSet(),
	).Decode(&request)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, explainMiss(ctx, c.Collection, oid, "stock request")
	}
	if err != nil {
		return nil, err
	}
	return &request, nil
}
