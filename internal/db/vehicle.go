package db

import (
	"context"
	"time"

	"github.com/ukydev/service-center/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoVehicleCollection implements VehicleCollection for MongoDB.
type MongoVehicleCollection struct {
	Collection *mongo.Collection
}

// InsertVehicle inserts a vehicle record into the collection.
func (c *MongoVehicleCollection) InsertVehicle(ctx context.Context, vehicle *models.Vehicle) error {
	if c.Collection == nil {
		return errNilCollection
	}
	if vehicle.ID.IsZero() {
		vehicle.ID = primitive.NewObjectID()
	}
	vehicle.CreatedAt = time.Now()
	vehicle.UpdatedAt = vehicle.CreatedAt
	_, err := c.Collection.InsertOne(ctx, vehicle)
	return translate("vehicle", err)
}

// FindVehicles lists the vehicles of one owner, or all vehicles when ownerID is empty.
func (c *MongoVehicleCollection) FindVehicles(ctx context.Context, ownerID string) ([]models.Vehicle, error) {
	if c.Collection == nil {
		return nil, errNilCollection
	}
	filter := bson.M{}
	if ownerID != "" {
		filter["owner_id"] = ownerID
	}
	cursor, err := c.Collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	vehicles := []models.Vehicle{}
	if err := cursor.All(ctx, &vehicles); err != nil {
		return nil, err
	}
	return vehicles, nil
}

// FindVehicleByID finds a vehicle by its ID.
func (c *MongoVehicleCollection) FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error) {
	if c.Collection == nil {
		return nil, errNilCollection
	}

	objectID, err := objectID("vehicle", id)
	if err != nil {
		return nil, err
	}

	var vehicle models.Vehicle
	err = c.Collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&vehicle)
	if err != nil {
		return nil, translate("vehicle", err)
	}

	return &vehicle, nil
}

// UpdateVehicle updates a vehicle by its ID.
func (c *MongoVehicleCollection) UpdateVehicle(ctx context.Context, id string, vehicle models.Vehicle) error {
	if c.Collection == nil {
		return errNilCollection
	}

	objectID, err := objectID("vehicle", id)
	if err != nil {
		return err
	}

	vehicle.ID = objectID
	vehicle.UpdatedAt = time.Now()
	result, err := c.Collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": vehicle})
	if err != nil {
		return translate("vehicle", err)
	}

	if result.MatchedCount == 0 {
		return translate("vehicle", mongo.ErrNoDocuments)
	}

	return nil
}

// DeleteVehicle deletes a vehicle by its ID.
func (c *MongoVehicleCollection) DeleteVehicle(ctx context.Context, id string) error {
	if c.Collection == nil {
		return errNilCollection
	}

	objectID, err := objectID("vehicle", id)
	if err != nil {
		return err
	}

	result, err := c.Collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return err
	}

	if result.DeletedCount == 0 {
		return translate("vehicle", mongo.ErrNoDocuments)
	}

	return nil
}
