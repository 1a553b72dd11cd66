package db

import (
	"context"
	"fmt"
	"time"

	"github.com/ukydev/service-center/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoJobCardCollection implements JobCardCollection for MongoDB.
type MongoJobCardCollection struct {
	Collection *mongo.Collection
}

// InsertJobCard inserts a job card at version 1.
func (c *MongoJobCardCollection) InsertJobCard(ctx context.Context, jobCard *models.JobCard) error {
	if c.Collection == nil {
		return errNilCollection
	}
	if jobCard.ID.IsZero() {
		jobCard.ID = primitive.NewObjectID()
	}
	jobCard.Version = 1
	jobCard.CreatedAt = time.Now()
	jobCard.UpdatedAt = jobCard.CreatedAt
	_, err := c.Collection.InsertOne(ctx, jobCard)
	return translate("job card", err)
}

// FindJobCardByID finds a job card by its ID.
func (c *MongoJobCardCollection) FindJobCardByID(ctx context.Context, id string) (*models.JobCard, error) {
	oid, err := objectID("job card", id)
	if err != nil {
		return nil, err
	}
	return c.findOne(ctx, bson.M{"_id": oid})
}

// FindJobCardByBooking finds the job card created for a booking.
func (c *MongoJobCardCollection) FindJobCardByBooking(ctx context.Context, bookingID string) (*models.JobCard, error) {
	return c.findOne(ctx, bson.M{"booking_id": bookingID})
}

func (c *MongoJobCardCollection) findOne(ctx context.Context, filter bson.M) (*models.JobCard, error) {
	var jobCard models.JobCard
	if err := c.Collection.FindOne(ctx, filter).Decode(&jobCard); err != nil {
		return nil, translate("job card", err)
	}
	return &jobCard, nil
}

// FindJobCards lists job cards matching filter, newest first.
func (c *MongoJobCardCollection) FindJobCards(ctx context.Context, filter JobCardFilter) ([]models.JobCard, error) {
	query := bson.M{}
	if filter.ServiceCenterID != "" {
		query["service_center_id"] = filter.ServiceCenterID
	}
	if filter.CustomerID != "" {
		query["customer_id"] = filter.CustomerID
	}
	if filter.MechanicID != "" {
		query["assigned_mechanic"] = filter.MechanicID
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	cursor, err := c.Collection.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	jobCards := []models.JobCard{}
	if err := cursor.All(ctx, &jobCards); err != nil {
		return nil, err
	}
	return jobCards, nil
}

// ReplaceJobCard replaces the stored job card when versions match.
func (c *MongoJobCardCollection) ReplaceJobCard(ctx context.Context, jobCard *models.JobCard) error {
	expected := jobCard.Version
	next := *jobCard
	next.Version = expected + 1
	next.UpdatedAt = time.Now()

	result, err := c.Collection.ReplaceOne(ctx, bson.M{"_id": jobCard.ID, "version": expected}, next)
	if err != nil {
		return translate("job card", err)
	}
	if result.MatchedCount == 0 {
		n, err := c.Collection.CountDocuments(ctx, bson.M{"_id": jobCard.ID})
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("job card %w", ErrNotFound)
		}
		return fmt.Errorf("job card %s: %w", jobCard.ID.Hex(), ErrVersionConflict)
	}
	jobCard.Version = next.Version
	jobCard.UpdatedAt = next.UpdatedAt
	return nil
}
