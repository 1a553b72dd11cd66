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

// MongoBookingCollection implements BookingCollection for MongoDB.
type MongoBookingCollection struct {
	Collection *mongo.Collection
}

// InsertBooking inserts a booking and assigns its ID.
func (c *MongoBookingCollection) InsertBooking(ctx context.Context, booking *models.Booking) error {
	if c.Collection == nil {
		return errNilCollection
	}
	if booking.ID.IsZero() {
		booking.ID = primitive.NewObjectID()
	}
	booking.CreatedAt = time.Now()
	booking.UpdatedAt = booking.CreatedAt
	_, err := c.Collection.InsertOne(ctx, booking)
	return translate("booking", err)
}

// FindBookingByID finds a booking by its ID.
func (c *MongoBookingCollection) FindBookingByID(ctx context.Context, id string) (*models.Booking, error) {
	oid, err := objectID("booking", id)
	if err != nil {
		return nil, err
	}
	var booking models.Booking
	if err := c.Collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&booking); err != nil {
		return nil, translate("booking", err)
	}
	return &booking, nil
}

// FindBookings lists bookings matching filter, newest first.
func (c *MongoBookingCollection) FindBookings(ctx context.Context, filter BookingFilter) ([]models.Booking, error) {
	query := bson.M{}
	if filter.CustomerID != "" {
		query["customer_id"] = filter.CustomerID
	}
	if filter.ServiceCenterID != "" {
		query["service_center_id"] = filter.ServiceCenterID
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	cursor, err := c.Collection.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	bookings := []models.Booking{}
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

// TransitionBooking moves a booking from one status to another only if it is
// still in the expected status.
func (c *MongoBookingCollection) TransitionBooking(ctx context.Context, id string, from, to models.BookingStatus, patch BookingPatch) (*models.Booking, error) {
	oid, err := objectID("booking", id)
	if err != nil {
		return nil, err
	}
	set := bookingPatchSet(patch)
	set["status"] = to

	var booking models.Booking
	err = c.Collection.FindOneAndUpdate(ctx,
		bson.M{"_id": oid, "status": from},
		bson.M{"$set": set},
		findOneAndSet(),
	).Decode(&booking)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, explainMiss(ctx, c.Collection, oid, "booking")
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// UpdateBooking applies patch without touching the status.
func (c *MongoBookingCollection) UpdateBooking(ctx context.Context, id string, patch BookingPatch) (*models.Booking, error) {
	oid, err := objectID("booking", id)
	if err != nil {
		return nil, err
	}
	var booking models.Booking
	err = c.Collection.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bookingPatchSet(patch)},
		findOneAndSet(),
	).Decode(&booking)
	if err != nil {
		return nil, translate("booking", err)
	}
	return &booking, nil
}

func bookingPatchSet(patch BookingPatch) bson.M {
	set := bson.M{"updated_at": time.Now()}
	setIfPresent(set, "scheduled_date", patch.ScheduledDate)
	setIfPresent(set, "assigned_mechanic", patch.AssignedMechanic)
	setIfPresent(set, "job_card_id", patch.JobCardID)
	setIfPresent(set, "estimated_cost", patch.EstimatedCost)
	setIfPresent(set, "actual_cost", patch.ActualCost)
	setIfPresent(set, "cancel_reason", patch.CancelReason)
	return set
}

// explainMiss tells a missing document apart from one whose guard failed.
func explainMiss(ctx context.Context, coll *mongo.Collection, oid primitive.ObjectID, kind string) error {
	n, err := coll.CountDocuments(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %w", kind, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", kind, ErrStatusMismatch)
}
