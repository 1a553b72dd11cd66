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

// MongoTeamMemberCollection implements TeamMemberCollection for MongoDB.
type MongoTeamMemberCollection struct {
	Collection *mongo.Collection
}

// InsertTeamMember inserts a team member.
func (c *MongoTeamMemberCollection) InsertTeamMember(ctx context.Context, member *models.TeamMember) error {
	if c.Collection == nil {
		return errNilCollection
	}
	if member.ID.IsZero() {
		member.ID = primitive.NewObjectID()
	}
	member.CreatedAt = time.Now()
	member.UpdatedAt = member.CreatedAt
	_, err := c.Collection.InsertOne(ctx, member)
	return translate("team member", err)
}

// FindTeamMemberByID finds a team member by its ID.
func (c *MongoTeamMemberCollection) FindTeamMemberByID(ctx context.Context, id string) (*models.TeamMember, error) {
	oid, err := objectID("team member", id)
	if err != nil {
		return nil, err
	}
	var member models.TeamMember
	if err := c.Collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&member); err != nil {
		return nil, translate("team member", err)
	}
	return &member, nil
}

// FindTeamMembers lists team members sorted by name.
func (c *MongoTeamMemberCollection) FindTeamMembers(ctx context.Context, filter TeamMemberFilter) ([]models.TeamMember, error) {
	query := bson.M{}
	if filter.ServiceCenterID != "" {
		query["service_center_id"] = filter.ServiceCenterID
	}
	if filter.Role != "" {
		query["role"] = filter.Role
	}
	cursor, err := c.Collection.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	members := []models.TeamMember{}
	if err := cursor.All(ctx, &members); err != nil {
		return nil, err
	}
	return members, nil
}

// UpdateTeamMemberStatus sets a team member's status.
func (c *MongoTeamMemberCollection) UpdateTeamMemberStatus(ctx context.Context, id string, status models.TeamMemberStatus) (*models.TeamMember, error) {
	oid, err := objectID("team member", id)
	if err != nil {
		return nil, err
	}
	var member models.TeamMember
	err = c.Collection.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now()}},
		findOneAndSet(),
	).Decode(&member)
	if err != nil {
		return nil, translate("team member", err)
	}
	return &member, nil
}

// MongoPerformanceCollection implements PerformanceCollection for MongoDB.
// Every update is a single-document upsert so concurrent completion and
// review events never lose increments.
type MongoPerformanceCollection struct {
	Collection *mongo.Collection
}

func performanceKey(mechanicID, serviceCenterID string) bson.M {
	return bson.M{"mechanic_id": mechanicID, "service_center_id": serviceCenterID}
}

func upsertAfter() *options.FindOneAndUpdateOptions {
	return options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
}

// EnsurePerformance creates a zeroed row if none exists for the pair.
func (c *MongoPerformanceCollection) EnsurePerformance(ctx context.Context, mechanicID, serviceCenterID string) error {
	_, err := c.Collection.UpdateOne(ctx,
		performanceKey(mechanicID, serviceCenterID),
		bson.M{"$setOnInsert": bson.M{
			"total_jobs":         0,
			"completed_jobs":     0,
			"total_hours":        0.0,
			"on_time_jobs":       0,
			"avg_rating":         0.0,
			"total_ratings":      0,
			"satisfaction_count": 0,
			"last_updated":       time.Now(),
		}},
		options.Update().SetUpsert(true),
	)
	return translate("mechanic performance", err)
}

// IncrementCompletion adds one completed job. completed_jobs and total_jobs
// are incremented together.
func (c *MongoPerformanceCollection) IncrementCompletion(ctx context.Context, mechanicID, serviceCenterID string, delta models.CompletionDelta) (*models.MechanicPerformance, error) {
	var perf models.MechanicPerformance
	err := c.Collection.FindOneAndUpdate(ctx,
		performanceKey(mechanicID, serviceCenterID),
		bson.M{
			"$inc": bson.M{
				"completed_jobs": 1,
				"total_jobs":     1,
				"total_hours":    delta.Hours,
				"on_time_jobs":   delta.OnTimeJobs,
			},
			"$set": bson.M{"last_updated": time.Now()},
			"$setOnInsert": bson.M{
				"avg_rating":         0.0,
				"total_ratings":      0,
				"satisfaction_count": 0,
			},
		},
		upsertAfter(),
	).Decode(&perf)
	if err != nil {
		return nil, translate("mechanic performance", err)
	}
	return &perf, nil
}

// IncrementRating folds a rating into the running mean with an aggregation
// pipeline update, so total_ratings and avg_rating change in the same write.
func (c *MongoPerformanceCollection) IncrementRating(ctx context.Context, mechanicID, serviceCenterID string, rating int) (*models.MechanicPerformance, error) {
	orZero := func(field string) bson.M {
		return bson.M{"$ifNull": bson.A{"$" + field, 0}}
	}
	satisfied := 0
	if rating >= models.SatisfiedRating {
		satisfied = 1
	}
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"total_ratings": bson.M{"$add": bson.A{orZero("total_ratings"), 1}},
			"avg_rating": bson.M{"$divide": bson.A{
				bson.M{"$add": bson.A{
					bson.M{"$multiply": bson.A{orZero("avg_rating"), orZero("total_ratings")}},
					rating,
				}},
				bson.M{"$add": bson.A{orZero("total_ratings"), 1}},
			}},
			"satisfaction_count": bson.M{"$add": bson.A{orZero("satisfaction_count"), satisfied}},
			"total_jobs":         orZero("total_jobs"),
			"completed_jobs":     orZero("completed_jobs"),
			"total_hours":        orZero("total_hours"),
			"on_time_jobs":       orZero("on_time_jobs"),
			"last_updated":       time.Now(),
		}}},
	}

	var perf models.MechanicPerformance
	err := c.Collection.FindOneAndUpdate(ctx, performanceKey(mechanicID, serviceCenterID), pipeline, upsertAfter()).Decode(&perf)
	if err != nil {
		return nil, translate("mechanic performance", err)
	}
	return &perf, nil
}

// FindPerformance returns the aggregate for one pair.
func (c *MongoPerformanceCollection) FindPerformance(ctx context.Context, mechanicID, serviceCenterID string) (*models.MechanicPerformance, error) {
	var perf models.MechanicPerformance
	if err := c.Collection.FindOne(ctx, performanceKey(mechanicID, serviceCenterID)).Decode(&perf); err != nil {
		return nil, translate("mechanic performance", err)
	}
	return &perf, nil
}

// FindPerformances lists aggregates of a service center, best rated first.
func (c *MongoPerformanceCollection) FindPerformances(ctx context.Context, serviceCenterID string) ([]models.MechanicPerformance, error) {
	query := bson.M{}
	if serviceCenterID != "" {
		query["service_center_id"] = serviceCenterID
	}
	cursor, err := c.Collection.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "avg_rating", Value: -1}}))
	if err != nil {
		return nil, err
	}
	perfs := []models.MechanicPerformance{}
	if err := cursor.All(ctx, &perfs); err != nil {
		return nil, err
	}
	return perfs, nil
}

// MongoReviewCollection implements ReviewCollection for MongoDB.
type MongoReviewCollection struct {
	Collection *mongo.Collection
}

// InsertReview inserts a review; a second review of a booking is ErrConflict.
func (c *MongoReviewCollection) InsertReview(ctx context.Context, review *models.Review) error {
	if c.Collection == nil {
		return errNilCollection
	}
	if review.ID.IsZero() {
		review.ID = primitive.NewObjectID()
	}
	review.CreatedAt = time.Now()
	_, err := c.Collection.InsertOne(ctx, review)
	return translate("review", err)
}

// FindReviews lists reviews, newest first.
func (c *MongoReviewCollection) FindReviews(ctx context.Context, filter ReviewFilter) ([]models.Review, error) {
	query := bson.M{}
	if filter.ServiceCenterID != "" {
		query["service_center_id"] = filter.ServiceCenterID
	}
	if filter.MechanicID != "" {
		query["mechanic_id"] = filter.MechanicID
	}
	if filter.CustomerID != "" {
		query["customer_id"] = filter.CustomerID
	}
	cursor, err := c.Collection.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	reviews := []models.Review{}
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

// MongoSequenceCollection hands out numbers from a counters collection.
type MongoSequenceCollection struct {
	Collection *mongo.Collection
}

// NextSequence atomically increments and returns the counter for key,
// starting at 1.
func (c *MongoSequenceCollection) NextSequence(ctx context.Context, key string) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := c.Collection.FindOneAndUpdate(ctx,
		bson.M{"_id": key},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		upsertAfter(),
	).Decode(&counter)
	if err != nil {
		return 0, err
	}
	return counter.Seq, nil
}
