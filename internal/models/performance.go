package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MechanicPerformance is the derived aggregate for one (mechanic, service center)
// pair. It is only ever upserted by the aggregator.
type MechanicPerformance struct {
	ID                primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	MechanicID        string             `json:"mechanic_id" bson:"mechanic_id"`
	ServiceCenterID   string             `json:"service_center_id" bson:"service_center_id"`
	TotalJobs         int                `json:"total_jobs" bson:"total_jobs"`
	CompletedJobs     int                `json:"completed_jobs" bson:"completed_jobs"`
	TotalHours        float64            `json:"total_hours" bson:"total_hours"`
	OnTimeJobs        int                `json:"on_time_jobs" bson:"on_time_jobs"`
	AvgRating         float64            `json:"avg_rating" bson:"avg_rating"`
	TotalRatings      int                `json:"total_ratings" bson:"total_ratings"`
	SatisfactionCount int                `json:"satisfaction_count" bson:"satisfaction_count"`
	LastUpdated       time.Time          `json:"last_updated" bson:"last_updated"`
}

// SatisfiedRating is the lowest rating counted as a satisfied customer.
const SatisfiedRating = 4

// CompletionDelta is what one completed job card adds to a mechanic's record.
type CompletionDelta struct {
	Hours      float64
	OnTimeJobs int
}

// ApplyCompletion adds a completed job to the aggregate.
func (p *MechanicPerformance) ApplyCompletion(d CompletionDelta, at time.Time) {
	p.CompletedJobs++
	p.TotalJobs = p.CompletedJobs
	p.TotalHours += d.Hours
	p.OnTimeJobs += d.OnTimeJobs
	p.LastUpdated = at
}

// ApplyRating folds one rating into the running average.
func (p *MechanicPerformance) ApplyRating(rating int, at time.Time) {
	p.TotalRatings++
	p.AvgRating = (p.AvgRating*float64(p.TotalRatings-1) + float64(rating)) / float64(p.TotalRatings)
	if rating >= SatisfiedRating {
		p.SatisfactionCount++
	}
	p.LastUpdated = at
}

// OnTimeRate is the share of completed tasks finished within estimate, in percent.
func (p MechanicPerformance) OnTimeRate() float64 {
	if p.CompletedJobs == 0 {
		return 0
	}
	return float64(p.OnTimeJobs) / float64(p.CompletedJobs) * 100
}

// SatisfactionRate is the share of ratings at or above SatisfiedRating, in percent.
func (p MechanicPerformance) SatisfactionRate() float64 {
	if p.TotalRatings == 0 {
		return 0
	}
	return float64(p.SatisfactionCount) / float64(p.TotalRatings) * 100
}

// Review is a customer's rating of a finished booking.
type Review struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	BookingID       string             `json:"booking_id" bson:"booking_id"`
	CustomerID      string             `json:"customer_id" bson:"customer_id"`
	ServiceCenterID string             `json:"service_center_id" bson:"service_center_id"`
	VehicleID       string             `json:"vehicle_id" bson:"vehicle_id"`
	MechanicID      string             `json:"mechanic_id,omitempty" bson:"mechanic_id,omitempty"`
	Rating          int                `json:"rating" bson:"rating"`
	Comment         string             `json:"comment,omitempty" bson:"comment,omitempty"`
	CreatedAt       time.Time          `json:"created_at" bson:"created_at"`
}
