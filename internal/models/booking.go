package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingPending         BookingStatus = "pending"
	BookingConfirmed       BookingStatus = "confirmed"
	BookingJobCardCreated  BookingStatus = "job_card_created"
	BookingInService       BookingStatus = "in_service"
	BookingReadyForBilling BookingStatus = "ready_for_billing"
	BookingPaid            BookingStatus = "paid"
	BookingCancelled       BookingStatus = "cancelled"
)

// bookingTransitions lists the legal next states for every booking state.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:         {BookingConfirmed, BookingCancelled},
	BookingConfirmed:       {BookingJobCardCreated, BookingCancelled},
	BookingJobCardCreated:  {BookingInService},
	BookingInService:       {BookingReadyForBilling},
	BookingReadyForBilling: {BookingPaid},
}

// IsValid reports whether s is a known booking status.
func (s BookingStatus) IsValid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingJobCardCreated, BookingInService,
		BookingReadyForBilling, BookingPaid, BookingCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether moving from s to next is allowed.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func (s BookingStatus) IsTerminal() bool {
	return len(bookingTransitions[s]) == 0
}

// Booking is a customer's request for a service at a service center.
type Booking struct {
	ID               primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	CustomerID       string             `json:"customer_id" bson:"customer_id"`
	VehicleID        string             `json:"vehicle_id" bson:"vehicle_id"`
	ServiceCenterID  string             `json:"service_center_id" bson:"service_center_id"`
	ServiceType      string             `json:"service_type" bson:"service_type"`
	Description      string             `json:"description,omitempty" bson:"description,omitempty"`
	PreferredDate    time.Time          `json:"preferred_date" bson:"preferred_date"`
	ScheduledDate    *time.Time         `json:"scheduled_date,omitempty" bson:"scheduled_date,omitempty"`
	Status           BookingStatus      `json:"status" bson:"status"`
	AssignedMechanic string             `json:"assigned_mechanic,omitempty" bson:"assigned_mechanic,omitempty"`
	JobCardID        string             `json:"job_card_id,omitempty" bson:"job_card_id,omitempty"`
	EstimatedCost    float64            `json:"estimated_cost" bson:"estimated_cost"`
	ActualCost       float64            `json:"actual_cost" bson:"actual_cost"`
	CancelReason     string             `json:"cancel_reason,omitempty" bson:"cancel_reason,omitempty"`
	CreatedAt        time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at" bson:"updated_at"`
}
