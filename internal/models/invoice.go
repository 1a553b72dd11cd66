package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// InvoiceStatus is the payment status of an invoice.
type InvoiceStatus string

const (
	InvoicePending InvoiceStatus = "pending"
	InvoicePaid    InvoiceStatus = "paid"
	InvoiceFailed  InvoiceStatus = "failed"
)

var invoiceTransitions = map[InvoiceStatus][]InvoiceStatus{
	InvoicePending: {InvoicePaid, InvoiceFailed},
	InvoiceFailed:  {InvoicePending},
}

// CanTransitionTo reports whether moving from s to next is allowed.
func (s InvoiceStatus) CanTransitionTo(next InvoiceStatus) bool {
	for _, allowed := range invoiceTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Invoice bills a completed job card.
// Subtotal = LaborCost + PartsCost, TotalAmount = Subtotal + Tax.
type Invoice struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	InvoiceNumber   string             `json:"invoice_number" bson:"invoice_number"`
	JobCardID       string             `json:"job_card_id" bson:"job_card_id"`
	BookingID       string             `json:"booking_id" bson:"booking_id"`
	CustomerID      string             `json:"customer_id" bson:"customer_id"`
	VehicleID       string             `json:"vehicle_id" bson:"vehicle_id"`
	ServiceCenterID string             `json:"service_center_id" bson:"service_center_id"`
	LaborCost       float64            `json:"labor_cost" bson:"labor_cost"`
	PartsCost       float64            `json:"parts_cost" bson:"parts_cost"`
	Subtotal        float64            `json:"subtotal" bson:"subtotal"`
	TaxRate         float64            `json:"tax_rate" bson:"tax_rate"`
	Tax             float64            `json:"tax" bson:"tax"`
	TotalAmount     float64            `json:"total_amount" bson:"total_amount"`
	Status          InvoiceStatus      `json:"status" bson:"status"`
	PaymentMethod   string             `json:"payment_method,omitempty" bson:"payment_method,omitempty"` // "cash", "card", "upi", "bank_transfer"
	TransactionID   string             `json:"transaction_id,omitempty" bson:"transaction_id,omitempty"`
	PaidDate        *time.Time         `json:"paid_date,omitempty" bson:"paid_date,omitempty"`
	FailureReason   string             `json:"failure_reason,omitempty" bson:"failure_reason,omitempty"`
	CreatedAt       time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at" bson:"updated_at"`
}
