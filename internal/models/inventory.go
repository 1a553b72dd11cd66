package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Inventory is a stocked part at a service center. (SKU, ServiceCenterID) is unique.
type Inventory struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	PartName        string             `json:"part_name" bson:"part_name"`
	SKU             string             `json:"sku" bson:"sku"`
	Category        string             `json:"category" bson:"category"`
	Description     string             `json:"description,omitempty" bson:"description,omitempty"`
	CurrentStock    int                `json:"current_stock" bson:"current_stock"`
	ReorderLevel    int                `json:"reorder_level" bson:"reorder_level"`
	UnitPrice       float64            `json:"unit_price" bson:"unit_price"`
	Supplier        string             `json:"supplier,omitempty" bson:"supplier,omitempty"`
	ServiceCenterID string             `json:"service_center_id" bson:"service_center_id"`
	CreatedAt       time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at" bson:"updated_at"`
}

// IsLowStock reports whether the item is at or below its reorder level.
func (i Inventory) IsLowStock() bool {
	return i.CurrentStock <= i.ReorderLevel
}

// Priority ranks stock requests.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// StockRequestStatus is the lifecycle state of a stock request.
type StockRequestStatus string

const (
	StockRequestPending   StockRequestStatus = "pending"
	StockRequestApproved  StockRequestStatus = "approved"
	StockRequestRejected  StockRequestStatus = "rejected"
	StockRequestFulfilled StockRequestStatus = "fulfilled"
)

var stockRequestTransitions = map[StockRequestStatus][]StockRequestStatus{
	StockRequestPending:  {StockRequestApproved, StockRequestRejected},
	StockRequestApproved: {StockRequestFulfilled},
}

// CanTransitionTo reports whether moving from s to next is allowed.
func (s StockRequestStatus) CanTransitionTo(next StockRequestStatus) bool {
	for _, allowed := range stockRequestTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// StockRequest asks the admin to replenish an inventory item.
// CurrentStock is a snapshot taken when the request was created.
type StockRequest struct {
	ID                primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	InventoryID       string             `json:"inventory_id" bson:"inventory_id"`
	PartName          string             `json:"part_name" bson:"part_name"`
	RequestedBy       string             `json:"requested_by" bson:"requested_by"`
	RequestedQuantity int                `json:"requested_quantity" bson:"requested_quantity"`
	CurrentStock      int                `json:"current_stock" bson:"current_stock"`
	Reason            string             `json:"reason,omitempty" bson:"reason,omitempty"`
	Priority          Priority           `json:"priority" bson:"priority"`
	Status            StockRequestStatus `json:"status" bson:"status"`
	AdminNotes        string             `json:"admin_notes,omitempty" bson:"admin_notes,omitempty"`
	ReviewedBy        string             `json:"reviewed_by,omitempty" bson:"reviewed_by,omitempty"`
	FulfilledAt       *time.Time         `json:"fulfilled_at,omitempty" bson:"fulfilled_at,omitempty"`
	CreatedAt         time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at" bson:"updated_at"`
}
