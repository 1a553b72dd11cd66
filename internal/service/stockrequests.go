package service

import (
	"context"

	"github.com/pkg/errors"
	"github.com/ukydev/service-center/internal/db"
	"github.com/ukydev/service-center/internal/events"
	"github.com/ukydev/service-center/internal/models"
)

// StockRequestInput asks the admin for more of an inventory item.
type StockRequestInput struct {
	InventoryID       string          `json:"inventory_id" validate:"required"`
	RequestedQuantity int             `json:"requested_quantity" validate:"required,gt=0"`
	Reason            string          `json:"reason" validate:"max=500"`
	Priority          models.Priority `json:"priority" validate:"omitempty,oneof=low medium high critical"`
}

// StockRequestStatusInput is the admin decision on a request.
type StockRequestStatusInput struct {
	Status     models.StockRequestStatus `json:"status" validate:"required,oneof=approved rejected fulfilled"`
	AdminNotes string                    `json:"admin_notes" validate:"max=1000"`
}

// StockRequestQuery narrows ListStockRequests.
type StockRequestQuery struct {
	Status          models.StockRequestStatus
	ServiceCenterID string
}

// CreateStockRequest records a replenishment request, snapshotting the
// item's current stock.
func (s *Service) CreateStockRequest(ctx context.Context, actor Actor, in StockRequestInput) (*models.StockRequest, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}
	item, err := s.GetInventoryItem(ctx, actor, in.InventoryID)
	if err != nil {
		return nil, err
	}
	priority := in.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	request := &models.StockRequest{
		InventoryID:       in.InventoryID,
		PartName:          item.PartName,
		RequestedBy:       item.ServiceCenterID,
		RequestedQuantity: in.RequestedQuantity,
		CurrentStock:      item.CurrentStock,
		Reason:            in.Reason,
		Priority:          priority,
		Status:            models.StockRequestPending,
	}
	if err := s.store.StockRequests.InsertStockRequest(ctx, request); err != nil {
		return nil, errors.Wrap(err, "failed to create stock request")
	}
	s.publish(ctx, events.StockRequestCreated, request.ID.Hex(), request.RequestedBy, request)
	return request, nil
}

// ListStockRequests lists a service center's requests, or all for admins.
func (s *Service) ListStockRequests(ctx context.Context, actor Actor, q StockRequestQuery) ([]models.StockRequest, error) {
	scope, err := centerScope(actor, q.ServiceCenterID)
	if err != nil {
		return nil, err
	}
	return s.store.StockRequests.FindStockRequests(ctx, db.StockRequestFilter{RequestedBy: scope, Status: q.Status})
}

// UpdateStockRequestStatus applies an admin decision. Fulfilling a request
// adds the requested quantity to stock in the same transaction.
func (s *Service) UpdateStockRequestStatus(ctx context.Context, actor Actor, id string, in StockRequestStatusInput) (*models.StockRequest, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}
	if !actor.isAdmin() {
		return nil, errors.Wrap(ErrForbidden, "only admins review stock requests")
	}
	request, err := s.store.StockRequests.FindStockRequestByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !request.Status.CanTransitionTo(in.Status) {
		return nil, invalidTransition("stock request", request.Status, in.Status)
	}

	var updated *models.StockRequest
	err = s.store.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		patch := db.StockRequestPatch{ReviewedBy: &actor.ID}
		if in.AdminNotes != "" {
			patch.AdminNotes = &in.AdminNotes
		}
		if in.Status == models.StockRequestFulfilled {
			now := s.now()
			patch.FulfilledAt = &now
		}
		out, err := s.store.StockRequests.TransitionStockRequest(ctx, id, request.Status, in.Status, patch)
		if err != nil {
			return staleStatus("stock request", id, err)
		}
		if in.Status == models.StockRequestFulfilled {
			if _, err := s.store.Inventory.IncrementStock(ctx, out.InventoryID, out.RequestedQuantity); err != nil {
				return errors.Wrap(err, "failed to restock inventory")
			}
		}
		updated = out
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.StockRequestUpdated, id, updated.RequestedBy, updated)
	return updated, nil
}
