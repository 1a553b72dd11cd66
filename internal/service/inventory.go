package service

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/ukydev/service-center/internal/db"
	"github.com/ukydev/service-center/internal/events"
	"github.com/ukydev/service-center/internal/models"
)

// InventoryInput stocks a new part.
type InventoryInput struct {
	PartName        string  `json:"part_name" validate:"required,max=200"`
	SKU             string  `json:"sku" validate:"required,sku,max=50"`
	Category        string  `json:"category" validate:"required,max=100"`
	Description     string  `json:"description" validate:"max=1000"`
	CurrentStock    int     `json:"current_stock" validate:"gte=0"`
	ReorderLevel    int     `json:"reorder_level" validate:"gte=0"`
	UnitPrice       float64 `json:"unit_price" validate:"gte=0"`
	Supplier        string  `json:"supplier" validate:"max=200"`
	ServiceCenterID string  `json:"service_center_id"`
}

// UseInventoryInput takes parts out of stock.
type UseInventoryInput struct {
	Quantity int `json:"quantity" validate:"required,gt=0"`
}

// InventoryQuery narrows ListInventory.
type InventoryQuery struct {
	ServiceCenterID string
	LowStockOnly    bool
}

// CreateInventoryItem adds a part. A SKU is unique within a service center.
func (s *Service) CreateInventoryItem(ctx context.Context, actor Actor, in InventoryInput) (*models.Inventory, error) {
	in.SKU = strings.ToUpper(strings.TrimSpace(in.SKU))
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}
	serviceCenterID, err := centerScope(actor, in.ServiceCenterID)
	if err != nil {
		return nil, err
	}
	if serviceCenterID == "" {
		return nil, invalidField("service_center_id", "is required")
	}
	item := &models.Inventory{
		PartName:        in.PartName,
		SKU:             in.SKU,
		Category:        in.Category,
		Description:     in.Description,
		CurrentStock:    in.CurrentStock,
		ReorderLevel:    in.ReorderLevel,
		UnitPrice:       in.UnitPrice,
		Supplier:        in.Supplier,
		ServiceCenterID: serviceCenterID,
	}
	if err := s.store.Inventory.InsertInventory(ctx, item); err != nil {
		return nil, errors.Wrapf(err, "failed to add %s", in.SKU)
	}
	return item, nil
}

// GetInventoryItem returns an item of the caller's service center.
func (s *Service) GetInventoryItem(ctx context.Context, actor Actor, id string) (*models.Inventory, error) {
	item, err := s.store.Inventory.FindInventoryByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := manageCenter(actor, item.ServiceCenterID); err != nil {
		return nil, err
	}
	return item, nil
}

// ListInventory lists a service center's stock.
func (s *Service) ListInventory(ctx context.Context, actor Actor, q InventoryQuery) ([]models.Inventory, error) {
	scope, err := centerScope(actor, q.ServiceCenterID)
	if err != nil {
		return nil, err
	}
	return s.store.Inventory.FindInventory(ctx, db.InventoryFilter{ServiceCenterID: scope, LowStockOnly: q.LowStockOnly})
}

// ListLowStock lists items at or below their reorder level.
func (s *Service) ListLowStock(ctx context.Context, actor Actor, serviceCenterID string) ([]models.Inventory, error) {
	return s.ListInventory(ctx, actor, InventoryQuery{ServiceCenterID: serviceCenterID, LowStockOnly: true})
}

// UseInventoryItem takes quantity units out of stock. It fails with
// db.ErrInsufficientStock, leaving stock unchanged, when fewer are available.
func (s *Service) UseInventoryItem(ctx context.Context, actor Actor, id string, in UseInventoryInput) (*models.Inventory, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}
	if _, err := s.GetInventoryItem(ctx, actor, id); err != nil {
		return nil, err
	}
	item, err := s.store.Inventory.DecrementStock(ctx, id, in.Quantity)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to use %d units", in.Quantity)
	}
	if item.IsLowStock() {
		s.publish(ctx, events.InventoryLowStock, id, item.ServiceCenterID, item)
	}
	return item, nil
}
