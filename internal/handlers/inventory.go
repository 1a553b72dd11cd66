package handlers

import (
	"net/http"

	"github.com/ukydev/service-center/internal/models"
	"github.com/ukydev/service-center/internal/service"
)

func (h *Handler) CreateInventoryItem(w http.ResponseWriter, r *http.Request) {
	callWith(h, w, r, http.StatusCreated, "Inventory item added", func(actor service.Actor, in service.InventoryInput) (interface{}, error) {
		return h.svc.CreateInventoryItem(r.Context(), actor, in)
	})
}

func (h *Handler) ListInventory(w http.ResponseWriter, r *http.Request) {
	q := service.InventoryQuery{
		ServiceCenterID: r.URL.Query().Get("service_center_id"),
		LowStockOnly:    r.URL.Query().Get("low_stock") == "true",
	}
	h.call(w, r, http.StatusOK, "", func(actor service.Actor) (interface{}, error) {
		return h.svc.ListInventory(r.Context(), actor, q)
	})
}

func (h *Handler) ListLowStock(w http.ResponseWriter, r *http.Request) {
	h.call(w, r, http.StatusOK, "", func(actor service.Actor) (interface{}, error) {
		return h.svc.ListLowStock(r.Context(), actor, r.URL.Query().Get("service_center_id"))
	})
}

func (h *Handler) GetInventoryItem(w http.ResponseWriter, r *http.Request) {
	h.call(w, r, http.StatusOK, "", func(actor service.Actor) (interface{}, error) {
		return h.svc.GetInventoryItem(r.Context(), actor, param(r, "id"))
	})
}

func (h *Handler) UseInventoryItem(w http.ResponseWriter, r *http.Request) {
	callWith(h, w, r, http.StatusOK, "Stock updated", func(actor service.Actor, in service.UseInventoryInput) (interface{}, error) {
		return h.svc.UseInventoryItem(r.Context(), actor, param(r, "id"), in)
	})
}

func (h *Handler) CreateStockRequest(w http.ResponseWriter, r *http.Request) {
	callWith(h, w, r, http.StatusCreated, "Stock request created", func(actor service.Actor, in service.StockRequestInput) (interface{}, error) {
		return h.svc.CreateStockRequest(r.Context(), actor, in)
	})
}

func (h *Handler) ListStockRequests(w http.ResponseWriter, r *http.Request) {
	q := service.StockRequestQuery{
		Status:          models.StockRequestStatus(r.URL.Query().Get("status")),
		ServiceCenterID: r.URL.Query().Get("service_center_id"),
	}
	h.call(w, r, http.StatusOK, "", func(actor service.Actor) (interface{}, error) {
		return h.svc.ListStockRequests(r.Context(), actor, q)
	})
}

func (h *Handler) UpdateStockRequestStatus(w http.ResponseWriter, r *http.Request) {
	callWith(h, w, r, http.StatusOK, "Stock request updated", func(actor service.Actor, in service.StockRequestStatusInput) (interface{}, error) {
		return h.svc.UpdateStockRequestStatus(r.Context(), actor, param(r, "id"), in)
	})
}
