package service

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/ukydev/service-center/internal/db"
	"github.com/ukydev/service-center/internal/models"
)

// Summary is the dashboard overview of a service center, or of every
// service center for admins.
type Summary struct {
	ServiceCenterID      string                       `json:"service_center_id,omitempty"`
	TotalBookings        int                          `json:"total_bookings"`
	BookingsByStatus     map[models.BookingStatus]int `json:"bookings_by_status"`
	ActiveJobCards       int                          `json:"active_job_cards"`
	PaidRevenue          float64                      `json:"paid_revenue"`
	OutstandingAmount    float64                      `json:"outstanding_amount"`
	PaidInvoices         int                          `json:"paid_invoices"`
	OpenInvoices         int                          `json:"open_invoices"`
	LowStockItems        int                          `json:"low_stock_items"`
	PendingStockRequests int                          `json:"pending_stock_requests"`
}

// Summary aggregates bookings, invoices and stock.
func (s *Service) Summary(ctx context.Context, actor Actor, serviceCenterID string) (*Summary, error) {
	scope, err := centerScope(actor, serviceCenterID)
	if err != nil {
		return nil, err
	}
	out := &Summary{ServiceCenterID: scope, BookingsByStatus: map[models.BookingStatus]int{}}

	bookings, err := s.store.Bookings.FindBookings(ctx, db.BookingFilter{ServiceCenterID: scope})
	if err != nil {
		return nil, err
	}
	out.TotalBookings = len(bookings)
	for _, b := range bookings {
		out.BookingsByStatus[b.Status]++
	}

	jobCards, err := s.store.JobCards.FindJobCards(ctx, db.JobCardFilter{ServiceCenterID: scope})
	if err != nil {
		return nil, err
	}
	for _, jc := range jobCards {
		if jc.Status != models.JobCardCompleted {
			out.ActiveJobCards++
		}
	}

	invoices, err := s.store.Invoices.FindInvoices(ctx, db.InvoiceFilter{ServiceCenterID: scope})
	if err != nil {
		return nil, err
	}
	revenue, outstanding := decimal.Zero, decimal.Zero
	for _, inv := range invoices {
		if inv.Status == models.InvoicePaid {
			out.PaidInvoices++
			revenue = revenue.Add(money(inv.TotalAmount))
		} else {
			out.OpenInvoices++
			outstanding = outstanding.Add(money(inv.TotalAmount))
		}
	}
	out.PaidRevenue = cents(revenue)
	out.OutstandingAmount = cents(outstanding)

	low, err := s.store.Inventory.FindInventory(ctx, db.InventoryFilter{ServiceCenterID: scope, LowStockOnly: true})
	if err != nil {
		return nil, err
	}
	out.LowStockItems = len(low)

	pending, err := s.store.StockRequests.FindStockRequests(ctx, db.StockRequestFilter{RequestedBy: scope, Status: models.StockRequestPending})
	if err != nil {
		return nil, err
	}
	out.PendingStockRequests = len(pending)
	return out, nil
}
