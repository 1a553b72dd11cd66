package service

import (
	"context"

	"github.com/pkg/errors"
	"github.com/ukydev/service-center/internal/db"
	"github.com/ukydev/service-center/internal/events"
	"github.com/ukydev/service-center/internal/models"
)

// GenerateInvoiceInput names the completed job card to bill, directly or
// through its booking.
type GenerateInvoiceInput struct {
	JobCardID string `json:"job_card_id"`
	BookingID string `json:"booking_id"`
}

// PaymentInput records how an invoice was paid.
type PaymentInput struct {
	PaymentMethod string `json:"payment_method" validate:"required,oneof=cash card upi bank_transfer"`
	TransactionID string `json:"transaction_id" validate:"max=100"`
}

// PaymentFailureInput records why a payment attempt failed.
type PaymentFailureInput struct {
	Reason string `json:"reason" validate:"max=500"`
}

// InvoiceQuery narrows ListInvoices.
type InvoiceQuery struct {
	Status          models.InvoiceStatus
	ServiceCenterID string
}

// GenerateInvoice bills a completed job card. A job card is invoiced once.
func (s *Service) GenerateInvoice(ctx context.Context, actor Actor, in GenerateInvoiceInput) (*models.Invoice, error) {
	var (
		jc  *models.JobCard
		err error
	)
	switch {
	case in.JobCardID != "":
		jc, err = s.store.JobCards.FindJobCardByID(ctx, in.JobCardID)
	case in.BookingID != "":
		jc, err = s.store.JobCards.FindJobCardByBooking(ctx, in.BookingID)
	default:
		return nil, invalidField("job_card_id", "job_card_id or booking_id is required")
	}
	if err != nil {
		return nil, err
	}
	if err := manageCenter(actor, jc.ServiceCenterID); err != nil {
		return nil, err
	}
	if jc.Status != models.JobCardCompleted {
		return nil, errors.Wrapf(ErrInvalidState, "job card %s is %s, only completed job cards are invoiced", jc.JobCardNumber, jc.Status)
	}
	jobCardID := jc.ID.Hex()
	existing, err := s.store.Invoices.FindInvoiceByJobCard(ctx, jobCardID)
	switch {
	case err == nil:
		return nil, errors.Wrapf(db.ErrConflict, "job card %s is already invoiced as %s", jc.JobCardNumber, existing.InvoiceNumber)
	case !errors.Is(err, db.ErrNotFound):
		return nil, err
	}

	amounts := ComputeInvoiceAmounts(jc.TotalLaborCost, jc.TotalPartsCost, s.taxRate)
	invoice := &models.Invoice{
		InvoiceNumber:   s.nextNumber(ctx, "INV", "invoice"),
		JobCardID:       jobCardID,
		BookingID:       jc.BookingID,
		CustomerID:      jc.CustomerID,
		VehicleID:       jc.VehicleID,
		ServiceCenterID: jc.ServiceCenterID,
		LaborCost:       amounts.LaborCost,
		PartsCost:       amounts.PartsCost,
		Subtotal:        amounts.Subtotal,
		TaxRate:         s.taxRate,
		Tax:             amounts.Tax,
		TotalAmount:     amounts.TotalAmount,
		Status:          models.InvoicePending,
	}
	if err := s.store.Invoices.InsertInvoice(ctx, invoice); err != nil {
		return nil, errors.Wrap(err, "failed to create invoice")
	}
	s.publish(ctx, events.InvoiceGenerated, invoice.ID.Hex(), invoice.ServiceCenterID, invoice)
	return invoice, nil
}

// GetInvoice returns an invoice the caller is a party to.
func (s *Service) GetInvoice(ctx context.Context, actor Actor, id string) (*models.Invoice, error) {
	invoice, err := s.store.Invoices.FindInvoiceByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := viewParty(actor, invoice.CustomerID, invoice.ServiceCenterID); err != nil {
		return nil, err
	}
	return invoice, nil
}

// ListInvoices lists the invoices visible to the caller.
func (s *Service) ListInvoices(ctx context.Context, actor Actor, q InvoiceQuery) ([]models.Invoice, error) {
	filter := db.InvoiceFilter{Status: q.Status}
	switch actor.Role {
	case models.RoleCustomer:
		filter.CustomerID = actor.ID
	case models.RoleServiceCenter:
		filter.ServiceCenterID = actor.ID
	case models.RoleAdmin:
		filter.ServiceCenterID = q.ServiceCenterID
	default:
		return nil, ErrForbidden
	}
	return s.store.Invoices.FindInvoices(ctx, filter)
}

// ProcessPayment marks the invoice paid and its booking paid together.
func (s *Service) ProcessPayment(ctx context.Context, actor Actor, id string, in PaymentInput) (*models.Invoice, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}
	invoice, err := s.GetInvoice(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !invoice.Status.CanTransitionTo(models.InvoicePaid) {
		return nil, invalidTransition("invoice", invoice.Status, models.InvoicePaid)
	}

	var paid *models.Invoice
	err = s.store.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		now := s.now()
		patch := db.InvoicePatch{PaymentMethod: &in.PaymentMethod, PaidDate: &now}
		if in.TransactionID != "" {
			patch.TransactionID = &in.TransactionID
		}
		updated, err := s.store.Invoices.TransitionInvoice(ctx, id, invoice.Status, models.InvoicePaid, patch)
		if err != nil {
			return staleStatus("invoice", id, err)
		}
		booking, err := s.store.Bookings.FindBookingByID(ctx, updated.BookingID)
		if err != nil {
			return err
		}
		total := updated.TotalAmount
		if _, err := s.transitionBooking(ctx, booking, models.BookingPaid, db.BookingPatch{ActualCost: &total}); err != nil {
			return err
		}
		paid = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.InvoicePaid, id, paid.ServiceCenterID, paid)
	return paid, nil
}

// RecordPaymentFailure marks a pending invoice failed.
func (s *Service) RecordPaymentFailure(ctx context.Context, actor Actor, id string, in PaymentFailureInput) (*models.Invoice, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}
	invoice, err := s.GetInvoice(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !invoice.Status.CanTransitionTo(models.InvoiceFailed) {
		return nil, invalidTransition("invoice", invoice.Status, models.InvoiceFailed)
	}
	patch := db.InvoicePatch{}
	if in.Reason != "" {
		patch.FailureReason = &in.Reason
	}
	failed, err := s.store.Invoices.TransitionInvoice(ctx, id, invoice.Status, models.InvoiceFailed, patch)
	if err != nil {
		return nil, staleStatus("invoice", id, err)
	}
	s.publish(ctx, events.InvoicePaymentFailed, id, failed.ServiceCenterID, failed)
	return failed, nil
}

// ReopenInvoice returns a failed invoice to pending so payment can be retried.
func (s *Service) ReopenInvoice(ctx context.Context, actor Actor, id string) (*models.Invoice, error) {
	invoice, err := s.GetInvoice(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !invoice.Status.CanTransitionTo(models.InvoicePending) {
		return nil, invalidTransition("invoice", invoice.Status, models.InvoicePending)
	}
	reopened, err := s.store.Invoices.TransitionInvoice(ctx, id, invoice.Status, models.InvoicePending, db.InvoicePatch{})
	if err != nil {
		return nil, staleStatus("invoice", id, err)
	}
	return reopened, nil
}
