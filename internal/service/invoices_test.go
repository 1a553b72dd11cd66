package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/service-center/internal/db"
	"github.com/ukydev/service-center/internal/events"
	"github.com/ukydev/service-center/internal/models"
)

// completedJobCard finishes a job card with 100 of labor and 30 of parts.
func (f *fixture) completedJobCard(t *testing.T) *models.JobCard {
	t.Helper()
	ctx := context.Background()
	jc := f.jobCardInProgress(t)
	_, err := f.svc.AddLaborTask(ctx, f.center, jc.ID.Hex(), LaborTaskInput{Task: "Replace pads", Hours: 2, HourlyRate: 50})
	require.NoError(t, err)
	_, err = f.svc.AddSparePart(ctx, f.center, jc.ID.Hex(), SparePartInput{PartName: "Brake pads", Quantity: 1, UnitPrice: float(30)})
	require.NoError(t, err)
	jc, err = f.svc.CompleteService(ctx, f.center, jc.ID.Hex())
	require.NoError(t, err)
	return jc
}

// paidBooking walks a booking through to a paid invoice.
func (f *fixture) paidBooking(t *testing.T) *models.Booking {
	t.Helper()
	ctx := context.Background()
	jc := f.completedJobCard(t)
	invoice, err := f.svc.GenerateInvoice(ctx, f.center, GenerateInvoiceInput{JobCardID: jc.ID.Hex()})
	require.NoError(t, err)
	_, err = f.svc.ProcessPayment(ctx, f.customer, invoice.ID.Hex(), PaymentInput{PaymentMethod: "card"})
	require.NoError(t, err)
	return f.booking(t, jc.BookingID)
}

func TestGenerateInvoice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inProgress := f.jobCardInProgress(t)
	_, err := f.svc.GenerateInvoice(ctx, f.center, GenerateInvoiceInput{JobCardID: inProgress.ID.Hex()})
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = f.svc.GenerateInvoice(ctx, f.center, GenerateInvoiceInput{})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	jc := f.completedJobCard(t)
	_, err = f.svc.GenerateInvoice(ctx, f.customer, GenerateInvoiceInput{JobCardID: jc.ID.Hex()})
	assert.ErrorIs(t, err, ErrForbidden)

	invoice, err := f.svc.GenerateInvoice(ctx, f.center, GenerateInvoiceInput{BookingID: jc.BookingID})
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-0001", invoice.InvoiceNumber)
	assert.Equal(t, jc.ID.Hex(), invoice.JobCardID)
	assert.Equal(t, f.customer.ID, invoice.CustomerID)
	assert.Equal(t, 100.0, invoice.LaborCost)
	assert.Equal(t, 30.0, invoice.PartsCost)
	assert.Equal(t, 130.0, invoice.Subtotal)
	assert.Equal(t, 0.10, invoice.TaxRate)
	assert.Equal(t, 13.0, invoice.Tax)
	assert.Equal(t, 143.0, invoice.TotalAmount)
	assert.Equal(t, models.InvoicePending, invoice.Status)
	assert.Contains(t, f.events.Types(), events.InvoiceGenerated)

	_, err = f.svc.GenerateInvoice(ctx, f.center, GenerateInvoiceInput{JobCardID: jc.ID.Hex()})
	assert.ErrorIs(t, err, db.ErrConflict)
}

func TestGenerateInvoice_ZeroTaxRate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	clock := f.svc.now
	f.svc = New(f.mem.Store(), f.events, nil, Config{TaxRate: 0})
	f.svc.now = clock
	assert.Zero(t, f.svc.TaxRate())

	jc := f.completedJobCard(t)
	invoice, err := f.svc.GenerateInvoice(ctx, f.center, GenerateInvoiceInput{JobCardID: jc.ID.Hex()})
	require.NoError(t, err)
	assert.Zero(t, invoice.TaxRate)
	assert.Zero(t, invoice.Tax)
	assert.Equal(t, 130.0, invoice.Subtotal)
	assert.Equal(t, invoice.Subtotal, invoice.TotalAmount)
}

func TestNew_OutOfRangeTaxRateFallsBack(t *testing.T) {
	store := db.NewMemoryStore().Store()
	assert.Equal(t, DefaultTaxRate, New(store, nil, nil, Config{TaxRate: -0.2}).TaxRate())
	assert.Equal(t, DefaultTaxRate, New(store, nil, nil, Config{TaxRate: 1.5}).TaxRate())
	assert.Equal(t, 0.2, New(store, nil, nil, Config{TaxRate: 0.2}).TaxRate())
}

func TestProcessPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	jc := f.completedJobCard(t)
	invoice, err := f.svc.GenerateInvoice(ctx, f.center, GenerateInvoiceInput{JobCardID: jc.ID.Hex()})
	require.NoError(t, err)

	_, err = f.svc.ProcessPayment(ctx, f.customer, invoice.ID.Hex(), PaymentInput{PaymentMethod: "cheque"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "payment_method")

	stranger := f.addUser(t, models.RoleCustomer, "stranger")
	_, err = f.svc.ProcessPayment(ctx, stranger, invoice.ID.Hex(), PaymentInput{PaymentMethod: "cash"})
	assert.ErrorIs(t, err, ErrForbidden)

	paid, err := f.svc.ProcessPayment(ctx, f.customer, invoice.ID.Hex(), PaymentInput{PaymentMethod: "upi", TransactionID: "txn-42"})
	require.NoError(t, err)
	assert.Equal(t, models.InvoicePaid, paid.Status)
	assert.Equal(t, "upi", paid.PaymentMethod)
	assert.Equal(t, "txn-42", paid.TransactionID)
	require.NotNil(t, paid.PaidDate)
	assert.Equal(t, f.clock, *paid.PaidDate)

	booking := f.booking(t, jc.BookingID)
	assert.Equal(t, models.BookingPaid, booking.Status)
	assert.Equal(t, 143.0, booking.ActualCost)

	_, err = f.svc.ProcessPayment(ctx, f.customer, invoice.ID.Hex(), PaymentInput{PaymentMethod: "cash"})
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Contains(t, f.events.Types(), events.InvoicePaid)
}

func TestPaymentFailureAndRetry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	jc := f.completedJobCard(t)
	invoice, err := f.svc.GenerateInvoice(ctx, f.center, GenerateInvoiceInput{JobCardID: jc.ID.Hex()})
	require.NoError(t, err)
	id := invoice.ID.Hex()

	_, err = f.svc.ReopenInvoice(ctx, f.center, id)
	assert.ErrorIs(t, err, ErrInvalidState)

	failed, err := f.svc.RecordPaymentFailure(ctx, f.center, id, PaymentFailureInput{Reason: "card declined"})
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceFailed, failed.Status)
	assert.Equal(t, "card declined", failed.FailureReason)
	assert.Equal(t, models.BookingReadyForBilling, f.booking(t, jc.BookingID).Status)

	_, err = f.svc.ProcessPayment(ctx, f.customer, id, PaymentInput{PaymentMethod: "card"})
	assert.ErrorIs(t, err, ErrInvalidState)

	reopened, err := f.svc.ReopenInvoice(ctx, f.center, id)
	require.NoError(t, err)
	assert.Equal(t, models.InvoicePending, reopened.Status)

	paid, err := f.svc.ProcessPayment(ctx, f.customer, id, PaymentInput{PaymentMethod: "card"})
	require.NoError(t, err)
	assert.Equal(t, models.InvoicePaid, paid.Status)

	_, err = f.svc.RecordPaymentFailure(ctx, f.center, id, PaymentFailureInput{})
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestListInvoices_ScopedByRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	jc := f.completedJobCard(t)
	_, err := f.svc.GenerateInvoice(ctx, f.center, GenerateInvoiceInput{JobCardID: jc.ID.Hex()})
	require.NoError(t, err)

	mine, err := f.svc.ListInvoices(ctx, f.customer, InvoiceQuery{})
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	stranger := f.addUser(t, models.RoleCustomer, "stranger")
	theirs, err := f.svc.ListInvoices(ctx, stranger, InvoiceQuery{})
	require.NoError(t, err)
	assert.Empty(t, theirs)

	pending, err := f.svc.ListInvoices(ctx, f.admin, InvoiceQuery{Status: models.InvoicePending})
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	paid, err := f.svc.ListInvoices(ctx, f.center, InvoiceQuery{Status: models.InvoicePaid})
	require.NoError(t, err)
	assert.Empty(t, paid)
}
