package db

import (
	"context"
	"errors"
	"time"

	"github.com/ukydev/service-center/internal/models"
)

var (
	// ErrNotFound is returned when the referenced document does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique constraint is violated.
	ErrConflict = errors.New("conflict")
	// ErrInsufficientStock is returned when a decrement would drive stock negative.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrStatusMismatch is returned by conditional transitions when the
	// document exists but is no longer in the expected status.
	ErrStatusMismatch = errors.New("status mismatch")
	// ErrTransactionsDisabled is returned by a MongoTransactor built without
	// transaction support.
	ErrTransactionsDisabled = errors.New("mongo transactions are disabled")
	// ErrVersionConflict is returned when a versioned write lost a race.
	ErrVersionConflict = errors.New("version conflict")
)

// Transactor runs fn so that every collection call made with the ctx it
// receives commits or aborts together.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// VehicleCollection defines the interface for vehicle data operations.
type VehicleCollection interface {
	InsertVehicle(ctx context.Context, vehicle *models.Vehicle) error
	FindVehicles(ctx context.Context, ownerID string) ([]models.Vehicle, error)
	FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error)
	UpdateVehicle(ctx context.Context, id string, vehicle models.Vehicle) error
	DeleteVehicle(ctx context.Context, id string) error
}

// BookingFilter narrows booking queries. Empty fields match everything.
type BookingFilter struct {
	CustomerID      string
	ServiceCenterID string
	Status          models.BookingStatus
}

// BookingPatch lists the non-status fields a booking update may set.
type BookingPatch struct {
	ScheduledDate    *time.Time
	AssignedMechanic *string
	JobCardID        *string
	EstimatedCost    *float64
	ActualCost       *float64
	CancelReason     *string
}

// BookingCollection defines the interface for booking data operations.
type BookingCollection interface {
	InsertBooking(ctx context.Context, booking *models.Booking) error
	FindBookingByID(ctx context.Context, id string) (*models.Booking, error)
	FindBookings(ctx context.Context, filter BookingFilter) ([]models.Booking, error)
	// TransitionBooking moves the booking from one status to another in a
	// single conditional write and applies patch alongside.
	TransitionBooking(ctx context.Context, id string, from, to models.BookingStatus, patch BookingPatch) (*models.Booking, error)
	UpdateBooking(ctx context.Context, id string, patch BookingPatch) (*models.Booking, error)
}

// JobCardFilter narrows job card queries.
type JobCardFilter struct {
	ServiceCenterID string
	CustomerID      string
	MechanicID      string
	Status          models.JobCardStatus
}

// JobCardCollection defines the interface for job card data operations.
type JobCardCollection interface {
	InsertJobCard(ctx context.Context, jobCard *models.JobCard) error
	FindJobCardByID(ctx context.Context, id string) (*models.JobCard, error)
	FindJobCardByBooking(ctx context.Context, bookingID string) (*models.JobCard, error)
	FindJobCards(ctx context.Context, filter JobCardFilter) ([]models.JobCard, error)
	// ReplaceJobCard writes jobCard if its Version still matches the stored
	// one and bumps the version.
	ReplaceJobCard(ctx context.Context, jobCard *models.JobCard) error
}

// InvoiceFilter narrows invoice queries.
type InvoiceFilter struct {
	CustomerID      string
	ServiceCenterID string
	Status          models.InvoiceStatus
}

// InvoicePatch lists the payment fields an invoice transition may set.
type InvoicePatch struct {
	PaymentMethod *string
	TransactionID *string
	PaidDate      *time.Time
	FailureReason *string
}

// InvoiceCollection defines the interface for invoice data operations.
type InvoiceCollection interface {
	InsertInvoice(ctx context.Context, invoice *models.Invoice) error
	FindInvoiceByID(ctx context.Context, id string) (*models.Invoice, error)
	FindInvoiceByJobCard(ctx context.Context, jobCardID string) (*models.Invoice, error)
	FindInvoices(ctx context.Context, filter InvoiceFilter) ([]models.Invoice, error)
	TransitionInvoice(ctx context.Context, id string, from, to models.InvoiceStatus, patch InvoicePatch) (*models.Invoice, error)
}

// InventoryFilter narrows inventory queries.
type InventoryFilter struct {
	ServiceCenterID string
	LowStockOnly    bool
}

// InventoryCollection defines the interface for inventory data operations.
type InventoryCollection interface {
	InsertInventory(ctx context.Context, item *models.Inventory) error
	FindInventoryByID(ctx context.Context, id string) (*models.Inventory, error)
	FindInventory(ctx context.Context, filter InventoryFilter) ([]models.Inventory, error)
	// DecrementStock removes qty units only if at least qty are in stock.
	DecrementStock(ctx context.Context, id string, qty int) (*models.Inventory, error)
	IncrementStock(ctx context.Context, id string, qty int) (*models.Inventory, error)
}

// StockRequestFilter narrows stock request queries.
type StockRequestFilter struct {
	RequestedBy string
	Status      models.StockRequestStatus
}

// StockRequestPatch lists the admin fields a stock request transition may set.
type StockRequestPatch struct {
	AdminNotes  *string
	ReviewedBy  *string
	FulfilledAt *time.Time
}

// StockRequestCollection defines the interface for stock request data operations.
type StockRequestCollection interface {
	InsertStockRequest(ctx context.Context, request *models.StockRequest) error
	FindStockRequestByID(ctx context.Context, id string) (*models.StockRequest, error)
	FindStockRequests(ctx context.Context, filter StockRequestFilter) ([]models.StockRequest, error)
	TransitionStockRequest(ctx context.Context, id string, from, to models.StockRequestStatus, patch StockRequestPatch) (*models.StockRequest, error)
}

// TeamMemberFilter narrows team member queries.
type TeamMemberFilter struct {
	ServiceCenterID string
	Role            models.TeamRole
}

// TeamMemberCollection defines the interface for team member data operations.
type TeamMemberCollection interface {
	InsertTeamMember(ctx context.Context, member *models.TeamMember) error
	FindTeamMemberByID(ctx context.Context, id string) (*models.TeamMember, error)
	FindTeamMembers(ctx context.Context, filter TeamMemberFilter) ([]models.TeamMember, error)
	UpdateTeamMemberStatus(ctx context.Context, id string, status models.TeamMemberStatus) (*models.TeamMember, error)
}

// PerformanceCollection defines the interface for mechanic performance
// aggregates. Every write is a single atomic upsert keyed by
// (mechanicID, serviceCenterID).
type PerformanceCollection interface {
	EnsurePerformance(ctx context.Context, mechanicID, serviceCenterID string) error
	IncrementCompletion(ctx context.Context, mechanicID, serviceCenterID string, delta models.CompletionDelta) (*models.MechanicPerformance, error)
	IncrementRating(ctx context.Context, mechanicID, serviceCenterID string, rating int) (*models.MechanicPerformance, error)
	FindPerformance(ctx context.Context, mechanicID, serviceCenterID string) (*models.MechanicPerformance, error)
	FindPerformances(ctx context.Context, serviceCenterID string) ([]models.MechanicPerformance, error)
}

// ReviewFilter narrows review queries.
type ReviewFilter struct {
	ServiceCenterID string
	MechanicID      string
	CustomerID      string
}

// ReviewCollection defines the interface for review data operations.
type ReviewCollection interface {
	InsertReview(ctx context.Context, review *models.Review) error
	FindReviews(ctx context.Context, filter ReviewFilter) ([]models.Review, error)
}

// SequenceCollection hands out monotonically increasing numbers per key.
type SequenceCollection interface {
	NextSequence(ctx context.Context, key string) (int64, error)
}

// Store bundles every collection the service layer needs.
type Store struct {
	Users         UserCollection
	Vehicles      VehicleCollection
	Bookings      BookingCollection
	JobCards      JobCardCollection
	Invoices      InvoiceCollection
	Inventory     InventoryCollection
	StockRequests StockRequestCollection
	TeamMembers   TeamMemberCollection
	Performance   PerformanceCollection
	Reviews       ReviewCollection
	Sequences     SequenceCollection
	Tx            Transactor
}
