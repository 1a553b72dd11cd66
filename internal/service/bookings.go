package service

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/ukydev/service-center/internal/db"
	"github.com/ukydev/service-center/internal/events"
	"github.com/ukydev/service-center/internal/models"
)

// CreateBookingInput is a customer's service request.
type CreateBookingInput struct {
	VehicleID       string    `json:"vehicle_id" validate:"required"`
	ServiceCenterID string    `json:"service_center_id" validate:"required"`
	ServiceType     string    `json:"service_type" validate:"required,max=100"`
	Description     string    `json:"description" validate:"max=1000"`
	PreferredDate   time.Time `json:"preferred_date"`
	EstimatedCost   float64   `json:"estimated_cost" validate:"gte=0"`
}

// ApproveBookingInput carries the optional scheduling details set on approval.
type ApproveBookingInput struct {
	ScheduledDate    *time.Time `json:"scheduled_date"`
	AssignedMechanic string     `json:"assigned_mechanic"`
	EstimatedCost    *float64   `json:"estimated_cost" validate:"omitempty,gte=0"`
}

// UpdateBookingInput is the service center PATCH body. A status of
// confirmed approves and cancelled cancels; other statuses are driven by the
// job card and invoice operations and are rejected.
type UpdateBookingInput struct {
	Status           models.BookingStatus `json:"status"`
	ScheduledDate    *time.Time           `json:"scheduled_date"`
	AssignedMechanic string               `json:"assigned_mechanic"`
	EstimatedCost    *float64             `json:"estimated_cost" validate:"omitempty,gte=0"`
	CancelReason     string               `json:"cancel_reason" validate:"max=500"`
}

// BookingQuery narrows ListBookings.
type BookingQuery struct {
	Status          models.BookingStatus
	ServiceCenterID string
}

// CreateBooking opens a pending booking for the caller's vehicle.
func (s *Service) CreateBooking(ctx context.Context, actor Actor, in CreateBookingInput) (*models.Booking, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}
	if in.PreferredDate.IsZero() {
		return nil, invalidField("preferred_date", "is required")
	}
	today := startOfDay(s.now().In(in.PreferredDate.Location()))
	if in.PreferredDate.Before(today) {
		return nil, invalidField("preferred_date", "must not be in the past")
	}
	if actor.Role != models.RoleCustomer && !actor.isAdmin() {
		return nil, errors.Wrap(ErrForbidden, "only customers create bookings")
	}

	vehicle, err := s.store.Vehicles.FindVehicleByID(ctx, in.VehicleID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load vehicle")
	}
	if !actor.isAdmin() && vehicle.OwnerID != actor.ID {
		return nil, errors.Wrap(ErrForbidden, "vehicle belongs to another customer")
	}
	center, err := s.store.Users.FindUserByID(ctx, in.ServiceCenterID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load service center")
	}
	if center.Role != models.RoleServiceCenter || !center.IsActive {
		return nil, errors.Wrapf(db.ErrNotFound, "service center %s", in.ServiceCenterID)
	}

	booking := &models.Booking{
		CustomerID:      vehicle.OwnerID,
		VehicleID:       in.VehicleID,
		ServiceCenterID: in.ServiceCenterID,
		ServiceType:     in.ServiceType,
		Description:     in.Description,
		PreferredDate:   in.PreferredDate,
		Status:          models.BookingPending,
		EstimatedCost:   in.EstimatedCost,
	}
	if err := s.store.Bookings.InsertBooking(ctx, booking); err != nil {
		return nil, errors.Wrap(err, "failed to create booking")
	}
	s.publish(ctx, events.BookingCreated, booking.ID.Hex(), booking.ServiceCenterID, booking)
	return booking, nil
}

// GetBooking returns a booking the caller is a party to.
func (s *Service) GetBooking(ctx context.Context, actor Actor, id string) (*models.Booking, error) {
	booking, err := s.store.Bookings.FindBookingByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := viewParty(actor, booking.CustomerID, booking.ServiceCenterID); err != nil {
		return nil, err
	}
	return booking, nil
}

// ListBookings lists the bookings visible to the caller.
func (s *Service) ListBookings(ctx context.Context, actor Actor, q BookingQuery) ([]models.Booking, error) {
	filter := db.BookingFilter{Status: q.Status}
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
	return s.store.Bookings.FindBookings(ctx, filter)
}

// ApproveBooking confirms a pending booking.
func (s *Service) ApproveBooking(ctx context.Context, actor Actor, id string, in ApproveBookingInput) (*models.Booking, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}
	booking, err := s.store.Bookings.FindBookingByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := manageCenter(actor, booking.ServiceCenterID); err != nil {
		return nil, err
	}
	patch := db.BookingPatch{ScheduledDate: in.ScheduledDate, EstimatedCost: in.EstimatedCost}
	if in.AssignedMechanic != "" {
		if err := s.checkMechanic(ctx, booking.ServiceCenterID, in.AssignedMechanic); err != nil {
			return nil, err
		}
		patch.AssignedMechanic = &in.AssignedMechanic
	}
	updated, err := s.transitionBooking(ctx, booking, models.BookingConfirmed, patch)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.BookingConfirmed, id, updated.ServiceCenterID, updated)
	return updated, nil
}

// CancelBooking cancels a pending or confirmed booking. Customers may only
// cancel their own bookings while they are still pending.
func (s *Service) CancelBooking(ctx context.Context, actor Actor, id, reason string) (*models.Booking, error) {
	booking, err := s.store.Bookings.FindBookingByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role == models.RoleCustomer {
		if booking.CustomerID != actor.ID {
			return nil, errors.Wrap(ErrForbidden, "booking belongs to another customer")
		}
		if booking.Status != models.BookingPending {
			return nil, errors.Wrapf(ErrInvalidState, "only pending bookings can be cancelled by the customer, booking is %s", booking.Status)
		}
	} else if err := manageCenter(actor, booking.ServiceCenterID); err != nil {
		return nil, err
	}
	patch := db.BookingPatch{}
	if reason != "" {
		patch.CancelReason = &reason
	}
	updated, err := s.transitionBooking(ctx, booking, models.BookingCancelled, patch)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.BookingCancelled, id, updated.ServiceCenterID, updated)
	return updated, nil
}

// UpdateBooking applies a service center PATCH.
func (s *Service) UpdateBooking(ctx context.Context, actor Actor, id string, in UpdateBookingInput) (*models.Booking, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}
	switch in.Status {
	case models.BookingConfirmed:
		return s.ApproveBooking(ctx, actor, id, ApproveBookingInput{
			ScheduledDate:    in.ScheduledDate,
			AssignedMechanic: in.AssignedMechanic,
			EstimatedCost:    in.EstimatedCost,
		})
	case models.BookingCancelled:
		return s.CancelBooking(ctx, actor, id, in.CancelReason)
	case "":
	default:
		if !in.Status.IsValid() {
			return nil, invalidField("status", "is not a known booking status")
		}
		booking, err := s.store.Bookings.FindBookingByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := manageCenter(actor, booking.ServiceCenterID); err != nil {
			return nil, err
		}
		if !booking.Status.CanTransitionTo(in.Status) {
			return nil, invalidTransition("booking", booking.Status, in.Status)
		}
		return nil, errors.Wrapf(ErrInvalidState, "booking status %s is set by the job card and invoice operations", in.Status)
	}

	booking, err := s.store.Bookings.FindBookingByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := manageCenter(actor, booking.ServiceCenterID); err != nil {
		return nil, err
	}
	if booking.Status.IsTerminal() {
		return nil, errors.Wrapf(ErrInvalidState, "booking is %s", booking.Status)
	}
	patch := db.BookingPatch{ScheduledDate: in.ScheduledDate, EstimatedCost: in.EstimatedCost}
	if in.AssignedMechanic != "" {
		if err := s.checkMechanic(ctx, booking.ServiceCenterID, in.AssignedMechanic); err != nil {
			return nil, err
		}
		patch.AssignedMechanic = &in.AssignedMechanic
	}
	return s.store.Bookings.UpdateBooking(ctx, id, patch)
}

// transitionBooking moves b to the next status with a conditional write.
func (s *Service) transitionBooking(ctx context.Context, b *models.Booking, to models.BookingStatus, patch db.BookingPatch) (*models.Booking, error) {
	if !b.Status.CanTransitionTo(to) {
		return nil, invalidTransition("booking", b.Status, to)
	}
	id := b.ID.Hex()
	updated, err := s.store.Bookings.TransitionBooking(ctx, id, b.Status, to, patch)
	if err != nil {
		return nil, staleStatus("booking", id, err)
	}
	return updated, nil
}

// checkMechanic requires mechanicID to be an active mechanic of the service center.
func (s *Service) checkMechanic(ctx context.Context, serviceCenterID, mechanicID string) error {
	member, err := s.store.TeamMembers.FindTeamMemberByID(ctx, mechanicID)
	if errors.Is(err, db.ErrNotFound) {
		return invalidField("assigned_mechanic", "must reference an active mechanic")
	}
	if err != nil {
		return err
	}
	if member.ServiceCenterID != serviceCenterID || !member.IsActiveMechanic() {
		return invalidField("assigned_mechanic", "must reference an active mechanic")
	}
	return nil
}
