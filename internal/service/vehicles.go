package service

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/ukydev/service-center/internal/db"
	"github.com/ukydev/service-center/internal/models"
)

// VehicleInput registers a customer vehicle.
type VehicleInput struct {
	Make         string  `json:"make" validate:"required,max=50"`
	Model        string  `json:"model" validate:"required,max=50"`
	Year         int     `json:"year" validate:"required,gte=1900,lte=2100"`
	VIN          string  `json:"vin" validate:"required,vin"`
	LicensePlate string  `json:"license_plate" validate:"required,max=20"`
	Mileage      float64 `json:"mileage" validate:"gte=0"`
	FuelType     string  `json:"fuel_type" validate:"omitempty,oneof=petrol diesel electric hybrid cng"`
	OwnerID      string  `json:"owner_id"`
}

// CreateVehicle registers a vehicle for the calling customer. Admins may
// register on behalf of OwnerID.
func (s *Service) CreateVehicle(ctx context.Context, actor Actor, in VehicleInput) (*models.Vehicle, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}
	owner := actor.ID
	switch {
	case actor.isAdmin() && in.OwnerID != "":
		owner = in.OwnerID
	case actor.Role != models.RoleCustomer && !actor.isAdmin():
		return nil, errors.Wrap(ErrForbidden, "only customers register vehicles")
	}
	vehicle := &models.Vehicle{
		OwnerID:      owner,
		Make:         in.Make,
		Model:        in.Model,
		Year:         in.Year,
		VIN:          strings.ToUpper(in.VIN),
		LicensePlate: strings.ToUpper(in.LicensePlate),
		Mileage:      in.Mileage,
		FuelType:     in.FuelType,
	}
	if err := s.store.Vehicles.InsertVehicle(ctx, vehicle); err != nil {
		return nil, errors.Wrap(err, "failed to register vehicle")
	}
	return vehicle, nil
}

// GetVehicle returns a vehicle visible to actor.
func (s *Service) GetVehicle(ctx context.Context, actor Actor, id string) (*models.Vehicle, error) {
	vehicle, err := s.store.Vehicles.FindVehicleByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role == models.RoleCustomer && vehicle.OwnerID != actor.ID {
		return nil, errors.Wrap(ErrForbidden, "vehicle belongs to another customer")
	}
	return vehicle, nil
}

// ListVehicles lists the caller's vehicles, or every vehicle for staff.
func (s *Service) ListVehicles(ctx context.Context, actor Actor) ([]models.Vehicle, error) {
	owner := ""
	if actor.Role == models.RoleCustomer {
		owner = actor.ID
	}
	return s.store.Vehicles.FindVehicles(ctx, owner)
}

// UpdateVehicle replaces the editable fields of a vehicle the caller owns.
func (s *Service) UpdateVehicle(ctx context.Context, actor Actor, id string, in VehicleInput) (*models.Vehicle, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}
	vehicle, err := s.GetVehicle(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	vehicle.Make = in.Make
	vehicle.Model = in.Model
	vehicle.Year = in.Year
	vehicle.VIN = strings.ToUpper(in.VIN)
	vehicle.LicensePlate = strings.ToUpper(in.LicensePlate)
	vehicle.Mileage = in.Mileage
	vehicle.FuelType = in.FuelType
	if err := s.store.Vehicles.UpdateVehicle(ctx, id, *vehicle); err != nil {
		return nil, errors.Wrap(err, "failed to update vehicle")
	}
	return s.store.Vehicles.FindVehicleByID(ctx, id)
}

// DeleteVehicle removes a vehicle that has no open bookings.
func (s *Service) DeleteVehicle(ctx context.Context, actor Actor, id string) error {
	vehicle, err := s.GetVehicle(ctx, actor, id)
	if err != nil {
		return err
	}
	bookings, err := s.store.Bookings.FindBookings(ctx, db.BookingFilter{CustomerID: vehicle.OwnerID})
	if err != nil {
		return err
	}
	for _, b := range bookings {
		if b.VehicleID == id && !b.Status.IsTerminal() {
			return errors.Wrapf(ErrInvalidState, "vehicle has an open booking %s", b.ID.Hex())
		}
	}
	return s.store.Vehicles.DeleteVehicle(ctx, id)
}
