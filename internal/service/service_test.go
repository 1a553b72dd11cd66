package service

import (
	"context"
	"io"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/service-center/internal/db"
	"github.com/ukydev/service-center/internal/events"
	"github.com/ukydev/service-center/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fixture is a service over an in-memory store with one customer, one
// service center, a vehicle and an active mechanic.
type fixture struct {
	svc      *Service
	mem      *db.MemoryStore
	events   *events.Recorder
	clock    time.Time
	admin    Actor
	center   Actor
	customer Actor
	vehicle  *models.Vehicle
	mechanic *models.TeamMember
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	logger := log.New()
	logger.SetOutput(io.Discard)

	f := &fixture{
		mem:    db.NewMemoryStore(),
		events: &events.Recorder{},
		clock:  time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
	}
	f.svc = New(f.mem.Store(), f.events, logger, Config{TaxRate: 0.10})
	f.svc.now = func() time.Time { return f.clock }

	f.admin = Actor{ID: primitive.NewObjectID().Hex(), Role: models.RoleAdmin}
	f.center = f.addUser(t, models.RoleServiceCenter, "center")
	f.customer = f.addUser(t, models.RoleCustomer, "customer")

	var err error
	f.vehicle, err = f.svc.CreateVehicle(ctx, f.customer, VehicleInput{
		Make: "Toyota", Model: "Corolla", Year: 2021, VIN: "JTDBR32E720123456", LicensePlate: "ab-123",
	})
	require.NoError(t, err)
	f.mechanic, err = f.svc.CreateTeamMember(ctx, f.center, TeamMemberInput{
		Name: "Mia Mechanic", Role: models.TeamRoleMechanic, HourlyRate: 50,
	})
	require.NoError(t, err)
	return f
}

func (f *fixture) addUser(t *testing.T, role models.Role, name string) Actor {
	t.Helper()
	user := models.User{
		ID:       primitive.NewObjectID(),
		Username: name,
		Email:    name + "@example.com",
		Role:     role,
	}
	require.NoError(t, f.mem.InsertUser(context.Background(), user))
	return Actor{ID: user.ID.Hex(), Role: role}
}

func (f *fixture) advance(d time.Duration) { f.clock = f.clock.Add(d) }

// pendingBooking creates a booking for tomorrow.
func (f *fixture) pendingBooking(t *testing.T) *models.Booking {
	t.Helper()
	b, err := f.svc.CreateBooking(context.Background(), f.customer, CreateBookingInput{
		VehicleID:       f.vehicle.ID.Hex(),
		ServiceCenterID: f.center.ID,
		ServiceType:     "oil_change",
		PreferredDate:   f.clock.Add(24 * time.Hour),
	})
	require.NoError(t, err)
	return b
}

// jobCardInProgress walks a new booking to an in-progress job card
// assigned to the fixture mechanic.
func (f *fixture) jobCardInProgress(t *testing.T) *models.JobCard {
	t.Helper()
	ctx := context.Background()
	b := f.pendingBooking(t)
	_, err := f.svc.ApproveBooking(ctx, f.center, b.ID.Hex(), ApproveBookingInput{AssignedMechanic: f.mechanic.ID.Hex()})
	require.NoError(t, err)
	jc, err := f.svc.CreateJobCard(ctx, f.center, CreateJobCardInput{BookingID: b.ID.Hex()})
	require.NoError(t, err)
	jc, err = f.svc.StartService(ctx, f.center, jc.ID.Hex())
	require.NoError(t, err)
	return jc
}

func (f *fixture) booking(t *testing.T, id string) *models.Booking {
	t.Helper()
	b, err := f.mem.FindBookingByID(context.Background(), id)
	require.NoError(t, err)
	return b
}

func (f *fixture) stock(t *testing.T, id string) int {
	t.Helper()
	item, err := f.mem.FindInventoryByID(context.Background(), id)
	require.NoError(t, err)
	return item.CurrentStock
}
