package service

import (
	"context"

	"github.com/pkg/errors"
	"github.com/ukydev/service-center/internal/db"
	"github.com/ukydev/service-center/internal/events"
	"github.com/ukydev/service-center/internal/models"
)

// ReviewInput rates a paid booking.
type ReviewInput struct {
	BookingID  string `json:"booking_id" validate:"required"`
	Rating     int    `json:"rating" validate:"required,min=1,max=5"`
	Comment    string `json:"comment" validate:"max=1000"`
	MechanicID string `json:"mechanic_id"`
}

// ReviewQuery narrows ListReviews.
type ReviewQuery struct {
	ServiceCenterID string
	MechanicID      string
}

// CreateReview records the customer's review of a paid booking and folds
// the rating into the mechanic's performance record.
func (s *Service) CreateReview(ctx context.Context, actor Actor, in ReviewInput) (*models.Review, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}
	booking, err := s.store.Bookings.FindBookingByID(ctx, in.BookingID)
	if err != nil {
		return nil, err
	}
	if !actor.isAdmin() && (actor.Role != models.RoleCustomer || booking.CustomerID != actor.ID) {
		return nil, errors.Wrap(ErrForbidden, "only the booking's customer may review it")
	}
	if booking.Status != models.BookingPaid {
		return nil, errors.Wrapf(ErrInvalidState, "booking is %s, only paid bookings can be reviewed", booking.Status)
	}
	mechanic := booking.AssignedMechanic
	if in.MechanicID != "" && in.MechanicID != mechanic {
		member, err := s.store.TeamMembers.FindTeamMemberByID(ctx, in.MechanicID)
		if err != nil && !errors.Is(err, db.ErrNotFound) {
			return nil, err
		}
		if err != nil || member.ServiceCenterID != booking.ServiceCenterID {
			return nil, invalidField("mechanic_id", "must reference a team member of the service center")
		}
		mechanic = in.MechanicID
	}

	review := &models.Review{
		BookingID:       in.BookingID,
		CustomerID:      booking.CustomerID,
		ServiceCenterID: booking.ServiceCenterID,
		VehicleID:       booking.VehicleID,
		MechanicID:      mechanic,
		Rating:          in.Rating,
		Comment:         in.Comment,
	}
	if err := s.store.Reviews.InsertReview(ctx, review); err != nil {
		return nil, errors.Wrap(err, "failed to create review")
	}
	s.applyRating(ctx, review)
	s.publish(ctx, events.ReviewCreated, review.ID.Hex(), review.ServiceCenterID, review)
	return review, nil
}

// ListReviews lists reviews. Customers see their own unless they ask for a
// service center; service centers see theirs.
func (s *Service) ListReviews(ctx context.Context, actor Actor, q ReviewQuery) ([]models.Review, error) {
	filter := db.ReviewFilter{ServiceCenterID: q.ServiceCenterID, MechanicID: q.MechanicID}
	switch actor.Role {
	case models.RoleCustomer:
		if q.ServiceCenterID == "" {
			filter.CustomerID = actor.ID
		}
	case models.RoleServiceCenter:
		filter.ServiceCenterID = actor.ID
	case models.RoleAdmin:
	default:
		return nil, ErrForbidden
	}
	return s.store.Reviews.FindReviews(ctx, filter)
}
