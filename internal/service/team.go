package service

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/service-center/internal/db"
	"github.com/ukydev/service-center/internal/models"
)

// TeamMemberInput adds a staff member.
type TeamMemberInput struct {
	Name            string          `json:"name" validate:"required,max=100"`
	Email           string          `json:"email" validate:"omitempty,email"`
	Phone           string          `json:"phone" validate:"omitempty,phone"`
	Role            models.TeamRole `json:"role" validate:"required,oneof=mechanic technician service_advisor manager"`
	HourlyRate      float64         `json:"hourly_rate" validate:"gte=0"`
	Specializations []string        `json:"specializations" validate:"dive,max=100"`
	ServiceCenterID string          `json:"service_center_id"`
}

// TeamMemberStatusInput changes a member's status.
type TeamMemberStatusInput struct {
	Status models.TeamMemberStatus `json:"status" validate:"required,oneof=active inactive on_leave"`
}

// TeamMemberQuery narrows ListTeamMembers.
type TeamMemberQuery struct {
	Role            models.TeamRole
	ServiceCenterID string
}

// CreateTeamMember adds an active staff member. Mechanics get a zeroed
// performance record.
func (s *Service) CreateTeamMember(ctx context.Context, actor Actor, in TeamMemberInput) (*models.TeamMember, error) {
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
	member := &models.TeamMember{
		ServiceCenterID: serviceCenterID,
		Name:            in.Name,
		Email:           in.Email,
		Phone:           in.Phone,
		Role:            in.Role,
		HourlyRate:      in.HourlyRate,
		Specializations: in.Specializations,
		Status:          models.TeamMemberActive,
	}
	if err := s.store.TeamMembers.InsertTeamMember(ctx, member); err != nil {
		return nil, errors.Wrap(err, "failed to add team member")
	}
	if member.Role == models.TeamRoleMechanic {
		if err := s.store.Performance.EnsurePerformance(ctx, member.ID.Hex(), serviceCenterID); err != nil {
			s.log.WithError(err).WithFields(log.Fields{
				"mechanic_id":       member.ID.Hex(),
				"service_center_id": serviceCenterID,
			}).Warn("Failed to provision mechanic performance record")
		}
	}
	return member, nil
}

// ListTeamMembers lists a service center's staff.
func (s *Service) ListTeamMembers(ctx context.Context, actor Actor, q TeamMemberQuery) ([]models.TeamMember, error) {
	scope, err := centerScope(actor, q.ServiceCenterID)
	if err != nil {
		return nil, err
	}
	return s.store.TeamMembers.FindTeamMembers(ctx, db.TeamMemberFilter{ServiceCenterID: scope, Role: q.Role})
}

// SetTeamMemberStatus changes a member's status.
func (s *Service) SetTeamMemberStatus(ctx context.Context, actor Actor, id string, in TeamMemberStatusInput) (*models.TeamMember, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}
	member, err := s.store.TeamMembers.FindTeamMemberByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := manageCenter(actor, member.ServiceCenterID); err != nil {
		return nil, err
	}
	return s.store.TeamMembers.UpdateTeamMemberStatus(ctx, id, in.Status)
}
