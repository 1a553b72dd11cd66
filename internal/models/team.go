package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TeamRole is a staff role at a service center.
type TeamRole string

const (
	TeamRoleMechanic       TeamRole = "mechanic"
	TeamRoleTechnician     TeamRole = "technician"
	TeamRoleServiceAdvisor TeamRole = "service_advisor"
	TeamRoleManager        TeamRole = "manager"
)

// TeamMemberStatus is the employment status of a team member.
type TeamMemberStatus string

const (
	TeamMemberActive   TeamMemberStatus = "active"
	TeamMemberInactive TeamMemberStatus = "inactive"
	TeamMemberOnLeave  TeamMemberStatus = "on_leave"
)

// TeamMember is a staff member of a service center.
type TeamMember struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ServiceCenterID string             `json:"service_center_id" bson:"service_center_id"`
	Name            string             `json:"name" bson:"name"`
	Email           string             `json:"email,omitempty" bson:"email,omitempty"`
	Phone           string             `json:"phone,omitempty" bson:"phone,omitempty"`
	Role            TeamRole           `json:"role" bson:"role"`
	HourlyRate      float64            `json:"hourly_rate" bson:"hourly_rate"`
	Specializations []string           `json:"specializations,omitempty" bson:"specializations,omitempty"`
	Status          TeamMemberStatus   `json:"status" bson:"status"`
	CreatedAt       time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at" bson:"updated_at"`
}

// IsActiveMechanic reports whether the member can be assigned to a job card.
func (m TeamMember) IsActiveMechanic() bool {
	return m.Role == TeamRoleMechanic && m.Status == TeamMemberActive
}
