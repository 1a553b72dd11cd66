package service

import (
	"context"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/service-center/internal/db"
	"github.com/ukydev/service-center/internal/models"
)

// PerformanceReport is a performance record with its derived rates.
type PerformanceReport struct {
	models.MechanicPerformance
	MechanicName     string  `json:"mechanic_name,omitempty"`
	OnTimeRate       float64 `json:"on_time_rate"`
	SatisfactionRate float64 `json:"satisfaction_rate"`
}

func newReport(p models.MechanicPerformance, name string) PerformanceReport {
	return PerformanceReport{
		MechanicPerformance: p,
		MechanicName:        name,
		OnTimeRate:          cents(decimal.NewFromFloat(p.OnTimeRate())),
		SatisfactionRate:    cents(decimal.NewFromFloat(p.SatisfactionRate())),
	}
}

// CompletionDeltaFor is what a completed job card adds to its assigned
// mechanic's record: the actual hours of the completed tasks the mechanic
// worked, and how many of them finished within their estimate.
func CompletionDeltaFor(jc *models.JobCard) models.CompletionDelta {
	var delta models.CompletionDelta
	hours := decimal.Zero
	for _, task := range jc.LaborTasks {
		if !task.Completed || task.TechnicianID != jc.AssignedMechanic {
			continue
		}
		hours = hours.Add(money(task.ActualHours))
		if task.ActualHours <= task.Hours {
			delta.OnTimeJobs++
		}
	}
	delta.Hours = cents(hours)
	return delta
}

// applyCompletion folds a completed job card into the mechanic's record.
// It never fails the completion; problems are logged.
func (s *Service) applyCompletion(ctx context.Context, jc *models.JobCard) {
	logger := s.log.WithFields(log.Fields{
		"job_card_id": jc.ID.Hex(),
		"mechanic_id": jc.AssignedMechanic,
	})
	if jc.AssignedMechanic == "" {
		logger.Debug("Job card has no mechanic, skipping performance update")
		return
	}
	if _, err := s.store.TeamMembers.FindTeamMemberByID(ctx, jc.AssignedMechanic); err != nil {
		logger.WithError(err).Warn("Mechanic not found, skipping performance update")
		return
	}
	if _, err := s.store.Performance.IncrementCompletion(ctx, jc.AssignedMechanic, jc.ServiceCenterID, CompletionDeltaFor(jc)); err != nil {
		logger.WithError(err).Warn("Failed to update mechanic performance")
	}
}

// applyRating folds a review into the reviewed mechanic's record.
func (s *Service) applyRating(ctx context.Context, review *models.Review) {
	if review.MechanicID == "" {
		return
	}
	if _, err := s.store.Performance.IncrementRating(ctx, review.MechanicID, review.ServiceCenterID, review.Rating); err != nil {
		s.log.WithError(err).WithFields(log.Fields{
			"review_id":   review.ID.Hex(),
			"mechanic_id": review.MechanicID,
		}).Warn("Failed to apply rating to mechanic performance")
	}
}

// GetMechanicPerformance returns one mechanic's record.
func (s *Service) GetMechanicPerformance(ctx context.Context, actor Actor, mechanicID string) (*PerformanceReport, error) {
	member, err := s.store.TeamMembers.FindTeamMemberByID(ctx, mechanicID)
	if err != nil {
		return nil, err
	}
	if err := manageCenter(actor, member.ServiceCenterID); err != nil {
		return nil, err
	}
	perf, err := s.store.Performance.FindPerformance(ctx, mechanicID, member.ServiceCenterID)
	if err != nil {
		return nil, err
	}
	report := newReport(*perf, member.Name)
	return &report, nil
}

// ListMechanicPerformance lists the records of a service center, best rated first.
func (s *Service) ListMechanicPerformance(ctx context.Context, actor Actor, serviceCenterID string) ([]PerformanceReport, error) {
	scope, err := centerScope(actor, serviceCenterID)
	if err != nil {
		return nil, err
	}
	perfs, err := s.store.Performance.FindPerformances(ctx, scope)
	if err != nil {
		return nil, err
	}
	members, err := s.store.TeamMembers.FindTeamMembers(ctx, db.TeamMemberFilter{ServiceCenterID: scope})
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(members))
	for _, m := range members {
		names[m.ID.Hex()] = m.Name
	}
	reports := make([]PerformanceReport, 0, len(perfs))
	for _, p := range perfs {
		reports = append(reports, newReport(p, names[p.MechanicID]))
	}
	return reports, nil
}
