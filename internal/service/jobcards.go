package service

import (
	"context"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/service-center/internal/db"
	"github.com/ukydev/service-center/internal/events"
	"github.com/ukydev/service-center/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LaborTaskInput adds a unit of work to a job card.
type LaborTaskInput struct {
	Task         string  `json:"task" validate:"required,max=200"`
	Hours        float64 `json:"hours" validate:"gt=0"`
	HourlyRate   float64 `json:"hourly_rate" validate:"gte=0"`
	TechnicianID string  `json:"technician_id"`
}

// CreateJobCardInput opens a job card for a confirmed booking.
type CreateJobCardInput struct {
	BookingID        string           `json:"booking_id" validate:"required"`
	AssignedMechanic string           `json:"assigned_mechanic"`
	LaborTasks       []LaborTaskInput `json:"labor_tasks" validate:"dive"`
	Notes            string           `json:"notes" validate:"max=2000"`
}

// SparePartInput consumes a part. With InventoryID set the stock is
// reserved and name and price default to the inventory item.
type SparePartInput struct {
	InventoryID string   `json:"inventory_id"`
	PartName    string   `json:"part_name" validate:"max=200"`
	Quantity    int      `json:"quantity" validate:"required,gt=0"`
	UnitPrice   *float64 `json:"unit_price" validate:"omitempty,gte=0"`
}

// ProgressInput reports work progress.
type ProgressInput struct {
	Progress int    `json:"progress" validate:"gte=0,lte=100"`
	Message  string `json:"message" validate:"max=500"`
}

// ClockInput names who is working on a labor task.
type ClockInput struct {
	TechnicianID string `json:"technician_id"`
}

// PhotoInput references an uploaded inspection photo.
type PhotoInput struct {
	URL     string `json:"url" validate:"required,url"`
	Caption string `json:"caption" validate:"max=200"`
}

// CommunicationInput is a message on a job card.
type CommunicationInput struct {
	Message string `json:"message" validate:"required,max=2000"`
}

// JobCardQuery narrows ListJobCards.
type JobCardQuery struct {
	Status          models.JobCardStatus
	MechanicID      string
	ServiceCenterID string
}

func newItemID() string { return primitive.NewObjectID().Hex() }

func centerAccess(actor Actor) func(*models.JobCard) error {
	return func(jc *models.JobCard) error { return manageCenter(actor, jc.ServiceCenterID) }
}

func partyAccess(actor Actor) func(*models.JobCard) error {
	return func(jc *models.JobCard) error { return viewParty(actor, jc.CustomerID, jc.ServiceCenterID) }
}

func notCompleted(jc *models.JobCard) error {
	if jc.Status == models.JobCardCompleted {
		return errors.Wrapf(ErrInvalidState, "job card %s is completed", jc.JobCardNumber)
	}
	return nil
}

// mutateJobCard loads the job card, applies fn, recomputes totals and writes
// it back under the version check, all in one transaction. A lost version
// race replays the whole transaction.
func (s *Service) mutateJobCard(ctx context.Context, id string, authorize func(*models.JobCard) error, fn func(ctx context.Context, jc *models.JobCard) error) (*models.JobCard, error) {
	var lastErr error
	for attempt := 1; attempt <= maxVersionRetries; attempt++ {
		var out *models.JobCard
		err := s.store.Tx.WithTransaction(ctx, func(ctx context.Context) error {
			jc, err := s.store.JobCards.FindJobCardByID(ctx, id)
			if err != nil {
				return err
			}
			if err := authorize(jc); err != nil {
				return err
			}
			if err := fn(ctx, jc); err != nil {
				return err
			}
			RecomputeJobCardTotals(jc)
			if err := s.store.JobCards.ReplaceJobCard(ctx, jc); err != nil {
				return err
			}
			out = jc
			return nil
		})
		if !errors.Is(err, db.ErrVersionConflict) {
			return out, err
		}
		lastErr = err
		s.log.WithFields(log.Fields{"job_card_id": id, "attempt": attempt}).Debug("Job card version conflict, retrying")
	}
	return nil, errors.Wrapf(lastErr, "job card %s kept changing", id)
}

// CreateJobCard opens a job card for a confirmed booking and moves the
// booking to job_card_created.
func (s *Service) CreateJobCard(ctx context.Context, actor Actor, in CreateJobCardInput) (*models.JobCard, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}
	booking, err := s.store.Bookings.FindBookingByID(ctx, in.BookingID)
	if err != nil {
		return nil, err
	}
	if err := manageCenter(actor, booking.ServiceCenterID); err != nil {
		return nil, err
	}
	if booking.Status != models.BookingConfirmed {
		return nil, invalidTransition("booking", booking.Status, models.BookingJobCardCreated)
	}
	mechanic := in.AssignedMechanic
	if mechanic == "" {
		mechanic = booking.AssignedMechanic
	}
	if mechanic != "" {
		if err := s.checkMechanic(ctx, booking.ServiceCenterID, mechanic); err != nil {
			return nil, err
		}
	}

	tasks := make([]models.LaborTask, 0, len(in.LaborTasks))
	for _, t := range in.LaborTasks {
		tasks = append(tasks, models.LaborTask{
			ID:           newItemID(),
			Task:         t.Task,
			Hours:        t.Hours,
			HourlyRate:   t.HourlyRate,
			TechnicianID: t.TechnicianID,
		})
	}
	jc := &models.JobCard{
		JobCardNumber:    s.nextNumber(ctx, "JC", "jobcard"),
		BookingID:        in.BookingID,
		CustomerID:       booking.CustomerID,
		VehicleID:        booking.VehicleID,
		ServiceCenterID:  booking.ServiceCenterID,
		AssignedMechanic: mechanic,
		Status:           models.JobCardCreated,
		LaborTasks:       tasks,
		SpareParts:       []models.SparePart{},
		ProgressUpdates:  []models.ProgressUpdate{},
		InspectionPhotos: []models.InspectionPhoto{},
		Communications:   []models.Communication{},
		Notes:            in.Notes,
	}
	RecomputeJobCardTotals(jc)

	err = s.store.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.store.JobCards.InsertJobCard(ctx, jc); err != nil {
			return errors.Wrap(err, "failed to create job card")
		}
		jobCardID := jc.ID.Hex()
		patch := db.BookingPatch{JobCardID: &jobCardID}
		if mechanic != "" {
			patch.AssignedMechanic = &mechanic
		}
		_, err := s.transitionBooking(ctx, booking, models.BookingJobCardCreated, patch)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.JobCardCreated, jc.ID.Hex(), jc.ServiceCenterID, jc)
	return jc, nil
}

// GetJobCard returns a job card the caller is a party to.
func (s *Service) GetJobCard(ctx context.Context, actor Actor, id string) (*models.JobCard, error) {
	jc, err := s.store.JobCards.FindJobCardByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := viewParty(actor, jc.CustomerID, jc.ServiceCenterID); err != nil {
		return nil, err
	}
	return jc, nil
}

// ListJobCards lists the job cards visible to the caller.
func (s *Service) ListJobCards(ctx context.Context, actor Actor, q JobCardQuery) ([]models.JobCard, error) {
	filter := db.JobCardFilter{Status: q.Status, MechanicID: q.MechanicID}
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
	return s.store.JobCards.FindJobCards(ctx, filter)
}

// StartService moves the job card to in-progress and its booking to in_service.
func (s *Service) StartService(ctx context.Context, actor Actor, id string) (*models.JobCard, error) {
	jc, err := s.mutateJobCard(ctx, id, centerAccess(actor), func(ctx context.Context, jc *models.JobCard) error {
		if jc.Status != models.JobCardCreated {
			return invalidTransition("job card", jc.Status, models.JobCardInProgress)
		}
		booking, err := s.store.Bookings.FindBookingByID(ctx, jc.BookingID)
		if err != nil {
			return err
		}
		if _, err := s.transitionBooking(ctx, booking, models.BookingInService, db.BookingPatch{}); err != nil {
			return err
		}
		now := s.now()
		jc.Status = models.JobCardInProgress
		jc.StartedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.JobCardStarted, id, jc.ServiceCenterID, jc)
	return jc, nil
}

// CompleteService completes the job card, moves its booking to
// ready_for_billing and then updates the mechanic's performance record.
func (s *Service) CompleteService(ctx context.Context, actor Actor, id string) (*models.JobCard, error) {
	jc, err := s.mutateJobCard(ctx, id, centerAccess(actor), func(ctx context.Context, jc *models.JobCard) error {
		if jc.Status != models.JobCardInProgress {
			return invalidTransition("job card", jc.Status, models.JobCardCompleted)
		}
		booking, err := s.store.Bookings.FindBookingByID(ctx, jc.BookingID)
		if err != nil {
			return err
		}
		if _, err := s.transitionBooking(ctx, booking, models.BookingReadyForBilling, db.BookingPatch{}); err != nil {
			return err
		}
		now := s.now()
		for i := range jc.LaborTasks {
			if jc.LaborTasks[i].IsClockedIn() {
				clockOut(&jc.LaborTasks[i], now)
			}
		}
		jc.Status = models.JobCardCompleted
		jc.CompletedAt = &now
		jc.Progress = 100
		jc.ProgressUpdates = append(jc.ProgressUpdates, models.ProgressUpdate{
			Progress:  100,
			Message:   "Service completed",
			UpdatedBy: actor.ID,
			Timestamp: now,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.applyCompletion(ctx, jc)
	s.publish(ctx, events.JobCardCompleted, id, jc.ServiceCenterID, jc)
	return jc, nil
}

// UpdateProgress records a progress percentage and message.
func (s *Service) UpdateProgress(ctx context.Context, actor Actor, id string, in ProgressInput) (*models.JobCard, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}
	return s.mutateJobCard(ctx, id, centerAccess(actor), func(ctx context.Context, jc *models.JobCard) error {
		if err := notCompleted(jc); err != nil {
			return err
		}
		jc.Progress = in.Progress
		jc.ProgressUpdates = append(jc.ProgressUpdates, models.ProgressUpdate{
			Progress:  in.Progress,
			Message:   in.Message,
			UpdatedBy: actor.ID,
			Timestamp: s.now(),
		})
		return nil
	})
}

// AddLaborTask appends a labor task.
func (s *Service) AddLaborTask(ctx context.Context, actor Actor, id string, in LaborTaskInput) (*models.JobCard, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}
	return s.mutateJobCard(ctx, id, centerAccess(actor), func(ctx context.Context, jc *models.JobCard) error {
		if err := notCompleted(jc); err != nil {
			return err
		}
		jc.LaborTasks = append(jc.LaborTasks, models.LaborTask{
			ID:           newItemID(),
			Task:         in.Task,
			Hours:        in.Hours,
			HourlyRate:   in.HourlyRate,
			TechnicianID: in.TechnicianID,
		})
		return nil
	})
}

// RemoveLaborTask deletes a labor task.
func (s *Service) RemoveLaborTask(ctx context.Context, actor Actor, id, taskID string) (*models.JobCard, error) {
	return s.mutateJobCard(ctx, id, centerAccess(actor), func(ctx context.Context, jc *models.JobCard) error {
		if err := notCompleted(jc); err != nil {
			return err
		}
		i := jc.FindLaborTask(taskID)
		if i < 0 {
			return errors.Wrapf(db.ErrNotFound, "labor task %s", taskID)
		}
		jc.LaborTasks = append(jc.LaborTasks[:i], jc.LaborTasks[i+1:]...)
		return nil
	})
}

// ClockIn starts the clock on a labor task.
func (s *Service) ClockIn(ctx context.Context, actor Actor, id, taskID string, in ClockInput) (*models.JobCard, error) {
	return s.mutateJobCard(ctx, id, centerAccess(actor), func(ctx context.Context, jc *models.JobCard) error {
		if jc.Status != models.JobCardInProgress {
			return errors.Wrapf(ErrInvalidState, "clock-in requires an in-progress job card, job card is %s", jc.Status)
		}
		i := jc.FindLaborTask(taskID)
		if i < 0 {
			return errors.Wrapf(db.ErrNotFound, "labor task %s", taskID)
		}
		task := &jc.LaborTasks[i]
		if task.Completed {
			return errors.Wrapf(ErrInvalidState, "labor task %s is completed", taskID)
		}
		if task.IsClockedIn() {
			return errors.Wrapf(ErrInvalidState, "labor task %s is already clocked in", taskID)
		}
		if in.TechnicianID != "" {
			if err := s.checkTechnician(ctx, jc.ServiceCenterID, in.TechnicianID); err != nil {
				return err
			}
			task.TechnicianID = in.TechnicianID
		} else if task.TechnicianID == "" {
			task.TechnicianID = jc.AssignedMechanic
		}
		now := s.now()
		task.ClockIn = &now
		task.ClockOut = nil
		return nil
	})
}

// ClockOut stops the clock on a labor task and adds the elapsed time to
// its actual hours.
func (s *Service) ClockOut(ctx context.Context, actor Actor, id, taskID string) (*models.JobCard, error) {
	return s.mutateJobCard(ctx, id, centerAccess(actor), func(ctx context.Context, jc *models.JobCard) error {
		i := jc.FindLaborTask(taskID)
		if i < 0 {
			return errors.Wrapf(db.ErrNotFound, "labor task %s", taskID)
		}
		if !jc.LaborTasks[i].IsClockedIn() {
			return errors.Wrapf(ErrInvalidState, "labor task %s is not clocked in", taskID)
		}
		clockOut(&jc.LaborTasks[i], s.now())
		return nil
	})
}

// CompleteLaborTask marks a labor task done, closing an open clock first.
func (s *Service) CompleteLaborTask(ctx context.Context, actor Actor, id, taskID string) (*models.JobCard, error) {
	return s.mutateJobCard(ctx, id, centerAccess(actor), func(ctx context.Context, jc *models.JobCard) error {
		if err := notCompleted(jc); err != nil {
			return err
		}
		i := jc.FindLaborTask(taskID)
		if i < 0 {
			return errors.Wrapf(db.ErrNotFound, "labor task %s", taskID)
		}
		task := &jc.LaborTasks[i]
		if task.IsClockedIn() {
			clockOut(task, s.now())
		}
		if task.TechnicianID == "" {
			task.TechnicianID = jc.AssignedMechanic
		}
		task.Completed = true
		return nil
	})
}

func clockOut(task *models.LaborTask, at time.Time) {
	elapsed := at.Sub(*task.ClockIn).Hours()
	if elapsed < 0 {
		elapsed = 0
	}
	task.ActualHours = roundHours(task.ActualHours + elapsed)
	task.ClockOut = &at
}

// AddSparePart appends a part to the job card. Parts drawn from inventory
// decrement stock in the same transaction.
func (s *Service) AddSparePart(ctx context.Context, actor Actor, id string, in SparePartInput) (*models.JobCard, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}
	var lowStock *models.Inventory
	jc, err := s.mutateJobCard(ctx, id, centerAccess(actor), func(ctx context.Context, jc *models.JobCard) error {
		lowStock = nil
		if err := notCompleted(jc); err != nil {
			return err
		}
		part := models.SparePart{
			ID:          newItemID(),
			InventoryID: in.InventoryID,
			PartName:    in.PartName,
			Quantity:    in.Quantity,
		}
		var unitPrice float64
		if in.InventoryID != "" {
			item, err := s.store.Inventory.FindInventoryByID(ctx, in.InventoryID)
			if err != nil {
				return err
			}
			if item.ServiceCenterID != jc.ServiceCenterID {
				return errors.Wrap(ErrForbidden, "inventory item belongs to another service center")
			}
			updated, err := s.store.Inventory.DecrementStock(ctx, in.InventoryID, in.Quantity)
			if err != nil {
				return errors.Wrapf(err, "failed to take %d x %s from stock", in.Quantity, item.PartName)
			}
			if updated.IsLowStock() {
				lowStock = updated
			}
			if part.PartName == "" {
				part.PartName = item.PartName
			}
			unitPrice = item.UnitPrice
			if in.UnitPrice != nil {
				unitPrice = *in.UnitPrice
			}
		} else {
			if in.PartName == "" {
				return invalidField("part_name", "is required without inventory_id")
			}
			if in.UnitPrice == nil {
				return invalidField("unit_price", "is required without inventory_id")
			}
			unitPrice = *in.UnitPrice
		}
		part.UnitPrice = unitPrice
		part.TotalPrice = PartTotal(part.Quantity, unitPrice)
		jc.SpareParts = append(jc.SpareParts, part)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if lowStock != nil {
		s.publish(ctx, events.InventoryLowStock, lowStock.ID.Hex(), lowStock.ServiceCenterID, lowStock)
	}
	return jc, nil
}

// RemoveSparePart deletes a part and returns inventory parts to stock.
func (s *Service) RemoveSparePart(ctx context.Context, actor Actor, id, partID string) (*models.JobCard, error) {
	return s.mutateJobCard(ctx, id, centerAccess(actor), func(ctx context.Context, jc *models.JobCard) error {
		if err := notCompleted(jc); err != nil {
			return err
		}
		i := jc.FindSparePart(partID)
		if i < 0 {
			return errors.Wrapf(db.ErrNotFound, "spare part %s", partID)
		}
		part := jc.SpareParts[i]
		if part.InventoryID != "" {
			if _, err := s.store.Inventory.IncrementStock(ctx, part.InventoryID, part.Quantity); err != nil {
				return errors.Wrapf(err, "failed to restock %s", part.PartName)
			}
		}
		jc.SpareParts = append(jc.SpareParts[:i], jc.SpareParts[i+1:]...)
		return nil
	})
}

// AddInspectionPhoto attaches a photo reference.
func (s *Service) AddInspectionPhoto(ctx context.Context, actor Actor, id string, in PhotoInput) (*models.JobCard, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}
	return s.mutateJobCard(ctx, id, centerAccess(actor), func(ctx context.Context, jc *models.JobCard) error {
		jc.InspectionPhotos = append(jc.InspectionPhotos, models.InspectionPhoto{
			URL:        in.URL,
			Caption:    in.Caption,
			UploadedBy: actor.ID,
			UploadedAt: s.now(),
		})
		return nil
	})
}

// AddCommunication appends a message from the customer or service center.
func (s *Service) AddCommunication(ctx context.Context, actor Actor, id string, in CommunicationInput) (*models.JobCard, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}
	return s.mutateJobCard(ctx, id, partyAccess(actor), func(ctx context.Context, jc *models.JobCard) error {
		jc.Communications = append(jc.Communications, models.Communication{
			From:      actor.ID,
			Role:      actor.Role,
			Message:   in.Message,
			Timestamp: s.now(),
		})
		return nil
	})
}

// checkTechnician requires memberID to be an active team member of the service center.
func (s *Service) checkTechnician(ctx context.Context, serviceCenterID, memberID string) error {
	member, err := s.store.TeamMembers.FindTeamMemberByID(ctx, memberID)
	if errors.Is(err, db.ErrNotFound) {
		return invalidField("technician_id", "must reference an active team member")
	}
	if err != nil {
		return err
	}
	if member.ServiceCenterID != serviceCenterID || member.Status != models.TeamMemberActive {
		return invalidField("technician_id", "must reference an active team member")
	}
	return nil
}
