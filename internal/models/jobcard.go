package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// JobCardStatus is the lifecycle state of a job card.
type JobCardStatus string

const (
	JobCardCreated    JobCardStatus = "created"
	JobCardInProgress JobCardStatus = "in-progress"
	JobCardCompleted  JobCardStatus = "completed"
)

// LaborTask is a unit of work on a job card. Hours is the estimate,
// ActualHours accumulates clocked time.
type LaborTask struct {
	ID           string     `json:"id" bson:"id"`
	Task         string     `json:"task" bson:"task"`
	Hours        float64    `json:"hours" bson:"hours"`
	HourlyRate   float64    `json:"hourly_rate" bson:"hourly_rate"`
	Completed    bool       `json:"completed" bson:"completed"`
	ClockIn      *time.Time `json:"clock_in,omitempty" bson:"clock_in,omitempty"`
	ClockOut     *time.Time `json:"clock_out,omitempty" bson:"clock_out,omitempty"`
	ActualHours  float64    `json:"actual_hours" bson:"actual_hours"`
	TechnicianID string     `json:"technician_id,omitempty" bson:"technician_id,omitempty"`
}

// IsClockedIn reports whether the task has an open clock-in.
func (t LaborTask) IsClockedIn() bool {
	return t.ClockIn != nil && t.ClockOut == nil
}

// SparePart is a part consumed by a job card. InventoryID is empty for
// parts sourced outside the service center's stock.
type SparePart struct {
	ID          string  `json:"id" bson:"id"`
	InventoryID string  `json:"inventory_id,omitempty" bson:"inventory_id,omitempty"`
	PartName    string  `json:"part_name" bson:"part_name"`
	Quantity    int     `json:"quantity" bson:"quantity"`
	UnitPrice   float64 `json:"unit_price" bson:"unit_price"`
	TotalPrice  float64 `json:"total_price" bson:"total_price"`
}

// ProgressUpdate records a progress change on a job card.
type ProgressUpdate struct {
	Progress  int       `json:"progress" bson:"progress"`
	Message   string    `json:"message" bson:"message"`
	UpdatedBy string    `json:"updated_by" bson:"updated_by"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

// InspectionPhoto references an uploaded inspection image.
type InspectionPhoto struct {
	URL        string    `json:"url" bson:"url"`
	Caption    string    `json:"caption,omitempty" bson:"caption,omitempty"`
	UploadedBy string    `json:"uploaded_by" bson:"uploaded_by"`
	UploadedAt time.Time `json:"uploaded_at" bson:"uploaded_at"`
}

// Communication is a message exchanged about a job card.
type Communication struct {
	From      string    `json:"from" bson:"from"`
	Role      Role      `json:"role" bson:"role"`
	Message   string    `json:"message" bson:"message"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

// JobCard is the work order created from a confirmed booking.
// TotalLaborCost, TotalPartsCost and TotalCost are derived from LaborTasks
// and SpareParts and are recomputed before every write.
type JobCard struct {
	ID               primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	JobCardNumber    string             `json:"job_card_number" bson:"job_card_number"`
	BookingID        string             `json:"booking_id" bson:"booking_id"`
	CustomerID       string             `json:"customer_id" bson:"customer_id"`
	VehicleID        string             `json:"vehicle_id" bson:"vehicle_id"`
	ServiceCenterID  string             `json:"service_center_id" bson:"service_center_id"`
	AssignedMechanic string             `json:"assigned_mechanic,omitempty" bson:"assigned_mechanic,omitempty"`
	Status           JobCardStatus      `json:"status" bson:"status"`
	LaborTasks       []LaborTask        `json:"labor_tasks" bson:"labor_tasks"`
	SpareParts       []SparePart        `json:"spare_parts" bson:"spare_parts"`
	TotalLaborCost   float64            `json:"total_labor_cost" bson:"total_labor_cost"`
	TotalPartsCost   float64            `json:"total_parts_cost" bson:"total_parts_cost"`
	TotalCost        float64            `json:"total_cost" bson:"total_cost"`
	Progress         int                `json:"progress" bson:"progress"`
	ProgressUpdates  []ProgressUpdate   `json:"progress_updates" bson:"progress_updates"`
	InspectionPhotos []InspectionPhoto  `json:"inspection_photos" bson:"inspection_photos"`
	Communications   []Communication    `json:"communications" bson:"communications"`
	Notes            string             `json:"notes,omitempty" bson:"notes,omitempty"`
	StartedAt        *time.Time         `json:"started_at,omitempty" bson:"started_at,omitempty"`
	CompletedAt      *time.Time         `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
	Version          int64              `json:"version" bson:"version"`
	CreatedAt        time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at" bson:"updated_at"`
}

// FindLaborTask returns the index of the labor task with the given id, or -1.
func (j *JobCard) FindLaborTask(id string) int {
	for i := range j.LaborTasks {
		if j.LaborTasks[i].ID == id {
			return i
		}
	}
	return -1
}

// FindSparePart returns the index of the spare part with the given id, or -1.
func (j *JobCard) FindSparePart(id string) int {
	for i := range j.SpareParts {
		if j.SpareParts[i].ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a copy of j that shares no slices with it.
func (j JobCard) Clone() JobCard {
	out := j
	out.LaborTasks = append([]LaborTask(nil), j.LaborTasks...)
	out.SpareParts = append([]SparePart(nil), j.SpareParts...)
	out.ProgressUpdates = append([]ProgressUpdate(nil), j.ProgressUpdates...)
	out.InspectionPhotos = append([]InspectionPhoto(nil), j.InspectionPhotos...)
	out.Communications = append([]Communication(nil), j.Communications...)
	return out
}
