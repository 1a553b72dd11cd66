package handlers

import (
	"net/http"

	"github.com/ukydev/service-center/internal/models"
	"github.com/ukydev/service-center/internal/service"
)

// Vehicles

func (h *Handler) CreateVehicle(w http.ResponseWriter, r *http.Request) {
	callWith(h, w, r, http.StatusCreated, "Vehicle added", func(actor service.Actor, in service.VehicleInput) (interface{}, error) {
		return h.svc.CreateVehicle(r.Context(), actor, in)
	})
}

func (h *Handler) ListVehicles(w http.ResponseWriter, r *http.Request) {
	h.call(w, r, http.StatusOK, "", func(actor service.Actor) (interface{}, error) {
		return h.svc.ListVehicles(r.Context(), actor)
	})
}

func (h *Handler) GetVehicle(w http.ResponseWriter, r *http.Request) {
	h.call(w, r, http.StatusOK, "", func(actor service.Actor) (interface{}, error) {
		return h.svc.GetVehicle(r.Context(), actor, param(r, "id"))
	})
}

func (h *Handler) UpdateVehicle(w http.ResponseWriter, r *http.Request) {
	callWith(h, w, r, http.StatusOK, "Vehicle updated", func(actor service.Actor, in service.VehicleInput) (interface{}, error) {
		return h.svc.UpdateVehicle(r.Context(), actor, param(r, "id"), in)
	})
}

func (h *Handler) DeleteVehicle(w http.ResponseWriter, r *http.Request) {
	h.call(w, r, http.StatusOK, "Vehicle deleted", func(actor service.Actor) (interface{}, error) {
		return nil, h.svc.DeleteVehicle(r.Context(), actor, param(r, "id"))
	})
}

// Bookings

func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	callWith(h, w, r, http.StatusCreated, "Booking created", func(actor service.Actor, in service.CreateBookingInput) (interface{}, error) {
		return h.svc.CreateBooking(r.Context(), actor, in)
	})
}

func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	q := service.BookingQuery{
		Status:          models.BookingStatus(r.URL.Query().Get("status")),
		ServiceCenterID: r.URL.Query().Get("service_center_id"),
	}
	h.call(w, r, http.StatusOK, "", func(actor service.Actor) (interface{}, error) {
		return h.svc.ListBookings(r.Context(), actor, q)
	})
}

func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	h.call(w, r, http.StatusOK, "", func(actor service.Actor) (interface{}, error) {
		return h.svc.GetBooking(r.Context(), actor, param(r, "id"))
	})
}

func (h *Handler) ApproveBooking(w http.ResponseWriter, r *http.Request) {
	callWith(h, w, r, http.StatusOK, "Booking approved", func(actor service.Actor, in service.ApproveBookingInput) (interface{}, error) {
		return h.svc.ApproveBooking(r.Context(), actor, param(r, "id"), in)
	})
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	callWith(h, w, r, http.StatusOK, "Booking cancelled", func(actor service.Actor, in cancelRequest) (interface{}, error) {
		return h.svc.CancelBooking(r.Context(), actor, param(r, "id"), in.Reason)
	})
}

func (h *Handler) UpdateBooking(w http.ResponseWriter, r *http.Request) {
	callWith(h, w, r, http.StatusOK, "Booking updated", func(actor service.Actor, in service.UpdateBookingInput) (interface{}, error) {
		return h.svc.UpdateBooking(r.Context(), actor, param(r, "id"), in)
	})
}

// Job cards

func (h *Handler) CreateJobCard(w http.ResponseWriter, r *http.Request) {
	callWith(h, w, r, http.StatusCreated, "Job card created", func(actor service.Actor, in service.CreateJobCardInput) (interface{}, error) {
		return h.svc.CreateJobCard(r.Context(), actor, in)
	})
}

func (h *Handler) ListJobCards(w http.ResponseWriter, r *http.Request) {
	q := service.JobCardQuery{
		Status:          models.JobCardStatus(r.URL.Query().Get("status")),
		MechanicID:      r.URL.Query().Get("mechanic_id"),
		ServiceCenterID: r.URL.Query().Get("service_center_id"),
	}
	h.call(w, r, http.StatusOK, "", func(actor service.Actor) (interface{}, error) {
		return h.svc.ListJobCards(r.Context(), actor, q)
	})
}

func (h *Handler) GetJobCard(w http.ResponseWriter, r *http.Request) {
	h.call(w, r, http.StatusOK, "", func(actor service.Actor) (interface{}, error) {
		return h.svc.GetJobCard(r.Context(), actor, param(r, "id"))
	})
}

func (h *Handler) StartService(w http.ResponseWriter, r *http.Request) {
	h.call(w, r, http.StatusOK, "Service started", func(actor service.Actor) (interface{}, error) {
		return h.svc.StartService(r.Context(), actor, param(r, "id"))
	})
}

func (h *Handler) CompleteService(w http.ResponseWriter, r *http.Request) {
	h.call(w, r, http.StatusOK, "Service completed", func(actor service.Actor) (interface{}, error) {
		return h.svc.CompleteService(r.Context(), actor, param(r, "id"))
	})
}

func (h *Handler) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	callWith(h, w, r, http.StatusOK, "Progress updated", func(actor service.Actor, in service.ProgressInput) (interface{}, error) {
		return h.svc.UpdateProgress(r.Context(), actor, param(r, "id"), in)
	})
}

func (h *Handler) AddSparePart(w http.ResponseWriter, r *http.Request) {
	callWith(h, w, r, http.StatusOK, "Part added", func(actor service.Actor, in service.SparePartInput) (interface{}, error) {
		return h.svc.AddSparePart(r.Context(), actor, param(r, "id"), in)
	})
}

func (h *Handler) RemoveSparePart(w http.ResponseWriter, r *http.Request) {
	h.call(w, r, http.StatusOK, "Part removed", func(actor service.Actor) (interface{}, error) {
		return h.svc.RemoveSparePart(r.Context(), actor, param(r, "id"), param(r, "partId"))
	})
}

func (h *Handler) AddLaborTask(w http.ResponseWriter, r *http.Request) {
	callWith(h, w, r, http.StatusOK, "Labor task added", func(actor service.Actor, in service.LaborTaskInput) (interface{}, error) {
		return h.svc.AddLaborTask(r.Context(), actor, param(r, "id"), in)
	})
}

func (h *Handler) RemoveLaborTask(w http.ResponseWriter, r *http.Request) {
	h.call(w, r, http.StatusOK, "Labor task removed", func(actor service.Actor) (interface{}, error) {
		return h.svc.RemoveLaborTask(r.Context(), actor, param(r, "id"), param(r, "taskId"))
	})
}

func (h *Handler) ClockIn(w http.ResponseWriter, r *http.Request) {
	callWith(h, w, r, http.StatusOK, "Clocked in", func(actor service.Actor, in service.ClockInput) (interface{}, error) {
		return h.svc.ClockIn(r.Context(), actor, param(r, "id"), param(r, "taskId"), in)
	})
}

func (h *Handler) ClockOut(w http.ResponseWriter, r *http.Request) {
	h.call(w, r, http.StatusOK, "Clocked out", func(actor service.Actor) (interface{}, error) {
		return h.svc.ClockOut(r.Context(), actor, param(r, "id"), param(r, "taskId"))
	})
}

func (h *Handler) CompleteLaborTask(w http.ResponseWriter, r *http.Request) {
	h.call(w, r, http.StatusOK, "Labor task completed", func(actor service.Actor) (interface{}, error) {
		return h.svc.CompleteLaborTask(r.Context(), actor, param(r, "id"), param(r, "taskId"))
	})
}

func (h *Handler) AddInspectionPhoto(w http.ResponseWriter, r *http.Request) {
	callWith(h, w, r, http.StatusOK, "Photo added", func(actor service.Actor, in service.PhotoInput) (interface{}, error) {
		return h.svc.AddInspectionPhoto(r.Context(), actor, param(r, "id"), in)
	})
}

func (h *Handler) AddCommunication(w http.ResponseWriter, r *http.Request) {
	callWith(h, w, r, http.StatusOK, "Message added", func(actor service.Actor, in service.CommunicationInput) (interface{}, error) {
		return h.svc.AddCommunication(r.Context(), actor, param(r, "id"), in)
	})
}

// Invoices

func (h *Handler) GenerateInvoice(w http.ResponseWriter, r *http.Request) {
	callWith(h, w, r, http.StatusCreated, "Invoice generated", func(actor service.Actor, in service.GenerateInvoiceInput) (interface{}, error) {
		return h.svc.GenerateInvoice(r.Context(), actor, in)
	})
}

func (h *Handler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	q := service.InvoiceQuery{
		Status:          models.InvoiceStatus(r.URL.Query().Get("status")),
		ServiceCenterID: r.URL.Query().Get("service_center_id"),
	}
	h.call(w, r, http.StatusOK, "", func(actor service.Actor) (interface{}, error) {
		return h.svc.ListInvoices(r.Context(), actor, q)
	})
}

func (h *Handler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	h.call(w, r, http.StatusOK, "", func(actor service.Actor) (interface{}, error) {
		return h.svc.GetInvoice(r.Context(), actor, param(r, "id"))
	})
}

func (h *Handler) ProcessPayment(w http.ResponseWriter, r *http.Request) {
	callWith(h, w, r, http.StatusOK, "Payment processed", func(actor service.Actor, in service.PaymentInput) (interface{}, error) {
		return h.svc.ProcessPayment(r.Context(), actor, param(r, "id"), in)
	})
}

func (h *Handler) RecordPaymentFailure(w http.ResponseWriter, r *http.Request) {
	callWith(h, w, r, http.StatusOK, "Payment failure recorded", func(actor service.Actor, in service.PaymentFailureInput) (interface{}, error) {
		return h.svc.RecordPaymentFailure(r.Context(), actor, param(r, "id"), in)
	})
}

func (h *Handler) ReopenInvoice(w http.ResponseWriter, r *http.Request) {
	h.call(w, r, http.StatusOK, "Invoice reopened", func(actor service.Actor) (interface{}, error) {
		return h.svc.ReopenInvoice(r.Context(), actor, param(r, "id"))
	})
}
