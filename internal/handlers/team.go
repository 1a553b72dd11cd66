package handlers

import (
	"net/http"

	"github.com/ukydev/service-center/internal/models"
	"github.com/ukydev/service-center/internal/service"
)

func (h *Handler) CreateTeamMember(w http.ResponseWriter, r *http.Request) {
	callWith(h, w, r, http.StatusCreated, "Team member added", func(actor service.Actor, in service.TeamMemberInput) (interface{}, error) {
		return h.svc.CreateTeamMember(r.Context(), actor, in)
	})
}

func (h *Handler) ListTeamMembers(w http.ResponseWriter, r *http.Request) {
	q := service.TeamMemberQuery{
		Role:            models.TeamRole(r.URL.Query().Get("role")),
		ServiceCenterID: r.URL.Query().Get("service_center_id"),
	}
	h.call(w, r, http.StatusOK, "", func(actor service.Actor) (interface{}, error) {
		return h.svc.ListTeamMembers(r.Context(), actor, q)
	})
}

func (h *Handler) SetTeamMemberStatus(w http.ResponseWriter, r *http.Request) {
	callWith(h, w, r, http.StatusOK, "Team member updated", func(actor service.Actor, in service.TeamMemberStatusInput) (interface{}, error) {
		return h.svc.SetTeamMemberStatus(r.Context(), actor, param(r, "id"), in)
	})
}

func (h *Handler) ListMechanicPerformance(w http.ResponseWriter, r *http.Request) {
	h.call(w, r, http.StatusOK, "", func(actor service.Actor) (interface{}, error) {
		return h.svc.ListMechanicPerformance(r.Context(), actor, r.URL.Query().Get("service_center_id"))
	})
}

func (h *Handler) GetMechanicPerformance(w http.ResponseWriter, r *http.Request) {
	h.call(w, r, http.StatusOK, "", func(actor service.Actor) (interface{}, error) {
		return h.svc.GetMechanicPerformance(r.Context(), actor, param(r, "mechanicId"))
	})
}

func (h *Handler) CreateReview(w http.ResponseWriter, r *http.Request) {
	callWith(h, w, r, http.StatusCreated, "Review submitted", func(actor service.Actor, in service.ReviewInput) (interface{}, error) {
		return h.svc.CreateReview(r.Context(), actor, in)
	})
}

func (h *Handler) ListReviews(w http.ResponseWriter, r *http.Request) {
	q := service.ReviewQuery{
		ServiceCenterID: r.URL.Query().Get("service_center_id"),
		MechanicID:      r.URL.Query().Get("mechanic_id"),
	}
	h.call(w, r, http.StatusOK, "", func(actor service.Actor) (interface{}, error) {
		return h.svc.ListReviews(r.Context(), actor, q)
	})
}

func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	h.call(w, r, http.StatusOK, "", func(actor service.Actor) (interface{}, error) {
		return h.svc.Summary(r.Context(), actor, r.URL.Query().Get("service_center_id"))
	})
}
