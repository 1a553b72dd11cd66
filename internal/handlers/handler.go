package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/service-center/internal/service"
)

// Handler exposes the workflow service over REST.
type Handler struct {
	svc *service.Service
	log log.FieldLogger
}

// NewHandler creates a Handler.
func NewHandler(svc *service.Service, logger log.FieldLogger) *Handler {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Handler{svc: svc, log: logger}
}

// call runs fn for the authenticated caller and writes its result with
// status on success.
func (h *Handler) call(w http.ResponseWriter, r *http.Request, status int, message string, fn func(actor service.Actor) (interface{}, error)) {
	actor, err := actorFrom(r)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	data, err := fn(actor)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respond(w, status, data, message)
}

// callWith decodes the request body into in before calling fn.
func callWith[T any](h *Handler, w http.ResponseWriter, r *http.Request, status int, message string, fn func(actor service.Actor, in T) (interface{}, error)) {
	var in T
	if err := decode(r, &in); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	h.call(w, r, status, message, func(actor service.Actor) (interface{}, error) {
		return fn(actor, in)
	})
}

func param(r *http.Request, name string) string { return chi.URLParam(r, name) }

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string]string{"status": "ok"}, "")
}
