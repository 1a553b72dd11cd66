package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/service-center/internal/db"
	"github.com/ukydev/service-center/internal/middleware"
	"github.com/ukydev/service-center/internal/service"
)

// Response is the envelope every endpoint returns.
type Response struct {
	Success bool              `json:"success"`
	Data    interface{}       `json:"data,omitempty"`
	Message string            `json:"message,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respond(w http.ResponseWriter, status int, data interface{}, message string) {
	writeJSON(w, status, Response{Success: true, Data: data, Message: message})
}

// statusFor maps a service or store error to its HTTP status.
func statusFor(err error) int {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, db.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidState),
		errors.Is(err, db.ErrConflict),
		errors.Is(err, db.ErrInsufficientStock),
		errors.Is(err, db.ErrVersionConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// respondError writes the error envelope. Internal errors are logged and
// their details withheld from the client.
func respondError(w http.ResponseWriter, r *http.Request, logger log.FieldLogger, err error) {
	status := statusFor(err)
	body := Response{Message: err.Error()}
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		body.Message = "Validation failed"
		body.Errors = verr.Fields
	}
	if status == http.StatusInternalServerError {
		logger.WithError(err).WithFields(log.Fields{
			"request_id": middleware.RequestIDFromContext(r.Context()),
			"path":       r.URL.Path,
		}).Error("Request failed")
		body.Message = "Internal server error"
	}
	writeJSON(w, status, body)
}

// decode reads a JSON body into v. A malformed body is a validation error.
func decode(r *http.Request, v interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return &service.ValidationError{Fields: map[string]string{"body": "must be valid JSON"}}
	}
	return nil
}

// actorFrom returns the authenticated caller.
func actorFrom(r *http.Request) (service.Actor, error) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		return service.Actor{}, errors.Wrap(service.ErrForbidden, "no authenticated user")
	}
	return service.Actor{ID: claims.UserID, Role: claims.Role}, nil
}
