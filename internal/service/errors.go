package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/ukydev/service-center/internal/db"
)

var (
	// ErrInvalidState is returned when a status transition is not legal from
	// the entity's current status.
	ErrInvalidState = errors.New("invalid state")
	// ErrForbidden is returned when the caller may not act on the entity.
	ErrForbidden = errors.New("forbidden")
)

// ValidationError carries field-level messages for rejected input.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func invalidField(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func invalidTransition(kind string, from, to interface{}) error {
	return errors.Wrapf(ErrInvalidState, "%s cannot move from %v to %v", kind, from, to)
}

// staleStatus turns a lost conditional write into ErrInvalidState.
func staleStatus(kind, id string, err error) error {
	if errors.Is(err, db.ErrStatusMismatch) {
		return errors.Wrapf(ErrInvalidState, "%s %s changed status concurrently", kind, id)
	}
	return err
}
