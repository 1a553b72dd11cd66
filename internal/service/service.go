// Package service implements the service center workflow: the booking, job
// card and invoice state machine, cost roll-ups, the mechanic performance
// aggregator and the inventory and stock request flow.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/service-center/internal/db"
	"github.com/ukydev/service-center/internal/events"
	"github.com/ukydev/service-center/internal/models"
)

// DefaultTaxRate replaces a configured rate outside [0, 1). Zero is a valid
// rate and bills no tax.
const DefaultTaxRate = 0.10

// maxVersionRetries bounds how often a job card mutation is replayed after
// losing an optimistic version check.
const maxVersionRetries = 5

// Config holds workflow settings.
type Config struct {
	TaxRate float64
}

// Actor is the authenticated caller. For service centers ID is also the
// service center reference.
type Actor struct {
	ID   string
	Role models.Role
}

func (a Actor) isAdmin() bool { return a.Role == models.RoleAdmin }

// Service runs every workflow operation against a db.Store.
type Service struct {
	store    *db.Store
	events   events.Publisher
	log      log.FieldLogger
	validate *Validator
	taxRate  float64
	now      func() time.Time
}

// New wires a Service. A nil publisher drops events.
func New(store *db.Store, publisher events.Publisher, logger log.FieldLogger, cfg Config) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	taxRate := cfg.TaxRate
	if taxRate < 0 || taxRate >= 1 {
		taxRate = DefaultTaxRate
	}
	return &Service{
		store:    store,
		events:   publisher,
		log:      logger,
		validate: NewValidator(),
		taxRate:  taxRate,
		now:      time.Now,
	}
}

// TaxRate returns the rate stamped on new invoices.
func (s *Service) TaxRate() float64 { return s.taxRate }

// manageCenter allows admins and the service center itself.
func manageCenter(actor Actor, serviceCenterID string) error {
	if actor.isAdmin() {
		return nil
	}
	if actor.Role == models.RoleServiceCenter && actor.ID == serviceCenterID {
		return nil
	}
	return errors.Wrap(ErrForbidden, "only the owning service center may do this")
}

// viewParty allows admins, the service center and the customer.
func viewParty(actor Actor, customerID, serviceCenterID string) error {
	switch {
	case actor.isAdmin():
		return nil
	case actor.Role == models.RoleServiceCenter && actor.ID == serviceCenterID:
		return nil
	case actor.Role == models.RoleCustomer && actor.ID == customerID:
		return nil
	}
	return errors.Wrap(ErrForbidden, "not a party to this record")
}

// centerScope picks the service center a listing or creation applies to.
// Service centers are pinned to themselves; admins may name one or none.
func centerScope(actor Actor, requested string) (string, error) {
	switch actor.Role {
	case models.RoleServiceCenter:
		return actor.ID, nil
	case models.RoleAdmin:
		return requested, nil
	}
	return "", errors.Wrap(ErrForbidden, "service center access required")
}

// publish sends an event after the fact. Failures are logged only.
func (s *Service) publish(ctx context.Context, eventType, entityID, serviceCenterID string, payload interface{}) {
	event := events.Event{
		Type:            eventType,
		EntityID:        entityID,
		ServiceCenterID: serviceCenterID,
		Payload:         payload,
		OccurredAt:      s.now(),
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.log.WithError(err).WithFields(log.Fields{
			"event":     eventType,
			"entity_id": entityID,
		}).Warn("Failed to publish event")
	}
}

// nextNumber formats <prefix>-<year>-<seq> from an atomic per-year counter.
// If the counter is unavailable it falls back to <prefix>-<unix millis>.
func (s *Service) nextNumber(ctx context.Context, prefix, counter string) string {
	now := s.now()
	seq, err := s.store.Sequences.NextSequence(ctx, fmt.Sprintf("%s:%d", counter, now.Year()))
	if err != nil {
		s.log.WithError(err).WithField("counter", counter).Warn("Sequence unavailable, using timestamp number")
		return fmt.Sprintf("%s-%d", prefix, now.UnixMilli())
	}
	return fmt.Sprintf("%s-%d-%04d", prefix, now.Year(), seq)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
