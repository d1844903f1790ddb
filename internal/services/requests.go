package services

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/roadside-assist/internal/db"
	"github.com/ukydev/roadside-assist/internal/events"
	"github.com/ukydev/roadside-assist/internal/models"
	"github.com/ukydev/roadside-assist/internal/validation"
	"go.mongodb.org/mongo-driver/bson"
)

const resourceServiceRequest = "service request"

// RequestManager owns creation and status transitions of service requests.
type RequestManager struct {
	requests  db.ServiceRequestCollection
	validator *validation.Validator
	events    events.Publisher
	log       logrus.FieldLogger
}

// NewRequestManager creates a manager over the given collection. A nil
// publisher disables lifecycle events.
func NewRequestManager(requests db.ServiceRequestCollection, v *validation.Validator, pub events.Publisher, log logrus.FieldLogger) *RequestManager {
	if pub == nil {
		pub = events.NopPublisher{}
	}
	return &RequestManager{requests: requests, validator: v, events: pub, log: log}
}

// Create persists a new pending request with a zero price.
func (m *RequestManager) Create(ctx context.Context, input models.CreateServiceRequestInput) (*models.ServiceRequest, error) {
	if err := validationError(m.validator.Struct(input)); err != nil {
		return nil, err
	}

	req := &models.ServiceRequest{
		UserID:      input.UserID,
		BookingID:   input.BookingID,
		ServiceType: input.ServiceType,
		Status:      models.StatusPending,
		Location:    input.Location,
		Notes:       input.Notes,
		Price:       0,
	}
	if err := m.requests.InsertServiceRequest(ctx, req); err != nil {
		return nil, &PersistenceError{Op: "insert service request", Err: err}
	}

	m.log.WithFields(logrus.Fields{
		"request_id":   req.ID.Hex(),
		"user_id":      req.UserID,
		"service_type": req.ServiceType,
	}).Info("Service request created")

	m.publish(ctx, events.Event{
		Type:        events.RequestCreated,
		RequestID:   req.ID.Hex(),
		BookingID:   req.BookingID,
		UserID:      req.UserID,
		ServiceType: req.ServiceType,
		To:          string(req.Status),
		Version:     req.Version,
		OccurredAt:  req.CreatedAt,
	})
	return req, nil
}

// Get returns one request.
func (m *RequestManager) Get(ctx context.Context, id string) (*models.ServiceRequest, error) {
	req, err := m.requests.FindServiceRequestByID(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, &NotFoundError{Resource: resourceServiceRequest, ID: id}
		}
		return nil, &PersistenceError{Op: "find service request", Err: err}
	}
	return req, nil
}

// ListForUser returns the user's requests, newest first. No match yields an
// empty slice.
func (m *RequestManager) ListForUser(ctx context.Context, userID string) ([]models.ServiceRequest, error) {
	return m.list(ctx, bson.M{"user_id": userID})
}

// ListAll returns every request, newest first.
func (m *RequestManager) ListAll(ctx context.Context) ([]models.ServiceRequest, error) {
	return m.list(ctx, bson.M{})
}

func (m *RequestManager) list(ctx context.Context, filter bson.M) ([]models.ServiceRequest, error) {
	requests, err := m.requests.FindServiceRequests(ctx, filter)
	if err != nil {
		return nil, &PersistenceError{Op: "list service requests", Err: err}
	}
	if requests == nil {
		requests = []models.ServiceRequest{}
	}
	return requests, nil
}

// UpdateStatus moves a request to input.Status, optionally setting its
// price. The write is fenced by the request version: input.Version when
// supplied, otherwise the version read here.
func (m *RequestManager) UpdateStatus(ctx context.Context, input models.UpdateStatusInput) (*models.ServiceRequest, error) {
	if err := validationError(m.validator.Struct(input)); err != nil {
		return nil, err
	}

	current, err := m.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	if !models.CanTransition(current.Status, input.Status) {
		return nil, &InvalidTransitionError{
			Resource: resourceServiceRequest,
			From:     string(current.Status),
			To:       string(input.Status),
		}
	}

	expected := current.Version
	if input.Version != nil {
		expected = *input.Version
	}

	updated, err := m.requests.UpdateServiceRequestStatus(ctx, input.ID, expected, input.Status, input.Price)
	if err != nil {
		switch {
		case errors.Is(err, db.ErrNotFound):
			return nil, &NotFoundError{Resource: resourceServiceRequest, ID: input.ID}
		case errors.Is(err, db.ErrVersionConflict):
			return nil, &ConflictError{Resource: resourceServiceRequest, ID: input.ID}
		default:
			return nil, &PersistenceError{Op: "update service request", Err: err}
		}
	}

	m.log.WithFields(logrus.Fields{
		"request_id": updated.ID.Hex(),
		"from":       current.Status,
		"to":         updated.Status,
		"price":      updated.Price,
		"version":    updated.Version,
	}).Info("Service request status updated")

	m.publish(ctx, events.Event{
		Type:        events.RequestStatusChanged,
		RequestID:   updated.ID.Hex(),
		BookingID:   updated.BookingID,
		UserID:      updated.UserID,
		ServiceType: updated.ServiceType,
		From:        current.Status,
		To:          string(updated.Status),
		Amount:      updated.Price,
		Version:     updated.Version,
		OccurredAt:  updated.UpdatedAt,
	})
	return updated, nil
}

// publish delivers an event after the write has been committed. Failures are
// logged; the caller's operation already succeeded.
func (m *RequestManager) publish(ctx context.Context, event events.Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	if err := m.events.Publish(ctx, event); err != nil {
		m.log.WithError(err).WithFields(logrus.Fields{
			"event":      event.Type,
			"request_id": event.RequestID,
		}).Warn("Failed to publish lifecycle event")
	}
}
