package services

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/roadside-assist/internal/db"
	"github.com/ukydev/roadside-assist/internal/events"
	"github.com/ukydev/roadside-assist/internal/idempotency"
	"github.com/ukydev/roadside-assist/internal/models"
	"github.com/ukydev/roadside-assist/internal/payment"
	"github.com/ukydev/roadside-assist/internal/validation"
	"go.mongodb.org/mongo-driver/bson"
)

const resourcePayment = "payment"

// PaymentRecorder records payments and hands the money movement to a
// gateway.
type PaymentRecorder struct {
	payments        db.PaymentCollection
	gateway         payment.Gateway
	config          *ConfigStore
	keys            idempotency.Store
	validator       *validation.Validator
	events          events.Publisher
	log             logrus.FieldLogger
	defaultCurrency string
}

// PaymentRecorderOptions holds the optional collaborators of a
// PaymentRecorder.
type PaymentRecorderOptions struct {
	// Keys enables Idempotency-Key handling when set.
	Keys      idempotency.Store
	Publisher events.Publisher
	// DefaultCurrency applies when SystemConfig has no default_currency.
	DefaultCurrency string
}

func NewPaymentRecorder(payments db.PaymentCollection, gateway payment.Gateway, config *ConfigStore, v *validation.Validator, log logrus.FieldLogger, opts PaymentRecorderOptions) *PaymentRecorder {
	if opts.Publisher == nil {
		opts.Publisher = events.NopPublisher{}
	}
	if opts.DefaultCurrency == "" {
		opts.DefaultCurrency = "LKR"
	}
	return &PaymentRecorder{
		payments:        payments,
		gateway:         gateway,
		config:          config,
		keys:            opts.Keys,
		validator:       v,
		events:          opts.Publisher,
		log:             log,
		defaultCurrency: opts.DefaultCurrency,
	}
}

func (r *PaymentRecorder) currency(ctx context.Context, requested string) string {
	if requested != "" {
		return requested
	}
	if r.config == nil {
		return r.defaultCurrency
	}
	return r.config.String(ctx, models.ConfigDefaultCurrency, r.defaultCurrency)
}

// CreateIntent asks the gateway for a client secret the app can complete a
// card payment with.
func (r *PaymentRecorder) CreateIntent(ctx context.Context, input models.CreateIntentInput) (*models.PaymentIntent, error) {
	if err := validationError(r.validator.Struct(input)); err != nil {
		return nil, err
	}

	intent, err := r.gateway.CreateIntent(ctx, input.Amount, r.currency(ctx, input.Currency))
	if err != nil {
		return nil, &PersistenceError{Op: r.gateway.Name() + " create intent", Err: err}
	}
	r.log.WithFields(logrus.Fields{
		"intent_id": intent.IntentID,
		"amount":    intent.Amount,
		"currency":  intent.Currency,
		"gateway":   r.gateway.Name(),
	}).Info("Payment intent created")
	return intent, nil
}

// Process records a payment and charges it through the gateway. When
// idempotencyKey is non-empty and a key store is configured, a retry with
// the same key returns the first payment instead of charging again.
func (r *PaymentRecorder) Process(ctx context.Context, input models.ProcessPaymentInput, idempotencyKey string) (*models.ProcessPaymentResult, error) {
	if err := validationError(r.validator.Struct(input)); err != nil {
		return nil, err
	}

	useKey := idempotencyKey != "" && r.keys != nil
	if useKey {
		existingID, err := r.keys.Begin(ctx, idempotencyKey)
		switch {
		case errors.Is(err, idempotency.ErrInFlight):
			return nil, &ConflictError{Resource: resourcePayment, ID: idempotencyKey, Reason: "a request with this idempotency key is still in progress"}
		case err != nil:
			return nil, &PersistenceError{Op: "reserve idempotency key", Err: err}
		case existingID != "":
			return r.replay(ctx, existingID)
		}
	}

	result, chargedID, err := r.charge(ctx, input, idempotencyKey)
	if useKey {
		// Once the gateway has taken money the key stays bound to that
		// payment, even when recording its status failed, so a retry replays
		// it instead of charging again.
		if chargedID != "" {
			if err := r.keys.Complete(ctx, idempotencyKey, chargedID); err != nil {
				r.log.WithError(err).WithField("payment_id", chargedID).Warn("Failed to store idempotency key")
			}
		} else {
			r.releaseKey(ctx, idempotencyKey)
		}
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// charge inserts a pending payment and charges it. The returned id is set
// whenever the gateway accepted the charge, also when the status write
// afterwards failed.
func (r *PaymentRecorder) charge(ctx context.Context, input models.ProcessPaymentInput, idempotencyKey string) (*models.ProcessPaymentResult, string, error) {
	p := &models.Payment{
		UserID:    input.UserID,
		BookingID: input.BookingID,
		Amount:    input.Amount,
		Currency:  r.currency(ctx, input.Currency),
		Method:    input.Method,
		Status:    models.PaymentPending,
	}
	if err := r.payments.InsertPayment(ctx, p); err != nil {
		return nil, "", &PersistenceError{Op: "insert payment", Err: err}
	}

	logger := r.log.WithFields(logrus.Fields{
		"payment_id": p.ID.Hex(),
		"user_id":    p.UserID,
		"amount":     p.Amount,
		"currency":   p.Currency,
		"gateway":    r.gateway.Name(),
	})

	gatewayKey := idempotencyKey
	if gatewayKey == "" {
		gatewayKey = "payment-" + p.ID.Hex()
	}

	status, transactionID, chargedID := models.PaymentFailed, "", ""
	res, err := r.gateway.Charge(ctx, payment.ChargeRequest{
		PaymentID:      p.ID.Hex(),
		UserID:         p.UserID,
		Amount:         p.Amount,
		Currency:       p.Currency,
		Method:         p.Method,
		IdempotencyKey: gatewayKey,
	})
	if err != nil {
		logger.WithError(err).Warn("Gateway rejected payment")
	} else {
		status, transactionID = res.Status, res.TransactionID
		if status != models.PaymentFailed {
			chargedID = p.ID.Hex()
		}
	}

	updated, err := r.payments.UpdatePaymentStatus(ctx, p.ID.Hex(), models.PaymentPending, status, transactionID)
	if err != nil {
		if chargedID != "" {
			logger.WithError(err).WithFields(logrus.Fields{
				"status":         status,
				"transaction_id": transactionID,
			}).Error("Payment charged but status not recorded, left pending")
		}
		return nil, chargedID, &PersistenceError{Op: "record payment status", Err: err}
	}

	logger.WithFields(logrus.Fields{
		"status":         updated.Status,
		"transaction_id": updated.TransactionID,
	}).Info("Payment processed")
	r.publish(ctx, updated)

	return resultFor(updated), chargedID, nil
}

// resultFor reports success only for a settled payment. A pending payment
// was accepted by the gateway but is not paid yet.
func resultFor(p *models.Payment) *models.ProcessPaymentResult {
	return &models.ProcessPaymentResult{
		Success:       p.Status == models.PaymentCompleted,
		TransactionID: p.TransactionID,
		Payment:       p,
	}
}

func (r *PaymentRecorder) replay(ctx context.Context, paymentID string) (*models.ProcessPaymentResult, error) {
	p, err := r.payments.FindPaymentByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, &NotFoundError{Resource: resourcePayment, ID: paymentID}
		}
		return nil, &PersistenceError{Op: "find payment", Err: err}
	}
	r.log.WithField("payment_id", paymentID).Info("Replayed payment for idempotency key")
	return resultFor(p), nil
}

func (r *PaymentRecorder) releaseKey(ctx context.Context, key string) {
	if err := r.keys.Release(ctx, key); err != nil {
		r.log.WithError(err).Warn("Failed to release idempotency key")
	}
}

// Confirm settles a pending payment as completed or failed on behalf of the
// external payment collaborator.
func (r *PaymentRecorder) Confirm(ctx context.Context, id string, input models.ConfirmPaymentInput) (*models.Payment, error) {
	if err := validationError(r.validator.Struct(input)); err != nil {
		return nil, err
	}

	current, err := r.payments.FindPaymentByID(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, &NotFoundError{Resource: resourcePayment, ID: id}
		}
		return nil, &PersistenceError{Op: "find payment", Err: err}
	}
	if current.Status != models.PaymentPending || !input.Status.IsTerminal() {
		return nil, &InvalidTransitionError{Resource: resourcePayment, From: string(current.Status), To: string(input.Status)}
	}

	updated, err := r.payments.UpdatePaymentStatus(ctx, id, models.PaymentPending, input.Status, "")
	if err != nil {
		switch {
		case errors.Is(err, db.ErrNotFound):
			return nil, &NotFoundError{Resource: resourcePayment, ID: id}
		case errors.Is(err, db.ErrVersionConflict):
			return nil, &ConflictError{Resource: resourcePayment, ID: id, Reason: "payment was settled concurrently"}
		default:
			return nil, &PersistenceError{Op: "confirm payment", Err: err}
		}
	}

	r.log.WithFields(logrus.Fields{
		"payment_id": id,
		"status":     updated.Status,
	}).Info("Payment confirmed")
	r.publish(ctx, updated)
	return updated, nil
}

// ListForUser returns the user's payments, newest first.
func (r *PaymentRecorder) ListForUser(ctx context.Context, userID string) ([]models.Payment, error) {
	payments, err := r.payments.FindPayments(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, &PersistenceError{Op: "list payments", Err: err}
	}
	if payments == nil {
		payments = []models.Payment{}
	}
	return payments, nil
}

func (r *PaymentRecorder) publish(ctx context.Context, p *models.Payment) {
	event := events.Event{
		Type:       events.PaymentRecorded,
		PaymentID:  p.ID.Hex(),
		BookingID:  p.BookingID,
		UserID:     p.UserID,
		To:         string(p.Status),
		Amount:     p.Amount,
		OccurredAt: p.UpdatedAt,
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	if err := r.events.Publish(ctx, event); err != nil {
		r.log.WithError(err).WithField("payment_id", event.PaymentID).Warn("Failed to publish payment event")
	}
}
