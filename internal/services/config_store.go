package services

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/roadside-assist/internal/db"
	"github.com/ukydev/roadside-assist/internal/models"
	"github.com/ukydev/roadside-assist/internal/validation"
)

const resourceConfig = "config"

// ConfigStore is the runtime SystemConfig, backed by the system_config
// collection. It is shared by reference with the components that read it.
type ConfigStore struct {
	entries   db.ConfigCollection
	validator *validation.Validator
	log       logrus.FieldLogger
}

func NewConfigStore(entries db.ConfigCollection, v *validation.Validator, log logrus.FieldLogger) *ConfigStore {
	return &ConfigStore{entries: entries, validator: v, log: log}
}

// Get returns the value under key and whether it was set.
func (s *ConfigStore) Get(ctx context.Context, key string) (string, bool, error) {
	entry, err := s.entries.GetConfig(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return "", false, nil
		}
		return "", false, &PersistenceError{Op: "get config", Err: err}
	}
	return entry.Value, true, nil
}

// String returns the value under key, or fallback when it is unset or the
// store cannot be read.
func (s *ConfigStore) String(ctx context.Context, key, fallback string) string {
	value, ok, err := s.Get(ctx, key)
	if err != nil {
		s.log.WithError(err).WithField("key", key).Warn("Falling back to default config value")
		return fallback
	}
	if !ok || value == "" {
		return fallback
	}
	return value
}

// Entry returns the full entry under key.
func (s *ConfigStore) Entry(ctx context.Context, key string) (*models.ConfigEntry, error) {
	entry, err := s.entries.GetConfig(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, &NotFoundError{Resource: resourceConfig, ID: key}
		}
		return nil, &PersistenceError{Op: "get config", Err: err}
	}
	return entry, nil
}

// Set stores value under key.
func (s *ConfigStore) Set(ctx context.Context, key string, input models.SetConfigInput) (*models.ConfigEntry, error) {
	fields := s.validator.Struct(input)
	if strings.TrimSpace(key) == "" {
		fields = append(fields, validation.FieldError{Field: "key", Tag: "required", Message: "key is required"})
	}
	if key == models.ConfigDefaultCurrency && !validation.IsCurrencyCode(input.Value) {
		fields = append(fields, validation.FieldError{Field: "value", Tag: "currency", Message: "value must be a 3 letter ISO currency code"})
	}
	if err := validationError(fields); err != nil {
		return nil, err
	}

	entry, err := s.entries.SetConfig(ctx, key, input.Value)
	if err != nil {
		return nil, &PersistenceError{Op: "set config", Err: err}
	}
	s.log.WithFields(logrus.Fields{"key": key, "value": input.Value}).Info("Config updated")
	return entry, nil
}

// All returns every entry ordered by key.
func (s *ConfigStore) All(ctx context.Context) ([]models.ConfigEntry, error) {
	entries, err := s.entries.ListConfig(ctx)
	if err != nil {
		return nil, &PersistenceError{Op: "list config", Err: err}
	}
	if entries == nil {
		entries = []models.ConfigEntry{}
	}
	return entries, nil
}
