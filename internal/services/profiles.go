package services

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/roadside-assist/internal/db"
	"github.com/ukydev/roadside-assist/internal/models"
	"github.com/ukydev/roadside-assist/internal/validation"
)

// ProfileService keeps one customer profile per auth provider id.
type ProfileService struct {
	profiles  db.ProfileCollection
	validator *validation.Validator
	log       logrus.FieldLogger
}

func NewProfileService(profiles db.ProfileCollection, v *validation.Validator, log logrus.FieldLogger) *ProfileService {
	return &ProfileService{profiles: profiles, validator: v, log: log}
}

// Upsert creates the profile or overwrites the fields present in input.
// Concurrent upserts for the same id resolve to the last write.
func (s *ProfileService) Upsert(ctx context.Context, input models.UpsertUserInput) (*models.User, error) {
	if err := validationError(s.validator.Struct(input)); err != nil {
		return nil, err
	}

	user, err := s.profiles.UpsertProfile(ctx, input)
	if err != nil {
		return nil, &PersistenceError{Op: "upsert profile", Err: err}
	}

	s.log.WithFields(logrus.Fields{
		"supabase_id": user.SupabaseID,
		"version":     user.Version,
	}).Info("User profile saved")
	return user, nil
}

// Get returns the profile, or nil without error when none exists.
func (s *ProfileService) Get(ctx context.Context, supabaseID string) (*models.User, error) {
	user, err := s.profiles.FindProfileBySupabaseID(ctx, supabaseID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, nil
		}
		return nil, &PersistenceError{Op: "find profile", Err: err}
	}
	return user, nil
}
