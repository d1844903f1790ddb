package db

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/roadside-assist/internal/models"
	"go.mongodb.org/mongo-driver/bson"
)

func TestMongoProfileCollection_UpsertLastWriteWins(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	profiles := store.Profiles

	first, err := profiles.UpsertProfile(ctx, models.UpsertUserInput{SupabaseID: "s1", Name: "A", Email: "a@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "A", first.Name)
	assert.Equal(t, models.RoleCustomer, first.Role)
	assert.Equal(t, int64(1), first.Version)

	second, err := profiles.UpsertProfile(ctx, models.UpsertUserInput{SupabaseID: "s1", Name: "B"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "B", second.Name)
	assert.Equal(t, "a@example.com", second.Email, "fields not supplied are left untouched")
	assert.Equal(t, int64(2), second.Version)
	assert.Equal(t, first.CreatedAt.Unix(), second.CreatedAt.Unix())

	found, err := profiles.FindProfileBySupabaseID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "B", found.Name)

	count, err := profiles.Collection.CountDocuments(ctx, bson.M{"supabase_id": "s1"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	_, err = profiles.FindProfileBySupabaseID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMongoProfileCollection_ConcurrentFirstUpsert(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	profiles := store.Profiles

	const writers = 8
	for round := 0; round < 5; round++ {
		supabaseID := fmt.Sprintf("race-%d", round)

		var wg sync.WaitGroup
		errs := make(chan error, writers)
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := profiles.UpsertProfile(ctx, models.UpsertUserInput{SupabaseID: supabaseID, Name: fmt.Sprintf("writer-%d", i)})
				errs <- err
			}(i)
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			assert.NoError(t, err)
		}

		count, err := profiles.Collection.CountDocuments(ctx, bson.M{"supabase_id": supabaseID})
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		found, err := profiles.FindProfileBySupabaseID(ctx, supabaseID)
		require.NoError(t, err)
		assert.Equal(t, int64(writers), found.Version)
	}
}

func TestMongoStaffCollection_UpdateLastLogin(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	staff := &models.StaffAccount{Username: "ops", PasswordHash: "hash", Role: models.RoleOperator, IsActive: true}
	require.NoError(t, store.Staff.InsertStaff(ctx, staff))

	require.NoError(t, store.Staff.UpdateLastLogin(ctx, staff.ID.Hex()))

	found, err := store.Staff.FindStaffByUsername(ctx, "ops")
	require.NoError(t, err)
	require.NotNil(t, found.LastLogin)
	assert.WithinDuration(t, time.Now(), *found.LastLogin, time.Minute)

	_, err = store.Staff.FindStaffByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}
