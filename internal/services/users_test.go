package services

import (
	"context"
	"sync"
	"testing"

	apperrors "inkpost/internal/errors"
	"inkpost/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_EnsureUser(t *testing.T) {
	gdb := setupTestDB(t)
	svc := NewUserService(gdb)
	ctx := context.Background()

	u, err := svc.EnsureUser(ctx, " John.Doe@Example.com ", "John Doe")
	require.NoError(t, err)
	assert.NotZero(t, u.ID)
	assert.Equal(t, "john.doe@example.com", u.Email)

	again, err := svc.EnsureUser(ctx, "john.doe@example.com", "")
	require.NoError(t, err)
	assert.Equal(t, u.ID, again.ID)
	assert.Equal(t, "John Doe", again.Name)

	renamed, err := svc.EnsureUser(ctx, "john.doe@example.com", "Johnny")
	require.NoError(t, err)
	assert.Equal(t, u.ID, renamed.ID)

	loaded, err := svc.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Johnny", loaded.Name)
}

func TestUserService_EnsureUserRequiresEmail(t *testing.T) {
	svc := NewUserService(setupTestDB(t))

	_, err := svc.EnsureUser(context.Background(), "  ", "Nobody")
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
}

func TestUserService_EnsureUserConcurrent(t *testing.T) {
	gdb := setupTestDB(t)
	svc := NewUserService(gdb)

	const workers = 5
	got := make([]uint, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			u, err := svc.EnsureUser(context.Background(), "race@example.com", "Racer")
			if assert.NoError(t, err) {
				got[i] = u.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range got {
		assert.Equal(t, got[0], id)
	}
	var n int64
	require.NoError(t, gdb.Model(&models.User{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestUserService_GetMissing(t *testing.T) {
	svc := NewUserService(setupTestDB(t))

	_, err := svc.Get(context.Background(), 7)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}
