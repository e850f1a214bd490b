package repository

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"studiobook/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) GetState(ctx context.Context, userID int64) (*models.UserState, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserState), args.Error(1)
}

func (m *mockRepo) SetState(ctx context.Context, state *models.UserState) error {
	args := m.Called(ctx, state)
	return args.Error(0)
}

func (m *mockRepo) ClearState(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *mockRepo) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, userID, limit, window)
	return args.Bool(0), args.Error(1)
}

func TestFailoverStateRepository(t *testing.T) {
	primary := new(mockRepo)
	fallback := NewMemoryStateRepository(time.Hour)
	logger := zerolog.New(io.Discard)
	repo := NewFailoverStateRepository(primary, fallback, &logger)
	ctx := context.Background()

	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	t.Run("PrimarySuccess", func(t *testing.T) {
		state := &models.UserState{UserID: 1}
		primary.On("GetState", ctx, int64(1)).Return(state, nil).Once()

		got, err := repo.GetState(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, state, got)
		primary.AssertExpectations(t)
	})

	t.Run("SetStateFailover", func(t *testing.T) {
		state := &models.UserState{UserID: 2, CurrentStep: models.StateEnterName}
		primary.On("SetState", ctx, state).Return(errors.New("fail")).Once()

		require.NoError(t, repo.SetState(ctx, state))
		assert.True(t, repo.isDown.Load())

		stored, err := fallback.GetState(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, models.StateEnterName, stored.CurrentStep)
		primary.AssertExpectations(t)
	})

	t.Run("AlreadyDownSkipsPrimary", func(t *testing.T) {
		got, err := repo.GetState(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, models.StateEnterName, got.CurrentStep)

		allowed, err := repo.CheckRateLimit(ctx, 2, 10, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
		primary.AssertNotCalled(t, "GetState", ctx, int64(2))
	})

	t.Run("RecoveryAttemptFail", func(t *testing.T) {
		now = now.Add(2 * time.Minute)
		primary.On("GetState", ctx, int64(33)).Return(nil, errors.New("still fail")).Once()

		got, err := repo.GetState(ctx, 33)
		require.NoError(t, err)
		assert.Nil(t, got)
		assert.True(t, repo.isDown.Load())
		primary.AssertExpectations(t)
	})

	t.Run("Recovery", func(t *testing.T) {
		now = now.Add(2 * time.Minute)
		primary.On("CheckRateLimit", ctx, int64(3), 10, time.Minute).Return(true, nil).Once()

		allowed, err := repo.CheckRateLimit(ctx, 3, 10, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.False(t, repo.isDown.Load())
		primary.AssertExpectations(t)
	})

	t.Run("ClearStateClearsBoth", func(t *testing.T) {
		primary.On("ClearState", ctx, int64(2)).Return(nil).Once()

		require.NoError(t, repo.ClearState(ctx, 2))
		stored, err := fallback.GetState(ctx, 2)
		require.NoError(t, err)
		assert.Nil(t, stored)
		primary.AssertExpectations(t)
	})

	t.Run("CheckRateLimitFailover", func(t *testing.T) {
		primary.On("CheckRateLimit", ctx, int64(6), 1, time.Minute).Return(false, errors.New("fail")).Once()

		allowed, err := repo.CheckRateLimit(ctx, 6, 1, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.True(t, repo.isDown.Load())

		allowed, err = repo.CheckRateLimit(ctx, 6, 1, time.Minute)
		require.NoError(t, err)
		assert.False(t, allowed)
		primary.AssertExpectations(t)
	})
}
