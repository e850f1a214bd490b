package service

import (
	"context"
	"time"

	"studiobook/internal/domain"
	"studiobook/internal/models"

	"github.com/rs/zerolog"
)

// StateService stores per-operator conversation state for the bot.
type StateService struct {
	stateRepo domain.StateRepository
	logger    *zerolog.Logger
}

var _ domain.StateManager = (*StateService)(nil)

func NewStateService(stateRepo domain.StateRepository, logger *zerolog.Logger) *StateService {
	return &StateService{
		stateRepo: stateRepo,
		logger:    logger,
	}
}

func (s *StateService) GetUserState(ctx context.Context, userID int64) (*models.UserState, error) {
	state, err := s.stateRepo.GetState(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to get user state")
		return nil, err
	}
	return state, nil
}

func (s *StateService) SetUserState(ctx context.Context, userID int64, step string, data map[string]interface{}) error {
	return s.stateRepo.SetState(ctx, &models.UserState{
		UserID:      userID,
		CurrentStep: step,
		TempData:    data,
	})
}

func (s *StateService) ClearUserState(ctx context.Context, userID int64) error {
	return s.stateRepo.ClearState(ctx, userID)
}

func (s *StateService) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	return s.stateRepo.CheckRateLimit(ctx, userID, limit, window)
}

// OpenSlotPicker remembers the free slot an operator selected until a client
// is picked for it.
func (s *StateService) OpenSlotPicker(ctx context.Context, userID int64, date, timeSlot string) error {
	return s.SetUserState(ctx, userID, models.StatePickClient, map[string]interface{}{
		"date":      date,
		"time_slot": timeSlot,
	})
}

// PendingSlot returns the selection stored by OpenSlotPicker.
func (s *StateService) PendingSlot(ctx context.Context, userID int64) (date, timeSlot string, ok bool, err error) {
	state, err := s.GetUserState(ctx, userID)
	if err != nil {
		return "", "", false, err
	}
	date, timeSlot, ok = state.PendingSlot()
	return date, timeSlot, ok, nil
}
