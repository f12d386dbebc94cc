package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/duels-api/internal/domain/entity"
	"github.com/yourusername/duels-api/internal/domain/repository"
	apperrors "github.com/yourusername/duels-api/internal/pkg/errors"
)

// ============================================================================
// Моки для DuelService
// ============================================================================

// MockDuelRepository реализует repository.DuelRepository
type MockDuelRepository struct {
	mock.Mock
}

func (m *MockDuelRepository) Create(duel *entity.Duel) error {
	args := m.Called(duel)
	return args.Error(0)
}

func (m *MockDuelRepository) GetByID(id uint) (*entity.Duel, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Duel), args.Error(1)
}

func (m *MockDuelRepository) GetWithParticipants(id uint) (*entity.Duel, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Duel), args.Error(1)
}

func (m *MockDuelRepository) GetByInviteCode(code string) (*entity.Duel, error) {
	args := m.Called(code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Duel), args.Error(1)
}

func (m *MockDuelRepository) List(filter repository.DuelListFilter) ([]entity.Duel, int64, error) {
	args := m.Called(filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]entity.Duel), args.Get(1).(int64), args.Error(2)
}

func (m *MockDuelRepository) ListByCreator(creatorID uint, limit, offset int) ([]entity.Duel, error) {
	args := m.Called(creatorID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Duel), args.Error(1)
}

func (m *MockDuelRepository) ListByParticipant(userID uint, limit, offset int) ([]entity.Duel, error) {
	args := m.Called(userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Duel), args.Error(1)
}

func (m *MockDuelRepository) AddStake(duelID, userID uint, prediction string, stake float64, txSignature string) (*entity.Participant, error) {
	args := m.Called(duelID, userID, prediction, stake, txSignature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Participant), args.Error(1)
}

func (m *MockDuelRepository) GetParticipant(duelID, userID uint) (*entity.Participant, error) {
	args := m.Called(duelID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Participant), args.Error(1)
}

func (m *MockDuelRepository) GetParticipants(duelID uint) ([]entity.Participant, error) {
	args := m.Called(duelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Participant), args.Error(1)
}

func (m *MockDuelRepository) FinalizeResolution(duel *entity.Duel) error {
	args := m.Called(duel)
	return args.Error(0)
}

func (m *MockDuelRepository) MarkClaimed(participantID uint, txSignature string) (bool, error) {
	args := m.Called(participantID, txSignature)
	return args.Bool(0), args.Error(1)
}

func (m *MockDuelRepository) Cancel(duelID uint) error {
	args := m.Called(duelID)
	return args.Error(0)
}

func (m *MockDuelRepository) MarkRefunded(participantID uint) (bool, error) {
	args := m.Called(participantID)
	return args.Bool(0), args.Error(1)
}

func (m *MockDuelRepository) GetResolvedParticipations(userID uint) ([]repository.ResolvedParticipation, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.ResolvedParticipation), args.Error(1)
}

// MockUserRepository реализует repository.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(user *entity.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(id uint) (*entity.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(email string) (*entity.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) GetByUsername(username string) (*entity.User, error) {
	args := m.Called(username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) GetByWalletAddress(address string) (*entity.User, error) {
	args := m.Called(address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) Update(user *entity.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) ApplyDuelOutcome(userID uint, won bool, payout float64) error {
	args := m.Called(userID, won, payout)
	return args.Error(0)
}

func (m *MockUserRepository) ReplaceStats(userID uint, stats entity.User) error {
	args := m.Called(userID, stats)
	return args.Error(0)
}

func (m *MockUserRepository) List(limit, offset int) ([]entity.User, error) {
	args := m.Called(limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.User), args.Error(1)
}

func (m *MockUserRepository) GetLeaderboard(limit, offset int) ([]entity.User, int64, error) {
	args := m.Called(limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]entity.User), args.Get(1).(int64), args.Error(2)
}

// MockCacheRepository реализует repository.CacheRepository
type MockCacheRepository struct {
	mock.Mock
}

func (m *MockCacheRepository) Set(key string, value interface{}, expiration time.Duration) error {
	args := m.Called(key, value, expiration)
	return args.Error(0)
}

func (m *MockCacheRepository) Get(key string) (string, error) {
	args := m.Called(key)
	return args.String(0), args.Error(1)
}

func (m *MockCacheRepository) Delete(key string) error {
	args := m.Called(key)
	return args.Error(0)
}

func (m *MockCacheRepository) SetJSON(key string, value interface{}, expiration time.Duration) error {
	args := m.Called(key, value, expiration)
	return args.Error(0)
}

func (m *MockCacheRepository) GetJSON(key string, dest interface{}) error {
	args := m.Called(key, dest)
	return args.Error(0)
}

func (m *MockCacheRepository) Exists(key string) (bool, error) {
	args := m.Called(key)
	return args.Bool(0), args.Error(1)
}

func (m *MockCacheRepository) SetNX(key string, value interface{}, expiration time.Duration) (bool, error) {
	args := m.Called(key, value, expiration)
	return args.Bool(0), args.Error(1)
}

// ============================================================================
// Вспомогательные функции
// ============================================================================

func newTestDuelService(duelRepo *MockDuelRepository, userRepo *MockUserRepository, cacheRepo *MockCacheRepository) *DuelService {
	var cache repository.CacheRepository
	if cacheRepo != nil {
		cache = cacheRepo
	}
	return NewDuelService(duelRepo, userRepo, cache, nil, nil, DefaultDuelConfig())
}

func resolvableDuel(creatorID uint) *entity.Duel {
	past := time.Now().Add(-time.Hour)
	duel := &entity.Duel{
		ID:          1,
		CreatorID:   creatorID,
		Question:    "BTC выше 100k к концу недели?",
		Category:    entity.DuelCategoryCrypto,
		DuelType:    entity.DuelTypePublic,
		StakeAmount: 0.5,
		Deadline:    past,
		Status:      entity.DuelStatusActive,
		PoolSize:    3.0,
		YesPool:     1.0,
		NoPool:      2.0,
		Participants: []entity.Participant{
			{ID: 10, DuelID: 1, UserID: 100, Prediction: entity.OutcomeYes, Stake: 1.0},
			{ID: 11, DuelID: 1, UserID: 200, Prediction: entity.OutcomeNo, Stake: 2.0},
		},
	}
	return duel
}

func expectResolveLock(cacheRepo *MockCacheRepository, duelID uint) {
	cacheRepo.On("SetNX", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
	cacheRepo.On("Delete", mock.Anything).Return(nil)
}

// ============================================================================
// CreateDuel
// ============================================================================

func TestCreateDuel_Success(t *testing.T) {
	duelRepo := new(MockDuelRepository)
	svc := newTestDuelService(duelRepo, new(MockUserRepository), nil)

	duelRepo.On("Create", mock.AnythingOfType("*entity.Duel")).Run(func(args mock.Arguments) {
		args.Get(0).(*entity.Duel).ID = 7
	}).Return(nil)

	duel, err := svc.CreateDuel(1, "Дождь завтра в Москве?", entity.DuelCategoryWeather,
		entity.DuelTypePublic, 0.5, time.Now().Add(24*time.Hour))

	require.NoError(t, err)
	assert.Equal(t, uint(7), duel.ID)
	assert.Equal(t, entity.DuelStatusPending, duel.Status)
	assert.Empty(t, duel.InviteCode)
	duelRepo.AssertExpectations(t)
}

func TestCreateDuel_ChallengeGetsInviteCode(t *testing.T) {
	duelRepo := new(MockDuelRepository)
	svc := newTestDuelService(duelRepo, new(MockUserRepository), nil)

	duelRepo.On("Create", mock.AnythingOfType("*entity.Duel")).Return(nil)

	duel, err := svc.CreateDuel(1, "Кто выиграет матч?", entity.DuelCategorySports,
		entity.DuelTypeChallenge, 0.5, time.Now().Add(time.Hour))

	require.NoError(t, err)
	assert.NotEmpty(t, duel.InviteCode)
}

func TestCreateDuel_Validation(t *testing.T) {
	svc := newTestDuelService(new(MockDuelRepository), new(MockUserRepository), nil)
	future := time.Now().Add(time.Hour)

	testCases := []struct {
		name     string
		question string
		category string
		duelType string
		stake    float64
		deadline time.Time
	}{
		{"empty question", "", entity.DuelCategoryCrypto, entity.DuelTypePublic, 0.5, future},
		{"question too long", string(make([]byte, 201)), entity.DuelCategoryCrypto, entity.DuelTypePublic, 0.5, future},
		{"unknown category", "q?", "politics", entity.DuelTypePublic, 0.5, future},
		{"unknown type", "q?", entity.DuelCategoryCrypto, "private", 0.5, future},
		{"stake below minimum", "q?", entity.DuelCategoryCrypto, entity.DuelTypePublic, 0.005, future},
		{"deadline in the past", "q?", entity.DuelCategoryCrypto, entity.DuelTypePublic, 0.5, time.Now().Add(-time.Minute)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateDuel(1, tc.question, tc.category, tc.duelType, tc.stake, tc.deadline)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}
}

// ============================================================================
// JoinDuel
// ============================================================================

func TestJoinDuel_Success(t *testing.T) {
	duelRepo := new(MockDuelRepository)
	svc := newTestDuelService(duelRepo, new(MockUserRepository), nil)

	duel := &entity.Duel{
		ID:        1,
		CreatorID: 1,
		Status:    entity.DuelStatusPending,
		Deadline:  time.Now().Add(time.Hour),
	}
	duelRepo.On("GetByID", uint(1)).Return(duel, nil)
	duelRepo.On("AddStake", uint(1), uint(2), entity.OutcomeYes, 0.5, "sig123").
		Return(&entity.Participant{ID: 10, DuelID: 1, UserID: 2, Prediction: entity.OutcomeYes, Stake: 0.5}, nil)

	participant, err := svc.JoinDuel(context.Background(), 1, 2, entity.OutcomeYes, 0.5, "sig123")

	require.NoError(t, err)
	assert.Equal(t, uint(10), participant.ID)
	duelRepo.AssertExpectations(t)
}

func TestJoinDuel_AfterDeadline(t *testing.T) {
	duelRepo := new(MockDuelRepository)
	svc := newTestDuelService(duelRepo, new(MockUserRepository), nil)

	duel := &entity.Duel{
		ID:       1,
		Status:   entity.DuelStatusActive,
		Deadline: time.Now().Add(-time.Minute),
	}
	duelRepo.On("GetByID", uint(1)).Return(duel, nil)

	_, err := svc.JoinDuel(context.Background(), 1, 2, entity.OutcomeYes, 0.5, "")
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestJoinDuel_ResolvedDuel(t *testing.T) {
	duelRepo := new(MockDuelRepository)
	svc := newTestDuelService(duelRepo, new(MockUserRepository), nil)

	duel := &entity.Duel{
		ID:       1,
		Status:   entity.DuelStatusResolved,
		Deadline: time.Now().Add(time.Hour),
	}
	duelRepo.On("GetByID", uint(1)).Return(duel, nil)

	_, err := svc.JoinDuel(context.Background(), 1, 2, entity.OutcomeYes, 0.5, "")
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestJoinDuel_PredictionMismatch(t *testing.T) {
	duelRepo := new(MockDuelRepository)
	svc := newTestDuelService(duelRepo, new(MockUserRepository), nil)

	duel := &entity.Duel{
		ID:       1,
		Status:   entity.DuelStatusActive,
		Deadline: time.Now().Add(time.Hour),
	}
	duelRepo.On("GetByID", uint(1)).Return(duel, nil)
	duelRepo.On("AddStake", uint(1), uint(2), entity.OutcomeNo, 0.5, "").
		Return(nil, repository.ErrPredictionMismatch)

	_, err := svc.JoinDuel(context.Background(), 1, 2, entity.OutcomeNo, 0.5, "")
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestJoinDuel_InvalidPrediction(t *testing.T) {
	svc := newTestDuelService(new(MockDuelRepository), new(MockUserRepository), nil)

	_, err := svc.JoinDuel(context.Background(), 1, 2, "maybe", 0.5, "")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

// ============================================================================
// ResolveDuel
// ============================================================================

func TestResolveDuel_Success(t *testing.T) {
	duelRepo := new(MockDuelRepository)
	userRepo := new(MockUserRepository)
	cacheRepo := new(MockCacheRepository)
	svc := newTestDuelService(duelRepo, userRepo, cacheRepo)

	duel := resolvableDuel(1)
	duelRepo.On("GetWithParticipants", uint(1)).Return(duel, nil)
	expectResolveLock(cacheRepo, 1)
	duelRepo.On("FinalizeResolution", duel).Return(nil)
	userRepo.On("ApplyDuelOutcome", uint(100), true, 3.0).Return(nil)
	userRepo.On("ApplyDuelOutcome", uint(200), false, 0.0).Return(nil)

	resolved, err := svc.ResolveDuel(context.Background(), 1, 1, entity.OutcomeYes, "resolveSig")

	require.NoError(t, err)
	assert.Equal(t, entity.OutcomeYes, resolved.Outcome)
	require.NotNil(t, resolved.ResolvedAt)

	// Единственный ставивший на yes забирает весь пул
	assert.True(t, resolved.Participants[0].Won)
	assert.InDelta(t, 3.0, resolved.Participants[0].Payout, 0.001)
	assert.False(t, resolved.Participants[1].Won)
	assert.Zero(t, resolved.Participants[1].Payout)

	duelRepo.AssertExpectations(t)
	userRepo.AssertExpectations(t)
}

func TestResolveDuel_NotCreator(t *testing.T) {
	duelRepo := new(MockDuelRepository)
	svc := newTestDuelService(duelRepo, new(MockUserRepository), nil)

	duelRepo.On("GetWithParticipants", uint(1)).Return(resolvableDuel(1), nil)

	_, err := svc.ResolveDuel(context.Background(), 1, 999, entity.OutcomeYes, "")
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	duelRepo.AssertNotCalled(t, "FinalizeResolution", mock.Anything)
}

func TestResolveDuel_BeforeDeadline(t *testing.T) {
	duelRepo := new(MockDuelRepository)
	svc := newTestDuelService(duelRepo, new(MockUserRepository), nil)

	duel := resolvableDuel(1)
	duel.Deadline = time.Now().Add(time.Hour)
	duelRepo.On("GetWithParticipants", uint(1)).Return(duel, nil)

	_, err := svc.ResolveDuel(context.Background(), 1, 1, entity.OutcomeYes, "")
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	duelRepo.AssertNotCalled(t, "FinalizeResolution", mock.Anything)
}

func TestResolveDuel_AlreadyResolved(t *testing.T) {
	duelRepo := new(MockDuelRepository)
	svc := newTestDuelService(duelRepo, new(MockUserRepository), nil)

	duel := resolvableDuel(1)
	duel.Status = entity.DuelStatusResolved
	duelRepo.On("GetWithParticipants", uint(1)).Return(duel, nil)

	_, err := svc.ResolveDuel(context.Background(), 1, 1, entity.OutcomeYes, "")
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestResolveDuel_InvalidOutcome(t *testing.T) {
	svc := newTestDuelService(new(MockDuelRepository), new(MockUserRepository), nil)

	_, err := svc.ResolveDuel(context.Background(), 1, 1, "draw", "")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestResolveDuel_NotFound(t *testing.T) {
	duelRepo := new(MockDuelRepository)
	svc := newTestDuelService(duelRepo, new(MockUserRepository), nil)

	duelRepo.On("GetWithParticipants", uint(1)).Return(nil, apperrors.ErrNotFound)

	_, err := svc.ResolveDuel(context.Background(), 1, 1, entity.OutcomeYes, "")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestJoinDuel_ConcurrentResolve(t *testing.T) {
	duelRepo := new(MockDuelRepository)
	svc := newTestDuelService(duelRepo, new(MockUserRepository), nil)

	// Дуэль открыта на момент проверки, но между проверкой и записью
	// ставки ее захватило конкурентное разрешение
	duel := &entity.Duel{
		ID:        1,
		CreatorID: 1,
		Status:    entity.DuelStatusActive,
		Deadline:  time.Now().Add(time.Second),
	}
	duelRepo.On("GetByID", uint(1)).Return(duel, nil)
	duelRepo.On("AddStake", uint(1), uint(2), entity.OutcomeYes, 0.5, "sig123").
		Return(nil, repository.ErrDuelNotOpen)

	_, err := svc.JoinDuel(context.Background(), 1, 2, entity.OutcomeYes, 0.5, "sig123")

	assert.ErrorIs(t, err, apperrors.ErrConflict)
	duelRepo.AssertExpectations(t)
}

func TestResolveDuel_ConcurrentFinalize(t *testing.T) {
	duelRepo := new(MockDuelRepository)
	svc := newTestDuelService(duelRepo, new(MockUserRepository), nil)

	duel := resolvableDuel(1)
	duelRepo.On("GetWithParticipants", uint(1)).Return(duel, nil)
	duelRepo.On("FinalizeResolution", duel).Return(repository.ErrDuelNotResolvable)

	_, err := svc.ResolveDuel(context.Background(), 1, 1, entity.OutcomeYes, "")
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestResolveDuel_LockHeld(t *testing.T) {
	duelRepo := new(MockDuelRepository)
	cacheRepo := new(MockCacheRepository)
	svc := newTestDuelService(duelRepo, new(MockUserRepository), cacheRepo)

	duelRepo.On("GetWithParticipants", uint(1)).Return(resolvableDuel(1), nil)
	cacheRepo.On("SetNX", mock.Anything, mock.Anything, mock.Anything).Return(false, nil)

	_, err := svc.ResolveDuel(context.Background(), 1, 1, entity.OutcomeYes, "")
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	duelRepo.AssertNotCalled(t, "FinalizeResolution", mock.Anything)
}

// Сбой обновления статистики одного пользователя не откатывает разрешение
// и не мешает обновлению остальных.
func TestResolveDuel_StatsFailureIsIsolated(t *testing.T) {
	duelRepo := new(MockDuelRepository)
	userRepo := new(MockUserRepository)
	svc := newTestDuelService(duelRepo, userRepo, nil)

	duel := resolvableDuel(1)
	duelRepo.On("GetWithParticipants", uint(1)).Return(duel, nil)
	duelRepo.On("FinalizeResolution", duel).Return(nil)
	userRepo.On("ApplyDuelOutcome", uint(100), true, 3.0).Return(errors.New("db down"))
	userRepo.On("ApplyDuelOutcome", uint(200), false, 0.0).Return(nil)

	resolved, err := svc.ResolveDuel(context.Background(), 1, 1, entity.OutcomeYes, "")

	require.NoError(t, err)
	assert.Equal(t, entity.DuelStatusResolved, resolved.Status)
	userRepo.AssertCalled(t, "ApplyDuelOutcome", uint(200), false, 0.0)
}

// ============================================================================
// Claim
// ============================================================================

func TestClaim_Success(t *testing.T) {
	duelRepo := new(MockDuelRepository)
	svc := newTestDuelService(duelRepo, new(MockUserRepository), nil)

	duelRepo.On("GetByID", uint(1)).Return(&entity.Duel{ID: 1, Status: entity.DuelStatusResolved}, nil)
	duelRepo.On("GetParticipant", uint(1), uint(100)).Return(&entity.Participant{
		ID: 10, DuelID: 1, UserID: 100, Won: true, Payout: 3.0,
	}, nil)
	duelRepo.On("MarkClaimed", uint(10), "claimSig").Return(true, nil)

	participant, err := svc.Claim(context.Background(), 1, 100, "claimSig")

	require.NoError(t, err)
	assert.True(t, participant.Claimed)
	assert.Equal(t, "claimSig", participant.ClaimTxSignature)
}

func TestClaim_AlreadyClaimed(t *testing.T) {
	duelRepo := new(MockDuelRepository)
	svc := newTestDuelService(duelRepo, new(MockUserRepository), nil)

	duelRepo.On("GetByID", uint(1)).Return(&entity.Duel{ID: 1, Status: entity.DuelStatusResolved}, nil)
	duelRepo.On("GetParticipant", uint(1), uint(100)).Return(&entity.Participant{
		ID: 10, Won: true, Payout: 3.0, Claimed: true,
	}, nil)

	_, err := svc.Claim(context.Background(), 1, 100, "")
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	duelRepo.AssertNotCalled(t, "MarkClaimed", mock.Anything, mock.Anything)
}

// Условное обновление проиграло гонку: между чтением и записью выплату
// успел забрать конкурентный запрос.
func TestClaim_ConcurrentClaim(t *testing.T) {
	duelRepo := new(MockDuelRepository)
	svc := newTestDuelService(duelRepo, new(MockUserRepository), nil)

	duelRepo.On("GetByID", uint(1)).Return(&entity.Duel{ID: 1, Status: entity.DuelStatusResolved}, nil)
	duelRepo.On("GetParticipant", uint(1), uint(100)).Return(&entity.Participant{
		ID: 10, Won: true, Payout: 3.0,
	}, nil)
	duelRepo.On("MarkClaimed", uint(10), "").Return(false, nil)

	_, err := svc.Claim(context.Background(), 1, 100, "")
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestClaim_Loser(t *testing.T) {
	duelRepo := new(MockDuelRepository)
	svc := newTestDuelService(duelRepo, new(MockUserRepository), nil)

	duelRepo.On("GetByID", uint(1)).Return(&entity.Duel{ID: 1, Status: entity.DuelStatusResolved}, nil)
	duelRepo.On("GetParticipant", uint(1), uint(200)).Return(&entity.Participant{
		ID: 11, Won: false, Payout: 0,
	}, nil)

	_, err := svc.Claim(context.Background(), 1, 200, "")
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestClaim_DuelNotResolved(t *testing.T) {
	duelRepo := new(MockDuelRepository)
	svc := newTestDuelService(duelRepo, new(MockUserRepository), nil)

	duelRepo.On("GetByID", uint(1)).Return(&entity.Duel{ID: 1, Status: entity.DuelStatusActive}, nil)

	_, err := svc.Claim(context.Background(), 1, 100, "")
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

// ============================================================================
// Cancel / Refund
// ============================================================================

func TestCancel_Success(t *testing.T) {
	duelRepo := new(MockDuelRepository)
	svc := newTestDuelService(duelRepo, new(MockUserRepository), nil)

	duelRepo.On("GetByID", uint(1)).Return(&entity.Duel{ID: 1, CreatorID: 1, Status: entity.DuelStatusPending}, nil)
	duelRepo.On("Cancel", uint(1)).Return(nil)

	assert.NoError(t, svc.Cancel(1, 1))
}

func TestCancel_NotCreator(t *testing.T) {
	duelRepo := new(MockDuelRepository)
	svc := newTestDuelService(duelRepo, new(MockUserRepository), nil)

	duelRepo.On("GetByID", uint(1)).Return(&entity.Duel{ID: 1, CreatorID: 1}, nil)

	err := svc.Cancel(1, 2)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	duelRepo.AssertNotCalled(t, "Cancel", mock.Anything)
}

func TestCancel_WithParticipants(t *testing.T) {
	duelRepo := new(MockDuelRepository)
	svc := newTestDuelService(duelRepo, new(MockUserRepository), nil)

	duelRepo.On("GetByID", uint(1)).Return(&entity.Duel{ID: 1, CreatorID: 1, Status: entity.DuelStatusActive}, nil)
	duelRepo.On("Cancel", uint(1)).Return(repository.ErrDuelNotCancellable)

	err := svc.Cancel(1, 1)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestRefund_Success(t *testing.T) {
	duelRepo := new(MockDuelRepository)
	svc := newTestDuelService(duelRepo, new(MockUserRepository), nil)

	duelRepo.On("GetByID", uint(1)).Return(&entity.Duel{ID: 1, Status: entity.DuelStatusCancelled}, nil)
	duelRepo.On("GetParticipant", uint(1), uint(100)).Return(&entity.Participant{ID: 10, Stake: 0.5}, nil)
	duelRepo.On("MarkRefunded", uint(10)).Return(true, nil)

	participant, err := svc.Refund(context.Background(), 1, 100, "")
	require.NoError(t, err)
	assert.True(t, participant.Claimed)
}

func TestRefund_DuelNotCancelled(t *testing.T) {
	duelRepo := new(MockDuelRepository)
	svc := newTestDuelService(duelRepo, new(MockUserRepository), nil)

	duelRepo.On("GetByID", uint(1)).Return(&entity.Duel{ID: 1, Status: entity.DuelStatusActive}, nil)

	_, err := svc.Refund(context.Background(), 1, 100, "")
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}
