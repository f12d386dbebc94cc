package settlement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/duels-api/internal/domain/entity"
)

func TestMergeByUser_SingleEntryPerUser(t *testing.T) {
	payouts := []Payout{
		{ParticipantID: 1, UserID: 10, Won: true, Amount: 25.50},
		{ParticipantID: 2, UserID: 20, Won: false, Amount: 0},
	}

	merged := MergeByUser(payouts)

	require.Len(t, merged, 2)
	assert.Equal(t, UserOutcome{UserID: 10, Won: true, Payout: 25.50}, merged[0])
	assert.Equal(t, UserOutcome{UserID: 20, Won: false, Payout: 0}, merged[1])
}

func TestMergeByUser_UserOnBothSides(t *testing.T) {
	// Arrange: пользователь 10 держит позиции на обеих сторонах дуэли
	payouts := []Payout{
		{ParticipantID: 1, UserID: 10, Won: true, Amount: 40},
		{ParticipantID: 2, UserID: 10, Won: false, Amount: 0},
		{ParticipantID: 3, UserID: 20, Won: true, Amount: 60},
	}

	// Act
	merged := MergeByUser(payouts)

	// Assert: won — ИЛИ по позициям, payout — сумма; одна запись на пользователя
	require.Len(t, merged, 2)
	assert.Equal(t, UserOutcome{UserID: 10, Won: true, Payout: 40}, merged[0])
	assert.Equal(t, UserOutcome{UserID: 20, Won: true, Payout: 60}, merged[1])
}

func TestApplyToStats_Win(t *testing.T) {
	// Arrange: пользователь с текущей серией 2
	user := &entity.User{
		Wins:          4,
		Losses:        5,
		TotalEarned:   100.00,
		CurrentStreak: 2,
		BestStreak:    3,
	}

	// Act: выигрыш с выплатой, уже округленной до центов
	ApplyToStats(user, true, 12.35)

	// Assert
	assert.Equal(t, int64(5), user.Wins)
	assert.Equal(t, int64(5), user.Losses)
	assert.Equal(t, 112.35, user.TotalEarned)
	assert.Equal(t, int64(3), user.CurrentStreak)
	assert.Equal(t, int64(3), user.BestStreak)
	assert.Equal(t, 50.0, user.WinRate)
}

func TestApplyToStats_WinExtendsBestStreak(t *testing.T) {
	user := &entity.User{Wins: 3, CurrentStreak: 3, BestStreak: 3}

	ApplyToStats(user, true, 1.00)

	assert.Equal(t, int64(4), user.CurrentStreak)
	assert.Equal(t, int64(4), user.BestStreak, "Лучшая серия должна расти вместе с текущей")
}

func TestApplyToStats_LossResetsStreak(t *testing.T) {
	user := &entity.User{
		Wins:          7,
		Losses:        2,
		TotalEarned:   50.00,
		CurrentStreak: 7,
		BestStreak:    7,
	}

	ApplyToStats(user, false, 0)

	assert.Equal(t, int64(7), user.Wins)
	assert.Equal(t, int64(3), user.Losses)
	assert.Equal(t, 50.00, user.TotalEarned, "Поражение не меняет заработок")
	assert.Equal(t, int64(0), user.CurrentStreak)
	assert.Equal(t, int64(7), user.BestStreak)
	assert.Equal(t, 70.0, user.WinRate)
}

func TestWinRate_ZeroGames(t *testing.T) {
	assert.Equal(t, 0.0, WinRate(0, 0))
}

func TestWinRate_Rounded(t *testing.T) {
	// 1/3 = 33.333... -> 33.33
	assert.Equal(t, 33.33, WinRate(1, 2))
	assert.Equal(t, 100.0, WinRate(5, 0))
}
