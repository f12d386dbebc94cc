package settlement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/duels-api/internal/domain/entity"
)

func TestRound2_HalfUp(t *testing.T) {
	// Округление half-up на центе
	assert.Equal(t, 12.35, Round2(12.345))
	assert.Equal(t, 12.34, Round2(12.344))
	assert.Equal(t, 0.01, Round2(0.005))
	assert.Equal(t, 100.0, Round2(100.0))
	assert.Equal(t, 0.0, Round2(0))
}

func TestDistribute_SingleWinnerTakesPool(t *testing.T) {
	// Arrange: A ставит 30 на yes, B ставит 70 на no, пул 100
	positions := []Position{
		{ParticipantID: 1, UserID: 10, Prediction: entity.OutcomeYes, Stake: 30},
		{ParticipantID: 2, UserID: 20, Prediction: entity.OutcomeNo, Stake: 70},
	}

	// Act
	payouts := Distribute(100, entity.OutcomeYes, positions)

	// Assert: A забирает весь пул, B получает 0
	require.Len(t, payouts, 2)
	assert.True(t, payouts[0].Won)
	assert.Equal(t, 100.00, payouts[0].Amount)
	assert.False(t, payouts[1].Won)
	assert.Equal(t, 0.0, payouts[1].Amount)
}

func TestDistribute_ProportionalSplit(t *testing.T) {
	// Arrange: три победителя со ставками 10/20/30 при победившем пуле 60
	// внутри общего пула 120
	positions := []Position{
		{ParticipantID: 1, UserID: 1, Prediction: entity.OutcomeNo, Stake: 10},
		{ParticipantID: 2, UserID: 2, Prediction: entity.OutcomeNo, Stake: 20},
		{ParticipantID: 3, UserID: 3, Prediction: entity.OutcomeNo, Stake: 30},
		{ParticipantID: 4, UserID: 4, Prediction: entity.OutcomeYes, Stake: 60},
	}

	// Act
	payouts := Distribute(120, entity.OutcomeNo, positions)

	// Assert: выплаты 20/40/60, проигравший — 0
	require.Len(t, payouts, 4)
	assert.Equal(t, 20.00, payouts[0].Amount)
	assert.Equal(t, 40.00, payouts[1].Amount)
	assert.Equal(t, 60.00, payouts[2].Amount)
	assert.False(t, payouts[3].Won)
	assert.Equal(t, 0.0, payouts[3].Amount)
}

func TestDistribute_EmptyWinningPool(t *testing.T) {
	// Arrange: никто не ставил на победившую сторону
	positions := []Position{
		{ParticipantID: 1, UserID: 1, Prediction: entity.OutcomeNo, Stake: 50},
		{ParticipantID: 2, UserID: 2, Prediction: entity.OutcomeNo, Stake: 50},
	}

	// Act
	payouts := Distribute(100, entity.OutcomeYes, positions)

	// Assert: все выплаты нулевые, пул не распределяется, ошибки нет
	require.Len(t, payouts, 2)
	for _, p := range payouts {
		assert.False(t, p.Won)
		assert.Equal(t, 0.0, p.Amount)
	}
}

func TestDistribute_NoParticipants(t *testing.T) {
	payouts := Distribute(0, entity.OutcomeYes, nil)
	assert.Empty(t, payouts)
}

func TestDistribute_SumWithinRoundingTolerance(t *testing.T) {
	// Arrange: ставки, дающие неровные доли пула
	positions := []Position{
		{ParticipantID: 1, UserID: 1, Prediction: entity.OutcomeYes, Stake: 1},
		{ParticipantID: 2, UserID: 2, Prediction: entity.OutcomeYes, Stake: 1},
		{ParticipantID: 3, UserID: 3, Prediction: entity.OutcomeYes, Stake: 1},
		{ParticipantID: 4, UserID: 4, Prediction: entity.OutcomeNo, Stake: 97},
	}

	// Act
	payouts := Distribute(100, entity.OutcomeYes, positions)

	// Assert: сумма выплат равна пулу в пределах цента на участника
	var sum float64
	for _, p := range payouts {
		sum += p.Amount
	}
	tolerance := float64(len(positions)) * 0.01
	assert.InDelta(t, 100.0, sum, tolerance)
	// 100 * 1/3 = 33.333... -> 33.33 на каждого
	assert.Equal(t, 33.33, payouts[0].Amount)
}

func TestPositionsFromDuel(t *testing.T) {
	duel := &entity.Duel{
		Participants: []entity.Participant{
			{ID: 7, UserID: 70, Prediction: entity.OutcomeYes, Stake: 1.5},
			{ID: 8, UserID: 80, Prediction: entity.OutcomeNo, Stake: 2.5},
		},
	}

	positions := PositionsFromDuel(duel)

	require.Len(t, positions, 2)
	assert.Equal(t, uint(7), positions[0].ParticipantID)
	assert.Equal(t, uint(70), positions[0].UserID)
	assert.Equal(t, 1.5, positions[0].Stake)
	assert.Equal(t, entity.OutcomeNo, positions[1].Prediction)
}
