package settlement

import (
	"math"

	"github.com/yourusername/duels-api/internal/domain/entity"
)

// Position представляет ставку участника, поданную на расчет выплат
type Position struct {
	ParticipantID uint
	UserID        uint
	Prediction    string
	Stake         float64
}

// Payout представляет результат расчета для одного участника
type Payout struct {
	ParticipantID uint
	UserID        uint
	Won           bool
	Amount        float64
}

// Round2 округляет сумму до центов (два знака) по правилу half-up.
// math.Round здесь не подходит: он округляет half away from zero,
// нам нужен детерминированный half-up для неотрицательных выплат.
func Round2(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}

// Distribute распределяет пул дуэли пропорционально ставкам победителей.
//
// Победители — участники, чей прогноз совпал с исходом. Каждый получает
// poolSize * (stake / winningPool), округленное до центов. Проигравшие
// получают 0. Если на победившую сторону никто не ставил (winningPool == 0),
// все выплаты нулевые — пул остается нераспределенным, это не ошибка.
//
// Сумма выплат не превышает poolSize более чем на погрешность округления
// (не больше цента на участника); расхождение не корректируется.
func Distribute(poolSize float64, outcome string, positions []Position) []Payout {
	var winningPool float64
	for _, p := range positions {
		if p.Prediction == outcome {
			winningPool += p.Stake
		}
	}

	payouts := make([]Payout, 0, len(positions))
	for _, p := range positions {
		won := p.Prediction == outcome
		amount := 0.0
		if won && winningPool > 0 {
			amount = Round2(poolSize * (p.Stake / winningPool))
		}
		payouts = append(payouts, Payout{
			ParticipantID: p.ParticipantID,
			UserID:        p.UserID,
			Won:           won,
			Amount:        amount,
		})
	}
	return payouts
}

// PositionsFromDuel строит позиции для расчета из участников дуэли
func PositionsFromDuel(duel *entity.Duel) []Position {
	positions := make([]Position, 0, len(duel.Participants))
	for _, p := range duel.Participants {
		positions = append(positions, Position{
			ParticipantID: p.ID,
			UserID:        p.UserID,
			Prediction:    p.Prediction,
			Stake:         p.Stake,
		})
	}
	return positions
}
