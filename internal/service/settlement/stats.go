package settlement

import (
	"github.com/yourusername/duels-api/internal/domain/entity"
)

// UserOutcome представляет агрегированный итог одной дуэли для одного
// пользователя: выиграл ли он хотя бы одной позицией и суммарная выплата.
type UserOutcome struct {
	UserID uint
	Won    bool
	Payout float64
}

// MergeByUser сворачивает выплаты в один итог на пользователя.
// Правило слияния: won — логическое ИЛИ по всем позициям, payout — сумма.
// Так пользователь, державший позиции на обеих сторонах (если это разрешено
// выше по стеку), учитывается в статистике ровно один раз за дуэль.
// Порядок результата — порядок первого появления пользователя.
func MergeByUser(payouts []Payout) []UserOutcome {
	index := make(map[uint]int, len(payouts))
	merged := make([]UserOutcome, 0, len(payouts))
	for _, p := range payouts {
		i, ok := index[p.UserID]
		if !ok {
			index[p.UserID] = len(merged)
			merged = append(merged, UserOutcome{UserID: p.UserID, Won: p.Won, Payout: p.Amount})
			continue
		}
		merged[i].Won = merged[i].Won || p.Won
		merged[i].Payout += p.Amount
	}
	return merged
}

// ApplyToStats применяет итог одной дуэли к накопленной статистике
// пользователя. Победа: wins+1, totalEarned += payout, серия растет;
// поражение: losses+1, серия обнуляется. WinRate пересчитывается всегда.
func ApplyToStats(user *entity.User, won bool, payout float64) {
	if won {
		user.Wins++
		user.TotalEarned = Round2(user.TotalEarned + payout)
		user.CurrentStreak++
		if user.CurrentStreak > user.BestStreak {
			user.BestStreak = user.CurrentStreak
		}
	} else {
		user.Losses++
		user.CurrentStreak = 0
	}
	user.WinRate = WinRate(user.Wins, user.Losses)
}

// WinRate возвращает процент побед, 0 при отсутствии сыгранных дуэлей
func WinRate(wins, losses int64) float64 {
	total := wins + losses
	if total == 0 {
		return 0
	}
	return Round2(float64(wins) / float64(total) * 100)
}
