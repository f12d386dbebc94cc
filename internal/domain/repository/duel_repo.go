package repository

import (
	"time"

	"github.com/yourusername/duels-api/internal/domain/entity"
)

// ResolvedParticipation — итог участия пользователя в одной разрешенной
// дуэли, в хронологическом порядке разрешения. Используется для
// пересчета статистики из авторитетных записей участников.
type ResolvedParticipation struct {
	DuelID     uint
	Won        bool
	Payout     float64
	ResolvedAt time.Time
}

// DuelListFilter задает параметры выборки списка дуэлей
type DuelListFilter struct {
	Statuses []string
	Category string
	Limit    int
	Offset   int
}

// DuelRepository определяет методы для работы с дуэлями и их участниками
type DuelRepository interface {
	Create(duel *entity.Duel) error
	GetByID(id uint) (*entity.Duel, error)
	// GetWithParticipants возвращает дуэль вместе со всеми участниками
	GetWithParticipants(id uint) (*entity.Duel, error)
	GetByInviteCode(code string) (*entity.Duel, error)
	List(filter DuelListFilter) ([]entity.Duel, int64, error)
	ListByCreator(creatorID uint, limit, offset int) ([]entity.Duel, error)
	ListByParticipant(userID uint, limit, offset int) ([]entity.Duel, error)

	// AddStake добавляет ставку участника: создает запись или увеличивает
	// существующую, обновляет пулы и счетчики дуэли и активирует pending-дуэль.
	// Все в одной транзакции.
	AddStake(duelID, userID uint, prediction string, stake float64, txSignature string) (*entity.Participant, error)
	GetParticipant(duelID, userID uint) (*entity.Participant, error)
	GetParticipants(duelID uint) ([]entity.Participant, error)

	// FinalizeResolution атомарно фиксирует разрешение дуэли: условным
	// обновлением захватывает дуэль (status -> resolving только из
	// pending/active), записывает won/payout всем участникам и переводит
	// дуэль в resolved. Если дуэль уже захвачена или разрешена конкурентным
	// запросом, возвращает ErrDuelNotResolvable без каких-либо изменений.
	FinalizeResolution(duel *entity.Duel) error

	// MarkClaimed условно помечает выплату полученной (claimed false -> true).
	// Возвращает false, если участник уже получил выплату.
	MarkClaimed(participantID uint, txSignature string) (bool, error)

	// Cancel условно отменяет дуэль: только из pending и только без участников.
	Cancel(duelID uint) error

	// MarkRefunded помечает ставку участника возвращенной после отмены дуэли.
	// Возвращает false при повторной попытке.
	MarkRefunded(participantID uint) (bool, error)

	// GetResolvedParticipations возвращает итоги всех разрешенных дуэлей
	// пользователя в порядке разрешения.
	GetResolvedParticipations(userID uint) ([]ResolvedParticipation, error)
}
