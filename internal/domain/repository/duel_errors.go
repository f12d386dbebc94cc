package repository

import "errors"

var (
	// ErrDuelNotResolvable означает, что условное обновление статуса не прошло:
	// дуэль уже разрешена, разрешается конкурентным запросом или отменена.
	ErrDuelNotResolvable = errors.New("duel is not in a resolvable state")
	// ErrDuelNotCancellable означает, что дуэль нельзя отменить:
	// она не в статусе pending или в ней уже есть участники.
	ErrDuelNotCancellable = errors.New("duel cannot be cancelled")
	// ErrPredictionMismatch означает попытку добавить ставку с прогнозом,
	// противоречащим уже существующей позиции участника.
	ErrPredictionMismatch = errors.New("prediction does not match existing position")
	// ErrDuelNotOpen означает, что условное обновление пулов не прошло:
	// дуэль была захвачена конкурентным разрешением или отменена
	// между проверкой и записью ставки.
	ErrDuelNotOpen = errors.New("duel is no longer open for stakes")
)
