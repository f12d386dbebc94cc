package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/duels-api/internal/domain/entity"
	"github.com/yourusername/duels-api/internal/domain/repository"
	apperrors "github.com/yourusername/duels-api/internal/pkg/errors"
	"github.com/yourusername/duels-api/internal/platform/solana"
	"github.com/yourusername/duels-api/internal/service/settlement"
)

const (
	// Ключ advisory-блокировки разрешения дуэли
	resolveLockKeyFmt = "duel:resolve_lock:%d"
	resolveLockTTL    = 30 * time.Second
)

// TransactionVerifier проверяет статус транзакции в сети Solana
type TransactionVerifier interface {
	GetTransaction(ctx context.Context, signature string) (*solana.TransactionInfo, error)
}

// DuelConfig содержит бизнес-параметры дуэлей
type DuelConfig struct {
	MinStake       float64
	MaxQuestionLen int
}

// DefaultDuelConfig возвращает параметры по умолчанию
func DefaultDuelConfig() DuelConfig {
	return DuelConfig{
		MinStake:       0.01,
		MaxQuestionLen: 200,
	}
}

// DuelService предоставляет методы для работы с дуэлями:
// создание, ставки, разрешение, выплаты и отмена.
type DuelService struct {
	duelRepo            repository.DuelRepository
	userRepo            repository.UserRepository
	cacheRepo           repository.CacheRepository
	txVerifier          TransactionVerifier
	notificationService *NotificationService
	config              DuelConfig
}

// NewDuelService создает новый сервис дуэлей.
// txVerifier и notificationService могут быть nil: проверка транзакций
// и уведомления тогда пропускаются.
func NewDuelService(
	duelRepo repository.DuelRepository,
	userRepo repository.UserRepository,
	cacheRepo repository.CacheRepository,
	txVerifier TransactionVerifier,
	notificationService *NotificationService,
	config DuelConfig,
) *DuelService {
	if config.MinStake <= 0 {
		config.MinStake = DefaultDuelConfig().MinStake
	}
	if config.MaxQuestionLen <= 0 {
		config.MaxQuestionLen = DefaultDuelConfig().MaxQuestionLen
	}
	return &DuelService{
		duelRepo:            duelRepo,
		userRepo:            userRepo,
		cacheRepo:           cacheRepo,
		txVerifier:          txVerifier,
		notificationService: notificationService,
		config:              config,
	}
}

// CreateDuel создает новую дуэль в статусе pending.
// Для challenge-дуэлей генерируется invite-код.
func (s *DuelService) CreateDuel(creatorID uint, question, category, duelType string, stakeAmount float64, deadline time.Time) (*entity.Duel, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is required", apperrors.ErrValidation)
	}
	if len(question) > s.config.MaxQuestionLen {
		return nil, fmt.Errorf("%w: question exceeds %d characters", apperrors.ErrValidation, s.config.MaxQuestionLen)
	}
	if !entity.ValidCategory(category) {
		return nil, fmt.Errorf("%w: unknown category %q", apperrors.ErrValidation, category)
	}
	if duelType != entity.DuelTypePublic && duelType != entity.DuelTypeChallenge {
		return nil, fmt.Errorf("%w: unknown duel type %q", apperrors.ErrValidation, duelType)
	}
	if stakeAmount < s.config.MinStake {
		return nil, fmt.Errorf("%w: stake must be at least %g SOL", apperrors.ErrValidation, s.config.MinStake)
	}
	if !deadline.After(time.Now()) {
		return nil, fmt.Errorf("%w: deadline must be in the future", apperrors.ErrValidation)
	}

	duel := &entity.Duel{
		CreatorID:   creatorID,
		Question:    question,
		Category:    category,
		DuelType:    duelType,
		StakeAmount: stakeAmount,
		Deadline:    deadline,
		Status:      entity.DuelStatusPending,
	}
	if duelType == entity.DuelTypeChallenge {
		duel.InviteCode = uuid.New().String()
	}

	if err := s.duelRepo.Create(duel); err != nil {
		return nil, err
	}
	log.Printf("[DuelService] Дуэль создана: ID=%d, создатель=%d, категория=%s", duel.ID, creatorID, category)
	return duel, nil
}

// JoinDuel добавляет ставку пользователя в дуэль. Повторная ставка того же
// пользователя с тем же прогнозом увеличивает существующую позицию.
func (s *DuelService) JoinDuel(ctx context.Context, duelID, userID uint, prediction string, stake float64, txSignature string) (*entity.Participant, error) {
	if !entity.ValidOutcome(prediction) {
		return nil, fmt.Errorf("%w: prediction must be %q or %q", apperrors.ErrValidation, entity.OutcomeYes, entity.OutcomeNo)
	}
	if stake < s.config.MinStake {
		return nil, fmt.Errorf("%w: stake must be at least %g SOL", apperrors.ErrValidation, s.config.MinStake)
	}

	duel, err := s.duelRepo.GetByID(duelID)
	if err != nil {
		return nil, err
	}
	if !duel.IsOpenForStakes(time.Now()) {
		return nil, fmt.Errorf("%w: duel is not open for stakes", apperrors.ErrConflict)
	}

	// Проверка транзакции рекомендательная: недоступность RPC не блокирует ставку
	s.verifyTransaction(ctx, txSignature, "stake")

	participant, err := s.duelRepo.AddStake(duelID, userID, prediction, stake, txSignature)
	if err != nil {
		if errors.Is(err, repository.ErrPredictionMismatch) {
			return nil, fmt.Errorf("%w: existing position is on the other side", apperrors.ErrConflict)
		}
		if errors.Is(err, repository.ErrDuelNotOpen) {
			// Дуэль разрешили или отменили между проверкой и записью ставки
			return nil, fmt.Errorf("%w: duel is not open for stakes", apperrors.ErrConflict)
		}
		return nil, err
	}

	if s.notificationService != nil && userID != duel.CreatorID {
		s.notificationService.Notify(duel.CreatorID, entity.NotificationTypeDuelJoined,
			"Новая ставка в вашей дуэли",
			fmt.Sprintf("Участник поставил %g SOL на %q", stake, prediction),
			map[string]interface{}{"duel_id": duelID, "prediction": prediction, "stake": stake},
		)
	}
	return participant, nil
}

// JoinByInviteCode добавляет ставку в challenge-дуэль по invite-коду
func (s *DuelService) JoinByInviteCode(ctx context.Context, inviteCode string, userID uint, prediction string, stake float64, txSignature string) (*entity.Participant, error) {
	duel, err := s.duelRepo.GetByInviteCode(inviteCode)
	if err != nil {
		return nil, err
	}
	return s.JoinDuel(ctx, duel.ID, userID, prediction, stake, txSignature)
}

// ResolveDuel разрешает дуэль: фиксирует исход, рассчитывает и записывает
// выплаты, затем обновляет статистику участников и рассылает уведомления.
//
// Все предусловия проверяются до каких-либо изменений. Конкурентные вызовы
// отсекаются условным обновлением статуса в FinalizeResolution; advisory-лок
// в Redis лишь сокращает бесполезную работу при одновременных запросах.
func (s *DuelService) ResolveDuel(ctx context.Context, duelID, callerID uint, outcome, txSignature string) (*entity.Duel, error) {
	if !entity.ValidOutcome(outcome) {
		return nil, fmt.Errorf("%w: outcome must be %q or %q", apperrors.ErrValidation, entity.OutcomeYes, entity.OutcomeNo)
	}

	duel, err := s.duelRepo.GetWithParticipants(duelID)
	if err != nil {
		return nil, err
	}
	if duel.CreatorID != callerID {
		return nil, fmt.Errorf("%w: only the creator can resolve a duel", apperrors.ErrForbidden)
	}
	if !duel.IsResolvable() {
		return nil, fmt.Errorf("%w: duel is already %s", apperrors.ErrConflict, duel.Status)
	}
	if time.Now().Before(duel.Deadline) {
		return nil, fmt.Errorf("%w: duel cannot be resolved before its deadline", apperrors.ErrConflict)
	}

	lockKey := fmt.Sprintf(resolveLockKeyFmt, duelID)
	if s.cacheRepo != nil {
		acquired, lockErr := s.cacheRepo.SetNX(lockKey, callerID, resolveLockTTL)
		if lockErr != nil {
			// Redis недоступен: полагаемся на условное обновление в БД
			log.Printf("[DuelService] Не удалось взять лок разрешения дуэли %d: %v", duelID, lockErr)
		} else if !acquired {
			return nil, fmt.Errorf("%w: duel resolution is already in progress", apperrors.ErrConflict)
		} else {
			defer func() {
				if delErr := s.cacheRepo.Delete(lockKey); delErr != nil {
					log.Printf("[DuelService] Не удалось снять лок разрешения дуэли %d: %v", duelID, delErr)
				}
			}()
		}
	}

	s.verifyTransaction(ctx, txSignature, "resolution")

	// Рассчитываем выплаты и заполняем участников
	payouts := settlement.Distribute(duel.PoolSize, outcome, settlement.PositionsFromDuel(duel))
	byParticipant := make(map[uint]settlement.Payout, len(payouts))
	for _, p := range payouts {
		byParticipant[p.ParticipantID] = p
	}
	for i := range duel.Participants {
		if p, ok := byParticipant[duel.Participants[i].ID]; ok {
			duel.Participants[i].Won = p.Won
			duel.Participants[i].Payout = p.Amount
		}
	}

	now := time.Now()
	duel.Outcome = outcome
	duel.ResolvedAt = &now
	duel.ResolutionTxSignature = txSignature

	if err := s.duelRepo.FinalizeResolution(duel); err != nil {
		if errors.Is(err, repository.ErrDuelNotResolvable) {
			return nil, fmt.Errorf("%w: duel was resolved concurrently", apperrors.ErrConflict)
		}
		return nil, err
	}
	duel.Status = entity.DuelStatusResolved

	// Статистика и уведомления после фиксации: их сбои не откатывают разрешение
	s.applyStats(duel, payouts)
	s.notifyResolved(duel)
	s.invalidateLeaderboard()

	return duel, nil
}

// applyStats применяет итоги дуэли к статистике каждого участника.
// Ошибка одного пользователя логируется и не блокирует остальных.
func (s *DuelService) applyStats(duel *entity.Duel, payouts []settlement.Payout) {
	for _, outcome := range settlement.MergeByUser(payouts) {
		if err := s.userRepo.ApplyDuelOutcome(outcome.UserID, outcome.Won, outcome.Payout); err != nil {
			log.Printf("[DuelService] Ошибка обновления статистики userID=%d по дуэли %d: %v", outcome.UserID, duel.ID, err)
		}
	}
}

func (s *DuelService) notifyResolved(duel *entity.Duel) {
	if s.notificationService == nil {
		return
	}
	for i := range duel.Participants {
		p := &duel.Participants[i]
		title := "Дуэль разрешена"
		message := fmt.Sprintf("Исход: %q. Ваша ставка не сыграла.", duel.Outcome)
		if p.Won {
			message = fmt.Sprintf("Исход: %q. Ваш выигрыш: %.2f", duel.Outcome, p.Payout)
		}
		s.notificationService.Notify(p.UserID, entity.NotificationTypeDuelResolved, title, message,
			map[string]interface{}{"duel_id": duel.ID, "outcome": duel.Outcome, "won": p.Won, "payout": p.Payout},
		)
	}
}

// Claim выдает выигрыш участнику разрешенной дуэли. Повторная попытка
// возвращает конфликт: выплата помечается полученной условным обновлением.
func (s *DuelService) Claim(ctx context.Context, duelID, userID uint, txSignature string) (*entity.Participant, error) {
	duel, err := s.duelRepo.GetByID(duelID)
	if err != nil {
		return nil, err
	}
	if !duel.IsResolved() {
		return nil, fmt.Errorf("%w: duel is not resolved", apperrors.ErrConflict)
	}

	participant, err := s.duelRepo.GetParticipant(duelID, userID)
	if err != nil {
		return nil, err
	}
	if !participant.Won || participant.Payout <= 0 {
		return nil, fmt.Errorf("%w: nothing to claim", apperrors.ErrForbidden)
	}
	if participant.Claimed {
		return nil, fmt.Errorf("%w: payout already claimed", apperrors.ErrConflict)
	}

	s.verifyTransaction(ctx, txSignature, "claim")

	claimed, err := s.duelRepo.MarkClaimed(participant.ID, txSignature)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, fmt.Errorf("%w: payout already claimed", apperrors.ErrConflict)
	}

	participant.Claimed = true
	participant.ClaimTxSignature = txSignature
	log.Printf("[DuelService] Выплата получена: дуэль=%d, userID=%d, сумма=%.2f", duelID, userID, participant.Payout)
	return participant, nil
}

// Cancel отменяет дуэль. Разрешено только создателю, только для pending-дуэли
// без участников.
func (s *DuelService) Cancel(duelID, callerID uint) error {
	duel, err := s.duelRepo.GetByID(duelID)
	if err != nil {
		return err
	}
	if duel.CreatorID != callerID {
		return fmt.Errorf("%w: only the creator can cancel a duel", apperrors.ErrForbidden)
	}
	if err := s.duelRepo.Cancel(duelID); err != nil {
		if errors.Is(err, repository.ErrDuelNotCancellable) {
			return fmt.Errorf("%w: duel cannot be cancelled", apperrors.ErrConflict)
		}
		return err
	}
	log.Printf("[DuelService] Дуэль отменена: ID=%d", duelID)
	return nil
}

// Refund возвращает ставку участнику отмененной дуэли.
// Возврат помечается тем же флагом claimed, что и выплата.
func (s *DuelService) Refund(ctx context.Context, duelID, userID uint, txSignature string) (*entity.Participant, error) {
	duel, err := s.duelRepo.GetByID(duelID)
	if err != nil {
		return nil, err
	}
	if !duel.IsCancelled() {
		return nil, fmt.Errorf("%w: duel is not cancelled", apperrors.ErrConflict)
	}

	participant, err := s.duelRepo.GetParticipant(duelID, userID)
	if err != nil {
		return nil, err
	}
	if participant.Claimed {
		return nil, fmt.Errorf("%w: stake already refunded", apperrors.ErrConflict)
	}

	s.verifyTransaction(ctx, txSignature, "refund")

	refunded, err := s.duelRepo.MarkRefunded(participant.ID)
	if err != nil {
		return nil, err
	}
	if !refunded {
		return nil, fmt.Errorf("%w: stake already refunded", apperrors.ErrConflict)
	}

	participant.Claimed = true
	return participant, nil
}

// GetByID возвращает дуэль по ID
func (s *DuelService) GetByID(duelID uint) (*entity.Duel, error) {
	return s.duelRepo.GetByID(duelID)
}

// GetWithParticipants возвращает дуэль вместе с участниками
func (s *DuelService) GetWithParticipants(duelID uint) (*entity.Duel, error) {
	return s.duelRepo.GetWithParticipants(duelID)
}

// List возвращает дуэли по фильтру с пагинацией
func (s *DuelService) List(filter repository.DuelListFilter) ([]entity.Duel, int64, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	for _, status := range filter.Statuses {
		if !entity.ValidStatus(status) {
			return nil, 0, fmt.Errorf("%w: unknown status %q", apperrors.ErrValidation, status)
		}
	}
	if filter.Category != "" && !entity.ValidCategory(filter.Category) {
		return nil, 0, fmt.Errorf("%w: unknown category %q", apperrors.ErrValidation, filter.Category)
	}
	return s.duelRepo.List(filter)
}

// ListByCreator возвращает дуэли, созданные пользователем
func (s *DuelService) ListByCreator(creatorID uint, limit, offset int) ([]entity.Duel, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.duelRepo.ListByCreator(creatorID, limit, offset)
}

// ListByParticipant возвращает дуэли, в которых пользователь участвует
func (s *DuelService) ListByParticipant(userID uint, limit, offset int) ([]entity.Duel, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.duelRepo.ListByParticipant(userID, limit, offset)
}

// verifyTransaction проверяет подпись транзакции через RPC.
// Проверка рекомендательная: любой отказ только логируется.
func (s *DuelService) verifyTransaction(ctx context.Context, signature, kind string) {
	if s.txVerifier == nil || signature == "" {
		return
	}
	info, err := s.txVerifier.GetTransaction(ctx, signature)
	if err != nil {
		log.Printf("[DuelService] Проверка %s-транзакции %s не удалась: %v", kind, signature, err)
		return
	}
	if info == nil {
		log.Printf("[DuelService] %s-транзакция %s не найдена в сети", kind, signature)
		return
	}
	if !info.Confirmed() {
		log.Printf("[DuelService] %s-транзакция %s не подтверждена (status=%s, err=%v)", kind, signature, info.ConfirmationStatus, info.Err)
	}
}

func (s *DuelService) invalidateLeaderboard() {
	if s.cacheRepo == nil {
		return
	}
	if err := s.cacheRepo.Delete(leaderboardCacheKey); err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		log.Printf("[DuelService] Не удалось инвалидировать кеш лидерборда: %v", err)
	}
}
