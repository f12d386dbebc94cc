package postgres

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/yourusername/duels-api/internal/domain/entity"
	"github.com/yourusername/duels-api/internal/domain/repository"
	apperrors "github.com/yourusername/duels-api/internal/pkg/errors"
)

// DuelRepo реализует repository.DuelRepository
type DuelRepo struct {
	db *gorm.DB
}

// NewDuelRepo создает новый репозиторий дуэлей
func NewDuelRepo(db *gorm.DB) *DuelRepo {
	return &DuelRepo{db: db}
}

// Create создает новую дуэль
func (r *DuelRepo) Create(duel *entity.Duel) error {
	return r.db.Create(duel).Error
}

// GetByID возвращает дуэль по ID
func (r *DuelRepo) GetByID(id uint) (*entity.Duel, error) {
	var duel entity.Duel
	err := r.db.First(&duel, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &duel, nil
}

// GetWithParticipants возвращает дуэль вместе с участниками в порядке вступления
func (r *DuelRepo) GetWithParticipants(id uint) (*entity.Duel, error) {
	var duel entity.Duel
	err := r.db.Preload("Participants", func(db *gorm.DB) *gorm.DB {
		return db.Order("participants.created_at ASC")
	}).First(&duel, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &duel, nil
}

// GetByInviteCode возвращает challenge-дуэль по коду приглашения
func (r *DuelRepo) GetByInviteCode(code string) (*entity.Duel, error) {
	var duel entity.Duel
	err := r.db.Where("invite_code = ?", code).First(&duel).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &duel, nil
}

// List возвращает дуэли по фильтру с общим количеством
func (r *DuelRepo) List(filter repository.DuelListFilter) ([]entity.Duel, int64, error) {
	var duels []entity.Duel
	var total int64

	query := r.db.Model(&entity.Duel{})
	if len(filter.Statuses) > 0 {
		// pq.Array: статусы передаются одним параметром-массивом
		query = query.Where("status = ANY(?)", pq.Array(filter.Statuses))
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("deadline ASC, id ASC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&duels).Error
	if err != nil {
		return nil, 0, err
	}
	return duels, total, nil
}

// ListByCreator возвращает дуэли, созданные пользователем
func (r *DuelRepo) ListByCreator(creatorID uint, limit, offset int) ([]entity.Duel, error) {
	var duels []entity.Duel
	err := r.db.Where("creator_id = ?", creatorID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&duels).Error
	return duels, err
}

// ListByParticipant возвращает дуэли, в которых пользователь делал ставки
func (r *DuelRepo) ListByParticipant(userID uint, limit, offset int) ([]entity.Duel, error) {
	var duels []entity.Duel
	err := r.db.
		Joins("JOIN participants ON participants.duel_id = duels.id").
		Where("participants.user_id = ?", userID).
		Order("duels.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&duels).Error
	return duels, err
}

// AddStake добавляет ставку участника в одной транзакции:
// создает или увеличивает позицию, обновляет пулы/счетчики дуэли
// и активирует pending-дуэль при первой ставке.
func (r *DuelRepo) AddStake(duelID, userID uint, prediction string, stake float64, txSignature string) (*entity.Participant, error) {
	var participant *entity.Participant

	err := r.db.Transaction(func(tx *gorm.DB) error {
		firstStake := false

		var existing entity.Participant
		err := tx.Where("duel_id = ? AND user_id = ?", duelID, userID).First(&existing).Error

		switch {
		case err == nil:
			// Повторная ставка: прогноз менять нельзя, сумма добавляется
			if existing.Prediction != prediction {
				return repository.ErrPredictionMismatch
			}
			if err := tx.Model(&entity.Participant{}).
				Where("id = ?", existing.ID).
				Updates(map[string]interface{}{
					"stake":              gorm.Expr("stake + ?", stake),
					"stake_tx_signature": txSignature,
					"updated_at":         time.Now(),
				}).Error; err != nil {
				return err
			}
			existing.Stake += stake
			participant = &existing

		case errors.Is(err, gorm.ErrRecordNotFound):
			newP := entity.Participant{
				DuelID:           duelID,
				UserID:           userID,
				Prediction:       prediction,
				Stake:            stake,
				StakeTxSignature: txSignature,
			}
			if err := tx.Create(&newP).Error; err != nil {
				// Конкурентное вступление того же пользователя: уникальный
				// индекс (duel_id, user_id) отдаст 23505
				var pgErr *pgconn.PgError
				if errors.As(err, &pgErr) && pgErr.Code == "23505" {
					return fmt.Errorf("%w: participant already exists", apperrors.ErrConflict)
				}
				return err
			}
			participant = &newP
			firstStake = true

		default:
			return err
		}

		// Обновляем агрегаты дуэли
		updates := map[string]interface{}{
			"pool_size":  gorm.Expr("pool_size + ?", stake),
			"updated_at": time.Now(),
		}
		if prediction == entity.OutcomeYes {
			updates["yes_pool"] = gorm.Expr("yes_pool + ?", stake)
			updates["yes_count"] = gorm.Expr("yes_count + ?", 1)
		} else {
			updates["no_pool"] = gorm.Expr("no_pool + ?", stake)
			updates["no_count"] = gorm.Expr("no_count + ?", 1)
		}
		// total_participants растет только при первой ставке пользователя
		if firstStake {
			updates["total_participants"] = gorm.Expr("total_participants + ?", 1)
		}
		// Предикат по статусу закрывает гонку с конкурентным разрешением:
		// если дуэль уже захвачена (resolving/resolved) или отменена,
		// обновление не пройдет и вся транзакция откатится вместе
		// с записью участника
		res := tx.Model(&entity.Duel{}).
			Where("id = ? AND status IN ?", duelID,
				[]string{entity.DuelStatusPending, entity.DuelStatusActive}).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repository.ErrDuelNotOpen
		}

		// Первая ставка активирует pending-дуэль
		if err := tx.Model(&entity.Duel{}).
			Where("id = ? AND status = ?", duelID, entity.DuelStatusPending).
			Update("status", entity.DuelStatusActive).Error; err != nil {
			return err
		}

		return nil
	})
	if err != nil {
		return nil, err
	}
	return participant, nil
}

// GetParticipant возвращает позицию пользователя в дуэли
func (r *DuelRepo) GetParticipant(duelID, userID uint) (*entity.Participant, error) {
	var participant entity.Participant
	err := r.db.Where("duel_id = ? AND user_id = ?", duelID, userID).
		First(&participant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &participant, nil
}

// GetParticipants возвращает всех участников дуэли в порядке вступления
func (r *DuelRepo) GetParticipants(duelID uint) ([]entity.Participant, error) {
	var participants []entity.Participant
	err := r.db.Where("duel_id = ?", duelID).
		Order("created_at ASC").
		Find(&participants).Error
	return participants, err
}

// FinalizeResolution атомарно фиксирует разрешение дуэли.
// Сначала условным обновлением захватываем дуэль (status -> resolving
// только из pending/active) — это закрывает гонку двух конкурентных
// разрешений: проигравший запрос получит 0 обновленных строк и
// ErrDuelNotResolvable. Затем в той же транзакции записываем итоги
// участников и переводим дуэль в resolved.
func (r *DuelRepo) FinalizeResolution(duel *entity.Duel) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&entity.Duel{}).
			Where("id = ? AND status IN ?", duel.ID,
				[]string{entity.DuelStatusPending, entity.DuelStatusActive}).
			Update("status", entity.DuelStatusResolving)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repository.ErrDuelNotResolvable
		}

		for i := range duel.Participants {
			p := &duel.Participants[i]
			if err := tx.Model(&entity.Participant{}).
				Where("id = ?", p.ID).
				Updates(map[string]interface{}{
					"won":        p.Won,
					"payout":     p.Payout,
					"updated_at": time.Now(),
				}).Error; err != nil {
				return fmt.Errorf("failed to update participant %d: %w", p.ID, err)
			}
		}

		if err := tx.Model(&entity.Duel{}).
			Where("id = ?", duel.ID).
			Updates(map[string]interface{}{
				"status":                  entity.DuelStatusResolved,
				"outcome":                 duel.Outcome,
				"resolution_tx_signature": duel.ResolutionTxSignature,
				"resolved_at":             duel.ResolvedAt,
				"updated_at":              time.Now(),
			}).Error; err != nil {
			return err
		}

		log.Printf("[DuelRepo] Дуэль #%d разрешена с исходом %q, участников: %d",
			duel.ID, duel.Outcome, len(duel.Participants))
		return nil
	})
}

// MarkClaimed условно помечает выплату полученной.
// Условие claimed = false закрывает гонку двух конкурентных запросов:
// второй получит 0 обновленных строк.
func (r *DuelRepo) MarkClaimed(participantID uint, txSignature string) (bool, error) {
	res := r.db.Model(&entity.Participant{}).
		Where("id = ? AND claimed = false AND won = true", participantID).
		Updates(map[string]interface{}{
			"claimed":            true,
			"claim_tx_signature": txSignature,
			"updated_at":         time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Cancel условно отменяет дуэль: только pending и только без участников
func (r *DuelRepo) Cancel(duelID uint) error {
	res := r.db.Model(&entity.Duel{}).
		Where("id = ? AND status = ? AND total_participants = 0",
			duelID, entity.DuelStatusPending).
		Update("status", entity.DuelStatusCancelled)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrDuelNotCancellable
	}
	return nil
}

// MarkRefunded помечает ставку возвращенной после отмены дуэли.
// Флаг claimed здесь переиспользуется как отметка о возврате.
func (r *DuelRepo) MarkRefunded(participantID uint) (bool, error) {
	res := r.db.Model(&entity.Participant{}).
		Where("id = ? AND claimed = false", participantID).
		Updates(map[string]interface{}{
			"claimed":    true,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// GetResolvedParticipations возвращает итоги разрешенных дуэлей пользователя
// в порядке разрешения. Источник истины для пересчета статистики.
func (r *DuelRepo) GetResolvedParticipations(userID uint) ([]repository.ResolvedParticipation, error) {
	var rows []repository.ResolvedParticipation
	err := r.db.Table("participants").
		Select("participants.duel_id, participants.won, participants.payout, duels.resolved_at").
		Joins("JOIN duels ON duels.id = participants.duel_id").
		Where("participants.user_id = ? AND duels.status = ?", userID, entity.DuelStatusResolved).
		Order("duels.resolved_at ASC, duels.id ASC").
		Scan(&rows).Error
	return rows, err
}
