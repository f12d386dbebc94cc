package entity

import (
	"time"
)

// Константы статусов дуэли
const (
	DuelStatusPending   = "pending"
	DuelStatusActive    = "active"
	DuelStatusResolving = "resolving"
	DuelStatusResolved  = "resolved"
	DuelStatusCancelled = "cancelled"
)

// Константы исходов и прогнозов
const (
	OutcomeYes = "yes"
	OutcomeNo  = "no"
)

// Константы типов дуэли
const (
	DuelTypePublic    = "public"
	DuelTypeChallenge = "challenge"
)

// Константы категорий дуэли
const (
	DuelCategoryCrypto  = "crypto"
	DuelCategoryWeather = "weather"
	DuelCategorySports  = "sports"
	DuelCategoryMeme    = "meme"
	DuelCategoryLocal   = "local"
	DuelCategoryOther   = "other"
)

// Duel представляет дуэль — рынок предсказаний с бинарным исходом yes/no.
// Пул складывается из ставок участников и после разрешения распределяется
// между победителями пропорционально ставкам.
type Duel struct {
	ID                    uint          `gorm:"primaryKey" json:"id"`
	CreatorID             uint          `gorm:"not null;index" json:"creator_id"`
	Question              string        `gorm:"size:200;not null" json:"question"`
	Category              string        `gorm:"size:20;not null;default:'other';index" json:"category"`
	DuelType              string        `gorm:"size:20;not null;default:'public'" json:"duel_type"`
	InviteCode            string        `gorm:"size:36;not null;default:'';index" json:"invite_code,omitempty"`
	StakeAmount           float64       `gorm:"type:decimal(20,9);not null" json:"stake_amount"`
	Deadline              time.Time     `gorm:"not null;index" json:"deadline"`
	Status                string        `gorm:"size:20;not null;default:'pending';index" json:"status"`
	Outcome               string        `gorm:"size:5;not null;default:''" json:"outcome,omitempty"`
	PoolSize              float64       `gorm:"type:decimal(20,9);not null;default:0" json:"pool_size"`
	YesPool               float64       `gorm:"type:decimal(20,9);not null;default:0" json:"yes_pool"`
	NoPool                float64       `gorm:"type:decimal(20,9);not null;default:0" json:"no_pool"`
	YesCount              int           `gorm:"not null;default:0" json:"yes_count"`
	NoCount               int           `gorm:"not null;default:0" json:"no_count"`
	TotalParticipants     int           `gorm:"not null;default:0" json:"total_participants"`
	ResolutionTxSignature string        `gorm:"size:128;not null;default:''" json:"resolution_tx_signature,omitempty"`
	ResolvedAt            *time.Time    `gorm:"type:timestamp" json:"resolved_at,omitempty"`
	Participants          []Participant `gorm:"foreignKey:DuelID" json:"participants,omitempty"`
	CreatedAt             time.Time     `json:"created_at"`
	UpdatedAt             time.Time     `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Duel) TableName() string {
	return "duels"
}

// IsOpenForStakes проверяет, можно ли еще делать ставки
func (d *Duel) IsOpenForStakes(now time.Time) bool {
	return (d.Status == DuelStatusPending || d.Status == DuelStatusActive) &&
		now.Before(d.Deadline)
}

// IsResolvable проверяет, находится ли дуэль в статусе, допускающем разрешение.
// Проверка дедлайна выполняется отдельно сервисом.
func (d *Duel) IsResolvable() bool {
	return d.Status == DuelStatusPending || d.Status == DuelStatusActive
}

// IsResolved проверяет, разрешена ли дуэль
func (d *Duel) IsResolved() bool {
	return d.Status == DuelStatusResolved
}

// IsCancelled проверяет, отменена ли дуэль
func (d *Duel) IsCancelled() bool {
	return d.Status == DuelStatusCancelled
}

// WinningPool возвращает сумму ставок на сторону outcome.
// Для пустого или неизвестного исхода возвращает 0.
func (d *Duel) WinningPool(outcome string) float64 {
	switch outcome {
	case OutcomeYes:
		return d.YesPool
	case OutcomeNo:
		return d.NoPool
	default:
		return 0
	}
}

// ValidOutcome проверяет, что значение исхода — yes или no
func ValidOutcome(outcome string) bool {
	return outcome == OutcomeYes || outcome == OutcomeNo
}

// ValidCategory проверяет, что категория из списка поддерживаемых
func ValidCategory(category string) bool {
	switch category {
	case DuelCategoryCrypto, DuelCategoryWeather, DuelCategorySports,
		DuelCategoryMeme, DuelCategoryLocal, DuelCategoryOther:
		return true
	}
	return false
}

// ValidStatus проверяет, что статус из списка поддерживаемых
func ValidStatus(status string) bool {
	switch status {
	case DuelStatusPending, DuelStatusActive, DuelStatusResolving,
		DuelStatusResolved, DuelStatusCancelled:
		return true
	}
	return false
}
