package entity

import (
	"time"
)

// Participant представляет позицию пользователя в дуэли: прогноз и ставку.
// На пару (duel_id, user_id) существует не более одной записи; повторная
// ставка того же пользователя добавляется к уже существующей.
type Participant struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	DuelID           uint      `gorm:"not null;index;uniqueIndex:idx_duel_user" json:"duel_id"`
	UserID           uint      `gorm:"not null;index;uniqueIndex:idx_duel_user" json:"user_id"`
	Prediction       string    `gorm:"size:5;not null" json:"prediction"`
	Stake            float64   `gorm:"type:decimal(20,9);not null" json:"stake"`
	Won              bool      `gorm:"not null;default:false" json:"won"`
	Payout           float64   `gorm:"type:decimal(20,2);not null;default:0" json:"payout"`
	Claimed          bool      `gorm:"not null;default:false" json:"claimed"`
	StakeTxSignature string    `gorm:"size:128;not null;default:''" json:"stake_tx_signature,omitempty"`
	ClaimTxSignature string    `gorm:"size:128;not null;default:''" json:"claim_tx_signature,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Participant) TableName() string {
	return "participants"
}

// CanClaim проверяет, может ли участник получить выигрыш:
// победил, выплата положительная и еще не получена.
func (p *Participant) CanClaim() bool {
	return p.Won && p.Payout > 0 && !p.Claimed
}
