package dto

import (
	"time"

	"github.com/yourusername/duels-api/internal/domain/entity"
)

// ParticipantResponse представляет позицию участника в дуэли
type ParticipantResponse struct {
	ID         uint      `json:"id"`
	UserID     uint      `json:"user_id"`
	Prediction string    `json:"prediction"`
	Stake      float64   `json:"stake"`
	Won        bool      `json:"won"`
	Payout     float64   `json:"payout"`
	Claimed    bool      `json:"claimed"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewParticipantResponse создает DTO из сущности участника
func NewParticipantResponse(p *entity.Participant) *ParticipantResponse {
	return &ParticipantResponse{
		ID:         p.ID,
		UserID:     p.UserID,
		Prediction: p.Prediction,
		Stake:      p.Stake,
		Won:        p.Won,
		Payout:     p.Payout,
		Claimed:    p.Claimed,
		CreatedAt:  p.CreatedAt,
	}
}

// DuelResponse представляет дуэль в ответах API
type DuelResponse struct {
	ID                uint                   `json:"id"`
	CreatorID         uint                   `json:"creator_id"`
	Question          string                 `json:"question"`
	Category          string                 `json:"category"`
	DuelType          string                 `json:"duel_type"`
	InviteCode        string                 `json:"invite_code,omitempty"`
	StakeAmount       float64                `json:"stake_amount"`
	Deadline          time.Time              `json:"deadline"`
	Status            string                 `json:"status"`
	Outcome           string                 `json:"outcome,omitempty"`
	PoolSize          float64                `json:"pool_size"`
	YesPool           float64                `json:"yes_pool"`
	NoPool            float64                `json:"no_pool"`
	YesCount          int                    `json:"yes_count"`
	NoCount           int                    `json:"no_count"`
	TotalParticipants int                    `json:"total_participants"`
	ResolvedAt        *time.Time             `json:"resolved_at,omitempty"`
	CreatedAt         time.Time              `json:"created_at"`
	Participants      []*ParticipantResponse `json:"participants,omitempty"`
}

// NewDuelResponse создает DTO из сущности дуэли.
// includeInvite управляет видимостью invite-кода: он показывается
// только создателю challenge-дуэли.
func NewDuelResponse(duel *entity.Duel, includeInvite bool) *DuelResponse {
	resp := &DuelResponse{
		ID:                duel.ID,
		CreatorID:         duel.CreatorID,
		Question:          duel.Question,
		Category:          duel.Category,
		DuelType:          duel.DuelType,
		StakeAmount:       duel.StakeAmount,
		Deadline:          duel.Deadline,
		Status:            duel.Status,
		Outcome:           duel.Outcome,
		PoolSize:          duel.PoolSize,
		YesPool:           duel.YesPool,
		NoPool:            duel.NoPool,
		YesCount:          duel.YesCount,
		NoCount:           duel.NoCount,
		TotalParticipants: duel.TotalParticipants,
		ResolvedAt:        duel.ResolvedAt,
		CreatedAt:         duel.CreatedAt,
	}
	if includeInvite {
		resp.InviteCode = duel.InviteCode
	}
	if len(duel.Participants) > 0 {
		resp.Participants = make([]*ParticipantResponse, len(duel.Participants))
		for i := range duel.Participants {
			resp.Participants[i] = NewParticipantResponse(&duel.Participants[i])
		}
	}
	return resp
}

// PaginatedDuelsResponse представляет пагинированный список дуэлей
type PaginatedDuelsResponse struct {
	Duels  []*DuelResponse `json:"duels"`
	Total  int64           `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

// NewPaginatedDuelsResponse создает пагинированный ответ
func NewPaginatedDuelsResponse(duels []entity.Duel, total int64, limit, offset int) *PaginatedDuelsResponse {
	items := make([]*DuelResponse, len(duels))
	for i := range duels {
		items[i] = NewDuelResponse(&duels[i], false)
	}
	return &PaginatedDuelsResponse{
		Duels:  items,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}
}

// ListDuelsResponse представляет список дуэлей без общего количества
type ListDuelsResponse struct {
	Duels []*DuelResponse `json:"duels"`
}

// NewListDuelsResponse создает ответ-список
func NewListDuelsResponse(duels []entity.Duel) *ListDuelsResponse {
	items := make([]*DuelResponse, len(duels))
	for i := range duels {
		items[i] = NewDuelResponse(&duels[i], false)
	}
	return &ListDuelsResponse{Duels: items}
}
