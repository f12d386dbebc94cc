package dto

import "github.com/yourusername/duels-api/internal/domain/entity"

// UserResponse представляет публичный профиль пользователя
type UserResponse struct {
	ID             uint   `json:"id"`
	Username       string `json:"username"`
	WalletAddress  string `json:"wallet_address,omitempty"`
	ProfilePicture string `json:"profile_picture,omitempty"`
}

// NewUserResponse создает DTO из сущности пользователя
func NewUserResponse(user *entity.User) *UserResponse {
	return &UserResponse{
		ID:             user.ID,
		Username:       user.Username,
		WalletAddress:  user.WalletAddress,
		ProfilePicture: user.ProfilePicture,
	}
}

// AuthResponse представляет ответ на успешную аутентификацию
type AuthResponse struct {
	Token string        `json:"token"`
	User  *UserResponse `json:"user"`
}

// WalletNonceResponse содержит nonce и сообщение для подписи кошельком
type WalletNonceResponse struct {
	Nonce   string `json:"nonce"`
	Message string `json:"message"`
}

// UserStatsResponse представляет статистику пользователя
type UserStatsResponse struct {
	UserID        uint    `json:"user_id"`
	Username      string  `json:"username"`
	Wins          int64   `json:"wins"`
	Losses        int64   `json:"losses"`
	GamesPlayed   int64   `json:"games_played"`
	WinRate       float64 `json:"win_rate"`
	TotalEarned   float64 `json:"total_earned"`
	CurrentStreak int64   `json:"current_streak"`
	BestStreak    int64   `json:"best_streak"`
}

// LeaderboardUserDTO представляет одного пользователя в лидерборде
type LeaderboardUserDTO struct {
	Rank           int     `json:"rank"`            // Место пользователя в рейтинге
	UserID         uint    `json:"user_id"`         // ID пользователя
	Username       string  `json:"username"`        // Имя пользователя
	ProfilePicture string  `json:"profile_picture"` // Аватар пользователя
	Wins           int64   `json:"wins"`            // Количество побед
	WinRate        float64 `json:"win_rate"`        // Процент побед
	TotalEarned    float64 `json:"total_earned"`    // Суммарный выигрыш в SOL
	BestStreak     int64   `json:"best_streak"`     // Лучшая серия побед
}

// PaginatedLeaderboardResponse представляет пагинированный ответ для лидерборда
type PaginatedLeaderboardResponse struct {
	Users    []*LeaderboardUserDTO `json:"users"`     // Список пользователей на странице
	Total    int64                 `json:"total"`     // Общее количество пользователей в лидерборде
	Page     int                   `json:"page"`      // Текущая страница
	PageSize int                   `json:"page_size"` // Количество пользователей на странице
}
