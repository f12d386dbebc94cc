package entity

import (
	"log"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// User представляет пользователя в системе.
// Статистика (wins/losses/streaks) поддерживается инкрементально при каждом
// разрешении дуэли и может быть пересчитана из записей участников.
type User struct {
	ID                  uint   `gorm:"primaryKey" json:"id"`
	Username            string `gorm:"size:50;not null;uniqueIndex" json:"username"`
	Email               string `gorm:"size:100;not null;default:'';index" json:"email,omitempty"`
	Password            string `gorm:"size:100;not null;default:''" json:"-"`
	PasswordAuthEnabled bool   `gorm:"not null;default:true" json:"-"`
	WalletAddress       string `gorm:"size:64;not null;default:'';uniqueIndex:idx_users_wallet,where:wallet_address <> ''" json:"wallet_address,omitempty"`
	ProfilePicture      string `gorm:"size:255;not null;default:''" json:"profile_picture"`
	Role                string `gorm:"size:20;not null;default:'user'" json:"-"` // "user" или "admin"

	Wins          int64   `gorm:"not null;default:0;index:idx_users_leaderboard" json:"wins"`
	Losses        int64   `gorm:"not null;default:0" json:"losses"`
	WinRate       float64 `gorm:"type:decimal(5,2);not null;default:0" json:"win_rate"`
	TotalEarned   float64 `gorm:"type:decimal(20,2);not null;default:0;index:idx_users_leaderboard" json:"total_earned"`
	CurrentStreak int64   `gorm:"not null;default:0" json:"current_streak"`
	BestStreak    int64   `gorm:"not null;default:0" json:"best_streak"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (User) TableName() string {
	return "users"
}

// BeforeSave хеширует пароль перед сохранением, только если он не является bcrypt-хешем
func (u *User) BeforeSave(tx *gorm.DB) error {
	// Хешируем пароль только если он:
	// 1. Не пустой (wallet-only пользователи пароля не имеют)
	// 2. Не является уже bcrypt-хешем (начинается с "$2a$", "$2b$" или "$2y$")
	if len(u.Password) > 0 && !strings.HasPrefix(u.Password, "$2a$") &&
		!strings.HasPrefix(u.Password, "$2b$") && !strings.HasPrefix(u.Password, "$2y$") {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Printf("[User.BeforeSave] Ошибка при хешировании пароля для username=%s: %v", u.Username, err)
			return err
		}
		u.Password = string(hashedPassword)
	}
	return nil
}

// CheckPassword проверяет, соответствует ли переданный пароль хешу
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}

// GamesPlayed возвращает количество разрешенных дуэлей с участием пользователя
func (u *User) GamesPlayed() int64 {
	return u.Wins + u.Losses
}
