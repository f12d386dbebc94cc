package service

import (
	"crypto/ed25519"
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
	"github.com/yourusername/duels-api/pkg/auth"
)

const (
	// Шаблон сообщения, которое кошелек подписывает при входе
	walletSignMessageFmt = "Sign in to Duels\nNonce: %s"

	walletNonceKeyFmt = "auth:wallet_nonce:%s"
	walletNonceTTL    = 5 * time.Minute
)

// AuthService предоставляет методы регистрации и входа.
// Поддерживаются два способа: классический email/пароль и вход по подписи
// Solana-кошелька (nonce-challenge, подпись ed25519).
type AuthService struct {
	userRepo   repository.UserRepository
	cacheRepo  repository.CacheRepository
	jwtService *auth.JWTService
}

// NewAuthService создает новый сервис аутентификации
func NewAuthService(
	userRepo repository.UserRepository,
	cacheRepo repository.CacheRepository,
	jwtService *auth.JWTService,
) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		cacheRepo:  cacheRepo,
		jwtService: jwtService,
	}
}

// AuthResult содержит пользователя и выданный токен
type AuthResult struct {
	User  *entity.User
	Token string
}

// Register создает нового пользователя с email и паролем
func (s *AuthService) Register(username, email, password string) (*AuthResult, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	if username == "" || len(username) > 50 {
		return nil, fmt.Errorf("%w: username must be 1-50 characters", apperrors.ErrValidation)
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: valid email is required", apperrors.ErrValidation)
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", apperrors.ErrValidation)
	}

	if _, err := s.userRepo.GetByUsername(username); err == nil {
		return nil, fmt.Errorf("%w: username is already taken", apperrors.ErrConflict)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}
	if _, err := s.userRepo.GetByEmail(email); err == nil {
		return nil, fmt.Errorf("%w: email is already registered", apperrors.ErrConflict)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	user := &entity.User{
		Username:            username,
		Email:               email,
		Password:            password, // хешируется хуком BeforeSave
		PasswordAuthEnabled: true,
		Role:                "user",
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}

	token, err := s.jwtService.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	log.Printf("[AuthService] Зарегистрирован пользователь: ID=%d, username=%s", user.ID, username)
	return &AuthResult{User: user, Token: token}, nil
}

// Login выполняет вход по email и паролю
func (s *AuthService) Login(email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid email or password", apperrors.ErrUnauthorized)
		}
		return nil, err
	}
	if !user.PasswordAuthEnabled || !user.CheckPassword(password) {
		return nil, fmt.Errorf("%w: invalid email or password", apperrors.ErrUnauthorized)
	}

	token, err := s.jwtService.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token}, nil
}

// WalletNonce выдает одноразовый nonce для входа по кошельку.
// Nonce хранится в Redis с коротким TTL и привязан к адресу.
func (s *AuthService) WalletNonce(walletAddress string) (string, string, error) {
	if err := validateWalletAddress(walletAddress); err != nil {
		return "", "", err
	}

	nonce := uuid.New().String()
	key := fmt.Sprintf(walletNonceKeyFmt, walletAddress)
	if err := s.cacheRepo.Set(key, nonce, walletNonceTTL); err != nil {
		return "", "", fmt.Errorf("failed to store wallet nonce: %w", err)
	}

	message := fmt.Sprintf(walletSignMessageFmt, nonce)
	return nonce, message, nil
}

// WalletLogin проверяет подпись nonce-сообщения и выполняет вход.
// Пользователь создается автоматически при первом входе с кошельком.
func (s *AuthService) WalletLogin(walletAddress, signatureBase58 string) (*AuthResult, error) {
	if err := validateWalletAddress(walletAddress); err != nil {
		return nil, err
	}

	key := fmt.Sprintf(walletNonceKeyFmt, walletAddress)
	nonce, err := s.cacheRepo.Get(key)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: nonce expired or not requested", apperrors.ErrUnauthorized)
		}
		return nil, err
	}

	pubKey, err := solana.DecodeBase58(walletAddress)
	if err != nil || len(pubKey) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: invalid wallet address", apperrors.ErrValidation)
	}
	signature, err := solana.DecodeBase58(signatureBase58)
	if err != nil || len(signature) != ed25519.SignatureSize {
		return nil, fmt.Errorf("%w: invalid signature encoding", apperrors.ErrValidation)
	}

	message := []byte(fmt.Sprintf(walletSignMessageFmt, nonce))
	if !ed25519.Verify(ed25519.PublicKey(pubKey), message, signature) {
		return nil, fmt.Errorf("%w: signature verification failed", apperrors.ErrUnauthorized)
	}

	// Nonce одноразовый
	if err := s.cacheRepo.Delete(key); err != nil {
		log.Printf("[AuthService] Не удалось удалить nonce для %s: %v", walletAddress, err)
	}

	user, err := s.userRepo.GetByWalletAddress(walletAddress)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		user = &entity.User{
			Username:            defaultWalletUsername(walletAddress),
			WalletAddress:       walletAddress,
			PasswordAuthEnabled: false,
			Role:                "user",
		}
		if err := s.userRepo.Create(user); err != nil {
			return nil, err
		}
		log.Printf("[AuthService] Создан wallet-пользователь: ID=%d, wallet=%s", user.ID, walletAddress)
	}

	token, err := s.jwtService.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token}, nil
}

// GetUserByID возвращает пользователя по ID
func (s *AuthService) GetUserByID(userID uint) (*entity.User, error) {
	return s.userRepo.GetByID(userID)
}

func validateWalletAddress(address string) error {
	// Адрес Solana — base58 от 32-байтового публичного ключа (32-44 символа)
	if len(address) < 32 || len(address) > 44 {
		return fmt.Errorf("%w: invalid wallet address length", apperrors.ErrValidation)
	}
	return nil
}

// defaultWalletUsername формирует username из адреса кошелька: первые и
// последние 4 символа, как принято отображать адреса в кошельках.
func defaultWalletUsername(address string) string {
	return fmt.Sprintf("%s...%s-%s", address[:4], address[len(address)-4:], uuid.New().String()[:8])
}
