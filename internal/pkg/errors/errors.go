package errors

import "errors"

// Общие ошибки приложения
var (
	// ErrNotFound используется, когда запись или ресурс не найдены.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized используется для ошибок авторизации (неверный токен, нет прав).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden используется, когда действие доступно только другому пользователю
	// (например, разрешение дуэли не её создателем).
	ErrForbidden = errors.New("forbidden")

	// ErrValidation используется для ошибок валидации входных данных
	// (неверный исход, отсутствующая подпись транзакции и т.д.).
	ErrValidation = errors.New("validation failed")

	// ErrExpiredToken используется, когда токен доступа истек.
	ErrExpiredToken = errors.New("token is expired")

	// ErrConflict используется для конфликтов состояния: дуэль уже разрешена,
	// дедлайн еще не наступил, выигрыш уже получен и т.п.
	ErrConflict = errors.New("resource state conflict")
)
