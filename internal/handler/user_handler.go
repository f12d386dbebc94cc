package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/yourusername/duels-api/internal/pkg/errors"
	"github.com/yourusername/duels-api/internal/service"
)

// UserHandler обрабатывает запросы, связанные с пользователями и статистикой
type UserHandler struct {
	userService *service.UserService
}

// NewUserHandler создает новый обработчик пользователей
func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// GetLeaderboard возвращает таблицу лидеров
// GET /api/users/leaderboard?page=1&page_size=10
func (h *UserHandler) GetLeaderboard(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	response, err := h.userService.GetLeaderboard(page, pageSize)
	if err != nil {
		h.handleUserError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// GetUserStats возвращает статистику пользователя
// GET /api/users/:id/stats
func (h *UserHandler) GetUserStats(c *gin.Context) {
	userID := c.MustGet("targetUserID").(uint)

	stats, err := h.userService.GetUserStats(userID)
	if err != nil {
		h.handleUserError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetMyStats возвращает статистику текущего пользователя
// GET /api/users/me/stats
func (h *UserHandler) GetMyStats(c *gin.Context) {
	userID := c.MustGet("userID").(uint)

	stats, err := h.userService.GetUserStats(userID)
	if err != nil {
		h.handleUserError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// RecalculateMyStats пересчитывает статистику текущего пользователя из
// записей участников разрешенных дуэлей
// POST /api/users/me/stats/recalculate
func (h *UserHandler) RecalculateMyStats(c *gin.Context) {
	userID := c.MustGet("userID").(uint)

	stats, err := h.userService.RecalculateStats(userID)
	if err != nil {
		h.handleUserError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// UpdateProfileRequest представляет запрос на обновление профиля
type UpdateProfileRequest struct {
	Username       string `json:"username" binding:"omitempty,min=3,max=50"`
	ProfilePicture string `json:"profile_picture" binding:"omitempty,max=255"`
}

// UpdateProfile обновляет профиль текущего пользователя
// PUT /api/users/me
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID := c.MustGet("userID").(uint)

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userService.UpdateProfile(userID, req.Username, req.ProfilePicture)
	if err != nil {
		h.handleUserError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": user.ID, "username": user.Username, "profile_picture": user.ProfilePicture})
}

// handleUserError обрабатывает ошибки сервиса пользователей
func (h *UserHandler) handleUserError(c *gin.Context, err error) {
	if errors.Is(err, apperrors.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrValidation) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrConflict) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	} else {
		log.Printf("ERROR: Internal server error in UserHandler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
