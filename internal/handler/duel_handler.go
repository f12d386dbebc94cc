package handler

import (
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/yourusername/duels-api/internal/domain/entity"
	"github.com/yourusername/duels-api/internal/domain/repository"
	"github.com/yourusername/duels-api/internal/handler/dto"
	apperrors "github.com/yourusername/duels-api/internal/pkg/errors"
	"github.com/yourusername/duels-api/internal/service"
)

// DuelHandler обрабатывает запросы, связанные с дуэлями
type DuelHandler struct {
	duelService *service.DuelService
	userService *service.UserService
}

// NewDuelHandler создает новый обработчик дуэлей
func NewDuelHandler(duelService *service.DuelService, userService *service.UserService) *DuelHandler {
	return &DuelHandler{
		duelService: duelService,
		userService: userService,
	}
}

// CreateDuelRequest представляет запрос на создание дуэли
type CreateDuelRequest struct {
	Question    string    `json:"question" binding:"required,max=200"`
	Category    string    `json:"category" binding:"required"`
	DuelType    string    `json:"duel_type" binding:"omitempty"`
	StakeAmount float64   `json:"stake_amount" binding:"required,gt=0"`
	Deadline    time.Time `json:"deadline" binding:"required"`
}

// CreateDuel обрабатывает запрос на создание дуэли
// POST /api/duels
func (h *DuelHandler) CreateDuel(c *gin.Context) {
	var req CreateDuelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.DuelType == "" {
		req.DuelType = entity.DuelTypePublic
	}

	userID := c.MustGet("userID").(uint)
	duel, err := h.duelService.CreateDuel(userID, req.Question, req.Category, req.DuelType, req.StakeAmount, req.Deadline)
	if err != nil {
		h.handleDuelError(c, err)
		return
	}

	// Invite-код виден создателю в ответе на создание
	c.JSON(http.StatusCreated, dto.NewDuelResponse(duel, true))
}

// GetDuel возвращает дуэль с участниками
// GET /api/duels/:id
func (h *DuelHandler) GetDuel(c *gin.Context) {
	duelID := c.MustGet("duelID").(uint)

	duel, err := h.duelService.GetWithParticipants(duelID)
	if err != nil {
		h.handleDuelError(c, err)
		return
	}

	includeInvite := false
	if userID, exists := c.Get("userID"); exists {
		includeInvite = userID.(uint) == duel.CreatorID
	}
	c.JSON(http.StatusOK, dto.NewDuelResponse(duel, includeInvite))
}

// ListDuels возвращает список дуэлей с фильтрацией по статусам и категории
// GET /api/duels?status=active,pending&category=crypto&limit=20&offset=0
func (h *DuelHandler) ListDuels(c *gin.Context) {
	filter := repository.DuelListFilter{
		Category: c.Query("category"),
	}
	if statusParam := c.Query("status"); statusParam != "" {
		filter.Statuses = strings.Split(statusParam, ",")
	}
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	filter.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

	duels, total, err := h.duelService.List(filter)
	if err != nil {
		h.handleDuelError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPaginatedDuelsResponse(duels, total, filter.Limit, filter.Offset))
}

// MyDuels возвращает дуэли текущего пользователя: созданные и с участием
// GET /api/duels/my?role=created|joined
func (h *DuelHandler) MyDuels(c *gin.Context) {
	userID := c.MustGet("userID").(uint)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	var (
		duels []entity.Duel
		err   error
	)
	switch c.DefaultQuery("role", "created") {
	case "joined":
		duels, err = h.duelService.ListByParticipant(userID, limit, offset)
	default:
		duels, err = h.duelService.ListByCreator(userID, limit, offset)
	}
	if err != nil {
		h.handleDuelError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewListDuelsResponse(duels))
}

// JoinDuelRequest представляет запрос на ставку в дуэли
type JoinDuelRequest struct {
	Prediction  string  `json:"prediction" binding:"required"`
	Stake       float64 `json:"stake" binding:"required,gt=0"`
	TxSignature string  `json:"tx_signature" binding:"omitempty,max=128"`
}

// JoinDuel обрабатывает ставку в дуэли
// POST /api/duels/:id/join
func (h *DuelHandler) JoinDuel(c *gin.Context) {
	duelID := c.MustGet("duelID").(uint)
	userID := c.MustGet("userID").(uint)

	var req JoinDuelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	participant, err := h.duelService.JoinDuel(c.Request.Context(), duelID, userID, req.Prediction, req.Stake, req.TxSignature)
	if err != nil {
		h.handleDuelError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewParticipantResponse(participant))
}

// JoinByInviteCode обрабатывает ставку в challenge-дуэли по invite-коду
// POST /api/duels/invite/:code/join
func (h *DuelHandler) JoinByInviteCode(c *gin.Context) {
	code := c.Param("code")
	userID := c.MustGet("userID").(uint)

	var req JoinDuelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	participant, err := h.duelService.JoinByInviteCode(c.Request.Context(), code, userID, req.Prediction, req.Stake, req.TxSignature)
	if err != nil {
		h.handleDuelError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewParticipantResponse(participant))
}

// ResolveDuelRequest представляет запрос на разрешение дуэли
type ResolveDuelRequest struct {
	Outcome     string `json:"outcome" binding:"required"`
	TxSignature string `json:"tx_signature" binding:"omitempty,max=128"`
}

// ResolveDuel обрабатывает разрешение дуэли создателем
// POST /api/duels/:id/resolve
func (h *DuelHandler) ResolveDuel(c *gin.Context) {
	duelID := c.MustGet("duelID").(uint)
	userID := c.MustGet("userID").(uint)

	var req ResolveDuelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	duel, err := h.duelService.ResolveDuel(c.Request.Context(), duelID, userID, req.Outcome, req.TxSignature)
	if err != nil {
		h.handleDuelError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewDuelResponse(duel, false))
}

// ClaimRequest представляет запрос на получение выплаты
type ClaimRequest struct {
	TxSignature string `json:"tx_signature" binding:"omitempty,max=128"`
}

// Claim обрабатывает получение выигрыша
// POST /api/duels/:id/claim
func (h *DuelHandler) Claim(c *gin.Context) {
	duelID := c.MustGet("duelID").(uint)
	userID := c.MustGet("userID").(uint)

	var req ClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	participant, err := h.duelService.Claim(c.Request.Context(), duelID, userID, req.TxSignature)
	if err != nil {
		h.handleDuelError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"participant": dto.NewParticipantResponse(participant),
		"payout":      participant.Payout,
	})
}

// CancelDuel обрабатывает отмену дуэли создателем
// POST /api/duels/:id/cancel
func (h *DuelHandler) CancelDuel(c *gin.Context) {
	duelID := c.MustGet("duelID").(uint)
	userID := c.MustGet("userID").(uint)

	if err := h.duelService.Cancel(duelID, userID); err != nil {
		h.handleDuelError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

// Refund обрабатывает возврат ставки из отмененной дуэли
// POST /api/duels/:id/refund
func (h *DuelHandler) Refund(c *gin.Context) {
	duelID := c.MustGet("duelID").(uint)
	userID := c.MustGet("userID").(uint)

	var req ClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	participant, err := h.duelService.Refund(c.Request.Context(), duelID, userID, req.TxSignature)
	if err != nil {
		h.handleDuelError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"participant": dto.NewParticipantResponse(participant),
		"refund":      participant.Stake,
	})
}

// ExportResults экспортирует результаты разрешенной дуэли в CSV или Excel
// GET /api/duels/:id/results/export?format=csv|xlsx
func (h *DuelHandler) ExportResults(c *gin.Context) {
	duelID := c.MustGet("duelID").(uint)
	userID := c.MustGet("userID").(uint)
	format := c.DefaultQuery("format", "csv")

	duel, err := h.duelService.GetWithParticipants(duelID)
	if err != nil {
		h.handleDuelError(c, err)
		return
	}
	if duel.CreatorID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the creator can export results"})
		return
	}
	if !duel.IsResolved() {
		c.JSON(http.StatusConflict, gin.H{"error": "duel is not resolved"})
		return
	}

	usernames := h.resolveUsernames(duel.Participants)
	filename := fmt.Sprintf("duel_%d_results_%s", duelID, time.Now().Format("2006-01-02"))

	switch format {
	case "xlsx":
		h.exportXLSX(c, duel, usernames, filename)
	default:
		h.exportCSV(c, duel, usernames, filename)
	}
}

// resolveUsernames собирает имена участников; недоступные имена заменяются на ID
func (h *DuelHandler) resolveUsernames(participants []entity.Participant) map[uint]string {
	usernames := make(map[uint]string, len(participants))
	for i := range participants {
		id := participants[i].UserID
		if _, ok := usernames[id]; ok {
			continue
		}
		user, err := h.userService.GetByID(id)
		if err != nil {
			log.Printf("[DuelHandler] Не удалось получить пользователя %d для экспорта: %v", id, err)
			usernames[id] = fmt.Sprintf("user#%d", id)
			continue
		}
		usernames[id] = user.Username
	}
	return usernames
}

var exportHeaders = []string{"Пользователь", "Прогноз", "Ставка (SOL)", "Победитель", "Выплата", "Получено"}

func exportRow(p *entity.Participant, username string) []string {
	won := "Нет"
	if p.Won {
		won = "Да"
	}
	claimed := "Нет"
	if p.Claimed {
		claimed = "Да"
	}
	return []string{
		sanitizeForExcel(username),
		p.Prediction,
		strconv.FormatFloat(p.Stake, 'f', -1, 64),
		won,
		strconv.FormatFloat(p.Payout, 'f', 2, 64),
		claimed,
	}
}

// exportCSV экспортирует результаты в CSV с правильным экранированием спецсимволов
func (h *DuelHandler) exportCSV(c *gin.Context, duel *entity.Duel, usernames map[uint]string, filename string) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.csv\"", filename))

	// BOM для корректного отображения UTF-8 в Excel
	c.Writer.Write([]byte{0xEF, 0xBB, 0xBF})

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	writer.Write(exportHeaders)
	for i := range duel.Participants {
		p := &duel.Participants[i]
		writer.Write(exportRow(p, usernames[p.UserID]))
	}
}

// exportXLSX экспортирует результаты в Excel с использованием StreamWriter
func (h *DuelHandler) exportXLSX(c *gin.Context, duel *entity.Duel, usernames map[uint]string, filename string) {
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.xlsx\"", filename))

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Результаты"
	f.SetSheetName("Sheet1", sheetName)

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		log.Printf("[DuelHandler] Ошибка создания StreamWriter: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel file"})
		return
	}

	headers := make([]interface{}, len(exportHeaders))
	for i, hdr := range exportHeaders {
		headers[i] = hdr
	}
	if err := sw.SetRow("A1", headers); err != nil {
		log.Printf("[DuelHandler] Ошибка записи заголовков: %v", err)
	}

	for i := range duel.Participants {
		p := &duel.Participants[i]
		cell := fmt.Sprintf("A%d", i+2)
		strRow := exportRow(p, usernames[p.UserID])
		row := make([]interface{}, len(strRow))
		for j, v := range strRow {
			row[j] = v
		}
		if err := sw.SetRow(cell, row); err != nil {
			log.Printf("[DuelHandler] Ошибка записи строки %d: %v", i+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		log.Printf("[DuelHandler] Ошибка при Flush: %v", err)
	}
	if err := f.Write(c.Writer); err != nil {
		log.Printf("[DuelHandler] Ошибка записи Excel в response: %v", err)
	}
}

// sanitizeForExcel экранирует данные для защиты от formula injection в Excel/CSV
func sanitizeForExcel(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + s
	}
	return s
}

// handleDuelError обрабатывает ошибки сервисов дуэлей и отправляет соответствующий HTTP ответ
func (h *DuelHandler) handleDuelError(c *gin.Context, err error) {
	if errors.Is(err, apperrors.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrConflict) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrValidation) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrUnauthorized) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	} else if errors.Is(err, apperrors.ErrForbidden) {
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	} else {
		log.Printf("ERROR: Internal server error in DuelHandler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
