package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/duels-api/internal/config"
	"github.com/yourusername/duels-api/internal/handler"
	"github.com/yourusername/duels-api/internal/middleware"
	"github.com/yourusername/duels-api/internal/platform/solana"
	pgRepo "github.com/yourusername/duels-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/duels-api/internal/repository/redis"
	"github.com/yourusername/duels-api/internal/service"
	ws "github.com/yourusername/duels-api/internal/websocket"
	"github.com/yourusername/duels-api/pkg/auth"
	"github.com/yourusername/duels-api/pkg/database"
)

func main() {
	// Загружаем конфигурацию
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	log.Printf("Загрузка конфигурации из %s", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	isProduction := os.Getenv("GIN_MODE") == "release"

	// Инициализируем подключение к PostgreSQL
	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString())
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	// Применяем миграции
	if err := database.MigrateDB(db); err != nil {
		log.Printf("Failed to migrate database: %v", err)
		os.Exit(1)
	}

	// Инициализируем подключение к Redis
	redisClient, err := database.NewUniversalRedisClient(cfg.Redis)
	if err != nil {
		log.Printf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	log.Println("Successfully connected to Redis")

	// Инициализируем репозитории
	userRepo := pgRepo.NewUserRepo(db)
	duelRepo := pgRepo.NewDuelRepo(db)
	notificationRepo := pgRepo.NewNotificationRepo(db)

	cacheRepo, err := redisRepo.NewCacheRepo(redisClient)
	if err != nil {
		log.Printf("Failed to initialize CacheRepo: %v", err)
		os.Exit(1)
	}

	// Инициализируем JWT сервис
	jwtService, err := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpirationHrs)
	if err != nil {
		log.Printf("Failed to initialize JWTService: %v", err)
		os.Exit(1)
	}

	// Инициализируем WebSocket хаб
	wsHub := ws.NewHub()
	go wsHub.Run()
	wsManager := ws.NewManager(wsHub)

	// Инициализируем Solana RPC клиент, если включена проверка транзакций
	var txVerifier service.TransactionVerifier
	if cfg.Solana.VerifyTransactions {
		txVerifier = solana.NewClient(cfg.Solana.RPCEndpoint,
			time.Duration(cfg.Solana.RequestTimeoutSec)*time.Second)
		log.Printf("Проверка транзакций включена: %s", cfg.Solana.RPCEndpoint)
	} else {
		log.Println("Проверка транзакций отключена")
	}

	// Инициализируем сервисы
	notificationService := service.NewNotificationService(notificationRepo, wsHub)
	duelService := service.NewDuelService(duelRepo, userRepo, cacheRepo, txVerifier, notificationService,
		service.DuelConfig{
			MinStake:       cfg.Duel.MinStake,
			MaxQuestionLen: cfg.Duel.MaxQuestionLen,
		})
	userService := service.NewUserService(userRepo, duelRepo, cacheRepo,
		time.Duration(cfg.Duel.LeaderboardCacheTTLSec)*time.Second)
	authService := service.NewAuthService(userRepo, cacheRepo, jwtService)

	// Инициализируем обработчики
	authHandler := handler.NewAuthHandler(authService)
	duelHandler := handler.NewDuelHandler(duelService, userService)
	userHandler := handler.NewUserHandler(userService)
	notificationHandler := handler.NewNotificationHandler(notificationService)
	wsHandler := handler.NewWSHandler(wsManager, jwtService)

	authMiddleware := middleware.NewAuthMiddleware(jwtService)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	// Инициализируем роутер Gin
	router := gin.Default()

	// Настройка доверенных прокси для корректной работы c.ClientIP()
	if isProduction {
		if err := router.SetTrustedProxies(nil); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	} else {
		if err := router.SetTrustedProxies([]string{"127.0.0.1", "::1"}); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	}

	// Настройка CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173", "http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Настраиваем маршруты API
	api := router.Group("/api")
	{
		// Аутентификация
		authGroup := api.Group("/auth")
		authGroup.Use(rateLimiter.Limit(middleware.DefaultAuthRateLimitConfig()))
		{
			strictLimit := rateLimiter.Limit(middleware.StrictAuthRateLimitConfig())
			authGroup.POST("/register", strictLimit, authHandler.Register)
			authGroup.POST("/login", strictLimit, authHandler.Login)
			authGroup.POST("/wallet/nonce", authHandler.WalletNonce)
			authGroup.POST("/wallet/login", strictLimit, authHandler.WalletLogin)
			authGroup.GET("/me", authMiddleware.RequireAuth(), authHandler.Me)
		}

		// Пользователи и статистика
		users := api.Group("/users")
		{
			users.GET("/leaderboard", userHandler.GetLeaderboard)

			userWithID := users.Group("/:id")
			userWithID.Use(middleware.ExtractUintParam("id", "targetUserID"))
			{
				userWithID.GET("/stats", userHandler.GetUserStats)
			}

			me := users.Group("/me")
			me.Use(authMiddleware.RequireAuth())
			{
				me.PUT("", userHandler.UpdateProfile)
				me.GET("/stats", userHandler.GetMyStats)
				me.POST("/stats/recalculate", userHandler.RecalculateMyStats)
			}
		}

		// Дуэли
		duels := api.Group("/duels")
		{
			duels.GET("", duelHandler.ListDuels)

			authedDuels := duels.Group("")
			authedDuels.Use(authMiddleware.RequireAuth())
			{
				authedDuels.POST("", duelHandler.CreateDuel)
				authedDuels.GET("/my", duelHandler.MyDuels)
				authedDuels.POST("/invite/:code/join", duelHandler.JoinByInviteCode)
			}

			duelWithID := duels.Group("/:id")
			duelWithID.Use(middleware.ExtractUintParam("id", "duelID"))
			{
				duelWithID.GET("", authMiddleware.OptionalAuth(), duelHandler.GetDuel)

				authedDuelWithID := duelWithID.Group("")
				authedDuelWithID.Use(authMiddleware.RequireAuth())
				authedDuelWithID.Use(rateLimiter.Limit(middleware.StakeRateLimitConfig()))
				{
					authedDuelWithID.POST("/join", duelHandler.JoinDuel)
					authedDuelWithID.POST("/resolve", duelHandler.ResolveDuel)
					authedDuelWithID.POST("/claim", duelHandler.Claim)
					authedDuelWithID.POST("/cancel", duelHandler.CancelDuel)
					authedDuelWithID.POST("/refund", duelHandler.Refund)
					authedDuelWithID.GET("/results/export", duelHandler.ExportResults)
				}
			}
		}

		// Уведомления
		notifications := api.Group("/notifications")
		notifications.Use(authMiddleware.RequireAuth())
		{
			notifications.GET("", notificationHandler.List)
			notifications.GET("/unread_count", notificationHandler.UnreadCount)
			notifications.POST("/read_all", notificationHandler.MarkAllRead)

			notifWithID := notifications.Group("/:id")
			notifWithID.Use(middleware.ExtractUintParam("id", "notificationID"))
			{
				notifWithID.POST("/read", notificationHandler.MarkRead)
			}
		}
	}

	// WebSocket маршрут
	router.GET("/ws", wsHandler.HandleConnection)

	// Настраиваем HTTP сервер с тайм-аутами для защиты от slow client attacks
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Запускаем сервер в горутине
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
		}
	}()

	log.Printf("Server started on port %s", cfg.Server.Port)

	// Ожидаем сигнал остановки
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Останавливаем WebSocket хаб
	wsHub.Shutdown()

	// Создаем контекст с таймаутом для graceful shutdown сервера
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
		os.Exit(1)
	}

	if err := redisClient.Close(); err != nil {
		log.Printf("Error closing Redis client: %v", err)
	}

	log.Println("Server exited properly")
}
