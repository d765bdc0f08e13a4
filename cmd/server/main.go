package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"trivia-bot/internal/auth"
	"trivia-bot/internal/bot"
	"trivia-bot/internal/config"
	"trivia-bot/internal/questions"
	"trivia-bot/internal/registry"
	"trivia-bot/internal/scheduler"
	"trivia-bot/internal/trivia"
	"trivia-bot/pkg/cache"
	"trivia-bot/pkg/database"
	"trivia-bot/pkg/logger"
	"trivia-bot/pkg/websocket"
)

func main() {
	hashPassword := flag.String("hash-password", "", "print a bcrypt hash for OPERATOR_PASSWORD_HASH and exit")
	flag.Parse()

	if *hashPassword != "" {
		hash, err := auth.HashPassword(*hashPassword)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to hash password: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(hash)
		return
	}

	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Debug)
	defer logger.Sync()
	if envErr != nil {
		logger.Debug("No .env file loaded", zap.Error(envErr))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database
	db, err := database.Open(&database.Config{
		Driver:   cfg.DBDriver,
		Path:     cfg.DBPath,
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.String("driver", cfg.DBDriver), zap.Error(err))
	}
	repo := trivia.NewRepository(db)
	if err := repo.Migrate(); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}

	bank, err := questions.Load(cfg.QuestionsPath)
	if err != nil {
		logger.Fatal("Failed to load question bank", zap.String("path", cfg.QuestionsPath), zap.Error(err))
	}

	chats := registry.New(repo)
	if err := chats.Load(ctx); err != nil {
		logger.Fatal("Failed to load chat registry", zap.Error(err))
	}
	logger.Info("Chat registry loaded", zap.Int("active", len(chats.Active())))

	// Redis is optional; rankings are computed on every request without it.
	var rankingCache trivia.RankingCache
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword)
		if err := redisCache.Ping(ctx); err != nil {
			logger.Warn("Redis unreachable; continuing without cache", zap.String("addr", cfg.RedisAddr), zap.Error(err))
			redisCache.Close()
		} else {
			rankingCache = redisCache
			defer redisCache.Close()
		}
	}

	wsHub := websocket.NewHub()
	wsHub.SetAllowedOrigins(cfg.CORSOrigins)
	go wsHub.Run(ctx)

	sched := scheduler.New(ctx, cfg.Location)

	svc := trivia.NewService(repo, bank, chats, sched, rankingCache, wsHub, trivia.Settings{
		Location:     cfg.Location,
		Window:       cfg.Window,
		RosterWindow: cfg.RosterWindow,
	})

	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		logger.Fatal("Failed to connect to Telegram", zap.Error(err))
	}
	api.Debug = cfg.Debug
	logger.Info("Authorized on Telegram", zap.String("account", api.Self.UserName))

	svc.SetNotifier(bot.NewNotifier(api, cfg.Window))

	for _, slot := range cfg.DailyTimes {
		if err := sched.Daily("question", slot, svc.Broadcast); err != nil {
			logger.Fatal("Failed to schedule question", zap.Error(err))
		}
	}
	if err := sched.Daily("daily_summary", cfg.SummaryTime, svc.DailySummary); err != nil {
		logger.Fatal("Failed to schedule daily summary", zap.Error(err))
	}
	sched.Start()
	logger.Info("Scheduler started",
		zap.Strings("questions_at", cfg.DailyTimes),
		zap.String("summary_at", cfg.SummaryTime),
		zap.String("tz", cfg.Location.String()))

	// Setup router
	router := mux.NewRouter()
	router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true,"service":"trivia-bot","status":"alive"}`))
	}).Methods("GET")
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy"}`))
	}).Methods("GET")

	if cfg.JWTSecret != "" {
		router.Handle("/ws/{chatID}", auth.JWTMiddleware(cfg.JWTSecret)(http.HandlerFunc(wsHub.HandleWebSocket)))

		authService := auth.NewService(auth.NewRepository(cfg.OperatorUser, cfg.OperatorPasswordHash), cfg.JWTSecret)
		authHandler := auth.NewHandler(authService)
		router.HandleFunc("/api/auth/login", authHandler.Login).Methods("POST", "OPTIONS")

		apiRouter := router.PathPrefix("/api").Subrouter()
		apiRouter.Use(auth.JWTMiddleware(cfg.JWTSecret))
		trivia.NewHandler(svc).Register(apiRouter)
	} else {
		logger.Warn("JWT_SECRET not set; operator API and live feed disabled")
	}

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      corsMiddleware.Handler(router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("HTTP server starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	u.AllowedUpdates = []string{"message", "callback_query"}
	updates := api.GetUpdatesChan(u)

	handler := bot.NewBotHandler(api, svc, chats, cfg.DailyTimes, cfg.SummaryTime)
	handlerDone := make(chan struct{})
	go func() {
		handler.Run(ctx, updates)
		close(handlerDone)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	sig := <-quit
	logger.Info("Shutting down", zap.String("signal", sig.String()))

	api.StopReceivingUpdates()
	cancel()
	sched.Stop()
	<-handlerDone

	saveCtx, saveCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer saveCancel()
	if err := chats.Save(saveCtx); err != nil {
		logger.Error("Failed to persist chat registry", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server shutdown gracefully")
}
