package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"meetwise/config"
	"meetwise/cron"
	"meetwise/database"
	recordsRepo "meetwise/database/repository/records"
	"meetwise/handlers"
	"meetwise/middleware"
	"meetwise/routes"
	"meetwise/services/availability"
	"meetwise/services/calendar"
	"meetwise/services/conversation"
	"meetwise/services/intelligence"
	"meetwise/services/reference"
	"meetwise/services/timeparse"
	"meetwise/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitRedis()

	loc, err := time.LoadLocation(config.AppConfig.DefaultTimezone)
	if err != nil {
		logger.Warn("Unknown default timezone, falling back to UTC",
			zap.String("timezone", config.AppConfig.DefaultTimezone))
		loc = time.UTC
	}

	// Calendar backend: Google when credentials are configured, otherwise an
	// in-process calendar for local runs.
	var provider calendar.Provider
	if file := config.AppConfig.CalendarCredentialsFile; file != "" {
		gp, err := calendar.NewGoogleProvider(context.Background(), file)
		if err != nil {
			logger.Sugar().Fatalf("main: failed to initialize Google Calendar: %v", err)
		}
		provider = gp
	} else {
		logger.Warn("No calendar credentials configured, using in-memory calendar")
		provider = calendar.NewMemoryProvider()
	}
	calendarID := config.AppConfig.CalendarID

	// Intent classifier: Gemini with a deterministic fallback, or the
	// fallback alone when no API key is set.
	local := intelligence.NewLocalClassifier(timeparse.NewParser(config.AppConfig.DefaultTimezone))
	var classifier intelligence.Classifier = local
	if key := config.AppConfig.GeminiAPIKey; key != "" {
		client, err := intelligence.NewGeminiClient(key)
		if err != nil {
			logger.Sugar().Fatalf("main: failed to initialize Gemini client: %v", err)
		}
		classifier = &intelligence.FallbackClassifier{
			Primary:  intelligence.NewGeminiClassifier(client),
			Fallback: local,
		}
	} else {
		logger.Warn("No Gemini API key configured, using keyword classifier")
	}

	// Repositories and services.
	records := recordsRepo.NewMongoRecordRepo()
	engine := availability.NewEngine(provider, calendarID, loc)
	resolver := reference.NewResolver(provider, calendarID, loc)
	machine := conversation.NewMachine(classifier, engine, resolver, records, loc)

	sessionTTL := time.Duration(config.AppConfig.SessionTTLMinutes) * time.Minute
	store := conversation.NewStore(utils.GetSessionCacheClient(), sessionTTL)

	taskClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisTaskQueueDB,
	})
	defer taskClient.Close()

	// Background worker and health monitor.
	cron.InitCalendarWorker(store, provider, calendarID)
	utils.StartHealthMonitor(
		[]*redis.Client{utils.GetSessionCacheClient(), utils.GetAuthCacheClient()},
		database.MongoClient,
	)

	// HTTP layer.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	hb := &handlers.HandlerBundle{
		IssueTokenHandler:   handlers.IssueTokenHandler(),
		ChatHandler:         handlers.ChatHandler(machine, store, taskClient),
		GetSessionHandler:   handlers.GetSessionHandler(store),
		ClearSessionHandler: handlers.ClearSessionHandler(store),
		ListRecordsHandler:  handlers.ListRecordsHandler(records),
		DeleteRecordHandler: handlers.DeleteRecordHandler(records),
		HealthHandler:       handlers.HealthHandler(),
	}
	routes.RegisterRoutes(router, hb)

	srv := &http.Server{
		Addr:    ":" + config.AppConfig.AppPort,
		Handler: router,
	}

	go func() {
		logger.Info("Server listening", zap.String("port", config.AppConfig.AppPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server error: %v", err)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Forced shutdown", zap.Error(err))
	}
	logger.Info("Server stopped")
}
