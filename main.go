package main

import (
	"context"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"guesstop/game"
	"guesstop/handlers"
	"guesstop/middleware"
	"guesstop/services"
	"guesstop/storage"
	"guesstop/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, reading environment variables directly")
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("failed to build logger:", err)
	}
	defer logger.Sync()
	zlog := logger.Sugar()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		zlog.Fatal("DATABASE_URL environment variable not set")
	}
	serviceToken := os.Getenv("SERVICE_TOKEN")
	if serviceToken == "" {
		zlog.Fatal("SERVICE_TOKEN environment variable not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		zlog.Fatal("failed to connect to database: ", err)
	}
	store := storage.NewGormStore(db)
	if err := store.AutoMigrate(); err != nil {
		zlog.Fatal("failed to migrate database: ", err)
	}

	var states storage.GameStateStore
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			zlog.Fatal("invalid REDIS_URL: ", err)
		}
		client := redis.NewClient(opts)
		if err := client.Ping(context.Background()).Err(); err != nil {
			zlog.Fatal("failed to connect to redis: ", err)
		}
		states = storage.NewRedisStateStore(client, 24*time.Hour)
	} else {
		zlog.Warn("REDIS_URL not set, keeping game state in memory")
		states = storage.NewMemoryStateStore()
	}

	cfg := game.DefaultConfig()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	playerService := services.NewPlayerService(store, store, cfg, zlog)
	topicService := services.NewTopicService(store, store, store, cfg, zlog, rng)
	roundService := services.NewRoundService(store, store, states, topicService, playerService, cfg, zlog, rng)

	app := fiber.New(fiber.Config{
		AppName: "guesstop",
	})
	app.Use(middleware.ServiceAuth(serviceToken, zlog))
	app.Use(cors.New(cors.Config{
		AllowOrigins: os.Getenv("ALLOWED_ORIGINS"),
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	handlers.SetupPlayerRoutes(app, playerService)
	handlers.SetupTopicRoutes(app, topicService, roundService)
	handlers.SetupRoundRoutes(app, roundService)

	statsWorker := workers.NewStatsWorker(playerService, 6*time.Hour, zlog)
	if err := statsWorker.Start(); err != nil {
		zlog.Fatal("failed to start stats worker: ", err)
	}
	defer statsWorker.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":5300"
	}
	go func() {
		if err := app.Listen(addr); err != nil {
			zlog.Errorw("server stopped", "error", err)
			stop()
		}
	}()
	zlog.Infow("server running", "addr", addr)

	<-ctx.Done()
	zlog.Info("shutting down server")
	if err := app.Shutdown(); err != nil {
		zlog.Errorw("shutdown failed", "error", err)
	}
}
