package main

import (
	"context"
	"log"
	"os"

	"log/slog"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/sbag9697/marketgrow-sub001/internal/config"
	apphttp "github.com/sbag9697/marketgrow-sub001/internal/http"
	"github.com/sbag9697/marketgrow-sub001/internal/modules/catalog"
	"github.com/sbag9697/marketgrow-sub001/internal/modules/lifecycle"
	"github.com/sbag9697/marketgrow-sub001/internal/modules/payments"
	"github.com/sbag9697/marketgrow-sub001/internal/notify"
)

func main() {
	// Load .env file (ignore error if not found - prod uses real env vars)
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg := config.Load()
	if cfg.DBDSN == "" {
		log.Fatal("DB_DSN environment variable is required")
	}

	db, err := gorm.Open(mysql.Open(cfg.DBDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	provider := payments.NewMockProvider(cfg.WebhookSecret)

	var dispatcher notify.Dispatcher
	if len(cfg.KafkaBrokers) > 0 {
		kd := notify.NewKafkaDispatcher(cfg.KafkaBrokers, cfg.NotifyTopic, 256, logger)
		kd.Start(context.Background())
		dispatcher = kd
	} else {
		dispatcher = &notify.LogDispatcher{Logger: logger}
	}

	co := lifecycle.NewCoordinator(db, catalog.NewRepo(db), provider, dispatcher)
	co.SetLogger(logger)
	co.SetLockTimeout(cfg.LockTimeout)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		co.SetLocker(lifecycle.NewRedisLocker(rdb))
	}

	r := apphttp.NewRouter(apphttp.Deps{
		Logger:      logger,
		DB:          db,
		Coordinator: co,
		Ingestor:    lifecycle.NewIngestor(co),
		Provider:    provider,
	})
	_ = r.Run(cfg.HTTPAddr)
}
