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

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/stores_api/internal/config"
	"github.com/Skotchmaster/stores_api/internal/es"
	"github.com/Skotchmaster/stores_api/internal/handlers"
	"github.com/Skotchmaster/stores_api/internal/logging"
	"github.com/Skotchmaster/stores_api/internal/mykafka"
	"github.com/Skotchmaster/stores_api/internal/token"
	httpserver "github.com/Skotchmaster/stores_api/internal/transport/http"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)

	db, err := config.InitDB(configuration)
	if err != nil {
		log.Fatalf("database init error: %v", err)
	}

	var (
		denylist token.Denylist
		rdb      *redis.Client
	)
	if configuration.REDIS_ADDR != "" {
		rdb = redis.NewClient(&redis.Options{Addr: configuration.REDIS_ADDR})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			log.Fatalf("redis ping error: %v", err)
		}
		denylist = token.NewRedisDenylist(rdb, "denylist")
	} else {
		logger.Warn("REDIS_ADDR not set, revocations are process-local")
		denylist = token.NewMemoryDenylist()
	}

	authority := token.NewAuthority(
		[]byte(configuration.JWT_SECRET),
		[]byte(configuration.REFRESH_SECRET),
		denylist,
	)

	var producer *mykafka.Producer
	if configuration.KAFKA_ADDRESS != "" {
		producer = mykafka.NewProducer([]string{configuration.KAFKA_ADDRESS})
	} else {
		logger.Warn("KAFKA_ADDRESS not set, domain events are disabled")
	}

	var searchHandler *handlers.SearchHandler
	if configuration.ES_URL != "" {
		esClient, err := es.NewClient(configuration)
		if err != nil {
			log.Fatalf("elasticsearch init error: %v", err)
		}
		searchHandler = handlers.NewSearchHandler(esClient, "items")
	} else {
		logger.Warn("ES_URL not set, search is disabled")
		searchHandler = &handlers.SearchHandler{}
	}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())

	deps := httpserver.Deps{
		DB:            db,
		Tokens:        authority,
		AuthHandler:   &handlers.AuthHandler{DB: db, Tokens: authority, BcryptCost: configuration.BCRYPT_COST, Producer: producer},
		UserHandler:   &handlers.UserHandler{DB: db, Producer: producer},
		StoreHandler:  &handlers.StoreHandler{DB: db, Producer: producer},
		ItemHandler:   &handlers.ItemHandler{DB: db, Producer: producer},
		TagHandler:    &handlers.TagHandler{DB: db, Producer: producer},
		SearchHandler: searchHandler,
	}

	httpserver.Register(e, &deps)

	port := configuration.PORT
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()
	logger.Info("server started", "port", port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db close error", "error", err)
		}
	}

	if err := producer.Close(); err != nil {
		logger.Error("kafka close error", "error", err)
	}

	if rdb != nil {
		if err := rdb.Close(); err != nil {
			logger.Error("redis close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
