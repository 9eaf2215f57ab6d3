package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/athan/internal/aladhan"
	"github.com/Nixie-Tech-LLC/athan/internal/config"
	"github.com/Nixie-Tech-LLC/athan/internal/db"
	"github.com/Nixie-Tech-LLC/athan/internal/prayer"
	"github.com/Nixie-Tech-LLC/athan/internal/redis"
)

func main() {
	// load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	config.ConfigureLogging(os.Stdout, cfg.Environment, cfg.LogLevel)

	// initialize PostgreSQL
	if err := db.Init(cfg.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("db init")
	}

	// run pending migrations
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("db migrate")
	}
	store := db.NewStore(db.DB)

	var lookup prayer.Lookup = aladhan.NewClient(cfg.AladhanBaseURL)
	if cfg.RedisAddress != "" {
		if err := redis.InitRedis(cfg.RedisAddress, cfg.RedisUsername, cfg.RedisPassword); err != nil {
			log.Fatal().Err(err).Msg("redis init")
		}
		lookup = redis.NewCachedLookup(lookup, redis.NewCache(redis.Rdb))
	} else {
		log.Warn().Msg("REDIS_ADDRESS not set, prayer times will not be cached")
	}

	notifiers, err := InitNotifiers(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("notifier init")
	}
	defer notifiers.Close()

	registry := prayer.NewRegistry(TimerFactory(cfg, store, lookup, notifiers))

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	RegisterRoutes(r, cfg, store, registry)

	srv := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go registry.RunEviction(ctx, time.Minute, cfg.TimerIdle)

	go func() {
		log.Info().Str("addr", cfg.ServerAddress).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	registry.Close()
	log.Info().Msg("all prayer timers stopped")
}
