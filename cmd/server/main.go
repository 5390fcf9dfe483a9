// @title TravelFeed API
// @version 1.0
// @description 关注/推荐 feed、投票、屏蔽与关注通知
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/travelfeed/config"
	"github.com/d60-Lab/travelfeed/internal/api"
	"github.com/d60-Lab/travelfeed/internal/api/handler"
	"github.com/d60-Lab/travelfeed/internal/feed"
	"github.com/d60-Lab/travelfeed/internal/notify"
	"github.com/d60-Lab/travelfeed/internal/repository"
	"github.com/d60-Lab/travelfeed/internal/service"
	"github.com/d60-Lab/travelfeed/internal/store"
	"github.com/d60-Lab/travelfeed/pkg/clock"
	"github.com/d60-Lab/travelfeed/pkg/database"
	"github.com/d60-Lab/travelfeed/pkg/logger"
	"github.com/d60-Lab/travelfeed/pkg/tracing"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.Sentry.DSN,
			Environment:      cfg.Sentry.Environment,
			Release:          version,
			TracesSampleRate: cfg.Sentry.SampleRate,
		}); err != nil {
			logger.Warn("sentry init failed", zap.Error(err))
		}
		defer sentry.Flush(2 * time.Second)
	}

	ctx := context.Background()
	tp, err := tracing.Init(ctx, cfg.Tracing, version)
	if err != nil {
		logger.Fatal("init tracing", zap.Error(err))
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Fatal("init database", zap.Error(err))
	}
	defer database.Close(db)

	st := repository.NewStore(db)
	var throttleStore store.ThrottleStore = st
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis ping failed, caches fall back to the database", zap.Error(err))
		}
		st.Follows = repository.NewFollowingIndex(st.Follows, rdb, cfg.Redis.IndexTTL)
		if cfg.Notify.Backend == "redis" {
			throttleStore = repository.NewRedisThrottleStore(rdb, 2*cfg.Notify.Cooldown)
		}
	}

	sink, closeSink := buildSink(cfg, db)
	defer closeSink()
	dispatcher := notify.NewDispatcher(sink, cfg.Notify.QueueSize)
	stopDispatcher := dispatcher.Start(cfg.Notify.Workers)

	clk := clock.Real()
	throttle := notify.NewThrottle(throttleStore, clk, cfg.Notify.Cooldown)
	relService := service.NewRelationshipService(st.Follows, st.Users, throttle, dispatcher, clk)
	sessions := service.NewSessionManager(st, feed.NewAudienceResolver(st, cfg.Feed.PromotedTTL), service.SessionOptions{
		IdleTTL:       cfg.Session.IdleTTL,
		VoteTimeout:   cfg.Session.VoteTimeout,
		StoreTimeout:  cfg.Feed.StoreTimeout,
		BlockCacheTTL: cfg.BlockCache.TTL,
		Clock:         clk,
	})

	h := handler.NewHandler(sessions, relService, handler.PageLimits{
		Default: cfg.Feed.DefaultPageSize,
		Max:     cfg.Feed.MaxPageSize,
		People:  cfg.Session.SearchPageSz,
	})
	router, err := api.NewRouter(cfg, h)
	if err != nil {
		logger.Fatal("build router", zap.Error(err))
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	// 排空通知队列
	if err := stopDispatcher(shutdownCtx); err != nil {
		logger.Warn("notify dispatcher did not drain", zap.Int("pending", dispatcher.QueueLen()), zap.Error(err))
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		logger.Warn("tracer shutdown", zap.Error(err))
	}
}

// buildSink 通知始终落库；配置了 AMQP 时同时发布到交换机
func buildSink(cfg *config.Config, db *gorm.DB) (notify.Sink, func()) {
	dbSink := repository.NewNotificationRepository(db)
	if cfg.AMQP.URL == "" {
		return dbSink, func() {}
	}
	amqpSink, err := notify.NewAMQPSink(cfg.AMQP.URL, cfg.AMQP.Exchange)
	if err != nil {
		logger.Warn("amqp unavailable, notifications stored only", zap.Error(err))
		return dbSink, func() {}
	}
	return notify.FanoutSink{dbSink, amqpSink}, func() {
		if err := amqpSink.Close(); err != nil {
			logger.Warn("close amqp sink", zap.Error(err))
		}
	}
}
