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

	"go.uber.org/zap"

	"github.com/FiveCrux/FiveCrux-sub000/config"
	"github.com/FiveCrux/FiveCrux-sub000/internal/api/handler"
	"github.com/FiveCrux/FiveCrux-sub000/internal/api/router"
	"github.com/FiveCrux/FiveCrux-sub000/internal/repository"
	"github.com/FiveCrux/FiveCrux-sub000/internal/service"
	"github.com/FiveCrux/FiveCrux-sub000/internal/worker"
	"github.com/FiveCrux/FiveCrux-sub000/pkg/authz"
	"github.com/FiveCrux/FiveCrux-sub000/pkg/database"
	"github.com/FiveCrux/FiveCrux-sub000/pkg/discord"
	"github.com/FiveCrux/FiveCrux-sub000/pkg/idgen"
	"github.com/FiveCrux/FiveCrux-sub000/pkg/jwt"
	applogger "github.com/FiveCrux/FiveCrux-sub000/pkg/logger"
	"github.com/FiveCrux/FiveCrux-sub000/pkg/redis"
	"github.com/FiveCrux/FiveCrux-sub000/pkg/storage"
)

func main() {
	// 1. config
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	// 2. logger
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. database + migrations
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("connect database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("get sql.DB", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("run migrations", zap.Error(err))
	}

	// 4. redis is optional: without it there is no blacklist, rate limit or invite cache
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("redis unavailable, running degraded", zap.Error(err))
		rdb = nil
	}

	// 5. object storage is optional: uploads answer 503 without it
	var store storage.ObjectStore
	if cfg.Storage.Enabled {
		initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		ms, err := storage.NewMinioStore(initCtx, &cfg.Storage, logger)
		cancel()
		if err != nil {
			logger.Fatal("init object storage", zap.Error(err))
		}
		store = ms
	}

	// 6. auth, ids, discord
	jwtMgr := jwt.NewManager(&cfg.Auth)
	az, err := authz.New()
	if err != nil {
		logger.Fatal("init authorizer", zap.Error(err))
	}
	refs, err := idgen.New(cfg.Slots.NodeID)
	if err != nil {
		logger.Fatal("init id generator", zap.Error(err))
	}
	dc := discord.NewClient(&cfg.Discord, &http.Client{Timeout: 10 * time.Second})

	// 7. Repository → Service → Handler
	deps := service.Deps{
		Config:  cfg,
		Repo:    repository.NewRepository(db),
		JWT:     jwtMgr,
		OAuth:   dc,
		Invites: dc,
		Store:   store,
		Refs:    refs,
		Logger:  logger,
	}
	var routerRedis router.Redis
	if rdb != nil {
		deps.Cache = rdb
		deps.Blacklist = rdb
		routerRedis = rdb
	}
	svc := service.NewService(deps)
	h := handler.NewHandler(cfg, svc, logger)

	// 8. router
	engine, err := router.Setup(router.Deps{
		Config:  cfg,
		Handler: h,
		JWT:     jwtMgr,
		Authz:   az,
		Redis:   routerRedis,
		DB:      sqlDB,
		Logger:  logger,
	})
	if err != nil {
		logger.Fatal("setup router", zap.Error(err))
	}

	// 9. background jobs
	var sched *worker.Scheduler
	if cfg.Scheduler.Enabled {
		sched, err = worker.New(&cfg.Scheduler, svc.Slot, svc.Giveaway, logger)
		if err != nil {
			logger.Fatal("init scheduler", zap.Error(err))
		}
		sched.Start()
	}

	// 10. HTTP server with graceful shutdown
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutting down", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
	if sched != nil {
		if err := sched.Stop(ctx); err != nil {
			logger.Error("scheduler shutdown", zap.Error(err))
		}
	}

	sqlDB.Close()
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("stopped")
}
