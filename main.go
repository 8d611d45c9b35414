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

	"go.uber.org/zap"

	"github.com/xploralabs/xplora/server/api/rest"
	"github.com/xploralabs/xplora/server/audit"
	"github.com/xploralabs/xplora/server/cache"
	"github.com/xploralabs/xplora/server/config"
	"github.com/xploralabs/xplora/server/db"
	"github.com/xploralabs/xplora/server/events"
	"github.com/xploralabs/xplora/server/model"
	"github.com/xploralabs/xplora/server/quest/catalog"
	"github.com/xploralabs/xplora/server/quest/profile"
	"github.com/xploralabs/xplora/server/quest/ranking"
	"github.com/xploralabs/xplora/server/quest/submission"
	"github.com/xploralabs/xplora/server/scheduler"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	var logger *zap.Logger
	if cfg.Server.Debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	gdb, err := db.Open(cfg.Database)
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}
	if err := model.AutoMigrate(gdb); err != nil {
		logger.Fatal("migrate database", zap.Error(err))
	}

	cacheCfg := cache.CacheConfig{
		RedisAddr:       cfg.Cache.RedisAddr,
		RedisPassword:   cfg.Cache.RedisPassword,
		RedisDB:         cfg.Cache.RedisDB,
		LocalGCInterval: cfg.Cache.LocalGCInterval,
		LocalPubSubBuf:  cfg.Cache.LocalPubSubBuf,
	}
	c, err := cache.NewCache(cacheCfg)
	if err != nil {
		logger.Fatal("open cache", zap.Error(err))
	}
	ps, err := cache.NewPubSub(cacheCfg)
	if err != nil {
		logger.Fatal("open pubsub", zap.Error(err))
	}

	pub := events.NewPublisher(ps, logger)
	audits := audit.NewService(gdb, logger)
	defer audits.Close()

	catalogs := catalog.NewService(gdb, pub, logger)
	profiles := profile.NewService(gdb, pub, logger)
	submissions := submission.NewService(gdb, pub, logger)
	rankings := ranking.NewService(c, profiles, logger)

	sched := scheduler.New(logger)
	defer sched.Stop()
	sched.Every("ranking-refresh", 5*time.Minute, func(ctx context.Context) {
		if err := rankings.Refresh(ctx, 100); err != nil {
			logger.Warn("refresh ranking", zap.Error(err))
		}
	})

	router := rest.NewRouter(rest.Deps{
		Config:      cfg,
		DB:          gdb,
		Cache:       c,
		PubSub:      ps,
		Logger:      logger,
		Catalogs:    catalogs,
		Profiles:    profiles,
		Submissions: submissions,
		Rankings:    rankings,
		Audits:      audits,
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("server listening", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}
