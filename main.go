package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/filmorate/aggregate"
	apirest "github.com/kasuganosora/filmorate/api/rest"
	"github.com/kasuganosora/filmorate/api/sse"
	"github.com/kasuganosora/filmorate/audit"
	"github.com/kasuganosora/filmorate/cache"
	"github.com/kasuganosora/filmorate/config"
	dbadapter "github.com/kasuganosora/filmorate/db"
	mw "github.com/kasuganosora/filmorate/middleware"
	"github.com/kasuganosora/filmorate/model"
	"github.com/kasuganosora/filmorate/scheduler"
	"github.com/kasuganosora/filmorate/service"
	"github.com/kasuganosora/filmorate/storage"
	"github.com/kasuganosora/filmorate/storage/memory"
	"github.com/kasuganosora/filmorate/storage/relational"
	"github.com/kasuganosora/filmorate/validation"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

func main() {
	cfgPath := "config/config.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// ---- Logger ----
	var logger *zap.Logger
	var logErr error
	if cfg.Server.Debug {
		logger, logErr = zap.NewDevelopment()
	} else {
		logger, logErr = zap.NewProduction()
	}
	if logErr != nil {
		log.Fatalf("logger: %v", logErr)
	}
	defer logger.Sync()

	// Warn loudly if admin endpoints will be disabled.
	if cfg.Server.AdminKey == "" {
		logger.Warn("server.admin_key is not set; admin endpoints are disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- Storage ----
	var (
		store storage.Store
		db    *gorm.DB
	)
	if dbadapter.IsRelational(cfg.Database.Mode) {
		db, err = dbadapter.Open(cfg.Database)
		if err != nil {
			log.Fatalf("db: %v", err)
		}
		if err := model.AutoMigrate(db); err != nil {
			log.Fatalf("db migrate: %v", err)
		}
		store = relational.New(db)
	} else {
		store = memory.New()
	}
	logger.Info("storage initialized", zap.String("mode", cfg.Database.Mode))

	// ---- Audit ----
	// With no database the audit batches go to the logger.
	auditSvc := audit.New(db, logger)

	// ---- Cache / PubSub ----
	cacheConfig := cache.CacheConfig{
		RedisAddr:       cfg.Cache.RedisAddr,
		RedisPassword:   cfg.Cache.RedisPassword,
		RedisDB:         cfg.Cache.RedisDB,
		LocalGCInterval: cfg.Cache.LocalGCInterval,
		LocalPubSubBuf:  cfg.Cache.LocalPubSubBuf,
	}
	c, err := cache.NewCache(cacheConfig)
	if err != nil {
		log.Fatalf("cache: %v", err)
	}
	pubsub, err := cache.NewPubSub(cacheConfig)
	if err != nil {
		log.Fatalf("pubsub: %v", err)
	}
	logger.Info("cache initialized", zap.Bool("redis", cfg.Cache.RedisAddr != ""))

	// ---- Services ----
	engine := aggregate.New(store, c, pubsub, cfg.Catalog.PopularCacheTTL, logger)
	if err := engine.Start(ctx); err != nil {
		log.Fatalf("aggregate: %v", err)
	}
	opts := service.Options{
		RejectDuplicates:    cfg.Catalog.RejectDuplicates,
		PopularDefaultCount: cfg.Catalog.PopularDefaultCount,
	}
	v := validation.New()
	filmSvc := service.NewFilmService(store, engine, v, auditSvc, opts, logger)
	userSvc := service.NewUserService(store, engine, v, auditSvc, opts, logger)
	refSvc := service.NewReferenceService(store)

	// ---- Scheduler ----
	sched := scheduler.New(logger)
	warmup := func(ctx context.Context) error {
		_, err := engine.Refresh(ctx, cfg.Catalog.PopularWarmupCount)
		return err
	}
	sched.AddDelay("popular_warmup_initial", 0, warmup)
	if cfg.Catalog.PopularWarmupInterval > 0 {
		sched.AddTicker("popular_warmup", cfg.Catalog.PopularWarmupInterval, warmup)
	}

	// ---- Gin HTTP Server ----
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(mw.TraceID(), mw.Logger(logger), mw.Recovery(logger))
	r.Use(mw.RateLimit(ctx, rate.Limit(cfg.Security.RateLimitRPS), cfg.Security.RateLimitBurst))

	// Health check
	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	apirest.NewFilmHandler(filmSvc, logger).Register(r)
	apirest.NewUserHandler(userSvc, logger).Register(r)
	apirest.NewReferenceHandler(refSvc, logger).Register(r)
	apirest.NewAdminHandler(engine, sched, cfg.Catalog.PopularDefaultCount, logger).Register(r,
		mw.IPWhitelist(cfg.Server.AdminIPs, logger),
		apirest.AdminAuth(cfg.Server.AdminKey),
	)

	// ---- SSE ----
	sseH := sse.NewHandler(pubsub, logger)
	r.GET("/events", sseH.ServeSSE)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r}
	srv.RegisterOnShutdown(sseH.Close)
	go func() {
		logger.Info("Server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	sched.Stop()
	engine.Stop()
	auditSvc.Stop(shutdownCtx)
	if err := pubsub.Close(); err != nil {
		logger.Warn("pubsub close", zap.Error(err))
	}
	if err := c.Close(); err != nil {
		logger.Warn("cache close", zap.Error(err))
	}
	if db != nil {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}
}
