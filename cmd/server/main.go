package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"taskvault/internal/backup"
	"taskvault/internal/config"
	"taskvault/internal/events"
	"taskvault/internal/httpserver"
	"taskvault/internal/service/auth"
	"taskvault/internal/service/board"
	"taskvault/internal/store"
	"taskvault/internal/store/backend"
	"taskvault/pkg/circuitbreaker"
	pkgconfig "taskvault/pkg/config"
	"taskvault/pkg/encrypt"
	"taskvault/pkg/logger"
	"taskvault/pkg/mq"
	"taskvault/pkg/redis"
)

func main() {
	ctx := context.Background()

	// 1. Load config
	cfg, err := config.Load(pkgconfig.GetConfigEnv(), pkgconfig.GetEnv("CONFIG_DIR", "config"))
	if err != nil {
		panic(err)
	}

	log := logger.NewLogger(cfg.Server.Env)
	defer log.Sync()

	// 2. Store handle, opened on first request
	handle := store.NewHandle(backend.Opener(cfg, log))

	// 3. Login throttle (optional, needs Redis)
	var limiter auth.Limiter
	if cfg.Redis.Addr != "" {
		rdb, err := redis.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Warn("Redis unavailable, login throttle disabled", zap.Error(err))
		} else {
			defer rdb.Close()
			limiter = auth.NewRedisLimiter(rdb, cfg.Auth.MaxFailedAttempts, cfg.Auth.LockoutWindow)
		}
	}

	// 4. Event publisher (optional, needs RabbitMQ)
	var publisher events.Publisher = events.Noop{}
	if cfg.MQ.URL != "" {
		p, err := mq.NewPublisher(cfg.MQ)
		if err != nil {
			log.Warn("RabbitMQ unavailable, events disabled", zap.Error(err))
		} else {
			defer p.Close()
			publisher = events.NewBrokerPublisher(p, circuitbreaker.New(circuitbreaker.DefaultConfig()), log)
		}
	}

	// 5. Services
	verifier, err := auth.NewVerifier(ctx, cfg.Auth)
	if err != nil {
		log.Fatal("credential verifier init failed", zap.Error(err))
	}
	authService := auth.NewService(cfg.Auth, cfg.JWT.Secret, verifier, limiter, log)
	boardService := board.NewService(publisher, log)

	// 6. Scheduled backups
	var scheduler *backup.Scheduler
	var backupJob *backup.Job
	if cfg.Backup.Enabled {
		codec, err := encrypt.NewCodec(cfg.Store.EncryptionKey)
		if err != nil {
			log.Fatal("backup key invalid", zap.Error(err))
		}
		backupJob = backup.NewJob(handle, cfg.Auth.AllowedEmail, cfg.Backup.Dir, cfg.Backup.Keep, codec, log)
		scheduler = backup.NewScheduler(log)
		if _, err := scheduler.Schedule(cfg.Backup.Schedule, backupJob.Func(ctx)); err != nil {
			log.Fatal("invalid backup schedule", zap.String("schedule", cfg.Backup.Schedule), zap.Error(err))
		}
		scheduler.Start()
	}

	// 7. Router
	router := httpserver.NewRouter(httpserver.Deps{
		Auth:          authService,
		Board:         boardService,
		Store:         handle,
		Backups:       backupJob,
		SecureCookies: cfg.Server.IsProduction(),
		Logger:        log,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Port,
		Handler:           router.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Server.Port), zap.String("store", cfg.Store.Driver))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// 优雅退出处理
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down gracefully...")

	if scheduler != nil {
		log.Info("Stopping backup scheduler...")
		scheduler.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		log.Info("HTTP server stopped")
	}

	if err := handle.Close(); err != nil {
		log.Error("store close error", zap.Error(err))
	}

	log.Info("shutdown complete")
}
