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

	_ "go.uber.org/automaxprocs"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"

	"gin-user-registry/internal/core/config"
	"gin-user-registry/internal/core/database"
	"gin-user-registry/internal/core/logger"
	"gin-user-registry/internal/core/redisx"
	"gin-user-registry/internal/core/server"
	"gin-user-registry/internal/feature/user"
	"gin-user-registry/internal/repo"
	"gin-user-registry/internal/service"
	"gin-user-registry/internal/transport/http/ez"
	"gin-user-registry/internal/transport/http/router"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load(os.Getenv("CONFIG_PATH"))
	log, cleanup := newLogger(cfg, "api")
	defer cleanup()
	defer logger.RedirectStdLog(log, zapcore.InfoLevel)()
	gin.DefaultWriter = logger.ToWriter(log, zapcore.DebugLevel)
	gin.DefaultErrorWriter = logger.ToWriter(log, zapcore.ErrorLevel)

	// 数据库（失败会直接 Fatal）
	db := mustOpenDB(cfg, log)
	log.Info("database connected", zap.String("driver", cfg.DB.Driver))

	if cfg.DB.AutoMigrate {
		if err := db.AutoMigrate(&user.UserModel{}); err != nil {
			log.Fatal("automigrate failed", zap.Error(err))
		}
		log.Info("automigrate done")
	}

	// redis 可选：多实例共享限速，连不上则退回进程内限速
	rc := openRedis(cfg, log)
	if rc != nil {
		defer rc.Close()
	}

	userSvc := service.NewUserService(repo.NewUserRepo(db), log)
	reg := router.NewRegistry(user.NewModule(user.Deps{
		Service: userSvc,
		DB:      db,
		List:    ez.ListSpec{DefaultSize: cfg.Pagination.DefaultPageSize, MaxSize: cfg.Pagination.MaxPageSize},
		Log:     log,
	}))

	opts := router.Options{
		Mode:        cfg.App.GinMode,
		Limits:      cfg.Limits,
		CORSOrigins: cfg.App.CORSOrigins,
		Probes:      map[string]router.Probe{"db": database.Ping(db)},
	}
	if rc != nil {
		opts.Probes["redis"] = rc.Ping
		opts.Shared = rc
	}
	r := router.NewAPIEngine(log, reg, opts)

	// HTTP Server
	addr := server.Addr(cfg.App.HTTP.Host, cfg.App.HTTP.Port)
	errLog, _ := logger.ToStdLogger(log, zapcore.WarnLevel)
	srv := server.BuildServer(
		addr, r,
		time.Duration(cfg.App.HTTP.ReadTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.WriteTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.IdleTimeoutSec)*time.Second,
		errLog,
	)

	host4human := cfg.App.HTTP.Host
	if host4human == "" || host4human == "0.0.0.0" {
		host4human = "127.0.0.1"
	}
	baseURL := "http://" + host4human + ":" + fmt.Sprint(cfg.App.HTTP.Port)
	log.Info("user api starting",
		zap.String("addr", addr),
		zap.String("health", baseURL+"/health"),
		zap.String("users", baseURL+"/api/v1/users"),
	)

	go func() {
		if err := server.StartHTTP(srv, log); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("user api start FAILED", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn("user api shutdown", zap.Error(err))
	}
	log.Info("user api stopped gracefully")
}

func newLogger(cfg *config.Config, service string) (*zap.Logger, func()) {
	f := cfg.Log.File
	return logger.New(logger.Options{
		Service: service,
		Level:   cfg.Log.Level,
		JSON:    cfg.Log.JSON,
		Rotate: logger.FileRotate{
			Enable:     f.Enable,
			Filename:   f.Filename,
			MaxSizeMB:  f.MaxSizeMB,
			MaxBackups: f.MaxBackups,
			MaxAgeDays: f.MaxAgeDays,
			Compress:   f.Compress,
		},
	})
}

func mustOpenDB(cfg *config.Config, l *zap.Logger) *gorm.DB {
	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
	})
	if err != nil {
		l.Fatal("db open", zap.Error(err))
	}
	return db
}

func openRedis(cfg *config.Config, l *zap.Logger) *redisx.Client {
	if cfg.Redis.Addr == "" {
		return nil
	}
	c := redisx.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Prefix)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.Ping(ctx); err != nil {
		l.Warn("redis unavailable, using local rate limit", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		_ = c.Close()
		return nil
	}
	l.Info("redis connected", zap.String("addr", cfg.Redis.Addr))
	return c
}
