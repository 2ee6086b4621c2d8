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

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/langchou/ridegazer/internal/api/handlers"
	"github.com/langchou/ridegazer/internal/auth"
	"github.com/langchou/ridegazer/internal/config"
	"github.com/langchou/ridegazer/internal/repository"
	"github.com/langchou/ridegazer/internal/service"
	"github.com/langchou/ridegazer/internal/source"
	"github.com/langchou/ridegazer/pkg/ws"
)

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	logger := initLogger(cfg.Debug)
	defer logger.Sync() //nolint:errcheck

	logger.Info("Starting Ridegazer",
		zap.String("port", cfg.ServerPort),
		zap.Strings("data_dirs", cfg.DataDirs),
		zap.String("distance_mode", string(cfg.DistanceMode)),
	)

	// 创建 context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 打开数据分区
	sources, err := source.OpenAll(cfg.DataDirs)
	if err != nil {
		logger.Fatal("Failed to open data partitions", zap.Error(err))
	}

	// 创建 WebSocket Hub
	wsHub := ws.NewHub(logger)
	go wsHub.Run()

	// 创建数据集服务
	datasetService := service.NewDatasetService(cfg, logger, sources)
	datasetService.SetNotifier(wsHub)
	wsHub.SetInitDataProvider(datasetService.InitData)

	// 连接数据库（可选）
	if cfg.DatabaseURL != "" {
		db, err := repository.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("Failed to connect database", zap.Error(err))
		}
		defer db.Close()

		if err := db.Migrate(ctx); err != nil {
			logger.Fatal("Failed to migrate database", zap.Error(err))
		}
		logger.Info("Database migrated successfully")

		datasetService.SetStores(repository.NewRunRepository(db), repository.NewRideRepository(db))
	} else {
		logger.Info("DATABASE_URL not set, refresh snapshots are not persisted")
	}

	// 首次加载数据集
	if err := datasetService.Start(ctx); err != nil {
		logger.Fatal("Failed to load dataset", zap.Error(err))
	}

	authService, err := auth.NewService(cfg.JWTSecret, cfg.TokenTTL, cfg.AuthUsers)
	if err != nil {
		logger.Fatal("Failed to create auth service", zap.Error(err))
	}
	logger.Info("Auth users loaded", zap.Strings("users", authService.Usernames()))

	// 设置 Gin 模式
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	handler := handlers.NewHandler(logger, datasetService, authService, wsHub)
	router := handlers.NewRouter(logger, handler)

	// 启动 HTTP 服务器
	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("addr", server.Addr))

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// 停止服务
	datasetService.Stop()
	wsHub.Stop()

	// 优雅关闭
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

// initLogger 初始化日志
func initLogger(debug bool) *zap.Logger {
	var config zap.Config
	if debug {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		config = zap.NewProductionConfig()
	}

	logger, _ := config.Build()
	return logger
}
