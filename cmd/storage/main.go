package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/yosefanaliza/black-coordinates-list/internal/config"
	"github.com/yosefanaliza/black-coordinates-list/internal/storage"
)

const (
	connectTimeout  = 10 * time.Second
	shutdownTimeout = 5 * time.Second
)

var (
	configFile string
	envFile    string
)

func init() {
	flag.StringVar(&configFile, "config", "", "配置文件路径")
	flag.StringVar(&envFile, "env", ".env", "环境变量文件路径，不存在时忽略")
}

func main() {
	flag.Parse()

	_ = godotenv.Load(envFile)

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	logger, err := config.NewLogger(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("坐标存储服务启动中",
		zap.String("backend", cfg.Store.Backend),
		zap.String("key_prefix", cfg.Store.KeyPrefix),
	)

	// 连接存储引擎，失败时不启动
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	engine, err := storage.OpenEngine(ctx, cfg, logger)
	cancel()
	if err != nil {
		logger.Fatal("连接存储引擎失败", zap.Error(err))
	}
	defer func() {
		if err := engine.Close(); err != nil {
			logger.Error("关闭存储引擎失败", zap.Error(err))
		}
	}()

	server := storage.NewServer(engine, cfg, logger)
	if err := server.Start(); err != nil {
		logger.Fatal("启动坐标存储服务失败", zap.Error(err))
	}

	// 等待终止信号
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-signalChan
	logger.Info("接收到信号，准备关闭服务", zap.String("signal", sig.String()))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("关闭坐标存储服务失败", zap.Error(err))
	}

	logger.Info("服务已关闭")
}
