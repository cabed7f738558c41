package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/yosefanaliza/black-coordinates-list/internal/config"
	"github.com/yosefanaliza/black-coordinates-list/internal/store"
	"github.com/yosefanaliza/black-coordinates-list/internal/store/etcd"
	"github.com/yosefanaliza/black-coordinates-list/internal/store/memory"
	"github.com/yosefanaliza/black-coordinates-list/internal/store/redis"
)

// OpenEngine 按配置创建存储引擎并Ping一次，失败时返回错误且不保留连接
func OpenEngine(ctx context.Context, cfg *config.Config, logger config.Logger) (store.Engine, error) {
	var engine store.Engine

	switch cfg.Store.Backend {
	case config.BackendRedis:
		engine = redis.NewClient(redis.Config{
			Addr:        cfg.RedisAddr(),
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			DialTimeout: cfg.Redis.DialTimeout,
		})
	case config.BackendEtcd:
		client, err := etcd.NewClient(&etcd.Config{
			Endpoints:      cfg.Etcd.Endpoints,
			Username:       cfg.Etcd.Username,
			Password:       cfg.Etcd.Password,
			DialTimeout:    cfg.Etcd.DialTimeout,
			RequestTimeout: cfg.Etcd.RequestTimeout,
		})
		if err != nil {
			return nil, err
		}
		engine = client
	case config.BackendMemory:
		engine = memory.NewClient()
	default:
		return nil, fmt.Errorf("不支持的存储后端: %q", cfg.Store.Backend)
	}

	if err := engine.Ping(ctx); err != nil {
		_ = engine.Close()
		return nil, fmt.Errorf("连接%s失败: %w", engine.Name(), err)
	}

	logger.Info("存储引擎已连接", zap.String("engine", engine.Name()), zap.String("backend", cfg.Store.Backend))
	return engine, nil
}
