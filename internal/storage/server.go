package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/yosefanaliza/black-coordinates-list/internal/config"
	"github.com/yosefanaliza/black-coordinates-list/internal/core/web"
	"github.com/yosefanaliza/black-coordinates-list/internal/storage/handler"
	"github.com/yosefanaliza/black-coordinates-list/internal/storage/service"
	"github.com/yosefanaliza/black-coordinates-list/internal/store"
)

// Server 表示坐标存储API服务
type Server struct {
	e      *echo.Echo
	host   string
	port   int
	logger config.Logger
}

// NewServer 创建一个新的坐标存储API服务，engine需已连接
func NewServer(engine store.Engine, cfg *config.Config, logger config.Logger) *Server {
	e := web.NewEcho(logger)

	// 创建坐标存储
	coordinateStore := service.NewCoordinateStore(engine, cfg.Store.KeyPrefix, logger)

	// 创建处理器并注册路由
	coordinatesHandler := handler.NewCoordinatesHandler(coordinateStore, logger)
	coordinatesHandler.RegisterRoutes(e)

	return &Server{
		e:      e,
		host:   cfg.Storage.ListenAddress,
		port:   cfg.Storage.Port,
		logger: logger,
	}
}

// Handler 返回HTTP处理器，便于测试
func (s *Server) Handler() http.Handler {
	return s.e
}

// Start 以非阻塞方式启动服务
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	s.logger.Info("坐标存储服务启动", zap.String("addr", addr))

	go func() {
		if err := s.e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Fatal("坐标存储服务启动失败", zap.Error(err))
		}
	}()

	return nil
}

// Shutdown 关闭服务
func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}
