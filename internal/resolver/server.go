package resolver

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/yosefanaliza/black-coordinates-list/internal/client/geolocation"
	"github.com/yosefanaliza/black-coordinates-list/internal/client/storageapi"
	"github.com/yosefanaliza/black-coordinates-list/internal/config"
	"github.com/yosefanaliza/black-coordinates-list/internal/core/web"
	"github.com/yosefanaliza/black-coordinates-list/internal/resolver/handler"
	"github.com/yosefanaliza/black-coordinates-list/internal/resolver/service"
)

// Server 表示IP解析API服务
type Server struct {
	e      *echo.Echo
	host   string
	port   int
	logger config.Logger
}

// NewServer 创建一个新的IP解析API服务
func NewServer(cfg *config.Config, logger config.Logger) *Server {
	e := web.NewEcho(logger)

	// 创建外部服务客户端
	geoClient := geolocation.NewClient(geolocation.Config{
		BaseURL:     cfg.Geo.BaseURL,
		Timeout:     cfg.Geo.Timeout,
		MaxAttempts: cfg.Geo.MaxAttempts,
		RetryDelay:  cfg.Geo.RetryDelay,
	}, logger, nil)
	storageClient := storageapi.NewClient(storageapi.Config{
		Host:    cfg.StorageService.Host,
		Port:    cfg.StorageService.Port,
		Timeout: cfg.StorageService.Timeout,
	}, logger, nil)

	// 创建解析服务和处理器
	resolutionService := service.NewResolutionService(geoClient, storageClient, logger)
	coordinatesHandler := handler.NewCoordinatesHandler(resolutionService, storageClient, logger)
	coordinatesHandler.RegisterRoutes(e)

	return &Server{
		e:      e,
		host:   cfg.Resolver.ListenAddress,
		port:   cfg.Resolver.Port,
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
	s.logger.Info("IP解析服务启动", zap.String("addr", addr))

	go func() {
		if err := s.e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Fatal("IP解析服务启动失败", zap.Error(err))
		}
	}()

	return nil
}

// Shutdown 关闭服务
func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}
