package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/yosefanaliza/black-coordinates-list/internal/config"
	"github.com/yosefanaliza/black-coordinates-list/internal/core/model"
	"github.com/yosefanaliza/black-coordinates-list/internal/core/web"
	"github.com/yosefanaliza/black-coordinates-list/internal/resolver/service"
)

// ServiceName 解析服务名称
const ServiceName = "Service A - IP Resolution"

// CoordinateLister 获取存储服务中的全部坐标
type CoordinateLister interface {
	FetchAll(ctx context.Context) (*model.AllCoordinatesResponse, error)
}

// CoordinatesHandler 处理IP解析相关的HTTP请求
type CoordinatesHandler struct {
	service service.ResolutionService
	lister  CoordinateLister
	logger  config.Logger
}

// NewCoordinatesHandler 创建一个新的IP解析处理器
func NewCoordinatesHandler(service service.ResolutionService, lister CoordinateLister, logger config.Logger) *CoordinatesHandler {
	return &CoordinatesHandler{
		service: service,
		lister:  lister,
		logger:  logger,
	}
}

// RegisterRoutes 注册API路由
func (h *CoordinatesHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", web.RootHandler(ServiceName))
	e.GET("/health", h.health)

	e.POST("/coordinates/resolve", h.resolve)
	e.GET("/coordinates", h.listCoordinates)
	e.GET("/coordinates/", h.listCoordinates)
}

// StatusCode 把解析结果映射为HTTP状态码
func StatusCode(outcome service.Outcome) int {
	switch outcome.Status {
	case service.OutcomeSuccess:
		return http.StatusOK
	case service.OutcomeLookupFailed:
		return http.StatusBadGateway
	case service.OutcomeStorageFailed:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// resolve 解析IP并保存坐标
func (h *CoordinatesHandler) resolve(c echo.Context) error {
	req := new(model.ResolveRequest)
	if err := web.BindAndValidate(c, req); err != nil {
		return err
	}

	outcome := h.service.Resolve(c.Request().Context(), req.IP)

	resp := model.ResolveResponse{
		Success: outcome.Succeeded(),
		Message: outcome.Message(),
		IP:      req.IP,
	}
	if outcome.Coordinates != nil {
		resp.Coordinates = &model.LatLon{
			Lat: outcome.Coordinates.Lat,
			Lon: outcome.Coordinates.Lon,
		}
	}

	return c.JSON(StatusCode(outcome), resp)
}

// listCoordinates 转发存储服务的坐标列表
func (h *CoordinatesHandler) listCoordinates(c echo.Context) error {
	resp, err := h.lister.FetchAll(c.Request().Context())
	if err != nil {
		h.logger.Error("获取坐标列表失败", zap.Error(err))
		return web.JSONError(c, http.StatusServiceUnavailable, "Failed to fetch coordinates from storage service")
	}

	return c.JSON(http.StatusOK, resp)
}

// health 健康检查，不检查依赖
func (h *CoordinatesHandler) health(c echo.Context) error {
	return c.JSON(http.StatusOK, model.HealthResponse{
		Status:  model.HealthStatusHealthy,
		Service: ServiceName,
	})
}
