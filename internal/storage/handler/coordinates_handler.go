package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/yosefanaliza/black-coordinates-list/internal/config"
	"github.com/yosefanaliza/black-coordinates-list/internal/core/model"
	"github.com/yosefanaliza/black-coordinates-list/internal/core/web"
	"github.com/yosefanaliza/black-coordinates-list/internal/storage/service"
)

// ServiceName 存储服务名称
const ServiceName = "Service B - Coordinate Storage"

// CoordinatesHandler 处理坐标存储相关的HTTP请求
type CoordinatesHandler struct {
	store  service.CoordinateStore
	logger config.Logger
}

// NewCoordinatesHandler 创建一个新的坐标存储处理器
func NewCoordinatesHandler(store service.CoordinateStore, logger config.Logger) *CoordinatesHandler {
	return &CoordinatesHandler{
		store:  store,
		logger: logger,
	}
}

// RegisterRoutes 注册API路由
func (h *CoordinatesHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", web.RootHandler(ServiceName))
	e.GET("/health", h.health)

	for _, path := range []string{"/coordinates", "/coordinates/"} {
		e.POST(path, h.storeCoordinates)
		e.GET(path, h.listCoordinates)
	}
}

// storeCoordinates 保存一条坐标
func (h *CoordinatesHandler) storeCoordinates(c echo.Context) error {
	payload := new(model.CoordinatePayload)
	if err := web.BindAndValidate(c, payload); err != nil {
		return err
	}

	record := payload.Record()
	if err := h.store.SaveCoordinate(c.Request().Context(), record.IP, record.Coordinates); err != nil {
		h.logger.Error("保存坐标失败", zap.String("ip", record.IP), zap.Error(err))
		return web.JSONError(c, http.StatusInternalServerError, "Failed to store coordinates")
	}

	return c.JSON(http.StatusOK, model.StoreResponse{
		Success: true,
		Message: "Coordinates stored successfully",
		IP:      record.IP,
	})
}

// listCoordinates 列出所有坐标
func (h *CoordinatesHandler) listCoordinates(c echo.Context) error {
	ctx := c.Request().Context()

	records, err := h.store.ListAllCoordinates(ctx)
	if err != nil {
		h.logger.Error("获取坐标列表失败", zap.Error(err))
		if !h.store.IsReachable(ctx) {
			return web.JSONError(c, http.StatusServiceUnavailable, h.notConnectedMessage())
		}
		return web.JSONError(c, http.StatusInternalServerError, "Failed to retrieve coordinates: "+err.Error())
	}

	items := make([]model.CoordinateItem, 0, len(records))
	for _, record := range records {
		items = append(items, model.NewCoordinateItem(record))
	}

	return c.JSON(http.StatusOK, model.AllCoordinatesResponse{
		Count:       len(items),
		Coordinates: items,
	})
}

// health 健康检查，每次请求实时Ping存储引擎
func (h *CoordinatesHandler) health(c echo.Context) error {
	if !h.store.IsReachable(c.Request().Context()) {
		return web.JSONError(c, http.StatusServiceUnavailable, h.notConnectedMessage())
	}

	connected := true
	return c.JSON(http.StatusOK, model.HealthResponse{
		Status:         model.HealthStatusHealthy,
		Service:        ServiceName,
		RedisConnected: &connected,
	})
}

func (h *CoordinatesHandler) notConnectedMessage() string {
	return fmt.Sprintf("%s is not connected", h.store.EngineName())
}
