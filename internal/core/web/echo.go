// Package web 提供两个服务共用的Echo初始化、请求校验和错误响应。
package web

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/yosefanaliza/black-coordinates-list/internal/config"
	"github.com/yosefanaliza/black-coordinates-list/internal/core/model"
	"github.com/yosefanaliza/black-coordinates-list/internal/metrics"
)

// Version 服务版本
const Version = "1.0.0"

// NewEcho 创建带通用中间件的Echo实例，并挂载 /metrics
func NewEcho(logger config.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewValidator()
	e.HTTPErrorHandler = ErrorHandler(logger)

	// 添加中间件
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(RequestLogger(logger))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	return e
}

// RequestLogger 用zap记录访问日志
func RequestLogger(logger config.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zapcore.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("remote_ip", v.RemoteIP),
				zap.String("request_id", v.RequestID),
			}
			if v.Error != nil {
				logger.Warn("请求处理失败", append(fields, zap.Error(v.Error))...)
				return nil
			}
			logger.Info("请求完成", fields...)
			return nil
		},
	})
}

// ErrorHandler 把所有错误渲染为 {code, message}
func ErrorHandler(logger config.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		message := http.StatusText(code)

		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			message = fmt.Sprint(he.Message)
		} else {
			logger.Error("未处理的错误", zap.Error(err))
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(code)
		} else {
			writeErr = JSONError(c, code, message)
		}
		if writeErr != nil {
			logger.Error("写入错误响应失败", zap.Error(writeErr))
		}
	}
}

// JSONError 返回错误响应
func JSONError(c echo.Context, code int, message string) error {
	return c.JSON(code, model.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// RootHandler 返回服务基本信息
func RootHandler(service string) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, model.RootResponse{
			Service: service,
			Status:  "running",
			Version: Version,
		})
	}
}
