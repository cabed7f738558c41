package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/yosefanaliza/black-coordinates-list/internal/config"
	"github.com/yosefanaliza/black-coordinates-list/internal/core/model"
	"github.com/yosefanaliza/black-coordinates-list/internal/metrics"
)

// GeoLookup 查询IP坐标
type GeoLookup interface {
	Lookup(ctx context.Context, ip string) (model.GeoCoordinates, error)
}

// CoordinateForwarder 把坐标交给存储服务
type CoordinateForwarder interface {
	Store(ctx context.Context, record model.CoordinateRecord) bool
}

// ResolutionService 提供IP解析的业务逻辑
type ResolutionService interface {
	// Resolve 查询坐标并保存，调用方断开不会中断进行中的解析
	Resolve(ctx context.Context, ip string) Outcome
}

// resolutionService 实现 ResolutionService 接口，无状态，可并发使用
type resolutionService struct {
	geo     GeoLookup
	storage CoordinateForwarder
	logger  config.Logger
}

// NewResolutionService 创建一个新的IP解析服务
func NewResolutionService(geo GeoLookup, storage CoordinateForwarder, logger config.Logger) ResolutionService {
	return &resolutionService{
		geo:     geo,
		storage: storage,
		logger:  logger,
	}
}

// Resolve 先查询坐标，再保存。两个阶段之间不重试。
func (s *resolutionService) Resolve(ctx context.Context, ip string) Outcome {
	// 各阶段自带超时，不受调用方取消影响
	ctx = context.WithoutCancel(ctx)

	outcome := s.resolve(ctx, ip)
	metrics.ResolutionsTotal.WithLabelValues(outcome.Status.String()).Inc()
	return outcome
}

func (s *resolutionService) resolve(ctx context.Context, ip string) Outcome {
	coords, err := s.geo.Lookup(ctx, ip)
	if err != nil {
		s.logger.Warn("IP解析失败", zap.String("ip", ip), zap.Error(err))
		return Outcome{Status: OutcomeLookupFailed, IP: ip}
	}

	record := model.CoordinateRecord{IP: ip, Coordinates: coords}
	if !s.storage.Store(ctx, record) {
		s.logger.Warn("IP已解析但坐标保存失败", zap.String("ip", ip))
		return Outcome{Status: OutcomeStorageFailed, IP: ip, Coordinates: &coords}
	}

	s.logger.Info("IP已解析并保存", zap.String("ip", ip), zap.Float64("lat", coords.Lat), zap.Float64("lon", coords.Lon))
	return Outcome{Status: OutcomeSuccess, IP: ip, Coordinates: &coords}
}
