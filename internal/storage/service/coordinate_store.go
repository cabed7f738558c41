package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/yosefanaliza/black-coordinates-list/internal/config"
	"github.com/yosefanaliza/black-coordinates-list/internal/core/model"
	"github.com/yosefanaliza/black-coordinates-list/internal/metrics"
	"github.com/yosefanaliza/black-coordinates-list/internal/store"
)

// CoordinateStore 定义坐标存储接口
type CoordinateStore interface {
	// SaveCoordinate 按IP保存坐标，已存在时覆盖
	SaveCoordinate(ctx context.Context, ip string, coords model.GeoCoordinates) error

	// ListAllCoordinates 列出所有坐标，无法解析的记录会被跳过
	ListAllCoordinates(ctx context.Context) ([]model.CoordinateRecord, error)

	// IsReachable 实时检查存储引擎是否可达
	IsReachable(ctx context.Context) bool

	// EngineName 返回底层存储引擎名称
	EngineName() string
}

// coordinateValue 存储中的值，IP即键，不重复保存
type coordinateValue struct {
	Lat     *float64 `json:"lat"`
	Lon     *float64 `json:"lon"`
	City    string   `json:"city"`
	Country string   `json:"country"`
}

// coordinateStore 基于键值引擎的坐标存储
type coordinateStore struct {
	engine    store.Engine
	keyPrefix string
	logger    config.Logger
}

// NewCoordinateStore 创建坐标存储，keyPrefix为空时键即IP
func NewCoordinateStore(engine store.Engine, keyPrefix string, logger config.Logger) CoordinateStore {
	return &coordinateStore{
		engine:    engine,
		keyPrefix: keyPrefix,
		logger:    logger,
	}
}

func (s *coordinateStore) key(ip string) string {
	return s.keyPrefix + ip
}

// SaveCoordinate 按IP保存坐标
func (s *coordinateStore) SaveCoordinate(ctx context.Context, ip string, coords model.GeoCoordinates) (err error) {
	defer func() {
		metrics.StoreOperationsTotal.WithLabelValues("save", metrics.Result(err)).Inc()
	}()

	if !model.IsIPv4(ip) {
		return fmt.Errorf("保存坐标失败 [%s]: %w", ip, model.ErrInvalidIPv4)
	}
	if err := coords.Validate(); err != nil {
		return fmt.Errorf("保存坐标失败 [%s]: %w", ip, err)
	}

	data, err := json.Marshal(coordinateValue{
		Lat:     &coords.Lat,
		Lon:     &coords.Lon,
		City:    coords.City,
		Country: coords.Country,
	})
	if err != nil {
		return fmt.Errorf("序列化坐标失败: %w", err)
	}

	if err := s.engine.Set(ctx, s.key(ip), string(data)); err != nil {
		return fmt.Errorf("保存坐标失败 [%s]: %w", ip, err)
	}

	s.logger.Info("坐标已保存", zap.String("ip", ip), zap.String("engine", s.engine.Name()))
	return nil
}

// ListAllCoordinates 列出所有坐标，结果按IP排序
func (s *coordinateStore) ListAllCoordinates(ctx context.Context) (records []model.CoordinateRecord, err error) {
	defer func() {
		metrics.StoreOperationsTotal.WithLabelValues("list", metrics.Result(err)).Inc()
	}()

	keys, err := s.engine.Keys(ctx, s.keyPrefix)
	if err != nil {
		return nil, fmt.Errorf("列出坐标键失败: %w", err)
	}

	records = make([]model.CoordinateRecord, 0, len(keys))
	for _, key := range keys {
		raw, err := s.engine.Get(ctx, key)
		if errors.Is(err, store.ErrNotFound) {
			// 列举和读取之间被删除
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("读取坐标失败 [%s]: %w", key, err)
		}

		ip := strings.TrimPrefix(key, s.keyPrefix)
		coords, err := decodeCoordinates(raw)
		if err != nil {
			metrics.CorruptEntriesTotal.Inc()
			s.logger.Warn("跳过无法解析的坐标记录", zap.String("key", key), zap.Error(err))
			continue
		}

		records = append(records, model.CoordinateRecord{IP: ip, Coordinates: coords})
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].IP < records[j].IP
	})

	return records, nil
}

// IsReachable 实时检查存储引擎，不缓存结果
func (s *coordinateStore) IsReachable(ctx context.Context) bool {
	if err := s.engine.Ping(ctx); err != nil {
		s.logger.Warn("存储引擎不可达", zap.String("engine", s.engine.Name()), zap.Error(err))
		return false
	}
	return true
}

// EngineName 返回底层存储引擎名称
func (s *coordinateStore) EngineName() string {
	return s.engine.Name()
}

// decodeCoordinates 解析存储的值，缺少经纬度或超出范围视为损坏
func decodeCoordinates(raw string) (model.GeoCoordinates, error) {
	var value coordinateValue
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return model.GeoCoordinates{}, fmt.Errorf("解析坐标JSON失败: %w", err)
	}
	if value.Lat == nil || value.Lon == nil {
		return model.GeoCoordinates{}, errors.New("缺少经纬度字段")
	}

	coords := model.GeoCoordinates{
		Lat:     *value.Lat,
		Lon:     *value.Lon,
		City:    value.City,
		Country: value.Country,
	}
	if err := coords.Validate(); err != nil {
		return model.GeoCoordinates{}, err
	}
	return coords, nil
}
