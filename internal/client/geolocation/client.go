package geolocation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/yosefanaliza/black-coordinates-list/internal/config"
	"github.com/yosefanaliza/black-coordinates-list/internal/core/model"
	"github.com/yosefanaliza/black-coordinates-list/internal/metrics"
)

// 请求的字段，与ip-api.com的fields参数一致
const queryFields = "status,message,country,city,lat,lon"

// 响应体读取上限
const maxBodySize = 1 << 20

// Config 地理位置客户端配置
type Config struct {
	BaseURL     string
	Timeout     time.Duration
	MaxAttempts int
	RetryDelay  time.Duration
}

// Client 查询ip-api.com兼容的地理位置服务
type Client struct {
	baseURL     string
	timeout     time.Duration
	maxAttempts int
	retryDelay  time.Duration
	httpClient  *http.Client
	logger      config.Logger
}

// providerResponse 服务返回的原始结构
type providerResponse struct {
	Status  string   `json:"status"`
	Message string   `json:"message"`
	Lat     *float64 `json:"lat"`
	Lon     *float64 `json:"lon"`
	City    string   `json:"city"`
	Country string   `json:"country"`
}

// NewClient 创建地理位置客户端，httpClient为nil时使用默认客户端
func NewClient(cfg Config, logger config.Logger, httpClient *http.Client) *Client {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		timeout:     cfg.Timeout,
		maxAttempts: cfg.MaxAttempts,
		retryDelay:  cfg.RetryDelay,
		httpClient:  httpClient,
		logger:      logger,
	}
}

// Lookup 查询IP的坐标。失败时返回*LookupError，超时和连接失败最多尝试maxAttempts次。
func (c *Client) Lookup(ctx context.Context, ip string) (model.GeoCoordinates, error) {
	start := time.Now()
	defer func() {
		metrics.GeoLookupDurationMs.Observe(float64(time.Since(start).Milliseconds()))
	}()

	var (
		coords  model.GeoCoordinates
		attempt int
		lastErr *LookupError
	)

	operation := func() error {
		attempt++
		result, lookupErr := c.attempt(ctx, ip)
		if lookupErr != nil {
			lastErr = lookupErr
			metrics.GeoLookupAttemptsTotal.WithLabelValues(lookupErr.Kind.String()).Inc()
			c.logger.Warn("地理位置查询尝试",
				zap.String("ip", ip),
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", c.maxAttempts),
				zap.String("outcome", lookupErr.Kind.String()),
				zap.Error(lookupErr),
			)
			if !lookupErr.Retryable() {
				return backoff.Permanent(lookupErr)
			}
			return lookupErr
		}

		coords = result
		metrics.GeoLookupAttemptsTotal.WithLabelValues("success").Inc()
		c.logger.Info("地理位置查询尝试",
			zap.String("ip", ip),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", c.maxAttempts),
			zap.String("outcome", "success"),
		)
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.retryDelay), uint64(c.maxAttempts-1)),
		ctx,
	)
	if err := backoff.Retry(operation, policy); err != nil {
		if lastErr == nil {
			// 第一次尝试前上下文已结束
			lastErr = &LookupError{IP: ip, Kind: KindConnection, Err: err}
		}
		lastErr.Attempts = attempt
		if lastErr.Retryable() {
			c.logger.Error("地理位置查询重试耗尽", zap.String("ip", ip), zap.Int("attempts", attempt), zap.Error(lastErr))
		}
		return model.GeoCoordinates{}, lastErr
	}

	return coords, nil
}

// attempt 发起一次请求
func (c *Client) attempt(ctx context.Context, ip string) (model.GeoCoordinates, *LookupError) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	url := fmt.Sprintf("%s/%s?fields=%s", c.baseURL, ip, queryFields)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return model.GeoCoordinates{}, &LookupError{IP: ip, Kind: KindConnection, Err: fmt.Errorf("创建HTTP请求失败: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.GeoCoordinates{}, &LookupError{IP: ip, Kind: transportKind(err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		return model.GeoCoordinates{}, &LookupError{IP: ip, Kind: KindHTTPStatus, StatusCode: resp.StatusCode}
	}

	var body providerResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(&body); err != nil {
		if isTimeout(err) {
			return model.GeoCoordinates{}, &LookupError{IP: ip, Kind: KindTimeout, Err: err}
		}
		return model.GeoCoordinates{}, &LookupError{IP: ip, Kind: KindMalformed, Err: fmt.Errorf("解析响应失败: %w", err)}
	}

	if body.Status != "success" {
		return model.GeoCoordinates{}, &LookupError{IP: ip, Kind: KindRejected, Message: body.Message}
	}
	if body.Lat == nil || body.Lon == nil {
		return model.GeoCoordinates{}, &LookupError{IP: ip, Kind: KindMalformed, Err: errors.New("响应缺少经纬度")}
	}

	coords := model.GeoCoordinates{
		Lat:     *body.Lat,
		Lon:     *body.Lon,
		City:    body.City,
		Country: body.Country,
	}
	if err := coords.Validate(); err != nil {
		return model.GeoCoordinates{}, &LookupError{IP: ip, Kind: KindMalformed, Err: err}
	}

	return coords, nil
}

func transportKind(err error) Kind {
	if isTimeout(err) {
		return KindTimeout
	}
	return KindConnection
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
