package storageapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/yosefanaliza/black-coordinates-list/internal/config"
	"github.com/yosefanaliza/black-coordinates-list/internal/core/model"
	"github.com/yosefanaliza/black-coordinates-list/internal/metrics"
)

const coordinatesPath = "/coordinates/"

// Config 存储服务客户端配置
type Config struct {
	Host    string
	Port    int
	Timeout time.Duration
}

// Client 调用坐标存储服务，不做重试
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	logger     config.Logger
}

// NewClient 创建存储服务客户端，Host为空时Store总是失败
func NewClient(cfg Config, logger config.Logger, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	var baseURL string
	if cfg.Host != "" {
		baseURL = fmt.Sprintf("http://%s:%d", cfg.Host, cfg.Port)
	}

	return &Client{
		baseURL:    baseURL,
		timeout:    cfg.Timeout,
		httpClient: httpClient,
		logger:     logger,
	}
}

// NewClientWithBaseURL 直接指定存储服务地址，如 http://127.0.0.1:8000
func NewClientWithBaseURL(baseURL string, timeout time.Duration, logger config.Logger, httpClient *http.Client) *Client {
	client := NewClient(Config{Timeout: timeout}, logger, httpClient)
	client.baseURL = baseURL
	return client
}

// BaseURL 返回存储服务地址
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Store 提交一条坐标记录，只尝试一次。超时、连接失败和非200都返回false，仅在日志中区分。
func (c *Client) Store(ctx context.Context, record model.CoordinateRecord) bool {
	ok := c.store(ctx, record)
	result := "ok"
	if !ok {
		result = "error"
	}
	metrics.StorageForwardTotal.WithLabelValues(result).Inc()
	return ok
}

func (c *Client) store(ctx context.Context, record model.CoordinateRecord) bool {
	if c.baseURL == "" {
		c.logger.Error("未配置存储服务地址，无法保存坐标", zap.String("ip", record.IP))
		return false
	}

	body, err := json.Marshal(model.NewCoordinatePayload(record))
	if err != nil {
		c.logger.Error("序列化坐标失败", zap.String("ip", record.IP), zap.Error(err))
		return false
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+coordinatesPath, bytes.NewReader(body))
	if err != nil {
		c.logger.Error("创建HTTP请求失败", zap.String("ip", record.IP), zap.Error(err))
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			c.logger.Error("存储服务请求超时", zap.String("ip", record.IP), zap.Duration("timeout", c.timeout), zap.Error(err))
		} else {
			c.logger.Error("无法连接存储服务", zap.String("ip", record.IP), zap.String("url", c.baseURL), zap.Error(err))
		}
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Error("存储服务返回错误",
			zap.String("ip", record.IP),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", detail),
		)
		return false
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	c.logger.Info("坐标已提交到存储服务", zap.String("ip", record.IP))
	return true
}

// FetchAll 获取存储服务中的全部坐标
func (c *Client) FetchAll(ctx context.Context) (*model.AllCoordinatesResponse, error) {
	if c.baseURL == "" {
		return nil, errors.New("未配置存储服务地址")
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+coordinatesPath, nil)
	if err != nil {
		return nil, fmt.Errorf("创建HTTP请求失败: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求存储服务失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("存储服务返回错误状态码: %d", resp.StatusCode)
	}

	var result model.AllCoordinatesResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("解析存储服务响应失败: %w", err)
	}
	if result.Coordinates == nil {
		result.Coordinates = []model.CoordinateItem{}
	}

	return &result, nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
