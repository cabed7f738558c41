package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yosefanaliza/black-coordinates-list/internal/store"
)

// scanBatchSize 每次SCAN建议返回的键数量
const scanBatchSize = 100

// Config redis连接配置
type Config struct {
	Addr        string
	Password    string
	DB          int
	DialTimeout time.Duration
}

// Client 封装了redis客户端，实现store.Engine
type Client struct {
	client *goredis.Client
	addr   string
}

var _ store.Engine = (*Client)(nil)

// NewClient 创建redis客户端，此时不会建立连接
func NewClient(cfg Config) *Client {
	client := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
		// 不重试，连接失败立即暴露给健康检查
		MaxRetries: -1,
	})

	return &Client{
		client: client,
		addr:   cfg.Addr,
	}
}

// Name 返回引擎名称
func (c *Client) Name() string {
	return "Redis"
}

// Addr 返回连接地址
func (c *Client) Addr() string {
	return c.addr
}

// Ping 检查redis是否可达
func (c *Client) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis健康检查失败 [%s]: %w", c.addr, err)
	}
	return nil
}

// Set 设置键值，不过期
func (c *Client) Set(ctx context.Context, key, value string) error {
	if err := c.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis设置键值失败 [%s]: %w", key, err)
	}
	return nil
}

// Get 获取键值
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	value, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", store.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis获取键值失败 [%s]: %w", key, err)
	}
	return value, nil
}

// Keys 用SCAN遍历指定前缀的键，避免KEYS阻塞服务端
func (c *Client) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := c.client.Scan(ctx, 0, prefix+"*", scanBatchSize).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis遍历键失败 [%s*]: %w", prefix, err)
	}
	return keys, nil
}

// Delete 删除键
func (c *Client) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis删除键失败 [%s]: %w", key, err)
	}
	return nil
}

// Close 关闭连接池
func (c *Client) Close() error {
	return c.client.Close()
}
