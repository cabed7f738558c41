package memory

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/yosefanaliza/black-coordinates-list/internal/store"
)

// ErrUnavailable 模拟存储不可达
var ErrUnavailable = errors.New("内存存储不可用")

// Client 是基于内存的键值存储，主要用于测试和本地开发
type Client struct {
	data        map[string]string
	unavailable bool
	mutex       sync.RWMutex
}

var _ store.Engine = (*Client)(nil)

// NewClient 创建新的内存存储
func NewClient() *Client {
	return &Client{
		data: make(map[string]string),
	}
}

// Name 返回引擎名称
func (m *Client) Name() string {
	return "memory"
}

// SetAvailable 切换可用状态，不可用时所有操作返回ErrUnavailable
func (m *Client) SetAvailable(available bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.unavailable = !available
}

// Ping 检查存储是否可用
func (m *Client) Ping(ctx context.Context) error {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if m.unavailable {
		return ErrUnavailable
	}
	return nil
}

// Set 设置键值
func (m *Client) Set(ctx context.Context, key, value string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.unavailable {
		return ErrUnavailable
	}
	m.data[key] = value
	return nil
}

// Get 获取键值
func (m *Client) Get(ctx context.Context, key string) (string, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if m.unavailable {
		return "", ErrUnavailable
	}
	value, ok := m.data[key]
	if !ok {
		return "", store.ErrNotFound
	}
	return value, nil
}

// Keys 列出指定前缀的键
func (m *Client) Keys(ctx context.Context, prefix string) ([]string, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if m.unavailable {
		return nil, ErrUnavailable
	}
	keys := make([]string, 0, len(m.data))
	for key := range m.data {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// Delete 删除键
func (m *Client) Delete(ctx context.Context, key string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.unavailable {
		return ErrUnavailable
	}
	delete(m.data, key)
	return nil
}

// Close 内存存储无需释放资源
func (m *Client) Close() error {
	return nil
}
