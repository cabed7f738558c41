// Package store 定义坐标存储使用的键值引擎接口，具体实现见 redis、etcd、memory 子包。
package store

import (
	"context"
	"errors"
)

// ErrNotFound 表示键不存在
var ErrNotFound = errors.New("键不存在")

// Engine 键值存储引擎
type Engine interface {
	// Name 返回引擎名称，用于日志和健康检查提示
	Name() string

	// Set 写入键值，已存在时覆盖
	Set(ctx context.Context, key, value string) error

	// Get 读取键值，键不存在时返回ErrNotFound
	Get(ctx context.Context, key string) (string, error)

	// Keys 列出指定前缀的所有键，前缀为空时列出全部
	Keys(ctx context.Context, prefix string) ([]string, error)

	// Ping 检查引擎是否可达
	Ping(ctx context.Context) error

	// Close 释放连接
	Close() error
}
