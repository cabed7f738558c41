package config

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// 支持的存储后端
const (
	BackendRedis  = "redis"
	BackendEtcd   = "etcd"
	BackendMemory = "memory"
)

// Config 应用程序配置结构
type Config struct {
	// 解析服务（对外入口）
	Resolver struct {
		ListenAddress string `mapstructure:"listen_address"`
		Port          int    `mapstructure:"port"`
	} `mapstructure:"resolver"`

	// 坐标存储服务
	Storage struct {
		ListenAddress string `mapstructure:"listen_address"`
		Port          int    `mapstructure:"port"`
	} `mapstructure:"storage"`

	// 地理位置服务（ip-api.com兼容）
	Geo struct {
		BaseURL     string        `mapstructure:"base_url"`
		Timeout     time.Duration `mapstructure:"timeout"`
		MaxAttempts int           `mapstructure:"max_attempts"`
		RetryDelay  time.Duration `mapstructure:"retry_delay"`
	} `mapstructure:"geo"`

	// 解析服务调用存储服务时使用的地址
	StorageService struct {
		Host    string        `mapstructure:"host"`
		Port    int           `mapstructure:"port"`
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"storage_service"`

	Store struct {
		Backend   string `mapstructure:"backend"`
		KeyPrefix string `mapstructure:"key_prefix"`
	} `mapstructure:"store"`

	Redis struct {
		Host        string        `mapstructure:"host"`
		Port        int           `mapstructure:"port"`
		Password    string        `mapstructure:"password"`
		DB          int           `mapstructure:"db"`
		DialTimeout time.Duration `mapstructure:"dial_timeout"`
	} `mapstructure:"redis"`

	Etcd struct {
		Endpoints      []string      `mapstructure:"endpoints"`
		Username       string        `mapstructure:"username"`
		Password       string        `mapstructure:"password"`
		DialTimeout    time.Duration `mapstructure:"dial_timeout"`
		RequestTimeout time.Duration `mapstructure:"request_timeout"`
	} `mapstructure:"etcd"`

	// 日志配置
	Log struct {
		Level       string `mapstructure:"level"`
		Development bool   `mapstructure:"development"`
	} `mapstructure:"log"`
}

// LoadConfig 从文件和环境变量加载配置
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.coordinates")
		v.AddConfigPath("/etc/coordinates")
	}
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		// 搜索路径中找不到配置文件时使用默认值
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("读取配置文件错误: %w", err)
		}
	}

	v.SetEnvPrefix("COORDS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// 允许 SERVICE_B_HOST="" 这类显式置空的变量覆盖默认值
	v.AllowEmptyEnv(true)

	if err := bindEnvVariables(v); err != nil {
		return nil, fmt.Errorf("绑定环境变量错误: %w", err)
	}

	var config Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		secondsToDurationHook(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&config, hook); err != nil {
		return nil, fmt.Errorf("解析配置错误: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults 设置配置默认值
func setDefaults(v *viper.Viper) {
	v.SetDefault("resolver.listen_address", "0.0.0.0")
	v.SetDefault("resolver.port", 8001)
	v.SetDefault("storage.listen_address", "0.0.0.0")
	v.SetDefault("storage.port", 8000)

	v.SetDefault("geo.base_url", "http://ip-api.com/json")
	v.SetDefault("geo.timeout", "5s")
	v.SetDefault("geo.max_attempts", 2)
	v.SetDefault("geo.retry_delay", "0s")

	v.SetDefault("storage_service.host", "service-b")
	v.SetDefault("storage_service.port", 8000)
	v.SetDefault("storage_service.timeout", "10s")

	v.SetDefault("store.backend", BackendRedis)
	v.SetDefault("store.key_prefix", "")

	v.SetDefault("redis.host", "redis")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.dial_timeout", "5s")

	v.SetDefault("etcd.endpoints", []string{"localhost:2379"})
	v.SetDefault("etcd.username", "")
	v.SetDefault("etcd.password", "")
	v.SetDefault("etcd.dial_timeout", "5s")
	v.SetDefault("etcd.request_timeout", "3s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// bindEnvVariables 绑定部署环境中沿用的环境变量名
func bindEnvVariables(v *viper.Viper) error {
	bindings := map[string][]string{
		"geo.base_url":            {"COORDS_GEO_BASE_URL", "IP_API_BASE_URL"},
		"geo.timeout":             {"COORDS_GEO_TIMEOUT", "IP_API_TIMEOUT"},
		"storage_service.host":    {"COORDS_STORAGE_SERVICE_HOST", "SERVICE_B_HOST"},
		"storage_service.port":    {"COORDS_STORAGE_SERVICE_PORT", "SERVICE_B_PORT"},
		"redis.host":              {"COORDS_REDIS_HOST", "REDIS_HOST"},
		"redis.port":              {"COORDS_REDIS_PORT", "REDIS_PORT"},
		"redis.db":                {"COORDS_REDIS_DB", "REDIS_DB"},
		"redis.password":          {"COORDS_REDIS_PASSWORD", "REDIS_PASSWORD"},
		"log.level":               {"COORDS_LOG_LEVEL", "LOG_LEVEL"},
		"resolver.port":           {"COORDS_RESOLVER_PORT", "PORT"},
		"storage.port":            {"COORDS_STORAGE_PORT", "PORT"},
		"etcd.endpoints":          {"COORDS_ETCD_ENDPOINTS", "ETCD_ENDPOINTS"},
		"store.backend":           {"COORDS_STORE_BACKEND"},
		"store.key_prefix":        {"COORDS_STORE_KEY_PREFIX"},
		"storage_service.timeout": {"COORDS_STORAGE_SERVICE_TIMEOUT"},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	return nil
}

// secondsToDurationHook 把不带单位的数字（如 IP_API_TIMEOUT=5）按秒解析为time.Duration
func secondsToDurationHook() mapstructure.DecodeHookFuncType {
	durationType := reflect.TypeOf(time.Duration(0))
	return func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
		if t != durationType {
			return data, nil
		}
		switch value := data.(type) {
		case string:
			seconds, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
			if err != nil {
				// 交给StringToTimeDurationHookFunc处理 "5s" 这类写法
				return data, nil
			}
			return secondsToDuration(seconds), nil
		case int:
			return secondsToDuration(float64(value)), nil
		case int64:
			return secondsToDuration(float64(value)), nil
		case float64:
			return secondsToDuration(value), nil
		}
		return data, nil
	}
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}

// Validate 检查配置是否可用
func (c *Config) Validate() error {
	var errs []error

	checkPort := func(name string, port int) {
		if port <= 0 || port > 65535 {
			errs = append(errs, fmt.Errorf("%s 端口无效: %d", name, port))
		}
	}
	checkPort("resolver.port", c.Resolver.Port)
	checkPort("storage.port", c.Storage.Port)
	checkPort("storage_service.port", c.StorageService.Port)

	if c.Geo.BaseURL == "" {
		errs = append(errs, errors.New("geo.base_url 不能为空"))
	}
	if c.Geo.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("geo.timeout 必须为正数: %s", c.Geo.Timeout))
	}
	if c.Geo.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("geo.max_attempts 至少为1: %d", c.Geo.MaxAttempts))
	}
	if c.Geo.RetryDelay < 0 {
		errs = append(errs, fmt.Errorf("geo.retry_delay 不能为负数: %s", c.Geo.RetryDelay))
	}
	if c.Store.Backend == BackendEtcd {
		if c.Etcd.DialTimeout <= 0 {
			errs = append(errs, fmt.Errorf("etcd.dial_timeout 必须为正数: %s", c.Etcd.DialTimeout))
		}
		if c.Etcd.RequestTimeout <= 0 {
			errs = append(errs, fmt.Errorf("etcd.request_timeout 必须为正数: %s", c.Etcd.RequestTimeout))
		}
	}
	if c.StorageService.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("storage_service.timeout 必须为正数: %s", c.StorageService.Timeout))
	}

	switch c.Store.Backend {
	case BackendRedis:
		checkPort("redis.port", c.Redis.Port)
		if c.Redis.DB < 0 {
			errs = append(errs, fmt.Errorf("redis.db 不能为负数: %d", c.Redis.DB))
		}
	case BackendEtcd:
		if len(c.Etcd.Endpoints) == 0 {
			errs = append(errs, errors.New("etcd.endpoints 不能为空"))
		}
	case BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("不支持的存储后端: %q", c.Store.Backend))
	}

	if len(errs) > 0 {
		return fmt.Errorf("配置校验失败: %w", errors.Join(errs...))
	}
	return nil
}

// Warnings 返回不影响启动但需要关注的配置问题
func (c *Config) Warnings() []string {
	var warnings []string
	if c.StorageService.Host == "" {
		warnings = append(warnings, "未配置存储服务地址(storage_service.host)，坐标将无法保存")
	}
	if c.StorageService.Timeout <= c.Geo.Timeout {
		warnings = append(warnings, fmt.Sprintf("存储服务超时(%s)应大于地理位置服务超时(%s)", c.StorageService.Timeout, c.Geo.Timeout))
	}
	return warnings
}

// RedisAddr 返回redis连接地址
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
