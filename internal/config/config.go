package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

// Config 保存应用程序配置。
type Config struct {
	App     AppConfig     `json:"app"`
	Backend BackendConfig `json:"backend"`
	Stream  StreamConfig  `json:"stream"`
	Cache   CacheConfig   `json:"cache"`
}

// AppConfig 应用程序基础配置。
type AppConfig struct {
	Env      string `json:"env"`       // 运行环境: local / prod
	LogLevel string `json:"log_level"` // 日志级别: debug / info / warn / error
	HTTPAddr string `json:"http_addr"` // 本地只读 API 监听地址
}

// BackendConfig 后端访问配置。
type BackendConfig struct {
	BaseURL        string        `json:"base_url"`        // 后端基础地址（如 http://localhost:8080/api）
	RequestTimeout time.Duration `json:"request_timeout"` // 单次请求超时（如 "10s"）
	Token          string        `json:"token"`           // 静态访问令牌（可选）
	RateLimit      float64       `json:"rate_limit"`      // 上游限流速率（req/s，0 表示不限）
	RateBurst      int           `json:"rate_burst"`      // 限流桶容量
}

// StreamConfig 看板事件流配置。
type StreamConfig struct {
	Topics string `json:"topics"` // 订阅主题（逗号分隔），默认 "home"
}

// CacheConfig 缓存 TTL 配置。
type CacheConfig struct {
	DatasetTTL        time.Duration `json:"dataset_ttl"`         // 聚合数据集缓存时长
	OrderFeedTTL      time.Duration `json:"order_feed_ttl"`      // 单平台订单流水缓存时长
	ProductFetchLimit int           `json:"product_fetch_limit"` // 单平台商品拉取上限
}

// Load 从 JSON 文件加载配置。
//
// 配置文件不存在时直接使用默认值；环境变量始终优先覆盖。
//
// 参数:
//
//	configPath: 配置文件路径（为空则使用默认路径 "configs/config.json"）
//
// 返回值:
//
//	*Config: 加载完成的配置对象
//	error: 加载失败返回错误
func Load(configPath ...string) (*Config, error) {
	path := "configs/config.json"
	if len(configPath) > 0 && configPath[0] != "" {
		path = configPath[0]
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := getDefaultConfig()
		applyEnvOverrides(cfg)
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	applyDefaults(cfg)
	applyEnvOverrides(cfg)

	return cfg, nil
}

// LoadOrDefault 加载配置，如果失败则返回默认配置（不报错）。
func LoadOrDefault(configPath ...string) *Config {
	cfg, err := Load(configPath...)
	if err != nil {
		fallback := getDefaultConfig()
		applyEnvOverrides(fallback)
		return fallback
	}
	return cfg
}

// getDefaultConfig 返回默认配置。
func getDefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Env:      "local",
			LogLevel: "info",
			HTTPAddr: ":8082",
		},
		Backend: BackendConfig{
			BaseURL:        "http://localhost:8080/api",
			RequestTimeout: 10 * time.Second,
			RateLimit:      0,
			RateBurst:      1,
		},
		Stream: StreamConfig{
			Topics: "home",
		},
		Cache: CacheConfig{
			DatasetTTL:        2 * time.Minute,
			OrderFeedTTL:      2 * time.Minute,
			ProductFetchLimit: 5000,
		},
	}
}

// applyDefaults 对未设置的字段应用默认值。
func applyDefaults(cfg *Config) {
	defaults := getDefaultConfig()

	if cfg.App.Env == "" {
		cfg.App.Env = defaults.App.Env
	}
	if cfg.App.LogLevel == "" {
		cfg.App.LogLevel = defaults.App.LogLevel
	}
	if cfg.App.HTTPAddr == "" {
		cfg.App.HTTPAddr = defaults.App.HTTPAddr
	}
	if cfg.Backend.BaseURL == "" {
		cfg.Backend.BaseURL = defaults.Backend.BaseURL
	}
	if cfg.Backend.RequestTimeout == 0 {
		cfg.Backend.RequestTimeout = defaults.Backend.RequestTimeout
	}
	if cfg.Backend.RateBurst == 0 {
		cfg.Backend.RateBurst = defaults.Backend.RateBurst
	}
	if cfg.Stream.Topics == "" {
		cfg.Stream.Topics = defaults.Stream.Topics
	}
	if cfg.Cache.DatasetTTL == 0 {
		cfg.Cache.DatasetTTL = defaults.Cache.DatasetTTL
	}
	if cfg.Cache.OrderFeedTTL == 0 {
		cfg.Cache.OrderFeedTTL = defaults.Cache.OrderFeedTTL
	}
	if cfg.Cache.ProductFetchLimit == 0 {
		cfg.Cache.ProductFetchLimit = defaults.Cache.ProductFetchLimit
	}
}

func applyEnvOverrides(cfg *Config) {
	viper.AutomaticEnv()

	_ = viper.BindEnv("backend_base_url", "BACKEND_BASE_URL")
	_ = viper.BindEnv("backend_token", "BACKEND_TOKEN")

	if v := os.Getenv("APP_ENV"); v != "" {
		cfg.App.Env = v
	}
	if v := os.Getenv("APP_LOG_LEVEL"); v != "" {
		cfg.App.LogLevel = v
	}
	if v := os.Getenv("APP_HTTP_ADDR"); v != "" {
		cfg.App.HTTPAddr = v
	}
	if v := viper.GetString("backend_base_url"); v != "" {
		cfg.Backend.BaseURL = v
	}
	if v := viper.GetString("backend_token"); v != "" {
		cfg.Backend.Token = v
	}
	if v := os.Getenv("BACKEND_REQUEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Backend.RequestTimeout = d
		}
	}
	if v := os.Getenv("BACKEND_RATE_LIMIT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Backend.RateLimit = f
		}
	}
	if v := os.Getenv("BACKEND_RATE_BURST"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Backend.RateBurst = i
		}
	}
	if v := os.Getenv("STREAM_TOPICS"); v != "" {
		cfg.Stream.Topics = v
	}
	if v := os.Getenv("CACHE_DATASET_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.DatasetTTL = d
		}
	}
	if v := os.Getenv("CACHE_ORDER_FEED_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.OrderFeedTTL = d
		}
	}
	if v := os.Getenv("CACHE_PRODUCT_FETCH_LIMIT"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Cache.ProductFetchLimit = i
		}
	}
}

// UnmarshalJSON 自定义 JSON 解析，支持 Duration 字符串。
func (b *BackendConfig) UnmarshalJSON(data []byte) error {
	type Alias BackendConfig
	aux := &struct {
		RequestTimeout string `json:"request_timeout"`
		*Alias
	}{
		Alias: (*Alias)(b),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if aux.RequestTimeout != "" {
		duration, err := time.ParseDuration(aux.RequestTimeout)
		if err != nil {
			return fmt.Errorf("invalid request_timeout format: %w", err)
		}
		b.RequestTimeout = duration
	}

	return nil
}

// UnmarshalJSON 自定义 JSON 解析，支持 Duration 字符串。
func (c *CacheConfig) UnmarshalJSON(data []byte) error {
	type Alias CacheConfig
	aux := &struct {
		DatasetTTL   string `json:"dataset_ttl"`
		OrderFeedTTL string `json:"order_feed_ttl"`
		*Alias
	}{
		Alias: (*Alias)(c),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if aux.DatasetTTL != "" {
		duration, err := time.ParseDuration(aux.DatasetTTL)
		if err != nil {
			return fmt.Errorf("invalid dataset_ttl format: %w", err)
		}
		c.DatasetTTL = duration
	}
	if aux.OrderFeedTTL != "" {
		duration, err := time.ParseDuration(aux.OrderFeedTTL)
		if err != nil {
			return fmt.Errorf("invalid order_feed_ttl format: %w", err)
		}
		c.OrderFeedTTL = duration
	}

	return nil
}
