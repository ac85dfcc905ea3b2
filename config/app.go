// Package config 加载服务配置（koanf：默认值 -> YAML 文件 -> 环境变量），
// 并维护 Pipeline Node 的构建器注册表。
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/rushteam/docrank/analysis"
	"github.com/rushteam/docrank/engine"
	"github.com/rushteam/docrank/logging"
	"github.com/rushteam/docrank/search"
)

const (
	// EnvPrefix 是环境变量前缀；"__" 分隔层级，例如 DOCRANK_STORE__REDIS__ADDR -> store.redis.addr
	EnvPrefix = "DOCRANK_"
	// ConfigPathEnvVar 指定配置文件路径（-config 参数优先）
	ConfigPathEnvVar = "DOCRANK_CONFIG"
)

// 存储后端
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config 是服务的完整配置。
type Config struct {
	Server   ServerConfig    `koanf:"server"`
	Store    StoreConfig     `koanf:"store"`
	Breaker  BreakerConfig   `koanf:"breaker"`
	Engine   engine.Config   `koanf:"engine"`
	Rules    RulesConfig     `koanf:"rules"`
	Search   search.Config   `koanf:"search"`
	Analysis analysis.Config `koanf:"analysis"`
	Logging  logging.Config  `koanf:"logging"`
}

type ServerConfig struct {
	Addr            string          `koanf:"addr" validate:"required"`
	ReadTimeout     time.Duration   `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration   `koanf:"write_timeout" validate:"gt=0"`
	IdleTimeout     time.Duration   `koanf:"idle_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration   `koanf:"shutdown_timeout" validate:"gt=0"`
	RateLimit       RateLimitConfig `koanf:"rate_limit"`
	CORS            CORSConfig      `koanf:"cors"`
}

type RateLimitConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Requests int           `koanf:"requests" validate:"min=0"`
	Window   time.Duration `koanf:"window" validate:"min=0"`
}

type CORSConfig struct {
	AllowedOrigins []string `koanf:"allowed_origins"`
	MaxAge         int      `koanf:"max_age" validate:"min=0"`
}

type StoreConfig struct {
	Backend  string         `koanf:"backend" validate:"oneof=memory redis postgres"`
	Prefix   string         `koanf:"prefix" validate:"required"`
	SeedFile string         `koanf:"seed_file"`
	Redis    RedisConfig    `koanf:"redis"`
	Postgres PostgresConfig `koanf:"postgres"`
}

type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db" validate:"min=0"`
}

type PostgresConfig struct {
	DSN     string `koanf:"dsn"`
	Migrate bool   `koanf:"migrate"`
}

// BreakerConfig 配置 Catalog / History 的熔断。
type BreakerConfig struct {
	Enabled          bool          `koanf:"enabled"`
	MaxRequests      uint32        `koanf:"max_requests"`
	Interval         time.Duration `koanf:"interval" validate:"min=0"`
	Timeout          time.Duration `koanf:"timeout" validate:"min=0"`
	FailureThreshold uint32        `koanf:"failure_threshold"`
}

// RulesConfig 是业务规则：Pipeline 文件、候选表达式、屏蔽列表。
// FilterExpr 与 Blocklist 只作用于未被 PipelineFile 覆盖的内置 Pipeline。
type RulesConfig struct {
	PipelineFile string   `koanf:"pipeline_file"`
	FilterExpr   string   `koanf:"filter_expr"`
	Blocklist    []string `koanf:"blocklist"`
	BlocklistKey string   `koanf:"blocklist_key"`
}

// Default 返回默认配置。
func Default() *Config {
	logCfg := logging.DefaultConfig()
	logCfg.Output = nil
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled:  true,
				Requests: 100,
				Window:   time.Minute,
			},
			CORS: CORSConfig{
				AllowedOrigins: []string{"*"},
				MaxAge:         300,
			},
		},
		Store: StoreConfig{
			Backend: BackendMemory,
			Prefix:  "docrank",
			Redis:   RedisConfig{Addr: "localhost:6379"},
		},
		Breaker: BreakerConfig{
			MaxRequests:      1,
			Interval:         time.Minute,
			Timeout:          30 * time.Second,
			FailureThreshold: 5,
		},
		Engine:   engine.DefaultConfig(),
		Search:   search.DefaultConfig(),
		Analysis: analysis.DefaultConfig(),
		Logging:  logCfg,
	}
}

// Load 按 默认值 -> 配置文件 -> 环境变量 的顺序加载并校验配置。
// path 为空时使用 DOCRANK_CONFIG；两者都为空时不读文件。
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path == "" {
		path = os.Getenv(ConfigPathEnvVar)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}
	if err := splitSliceFields(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// envTransform: DOCRANK_ENGINE__MAX_LIMIT -> engine.max_limit
func envTransform(key string) string {
	key = strings.TrimPrefix(key, EnvPrefix)
	if key == "CONFIG" {
		return ""
	}
	return strings.ReplaceAll(strings.ToLower(key), "__", ".")
}

// 环境变量中以逗号分隔的列表字段
var sliceFields = []string{
	"server.cors.allowed_origins",
	"rules.blocklist",
	"analysis.stopwords",
}

func splitSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceFields {
		s, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		parts := strings.Split(s, ",")
		vals := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				vals = append(vals, p)
			}
		}
		if err := k.Set(path, vals); err != nil {
			return fmt.Errorf("set %s: %w", path, err)
		}
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate 校验 struct tag 约束以及后端相关的必填项。
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	switch c.Store.Backend {
	case BackendRedis:
		if c.Store.Redis.Addr == "" {
			return fmt.Errorf("store.redis.addr is required for the redis backend")
		}
	case BackendPostgres:
		if c.Store.Postgres.DSN == "" {
			return fmt.Errorf("store.postgres.dsn is required for the postgres backend")
		}
	}
	if c.Server.RateLimit.Enabled && (c.Server.RateLimit.Requests < 1 || c.Server.RateLimit.Window <= 0) {
		return fmt.Errorf("server.rate_limit requires positive requests and window when enabled")
	}
	return nil
}
