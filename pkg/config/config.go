package config

import (
	"os"
	"strconv"
)

// DBConfig 关系型数据库配置
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
}

// MQConfig 消息队列配置，URL 为空时不发布事件
type MQConfig struct {
	URL          string `yaml:"url"`
	Exchange     string `yaml:"exchange"`
	ExchangeKind string `yaml:"exchange_kind"`
	Durable      *bool  `yaml:"durable"`
	// ConnectionName 显示在 RabbitMQ 管理界面
	ConnectionName string `yaml:"connection_name"`
}

// MQ 默认值
const (
	DefaultExchange       = "taskvault.events"
	DefaultExchangeKind   = "topic"
	DefaultConnectionName = "taskvault"
)

// WithDefaults 补齐未设置的字段
func (c MQConfig) WithDefaults() MQConfig {
	if c.Exchange == "" {
		c.Exchange = DefaultExchange
	}
	if c.ExchangeKind == "" {
		c.ExchangeKind = DefaultExchangeKind
	}
	if c.Durable == nil {
		durable := true
		c.Durable = &durable
	}
	if c.ConnectionName == "" {
		c.ConnectionName = DefaultConnectionName
	}
	return c
}

// RedisConfig Redis配置，Addr 为空时关闭登录限流
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// JWTConfig JWT配置
type JWTConfig struct {
	Secret string `yaml:"secret"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port string `yaml:"port"`
	// Env is "production", "development" or "local".
	Env string `yaml:"env"`
}

// IsProduction reports whether cookies must be marked Secure.
func (s ServerConfig) IsProduction() bool {
	return s.Env == "production"
}

// OverrideDBFromEnv 从环境变量覆盖数据库配置
func OverrideDBFromEnv(cfg *DBConfig) {
	if host := os.Getenv("DB_HOST"); host != "" {
		cfg.Host = host
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Port = p
		}
	}
	if user := os.Getenv("DB_USER"); user != "" {
		cfg.User = user
	}
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		cfg.Password = password
	}
	if name := os.Getenv("DB_NAME"); name != "" {
		cfg.Name = name
	}
	if mode := os.Getenv("DB_SSLMODE"); mode != "" {
		cfg.SSLMode = mode
	}
}

// OverrideMQFromEnv 从环境变量覆盖MQ配置
func OverrideMQFromEnv(cfg *MQConfig) {
	if url := os.Getenv("MQ_URL"); url != "" {
		cfg.URL = url
	}
	if ex := os.Getenv("MQ_EXCHANGE"); ex != "" {
		cfg.Exchange = ex
	}
	if kind := os.Getenv("MQ_EXCHANGE_KIND"); kind != "" {
		cfg.ExchangeKind = kind
	}
	if d := os.Getenv("MQ_DURABLE"); d != "" {
		if v, err := strconv.ParseBool(d); err == nil {
			cfg.Durable = &v
		}
	}
}

// OverrideRedisFromEnv 从环境变量覆盖Redis配置
func OverrideRedisFromEnv(cfg *RedisConfig) {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Addr = addr
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		cfg.Password = password
	}
	if db := os.Getenv("REDIS_DB"); db != "" {
		if n, err := strconv.Atoi(db); err == nil {
			cfg.DB = n
		}
	}
}

// OverrideJWTFromEnv 从环境变量覆盖JWT配置
func OverrideJWTFromEnv(cfg *JWTConfig) {
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.Secret = secret
	}
}

// OverrideServerFromEnv 从环境变量覆盖服务器配置
func OverrideServerFromEnv(cfg *ServerConfig) {
	if port := os.Getenv("SERVER_PORT"); port != "" {
		cfg.Port = port
	}
	if env := os.Getenv("APP_ENV"); env != "" {
		cfg.Env = env
	}
}
