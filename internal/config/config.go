package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	pkgconfig "taskvault/pkg/config"
)

// 存储后端
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMongo    = "mongo"
	DriverFile     = "file"
)

// 登录校验策略
const (
	StrategyStatic   = "static"
	StrategyBcrypt   = "bcrypt"
	StrategyIdentity = "identity"
)

type AuthConfig struct {
	Strategy     string `yaml:"strategy"`
	AllowedEmail string `yaml:"allowed_email"`

	// static / bcrypt
	Email        string `yaml:"email"`
	Password     string `yaml:"password"`
	PasswordHash string `yaml:"password_hash"`

	// identity
	FirebaseProjectID   string `yaml:"firebase_project_id"`
	FirebaseCredentials string `yaml:"firebase_credentials"`

	SessionTTL        time.Duration `yaml:"session_ttl"`
	MaxFailedAttempts int           `yaml:"max_failed_attempts"`
	LockoutWindow     time.Duration `yaml:"lockout_window"`
}

type StoreConfig struct {
	Driver        string `yaml:"driver"`
	SQLitePath    string `yaml:"sqlite_path"`
	MongoURI      string `yaml:"mongo_uri"`
	MongoDatabase string `yaml:"mongo_database"`
	FilePath      string `yaml:"file_path"`
	EncryptionKey string `yaml:"encryption_key"`
}

type BackupConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Schedule string `yaml:"schedule"`
	Dir      string `yaml:"dir"`
	Keep     int    `yaml:"keep"`
}

type Config struct {
	Server pkgconfig.ServerConfig `yaml:"server"`
	JWT    pkgconfig.JWTConfig    `yaml:"jwt"`
	DB     pkgconfig.DBConfig     `yaml:"db"`
	Redis  pkgconfig.RedisConfig  `yaml:"redis"`
	MQ     pkgconfig.MQConfig     `yaml:"mq"`
	Auth   AuthConfig             `yaml:"auth"`
	Store  StoreConfig            `yaml:"store"`
	Backup BackupConfig           `yaml:"backup"`
}

// Default 返回默认配置
func Default() Config {
	return Config{
		Server: pkgconfig.ServerConfig{Port: ":8080", Env: "local"},
		DB:     pkgconfig.DBConfig{Host: "localhost", Port: 5432, SSLMode: "disable"},
		Auth: AuthConfig{
			Strategy:          StrategyStatic,
			SessionTTL:        90 * 24 * time.Hour,
			MaxFailedAttempts: 5,
			LockoutWindow:     15 * time.Minute,
		},
		Store: StoreConfig{
			Driver:        DriverSQLite,
			SQLitePath:    "taskvault.db",
			MongoDatabase: "taskvault",
			FilePath:      "data/taskvault.enc",
		},
		Backup: BackupConfig{
			Schedule: "0 3 * * *",
			Dir:      "backups",
			Keep:     5,
		},
	}
}

// Load 加载配置
// 优先读取 configDir 下的 base.yaml + <env>.yaml；没有 base.yaml 时退回单个 config.yaml；
// 两者都不存在时只使用默认值和环境变量。
func Load(env, configDir string) (*Config, error) {
	cfg := Default()

	merged, err := pkgconfig.LoadConfig(env, configDir)
	switch {
	case err == nil:
		if err := pkgconfig.Decode(merged, &cfg); err != nil {
			return nil, err
		}
	case errors.Is(err, fs.ErrNotExist):
		if err := loadSingleFile(filepath.Join(configDir, "config.yaml"), &cfg); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	// 环境变量覆盖（生产环境使用）
	overrideFromEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadSingleFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

func overrideFromEnv(cfg *Config) {
	pkgconfig.OverrideServerFromEnv(&cfg.Server)
	pkgconfig.OverrideJWTFromEnv(&cfg.JWT)
	pkgconfig.OverrideDBFromEnv(&cfg.DB)
	pkgconfig.OverrideRedisFromEnv(&cfg.Redis)
	pkgconfig.OverrideMQFromEnv(&cfg.MQ)

	// Auth配置
	setString(&cfg.Auth.Strategy, "AUTH_STRATEGY")
	setString(&cfg.Auth.AllowedEmail, "ALLOWED_EMAIL")
	setString(&cfg.Auth.Email, "AUTH_EMAIL")
	setString(&cfg.Auth.Password, "AUTH_PASSWORD")
	setString(&cfg.Auth.PasswordHash, "AUTH_PASSWORD_HASH")
	setString(&cfg.Auth.FirebaseProjectID, "FIREBASE_PROJECT_ID")
	setString(&cfg.Auth.FirebaseCredentials, "FIREBASE_CREDENTIALS_FILE")
	if n := os.Getenv("AUTH_MAX_FAILED_ATTEMPTS"); n != "" {
		if v, err := strconv.Atoi(n); err == nil {
			cfg.Auth.MaxFailedAttempts = v
		}
	}

	// Store配置
	setString(&cfg.Store.Driver, "STORE_DRIVER")
	setString(&cfg.Store.SQLitePath, "SQLITE_PATH")
	setString(&cfg.Store.MongoURI, "MONGO_URI")
	setString(&cfg.Store.MongoDatabase, "MONGO_DATABASE")
	setString(&cfg.Store.FilePath, "STORE_FILE_PATH")
	setString(&cfg.Store.EncryptionKey, "ENCRYPTION_KEY")

	if v := os.Getenv("BACKUP_ENABLED"); v != "" {
		cfg.Backup.Enabled = v == "true" || v == "1"
	}
	setString(&cfg.Backup.Dir, "BACKUP_DIR")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate 检查启动所需的配置项
func (c *Config) Validate() error {
	var problems []string

	if c.JWT.Secret == "" {
		problems = append(problems, "jwt.secret is required")
	}
	if strings.TrimSpace(c.Auth.AllowedEmail) == "" {
		problems = append(problems, "auth.allowed_email is required")
	}

	switch c.Auth.Strategy {
	case StrategyStatic:
		if c.Auth.Email == "" || c.Auth.Password == "" {
			problems = append(problems, "auth.email and auth.password are required for the static strategy")
		}
	case StrategyBcrypt:
		if c.Auth.Email == "" || c.Auth.PasswordHash == "" {
			problems = append(problems, "auth.email and auth.password_hash are required for the bcrypt strategy")
		}
	case StrategyIdentity:
	default:
		problems = append(problems, fmt.Sprintf("unknown auth.strategy %q", c.Auth.Strategy))
	}

	switch c.Store.Driver {
	case DriverPostgres, DriverSQLite:
	case DriverMongo:
		if c.Store.MongoURI == "" {
			problems = append(problems, "store.mongo_uri is required for the mongo driver")
		}
	case DriverFile:
		if c.Store.EncryptionKey == "" {
			problems = append(problems, "store.encryption_key is required for the file driver")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown store.driver %q", c.Store.Driver))
	}

	if c.Backup.Enabled && c.Store.EncryptionKey == "" {
		problems = append(problems, "store.encryption_key is required when backups are enabled")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}
