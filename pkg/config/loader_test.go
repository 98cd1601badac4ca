package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestLoadConfigMergesEnvironmentAndSecrets(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", `
server:
  port: ":8080"
  env: local
jwt:
  secret: "${JWT_SECRET}"
store:
  driver: sqlite
`)
	writeFile(t, dir, "production.yaml", `
server:
  env: production
store:
  driver: postgres
`)
	writeFile(t, dir, "secrets.env", "# comment\nJWT_SECRET=\"s3cret\"\n")

	merged, err := LoadConfig("production", dir)
	require.NoError(t, err)

	var out struct {
		Server ServerConfig `yaml:"server"`
		JWT    JWTConfig    `yaml:"jwt"`
		Store  struct {
			Driver string `yaml:"driver"`
		} `yaml:"store"`
	}
	require.NoError(t, Decode(merged, &out))

	assert.Equal(t, ":8080", out.Server.Port)
	assert.Equal(t, "production", out.Server.Env)
	assert.True(t, out.Server.IsProduction())
	assert.Equal(t, "s3cret", out.JWT.Secret)
	assert.Equal(t, "postgres", out.Store.Driver)
}

func TestLoadConfigMissingBase(t *testing.T) {
	_, err := LoadConfig("local", t.TempDir())
	require.Error(t, err)
}

func TestOverrideFromEnv(t *testing.T) {
	t.Setenv("DB_PORT", "6543")
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("REDIS_DB", "not-a-number")

	db := DBConfig{Port: 5432}
	OverrideDBFromEnv(&db)
	assert.Equal(t, 6543, db.Port)

	jwt := JWTConfig{Secret: "file"}
	OverrideJWTFromEnv(&jwt)
	assert.Equal(t, "from-env", jwt.Secret)

	rc := RedisConfig{DB: 2}
	OverrideRedisFromEnv(&rc)
	assert.Equal(t, 2, rc.DB)
}

func TestMQConfigDefaultsAndEnv(t *testing.T) {
	cfg := MQConfig{URL: "amqp://localhost"}.WithDefaults()
	assert.Equal(t, DefaultExchange, cfg.Exchange)
	assert.Equal(t, "topic", cfg.ExchangeKind)
	require.NotNil(t, cfg.Durable)
	assert.True(t, *cfg.Durable)
	assert.Equal(t, DefaultConnectionName, cfg.ConnectionName)

	t.Setenv("MQ_EXCHANGE", "board.fanout")
	t.Setenv("MQ_EXCHANGE_KIND", "fanout")
	t.Setenv("MQ_DURABLE", "false")

	var fromEnv MQConfig
	OverrideMQFromEnv(&fromEnv)
	fromEnv = fromEnv.WithDefaults()
	assert.Equal(t, "board.fanout", fromEnv.Exchange)
	assert.Equal(t, "fanout", fromEnv.ExchangeKind)
	require.NotNil(t, fromEnv.Durable)
	assert.False(t, *fromEnv.Durable)
}
