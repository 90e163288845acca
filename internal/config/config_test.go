package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/botflow/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := config.Parse([]byte(`flows: [{id: demo, file: demo.json}]`), env(nil))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, config.DriverMemory, cfg.Store.Driver)
	assert.Equal(t, 30*time.Second, cfg.Poll.Timeout)
	assert.Equal(t, time.Second, cfg.Poll.BackoffMin)
	assert.Equal(t, 30*time.Second, cfg.Poll.BackoffMax)
	assert.Equal(t, 100, cfg.Poll.BatchLimit)
	assert.Equal(t, "Unknown command: %s", cfg.Messages.UnknownCommand)
	assert.Equal(t, map[string]string{"demo": "demo.json"}, cfg.FlowFiles())
}

func TestParse_FileValuesWin(t *testing.T) {
	doc := `
log_level: debug
http:
  addr: ":9000"
  public_url: https://bots.example.com
store:
  driver: redis
  redis_addr: localhost:6379
  ttl: 24h
poll:
  timeout: 10s
  backoff_min: 2s
  backoff_max: 1m
  batch_limit: 50
messages:
  unknown_command: "Comando desconhecido"
flows:
  - id: support
    file: flows/support.yaml
    token: from-file
`
	cfg, err := config.Parse([]byte(doc), env(nil))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, ":9000", cfg.HTTP.Addr)
	assert.Equal(t, "https://bots.example.com", cfg.HTTP.PublicURL)
	assert.Equal(t, config.DriverRedis, cfg.Store.Driver)
	assert.Equal(t, 24*time.Hour, cfg.Store.TTL)
	assert.Equal(t, "botflow:", cfg.Store.RedisPrefix, "blank fields still get defaults")
	assert.Equal(t, 10*time.Second, cfg.Poll.Timeout)
	assert.Equal(t, time.Minute, cfg.Poll.BackoffMax)
	assert.Equal(t, 50, cfg.Poll.BatchLimit)
	assert.Equal(t, "Comando desconhecido", cfg.Messages.UnknownCommand)
	assert.Equal(t, "Choose an option:", cfg.Messages.ChooseOption)

	f, ok := cfg.Flow("support")
	require.True(t, ok)
	assert.Equal(t, "from-file", f.Token)
	_, ok = cfg.Flow("missing")
	assert.False(t, ok)
}

func TestParse_EnvOverrides(t *testing.T) {
	doc := `flows: [{id: my-bot, file: a.json, token: file-token}, {id: other, file: b.json}]`
	cfg, err := config.Parse([]byte(doc), env(map[string]string{
		config.EnvLogLevel:        "warn",
		config.EnvHTTPAddr:        ":7000",
		config.EnvStoreDriver:     "badger",
		"BOTFLOW_TOKEN_MY_BOT":    "env-token",
		"BOTFLOW_TOKEN_UNRELATED": "x",
	}))
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, ":7000", cfg.HTTP.Addr)
	assert.Equal(t, config.DriverBadger, cfg.Store.Driver)
	assert.Equal(t, "env-token", cfg.Flows[0].Token)
	assert.Empty(t, cfg.Flows[1].Token)
	assert.Equal(t, "BOTFLOW_TOKEN_MY_BOT", config.TokenEnv("my-bot"))
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"unknown driver", `store: {driver: sqlite}`, "Driver"},
		{"file store without path", `store: {driver: file}`, "Path"},
		{"redis without address", `store: {driver: redis}`, "RedisAddr"},
		{"postgres without url", `store: {driver: postgres}`, "PostgresURL"},
		{"bad key", `store: {encryption_key: abc}`, "EncryptionKey"},
		{"bad log level", `log_level: loud`, "LogLevel"},
		{"backoff inverted", `poll: {backoff_min: 1m, backoff_max: 1s}`, "BackoffMax"},
		{"flow without file", `flows: [{id: a}]`, "File"},
		{"duplicate flow", `flows: [{id: a, file: a.json}, {id: a, file: b.json}]`, "duplicate flow id"},
		{"bad public url", `http: {public_url: "not a url"}`, "PublicURL"},
		{"not yaml", `flows: [`, "parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Parse([]byte(tt.doc), env(nil))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestStoreKeys(t *testing.T) {
	key := strings.Repeat("ab", 32)
	old := strings.Repeat("cd", 32)
	cfg, err := config.Parse([]byte("store: {encryption_key: "+key+", fallback_keys: ["+old+"]}"), env(nil))
	require.NoError(t, err)

	active, fallback, err := cfg.Store.Keys()
	require.NoError(t, err)
	assert.Len(t, active, 32)
	require.Len(t, fallback, 1)
	assert.Equal(t, byte(0xcd), fallback[0][0])
	assert.Contains(t, cfg.Summary(), "encrypted=true")

	active, fallback, err = config.StoreConfig{}.Keys()
	require.NoError(t, err)
	assert.Nil(t, active)
	assert.Nil(t, fallback)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "botflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http: {addr: \":1234\"}\n"), 0o644))
	t.Setenv(config.EnvHTTPAddr, "")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":1234", cfg.HTTP.Addr)

	_, err = config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	cfg, err = config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.DriverMemory, cfg.Store.Driver)
}
