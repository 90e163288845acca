// Package config loads the runtime configuration of the botflow binary:
// a YAML file, defaults for every blank field, then environment overrides.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/aretw0/botflow/internal/runtime"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Environment variables read by Load.
const (
	EnvLogLevel    = "BOTFLOW_LOG_LEVEL"
	EnvHTTPAddr    = "BOTFLOW_HTTP_ADDR"
	EnvStoreDriver = "BOTFLOW_STORE_DRIVER"
	// EnvTokenPrefix + upper-cased flow id (dashes become underscores)
	// overrides the token of that flow.
	EnvTokenPrefix = "BOTFLOW_TOKEN_"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverRedis    = "redis"
	DriverBadger   = "badger"
	DriverPostgres = "postgres"
)

// Config is the whole configuration document.
type Config struct {
	LogLevel string           `yaml:"log_level" validate:"omitempty,oneof=debug info warn warning error"`
	HTTP     HTTPConfig       `yaml:"http"`
	Store    StoreConfig      `yaml:"store"`
	Poll     PollConfig       `yaml:"poll"`
	Messages runtime.Messages `yaml:"messages"`
	Flows    []FlowConfig     `yaml:"flows" validate:"dive"`
}

// HTTPConfig configures the webhook server.
type HTTPConfig struct {
	Addr string `yaml:"addr" validate:"required"`
	// PublicURL is where the provider reaches this server; webhooks are
	// registered as PublicURL + /webhook/{flowID}.
	PublicURL string `yaml:"public_url" validate:"omitempty,url"`
}

// StoreConfig selects and configures the conversation store.
type StoreConfig struct {
	Driver string `yaml:"driver" validate:"oneof=memory file redis badger postgres"`

	// Path is the directory of the file store or of the badger database.
	Path string `yaml:"path" validate:"required_if=Driver file"`

	RedisAddr     string        `yaml:"redis_addr" validate:"required_if=Driver redis"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db" validate:"gte=0"`
	RedisPrefix   string        `yaml:"redis_prefix"`
	TTL           time.Duration `yaml:"ttl" validate:"gte=0"`
	LockTTL       time.Duration `yaml:"lock_ttl" validate:"gte=0"`

	PostgresURL string `yaml:"postgres_url" validate:"required_if=Driver postgres"`

	// EncryptionKey is a hex encoded 32 byte AES key; empty disables encryption.
	EncryptionKey string   `yaml:"encryption_key" validate:"omitempty,len=64,hexadecimal"`
	FallbackKeys  []string `yaml:"fallback_keys" validate:"dive,len=64,hexadecimal"`
	PIIPatterns   []string `yaml:"pii_patterns"`
}

// PollConfig tunes long polling.
type PollConfig struct {
	Timeout     time.Duration `yaml:"timeout" validate:"gte=0"`
	BackoffMin  time.Duration `yaml:"backoff_min" validate:"gt=0"`
	BackoffMax  time.Duration `yaml:"backoff_max" validate:"gtefield=BackoffMin"`
	BatchLimit  int           `yaml:"batch_limit" validate:"gte=1,lte=100"`
	Concurrency int           `yaml:"concurrency" validate:"gte=0"`
}

// FlowConfig binds a flow file to a bot token.
type FlowConfig struct {
	ID    string `yaml:"id" validate:"required"`
	File  string `yaml:"file" validate:"required"`
	Token string `yaml:"token"`
}

// Default returns the configuration used for every blank field.
func Default() Config {
	return Config{
		LogLevel: "info",
		HTTP:     HTTPConfig{Addr: ":8080"},
		Store: StoreConfig{
			Driver:      DriverMemory,
			RedisPrefix: "botflow:",
			LockTTL:     30 * time.Second,
		},
		Poll: PollConfig{
			Timeout:    30 * time.Second,
			BackoffMin: time.Second,
			BackoffMax: 30 * time.Second,
			BatchLimit: 100,
		},
		Messages: runtime.DefaultMessages(),
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads path (skipped when empty), fills defaults, applies environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}
	return finish(&cfg, os.LookupEnv)
}

// Parse is Load for an in-memory document; lookup replaces os.LookupEnv.
func Parse(data []byte, lookup func(string) (string, bool)) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return finish(&cfg, lookup)
}

func finish(cfg *Config, lookup func(string) (string, bool)) (*Config, error) {
	if err := mergo.Merge(cfg, Default()); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}
	applyEnv(cfg, lookup)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		cfg.LogLevel = v
	}
	if v, ok := lookup(EnvHTTPAddr); ok && v != "" {
		cfg.HTTP.Addr = v
	}
	if v, ok := lookup(EnvStoreDriver); ok && v != "" {
		cfg.Store.Driver = v
	}
	for i := range cfg.Flows {
		if v, ok := lookup(TokenEnv(cfg.Flows[i].ID)); ok && v != "" {
			cfg.Flows[i].Token = v
		}
	}
}

// TokenEnv is the variable overriding the token of flowID.
func TokenEnv(flowID string) string {
	return EnvTokenPrefix + strings.ToUpper(strings.ReplaceAll(flowID, "-", "_"))
}

// Validate checks field constraints and that flow ids are unique.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q", fe.Namespace(), describeTag(fe)))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}

	seen := make(map[string]bool, len(c.Flows))
	for _, f := range c.Flows {
		if seen[f.ID] {
			return fmt.Errorf("invalid config: duplicate flow id %q", f.ID)
		}
		seen[f.ID] = true
	}
	return nil
}

func describeTag(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}

// Flow returns the entry for id.
func (c *Config) Flow(id string) (FlowConfig, bool) {
	for _, f := range c.Flows {
		if f.ID == id {
			return f, true
		}
	}
	return FlowConfig{}, false
}

// FlowFiles maps flow ids to their files, as the file loader expects.
func (c *Config) FlowFiles() map[string]string {
	files := make(map[string]string, len(c.Flows))
	for _, f := range c.Flows {
		files[f.ID] = f.File
	}
	return files
}

// Keys decodes the encryption keys. The active key is nil when encryption is off.
func (s StoreConfig) Keys() (active []byte, fallback [][]byte, err error) {
	if s.EncryptionKey == "" {
		return nil, nil, nil
	}
	if active, err = hex.DecodeString(s.EncryptionKey); err != nil {
		return nil, nil, fmt.Errorf("encryption_key: %w", err)
	}
	for i, k := range s.FallbackKeys {
		b, err := hex.DecodeString(k)
		if err != nil {
			return nil, nil, fmt.Errorf("fallback_keys[%d]: %w", i, err)
		}
		fallback = append(fallback, b)
	}
	return active, fallback, nil
}

// Summary is a one-line description safe to log (no secrets).
func (c *Config) Summary() string {
	return "store=" + c.Store.Driver +
		" http=" + c.HTTP.Addr +
		" flows=" + strconv.Itoa(len(c.Flows)) +
		" encrypted=" + strconv.FormatBool(c.Store.EncryptionKey != "")
}
