package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/botflow"
	"github.com/aretw0/botflow/internal/config"
	"github.com/aretw0/botflow/internal/logging"
	"github.com/aretw0/botflow/pkg/adapters/badger"
	"github.com/aretw0/botflow/pkg/adapters/file"
	"github.com/aretw0/botflow/pkg/adapters/memory"
	"github.com/aretw0/botflow/pkg/adapters/postgres"
	"github.com/aretw0/botflow/pkg/adapters/redis"
	"github.com/aretw0/botflow/pkg/domain"
	"github.com/aretw0/botflow/pkg/persistence/middleware"
	"github.com/aretw0/botflow/pkg/ports"
)

// Persistence is an opened store with what was needed to open it.
type Persistence struct {
	Store  ports.StateStore
	Locker ports.DistributedLocker // set for redis only

	closers []io.Closer
}

// Close releases the backend connections.
func (p *Persistence) Close() error {
	var errs []error
	for _, c := range p.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// OpenStore builds the configured StateStore wrapped with the PII and
// encryption middleware when enabled. PII masking runs before encryption.
func OpenStore(ctx context.Context, cfg config.StoreConfig) (*Persistence, error) {
	p := &Persistence{}
	switch cfg.Driver {
	case "", config.DriverMemory:
		p.Store = memory.NewStore()
	case config.DriverFile:
		p.Store = file.NewStore(cfg.Path)
	case config.DriverBadger:
		s, err := badger.Open(cfg.Path, badger.WithTTL(cfg.TTL))
		if err != nil {
			return nil, err
		}
		p.Store = s
		p.closers = append(p.closers, s)
	case config.DriverRedis:
		s := redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB,
			redis.WithPrefix(cfg.RedisPrefix),
			redis.WithTTL(cfg.TTL),
		)
		p.Store = s
		p.Locker = redis.NewLocker(s.Client(), cfg.RedisPrefix)
		p.closers = append(p.closers, s)
	case config.DriverPostgres:
		s, err := postgres.Open(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, err
		}
		p.Store = s
		p.closers = append(p.closers, s)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}

	var mws []middleware.Middleware
	if len(cfg.PIIPatterns) > 0 {
		mws = append(mws, middleware.NewPIIMiddleware(cfg.PIIPatterns))
	}
	active, fallback, err := cfg.Keys()
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	if active != nil {
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    active,
			FallbackKeys: fallback,
		}))
	}
	p.Store = middleware.Chain(p.Store, mws...)
	return p, nil
}

// NewLoader serves the flows listed in the configuration.
func NewLoader(cfg *config.Config, logger *slog.Logger) *file.Loader {
	if logger == nil {
		logger = logging.NewNop()
	}
	return file.NewLoader(cfg.FlowFiles(), file.WithLogger(logger))
}

// NewEngine wires a loader and the configured persistence into an Engine.
func NewEngine(cfg *config.Config, loader ports.GraphLoader, p *Persistence, logger *slog.Logger, hooks domain.LifecycleHooks) (*botflow.Engine, error) {
	opts := []botflow.Option{
		botflow.WithLogger(logger),
		botflow.WithStore(p.Store),
		botflow.WithMessages(cfg.Messages),
		botflow.WithLifecycleHooks(hooks),
	}
	if p.Locker != nil {
		opts = append(opts, botflow.WithLocker(p.Locker, cfg.Store.LockTTL))
	}
	engine, err := botflow.New(loader, opts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	return engine, nil
}
