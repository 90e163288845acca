package main

import (
	"context"
	"fmt"

	"github.com/aretw0/botflow"
	"github.com/aretw0/botflow/internal/cli"
	"github.com/aretw0/botflow/pkg/adapters/telegram"
	"github.com/aretw0/botflow/pkg/observability"
)

// stack is an engine over the configured flows and store.
type stack struct {
	engine      *botflow.Engine
	metrics     *observability.Metrics
	persistence *cli.Persistence
}

func (a *app) openStack(ctx context.Context) (*stack, error) {
	p, err := cli.OpenStore(ctx, a.cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", a.cfg.Store.Driver, err)
	}
	metrics := observability.NewMetrics()
	hooks := observability.Merge(metrics.Hooks(), observability.LogHooks(a.logger))
	engine, err := cli.NewEngine(a.cfg, cli.NewLoader(a.cfg, a.logger), p, a.logger, hooks)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	a.logger.Info("engine ready", "config", a.cfg.Summary())
	return &stack{engine: engine, metrics: metrics, persistence: p}, nil
}

func (r *stack) Close() error {
	return r.persistence.Close()
}

// connect checks the token of a bot by asking who it is.
func (a *app) connect(ctx context.Context, flowID, token string, opts ...telegram.Option) (*telegram.Client, error) {
	opts = append(opts, telegram.WithLogger(a.logger))
	client := telegram.New(token, opts...)
	me, err := client.GetMe(ctx)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("flow %s: checking bot token: %w", flowID, err)
	}
	a.logger.Info("bot connected", "flow_id", flowID, "bot", me.Username, "bot_id", me.ID)
	return client, nil
}
