package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/botflow/internal/config"
	"github.com/aretw0/botflow/pkg/adapters/telegram"
	"github.com/aretw0/botflow/pkg/dispatch"
	"github.com/aretw0/botflow/pkg/intake"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var pollCmd = &cobra.Command{
	Use:   "poll",
	Short: "Run the configured bots with long polling",
	Long: `Long-polls Telegram for every configured flow with a token, without
exposing an HTTP endpoint. Any registered webhook is removed first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd)
		if err != nil {
			return err
		}

		flows := a.tokenFlows()
		if only, _ := cmd.Flags().GetString("flow"); only != "" {
			f, ok := a.cfg.Flow(only)
			if !ok || f.Token == "" {
				return fmt.Errorf("flow %q is not configured with a token", only)
			}
			flows = []config.FlowConfig{f}
		}
		if len(flows) == 0 {
			return fmt.Errorf("no flow has a bot token (set %s<FLOW_ID>)", config.EnvTokenPrefix)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		rt, err := a.openStack(ctx)
		if err != nil {
			return err
		}
		defer rt.Close()

		poll := a.cfg.Poll
		g, gctx := errgroup.WithContext(ctx)
		for _, f := range flows {
			client, err := a.connect(ctx, f.ID, f.Token,
				telegram.WithPollTimeout(poll.Timeout),
				telegram.WithBatchLimit(poll.BatchLimit),
			)
			if err != nil {
				return err
			}
			defer client.Close()

			d := dispatch.New(client,
				dispatch.WithLogger(a.logger),
				dispatch.WithFlowID(f.ID),
				dispatch.WithLifecycleHooks(rt.metrics.Hooks()),
			)
			proc := intake.NewProcessor(rt.engine, d, intake.WithLogger(a.logger))
			poller := intake.NewPoller(f.ID, client, proc,
				intake.WithPollerLogger(a.logger),
				intake.WithBackoff(poll.BackoffMin, poll.BackoffMax),
				intake.WithConcurrency(poll.Concurrency),
			)
			g.Go(func() error { return poller.Run(gctx) })
		}
		return g.Wait()
	},
}

func init() {
	pollCmd.Flags().String("flow", "", "Poll only this flow")
	rootCmd.AddCommand(pollCmd)
}
