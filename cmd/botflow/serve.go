package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	bfhttp "github.com/aretw0/botflow/pkg/adapters/http"
	"github.com/aretw0/botflow/pkg/dispatch"
	"github.com/aretw0/botflow/pkg/intake"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the configured bots over HTTP webhooks",
	Long: `Starts the HTTP server: Telegram webhooks on /webhook/{flow},
the simulator on /flows/{flow}/simulate, graphs and Prometheus metrics.
Every configured flow with a token gets a webhook endpoint.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			a.cfg.HTTP.Addr = addr
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		rt, err := a.openStack(ctx)
		if err != nil {
			return err
		}
		defer rt.Close()

		opts := []bfhttp.Option{
			bfhttp.WithLogger(a.logger),
			bfhttp.WithMetrics(rt.metrics.Handler()),
		}
		for _, f := range a.tokenFlows() {
			client, err := a.connect(ctx, f.ID, f.Token)
			if err != nil {
				return err
			}
			defer client.Close()

			d := dispatch.New(client,
				dispatch.WithLogger(a.logger),
				dispatch.WithFlowID(f.ID),
				dispatch.WithLifecycleHooks(rt.metrics.Hooks()),
			)
			opts = append(opts, bfhttp.WithProcessor(f.ID, intake.NewProcessor(rt.engine, d, intake.WithLogger(a.logger))))
		}

		srv := &http.Server{
			Addr:              a.cfg.HTTP.Addr,
			Handler:           bfhttp.NewHandler(rt.engine, opts...),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			a.logger.Info("http server listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		a.logger.Info("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides http.addr)")
	rootCmd.AddCommand(serveCmd)
}
