package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/botflow/internal/cli"
	"github.com/aretw0/botflow/internal/config"
	"github.com/spf13/cobra"
)

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Register the bots' commands and webhooks with Telegram",
	Long: `For every configured flow with a token, publishes the flow's commands
as the bot's command menu. With --webhook the bot is also pointed at
<http.public_url>/webhook/<flow>; with --drop-webhook the registration is removed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd)
		if err != nil {
			return err
		}
		webhook, _ := cmd.Flags().GetBool("webhook")
		drop, _ := cmd.Flags().GetBool("drop-webhook")
		if webhook && drop {
			return fmt.Errorf("--webhook and --drop-webhook are exclusive")
		}
		if webhook && a.cfg.HTTP.PublicURL == "" {
			return fmt.Errorf("--webhook needs http.public_url")
		}

		flows := a.tokenFlows()
		if only, _ := cmd.Flags().GetString("flow"); only != "" {
			f, ok := a.cfg.Flow(only)
			if !ok || f.Token == "" {
				return fmt.Errorf("flow %q is not configured with a token", only)
			}
			flows = []config.FlowConfig{f}
		}

		ctx := cmd.Context()
		loader := cli.NewLoader(a.cfg, a.logger)
		out := cmd.OutOrStdout()
		for _, f := range flows {
			flow, err := loader.Load(ctx, f.ID)
			if err != nil {
				return err
			}
			client, err := a.connect(ctx, f.ID, f.Token)
			if err != nil {
				return err
			}
			defer client.Close()

			if err := client.RegisterCommands(ctx, flow.Commands()); err != nil {
				return fmt.Errorf("flow %s: registering commands: %w", f.ID, err)
			}
			fmt.Fprintf(out, "%s: %d command(s) registered\n", f.ID, len(flow.Commands()))

			switch {
			case webhook:
				url := strings.TrimRight(a.cfg.HTTP.PublicURL, "/") + "/webhook/" + f.ID
				if err := client.SetWebhook(ctx, url); err != nil {
					return fmt.Errorf("flow %s: setting webhook: %w", f.ID, err)
				}
				fmt.Fprintf(out, "%s: webhook set to %s\n", f.ID, url)
			case drop:
				if err := client.DeleteWebhook(ctx); err != nil {
					return fmt.Errorf("flow %s: removing webhook: %w", f.ID, err)
				}
				fmt.Fprintf(out, "%s: webhook removed\n", f.ID)
			default:
				info, err := client.GetWebhookInfo(ctx)
				if err != nil {
					return err
				}
				if info.URL == "" {
					fmt.Fprintf(out, "%s: no webhook (polling)\n", f.ID)
				} else {
					fmt.Fprintf(out, "%s: webhook %s, %d pending update(s)\n", f.ID, info.URL, info.PendingUpdateCount)
				}
				if info.LastErrorMessage != "" {
					fmt.Fprintf(out, "%s: last delivery error: %s\n", f.ID, info.LastErrorMessage)
				}
			}
		}
		return nil
	},
}

func init() {
	deployCmd.Flags().String("flow", "", "Deploy only this flow")
	deployCmd.Flags().Bool("webhook", false, "Point the bot at this server's webhook endpoint")
	deployCmd.Flags().Bool("drop-webhook", false, "Remove the bot's webhook")
	rootCmd.AddCommand(deployCmd)
}
