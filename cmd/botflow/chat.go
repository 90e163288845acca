package main

import (
	"os"
	"os/signal"

	"github.com/aretw0/botflow/internal/cli"
	"github.com/aretw0/botflow/pkg/domain"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat [flow-id | flow-file]",
	Short: "Talk to a flow in the terminal",
	Long: `Runs a flow locally: every line you type is a message to the bot.
Use ":click DATA" to press a button, ":state" to inspect the conversation,
":reset" to start over and ":quit" to leave.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd)
		if err != nil {
			return err
		}
		loader, flowID, err := a.resolveFlow(args)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		p, err := cli.OpenStore(ctx, a.cfg.Store)
		if err != nil {
			return err
		}
		defer p.Close()

		engine, err := cli.NewEngine(a.cfg, loader, p, a.logger, domain.LifecycleHooks{})
		if err != nil {
			return err
		}

		conversation, _ := cmd.Flags().GetString("conversation")
		plain, _ := cmd.Flags().GetBool("plain")
		fast, _ := cmd.Flags().GetBool("fast")
		interactive := cli.IsTerminal(os.Stdin)

		return cli.Chat(ctx, engine, cli.ChatOptions{
			FlowID:         flowID,
			ConversationID: conversation,
			In:             os.Stdin,
			Out:            os.Stdout,
			Interactive:    interactive,
			Plain:          plain || !cli.IsTerminal(os.Stdout),
			Fast:           fast,
			Logger:         a.logger,
		})
	},
}

func init() {
	chatCmd.Flags().String("conversation", cli.DefaultConversationID, "Conversation id to chat as")
	chatCmd.Flags().Bool("plain", false, "Disable colors and markdown rendering")
	chatCmd.Flags().Bool("fast", false, "Skip the pauses of delay nodes")
	rootCmd.AddCommand(chatCmd)
}
