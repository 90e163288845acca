package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/botflow/internal/cli"
	"github.com/aretw0/botflow/internal/config"
	"github.com/aretw0/botflow/internal/logging"
	"github.com/aretw0/botflow/pkg/adapters/file"
	"github.com/aretw0/botflow/pkg/ports"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "botflow",
	Short: "botflow runs chat bots designed as flow graphs",
	Long: `botflow interprets the flow graphs exported by the visual bot editor:
commands, messages, buttons, conditions, delays and input prompts.
It serves them on Telegram (webhook or long polling), simulates them locally
and checks them for structural problems.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Path to the YAML configuration file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error (overrides the config)")
}

// app is what every command needs: the configuration and a logger.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
}

func setup(cmd *cobra.Command) (*app, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.LogLevel = lvl
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, logger: logging.New(level)}, nil
}

// resolveFlow accepts either a flow file or the id of a configured flow.
// Without an argument the only configured flow is used.
func (a *app) resolveFlow(args []string) (ports.GraphLoader, string, error) {
	if len(args) == 0 {
		if len(a.cfg.Flows) != 1 {
			return nil, "", fmt.Errorf("expected a flow id or file (%d flows configured)", len(a.cfg.Flows))
		}
		return cli.NewLoader(a.cfg, a.logger), a.cfg.Flows[0].ID, nil
	}

	arg := args[0]
	if info, err := os.Stat(arg); err == nil && !info.IsDir() {
		id := strings.TrimSuffix(filepath.Base(arg), filepath.Ext(arg))
		return file.NewLoader(map[string]string{id: arg}, file.WithLogger(a.logger)), id, nil
	}
	if _, ok := a.cfg.Flow(arg); !ok {
		return nil, "", fmt.Errorf("flow %q is neither a file nor configured", arg)
	}
	return cli.NewLoader(a.cfg, a.logger), arg, nil
}

// tokenFlows returns the configured flows that have a bot token.
func (a *app) tokenFlows() []config.FlowConfig {
	var out []config.FlowConfig
	for _, f := range a.cfg.Flows {
		if f.Token != "" {
			out = append(out, f)
		} else {
			a.logger.Warn("flow has no token, skipping", "flow_id", f.ID, "env", config.TokenEnv(f.ID))
		}
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
