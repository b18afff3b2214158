package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"camwatch/internal/bootstrap"
	monitorout "camwatch/internal/modules/monitor/port/out"
	"camwatch/internal/platform/config"
	"camwatch/internal/platform/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootFlags struct {
	dataDir  string
	baseURL  string
	logLevel string
	verbose  bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "camwatch",
		Short:         "Track recorder download and backup jobs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.dataDir, "data-dir", ".", "directory holding camwatch.yaml and the .camwatch state")
	root.PersistentFlags().StringVar(&flags.baseURL, "base-url", "", "appliance base URL (overrides config)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level: trace|debug|info|warn|error")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "log to the console")

	root.AddCommand(newWatchCmd(flags))
	root.AddCommand(newResumeCmd(flags))
	root.AddCommand(newStatusCmd(flags))
	root.AddCommand(newDismissCmd(flags))
	root.AddCommand(newHistoryCmd(flags))
	root.AddCommand(newDownloadCmd(flags))
	root.AddCommand(newBackupCmd(flags))
	root.AddCommand(newBatchCmd(flags))
	root.AddCommand(newServeCmd(flags))
	root.AddCommand(newTUICmd(flags))
	return root
}

func loadConfig(flags *rootFlags) (config.Config, error) {
	cfg, err := config.Load(flags.dataDir)
	if err != nil {
		return config.Config{}, err
	}
	if v := strings.TrimSpace(flags.baseURL); v != "" {
		cfg.Appliance.BaseURL = v
	}
	if v := strings.TrimSpace(flags.logLevel); v != "" {
		cfg.Logging.Level = v
	}
	return cfg, cfg.Validate()
}

// loadApp wires the application. console attaches the console log writer in
// addition to --verbose; the TUI never does since it owns the terminal.
func loadApp(flags *rootFlags, console bool, sinks ...monitorout.Sink) (*bootstrap.App, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}
	logger := logging.New(cfg.Logging, console || flags.verbose)
	return bootstrap.New(cfg, bootstrap.Options{Sinks: sinks, Logger: logger})
}
