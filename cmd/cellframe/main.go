package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/junsooki/cellframe/internal/config"
	"github.com/junsooki/cellframe/internal/logging"
)

var (
	version  = "0.1.0"
	cfgFile  string
	logLevel string
	devLog   bool
)

var rootCmd = &cobra.Command{
	Use:   "cellframe",
	Short: "Capture a surface as terminal-cell frames",
	Long: `cellframe paints a visual surface, scales it so each pixel covers half a
terminal cell and streams the result as JSON pixel frames.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("cellframe v%s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./cellframe.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&devLog, "dev", false, "human-readable log output")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(probeCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads and validates the config and builds the logger. overrides
// holds flag values the user set explicitly, keyed like the config file.
func setup(overrides map[string]any) (*config.Config, *zap.Logger, error) {
	if logLevel != "" {
		overrides["log.level"] = logLevel
	}
	cfg, err := config.Load(cfgFile, overrides)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.Log.Level, devLog)
	if err != nil {
		return nil, nil, err
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		for _, e := range errs {
			logger.Error("invalid config", zap.Error(e))
		}
		return nil, nil, errors.Errorf("%d config errors", len(errs))
	}
	return cfg, logger, nil
}

// changedFlags maps flags set on the command line to config keys.
func changedFlags(cmd *cobra.Command, keys map[string]string) map[string]any {
	out := make(map[string]any)
	for flag, key := range keys {
		f := cmd.Flags().Lookup(flag)
		if f == nil || !f.Changed {
			continue
		}
		out[key] = f.Value.String()
	}
	return out
}
