package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// rootOptions holds global flags for all commands.
type rootOptions struct {
	ConfigPath string
	Verbose    int
}

func (o *rootOptions) loadConfig() (*Config, error) {
	config, err := readConfig(o.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	if o.Verbose >= 0 {
		verbosityLevel = o.Verbose
	}
	initOAuthConfig(config)
	return config, nil
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "sheetcal",
		Short:         "Keep calendars in sync with spreadsheet schedules",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", defaultConfigFile, "config file (.toml or .yaml)")
	cmd.PersistentFlags().IntVarP(&opts.Verbose, "verbose", "v", -1, "verbosity level 0-5, overrides verbosity_level")

	cmd.AddCommand(newSyncCommand(opts))
	cmd.AddCommand(newPlanCommand(opts))
	cmd.AddCommand(newCheckCommand(opts))
	cmd.AddCommand(newListCommand(opts))
	cmd.AddCommand(newDesyncCommand(opts))
	cmd.AddCommand(newCleanupCommand(opts))

	return cmd
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}
