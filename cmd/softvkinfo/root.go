package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/gogpu/softvk"
)

type rootOptions struct {
	configFile string
	verbose    bool
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:     "softvkinfo",
		Short:   "Inspect the softvk software Vulkan runtime",
		Version: softvk.Version,
		Long: `softvkinfo reports what the softvk runtime exposes.

Examples:
  softvkinfo extensions              List instance and device extensions
  softvkinfo device                  Show the physical device
  softvkinfo procs --scope device    List device-level entry points
  softvkinfo present -o frame.png    Present one frame and save it`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.setup(cmd)
		},
	}
	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "TOML config file (default $"+softvk.ConfigEnv+")")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log runtime activity to stderr")

	cmd.AddCommand(
		newExtensionsCommand(),
		newDeviceCommand(),
		newProcsCommand(),
		newCompileCommand(),
		newPresentCommand(),
	)
	return cmd
}

func (o *rootOptions) setup(cmd *cobra.Command) error {
	logger := log.NewWithOptions(cmd.ErrOrStderr(), log.Options{
		Prefix: "softvk",
		Level:  log.WarnLevel,
	})
	if o.verbose {
		logger.SetLevel(log.DebugLevel)
		logger.SetReportTimestamp(true)
	}
	softvk.SetLogger(slog.New(logger))

	path := o.configFile
	if path == "" {
		path = os.Getenv(softvk.ConfigEnv)
	}
	if path == "" {
		return nil
	}
	cfg, err := softvk.LoadConfig(path)
	if err != nil {
		return err
	}
	softvk.Configure(cfg...)
	logger.Debug("config applied", "path", path, "options", len(cfg))
	return nil
}

// check turns a failing result into an error naming the call.
func check(what string, r softvk.Result) error {
	if r.IsError() {
		return fmt.Errorf("%s: %w", what, r)
	}
	return nil
}
