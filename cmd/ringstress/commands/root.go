// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Version is set at build time with -ldflags "-X ...commands.Version=...".
var Version = "dev"

// rootOptions are the persistent flags shared by every command.
type rootOptions struct {
	logLevel string
}

// NewRootCommand returns the ringstress root command; it is an alias for run.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}
	runCommand := newRunCommand(opts)
	rootCommand := &cobra.Command{
		Use:           "ringstress",
		Short:         "Stress test the lock-free SPSC byte ring",
		RunE:          runCommand.RunE,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	rootCommand.Flags().AddFlagSet(runCommand.Flags())
	rootCommand.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	rootCommand.AddCommand(runCommand)
	rootCommand.AddCommand(newVersionCommand())
	return rootCommand
}

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().Execute()
}

// newLogger builds the console logger used by every command.
func newLogger(logLevel string) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(logLevel)
	if err != nil {
		return nil, fmt.Errorf("--log-level: %w", err)
	}
	zapcfg := zap.NewProductionConfig()
	zapcfg.EncoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
	zapcfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	zapcfg.Encoding = "console"
	zapcfg.Level = level
	logger, err := zapcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ringstress %s\n", Version)
		},
	}
}
