// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/momentics/hioload-ring/control"
	"github.com/momentics/hioload-ring/stress"
)

// runFlags are the command-line overrides for stress.Config.
type runFlags struct {
	config      string
	sizes       []uint
	messages    int
	seed        uint32
	pin         bool
	outboxDepth int
	timeout     time.Duration
}

func (f *runFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.config, "config", "c", "", "YAML config file")
	fs.UintSliceVar(&f.sizes, "sizes", nil, "Ring capacities to test (rounded up to powers of two)")
	fs.IntVar(&f.messages, "messages", 0, "Frames per run (default: 1024 per byte of capacity)")
	fs.Uint32Var(&f.seed, "seed", 0, "Generator seed (0 picks one)")
	fs.BoolVar(&f.pin, "pin", false, "Pin producer and consumer to distinct CPUs")
	fs.IntVar(&f.outboxDepth, "outbox-depth", 0, "Frames the producer generates ahead")
	fs.DurationVar(&f.timeout, "timeout", 0, "Per-run time limit, e.g. 30s (0 means none)")
}

// resolve loads the config file, if any, and applies flags that were set.
func (f *runFlags) resolve(fs *pflag.FlagSet) (stress.Config, error) {
	cfg := stress.DefaultConfig()
	if f.config != "" {
		var err error
		if cfg, err = stress.LoadConfig(f.config); err != nil {
			return cfg, err
		}
	}
	if fs.Changed("sizes") {
		cfg.Sizes = make([]uint64, len(f.sizes))
		for i, size := range f.sizes {
			cfg.Sizes[i] = uint64(size)
		}
	}
	if fs.Changed("messages") {
		cfg.Messages = f.messages
	}
	if fs.Changed("seed") {
		cfg.Seed = f.seed
	}
	if fs.Changed("pin") {
		cfg.Pin = f.pin
	}
	if fs.Changed("outbox-depth") {
		cfg.OutboxDepth = f.outboxDepth
	}
	if fs.Changed("timeout") {
		cfg.Timeout = f.timeout
	}
	return cfg, cfg.Validate()
}

func newRunCommand(opts *rootOptions) *cobra.Command {
	var flags runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the stress test",
		Long: `Stream checksummed frames through rings of each configured capacity.

Every frame is verified on the consumer side against a mirror of the
producer's generator; the first corrupted, reordered or lost frame fails
the run. One summary line is printed per capacity.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.resolve(cmd.Flags())
			if err != nil {
				return err
			}
			logger, err := newLogger(opts.logLevel)
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runStress(ctx, cmd, cfg, logger)
		},
	}
	flags.register(cmd.Flags())
	return cmd
}

func runStress(ctx context.Context, cmd *cobra.Command, cfg stress.Config, logger *zap.Logger) error {
	metrics := control.NewMetricsRegistry()
	probes := control.NewDebugProbes()
	control.RegisterPlatformProbes(probes)
	logger.Debug("platform", zap.Any("probes", probes.DumpState()))

	runner, err := stress.NewRunner(cfg, logger, stress.WithMetrics(metrics), stress.WithProbes(probes))
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "seed %d\n", runner.Seed())

	reports, err := runner.Run(ctx)
	for _, rep := range reports {
		fmt.Fprintln(out, rep.String())
	}
	logger.Debug("metrics", metricFields(metrics, "stress.")...)
	return err
}

// metricFields turns the registry keys under prefix into log fields.
func metricFields(mr *control.MetricsRegistry, prefix string) []zap.Field {
	keys := mr.Keys(prefix)
	fields := make([]zap.Field, 0, len(keys)+1)
	for _, key := range keys {
		if v, ok := mr.Get(key); ok {
			fields = append(fields, zap.Any(key, v))
		}
	}
	return append(fields, zap.Time("updated", mr.Updated()))
}
