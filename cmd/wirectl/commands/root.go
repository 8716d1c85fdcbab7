// Package commands implements the wirectl commands.
package commands

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rawbytedev/wirechain"
	"github.com/rawbytedev/wirechain/pkg/config"
	wcprom "github.com/rawbytedev/wirechain/pkg/metrics/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// v resolves global flags. Settings other than --config read their
// environment through config.Load.
var v = viper.New()

// Resolved by setup before every command.
var (
	cfg      *config.Config
	logger   zerolog.Logger
	registry *prometheus.Registry
)

var rootCmd = &cobra.Command{
	Use:   "wirectl",
	Short: "Encode and inspect NDN TLV packets",
	Long: `wirectl builds NDN TLV packets from a YAML manifest and dumps the
top-level elements of received packets.

Settings come from --config (YAML or TOML), then WIRECHAIN_* environment
variables, then flags.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		reportMetrics()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Config file (.yaml, .yml or .toml)")
	pf.String("log-level", "", "Log level (trace|debug|info|warn|error|disabled)")
	pf.Int("segment-size", 0, "Size of segments allocated as a chain grows")
	pf.Int("headroom", 0, "Remaining room under which a field starts a new segment")
	pf.Bool("metrics", false, "Log chain metrics when the command finishes")

	v.SetEnvPrefix("WIRECHAIN")
	_ = v.BindEnv("config")
	_ = v.BindPFlags(pf)

	rootCmd.AddCommand(encodeCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

func setup(cmd *cobra.Command) error {
	loaded, err := config.Load(v.GetString("config"))
	if err != nil {
		return err
	}
	if level := v.GetString("log-level"); level != "" {
		loaded.Logging.Level = level
	}
	if n := v.GetInt("segment-size"); n > 0 {
		loaded.Chain.SegmentSize = n
	}
	if n := v.GetInt("headroom"); n > 0 {
		loaded.Chain.Headroom = n
	}
	if v.GetBool("metrics") {
		loaded.Metrics.Enabled = true
	}
	if err := config.Validate(loaded); err != nil {
		return err
	}

	cfg = loaded
	logger = cfg.Logger("wirectl", cmd.ErrOrStderr())
	registry = nil
	if cfg.Metrics.Enabled {
		registry = prometheus.NewRegistry()
	}
	logger.Debug().
		Int("segment_size", cfg.Chain.SegmentSize).
		Int("headroom", cfg.Chain.Headroom).
		Bool("pool", cfg.Chain.UsePool).
		Msg("configuration loaded")
	return nil
}

// chainOptions must be called at most once per command, since it registers
// the chain metrics.
func chainOptions() wirechain.Options {
	var metrics wirechain.Metrics
	if registry != nil {
		metrics = wcprom.NewChainMetrics(registry)
	}
	return cfg.ChainOptions(&logger, metrics)
}

func reportMetrics() {
	if registry == nil {
		return
	}
	families, err := registry.Gather()
	if err != nil {
		logger.Warn().Err(err).Msg("gather metrics")
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			name := mf.GetName()
			for _, l := range m.GetLabel() {
				name += "{" + l.GetName() + "=" + l.GetValue() + "}"
			}
			var value float64
			switch {
			case m.GetCounter() != nil:
				value = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				value = m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				value = float64(m.GetHistogram().GetSampleCount())
			}
			logger.Info().Str("metric", name).Float64("value", value).Msg("metric")
		}
	}
}
