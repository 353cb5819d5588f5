// Package cmd implements CLI commands using cobra framework.
package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"firestige.xyz/dissect/internal/config"
	"firestige.xyz/dissect/internal/log"
	"firestige.xyz/dissect/internal/metrics"
	chain "firestige.xyz/dissect/internal/plugin"
	"firestige.xyz/dissect/plugins/dissector/diameter"
	"firestige.xyz/dissect/plugins/dissector/vj"

	// built-in dissectors
	_ "firestige.xyz/dissect/plugins"
)

var (
	// Global flags
	configFile  string
	showMetrics bool

	cfg *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "dissect",
	Short: "dissect - stateful binary wire decoders",
	Long: `dissect decodes captured records offline and prints the display tree.

Decoders:
  - Diameter: AVP walk against a vendor-aware dictionary (RFC 6733, RFC 4006, 3GPP)
  - VJ: Van Jacobson TCP/IP header decompression for PPP links (RFC 1144)`,
	Version:           "0.1.0",
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "",
		"config file path (defaults only when empty)")
	rootCmd.PersistentFlags().BoolVar(&showMetrics, "metrics", false,
		"print decoder counters after the run")

	rootCmd.AddCommand(diameterCmd)
	rootCmd.AddCommand(vjCmd)
	rootCmd.AddCommand(dictCmd)
}

func loadConfig(cmd *cobra.Command, args []string) error {
	c, err := config.Load(configFile)
	if err != nil {
		return err
	}
	if err := log.Init(c.Log); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	metrics.SetEnabled(c.Metrics.Enabled)
	cfg = c
	log.GetLogger().WithField("config", configFile).Debug("configuration loaded")
	return nil
}

// currentConfig returns the loaded configuration, or the defaults when a
// command runs without the root pre-run (tests).
func currentConfig() *config.Config {
	if cfg == nil {
		return config.Default()
	}
	return cfg
}

func diameterSpec(c *config.Config) chain.Spec {
	return chain.Spec{Name: diameter.Name, Config: map[string]any{
		"dictionary": c.Diameter.Dictionary,
		"ports":      c.Diameter.Ports,
		"track":      c.Diameter.Track,
		"track_ttl":  c.Diameter.TrackTTL,
	}}
}

func vjSpec(c *config.Config) chain.Spec {
	return chain.Spec{Name: vj.Name, Config: map[string]any{
		"max_slot":    c.VJ.MaxSlot,
		"frame_cache": c.VJ.FrameCache,
	}}
}

// stopChain stops ch and reports its error through err unless an earlier
// error is already set.
func stopChain(ctx context.Context, ch *chain.Chain, err *error) {
	if stopErr := ch.Stop(ctx); stopErr != nil && *err == nil {
		*err = fmt.Errorf("stopping dissectors: %w", stopErr)
	}
}

// printMetrics writes the counters to stderr when --metrics is set.
func printMetrics(cmd *cobra.Command) error {
	if !showMetrics {
		return nil
	}
	return writeMetrics(cmd.ErrOrStderr(), prometheus.DefaultGatherer)
}

// writeMetrics writes the dissect_* families of g in the Prometheus text
// format.
func writeMetrics(out io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), "dissect_") {
			continue
		}
		if _, err := expfmt.MetricFamilyToText(out, mf); err != nil {
			return err
		}
	}
	return nil
}
