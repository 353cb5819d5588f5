package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"firestige.xyz/dissect/internal/config"
	"firestige.xyz/dissect/internal/core"
	"firestige.xyz/dissect/internal/log"
	chain "firestige.xyz/dissect/internal/plugin"
)

type diameterOptions struct {
	file       string
	dictionary string
	port       uint16
	summary    bool
}

var diameterOpts diameterOptions

var diameterCmd = &cobra.Command{
	Use:   "diameter",
	Short: "Decode Diameter messages",
	Long: `Decode Diameter messages, one hex-encoded message per line.
Blank lines and lines starting with # are ignored.

Examples:
  dissect diameter -f ccr.hex                 # decode with the embedded dictionary
  dissect diameter -f ccr.hex -d vendor.yaml  # decode with a custom dictionary
  dissect diameter -f - --summary < ccr.hex   # one line per message from stdin`,
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := openInput(diameterOpts.file)
		if err != nil {
			return err
		}
		defer in.Close()
		if err := runDiameter(cmd.Context(), in, cmd.OutOrStdout(), currentConfig(), diameterOpts); err != nil {
			return err
		}
		return printMetrics(cmd)
	},
}

func init() {
	diameterCmd.Flags().StringVarP(&diameterOpts.file, "file", "f", "",
		"file of hex-encoded messages, - for stdin (required)")
	diameterCmd.Flags().StringVarP(&diameterOpts.dictionary, "dictionary", "d", "",
		"dictionary YAML, overrides the configured one")
	diameterCmd.Flags().Uint16VarP(&diameterOpts.port, "port", "p", 3868,
		"transport port the messages were captured on")
	diameterCmd.Flags().BoolVar(&diameterOpts.summary, "summary", false,
		"print only the summary line of each message")
	_ = diameterCmd.MarkFlagRequired("file")
}

func runDiameter(ctx context.Context, r io.Reader, w io.Writer, c *config.Config, opts diameterOptions) (err error) {
	spec := diameterSpec(c)
	if opts.dictionary != "" {
		spec.Config["dictionary"] = opts.dictionary
	}
	ch, err := chain.NewChain(spec)
	if err != nil {
		return err
	}
	if err := ch.Start(ctx); err != nil {
		return err
	}
	defer stopChain(ctx, ch, &err)

	records, err := readRecords(r)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	failed := 0
	for i, rec := range records {
		frame := uint64(i + 1)
		data, err := parseHex(rec.fields...)
		if err != nil {
			failed++
			fmt.Fprintf(w, "#%d line %d: %v\n", frame, rec.line, err)
			continue
		}
		pkt := &core.Packet{Frame: core.Frame{Number: frame}, Port: opts.port, Data: data}
		res, err := ch.Dispatch(pkt)
		if err != nil {
			failed++
		}
		if err := printResult(w, frame, res, err, opts.summary); err != nil {
			return err
		}
	}
	log.GetLogger().WithFields(map[string]interface{}{
		"records": len(records),
		"failed":  failed,
	}).Info("diameter run finished")
	return nil
}
