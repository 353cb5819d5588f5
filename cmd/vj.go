package cmd

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"firestige.xyz/dissect/internal/config"
	"firestige.xyz/dissect/internal/core"
	"firestige.xyz/dissect/internal/core/decoder"
	"firestige.xyz/dissect/internal/log"
	chain "firestige.xyz/dissect/internal/plugin"
	"firestige.xyz/dissect/internal/vj"
)

type vjOptions struct {
	file    string
	maxSlot int
	passes  int
	summary bool
	// compress only
	compressSlotID bool
}

var vjOpts vjOptions

var vjCmd = &cobra.Command{
	Use:   "vj",
	Short: "Decompress Van Jacobson TCP/IP headers",
	Long: `Decompress a PPP link carrying Van Jacobson compressed TCP/IP.
Each line is "<direction> <kind> <hex>":
  direction  to-host | from-host | unknown
  kind       ip | uncomp | comp, or ppp when the hex starts with a PPP header

Frames are decoded in order; --passes 2 replays the capture as revisited
frames, which must reproduce the first pass without touching link state.

Examples:
  dissect vj -f link.txt
  dissect vj -f link.txt --passes 2 --summary
  dissect vj compress -f packets.txt | dissect vj -f -`,
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := openInput(vjOpts.file)
		if err != nil {
			return err
		}
		defer in.Close()
		if err := runVJ(cmd.Context(), in, cmd.OutOrStdout(), currentConfig(), vjOpts); err != nil {
			return err
		}
		return printMetrics(cmd)
	},
}

var vjCompressCmd = &cobra.Command{
	Use:   "compress",
	Short: "Compress IP packets for a VJ link",
	Long: `Compress IP packets, one hex-encoded packet per line, optionally
prefixed with a direction. Output uses the input format of "dissect vj".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := openInput(vjOpts.file)
		if err != nil {
			return err
		}
		defer in.Close()
		return runVJCompress(in, cmd.OutOrStdout(), currentConfig(), vjOpts)
	},
}

func init() {
	vjCmd.PersistentFlags().StringVarP(&vjOpts.file, "file", "f", "",
		"input file, - for stdin (required)")
	vjCmd.PersistentFlags().IntVar(&vjOpts.maxSlot, "max-slot", -1,
		"highest slot id, overrides the configured one")
	vjCmd.Flags().IntVar(&vjOpts.passes, "passes", 1,
		"number of passes over the capture")
	vjCmd.Flags().BoolVar(&vjOpts.summary, "summary", false,
		"print only the summary line of each frame")
	vjCompressCmd.Flags().BoolVar(&vjOpts.compressSlotID, "compress-slot-id", true,
		"omit the connection number when it repeats")
	_ = vjCmd.MarkPersistentFlagRequired("file")

	vjCmd.AddCommand(vjCompressCmd)
}

type vjFrame struct {
	dir  core.Direction
	kind vj.Kind
	data []byte
}

func parseVJFrame(rec record) (vjFrame, error) {
	if len(rec.fields) < 3 {
		return vjFrame{}, fmt.Errorf("line %d: want <direction> <kind> <hex>", rec.line)
	}
	data, err := parseHex(rec.fields[2:]...)
	if err != nil {
		return vjFrame{}, fmt.Errorf("line %d: %w", rec.line, err)
	}
	f := vjFrame{dir: core.ParseDirection(rec.fields[0]), data: data}
	if rec.fields[1] == "ppp" {
		hdr, payload, err := decoder.DecodePPP(data)
		if err != nil {
			return vjFrame{}, fmt.Errorf("line %d: %w", rec.line, err)
		}
		kind, ok := vj.KindFromPPP(hdr.Protocol)
		if !ok {
			return vjFrame{}, fmt.Errorf("line %d: %w: ppp protocol 0x%04x", rec.line, core.ErrUnsupportedProto, hdr.Protocol)
		}
		f.kind, f.data = kind, payload
		return f, nil
	}
	kind, ok := vj.ParseKind(rec.fields[1])
	if !ok {
		return vjFrame{}, fmt.Errorf("line %d: unknown kind %q", rec.line, rec.fields[1])
	}
	f.kind = kind
	return f, nil
}

func runVJ(ctx context.Context, r io.Reader, w io.Writer, c *config.Config, opts vjOptions) (err error) {
	spec := vjSpec(c)
	if opts.maxSlot >= 0 {
		spec.Config["max_slot"] = opts.maxSlot
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
	frames := make([]vjFrame, 0, len(records))
	for _, rec := range records {
		f, err := parseVJFrame(rec)
		if err != nil {
			return err
		}
		frames = append(frames, f)
	}

	passes := max(opts.passes, 1)
	failed := 0
	for pass := 1; pass <= passes; pass++ {
		if passes > 1 {
			fmt.Fprintf(w, "== pass %d\n", pass)
		}
		for i, f := range frames {
			pkt := &core.Packet{
				Frame:       core.Frame{Number: uint64(i + 1), Visited: pass > 1},
				Direction:   f.dir,
				PPPProtocol: f.kind.PPPProtocol(),
				Data:        f.data,
			}
			res, err := ch.Dispatch(pkt)
			if err != nil {
				failed++
			}
			if err := printResult(w, pkt.Frame.Number, res, err, opts.summary); err != nil {
				return err
			}
		}
	}
	log.GetLogger().WithFields(map[string]interface{}{
		"frames": len(frames),
		"passes": passes,
		"failed": failed,
	}).Info("vj run finished")
	return nil
}

// kindToken is the short kind name accepted by vj.ParseKind.
func kindToken(k vj.Kind) string {
	switch k {
	case vj.KindUncompressed:
		return "uncomp"
	case vj.KindCompressed:
		return "comp"
	default:
		return "ip"
	}
}

func runVJCompress(r io.Reader, w io.Writer, c *config.Config, opts vjOptions) error {
	maxSlot := c.VJ.MaxSlot
	if opts.maxSlot >= 0 {
		maxSlot = opts.maxSlot
	}
	compressors := map[core.Direction]*vj.Compressor{}

	records, err := readRecords(r)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	for _, rec := range records {
		dir := core.DirectionToHost
		fields := rec.fields
		if d := core.ParseDirection(fields[0]); d != core.DirectionUnknown {
			dir, fields = d, fields[1:]
		}
		pkt, err := parseHex(fields...)
		if err != nil {
			return fmt.Errorf("line %d: %w", rec.line, err)
		}
		comp, ok := compressors[dir]
		if !ok {
			comp = vj.NewCompressor(maxSlot, opts.compressSlotID)
			compressors[dir] = comp
		}
		kind, out, err := comp.Compress(pkt)
		if err != nil {
			fmt.Fprintf(w, "# line %d: %v\n", rec.line, err)
			continue
		}
		if _, err := fmt.Fprintf(w, "%s %s %s\n", dir, kindToken(kind), hex.EncodeToString(out)); err != nil {
			return err
		}
	}
	return nil
}
