// Package diameter implements the Diameter dissector plugin.
// The AVP dictionary is built once per instance and then shared read-only by
// every Dissect call.
package diameter

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/google/gopacket"
	"github.com/mitchellh/mapstructure"

	"firestige.xyz/dissect/internal/core"
	"firestige.xyz/dissect/internal/core/buffer"
	"firestige.xyz/dissect/internal/diameter"
	"firestige.xyz/dissect/internal/diameter/dictionary"
	"firestige.xyz/dissect/internal/log"
	"firestige.xyz/dissect/pkg/plugin"
)

// Name is the registry name of this dissector.
const Name = "diameter"

const (
	defaultPort     = 3868
	defaultTrackTTL = time.Minute
)

// Config is the plugin section of the configuration.
type Config struct {
	Dictionary string        `mapstructure:"dictionary"` // YAML definitions; empty uses the embedded base
	Ports      []uint16      `mapstructure:"ports"`
	Track      bool          `mapstructure:"track"`
	TrackTTL   time.Duration `mapstructure:"track_ttl"`
}

// Dissector decodes Diameter messages carried on a stream transport.
type Dissector struct {
	cfg Config

	once    sync.Once
	decoder *diameter.Decoder
	loadErr error

	tracker *tracker
	logger  log.Logger
}

// New creates an uninitialized Diameter dissector.
func New() plugin.Dissector {
	return &Dissector{
		cfg:    Config{Ports: []uint16{defaultPort}, Track: true, TrackTTL: defaultTrackTTL},
		logger: log.GetLogger().WithField(log.FieldPlugin, Name),
	}
}

// Name returns the plugin name.
func (d *Dissector) Name() string {
	return Name
}

// Init decodes the plugin configuration.
func (d *Dissector) Init(cfg map[string]any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &d.cfg,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("%w: %s: %w", core.ErrPluginInitFailed, Name, err)
	}
	if len(d.cfg.Ports) == 0 {
		d.cfg.Ports = []uint16{defaultPort}
	}
	if d.cfg.TrackTTL <= 0 {
		d.cfg.TrackTTL = defaultTrackTTL
	}
	if d.cfg.Track {
		d.tracker = newTracker(d.cfg.TrackTTL)
	}
	return nil
}

// Start builds the dictionary. A dictionary that cannot be loaded keeps the
// dissector from being used.
func (d *Dissector) Start(ctx context.Context) error {
	if err := d.load(); err != nil {
		return fmt.Errorf("%w: %s: %w", core.ErrPluginInitFailed, Name, err)
	}
	d.logger.WithField("ports", d.cfg.Ports).Info("diameter dissector started")
	return nil
}

// Stop forgets pending transactions. The dictionary lives as long as the
// dissector.
func (d *Dissector) Stop(ctx context.Context) error {
	if d.tracker != nil {
		d.tracker.flush()
	}
	return nil
}

func (d *Dissector) load() error {
	d.once.Do(func() {
		dict, err := dictionary.Load(d.cfg.Dictionary)
		if err != nil {
			d.loadErr = err
			return
		}
		d.decoder = diameter.NewDecoder(dict)
	})
	return d.loadErr
}

// Decoder returns the attribute decoder, building the dictionary on first use.
func (d *Dissector) Decoder() (*diameter.Decoder, error) {
	if err := d.load(); err != nil {
		return nil, err
	}
	return d.decoder, nil
}

// CanHandle accepts configured ports, or any transport payload that gopacket
// decodes as a clean Diameter layer. Link payloads are never Diameter.
func (d *Dissector) CanHandle(pkt *core.Packet) bool {
	if pkt.PPPProtocol != 0 {
		return false
	}
	if slices.Contains(d.cfg.Ports, pkt.Port) {
		return true
	}
	p := gopacket.NewPacket(pkt.Data, diameter.LayerTypeDiameter, gopacket.NoCopy)
	if p.ErrorLayer() != nil {
		return false
	}
	l, ok := p.Layer(diameter.LayerTypeDiameter).(*diameter.Layer)
	return ok && l.Flags&diameter.MsgFlagsReserved == 0 && l.Length%4 == 0
}

// Dissect decodes one message. A malformed message still yields a tree with
// everything decoded before the fault and the rest shown raw. Only a header
// that cannot be read at all is returned as an error.
func (d *Dissector) Dissect(pkt *core.Packet) (*core.Result, error) {
	dec, err := d.Decoder()
	if err != nil {
		return nil, err
	}

	m, err := dec.DecodeMessage(buffer.New(pkt.Data))
	if m == nil {
		root := core.NewNode("Diameter Protocol", core.KindGroup, nil, 0, len(pkt.Data))
		root.Add(core.RawNode("Data", pkt.Data, 0, err.Error()))
		return &core.Result{Protocol: "Diameter", Info: "Malformed Diameter header", Tree: root}, err
	}

	res := &core.Result{
		Protocol: "Diameter",
		Info:     m.Info(),
		Tree:     diameter.RenderMessage(m, pkt.Data),
		Labels: core.Labels{
			core.LabelDiameterCommand: m.CommandName,
			core.LabelDiameterApp:     m.ApplicationName,
			core.LabelDiameterFlags:   m.FlagString(),
			core.LabelDiameterAVPs:    strconv.Itoa(len(m.AVPs)),
		},
	}
	if d.tracker != nil {
		if tx, ok := d.tracker.observe(pkt.Frame, m.Header); ok {
			annotate(res, m.Header, tx, pkt.Frame.Number)
		}
	}
	if err != nil {
		d.logger.WithFrame(pkt.Frame.Number).WithError(err).Debug("partial diameter message")
	}
	return res, nil
}
