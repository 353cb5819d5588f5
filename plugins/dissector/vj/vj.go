// Package vj implements the Van Jacobson TCP/IP header compression dissector
// for PPP links. One instance tracks one link; the host must serialize calls.
package vj

import (
	"context"
	"fmt"
	"strconv"

	"github.com/mitchellh/mapstructure"

	"firestige.xyz/dissect/internal/core"
	"firestige.xyz/dissect/internal/log"
	"firestige.xyz/dissect/internal/vj"
	"firestige.xyz/dissect/pkg/plugin"
)

// Name is the registry name of this dissector.
const Name = "vj"

const (
	defaultMaxSlot    = vj.MaxSlots - 1
	defaultFrameCache = 4096
)

// Config is the plugin section of the configuration.
type Config struct {
	MaxSlot    int `mapstructure:"max_slot"`
	FrameCache int `mapstructure:"frame_cache"`
}

// Dissector decodes VJ compressed and uncompressed frames and hands the
// reconstructed IP packet to the next dissector.
type Dissector struct {
	cfg     Config
	session *vj.Session
	logger  log.Logger
}

// New creates an uninitialized VJ dissector.
func New() plugin.Dissector {
	return &Dissector{
		cfg:    Config{MaxSlot: defaultMaxSlot, FrameCache: defaultFrameCache},
		logger: log.GetLogger().WithField(log.FieldPlugin, Name),
	}
}

// Name returns the plugin name.
func (d *Dissector) Name() string {
	return Name
}

// Init decodes the configuration and allocates the slot tables.
func (d *Dissector) Init(cfg map[string]any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
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
	if d.cfg.MaxSlot < 0 || d.cfg.MaxSlot >= vj.MaxSlots {
		return fmt.Errorf("%w: %s: max_slot %d out of range 0..%d", core.ErrPluginInitFailed, Name, d.cfg.MaxSlot, vj.MaxSlots-1)
	}
	s, err := vj.NewSession(d.cfg.MaxSlot, d.cfg.FrameCache)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", core.ErrPluginInitFailed, Name, err)
	}
	d.session = s
	return nil
}

// Start is a no-op; slot tables are ready after Init.
func (d *Dissector) Start(ctx context.Context) error {
	if d.session == nil {
		return fmt.Errorf("%w: %s: not initialized", core.ErrPluginInitFailed, Name)
	}
	d.logger.WithField("max_slot", d.cfg.MaxSlot).Info("vj dissector started")
	return nil
}

// Stop forgets all connection state.
func (d *Dissector) Stop(ctx context.Context) error {
	if d.session != nil {
		d.session.Reset()
	}
	return nil
}

// Session exposes the link state, for inspection.
func (d *Dissector) Session() *vj.Session {
	return d.session
}

// CanHandle accepts PPP IP, VJ uncompressed and VJ compressed frames.
func (d *Dissector) CanHandle(pkt *core.Packet) bool {
	_, ok := vj.KindFromPPP(pkt.PPPProtocol)
	return ok
}

// Dissect decodes one frame. When the frame cannot be reconstructed the
// result shows the raw bytes with the reason, and the error is returned
// alongside it.
func (d *Dissector) Dissect(pkt *core.Packet) (*core.Result, error) {
	kind, ok := vj.KindFromPPP(pkt.PPPProtocol)
	if !ok {
		return nil, fmt.Errorf("%w: ppp protocol 0x%04x", core.ErrUnsupportedProto, pkt.PPPProtocol)
	}
	if d.session == nil {
		return nil, fmt.Errorf("%w: %s: not initialized", core.ErrPluginInitFailed, Name)
	}

	p, err := d.session.Decode(pkt.Frame, pkt.Direction, kind, pkt.Data)
	if err != nil {
		d.logger.WithFrame(pkt.Frame.Number).WithError(err).Debug("vj frame not decoded")
		return &core.Result{
			Protocol: "VJ",
			Info:     fmt.Sprintf("VJ %s TCP/IP [%v]", kind, err),
			Tree:     vj.RenderFailure(kind, pkt.Data, err),
			Labels: core.Labels{
				core.LabelVJKind:  kind.String(),
				core.LabelVJError: err.Error(),
			},
		}, err
	}

	labels := core.Labels{core.LabelVJKind: kind.String()}
	if p.Slot >= 0 {
		labels[core.LabelVJSlot] = strconv.Itoa(p.Slot)
	}
	return &core.Result{
		Protocol: "VJ",
		Info:     p.Info(),
		Tree:     vj.RenderPacket(p, pkt.Data),
		Labels:   labels,
		Handoff:  p.Data,
	}, nil
}
