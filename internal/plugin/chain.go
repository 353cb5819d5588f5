// Package plugin assembles registered dissectors into a dispatch chain and
// drives their lifecycle.
package plugin

import (
	"context"
	"errors"
	"fmt"

	"firestige.xyz/dissect/internal/core"
	"firestige.xyz/dissect/internal/log"
	plugin "firestige.xyz/dissect/pkg/plugin"
)

// Spec names a registered dissector and the config section handed to Init.
type Spec struct {
	Name   string
	Config map[string]any
}

// Chain holds started dissectors in priority order. The first one whose
// CanHandle accepts a packet dissects it.
type Chain struct {
	dissectors []plugin.Dissector
	started    int
}

// NewChain instantiates and initializes the dissectors named in specs.
func NewChain(specs ...Spec) (*Chain, error) {
	c := &Chain{}
	for _, s := range specs {
		factory, err := plugin.GetDissectorFactory(s.Name)
		if err != nil {
			return nil, err
		}
		d := factory()
		if err := d.Init(s.Config); err != nil {
			return nil, fmt.Errorf("init %s: %w", s.Name, err)
		}
		c.dissectors = append(c.dissectors, d)
	}
	return c, nil
}

// Start starts every dissector in order. On failure the ones already started
// are stopped again.
func (c *Chain) Start(ctx context.Context) error {
	for i, d := range c.dissectors {
		if err := d.Start(ctx); err != nil {
			c.started = i
			stopErr := c.Stop(ctx)
			return errors.Join(fmt.Errorf("start %s: %w", d.Name(), err), stopErr)
		}
		log.GetLogger().WithField("plugin", d.Name()).Debug("dissector started")
	}
	c.started = len(c.dissectors)
	return nil
}

// Stop stops started dissectors in reverse order and collects their errors.
func (c *Chain) Stop(ctx context.Context) error {
	var errs []error
	for i := c.started - 1; i >= 0; i-- {
		d := c.dissectors[i]
		if err := d.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop %s: %w", d.Name(), err))
		}
	}
	c.started = 0
	return errors.Join(errs...)
}

// Get returns the dissector named name, or nil.
func (c *Chain) Get(name string) plugin.Dissector {
	for _, d := range c.dissectors {
		if d.Name() == name {
			return d
		}
	}
	return nil
}

// Dispatch hands pkt to the first dissector that claims it.
func (c *Chain) Dispatch(pkt *core.Packet) (*core.Result, error) {
	for _, d := range c.dissectors {
		if d.CanHandle(pkt) {
			return d.Dissect(pkt)
		}
	}
	if pkt.PPPProtocol != 0 {
		return nil, fmt.Errorf("%w: no dissector for ppp protocol 0x%04x", core.ErrPluginNotFound, pkt.PPPProtocol)
	}
	return nil, fmt.Errorf("%w: no dissector for port %d", core.ErrPluginNotFound, pkt.Port)
}
