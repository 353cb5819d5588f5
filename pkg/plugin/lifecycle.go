// Package plugin defines the dissector plugin contract and its registry.
package plugin

import "context"

// Plugin is the lifecycle every dissector goes through:
// Init with its config section, Start before the first packet, Stop at the end
// of the capture session.
type Plugin interface {
	Name() string
	Init(cfg map[string]any) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
