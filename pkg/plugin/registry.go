package plugin

import (
	"fmt"
	"sort"
	"sync"

	"firestige.xyz/dissect/internal/core"
)

// registry maps plugin names to factories of one plugin kind.
type registry[F any] struct {
	kind      string
	mu        sync.RWMutex
	factories map[string]F
}

func newRegistry[F any](kind string) *registry[F] {
	return &registry[F]{kind: kind, factories: make(map[string]F)}
}

// register panics on programmer errors; it runs from init functions.
func (r *registry[F]) register(name string, factory F, isNil bool) {
	if name == "" {
		panic(fmt.Sprintf("plugin: %s registered with empty name", r.kind))
	}
	if isNil {
		panic(fmt.Sprintf("plugin: %s %q registered with nil factory", r.kind, name))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.factories[name]; dup {
		panic(fmt.Sprintf("plugin: %s %q registered twice", r.kind, name))
	}
	r.factories[name] = factory
}

func (r *registry[F]) get(name string) (F, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[name]
	if !ok {
		var zero F
		return zero, fmt.Errorf("%w: %s %q", core.ErrPluginNotFound, r.kind, name)
	}
	return f, nil
}

func (r *registry[F]) list() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Reset drops every registration. Tests only.
func (r *registry[F]) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories = make(map[string]F)
}

var dissectorReg = newRegistry[DissectorFactory]("dissector")

// RegisterDissector makes a dissector available by name.
// It panics if name is empty, factory is nil or name is already taken.
func RegisterDissector(name string, factory DissectorFactory) {
	dissectorReg.register(name, factory, factory == nil)
}

// GetDissectorFactory returns the factory registered under name.
func GetDissectorFactory(name string) (DissectorFactory, error) {
	return dissectorReg.get(name)
}

// ListDissectors returns registered dissector names in sorted order.
func ListDissectors() []string {
	return dissectorReg.list()
}
