package diameter

import (
	"fmt"
	"strings"

	"firestige.xyz/dissect/internal/core"
)

// maxTypeDepth bounds parent-chain resolution.
const maxTypeDepth = 16

// Definitions is the external description a Dictionary is built from.
type Definitions struct {
	Vendors      []VendorDef      `yaml:"vendors"`
	Applications []ApplicationDef `yaml:"applications"`
	Commands     []CommandDef     `yaml:"commands"`
	Types        []TypeDef        `yaml:"types"`
	Attributes   []AttributeDef   `yaml:"attributes"`
}

type VendorDef struct {
	ID   uint32 `yaml:"id"`
	Name string `yaml:"name"`
}

type ApplicationDef struct {
	ID   uint32 `yaml:"id"`
	Name string `yaml:"name"`
}

type CommandDef struct {
	Code   uint32 `yaml:"code"`
	Name   string `yaml:"name"`
	Vendor string `yaml:"vendor,omitempty"`
}

// TypeDef declares a derived type: "Name is like Parent".
type TypeDef struct {
	Name   string `yaml:"name"`
	Parent string `yaml:"parent"`
}

type AttributeDef struct {
	Code   uint32    `yaml:"code"`
	Name   string    `yaml:"name"`
	Vendor string    `yaml:"vendor,omitempty"`
	Type   string    `yaml:"type"`
	Enums  []EnumDef `yaml:"enums,omitempty"`
}

type EnumDef struct {
	Code uint32 `yaml:"code"`
	Name string `yaml:"name"`
}

// Build constructs a Dictionary from defs. Malformed entries are skipped and
// reported in the returned warnings, each wrapping core.ErrMalformedDefinition.
// Build itself only fails when defs is nil.
func Build(defs *Definitions) (*Dictionary, []error) {
	if defs == nil {
		return nil, []error{fmt.Errorf("%w: no definitions", core.ErrDictionaryUnavailable)}
	}

	b := &builder{
		dict: &Dictionary{
			vendors:       make(map[uint32]*Vendor),
			vendorsByName: make(map[string]*Vendor),
			applications:  make(map[uint32]*Application),
			commands:      make(map[uint32]string),
		},
		parents: make(map[string]string),
	}
	b.addVendor(&Vendor{ID: 0, Name: "None"})

	for _, v := range defs.Vendors {
		b.vendor(v)
	}
	for _, a := range defs.Applications {
		b.application(a)
	}
	for _, t := range defs.Types {
		b.typedef(t)
	}
	for _, c := range defs.Commands {
		b.command(c)
	}
	for _, a := range defs.Attributes {
		b.attribute(a)
	}
	b.mergeCommands()
	return b.dict, b.warnings
}

type builder struct {
	dict     *Dictionary
	parents  map[string]string // lower-cased type name -> parent name
	warnings []error
}

func (b *builder) warn(format string, args ...any) {
	b.warnings = append(b.warnings, fmt.Errorf("%w: %s", core.ErrMalformedDefinition, fmt.Sprintf(format, args...)))
}

func (b *builder) addVendor(v *Vendor) {
	v.Commands = make(map[uint32]string)
	v.Attributes = make(map[uint32]*Descriptor)
	b.dict.vendors[v.ID] = v
	b.dict.vendorsByName[strings.ToLower(v.Name)] = v
}

func (b *builder) vendor(def VendorDef) {
	switch {
	case def.Name == "":
		b.warn("vendor %d has no name", def.ID)
	case def.ID == 0:
		b.warn("vendor %q uses reserved id 0", def.Name)
	case b.dict.vendors[def.ID] != nil:
		b.warn("duplicate vendor id %d (%s)", def.ID, def.Name)
	case b.dict.vendorsByName[strings.ToLower(def.Name)] != nil:
		b.warn("duplicate vendor name %q", def.Name)
	default:
		b.addVendor(&Vendor{ID: def.ID, Name: def.Name})
	}
}

func (b *builder) application(def ApplicationDef) {
	switch {
	case def.Name == "":
		b.warn("application %d has no name", def.ID)
	case b.dict.applications[def.ID] != nil:
		b.warn("duplicate application id %d (%s)", def.ID, def.Name)
	default:
		b.dict.applications[def.ID] = &Application{ID: def.ID, Name: def.Name}
	}
}

func (b *builder) typedef(def TypeDef) {
	key := strings.ToLower(def.Name)
	switch {
	case def.Name == "" || def.Parent == "":
		b.warn("type %q needs a name and a parent", def.Name)
	case b.parents[key] != "":
		b.warn("duplicate type %q", def.Name)
	default:
		if _, builtin := builtinTypes[key]; builtin {
			b.warn("type %q shadows a built-in type", def.Name)
			return
		}
		b.parents[key] = def.Parent
	}
}

// lookupVendor resolves a definition's vendor reference; empty means no vendor.
func (b *builder) lookupVendor(name string) (*Vendor, bool) {
	if name == "" {
		return b.dict.vendors[0], true
	}
	return b.dict.VendorByName(name)
}

func (b *builder) command(def CommandDef) {
	v, ok := b.lookupVendor(def.Vendor)
	switch {
	case def.Name == "":
		b.warn("command %d has no name", def.Code)
	case !ok:
		b.warn("command %q references unknown vendor %q", def.Name, def.Vendor)
	case v.Commands[def.Code] != "":
		b.warn("duplicate command %d for vendor %s", def.Code, v.Name)
	default:
		v.Commands[def.Code] = def.Name
	}
}

func (b *builder) attribute(def AttributeDef) {
	v, ok := b.lookupVendor(def.Vendor)
	switch {
	case def.Name == "":
		b.warn("attribute %d has no name", def.Code)
		return
	case !ok:
		b.warn("attribute %q references unknown vendor %q", def.Name, def.Vendor)
		return
	case v.Attributes[def.Code] != nil:
		b.warn("duplicate attribute %d for vendor %s", def.Code, v.Name)
		return
	}

	t, resolved := b.resolveType(def.Type)
	if !resolved {
		b.warn("attribute %q: type %q does not resolve, using %s", def.Name, def.Type, Octets)
	}
	desc := &Descriptor{
		Code:     def.Code,
		Vendor:   v.ID,
		Name:     def.Name,
		Type:     t,
		TypeName: def.Type,
	}
	if desc.TypeName == "" {
		desc.TypeName = t.String()
	}
	if len(def.Enums) > 0 {
		desc.Labels = make(map[uint32]string, len(def.Enums))
		for _, e := range def.Enums {
			if _, dup := desc.Labels[e.Code]; dup || e.Name == "" {
				b.warn("attribute %q: bad enum value %d", def.Name, e.Code)
				continue
			}
			desc.Labels[e.Code] = e.Name
		}
	}
	v.Attributes[def.Code] = desc
}

// resolveType follows the parent chain until a built-in type. Cycles and
// chains longer than maxTypeDepth do not resolve.
func (b *builder) resolveType(name string) (BaseType, bool) {
	seen := make(map[string]bool)
	for depth := 0; name != "" && depth < maxTypeDepth; depth++ {
		key := strings.ToLower(name)
		if t, ok := builtinTypes[key]; ok {
			return t, true
		}
		if seen[key] {
			break
		}
		seen[key] = true
		name = b.parents[key]
	}
	return Octets, false
}

// mergeCommands flattens vendor command tables, base vendor first, then by id.
func (b *builder) mergeCommands() {
	for _, v := range b.dict.Vendors() {
		for code, name := range v.Commands {
			if _, ok := b.dict.commands[code]; !ok {
				b.dict.commands[code] = name
			}
		}
	}
}
