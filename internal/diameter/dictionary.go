package diameter

import (
	"fmt"
	"sort"
	"strings"

	"firestige.xyz/dissect/internal/core"
)

// Descriptor describes one attribute, keyed by (Code, Vendor).
type Descriptor struct {
	Code     uint32
	Vendor   uint32
	Name     string
	Type     BaseType
	TypeName string            // declared type name, e.g. Enumerated or AppId
	Labels   map[uint32]string // enumerated values
}

// Vendor holds the commands and attributes defined by one vendor.
type Vendor struct {
	ID         uint32
	Name       string
	Commands   map[uint32]string
	Attributes map[uint32]*Descriptor
}

// Application is a Diameter application id with its name.
type Application struct {
	ID   uint32
	Name string
}

// UnknownVendor is used for vendor ids absent from the dictionary.
var UnknownVendor = &Vendor{
	Name:       "Unknown",
	Commands:   map[uint32]string{},
	Attributes: map[uint32]*Descriptor{},
}

// UnknownAttribute is used for (code, vendor) pairs absent from the dictionary.
var UnknownAttribute = &Descriptor{
	Name:     "Unknown",
	Type:     Octets,
	TypeName: Octets.String(),
}

// Dictionary is the immutable lookup table produced by Build. It is safe for
// concurrent readers.
type Dictionary struct {
	vendors       map[uint32]*Vendor
	vendorsByName map[string]*Vendor // lower-cased names
	applications  map[uint32]*Application
	commands      map[uint32]string // merged, base vendor first
}

// NoVendor returns the vendor used for attributes without the V flag.
func (d *Dictionary) NoVendor() *Vendor {
	return d.vendors[0]
}

// Vendor resolves a vendor id. Unknown ids yield UnknownVendor and a warning
// wrapping core.ErrUnknownVendor.
func (d *Dictionary) Vendor(id uint32) (*Vendor, error) {
	if v, ok := d.vendors[id]; ok {
		return v, nil
	}
	return UnknownVendor, fmt.Errorf("%w: %d", core.ErrUnknownVendor, id)
}

// VendorByName resolves a vendor name, ignoring case.
func (d *Dictionary) VendorByName(name string) (*Vendor, bool) {
	v, ok := d.vendorsByName[strings.ToLower(name)]
	return v, ok
}

// Resolve looks up the vendor and descriptor for an attribute. It never fails:
// unknown vendors and attributes fall back to the sentinels and are reported
// as warnings.
func (d *Dictionary) Resolve(code, vendorID uint32) (*Vendor, *Descriptor, []error) {
	var warnings []error
	v, err := d.Vendor(vendorID)
	if err != nil {
		warnings = append(warnings, err)
	}
	if desc, ok := v.Attributes[code]; ok {
		return v, desc, warnings
	}
	warnings = append(warnings, fmt.Errorf("%w: code %d vendor %d", core.ErrUnknownAttribute, code, vendorID))
	return v, UnknownAttribute, warnings
}

// Attribute returns the descriptor for (code, vendorID).
func (d *Dictionary) Attribute(code, vendorID uint32) (*Descriptor, []error) {
	_, desc, warnings := d.Resolve(code, vendorID)
	return desc, warnings
}

// Command returns the command name for code, or "Unknown".
func (d *Dictionary) Command(code uint32) string {
	if name, ok := d.commands[code]; ok {
		return name
	}
	return "Unknown"
}

// Application returns the application registered under id.
func (d *Dictionary) Application(id uint32) (*Application, bool) {
	a, ok := d.applications[id]
	return a, ok
}

// Vendors returns all vendors ordered by id.
func (d *Dictionary) Vendors() []*Vendor {
	out := make([]*Vendor, 0, len(d.vendors))
	for _, v := range d.vendors {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Stats reports the number of vendors, applications and attributes.
func (d *Dictionary) Stats() (vendors, applications, attributes int) {
	for _, v := range d.vendors {
		attributes += len(v.Attributes)
	}
	return len(d.vendors), len(d.applications), attributes
}
