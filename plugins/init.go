// Package plugins registers all built-in dissectors.
package plugins

import (
	"firestige.xyz/dissect/pkg/plugin"
	"firestige.xyz/dissect/plugins/dissector/diameter"
	"firestige.xyz/dissect/plugins/dissector/vj"
)

func init() {
	plugin.RegisterDissector(diameter.Name, diameter.New)
	plugin.RegisterDissector(vj.Name, vj.New)
}
