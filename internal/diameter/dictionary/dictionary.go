// Package dictionary loads Diameter dictionary definitions from YAML.
package dictionary

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"firestige.xyz/dissect/internal/core"
	"firestige.xyz/dissect/internal/diameter"
	"firestige.xyz/dissect/internal/log"
	"firestige.xyz/dissect/internal/metrics"
)

//go:embed base.yaml
var baseDefinitions []byte

// Load reads definitions from path, or the embedded base dictionary when path
// is empty, and builds the dictionary. Skipped entries are logged. A missing
// or unparsable source returns an error wrapping core.ErrDictionaryUnavailable.
func Load(path string) (*diameter.Dictionary, error) {
	defs, err := ReadDefinitions(path)
	if err != nil {
		return nil, err
	}
	return build(defs, sourceName(path))
}

// ReadDefinitions parses the definitions source without building it.
func ReadDefinitions(path string) (*diameter.Definitions, error) {
	raw := baseDefinitions
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", core.ErrDictionaryUnavailable, err)
		}
		raw = data
	}
	return Parse(raw)
}

// Parse decodes YAML definitions.
func Parse(data []byte) (*diameter.Definitions, error) {
	var defs diameter.Definitions
	if err := yaml.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrDictionaryUnavailable, err)
	}
	return &defs, nil
}

func build(defs *diameter.Definitions, source string) (*diameter.Dictionary, error) {
	dict, warnings := diameter.Build(defs)
	if dict == nil {
		return nil, fmt.Errorf("%w: %s", core.ErrDictionaryUnavailable, source)
	}

	logger := log.GetLogger().WithField("dictionary", source)
	for _, w := range warnings {
		logger.Warnf("dictionary definition: %v", w)
		if metrics.Enabled() {
			metrics.DictionarySkippedTotal.Inc()
		}
	}
	vendors, apps, attrs := dict.Stats()
	logger.Debugf("dictionary loaded: %d vendors, %d applications, %d attributes", vendors, apps, attrs)
	return dict, nil
}

func sourceName(path string) string {
	if path == "" {
		return "embedded"
	}
	return path
}
