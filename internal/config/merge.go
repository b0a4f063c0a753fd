package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Top-level YAML config key names used for shallow merge.
const (
	keySelectors = "selectors"
	keyScroll    = "scroll"
	keyFetch     = "fetch"
	keyCache     = "cache"
	keyLogging   = "logging"
)

// ShallowMergeYAML loads a YAML file and merges its sections onto target.
// Fields present in an overlay section replace the target's values; fields and
// sections absent from the overlay are left unchanged. Unknown keys are ignored.
func ShallowMergeYAML(target *Config, overlayPath string) error {
	if target == nil {
		return errors.New("nil target *Config in ShallowMergeYAML")
	}

	data, err := os.ReadFile(overlayPath)
	if err != nil {
		return fmt.Errorf("reading overlay file %s: %w", overlayPath, err)
	}

	var overlay map[string]yaml.Node
	if err = yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("parsing overlay YAML from %s: %w", overlayPath, err)
	}

	for key, node := range overlay {
		if err = decodeSection(target, key, &node); err != nil {
			return fmt.Errorf("applying overlay section %q: %w", key, err)
		}
	}

	return nil
}

// decodeSection decodes node onto the existing section so that keys the
// overlay omits keep their defaults.
func decodeSection(target *Config, key string, node *yaml.Node) error {
	switch key {
	case keySelectors:
		return node.Decode(&target.Selectors)
	case keyScroll:
		return node.Decode(&target.Scroll)
	case keyFetch:
		return node.Decode(&target.Fetch)
	case keyCache:
		return node.Decode(&target.Cache)
	case keyLogging:
		return node.Decode(&target.Logging)
	default:
		return nil
	}
}
