package resolve

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/histrank/canon/internal/names"
)

// LoadCompounds reads the compound-name override file: a yaml map from a
// multi-person phrase to the figure ids it names, e.g.
//
//	watson and crick:
//	  - james-watson
//	  - francis-crick
//
// Phrases are normalized on load so the file can use natural spelling.
// A configured-but-unreadable file is a fatal configuration error; the
// caller aborts rather than importing with overrides silently missing.
func LoadCompounds(path string) (map[string][]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading compound overrides %s: %w", path, err)
	}

	var raw map[string][]string
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("parsing compound overrides %s: %w", path, err)
	}

	compounds := make(map[string][]string, len(raw))
	for phrase, ids := range raw {
		key := names.Normalize(phrase)
		if key == "" {
			return nil, fmt.Errorf("compound overrides %s: phrase %q normalizes to nothing", path, phrase)
		}
		if len(ids) == 0 {
			return nil, fmt.Errorf("compound overrides %s: phrase %q maps to no figure ids", path, phrase)
		}
		compounds[key] = ids
	}
	return compounds, nil
}
