package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tugsousa/taxlots/internal/txmodel"
)

// LoadStrategyMap reads a year->strategy configuration file (spec.md
// §6), dispatching on file extension: .json for the canonical format,
// .yml/.yaml for the operator-friendly alternative other repos in this
// codebase's lineage support for config files.
func LoadStrategyMap(path string) (txmodel.StrategyMap, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading strategy map %s: %w", path, err)
	}

	var named map[string]string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		if err := yaml.Unmarshal(raw, &named); err != nil {
			return nil, fmt.Errorf("config: parsing YAML strategy map %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(raw, &named); err != nil {
			return nil, fmt.Errorf("config: parsing JSON strategy map %s: %w", path, err)
		}
	}

	out := make(txmodel.StrategyMap, len(named))
	for yearStr, name := range named {
		year, err := strconv.Atoi(yearStr)
		if err != nil {
			return nil, fmt.Errorf("config: strategy map %s: invalid year key %q: %w", path, yearStr, err)
		}
		strategy, ok := txmodel.ParseStrategy(name)
		if !ok {
			return nil, fmt.Errorf("config: strategy map %s: unknown strategy %q for year %d (want one of %v)",
				path, name, year, txmodel.StrategyNames())
		}
		out[year] = strategy
	}

	return out, nil
}
