package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tugsousa/taxlots/internal/txmodel"
)

// splitRow is the file representation of one txmodel.SplitEvent: CutOff
// is a plain "2006-01-02" date, matching how corporate-action tables are
// usually sourced (a calendar date, not a timestamp).
type splitRow struct {
	ProductID   string `json:"product_id" yaml:"product_id"`
	CutOff      string `json:"cut_off" yaml:"cut_off"`
	Numerator   int    `json:"numerator" yaml:"numerator"`
	Denominator int    `json:"denominator" yaml:"denominator"`
}

// LoadSplitTable reads a stock-split table (spec.md §6's "split table")
// from a JSON or YAML file, dispatching on extension the same way
// LoadStrategyMap does.
func LoadSplitTable(path string) ([]txmodel.SplitEvent, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading split table %s: %w", path, err)
	}

	var rows []splitRow
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		if err := yaml.Unmarshal(raw, &rows); err != nil {
			return nil, fmt.Errorf("config: parsing YAML split table %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(raw, &rows); err != nil {
			return nil, fmt.Errorf("config: parsing JSON split table %s: %w", path, err)
		}
	}

	out := make([]txmodel.SplitEvent, 0, len(rows))
	for _, r := range rows {
		cutOff, err := time.Parse("2006-01-02", r.CutOff)
		if err != nil {
			return nil, fmt.Errorf("config: split table %s: invalid cut_off %q for %s: %w", path, r.CutOff, r.ProductID, err)
		}
		if r.Denominator == 0 {
			return nil, fmt.Errorf("config: split table %s: zero denominator for %s", path, r.ProductID)
		}
		out = append(out, txmodel.SplitEvent{
			ProductID:   r.ProductID,
			CutOff:      cutOff,
			Numerator:   r.Numerator,
			Denominator: r.Denominator,
		})
	}
	return out, nil
}
