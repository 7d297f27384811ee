// Package refdata holds the static reference tables used by the symbol
// resolver and the metric engine: the ordered company-name → ticker lookup
// table, the non-ticker acronym exclusion set, and the sector average P/E
// table. The tables ship embedded in the binary and can be overridden with
// a YAML file via RESOLVER_TABLE_FILE for operation without a rebuild.
package refdata

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed tables.yaml
var embeddedTables []byte

// CompanyEntry maps one lowercase company-name substring to its ticker.
// Entries are a list, not a map: position in the list is the match
// priority, and earlier entries win on text containing multiple names.
type CompanyEntry struct {
	Name   string `yaml:"name"`
	Symbol string `yaml:"symbol"`
}

// Tables is the full static reference data set.
type Tables struct {
	// DefaultSymbol is the broad-market symbol returned when nothing
	// matches.
	DefaultSymbol string `yaml:"default_symbol"`

	// Companies is the ordered company-name lookup table.
	Companies []CompanyEntry `yaml:"companies"`

	// Exclusions lists uppercase acronyms that look like tickers but are
	// not (agencies, regulators, generic abbreviations).
	Exclusions []string `yaml:"exclusions"`

	// SectorPE maps a sector name to its average trailing P/E. The
	// "default" bucket covers unknown sectors.
	SectorPE map[string]float64 `yaml:"sector_pe"`

	exclusionSet map[string]struct{}
}

// Load returns the reference tables, preferring the file named by
// RESOLVER_TABLE_FILE when set and readable, falling back to the embedded
// defaults otherwise.
func Load() (*Tables, error) {
	raw := embeddedTables
	if path := os.Getenv("RESOLVER_TABLE_FILE"); path != "" {
		data, err := os.ReadFile(path) // #nosec G304 -- operator-provided path
		if err != nil {
			return nil, fmt.Errorf("read resolver table file %s: %w", path, err)
		}
		raw = data
	}
	return parse(raw)
}

// MustLoad is Load for wiring paths where the embedded tables are known
// good; it panics only when the embedded YAML itself is broken.
func MustLoad() *Tables {
	t, err := Load()
	if err != nil {
		panic(fmt.Sprintf("refdata: %v", err))
	}
	return t
}

func parse(raw []byte) (*Tables, error) {
	var t Tables
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("parse reference tables: %w", err)
	}
	if t.DefaultSymbol == "" {
		return nil, fmt.Errorf("reference tables: default_symbol is required")
	}
	if len(t.Companies) == 0 {
		return nil, fmt.Errorf("reference tables: companies table is empty")
	}
	if _, ok := t.SectorPE["default"]; !ok {
		return nil, fmt.Errorf("reference tables: sector_pe needs a default bucket")
	}

	t.exclusionSet = make(map[string]struct{}, len(t.Exclusions))
	for _, e := range t.Exclusions {
		t.exclusionSet[strings.ToUpper(e)] = struct{}{}
	}
	return &t, nil
}

// IsExcluded reports whether token is in the non-ticker exclusion set.
func (t *Tables) IsExcluded(token string) bool {
	_, ok := t.exclusionSet[token]
	return ok
}

// SectorAveragePE returns the average P/E for the sector, falling back to
// the default bucket for unknown sectors.
func (t *Tables) SectorAveragePE(sector string) float64 {
	if pe, ok := t.SectorPE[sector]; ok {
		return pe
	}
	return t.SectorPE["default"]
}
