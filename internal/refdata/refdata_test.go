package refdata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmbeddedTables(t *testing.T) {
	t.Setenv("RESOLVER_TABLE_FILE", "")

	tables, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "SPY", tables.DefaultSymbol)
	assert.NotEmpty(t, tables.Companies)
	assert.True(t, tables.IsExcluded("CEO"))
	assert.False(t, tables.IsExcluded("NVDA"))
}

func TestLoadFromOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tables.yaml")
	content := `
default_symbol: QQQ
companies:
  - name: acme
    symbol: ACME
exclusions: [FOO]
sector_pe:
  default: 18
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("RESOLVER_TABLE_FILE", path)

	tables, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "QQQ", tables.DefaultSymbol)
	assert.True(t, tables.IsExcluded("FOO"))
	assert.Equal(t, 18.0, tables.SectorAveragePE("Unknown"))
}

func TestLoadMissingOverrideFile(t *testing.T) {
	t.Setenv("RESOLVER_TABLE_FILE", filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := Load()

	require.Error(t, err)
}

func TestParseValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			"missing default symbol",
			"companies:\n  - name: acme\n    symbol: ACME\nsector_pe:\n  default: 20\n",
			"default_symbol",
		},
		{
			"empty companies",
			"default_symbol: SPY\ncompanies: []\nsector_pe:\n  default: 20\n",
			"companies",
		},
		{
			"missing default sector bucket",
			"default_symbol: SPY\ncompanies:\n  - name: acme\n    symbol: ACME\nsector_pe:\n  Technology: 30\n",
			"default bucket",
		},
		{
			"not yaml",
			"{{{",
			"parse",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parse([]byte(tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestCompanyOrderPreserved(t *testing.T) {
	tables := MustLoad()

	// The first entry outranks every later one during resolution.
	assert.Equal(t, "nvidia", tables.Companies[0].Name)
	assert.Equal(t, "NVDA", tables.Companies[0].Symbol)
}

func TestSectorAveragePE(t *testing.T) {
	tables := MustLoad()

	assert.Equal(t, 30.0, tables.SectorAveragePE("Technology"))
	assert.Equal(t, 12.0, tables.SectorAveragePE("Energy"))
	assert.Equal(t, 20.0, tables.SectorAveragePE("Unobtainium"))
}
