package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSectionConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.yaml")
	yaml := `report:
  sections:
    - proximity
    - distribution
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := LoadSectionConfig(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"proximity", "distribution"}, cfg.Names())
}

func TestLoadSectionConfig_UnknownSection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.yaml")
	require.NoError(t, os.WriteFile(path, []byte("report:\n  sections: [appendix]\n"), 0o644))

	_, err := LoadSectionConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown section "appendix"`)
}

func TestLoadSectionConfig_MissingFile(t *testing.T) {
	_, err := LoadSectionConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read section config")
}

func TestSectionConfig_NilFallsBackToDefaults(t *testing.T) {
	var cfg *SectionConfig
	assert.Equal(t, DefaultSections, cfg.Names())
	assert.Equal(t, DefaultSections, (&SectionConfig{}).Names())
}
