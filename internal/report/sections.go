package report

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// SectionConfig controls which sections a report renders and their order.
// The zero value and nil both mean the default order.
type SectionConfig struct {
	Sections []string `yaml:"sections"`
}

// Names returns the configured section order, falling back to the
// defaults when nothing is configured.
func (c *SectionConfig) Names() []string {
	if c == nil || len(c.Sections) == 0 {
		return DefaultSections
	}
	return c.Sections
}

// LoadSectionConfig reads a section configuration from a YAML file.
func LoadSectionConfig(path string) (*SectionConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "report: read section config %s", path)
	}

	// The YAML has a top-level "report" key.
	var wrapper struct {
		Report SectionConfig `yaml:"report"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "report: parse section config")
	}

	cfg := &wrapper.Report
	for _, name := range cfg.Sections {
		if !knownSection(name) {
			return nil, eris.Errorf("report: unknown section %q", name)
		}
	}
	return cfg, nil
}

func knownSection(name string) bool {
	for _, known := range DefaultSections {
		if name == known {
			return true
		}
	}
	return false
}
