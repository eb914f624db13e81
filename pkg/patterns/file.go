package patterns

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// patternFile is the on-disk shape of a custom pattern file:
//
//	patterns:
//	  ticket: '[A-Z]{2,5}-\d+'
//	  sha256: '\b[0-9a-f]{64}\b'
type patternFile struct {
	Patterns map[string]string `yaml:"patterns"`
}

// LoadFile registers every pattern from a YAML file. Names are processed
// in sorted order so failures are deterministic. The library must not be
// frozen yet.
func (l *Library) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read pattern file: %w", err)
	}

	var file patternFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse pattern file %s: %w", path, err)
	}

	names := make([]string, 0, len(file.Patterns))
	for name := range file.Patterns {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := l.Register(name, file.Patterns[name]); err != nil {
			return err
		}
	}
	return nil
}
