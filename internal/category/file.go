package category

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the on-disk form of a label set.
//
//	labels:
//	  - Art
//	  - Business/Finance
type File struct {
	Labels []string `yaml:"labels"`
}

// LoadFile reads an ordered label list from a YAML file.
func LoadFile(path string) ([]string, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("read label file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse label file %s: %w", path, err)
	}
	if len(f.Labels) == 0 {
		return nil, fmt.Errorf("label file %s has no labels", path)
	}
	return f.Labels, nil
}
