// Package filetypes maps file extensions to display categories. The
// mapping ships as embedded YAML so deployments can rebuild with a
// different taxonomy without code changes.
package filetypes

import (
	"embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed config/*.yaml
var configFiles embed.FS

// CategoryOther is assigned to extensions the registry does not know
const CategoryOther = "other"

type categoryConfig struct {
	Name       string   `yaml:"name"`
	Extensions []string `yaml:"extensions"`
}

type registryConfig struct {
	Categories []categoryConfig `yaml:"categories"`
}

// Registry resolves extensions to categories. It is immutable after
// construction and safe for concurrent use.
type Registry struct {
	byExtension map[string]string
}

// NewRegistry creates a registry from the embedded YAML mapping
func NewRegistry() (*Registry, error) {
	data, err := configFiles.ReadFile("config/filetypes.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read filetypes config: %w", err)
	}

	var config registryConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal filetypes config: %w", err)
	}

	byExtension := make(map[string]string)
	for _, category := range config.Categories {
		for _, ext := range category.Extensions {
			byExtension[strings.ToLower(ext)] = category.Name
		}
	}

	return &Registry{byExtension: byExtension}, nil
}

// Categorize returns the category for an extension, or "other".
// A leading dot and mixed case are tolerated.
func (r *Registry) Categorize(extension string) string {
	ext := strings.ToLower(strings.TrimPrefix(extension, "."))
	if ext == "" {
		return CategoryOther
	}
	if category, ok := r.byExtension[ext]; ok {
		return category
	}
	return CategoryOther
}
