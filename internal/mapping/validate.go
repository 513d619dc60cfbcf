package mapping

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jonathan/consent-builder/internal/schemas"
	schemadocs "github.com/jonathan/consent-builder/schemas"
)

// Validate checks mapping content against the bundled mapping schema. The
// "default" entry is documentation only and is left out of the check.
func Validate(data []byte, format Format) error {
	return ValidateWith(schemadocs.Mapping, data, format)
}

// ValidateWith checks mapping content against the given schema document.
func ValidateWith(schema string, data []byte, format Format) error {
	var doc any
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("invalid YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("invalid JSON: %w", err)
		}
	}

	if sites, ok := doc.(map[string]any); ok {
		for key := range sites {
			if (Site{Key: key}).IsDefault() {
				delete(sites, key)
			}
		}
	}

	return schemas.ValidateValue(schema, doc)
}

// ValidateFile reads a mapping file and validates it against the bundled
// schema.
func ValidateFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &LoadError{Path: path, Message: "failed to read mapping file", Cause: err}
	}
	return Validate(data, DetectFormat(path))
}
