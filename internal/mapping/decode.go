package mapping

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// parseJSON walks the top-level object token by token so that site order
// follows the file.
func parseJSON(data []byte) ([]Site, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("mapping must be a JSON object")
	}

	var list siteList
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("invalid JSON: unexpected token %v", tok)
		}

		var raw any
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("invalid JSON for site %q: %w", key, err)
		}
		if err := list.add(key, raw); err != nil {
			return nil, err
		}
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	return list.sites, nil
}

// parseYAML reads the mapping from a YAML document; the node tree keeps the
// key order that a plain map would lose.
func parseYAML(data []byte) ([]Site, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	if len(doc.Content) == 0 {
		return []Site{}, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("mapping must be a YAML mapping")
	}

	var list siteList
	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode, valueNode := root.Content[i], root.Content[i+1]

		var raw any
		if err := valueNode.Decode(&raw); err != nil {
			return nil, fmt.Errorf("invalid YAML for site %q: %w", keyNode.Value, err)
		}
		if err := list.add(keyNode.Value, raw); err != nil {
			return nil, err
		}
	}

	if list.sites == nil {
		return []Site{}, nil
	}
	return list.sites, nil
}
