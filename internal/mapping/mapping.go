// Package mapping loads the per-site configuration that drives consent form
// individualization.
package mapping

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultKey names the documentation entry that is never built.
const DefaultKey = "default"

// LocationKey holds the configured output location of a site's form.
const LocationKey = "0_html_consent_form_location"

// Site is one entry of the mapping: a site identifier and its field values.
// Null, false and zero values in the source file are absent from Values.
type Site struct {
	Key    string
	Values map[string]string
}

// ID returns the site identifier.
func (s Site) ID() string { return s.Key }

// Value returns the field value for key and whether it is present.
func (s Site) Value(key string) (string, bool) {
	v, ok := s.Values[key]
	return v, ok
}

// IsDefault reports whether the site is the "default" sentinel entry
// (case-insensitive).
func (s Site) IsDefault() bool {
	return strings.ToLower(s.Key) == DefaultKey
}

// Mapping is the ordered list of sites read from one mapping file.
type Mapping struct {
	Path  string
	Dir   string
	Sites []Site
}

// Format identifies the encoding of a mapping file.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// DetectFormat picks the format from the file extension. Unknown extensions
// are read as JSON.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Load reads and parses the mapping file at path.
func Load(path string) (*Mapping, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, &LoadError{Path: path, Message: "failed to resolve mapping path", Cause: err}
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &LoadError{Path: absPath, Message: "mapping file not found", Cause: err}
		}
		return nil, &LoadError{Path: absPath, Message: "failed to read mapping file", Cause: err}
	}

	sites, err := Parse(data, DetectFormat(absPath))
	if err != nil {
		return nil, &LoadError{Path: absPath, Message: "failed to parse mapping", Cause: err}
	}

	return &Mapping{
		Path:  absPath,
		Dir:   filepath.Dir(absPath),
		Sites: sites,
	}, nil
}

// Parse decodes mapping content, keeping sites in file order.
func Parse(data []byte, format Format) ([]Site, error) {
	switch format {
	case FormatYAML:
		return parseYAML(data)
	case FormatJSON:
		return parseJSON(data)
	default:
		return nil, fmt.Errorf("unsupported mapping format: %s", format)
	}
}

// siteList accumulates sites in first-seen order; a repeated key replaces
// the earlier value in place.
type siteList struct {
	sites []Site
	index map[string]int
}

func (l *siteList) add(key string, raw any) error {
	site, err := newSite(key, raw)
	if err != nil {
		return err
	}
	if l.index == nil {
		l.index = make(map[string]int)
	}
	if i, ok := l.index[key]; ok {
		l.sites[i] = site
		return nil
	}
	l.index[key] = len(l.sites)
	l.sites = append(l.sites, site)
	return nil
}

func newSite(key string, raw any) (Site, error) {
	site := Site{Key: key, Values: make(map[string]string)}

	switch fields := raw.(type) {
	case nil:
		return site, nil
	case map[string]any:
		for name, value := range fields {
			if s, ok := scalarString(value); ok {
				site.Values[name] = s
			}
		}
		return site, nil
	default:
		if site.IsDefault() {
			return site, nil
		}
		return Site{}, fmt.Errorf("site %q: expected an object, got %T", key, raw)
	}
}

// scalarString renders a decoded value as text. Null, false and numeric
// zero report false and so read like a missing value.
func scalarString(value any) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", false
	case string:
		return v, true
	case bool:
		if !v {
			return "", false
		}
		return strconv.FormatBool(v), true
	case int:
		if v == 0 {
			return "", false
		}
		return strconv.Itoa(v), true
	case float64:
		if v == 0 {
			return "", false
		}
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case json.Number:
		if f, err := v.Float64(); err == nil && f == 0 {
			return "", false
		}
		return v.String(), true
	case fmt.Stringer:
		return v.String(), true
	default:
		return fmt.Sprint(v), true
	}
}
