// Package schemas holds the JSON Schema documents shipped with the tool.
package schemas

import _ "embed"

// Mapping is the JSON Schema for the site mapping file.
//
//go:embed mapping.schema.json
var Mapping string
