package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/consent-builder/internal/config"
	"github.com/jonathan/consent-builder/internal/mapping"
	"github.com/jonathan/consent-builder/internal/paths"
	"github.com/jonathan/consent-builder/internal/schemas"
)

var validateCommand = &cobra.Command{
	Use:   "validate",
	Short: "Validate the mapping file against the mapping schema",
	Long: `Checks every site entry of the mapping against the bundled JSON Schema and lists all problems found.

A different schema can be supplied with --schema.`,
	RunE: runValidateCmd,
}

var (
	validateMapping string
	validateSchema  string
)

func init() {
	validateCommand.Flags().StringVarP(&validateMapping, "mapping", "m", "", "Path to the JSON or YAML mapping file (default "+config.DefaultMapping+")")
	validateCommand.Flags().StringVar(&validateSchema, "schema", "", "Path to a JSON Schema to use instead of the bundled one")

	rootCmd.AddCommand(validateCommand)
}

func runValidateCmd(cmd *cobra.Command, _ []string) error {
	path := validateMapping
	if path == "" {
		path = config.FromEnv().Mapping
	}
	if path == "" {
		path = config.DefaultMapping
	}

	return validateMappingFile(cmd.OutOrStdout(), path, validateSchema)
}

// validateMappingFile reports the schema check of one mapping file to out.
func validateMappingFile(out io.Writer, path, schemaPath string) error {
	mappingPath, ok := paths.ResolveMapping(path, paths.ExecutableDir())
	if !ok {
		return fmt.Errorf("mapping file not found: %s", path)
	}

	data, err := os.ReadFile(mappingPath)
	if err != nil {
		return fmt.Errorf("failed to read mapping file %s: %w", mappingPath, err)
	}

	format := mapping.DetectFormat(mappingPath)
	if schemaPath == "" {
		err = mapping.Validate(data, format)
	} else {
		schema, readErr := os.ReadFile(schemaPath)
		if readErr != nil {
			return fmt.Errorf("failed to read schema %s: %w", schemaPath, readErr)
		}
		err = mapping.ValidateWith(string(schema), data, format)
	}

	if err == nil {
		sites, parseErr := mapping.Parse(data, format)
		if parseErr != nil {
			return fmt.Errorf("failed to parse mapping %s: %w", mappingPath, parseErr)
		}
		_, _ = fmt.Fprintf(out, "Validation passed: %s (%d sites)\n", mappingPath, len(sites))
		return nil
	}

	var validationErr *schemas.ValidationError
	if !errors.As(err, &validationErr) {
		return err
	}

	_, _ = fmt.Fprintf(out, "Validation failed: %s\n", mappingPath)
	for _, fe := range validationErr.Errors {
		_, _ = fmt.Fprintf(out, "  - %s: %s\n", fe.Field, fe.Message)
	}
	return fmt.Errorf("mapping has %d schema violation(s)", len(validationErr.Errors))
}
