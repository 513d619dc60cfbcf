package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/consent-builder/internal/config"
	"github.com/jonathan/consent-builder/internal/inspect"
	"github.com/jonathan/consent-builder/internal/mapping"
	"github.com/jonathan/consent-builder/internal/observability"
	"github.com/jonathan/consent-builder/internal/overrides"
	"github.com/jonathan/consent-builder/internal/paths"
)

var inspectCommand = &cobra.Command{
	Use:   "inspect",
	Short: "Show which headings and markers a template offers to each field",
	Long: `Lists the h2/h3 headings and START/END marker comments of a template and reports which matcher would locate each field.

With --mapping, every site is also checked for overrides that are missing text or cannot be placed.`,
	RunE: runInspectCmd,
}

var (
	inspectTemplate string
	inspectMapping  string
	inspectJSON     bool
)

func init() {
	inspectCommand.Flags().StringVarP(&inspectTemplate, "template", "t", "", "Path to the consent form template (default "+config.DefaultTemplate+")")
	inspectCommand.Flags().StringVarP(&inspectMapping, "mapping", "m", "", "Optional mapping file to check every site against the template")
	inspectCommand.Flags().BoolVar(&inspectJSON, "json", false, "Print the report as JSON")

	rootCmd.AddCommand(inspectCommand)
}

func runInspectCmd(cmd *cobra.Command, _ []string) error {
	template := inspectTemplate
	if template == "" {
		template = config.FromEnv().Template
	}
	if template == "" {
		template = config.DefaultTemplate
	}

	return inspectTemplateFile(cmd.OutOrStdout(), template, inspectMapping, inspectJSON)
}

// inspectTemplateFile writes the inspection report of a template to out.
func inspectTemplateFile(out io.Writer, templatePath, mappingPath string, asJSON bool) error {
	baseDir := paths.ExecutableDir()

	var (
		sites      []mapping.Site
		mappingDir string
	)
	if mappingPath != "" {
		resolved, ok := paths.ResolveMapping(mappingPath, baseDir)
		if !ok {
			return fmt.Errorf("mapping file not found: %s", mappingPath)
		}
		m, err := mapping.Load(resolved)
		if err != nil {
			return err
		}
		sites = m.Sites
		mappingDir = m.Dir
	}

	resolvedTemplate, ok := paths.ResolveTemplate(templatePath, mappingDir, baseDir)
	if !ok {
		return fmt.Errorf("template file not found: %s", templatePath)
	}
	data, err := os.ReadFile(resolvedTemplate)
	if err != nil {
		return fmt.Errorf("failed to read template %s: %w", resolvedTemplate, err)
	}

	report, err := inspect.Inspect(string(data), overrides.DefaultPolicy(), sites)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	_, _ = fmt.Fprintf(out, "Template: %s\n", resolvedTemplate)
	observability.NewPrinter(out).PrintInspection(report)
	return nil
}
