// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jonathan/consent-builder/internal/inspect"
	"github.com/jonathan/consent-builder/internal/overrides"
	"github.com/jonathan/consent-builder/internal/pipeline"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintRunSummary outputs the totals of a build and the sites that need
// attention.
func (p *Printer) PrintRunSummary(result *pipeline.Result) {
	if result == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Run:       %s\n", result.RunID))
	sb.WriteString(fmt.Sprintf("Generated: %d\n", result.Generated))
	sb.WriteString(fmt.Sprintf("Skipped:   %d\n", result.Skipped))
	sb.WriteString(fmt.Sprintf("Warnings:  %d\n", result.Warnings()))
	sb.WriteString(fmt.Sprintf("Duration:  %s\n", result.Duration.Round(time.Millisecond)))

	replaced := make(map[string]int)
	for _, site := range result.Sites {
		for _, r := range site.Reports {
			if r.Status == overrides.StatusReplaced {
				replaced[r.Field]++
			}
		}
	}
	if len(replaced) > 0 {
		sb.WriteString("\nReplaced fields:\n")
		for _, field := range overrides.DefaultFields() {
			if n := replaced[field.Name]; n > 0 {
				sb.WriteString(fmt.Sprintf("  • %-16s %d\n", field.Name, n))
			}
		}
	}

	var attention []pipeline.SiteResult
	for _, site := range result.Sites {
		if site.Warnings() > 0 {
			attention = append(attention, site)
		}
	}
	if len(attention) > 0 {
		sb.WriteString("\nNeeds attention:\n")
		count := min(len(attention), maxItemsToShow)
		for i := 0; i < count; i++ {
			site := attention[i]
			var issues []string
			for _, r := range site.Reports {
				if r.Warning() {
					issues = append(issues, fmt.Sprintf("%s %s", r.Field, r.Status))
				}
			}
			sb.WriteString(fmt.Sprintf("⚠ %s\n", site.Site))
			sb.WriteString(fmt.Sprintf("  %s\n", strings.Join(issues, ", ")))
		}
		if len(attention) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(attention)-maxItemsToShow))
		}
	}

	title := "BUILD SUMMARY"
	if result.DryRun {
		title = "BUILD SUMMARY (dry run)"
	}
	p.printBox(title, strings.TrimSuffix(sb.String(), "\n"))
}

// PrintInspection outputs what a template offers to each field.
func (p *Printer) PrintInspection(report *inspect.Report) {
	if report == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString("Headings:\n")
	if len(report.Headings) == 0 {
		sb.WriteString("  (none)\n")
	}
	for _, h := range report.Headings {
		sb.WriteString(fmt.Sprintf("  h%d %s\n", h.Level, h.Text))
	}
	p.printBox("TEMPLATE HEADINGS", strings.TrimSuffix(sb.String(), "\n"))

	sb.Reset()
	if len(report.Markers) == 0 {
		sb.WriteString("(no marker comments)\n")
	}
	for _, m := range report.Markers {
		state := "✓"
		if !m.Complete() {
			state = "⚠ unpaired"
		}
		sb.WriteString(fmt.Sprintf("%s_START / %s_END  %s\n", m.Name, m.Name, state))
	}
	p.printBox("MARKER COMMENTS", strings.TrimSuffix(sb.String(), "\n"))

	sb.Reset()
	for _, probe := range report.Probes {
		if probe.Found() {
			sb.WriteString(fmt.Sprintf("✓ %-16s %s\n", probe.Field, probe.Matcher))
		} else {
			sb.WriteString(fmt.Sprintf("⚠ %-16s not found\n", probe.Field))
			sb.WriteString(fmt.Sprintf("  tried %s\n", strings.Join(probe.Tried, ", ")))
		}
	}
	p.printBox("FIELD MATCHERS", strings.TrimSuffix(sb.String(), "\n"))

	if len(report.Sites) == 0 {
		return
	}

	sb.Reset()
	warned := 0
	for _, site := range report.Sites {
		var issues []string
		for _, r := range site.Reports {
			if r.Warning() {
				issues = append(issues, fmt.Sprintf("%s %s", r.Field, r.Status))
			}
		}
		if len(issues) == 0 {
			continue
		}
		warned++
		if warned <= maxItemsToShow {
			sb.WriteString(fmt.Sprintf("⚠ %s\n  %s\n", site.Site, strings.Join(issues, ", ")))
		}
	}
	if warned > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("... and %d more\n", warned-maxItemsToShow))
	}
	if warned == 0 {
		sb.WriteString(fmt.Sprintf("✅ All %d sites resolve cleanly\n", len(report.Sites)))
	}
	p.printBox("SITE COVERAGE", strings.TrimSuffix(sb.String(), "\n"))
}
