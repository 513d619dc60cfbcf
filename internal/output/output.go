// Package output decides where generated consent forms go and writes them.
package output

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jonathan/consent-builder/internal/mapping"
)

// Resolver maps a site to the path of its generated form.
type Resolver struct {
	// MappingDir is used when OutDir is empty.
	MappingDir string
	// OutDir overrides the destination directory for every site.
	OutDir string
}

// FileName returns the file name for a site: the base name of its
// configured location, or consent_form_<site>.html. Directories in the
// configured location are ignored so that all forms land together.
func FileName(site mapping.Site) string {
	if location, ok := site.Value(mapping.LocationKey); ok && location != "" {
		return filepath.Base(location)
	}
	return fmt.Sprintf("consent_form_%s.html", site.Key)
}

// Path returns the absolute output path for a site.
func (r Resolver) Path(site mapping.Site) string {
	dir := r.MappingDir
	if r.OutDir != "" {
		dir = r.OutDir
	}
	path := filepath.Join(dir, FileName(site))
	if absPath, err := filepath.Abs(path); err == nil {
		return absPath
	}
	return path
}

// FileWriter writes generated forms to disk.
type FileWriter struct {
	Resolver Resolver
	// DryRun resolves paths without touching the file system.
	DryRun bool
}

// NewFileWriter creates a writer for the given resolver.
func NewFileWriter(resolver Resolver, dryRun bool) *FileWriter {
	return &FileWriter{Resolver: resolver, DryRun: dryRun}
}

// Write stores the document for a site and returns the path it used.
func (w *FileWriter) Write(site mapping.Site, document string) (string, error) {
	path := w.Resolver.Path(site)
	if w.DryRun {
		return path, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", &WriteError{Path: path, Message: "failed to create output directory", Cause: err}
	}
	if err := os.WriteFile(path, []byte(document), 0644); err != nil {
		return "", &WriteError{Path: path, Message: "failed to write consent form", Cause: err}
	}
	return path, nil
}
