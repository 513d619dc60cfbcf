// Package paths resolves the template and mapping locations given on the
// command line, which may be relative to several places in a project tree.
package paths

import (
	"os"
	"path/filepath"
	"strings"
)

// InstitutionsDir is the project directory that conventionally holds the
// institution inputs next to the tool.
const InstitutionsDir = "06_input_institutions"

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// abs makes path absolute, falling back to the cleaned input.
func abs(path string) string {
	if p, err := filepath.Abs(path); err == nil {
		return p
	}
	return filepath.Clean(path)
}

// TemplateCandidates lists where a template path may point, in order:
// as given, relative to the mapping directory, and relative to the
// institutions directory under baseDir.
func TemplateCandidates(path, mappingDir, baseDir string) []string {
	candidates := []string{abs(ExpandHome(path))}

	if mappingDir != "" {
		candidates = append(candidates, abs(filepath.Join(mappingDir, path)))
	}

	if baseDir != "" && !strings.HasPrefix(path, InstitutionsDir+string(os.PathSeparator)) {
		candidates = append(candidates, abs(filepath.Join(baseDir, InstitutionsDir, path)))
	}

	return candidates
}

// MappingCandidates lists where a mapping path may point: as given and
// relative to baseDir.
func MappingCandidates(path, baseDir string) []string {
	candidates := []string{abs(ExpandHome(path))}
	if baseDir != "" {
		candidates = append(candidates, abs(filepath.Join(baseDir, path)))
	}
	return candidates
}

// FirstExisting returns the first candidate that exists. When none does it
// returns the first candidate and false so that the caller reports a clear
// error for the path the user most likely meant.
func FirstExisting(candidates []string) (string, bool) {
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}
	}
	if len(candidates) == 0 {
		return "", false
	}
	return candidates[0], false
}

// ResolveTemplate finds the template file. See TemplateCandidates.
func ResolveTemplate(path, mappingDir, baseDir string) (string, bool) {
	return FirstExisting(TemplateCandidates(path, mappingDir, baseDir))
}

// ResolveMapping finds the mapping file. See MappingCandidates.
func ResolveMapping(path, baseDir string) (string, bool) {
	return FirstExisting(MappingCandidates(path, baseDir))
}

// ExecutableDir returns the directory of the running binary, or "" when it
// cannot be determined.
func ExecutableDir() string {
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe)
}
