package mapping

import "fmt"

// LoadError represents a failure to read or parse a mapping file
type LoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *LoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("mapping error: %s: %s: %v", e.Message, e.Path, e.Cause)
	}
	return fmt.Sprintf("mapping error: %s: %s", e.Message, e.Path)
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}
