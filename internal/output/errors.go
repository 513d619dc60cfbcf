package output

import "fmt"

// WriteError represents a failure to store a generated form
type WriteError struct {
	Path    string
	Message string
	Cause   error
}

func (e *WriteError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("output error: %s: %s: %v", e.Message, e.Path, e.Cause)
	}
	return fmt.Sprintf("output error: %s: %s", e.Message, e.Path)
}

func (e *WriteError) Unwrap() error {
	return e.Cause
}
