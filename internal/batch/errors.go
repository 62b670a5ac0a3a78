package batch

import (
	"fmt"
)

// FileError attributes a pipeline failure to one file of the batch
type FileError struct {
	Index int    `json:"index"`
	Label string `json:"label"`
	Path  string `json:"path"`
	Err   error  `json:"-"`
}

// Error implements the error interface
func (e *FileError) Error() string {
	return fmt.Sprintf("file %d (%s): %v", e.Index, e.Label, e.Err)
}

// Unwrap returns the underlying error
func (e *FileError) Unwrap() error {
	return e.Err
}

// FailureList collects the per-file failures of a best-effort run
type FailureList struct {
	Errors []*FileError `json:"errors"`
}

// Error implements the error interface
func (e *FailureList) Error() string {
	switch len(e.Errors) {
	case 0:
		return "no errors"
	case 1:
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("multiple errors: %d files failed", len(e.Errors))
}

// Add adds an error to the list
func (e *FailureList) Add(err *FileError) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if there are any errors
func (e *FailureList) HasErrors() bool {
	return len(e.Errors) > 0
}
