package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Kind represents the category of a pipeline failure
type Kind string

const (
	KindIO               Kind = "io"
	KindSchema           Kind = "schema"
	KindValue            Kind = "value"
	KindInsufficientData Kind = "insufficient_data"
)

// Sentinels for errors.Is checks against a failure category.
var (
	ErrIO               = &PipelineError{Kind: KindIO, Message: "i/o failure", sentinel: true}
	ErrSchema           = &PipelineError{Kind: KindSchema, Message: "schema violation", sentinel: true}
	ErrValue            = &PipelineError{Kind: KindValue, Message: "invalid value", sentinel: true}
	ErrInsufficientData = &PipelineError{Kind: KindInsufficientData, Message: "insufficient data", sentinel: true}
)

// PipelineError is returned by every processing stage. Stage and File are
// filled in as the error travels up through the pipeline.
type PipelineError struct {
	Kind    Kind   `json:"kind"`
	Stage   string `json:"stage,omitempty"`
	File    string `json:"file,omitempty"`
	Column  string `json:"column,omitempty"`
	Message string `json:"message"`
	Cause   error  `json:"-"`

	sentinel bool
}

// Error implements the error interface
func (e *PipelineError) Error() string {
	if e == nil {
		return "unknown pipeline error"
	}
	parts := make([]string, 0, 4)
	if e.Stage != "" {
		parts = append(parts, e.Stage)
	}
	if e.File != "" {
		parts = append(parts, e.File)
	}
	parts = append(parts, e.Message)
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}
	return fmt.Sprintf("[%s] %s", e.Kind, strings.Join(parts, ": "))
}

// Unwrap returns the underlying error
func (e *PipelineError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is matches the category sentinels (ErrIO, ErrSchema, ...).
func (e *PipelineError) Is(target error) bool {
	t, ok := target.(*PipelineError)
	if !ok || e == nil || t == nil {
		return false
	}
	return t.sentinel && t.Kind == e.Kind
}

// NewIOError wraps a filesystem or stream failure.
func NewIOError(stage, file string, cause error) *PipelineError {
	return &PipelineError{
		Kind:    KindIO,
		Stage:   stage,
		File:    file,
		Message: "cannot access file",
		Cause:   cause,
	}
}

// NewSchemaError reports a missing or malformed column.
func NewSchemaError(file, column, message string) *PipelineError {
	if message == "" {
		message = fmt.Sprintf("missing required column %q", column)
	}
	return &PipelineError{
		Kind:    KindSchema,
		File:    file,
		Column:  column,
		Message: message,
	}
}

// NewValueError reports an input value outside the accepted domain.
func NewValueError(stage, format string, args ...interface{}) *PipelineError {
	return &PipelineError{
		Kind:    KindValue,
		Stage:   stage,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewInsufficientDataError reports that a stage has too few samples,
// cycles or points to produce a result.
func NewInsufficientDataError(stage, format string, args ...interface{}) *PipelineError {
	return &PipelineError{
		Kind:    KindInsufficientData,
		Stage:   stage,
		Message: fmt.Sprintf(format, args...),
	}
}

// WithContext fills in the stage and file on a PipelineError that does not
// carry them yet. Other errors are wrapped as IO failures of that stage.
func WithContext(err error, stage, file string) error {
	if err == nil {
		return nil
	}
	var pe *PipelineError
	if !stderrors.As(err, &pe) {
		return NewIOError(stage, file, err)
	}
	if pe.sentinel {
		return &PipelineError{Kind: pe.Kind, Stage: stage, File: file, Message: pe.Message}
	}
	if pe.Stage == "" {
		pe.Stage = stage
	}
	if pe.File == "" {
		pe.File = file
	}
	return err
}

// KindOf returns the category of err, or "" when err is not a PipelineError.
func KindOf(err error) Kind {
	var pe *PipelineError
	if stderrors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

// IsKind checks whether err belongs to the given category
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
