// Package errors defines hsplit's coded errors and the fix suggestions attached to them.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// CompileDBInvalid indicates the compilation database could not be read or decoded
	CompileDBInvalid ErrorCode = "COMPILE_DB_INVALID"
	// EntryInvalid indicates a single compilation database entry is malformed
	EntryInvalid ErrorCode = "ENTRY_INVALID"
	// ExtractionFailed indicates the symbol extractor failed on a file
	ExtractionFailed ErrorCode = "EXTRACTION_FAILED"
	// ExtractorUnavailable indicates the binary was built without the C front end
	ExtractorUnavailable ErrorCode = "EXTRACTOR_UNAVAILABLE"
	// IndexMissing indicates no usage index was found
	IndexMissing ErrorCode = "INDEX_MISSING"
	// IndexStale indicates the compilation database changed since the index was built
	IndexStale ErrorCode = "INDEX_STALE"
	// NothingToPartition indicates the header declares fewer than two symbols
	NothingToPartition ErrorCode = "NOTHING_TO_PARTITION"
	// InvalidClusterCount indicates k is outside [1, number of symbols]
	InvalidClusterCount ErrorCode = "INVALID_CLUSTER_COUNT"
	// InvalidLinkage indicates an unknown linkage method name
	InvalidLinkage ErrorCode = "INVALID_LINKAGE"
	// ConfigInvalid indicates a configuration value failed validation
	ConfigInvalid ErrorCode = "CONFIG_INVALID"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixActionType represents the type of fix action
type FixActionType string

const (
	// RunCommand suggests running a command
	RunCommand FixActionType = "run-command"
	// EditConfig suggests changing a configuration key
	EditConfig FixActionType = "edit-config"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Type        FixActionType `json:"type"`
	Command     string        `json:"command,omitempty"`
	Key         string        `json:"key,omitempty"`
	Description string        `json:"description,omitempty"`
}

// HsError is an error with a stable code, optional details and suggested fixes.
type HsError struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error
}

// New creates an HsError. When fixes is nil the registered fixes for code are used.
func New(code ErrorCode, message string, cause error, fixes []FixAction) *HsError {
	if fixes == nil {
		fixes = GetSuggestedFixes(code)
	}
	return &HsError{
		Code:           code,
		Message:        message,
		cause:          cause,
		SuggestedFixes: fixes,
	}
}

// Newf is New with a formatted message and no cause.
func Newf(code ErrorCode, format string, args ...interface{}) *HsError {
	return New(code, fmt.Sprintf(format, args...), nil, nil)
}

// Wrap attaches a code to cause. A nil cause yields nil.
func Wrap(code ErrorCode, message string, cause error) error {
	if cause == nil {
		return nil
	}
	return New(code, message, cause, nil)
}

// Error implements the error interface
func (e *HsError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *HsError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *HsError) WithDetails(details interface{}) *HsError {
	e.Details = details
	return e
}

// CodeOf returns the code of the first HsError in err's chain, or "" if there is none.
func CodeOf(err error) ErrorCode {
	var hs *HsError
	if stderrors.As(err, &hs) {
		return hs.Code
	}
	return ""
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	IndexMissing: {
		{
			Type:        RunCommand,
			Command:     "hsplit index -c compile_commands.json",
			Description: "Build the usage index from the compilation database",
		},
	},
	IndexStale: {
		{
			Type:        RunCommand,
			Command:     "hsplit index -c ${compile_db}",
			Description: "Rebuild the usage index; the compilation database changed",
		},
	},
	InvalidClusterCount: {
		{
			Type:        EditConfig,
			Key:         "cluster.k",
			Description: "Choose k between 1 and the number of header symbols",
		},
	},
	InvalidLinkage: {
		{
			Type:        EditConfig,
			Key:         "cluster.method",
			Description: "Use one of: single, complete, average, weighted, centroid, median, ward",
		},
	},
	ExtractorUnavailable: {
		{
			Type:        RunCommand,
			Command:     "CGO_ENABLED=1 go build ./cmd/hsplit",
			Description: "Rebuild with cgo so the tree-sitter C front end is linked in",
		},
	},
}

// GetSuggestedFixes returns suggested fixes for an error code
func GetSuggestedFixes(code ErrorCode) []FixAction {
	if fixes, ok := ErrorActions[code]; ok {
		return fixes
	}
	return nil
}
