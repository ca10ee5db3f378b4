package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// SchemaDetectionFailed indicates no recognizable node table in a store
	SchemaDetectionFailed ErrorCode = "SCHEMA_DETECTION_FAILED"
	// StoreNotRegistered indicates an unknown store identifier
	StoreNotRegistered ErrorCode = "STORE_NOT_REGISTERED"
	// StoreUnavailable indicates a store file could not be opened
	StoreUnavailable ErrorCode = "STORE_UNAVAILABLE"
	// NodeNotFound indicates a referenced node doesn't exist
	NodeNotFound ErrorCode = "NODE_NOT_FOUND"
	// EmbeddingUnavailable indicates no embedding provider could serve a query
	EmbeddingUnavailable ErrorCode = "EMBEDDING_UNAVAILABLE"
	// StorageReadError indicates a row or table read failed mid-query
	StorageReadError ErrorCode = "STORAGE_READ_ERROR"
	// InvalidArgument indicates a malformed request parameter
	InvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// Timeout indicates query timed out
	Timeout ErrorCode = "TIMEOUT"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixActionType represents the type of fix action
type FixActionType string

const (
	// RunCommand suggests running a command
	RunCommand FixActionType = "run-command"
	// OpenDocs suggests opening documentation
	OpenDocs FixActionType = "open-docs"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Type        FixActionType `json:"type"`
	Command     string        `json:"command,omitempty"`
	Safe        bool          `json:"safe,omitempty"`
	Description string        `json:"description,omitempty"`
	URL         string        `json:"url,omitempty"`
}

// Drilldown represents a suggested follow-up query
type Drilldown struct {
	Label string `json:"label"`
	Query string `json:"query"`
}

// KgqError represents a KGQ error with code, message, and suggestions
type KgqError struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	Drilldowns     []Drilldown `json:"drilldowns,omitempty"`
	cause          error       // Underlying error (not exported to JSON)
}

// New creates a new KgqError without a cause
func New(code ErrorCode, message string) *KgqError {
	return &KgqError{Code: code, Message: message}
}

// Wrap creates a new KgqError wrapping an underlying error
func Wrap(code ErrorCode, message string, cause error) *KgqError {
	return &KgqError{Code: code, Message: message, cause: cause}
}

// Error implements the error interface
func (e *KgqError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *KgqError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *KgqError) WithDetails(details interface{}) *KgqError {
	e.Details = details
	return e
}

// WithFixes adds suggested fixes to the error
func (e *KgqError) WithFixes(fixes ...FixAction) *KgqError {
	e.SuggestedFixes = append(e.SuggestedFixes, fixes...)
	return e
}

// CodeOf extracts the ErrorCode from an error chain.
// Returns InternalError for non-KGQ errors and "" for nil.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var ke *KgqError
	if errors.As(err, &ke) {
		return ke.Code
	}
	return InternalError
}

// IsCode reports whether err carries the given code anywhere in its chain.
func IsCode(err error, code ErrorCode) bool {
	var ke *KgqError
	return errors.As(err, &ke) && ke.Code == code
}

// IsNotFound reports whether err is a NodeNotFound error.
func IsNotFound(err error) bool {
	return IsCode(err, NodeNotFound)
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	SchemaDetectionFailed: {
		{
			Type:        RunCommand,
			Command:     "kgq schema --store=${store}",
			Safe:        true,
			Description: "Inspect the tables the detector saw and which profile rules failed",
		},
	},
	StoreNotRegistered: {
		{
			Type:        RunCommand,
			Command:     "kgq stats",
			Safe:        true,
			Description: "List the stores registered with this engine",
		},
	},
	StoreUnavailable: {
		{
			Type:        RunCommand,
			Command:     "ls -l ${store}",
			Safe:        true,
			Description: "Check that the store file exists and is readable",
		},
	},
	NodeNotFound: {
		{
			Type:        RunCommand,
			Command:     "kgq query \"${name}\" --store=${store}",
			Safe:        true,
			Description: "Search by name instead of exact id",
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
