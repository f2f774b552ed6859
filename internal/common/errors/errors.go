// Package errors provides standardized error values for the assistant's
// ingestion, provider and notification edges. The match engine and the
// disambiguation policy never return errors: missing or unloaded data
// resolves to a not-found result or a clarifying question instead.
package errors

import (
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeDirectoryLoadFailed ErrorCode = "DIRECTORY_LOAD_FAILED"
	ErrCodeDirectoryEmpty      ErrorCode = "DIRECTORY_EMPTY"

	ErrCodeAliasTableInvalid ErrorCode = "ALIAS_TABLE_INVALID"

	ErrCodeToolArgumentsInvalid ErrorCode = "TOOL_ARGUMENTS_INVALID"
	ErrCodeToolUnknown          ErrorCode = "TOOL_UNKNOWN"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"

	ErrCodeChatModelFailed     ErrorCode = "CHAT_MODEL_FAILED"
	ErrCodeTranscriptionFailed ErrorCode = "TRANSCRIPTION_FAILED"
	ErrCodeSynthesisFailed     ErrorCode = "SYNTHESIS_FAILED"

	ErrCodeSessionBackendFailed ErrorCode = "SESSION_BACKEND_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// NewDirectoryLoadFailedError creates a retryable ingestion error.
func NewDirectoryLoadFailedError(source string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDirectoryLoadFailed,
		Message:   "Failed to load hospital directory",
		Details:   fmt.Sprintf("source: %s, error: %s", source, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDirectoryEmptyError creates a non-retryable error for a source that
// produced zero usable records.
func NewDirectoryEmptyError(source string) *StandardError {
	return &StandardError{
		Code:      ErrCodeDirectoryEmpty,
		Message:   "Directory source produced no records",
		Details:   fmt.Sprintf("source: %s", source),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAliasTableInvalidError creates a non-retryable configuration error.
func NewAliasTableInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAliasTableInvalid,
		Message:   "City alias table is not well-formed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewToolArgumentsInvalidError creates a non-retryable validation error.
func NewToolArgumentsInvalidError(tool, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeToolArgumentsInvalid,
		Message:   "Tool arguments failed schema validation",
		Details:   fmt.Sprintf("tool: %s, %s", tool, details),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewToolUnknownError creates a non-retryable dispatch error.
func NewToolUnknownError(tool string) *StandardError {
	return &StandardError{
		Code:      ErrCodeToolUnknown,
		Message:   "No such tool is registered",
		Details:   fmt.Sprintf("tool: %s", tool),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable handoff error. It is
// logged and dropped, never surfaced to the conversation.
func NewNotificationSendFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Failed to notify human agent",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewChatModelFailedError creates a retryable provider error.
func NewChatModelFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeChatModelFailed,
		Message:   "Chat model call failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewTranscriptionFailedError creates a retryable provider error.
func NewTranscriptionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTranscriptionFailed,
		Message:   "Speech-to-text call failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSynthesisFailedError creates a retryable provider error.
func NewSynthesisFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSynthesisFailed,
		Message:   "Text-to-speech call failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSessionBackendFailedError creates a retryable session storage error.
func NewSessionBackendFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSessionBackendFailed,
		Message:   "Session backend operation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}
