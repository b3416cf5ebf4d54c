// Package envelope defines the three-way result every tool handler returns:
// success, error, or pending_confirmation. No handler lets a raw error or
// panic escape past this boundary.
package envelope

import (
	"github.com/rs/zerolog"

	"github.com/tamshai/hr-gateway/internal/model"
)

// Status discriminates the envelope shape.
type Status string

const (
	StatusSuccess             Status = "success"
	StatusError               Status = "error"
	StatusPendingConfirmation Status = "pending_confirmation"
)

// Code is a stable machine-readable error identifier. LLM callers branch on
// it, so values never change meaning once shipped.
type Code string

const (
	CodeInvalidInput         Code = "INVALID_INPUT"
	CodeEmployeeNotFound     Code = "EMPLOYEE_NOT_FOUND"
	CodeRequestNotFound      Code = "REQUEST_NOT_FOUND"
	CodeTicketNotFound       Code = "TICKET_NOT_FOUND"
	CodeConfirmationNotFound Code = "CONFIRMATION_NOT_FOUND"
	CodeAlreadyProcessed     Code = "ALREADY_PROCESSED"
	CodeUnknownAction        Code = "UNKNOWN_ACTION"
	CodeUnknownTool          Code = "UNKNOWN_TOOL"
	CodeDatabaseError        Code = "DATABASE_ERROR"
	CodeConstraintViolation  Code = "CONSTRAINT_VIOLATION"
	CodeInternalError        Code = "INTERNAL_ERROR"
)

// ErrorBody carries a plain-language message and a suggested next step so an
// automated caller can self-correct without human help.
type ErrorBody struct {
	Code            Code   `json:"code"`
	Message         string `json:"message"`
	SuggestedAction string `json:"suggestedAction"`
	Details         any    `json:"details,omitempty"`
}

// PageMetadata mirrors model.PageResult bookkeeping for paginated successes.
type PageMetadata struct {
	HasMore       bool   `json:"hasMore"`
	NextCursor    string `json:"nextCursor,omitempty"`
	TotalEstimate string `json:"totalEstimate,omitempty"`
}

// Response is the wire shape of every tool result.
type Response struct {
	Status   Status        `json:"status"`
	Data     any           `json:"data,omitempty"`
	Metadata *PageMetadata `json:"metadata,omitempty"`
	Error    *ErrorBody    `json:"error,omitempty"`

	ConfirmationID   string `json:"confirmationId,omitempty"`
	Message          string `json:"message,omitempty"`
	ConfirmationData any    `json:"confirmationData,omitempty"`
}

// OK wraps a non-paginated success.
func OK(data any) Response {
	return Response{Status: StatusSuccess, Data: data}
}

// OKPage wraps a paginated success, lifting the page bookkeeping into
// metadata.
func OKPage(res model.PageResult[map[string]any]) Response {
	return Response{
		Status: StatusSuccess,
		Data:   res.Items,
		Metadata: &PageMetadata{
			HasMore:       res.HasMore,
			NextCursor:    res.NextCursor,
			TotalEstimate: res.TotalEstimate,
		},
	}
}

// Err builds an error envelope.
func Err(code Code, message, suggested string) Response {
	return Response{
		Status: StatusError,
		Error:  &ErrorBody{Code: code, Message: message, SuggestedAction: suggested},
	}
}

// ErrWithDetails builds an error envelope carrying structured details.
func ErrWithDetails(code Code, message, suggested string, details any) Response {
	r := Err(code, message, suggested)
	r.Error.Details = details
	return r
}

// PendingConfirmation is returned by every write tool's first call. The
// confirmationData echoes what was staged so the caller can show it for
// approval.
func PendingConfirmation(id, message string, data any) Response {
	return Response{
		Status:           StatusPendingConfirmation,
		ConfirmationID:   id,
		Message:          message,
		ConfirmationData: data,
	}
}

// DatabaseErr converts a backend connectivity failure into the retryable
// DATABASE_ERROR shape. The underlying error is for logs, never the caller.
func DatabaseErr(log zerolog.Logger, op string, err error) Response {
	log.Error().Stack().Err(err).Str("op", op).Msg("backend call failed")
	return Err(CodeDatabaseError,
		"A backing data store did not respond.",
		"Try the same request again shortly.")
}

// Capture runs fn and guarantees the result is one of the three envelope
// shapes: a panic or stray error becomes INTERNAL_ERROR with full context
// logged and nothing internal leaked to the caller.
func Capture(log zerolog.Logger, tool string, fn func() Response) (resp Response) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Str("tool", tool).Msg("tool handler panicked")
			resp = Err(CodeInternalError,
				"An unexpected error occurred while handling the request.",
				"Retry once; escalate if the error persists.")
		}
	}()
	return fn()
}
