package types

import "time"

// ErrorCode classifies workflow failures.
type ErrorCode string

const (
	// ErrSessionInit: the portal session could not be established; no stage
	// request was issued.
	ErrSessionInit ErrorCode = "session_init"
	// ErrTokenExtraction: a mid-workflow response yielded no usable tokens.
	ErrTokenExtraction ErrorCode = "token_extraction"
	// ErrServerErrorPage: the portal rendered its generic error page.
	// Presumed bad input, never retried.
	ErrServerErrorPage ErrorCode = "server_error_page"
	// ErrFieldValidation: the portal rejected one or more field values.
	ErrFieldValidation ErrorCode = "field_validation"
	// ErrTransport: the HTTP exchange itself failed.
	ErrTransport ErrorCode = "transport"
	// ErrDocuments: confirmation succeeded but finalization or document
	// retrieval failed.
	ErrDocuments ErrorCode = "documents"
	// ErrInternal: unexpected engine-side failure.
	ErrInternal ErrorCode = "internal"
)

// FieldError is one portal-side validation message, keyed by the offending
// widget where the markup allows it.
type FieldError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// Fee is one line of the portal's fee schedule for the filing.
type Fee struct {
	Code        string `json:"code,omitempty"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
}

// Document is one file issued by the authority for a confirmed filing.
type Document struct {
	Filename string `json:"filename"`
	Bytes    []byte `json:"bytes"`
	MimeType string `json:"mime_type"`
}

// Warning records a non-fatal outcome attached to an otherwise successful
// run, currently only unresolved classification terms.
type Warning struct {
	Category string `json:"category"`
	Term     string `json:"term"`
	Reason   string `json:"reason"`
}

// Result is the single value a workflow run produces.
type Result struct {
	Success bool `json:"success"`

	// Success payload
	ConfirmationID      string     `json:"confirmation_id,omitempty"`
	ReferenceID         string     `json:"reference_id,omitempty"`
	TransactionID       string     `json:"transaction_id,omitempty"`
	SubmissionTime      time.Time  `json:"submission_time,omitempty"`
	Fees                []Fee      `json:"fees,omitempty"`
	PaymentInstructions string     `json:"payment_instructions,omitempty"`
	Documents           []Document `json:"documents,omitempty"`
	Warnings            []Warning  `json:"warnings,omitempty"`

	// Failure payload
	ErrorCode   ErrorCode    `json:"error_code,omitempty"`
	Message     string       `json:"message,omitempty"`
	FailedStage int          `json:"failed_stage,omitempty"`
	FieldErrors []FieldError `json:"field_errors,omitempty"`
}

// Failure builds a failed result.
func Failure(code ErrorCode, stage int, message string) *Result {
	return &Result{
		Success:     false,
		ErrorCode:   code,
		Message:     message,
		FailedStage: stage,
	}
}
