package models

import (
	"errors"
	"fmt"
)

// Sentinel errors mirroring the error kinds of spec.md §7.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrRateMissing        = errors.New("no applicable rate for material/thickness")
	ErrStatsMissing       = errors.New("no toolpath stats available")
	ErrDegenerateGeometry = errors.New("degenerate geometry")
	ErrInvariantViolation = errors.New("invariant violation")
)

// ErrorType categorizes an AppError for HTTP status mapping and dispatch.
type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeRateMissing  ErrorType = "rate_missing"
	ErrorTypeStatsMissing ErrorType = "stats_missing"
	ErrorTypeDegenerate   ErrorType = "degenerate_geometry"
	ErrorTypeInvariant    ErrorType = "invariant_violation"
	ErrorTypeInternal     ErrorType = "internal"
)

// Error codes surfaced in API responses.
const (
	CodeInvalidValue       = "INVALID_VALUE"
	CodeRateMissing        = "RATE_MISSING"
	CodeStatsMissing       = "STATS_MISSING"
	CodeDegenerateGeometry = "DEGENERATE_GEOMETRY"
	CodeOpenContourWarning = "OPEN_CONTOUR"
	CodeInvariantViolation = "INVARIANT_VIOLATION"
	CodeBufferBelowOne     = "BUFFER_BELOW_ONE"
	CodeInternal           = "INTERNAL_ERROR"
)

// AppError is the closed error sum type used across every component.
// It carries the responsible sheet/part/drawing identifier per spec.md §7
// ("errors abort the run and surface a tagged result with the responsible
// sheet_id / part_instance_id / drawing_id").
type AppError struct {
	Type           ErrorType `json:"type"`
	Code           string    `json:"code"`
	Message        string    `json:"message"`
	Details        string    `json:"details,omitempty"`
	SheetID        string    `json:"sheet_id,omitempty"`
	PartInstanceID string    `json:"part_instance_id,omitempty"`
	DrawingID      string    `json:"drawing_id,omitempty"`
	Cause          error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s - %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Cause }

// NewValidationError creates an InvalidInput error.
func NewValidationError(message string) *AppError {
	return &AppError{Type: ErrorTypeValidation, Code: CodeInvalidValue, Message: message}
}

// NewRateMissingError reports the no-applicable-rate failure of spec.md §4.R/§7.
func NewRateMissingError(materialID string, thicknessMM float64) *AppError {
	return &AppError{
		Type:    ErrorTypeRateMissing,
		Code:    CodeRateMissing,
		Message: fmt.Sprintf("no rate for material %q at thickness %.2fmm", materialID, thicknessMM),
	}
}

// NewStatsMissingError reports a part whose toolpath stats could not be resolved.
func NewStatsMissingError(drawingID string, cause error) *AppError {
	return &AppError{
		Type:      ErrorTypeStatsMissing,
		Code:      CodeStatsMissing,
		Message:   "toolpath stats unavailable",
		DrawingID: drawingID,
		Cause:     cause,
	}
}

// NewDegenerateGeometryError reports a zero-length contour encountered while extracting stats.
func NewDegenerateGeometryError(drawingID string) *AppError {
	return &AppError{
		Type:      ErrorTypeDegenerate,
		Code:      CodeDegenerateGeometry,
		Message:   "zero-length contour",
		DrawingID: drawingID,
	}
}

// NewInvariantViolationError reports a per-sheet invariant violation (area sums disagree, or a negative result).
func NewInvariantViolationError(sheetID, message string) *AppError {
	return &AppError{
		Type:    ErrorTypeInvariant,
		Code:    CodeInvariantViolation,
		Message: message,
		SheetID: sheetID,
	}
}

// NewInternalError wraps an unexpected failure.
func NewInternalError(message string, cause error) *AppError {
	return &AppError{Type: ErrorTypeInternal, Code: CodeInternal, Message: message, Cause: cause}
}

// Warning is a non-fatal condition collected alongside a CostSummary (spec.md §7: "Warnings are
// collected alongside the CostSummary").
type Warning struct {
	Code           string `json:"code"`
	Message        string `json:"message"`
	SheetID        string `json:"sheet_id,omitempty"`
	PartInstanceID string `json:"part_instance_id,omitempty"`
}

// NewOpenContourWarning builds the OpenContour warning of spec.md §4.T ("reports ... OpenContour as a warning").
func NewOpenContourWarning(drawingID string) Warning {
	return Warning{Code: CodeOpenContourWarning, Message: "contour is not closed", SheetID: drawingID}
}

// NewBufferBelowOneWarning builds the BufferBelowOne warning of spec.md §7.
func NewBufferBelowOneWarning(bufferFactor float64) Warning {
	return Warning{
		Code:    CodeBufferBelowOne,
		Message: fmt.Sprintf("buffer_factor %.3f is below 1.0", bufferFactor),
	}
}

// GetHTTPStatusCode maps an error to the HTTP status the facade should return.
func GetHTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		switch appErr.Type {
		case ErrorTypeValidation:
			return 400
		case ErrorTypeRateMissing, ErrorTypeStatsMissing:
			return 422
		case ErrorTypeDegenerate, ErrorTypeInvariant:
			return 409
		case ErrorTypeInternal:
			return 500
		}
	}
	return 500
}

// ErrorResponse is the standard JSON error envelope returned by the HTTP facade.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// NewErrorResponse converts any error into the wire error envelope.
func NewErrorResponse(err error) *ErrorResponse {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return &ErrorResponse{Error: appErr.Message, Code: appErr.Code, Details: appErr.Details}
	}
	return &ErrorResponse{Error: err.Error(), Code: CodeInternal}
}
