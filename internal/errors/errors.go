package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrComplaintNotFound is returned when no complaint has the requested id.
	ErrComplaintNotFound = errors.New("complaint not found")
	// ErrInvalidTransition is returned when the status policy rejects a change.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrUnauthenticated is returned when no session user is present.
	ErrUnauthenticated = errors.New("not logged in")
	// ErrForbidden is returned when a user touches another user's complaint.
	ErrForbidden = errors.New("complaint belongs to another user")
	// ErrMediaNotFound is returned when an attachment index is out of range.
	ErrMediaNotFound = errors.New("attachment not found")
)

// ValidationError names the complaint fields that are missing or invalid.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing or invalid fields: %s", strings.Join(e.Fields, ", "))
}

// EncodingError reports the attachment that could not be encoded.
type EncodingError struct {
	Index int
	Name  string
	Err   error
}

func (e *EncodingError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("encode attachment %d (%s): %v", e.Index, e.Name, e.Err)
	}
	return fmt.Sprintf("encode attachment %d: %v", e.Index, e.Err)
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error  string   `json:"error"`
	Code   string   `json:"code"`
	Fields []string `json:"fields,omitempty"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
	Fields     []string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error:  e.Message,
		Code:   e.Code,
		Fields: e.Fields,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	var verr *ValidationError
	if errors.As(err, &verr) {
		httpErr := NewHTTPError(http.StatusBadRequest, verr.Error(), "VALIDATION_ERROR")
		httpErr.Fields = verr.Fields
		return httpErr
	}
	var encErr *EncodingError
	if errors.As(err, &encErr) {
		return NewHTTPError(http.StatusBadRequest, "failed to submit complaint, please try again", "MEDIA_ENCODING_FAILED")
	}

	switch {
	case errors.Is(err, ErrComplaintNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "COMPLAINT_NOT_FOUND")
	case errors.Is(err, ErrMediaNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "MEDIA_NOT_FOUND")
	case errors.Is(err, ErrInvalidTransition):
		return NewHTTPError(http.StatusConflict, err.Error(), "INVALID_TRANSITION")
	case errors.Is(err, ErrUnauthenticated):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "UNAUTHENTICATED")
	case errors.Is(err, ErrForbidden):
		return NewHTTPError(http.StatusForbidden, err.Error(), "FORBIDDEN")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
