package router

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrBindError marks a listener that could not be started.
var ErrBindError = errors.New("server bind error")

// Error codes carried in the error envelope.
const (
	ErrInternalCode           = "INTERNAL_ERROR"
	ErrBadRequestCode         = "BAD_REQUEST"
	ErrNotFoundCode           = "NOT_FOUND"
	ErrConflictCode           = "CONFLICT"
	ErrRequestTimeoutCode     = "REQUEST_TIMEOUT"
	ErrTooManyRequestsCode    = "TOO_MANY_REQUESTS"
	ErrServiceUnavailableCode = "SERVICE_UNAVAILABLE"
)

const ErrMsgAppStateNotInitialized = "application state not initialized"

var statusByCode = map[string]int{
	ErrBadRequestCode:         http.StatusBadRequest,
	ErrNotFoundCode:           http.StatusNotFound,
	ErrConflictCode:           http.StatusConflict,
	ErrRequestTimeoutCode:     http.StatusRequestTimeout,
	ErrTooManyRequestsCode:    http.StatusTooManyRequests,
	ErrServiceUnavailableCode: http.StatusServiceUnavailable,
}

func codeForStatus(status int) string {
	for code, s := range statusByCode {
		if s == status {
			return code
		}
	}
	return ErrInternalCode
}

func getStatusCode(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Error is a server-side failure with a stable code.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
	Details string `json:"details"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// WrapServerError wraps err with a code and a client-facing message.
func WrapServerError(code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// RequestError is a failure caused by the request itself. Reason is shown to
// the client; Err, when set, becomes the details.
type RequestError struct {
	Reason     string
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	return e.Reason
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

func NewRequestError(statusCode int, reason string, err error) *RequestError {
	return &RequestError{StatusCode: statusCode, Reason: reason, Err: err}
}

// ErrorInfo is the error member of the response envelope.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// GetErrorInfo derives the envelope error from the status code.
func (e *RequestError) GetErrorInfo() *ErrorInfo {
	info := &ErrorInfo{Code: codeForStatus(e.StatusCode), Message: e.Reason}
	if e.Err != nil {
		info.Details = e.Err.Error()
	}
	return info
}
