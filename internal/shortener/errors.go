package shortener

import (
	"errors"
	"net/http"
)

// Code is the stable error_code reported in error bodies.
type Code int16

const (
	CodeServerError         Code = -1
	CodeNotFound            Code = -2
	CodeMethodNotAllowed    Code = -3
	CodeSerialization       Code = -4
	CodeAllocationExhausted Code = -5
	CodeDeserialization     Code = 100
	CodeURL                 Code = 101
	CodeTTL                 Code = 102
	CodeRateLimited         Code = 429
	CodeNeedAuth            Code = 401
)

var (
	ErrNotFound            = errors.New("short url not found")
	ErrNeedAuth            = errors.New("authentication required")
	ErrInvalidURL          = errors.New("invalid target url")
	ErrInvalidTTL          = errors.New("invalid ttl")
	ErrMalformed           = errors.New("malformed json")
	ErrAllocationExhausted = errors.New("no free identifier found")
)

// Error is the structured error reported to clients as
// {"message", "status", "error_code"}.
type Error struct {
	Message string `json:"message"`
	Status  uint16 `json:"status"`
	Code    Code   `json:"error_code"`

	err error
}

// NewError builds an Error wrapping cause.
func NewError(status int, code Code, message string, cause error) *Error {
	return &Error{
		Message: message,
		Status:  uint16(status),
		Code:    code,
		err:     cause,
	}
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.err
}

// GetStatus returns the HTTP status code.
func (e *Error) GetStatus() int {
	return int(e.Status)
}

func ServerError(cause error) *Error {
	return NewError(http.StatusInternalServerError, CodeServerError, "Internal Server Error", cause)
}

func NotFound() *Error {
	return NewError(http.StatusNotFound, CodeNotFound, "Not Found", ErrNotFound)
}

// MethodNotAllowed uses 415, the status the public API has always returned here.
func MethodNotAllowed() *Error {
	return NewError(http.StatusUnsupportedMediaType, CodeMethodNotAllowed, "Method Not Allowed", nil)
}

func NeedAuth() *Error {
	return NewError(http.StatusUnauthorized, CodeNeedAuth, "Need Auth", ErrNeedAuth)
}

func URLError(message string) *Error {
	return NewError(http.StatusBadRequest, CodeURL, message, ErrInvalidURL)
}

func TTLError(message string) *Error {
	return NewError(http.StatusBadRequest, CodeTTL, message, ErrInvalidTTL)
}

func DeserializationError(cause error) *Error {
	return NewError(http.StatusBadRequest, CodeDeserialization, cause.Error(), errors.Join(ErrMalformed, cause))
}

func SerializationError(cause error) *Error {
	return NewError(http.StatusInternalServerError, CodeSerialization, cause.Error(), cause)
}

func AllocationExhausted() *Error {
	return NewError(http.StatusServiceUnavailable, CodeAllocationExhausted,
		"Could not allocate a short identifier, try again", ErrAllocationExhausted)
}

func RateLimited(message string) *Error {
	return NewError(http.StatusTooManyRequests, CodeRateLimited, message, nil)
}

// AsError returns err as an *Error, converting unknown errors to server errors.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}

	return ServerError(err)
}
