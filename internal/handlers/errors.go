package handlers

import (
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/shortkv/internal/shortener"
)

// UseStructuredErrors makes every error huma generates (validation, rate
// limiting, unknown failures) use the {"message","status","error_code"} body.
func UseStructuredErrors() {
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return shortener.NewError(status, codeForStatus(status), msg, errors.Join(errs...))
	}
}

func codeForStatus(status int) shortener.Code {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return shortener.CodeDeserialization
	case http.StatusUnauthorized:
		return shortener.CodeNeedAuth
	case http.StatusNotFound:
		return shortener.CodeNotFound
	case http.StatusUnsupportedMediaType:
		return shortener.CodeMethodNotAllowed
	case http.StatusTooManyRequests:
		return shortener.CodeRateLimited
	case http.StatusServiceUnavailable:
		return shortener.CodeAllocationExhausted
	default:
		return shortener.CodeServerError
	}
}
