package core

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ErrorBadInput           = "FLEX_BAD_INPUT"
	ErrorTokenNotFound      = "FLEX_TOKEN_NOT_FOUND"
	ErrorRequestRejected    = "FLEX_REQUEST_REJECTED"
	ErrorUpstreamTokenError = "FLEX_UPSTREAM_TOKEN_ERROR"
	ErrorUpstreamAPIError   = "FLEX_UPSTREAM_API_ERROR"
	ErrorConnectionFailed   = "FLEX_CONNECTION_FAILED"
	ErrorInternal           = "FLEX_INTERNAL_ERROR"
)

func flexErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureErrorEnvelope(richErr)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "token endpoint"):
		return newFlexError(err.Error(), goerrors.CategoryOperation, ErrorUpstreamTokenError)
	case strings.Contains(msg, "account endpoint"), strings.Contains(msg, "integration endpoint"):
		return newFlexError(err.Error(), goerrors.CategoryOperation, ErrorUpstreamAPIError)
	case strings.Contains(msg, "not found"):
		return newFlexError(err.Error(), goerrors.CategoryNotFound, ErrorTokenNotFound)
	case strings.Contains(msg, "signature"):
		return newFlexError(err.Error(), goerrors.CategoryAuth, ErrorRequestRejected)
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"), strings.Contains(msg, "missing"):
		return newFlexError(err.Error(), goerrors.CategoryBadInput, ErrorBadInput)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureErrorEnvelope(mapped)
}

func newFlexError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func ensureErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = flexHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultFlexTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultFlexTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return ErrorBadInput
	case goerrors.CategoryNotFound:
		return ErrorTokenNotFound
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return ErrorRequestRejected
	case goerrors.CategoryOperation:
		return ErrorConnectionFailed
	default:
		return ErrorInternal
	}
}

func flexHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryOperation:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// IsNotFound reports whether err maps to the not-found category, used to keep
// "no token on file" distinct from connectivity failures.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.Category == goerrors.CategoryNotFound
	}
	return strings.Contains(strings.ToLower(err.Error()), "not found")
}
