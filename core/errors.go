package core

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ErrorInvalidSignature     = "LINEBOT_INVALID_SIGNATURE"
	ErrorUnrecognizedKind     = "LINEBOT_UNRECOGNIZED_KIND"
	ErrorMalformedPayload     = "LINEBOT_MALFORMED_PAYLOAD"
	ErrorUnknownImageSet      = "LINEBOT_UNKNOWN_IMAGE_SET"
	ErrorRateLimiterInvariant = "LINEBOT_RATE_LIMITER_INVARIANT"
	ErrorHandlerFailed        = "LINEBOT_HANDLER_FAILED"
	ErrorTransportFailed      = "LINEBOT_TRANSPORT_FAILED"
	ErrorBadInput             = "LINEBOT_BAD_INPUT"
	ErrorInternal             = "LINEBOT_INTERNAL_ERROR"
)

// NewError builds a go-errors envelope with the status code and text code
// that belong to category.
func NewError(message string, category goerrors.Category, textCode string, metadata map[string]any) error {
	err := goerrors.New(message, category).
		WithCode(HTTPStatus(category)).
		WithTextCode(resolveTextCode(category, textCode))
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func WrapError(
	source error,
	category goerrors.Category,
	message string,
	textCode string,
	metadata map[string]any,
) error {
	if source == nil {
		return NewError(message, category, textCode, metadata)
	}
	err := goerrors.Wrap(source, category, message).
		WithCode(HTTPStatus(category)).
		WithTextCode(resolveTextCode(category, textCode))
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func BadInput(message string, metadata map[string]any) error {
	return NewError(message, goerrors.CategoryBadInput, ErrorBadInput, metadata)
}

func Internal(message string, metadata map[string]any) error {
	return NewError(message, goerrors.CategoryInternal, ErrorInternal, metadata)
}

// HasTextCode reports whether err carries a go-errors envelope with textCode.
func HasTextCode(err error, textCode string) bool {
	if err == nil {
		return false
	}
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(rich.TextCode), strings.TrimSpace(textCode))
}

// MapError normalizes any error into the envelope returned to inbound callers.
func MapError(err error) *goerrors.Error {
	if err == nil {
		return nil
	}
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return ensureErrorEnvelope(rich)
	}
	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureErrorEnvelope(mapped)
}

func ensureErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = HTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func resolveTextCode(category goerrors.Category, textCode string) string {
	if code := strings.TrimSpace(textCode); code != "" {
		return code
	}
	return defaultTextCode(category)
}

func defaultTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput:
		return ErrorBadInput
	case goerrors.CategoryValidation:
		return ErrorMalformedPayload
	case goerrors.CategoryAuth:
		return ErrorInvalidSignature
	case goerrors.CategoryOperation:
		return ErrorHandlerFailed
	case goerrors.CategoryExternal:
		return ErrorTransportFailed
	default:
		return ErrorInternal
	}
}

func HTTPStatus(category goerrors.Category) int {
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
	case goerrors.CategoryRateLimit:
		return http.StatusTooManyRequests
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
