// Package svcerr defines the error taxonomy of spec.md §7 and how each
// kind maps to an HTTP status code.
package svcerr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for status-code mapping and for deciding
// whether a negative cache entry (CacheError) should be recorded.
type Kind int

const (
	KindConfig Kind = iota
	KindInvalidURL
	KindFailure // wraps an upstream HTTP status
	KindInvalidMimeType
	KindTransportTimeout
	KindTransportConnect
	KindTransportOther
	KindJSON
	KindXML
	KindBackend
)

// Error is the concrete type every extraction/backend failure is
// wrapped in before it crosses a component boundary.
type Error struct {
	Kind       Kind
	Status     int // only meaningful for KindFailure, pass-through upstream status
	Message    string
	Underlying error
}

func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Underlying)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Underlying }

// HTTPStatus maps a Kind to the status code spec.md §7 assigns it.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindConfig:
		return http.StatusInternalServerError
	case KindInvalidURL:
		return http.StatusBadRequest
	case KindFailure:
		if e.Status != 0 {
			return e.Status
		}
		return http.StatusInternalServerError
	case KindInvalidMimeType:
		return http.StatusUnsupportedMediaType
	case KindTransportTimeout, KindTransportConnect:
		return http.StatusRequestTimeout
	case KindTransportOther:
		return http.StatusInternalServerError
	case KindJSON, KindXML:
		return http.StatusInternalServerError
	case KindBackend:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func newErr(k Kind, msg string, underlying error) *Error {
	return &Error{Kind: k, Message: msg, Underlying: underlying}
}

func Config(field, reason string) *Error {
	return newErr(KindConfig, fmt.Sprintf("config: %s: %s", field, reason), nil)
}

func ConfigMissing(field string) *Error { return Config(field, "missing required field") }
func ConfigInvalid(field string, err error) *Error {
	return newErr(KindConfig, fmt.Sprintf("config: %s: invalid value", field), err)
}

func InvalidURL(raw string, err error) *Error {
	return newErr(KindInvalidURL, fmt.Sprintf("invalid url %q", raw), err)
}

func Failure(status int) *Error {
	return &Error{Kind: KindFailure, Status: status, Message: fmt.Sprintf("upstream returned status %d", status)}
}

func InvalidMimeType(mime string) *Error {
	return newErr(KindInvalidMimeType, fmt.Sprintf("invalid mime type %q", mime), nil)
}

func TransportTimeout(err error) *Error {
	return newErr(KindTransportTimeout, "request timed out", err)
}

func TransportConnect(err error) *Error {
	return newErr(KindTransportConnect, "connection failed", err)
}

func TransportOther(err error) *Error {
	return newErr(KindTransportOther, "transport error", err)
}

func JSON(err error) *Error { return newErr(KindJSON, "invalid json", err) }
func XML(err error) *Error  { return newErr(KindXML, "invalid xml", err) }

func Backend(name string, err error) *Error {
	return newErr(KindBackend, fmt.Sprintf("%s backend error", name), err)
}

// As is a thin wrapper over errors.As for *Error, used by callers that
// need the Kind/Status without importing errors directly.
func As(err error) (*Error, bool) {
	var se *Error
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// IsRetryableConnect reports whether err is a connect-timeout-class
// transport error, the only class the generic extractor retries on
// (spec.md §4.6 step 3).
func IsRetryableConnect(err error) bool {
	se, ok := As(err)
	if !ok {
		return false
	}
	return se.Kind == KindTransportConnect || se.Kind == KindTransportTimeout
}
