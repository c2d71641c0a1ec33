package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

const (
	HttpInternalError        = "internal_error"
	HttpInvalidJsonError     = "invalid_json"
	HttpInvalidDate          = "invalid_date"
	HttpNotFound             = "not_found"
	HttpDanglingReference    = "dangling_reference"
	HttpInvalidGroupingSpec  = "invalid_grouping_spec"
	HttpUnsupportedAggregate = "unsupported_aggregate"
	HttpInvalidRecord        = "invalid_record"
	HttpCodecFailure         = "codec_failure"
)

// ErrorResponse is the error response body for every API error.
type ErrorResponse struct {
	ErrorType string      `json:"error_type"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
}

// Kind categorizes warehouse failures.
type Kind string

const (
	KindInvalidDate          Kind = "INVALID_DATE"
	KindNotFound             Kind = "NOT_FOUND"
	KindDanglingReference    Kind = "DANGLING_REFERENCE"
	KindInvalidGroupingSpec  Kind = "INVALID_GROUPING_SPEC"
	KindUnsupportedAggregate Kind = "UNSUPPORTED_AGGREGATE"
	KindInvalidRecord        Kind = "INVALID_RECORD"
	KindCodecFailure         Kind = "CODEC_FAILURE"
)

// Sentinels for errors.Is matching. An *Error matches the sentinel of its Kind.
var (
	ErrInvalidDate          = stderrors.New("invalid date")
	ErrNotFound             = stderrors.New("not found")
	ErrDanglingReference    = stderrors.New("dangling reference")
	ErrInvalidGroupingSpec  = stderrors.New("invalid grouping spec")
	ErrUnsupportedAggregate = stderrors.New("unsupported aggregate")
	ErrInvalidRecord        = stderrors.New("invalid record")
	ErrCodecFailure         = stderrors.New("codec failure")
)

var sentinels = map[Kind]error{
	KindInvalidDate:          ErrInvalidDate,
	KindNotFound:             ErrNotFound,
	KindDanglingReference:    ErrDanglingReference,
	KindInvalidGroupingSpec:  ErrInvalidGroupingSpec,
	KindUnsupportedAggregate: ErrUnsupportedAggregate,
	KindInvalidRecord:        ErrInvalidRecord,
	KindCodecFailure:         ErrCodecFailure,
}

// Error is a typed warehouse failure. Identifier names the offending
// natural key, surrogate key, attribute or function.
type Error struct {
	Kind       Kind
	Identifier string
	Message    string
	Err        error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = sentinels[e.Kind].Error()
	}
	if e.Identifier != "" {
		msg = fmt.Sprintf("%s: %s (%s)", e.Kind, msg, e.Identifier)
	} else {
		msg = fmt.Sprintf("%s: %s", e.Kind, msg)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is reports whether target is the sentinel for e.Kind.
func (e *Error) Is(target error) bool {
	return sentinels[e.Kind] == target
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds an *Error with a formatted message.
func New(kind Kind, identifier string, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Identifier: identifier, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error around a cause.
func Wrap(kind Kind, identifier string, err error) *Error {
	return &Error{Kind: kind, Identifier: identifier, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IdentifierOf returns the offending identifier carried by err, if any.
func IdentifierOf(err error) string {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Identifier
	}
	return ""
}

// HTTPStatus maps err to a response status code and error_type string.
// Errors outside the taxonomy map to 500.
func HTTPStatus(err error) (int, string) {
	switch KindOf(err) {
	case KindInvalidDate:
		return http.StatusConflict, HttpInvalidDate
	case KindNotFound:
		return http.StatusNotFound, HttpNotFound
	case KindDanglingReference:
		return http.StatusUnprocessableEntity, HttpDanglingReference
	case KindInvalidGroupingSpec:
		return http.StatusBadRequest, HttpInvalidGroupingSpec
	case KindUnsupportedAggregate:
		return http.StatusBadRequest, HttpUnsupportedAggregate
	case KindInvalidRecord:
		return http.StatusBadRequest, HttpInvalidRecord
	case KindCodecFailure:
		return http.StatusInternalServerError, HttpCodecFailure
	default:
		return http.StatusInternalServerError, HttpInternalError
	}
}
