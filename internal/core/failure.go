package core

import (
	"errors"
	"fmt"
	"strings"
)

// Fallback messages used when the underlying fault carries no text.
const (
	FallbackTransportMessage = "Network request failed"
	FallbackResponseMessage  = "Unknown error occurred"
)

var (
	// ErrEmptyBody is wrapped by failures for successful responses without a body.
	ErrEmptyBody = errors.New("response body is empty")
	// ErrUnknown is wrapped by failures built without a cause.
	ErrUnknown = errors.New("unknown failure")
)

// Kind classifies why a remote call failed.
type Kind int

const (
	KindUnknown Kind = iota
	// KindTransport covers connectivity errors, timeouts and cancellation.
	KindTransport
	// KindHTTPStatus is a non-2xx response.
	KindHTTPStatus
	// KindEmptyBody is a 2xx response with an absent or null body.
	KindEmptyBody
	// KindDecode is a response body that could not be parsed.
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindHTTPStatus:
		return "http_status"
	case KindEmptyBody:
		return "empty_body"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Failure describes a failed remote call. Message is always non-empty and
// is what frontends display; Kind and StatusCode let callers branch without
// string matching.
type Failure struct {
	Kind       Kind
	StatusCode int
	Message    string
	Err        error
}

func (f *Failure) Error() string {
	return f.Message
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// String includes the kind and status for logs.
func (f *Failure) String() string {
	if f.StatusCode != 0 {
		return fmt.Sprintf("%s (%d): %s", f.Kind, f.StatusCode, f.Message)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// TransportFailure converts an error raised while performing a call.
func TransportFailure(err error) *Failure {
	return &Failure{
		Kind:    KindTransport,
		Message: messageOr(err, FallbackTransportMessage),
		Err:     err,
	}
}

// DecodeFailure converts an error raised while parsing a response body.
func DecodeFailure(statusCode int, err error) *Failure {
	return &Failure{
		Kind:       KindDecode,
		StatusCode: statusCode,
		Message:    messageOr(err, FallbackTransportMessage),
		Err:        err,
	}
}

// ResponseFailure converts an unsuccessful response. errorBody is the raw
// error body text sent by the server; surrounding whitespace is dropped and a
// blank body falls back to FallbackResponseMessage.
func ResponseFailure(statusCode int, errorBody string) *Failure {
	msg := strings.TrimSpace(errorBody)
	if msg == "" {
		msg = FallbackResponseMessage
	}
	f := &Failure{
		Kind:       KindHTTPStatus,
		StatusCode: statusCode,
		Message:    msg,
	}
	if statusCode >= 200 && statusCode < 300 {
		f.Kind = KindEmptyBody
		f.Err = ErrEmptyBody
	}
	return f
}

func messageOr(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return fallback
}
