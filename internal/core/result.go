package core

// Result is the outcome of a single remote call: either a success payload
// or a failure. Exactly one of the two is populated; build values with Ok
// and Fail only.
type Result[T any] struct {
	value   T
	failure *Failure
}

// Ok wraps a successful payload.
func Ok[T any](v T) Result[T] {
	return Result[T]{value: v}
}

// Fail wraps a failure. A nil failure is replaced with an unknown-kind one
// so the error variant always carries a message.
func Fail[T any](f *Failure) Result[T] {
	if f == nil {
		f = &Failure{Kind: KindUnknown, Message: FallbackResponseMessage, Err: ErrUnknown}
	}
	return Result[T]{failure: f}
}

// IsOk reports whether r holds a success payload.
func (r Result[T]) IsOk() bool {
	return r.failure == nil
}

// Value returns the payload and true on success, or the zero T and false.
func (r Result[T]) Value() (T, bool) {
	if r.failure != nil {
		var zero T
		return zero, false
	}
	return r.value, true
}

// Failure returns the failure, or nil on success.
func (r Result[T]) Failure() *Failure {
	return r.failure
}

// Message returns the human-readable failure message, or "" on success.
func (r Result[T]) Message() string {
	if r.failure == nil {
		return ""
	}
	return r.failure.Message
}

// Unwrap converts r into the usual (value, error) pair.
func (r Result[T]) Unwrap() (T, error) {
	if r.failure != nil {
		var zero T
		return zero, r.failure
	}
	return r.value, nil
}
