package core

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResult_Ok(t *testing.T) {
	t.Parallel()

	r := Ok(42)
	require.True(t, r.IsOk())
	v, ok := r.Value()
	assert.True(t, ok)
	assert.Equal(t, 42, v)
	assert.Nil(t, r.Failure())
	assert.Empty(t, r.Message())

	got, err := r.Unwrap()
	require.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestResult_Fail(t *testing.T) {
	t.Parallel()

	r := Fail[string](ResponseFailure(http.StatusNotFound, "Not Found"))
	require.False(t, r.IsOk())
	v, ok := r.Value()
	assert.False(t, ok)
	assert.Empty(t, v)
	assert.Equal(t, "Not Found", r.Message())
	assert.Equal(t, KindHTTPStatus, r.Failure().Kind)
	assert.Equal(t, http.StatusNotFound, r.Failure().StatusCode)

	_, err := r.Unwrap()
	var f *Failure
	require.ErrorAs(t, err, &f)
	assert.Equal(t, "Not Found", f.Message)
}

func TestResult_FailNil(t *testing.T) {
	t.Parallel()

	r := Fail[int](nil)
	assert.False(t, r.IsOk())
	assert.Equal(t, FallbackResponseMessage, r.Message())
	assert.Equal(t, KindUnknown, r.Failure().Kind)

	_, err := r.Unwrap()
	assert.ErrorIs(t, err, ErrUnknown)
}

func TestTransportFailure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{"with message", errors.New("dial tcp: connection refused"), "dial tcp: connection refused"},
		{"blank message", errors.New("  "), FallbackTransportMessage},
		{"nil error", nil, FallbackTransportMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := TransportFailure(tt.err)
			assert.Equal(t, KindTransport, f.Kind)
			assert.Equal(t, tt.wantMsg, f.Message)
			assert.Zero(t, f.StatusCode)
		})
	}
}

func TestTransportFailure_UnwrapsCause(t *testing.T) {
	t.Parallel()

	f := TransportFailure(fmt.Errorf("get credits: %w", context.DeadlineExceeded))
	assert.ErrorIs(t, f, context.DeadlineExceeded)
}

func TestResponseFailure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		status   int
		body     string
		wantKind Kind
		wantMsg  string
	}{
		{"not found", http.StatusNotFound, "Not Found", KindHTTPStatus, "Not Found"},
		{"empty error body", http.StatusInternalServerError, "", KindHTTPStatus, FallbackResponseMessage},
		{"whitespace error body", http.StatusBadGateway, " \n\t", KindHTTPStatus, FallbackResponseMessage},
		{"padded error body", http.StatusUnauthorized, " Invalid API key\n", KindHTTPStatus, "Invalid API key"},
		{"ok without body", http.StatusOK, "", KindEmptyBody, FallbackResponseMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := ResponseFailure(tt.status, tt.body)
			assert.Equal(t, tt.wantKind, f.Kind)
			assert.Equal(t, tt.wantMsg, f.Message)
			assert.Equal(t, tt.status, f.StatusCode)
		})
	}

	assert.ErrorIs(t, ResponseFailure(http.StatusOK, ""), ErrEmptyBody)
}

func TestFailure_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "http_status (404): Not Found", ResponseFailure(404, "Not Found").String())
	assert.Equal(t, "transport: boom", TransportFailure(errors.New("boom")).String())
}
