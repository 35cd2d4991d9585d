// Package testutil provides common test utilities for handler and integration tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Envelope mirrors the {success, data | error} body every scoring endpoint
// returns. Data is kept raw so tests can decode it into the type they expect.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// NewJSONRequest creates an HTTP request whose body is the JSON encoding of body.
func NewJSONRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err, "failed to marshal request body")
	return NewRequestWithBody(t, method, path, string(payload))
}

// NewRequestWithBody creates an HTTP request with a raw string body, for
// payloads a Go value cannot express such as mixed-type fields.
func NewRequestWithBody(t *testing.T, method, path string, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// DoRequest executes a request against a handler and returns the recorder.
func DoRequest(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

// DecodeEnvelope asserts the status code and decodes the response envelope.
func DecodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder, status int) Envelope {
	t.Helper()
	require.Equal(t, status, rr.Code, "unexpected status code, body: %s", rr.Body.String())
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var env Envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), "failed to unmarshal envelope")
	return env
}

// DecodeData asserts a successful envelope and decodes its data into T.
func DecodeData[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	env := DecodeEnvelope(t, rr, http.StatusOK)
	require.True(t, env.Success, "expected success envelope")

	var data T
	require.NoError(t, json.Unmarshal(env.Data, &data), "failed to unmarshal envelope data")
	return data
}

// AssertEnvelopeError asserts a failed envelope with the given status and message.
func AssertEnvelopeError(t *testing.T, rr *httptest.ResponseRecorder, status int, message string) {
	t.Helper()
	env := DecodeEnvelope(t, rr, status)
	assert.False(t, env.Success)
	assert.Equal(t, message, env.Error)
	assert.Empty(t, env.Data)
}
