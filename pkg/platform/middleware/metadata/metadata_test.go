package metadata

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agrifin/pkg/requestcontext"
)

func TestClientIPFromRequest(t *testing.T) {
	trusted, err := ParseTrustedProxies([]string{"10.0.0.0/8", "2001:db8:ffff::1"})
	require.NoError(t, err)

	tests := []struct {
		name       string
		trusted    TrustedProxies
		headers    map[string]string
		remoteAddr string
		want       string
	}{
		{name: "forwarded for ignored without trusted proxies", headers: map[string]string{"X-Forwarded-For": "203.0.113.9"}, remoteAddr: "198.51.100.7:5000", want: "198.51.100.7"},
		{name: "forwarded for ignored from untrusted peer", trusted: trusted, headers: map[string]string{"X-Forwarded-For": "203.0.113.9"}, remoteAddr: "198.51.100.7:5000", want: "198.51.100.7"},
		{name: "real ip ignored from untrusted peer", trusted: trusted, headers: map[string]string{"X-Real-IP": "203.0.113.9"}, remoteAddr: "198.51.100.7:5000", want: "198.51.100.7"},
		{name: "trusted peer forwards client", trusted: trusted, headers: map[string]string{"X-Forwarded-For": "203.0.113.9"}, remoteAddr: "10.0.0.2:5000", want: "203.0.113.9"},
		{name: "spoofed leftmost hop is skipped", trusted: trusted, headers: map[string]string{"X-Forwarded-For": "1.2.3.4, 203.0.113.9, 10.0.0.1"}, remoteAddr: "10.0.0.2:5000", want: "203.0.113.9"},
		{name: "garbage hop stops the walk", trusted: trusted, headers: map[string]string{"X-Forwarded-For": "not-an-ip, 10.0.0.1"}, remoteAddr: "10.0.0.2:5000", want: "10.0.0.2"},
		{name: "real ip from trusted peer", trusted: trusted, headers: map[string]string{"X-Real-IP": " 198.51.100.4 "}, remoteAddr: "10.0.0.2:5000", want: "198.51.100.4"},
		{name: "single trusted ipv6 address", trusted: trusted, headers: map[string]string{"X-Forwarded-For": "2001:db8::7"}, remoteAddr: "[2001:db8:ffff::1]:443", want: "2001:db8::7"},
		{name: "ipv4 remote addr", remoteAddr: "192.0.2.10:43122", want: "192.0.2.10"},
		{name: "ipv6 remote addr", remoteAddr: "[2001:db8::1]:8080", want: "2001:db8::1"},
		{name: "remote addr without port", remoteAddr: "192.0.2.11", want: "192.0.2.11"},
		{name: "nothing available", remoteAddr: "", want: "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientIPFromRequest(r, tt.trusted))
		})
	}
}

func TestParseTrustedProxies(t *testing.T) {
	trusted, err := ParseTrustedProxies([]string{" 127.0.0.1 ", "", "172.16.0.0/12"})
	require.NoError(t, err)
	assert.Len(t, trusted, 2)
	assert.True(t, trusted.Contains("127.0.0.1"))
	assert.True(t, trusted.Contains("172.20.1.1"))
	assert.False(t, trusted.Contains("127.0.0.2"))
	assert.False(t, trusted.Contains("unknown"))

	_, err = ParseTrustedProxies([]string{"10.0.0.0/33"})
	assert.ErrorContains(t, err, "10.0.0.0/33")
	_, err = ParseTrustedProxies([]string{"proxy.internal"})
	assert.ErrorContains(t, err, "proxy.internal")
}

func TestClientMetadataStoresIP(t *testing.T) {
	var got string
	h := ClientMetadata(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = requestcontext.ClientIP(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.20:1234"
	r.Header.Set("X-Forwarded-For", "203.0.113.1")
	h.ServeHTTP(httptest.NewRecorder(), r)

	assert.Equal(t, "192.0.2.20", got)
}
