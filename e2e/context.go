package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// TestContext holds the HTTP client and the last exchange of a scenario.
type TestContext struct {
	BaseURL    string
	AdminToken string
	client     *http.Client

	clientIP     string
	requestID    string
	lastStatus   int
	lastBody     []byte
	lastHeaders  http.Header
	lastDecoded  map[string]any
	decodedValid bool
}

func NewTestContext(baseURL, adminToken string) *TestContext {
	return &TestContext{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		AdminToken: adminToken,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Reset clears per-scenario state.
func (tc *TestContext) Reset() {
	tc.clientIP = ""
	tc.requestID = ""
	tc.lastStatus = 0
	tc.lastBody = nil
	tc.lastHeaders = nil
	tc.lastDecoded = nil
	tc.decodedValid = false
}

// SetClientIP makes subsequent requests appear to come from ip.
func (tc *TestContext) SetClientIP(ip string) { tc.clientIP = ip }

// SetRequestID pins the X-Request-ID of subsequent requests.
func (tc *TestContext) SetRequestID(id string) { tc.requestID = id }

// POSTRaw sends body verbatim as JSON.
func (tc *TestContext) POSTRaw(path, body string) error {
	return tc.do(http.MethodPost, path, strings.NewReader(body), nil)
}

// POST sends body encoded as JSON.
func (tc *TestContext) POST(path string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	return tc.do(http.MethodPost, path, bytes.NewReader(payload), nil)
}

func (tc *TestContext) GET(path string, headers map[string]string) error {
	return tc.do(http.MethodGet, path, nil, headers)
}

// AdminGET sends an operator request carrying the admin token.
func (tc *TestContext) AdminGET(path string) error {
	return tc.do(http.MethodGet, path, nil, map[string]string{"X-Admin-Token": tc.AdminToken})
}

func (tc *TestContext) do(method, path string, body io.Reader, headers map[string]string) error {
	req, err := http.NewRequest(method, tc.BaseURL+path, body)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tc.clientIP != "" {
		req.Header.Set("X-Forwarded-For", tc.clientIP)
	}
	if tc.requestID != "" {
		req.Header.Set("X-Request-ID", tc.requestID)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := tc.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	tc.lastBody, err = io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	tc.lastStatus = resp.StatusCode
	tc.lastHeaders = resp.Header
	tc.lastDecoded = nil
	tc.decodedValid = json.Unmarshal(tc.lastBody, &tc.lastDecoded) == nil
	return nil
}

func (tc *TestContext) GetLastResponseStatus() int    { return tc.lastStatus }
func (tc *TestContext) GetLastResponseBody() []byte   { return tc.lastBody }
func (tc *TestContext) GetLastHeader(k string) string { return tc.lastHeaders.Get(k) }

// GetResponseField resolves a dotted path such as "data.eligibility.approved"
// in the last JSON object response.
func (tc *TestContext) GetResponseField(field string) (any, error) {
	if !tc.decodedValid {
		return nil, fmt.Errorf("last response is not a JSON object: %s", tc.lastBody)
	}
	var cur any = tc.lastDecoded
	for _, part := range strings.Split(field, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("field %q: %q is not an object", field, part)
		}
		cur, ok = obj[part]
		if !ok {
			return nil, fmt.Errorf("field %q not found in %s", field, tc.lastBody)
		}
	}
	return cur, nil
}
