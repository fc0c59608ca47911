package testhelpers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/stretchr/testify/require"
)

// BuildAuthRequest sets standard headers for test requests. An empty
// jwtString leaves the Authorization header off.
func (h *TestHelper) BuildAuthRequest(method, reqURL, jwtString string, body []byte) *http.Request {
	req, err := http.NewRequest(method, reqURL, bytes.NewReader(body))
	require.NoError(h.T, err)

	if jwtString != "" {
		req.Header.Set("Authorization", "Bearer "+jwtString)
	}
	if len(body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

// NewHTTPClient creates an HTTP client suited to calling the service.
func (h *TestHelper) NewHTTPClient() *http.Client {
	return &http.Client{Timeout: 15 * time.Second}
}

// DoRequest performs an HTTP request and asserts that no network-level error occurred.
func (h *TestHelper) DoRequest(req *http.Request, client *http.Client) *http.Response {
	resp, err := client.Do(req)
	require.NoError(h.T, err, "HTTP request failed")
	return resp
}

// PostJSON marshals payload and POSTs it to BaseURL+path.
func (h *TestHelper) PostJSON(path, jwtString string, payload any) *http.Response {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		require.NoError(h.T, err)
	}
	req := h.BuildAuthRequest(http.MethodPost, h.BaseURL+path, jwtString, body)
	return h.DoRequest(req, h.NewHTTPClient())
}

// Get issues a GET against BaseURL+path.
func (h *TestHelper) Get(path, jwtString string) *http.Response {
	req := h.BuildAuthRequest(http.MethodGet, h.BaseURL+path, jwtString, nil)
	return h.DoRequest(req, h.NewHTTPClient())
}

// DecodeJSON reads resp into out and closes the body.
func (h *TestHelper) DecodeJSON(resp *http.Response, out any) {
	defer resp.Body.Close()
	require.NoError(h.T, json.NewDecoder(resp.Body).Decode(out))
}

// ReadBody reads the response body and returns it as a string for logging or inspection.
func (h *TestHelper) ReadBody(resp *http.Response) string {
	if resp == nil || resp.Body == nil {
		return "<nil response or body>"
	}
	bodyBytes, err := io.ReadAll(resp.Body)
	// After reading, we need to restore the body so it can be read again if needed.
	resp.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
	require.NoError(h.T, err, "Failed to read response body")
	return string(bodyBytes)
}
