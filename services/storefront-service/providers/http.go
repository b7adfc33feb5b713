package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultTimeout bounds every outbound provider call.
const DefaultTimeout = 10 * time.Second

// httpClient is the JSON transport shared by all providers.
type httpClient struct {
	provider  string
	baseURL   string
	client    *http.Client
	authorize func(*http.Request)
}

func newHTTPClient(provider, baseURL string, authorize func(*http.Request)) httpClient {
	return httpClient{
		provider:  provider,
		baseURL:   baseURL,
		client:    &http.Client{Timeout: DefaultTimeout},
		authorize: authorize,
	}
}

func (c httpClient) doRequest(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.authorize != nil {
		c.authorize(req)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &TransportError{Provider: c.provider, Err: err}
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Provider: c.provider, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &TransportError{Provider: c.provider, StatusCode: resp.StatusCode, Body: truncate(string(respBytes), 512)}
	}

	if out != nil {
		if err := json.Unmarshal(respBytes, out); err != nil {
			return &TransportError{Provider: c.provider, Err: fmt.Errorf("decode response: %w", err)}
		}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
