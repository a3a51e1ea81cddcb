package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("%s %s: http %d", e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: http %d: %s", e.Method, e.URL, e.StatusCode, truncate(e.Body, 220))
}

func IsStatus(err error, statusCode int) bool {
	code, ok := codeOf(err)
	return ok && code == statusCode
}

// Is5xx reports a server-side failure worth retrying later.
func Is5xx(err error) bool {
	code, ok := codeOf(err)
	return ok && code >= http.StatusInternalServerError && code < 600
}

func codeOf(err error) (int, bool) {
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		return 0, false
	}
	return statusErr.StatusCode, true
}

// Client carries the base URL and headers shared by every request to one API.
type Client struct {
	BaseURL string
	Headers map[string]string
	Timeout time.Duration

	HTTP *http.Client
}

func (c Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return &http.Client{Timeout: c.Timeout}
}

func (c Client) resolve(path string, query url.Values) string {
	target := strings.TrimRight(c.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	return target
}

// DoJSON sends body (when non-nil) as JSON and decodes the response into T.
// An empty response body yields the zero T.
func DoJSON[T any](
	ctx context.Context,
	c Client,
	method string,
	path string,
	query url.Values,
	headers map[string]string,
	body any,
) (T, error) {
	var zero T

	req, err := c.newRequest(ctx, method, path, query, headers, body)
	if err != nil {
		return zero, err
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return zero, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	payload, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return zero, fmt.Errorf("read response: %w", readErr)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return zero, &StatusError{
			Method:     method,
			URL:        req.URL.Path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(payload)),
		}
	}

	if len(bytes.TrimSpace(payload)) == 0 {
		return zero, nil
	}

	var decoded T
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return zero, fmt.Errorf("decode json response: %w", err)
	}
	return decoded, nil
}

func (c Client) newRequest(
	ctx context.Context,
	method string,
	path string,
	query url.Values,
	headers map[string]string,
	body any,
) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		payload, err := EncodeJSON(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.resolve(path, query), reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, set := range []map[string]string{c.Headers, headers} {
		for key, value := range set {
			req.Header.Set(key, value)
		}
	}
	return req, nil
}

func EncodeJSON(v any) ([]byte, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode json body: %w", err)
	}
	return payload, nil
}

func truncate(value string, max int) string {
	if max <= 0 || len(value) <= max {
		return value
	}
	return value[:max] + "..."
}
