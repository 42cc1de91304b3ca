package backends

import (
	"annolist/internal/models"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// maxBodySize bounds what a backend may send back.
const maxBodySize = 16 << 20

// get performs a GET against base+path and returns the body of a 2xx answer.
// Every other outcome is a *models.TransportError tagged with backend.
func get(ctx context.Context, client *http.Client, backend, base, path string, params url.Values, auth func(*http.Request)) ([]byte, error) {
	endpoint := strings.TrimRight(base, "/") + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &models.TransportError{Backend: backend, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if auth != nil {
		auth(req)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &models.TransportError{Backend: backend, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &models.TransportError{Backend: backend, StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &models.TransportError{
			Backend:    backend,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s", snippet(body)),
		}
	}
	return body, nil
}

func snippet(body []byte) string {
	const max = 256
	s := strings.TrimSpace(string(body))
	if len(s) > max {
		s = s[:max] + "..."
	}
	if s == "" {
		s = "empty body"
	}
	return s
}
