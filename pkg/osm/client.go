// Package osm is a client for the GPS trace endpoints of the OpenStreetMap
// API.
package osm

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/sidkik/gpxsync/pkg/errors"
	"github.com/sidkik/gpxsync/pkg/version"
)

const (
	// DefaultWebURL is the OpenStreetMap website, which hosts the OAuth
	// endpoints.
	DefaultWebURL = "https://www.openstreetmap.org"

	// DefaultAPIURL is the OpenStreetMap API server.
	DefaultAPIURL = "https://api.openstreetmap.org"

	apiPrefix = "/api/0.6"

	// maxErrorBody caps how much of an error response is kept for messages.
	maxErrorBody = 4096
)

// Client makes authenticated requests to the trace API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a client for the API at `baseURL` that authenticates with
// the bearer `token`. If `httpClient` is nil, http.DefaultClient is used.
func NewClient(baseURL, token string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: httpClient,
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequest(method, c.baseURL+path, body)
	if err != nil {
		return nil, errors.WithContext(err, "new request")
	}
	req = req.WithContext(ctx)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("User-Agent", version.UserAgent())
	return req, nil
}

// do sends the request and returns the response if it has one of the
// `okStatuses`. Otherwise, the response is closed and an HTTPStatusError is
// returned.
func (c *Client) do(req *http.Request, okStatuses ...int) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.WithContext(err, "send request")
	}

	for _, status := range okStatuses {
		if resp.StatusCode == status {
			return resp, nil
		}
	}

	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return nil, errors.HTTPStatusError{
		Status: resp.Status,
		Body:   strings.TrimSpace(string(body)),
	}
}
