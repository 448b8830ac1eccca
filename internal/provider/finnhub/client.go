package finnhub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"net/url"
)

const baseURL = "https://finnhub.io/api/v1"

var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrNotFound         = errors.New("not found")
	ErrRateLimited      = errors.New("rate limited")
	ErrUnexpectedStatus = errors.New("unexpected status code")
	ErrDecoding         = errors.New("decoding response")
)

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=finnhub_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// FinnhubAPIClient is a client for the Finnhub REST API.
type FinnhubAPIClient struct {
	// baseURL is the base URL for the API.
	baseURL string
	// httpClient is the HTTP httpClient.
	httpClient HTTPClient
	// header contains additional headers to be sent with each request.
	header http.Header
	// query contains additional query parameters to be sent with each request.
	query url.Values
}

// FinnhubAPIClientOption is a configuration option for the Finnhub API client.
type FinnhubAPIClientOption func(*FinnhubAPIClient)

// WithBaseURL sets the base URL for the API.
func WithBaseURL(baseURL string) FinnhubAPIClientOption {
	return func(c *FinnhubAPIClient) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets the HTTP client for the API.
func WithHTTPClient(httpClient HTTPClient) FinnhubAPIClientOption {
	return func(c *FinnhubAPIClient) {
		c.httpClient = httpClient
	}
}

// WithHeader sets additional headers to be sent with each request.
func WithHeader(header http.Header) FinnhubAPIClientOption {
	return func(c *FinnhubAPIClient) {
		for key, values := range header {
			for _, value := range values {
				c.header.Add(key, value)
			}
		}
	}
}

// NewFinnhubAPIClient creates a new Finnhub API client.
func NewFinnhubAPIClient(key string, options ...FinnhubAPIClientOption) (*FinnhubAPIClient, error) {
	var client = &FinnhubAPIClient{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
		header:     http.Header{},
		query:      url.Values{},
	}
	if key != "" {
		// https://finnhub.io/docs/api/authentication
		client.query.Add("token", key)
	}
	for _, option := range options {
		option(client)
	}
	if client.baseURL == "" {
		return nil, fmt.Errorf("finnhub: empty base URL")
	}
	return client, nil
}

// get performs a GET on path with params merged over the client query and
// decodes a JSON body into out.
func (c *FinnhubAPIClient) get(ctx context.Context, path string, params url.Values, out any, opts ...FinnhubAPIClientOption) error {
	var override = &FinnhubAPIClient{
		baseURL:    c.baseURL,
		httpClient: c.httpClient,
		header:     c.header.Clone(),
		query:      c.query,
	}
	for _, opt := range opts {
		opt(override)
	}

	query := maps.Clone(override.query)
	if query == nil {
		query = url.Values{}
	}
	for k, vs := range params {
		for _, v := range vs {
			query.Add(k, v)
		}
	}

	u := fmt.Sprintf("%s%s?%s", override.baseURL, path, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header = override.header
	req.Header.Set("Accept", "application/json")

	res, err := override.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		break

	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrUnauthorized, path)

	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, path)

	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ErrRateLimited, path)

	default:
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, res.StatusCode)
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("%w %s: %w", ErrDecoding, path, err)
	}
	return nil
}
