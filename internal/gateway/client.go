package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"neurofleet-console/internal/session"

	"golang.org/x/net/publicsuffix"
)

// ErrSessionInvalidated marks errors caused by a 401 from the backend. The
// session has already been cleared when a caller sees it.
var ErrSessionInvalidated = errors.New("session invalidated")

// Config is fixed when the client is built, never per call.
type Config struct {
	BaseURL string
	Headers http.Header
	// WithCredentials keeps backend cookies between calls of one client.
	WithCredentials bool
	Timeout         time.Duration
	// Transport is the underlying transport; nil means http.DefaultTransport.
	Transport http.RoundTripper
}

// DefaultConfig returns the settings every console call uses.
func DefaultConfig(baseURL string) Config {
	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	headers.Set("Accept", "application/json")
	return Config{
		BaseURL:         baseURL,
		Headers:         headers,
		WithCredentials: true,
		Timeout:         10 * time.Second,
	}
}

// Response is a backend reply. Data holds the raw body.
type Response struct {
	StatusCode int
	Header     http.Header
	Data       []byte
}

// APIError is returned for every non-2xx status.
type APIError struct {
	Method   string
	URL      string
	Response *Response
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.Response.StatusCode, e.Message())
}

// Message extracts the backend's message, falling back to the raw body.
func (e *APIError) Message() string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(e.Response.Data, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	msg := strings.TrimSpace(string(e.Response.Data))
	if msg == "" {
		msg = http.StatusText(e.Response.StatusCode)
	}
	return msg
}

// StatusCode returns the status of err if it carries a backend response.
func StatusCode(err error) (int, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Response.StatusCode, true
	}
	return 0, false
}

// Client is the single egress point for backend calls. Every call passes
// through the request id, bearer and 401 interceptors.
type Client struct {
	cfg        Config
	baseURL    string
	store      session.Store
	bus        *InvalidationBus
	httpClient *http.Client
}

// New builds a client bound to store. bus may be nil.
func New(cfg Config, store session.Store, bus *InvalidationBus) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("gateway: base URL is required")
	}
	if store == nil {
		return nil, fmt.Errorf("gateway: session store is required")
	}
	if cfg.Transport == nil {
		cfg.Transport = http.DefaultTransport
	}

	c := &Client{
		cfg:     cfg,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		store:   store,
		bus:     bus,
	}
	c.httpClient = c.buildHTTPClient()
	return c, nil
}

func (c *Client) buildHTTPClient() *http.Client {
	httpClient := &http.Client{
		Timeout: c.cfg.Timeout,
		Transport: Chain(c.cfg.Transport,
			RequestID(),
			BearerToken(c.store),
			InvalidateOnUnauthorized(c.store, c.bus),
		),
	}
	if c.cfg.WithCredentials {
		// cookiejar.New has no failure path.
		jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		httpClient.Jar = jar
	}
	return httpClient
}

// WithStore returns a client with the same configuration bound to another
// session store. Cookies are never shared between stores.
func (c *Client) WithStore(store session.Store) *Client {
	clone := &Client{cfg: c.cfg, baseURL: c.baseURL, store: store, bus: c.bus}
	clone.httpClient = clone.buildHTTPClient()
	return clone
}

// Store returns the session store the client reads and clears.
func (c *Client) Store() session.Store { return c.store }

func (c *Client) Get(ctx context.Context, path string, out any) (*Response, error) {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) (*Response, error) {
	return c.Do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out any) (*Response, error) {
	return c.Do(ctx, http.MethodPut, path, body, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, path, nil, out)
}

// Do sends one request. Non-2xx statuses come back as *APIError; a 401 is
// additionally wrapped with ErrSessionInvalidated. Transport errors are
// returned as they are.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) (*Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	url := c.baseURL + "/" + strings.TrimLeft(path, "/")
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for name, values := range c.cfg.Headers {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	res := &Response{StatusCode: resp.StatusCode, Header: resp.Header, Data: data}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Method: method, URL: url, Response: res}
		if resp.StatusCode == http.StatusUnauthorized {
			return res, fmt.Errorf("%w: %w", ErrSessionInvalidated, apiErr)
		}
		return res, apiErr
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return res, fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return res, nil
}
