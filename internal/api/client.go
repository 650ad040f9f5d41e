package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client is the single preconfigured gateway to the Veritas backend API.
// It attaches the base URL, JSON content type and the current bearer
// token to every request. It does not retry, cache or transform
// responses; that is the caller's responsibility.
type Client struct {
	baseURL string
	http    *resty.Client
	mu      sync.RWMutex
	token   string
}

// StatusError is returned for any non-2xx response. Message carries the
// backend's "message" field when the body is parseable, otherwise the
// HTTP status text.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api: HTTP %d: %s", e.Code, e.Message)
}

// NewClient creates a gateway for the given backend base URL.
func NewClient(baseURL string) *Client {
	client := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
	}

	client.http = resty.New().
		SetHeader("Content-Type", "application/json").
		SetTimeout(60 * time.Second)

	return client
}

// SetToken replaces the bearer token attached to subsequent requests.
// An empty token sends requests unauthenticated.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the currently attached bearer token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Get performs a GET request against the backend
func (c *Client) Get(endpoint string, params map[string]string) (*resty.Response, error) {
	req := c.request()
	if params != nil {
		req.SetQueryParams(params)
	}
	return checked(req.Get(c.buildURL(endpoint)))
}

// Post performs a POST request with a JSON payload
func (c *Client) Post(endpoint string, payload interface{}) (*resty.Response, error) {
	return checked(c.request().SetBody(payload).Post(c.buildURL(endpoint)))
}

// Put performs a PUT request with a JSON payload
func (c *Client) Put(endpoint string, payload interface{}) (*resty.Response, error) {
	return checked(c.request().SetBody(payload).Put(c.buildURL(endpoint)))
}

// Delete performs a DELETE request. The payload is optional and sent as
// the request body when non-nil (the bulk-delete endpoint needs one).
func (c *Client) Delete(endpoint string, payload interface{}) (*resty.Response, error) {
	req := c.request()
	if payload != nil {
		req.SetBody(payload)
	}
	return checked(req.Delete(c.buildURL(endpoint)))
}

func (c *Client) request() *resty.Request {
	req := c.http.R()
	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()
	if token != "" {
		req.SetHeader("Authorization", "Bearer "+token)
	}
	return req
}

func (c *Client) buildURL(endpoint string) string {
	endpoint = strings.TrimPrefix(endpoint, "/")
	c.mu.RLock()
	base := c.baseURL
	c.mu.RUnlock()
	return fmt.Sprintf("%s/%s", base, endpoint)
}

// SetBaseURL points the gateway at a different backend. Used when the
// user switches server profiles.
func (c *Client) SetBaseURL(baseURL string) {
	c.mu.Lock()
	c.baseURL = strings.TrimRight(baseURL, "/")
	c.mu.Unlock()
}

// checked maps non-2xx responses to a StatusError so callers never have
// to inspect resty responses for failure themselves.
func checked(resp *resty.Response, err error) (*resty.Response, error) {
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return resp, errorFromResponse(resp)
	}
	return resp, nil
}

func errorFromResponse(resp *resty.Response) *StatusError {
	var body struct {
		Message string `json:"message"`
	}
	message := http.StatusText(resp.StatusCode())
	if err := json.Unmarshal(resp.Body(), &body); err == nil && body.Message != "" {
		message = body.Message
	}
	return &StatusError{Code: resp.StatusCode(), Message: message}
}

// SetTimeout allows customizing the timeout for specific operations
func (c *Client) SetTimeout(timeout time.Duration) {
	c.http.SetTimeout(timeout)
}
