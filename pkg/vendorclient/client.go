// Package vendorclient is a typed HTTP client for the vendorbook API.
package vendorclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

type Vendor struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	BankAccountNo string    `json:"bankAccountNo"`
	BankName      string    `json:"bankName"`
	AddressLine1  string    `json:"addressLine1"`
	AddressLine2  string    `json:"addressLine2"`
	City          string    `json:"city"`
	Country       string    `json:"country"`
	ZipCode       string    `json:"zipCode"`
	CreatedBy     string    `json:"createdBy"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Fields is the editable part of a vendor. On Update a nil field is left
// unchanged by the server.
type Fields struct {
	Name          *string `json:"name,omitempty"`
	BankAccountNo *string `json:"bankAccountNo,omitempty"`
	BankName      *string `json:"bankName,omitempty"`
	AddressLine1  *string `json:"addressLine1,omitempty"`
	AddressLine2  *string `json:"addressLine2,omitempty"`
	City          *string `json:"city,omitempty"`
	Country       *string `json:"country,omitempty"`
	ZipCode       *string `json:"zipCode,omitempty"`
}

type Pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

type Page struct {
	Vendors    []Vendor   `json:"vendors"`
	Pagination Pagination `json:"pagination"`
}

type Session struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// APIError is returned for every non-2xx response.
type APIError struct {
	Status    int
	Code      string
	Message   string
	RequestID string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("vendorbook api: %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("vendorbook api: %d: %s", e.Status, e.Message)
}

func (e *APIError) IsAuthRequired() bool { return e != nil && e.Status == http.StatusUnauthorized }
func (e *APIError) IsNotFound() bool     { return e != nil && e.Status == http.StatusNotFound }
func (e *APIError) IsValidation() bool {
	return e != nil && e.Status == http.StatusBadRequest && e.Code == "validation_error"
}

// AsAPIError unwraps err into an *APIError when it carries one.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

type Option func(*Client)

// WithToken sends the session token as a bearer header.
func WithToken(token string) Option {
	return func(c *Client) { c.Token = strings.TrimSpace(token) }
}

// WithHTTPClient replaces the default client, e.g. one carrying a cookie
// jar that holds the session cookie.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.HTTPClient = hc
		}
	}
}

func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", baseURL)
	}
	c := &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) List(ctx context.Context, page, limit int) (Page, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/vendors"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out Page
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return Page{}, err
	}
	return out, nil
}

func (c *Client) Get(ctx context.Context, id string) (Vendor, error) {
	var out Vendor
	if err := c.do(ctx, http.MethodGet, vendorPath(id), nil, &out); err != nil {
		return Vendor{}, err
	}
	return out, nil
}

func (c *Client) Create(ctx context.Context, fields Fields) (Vendor, error) {
	var out Vendor
	if err := c.do(ctx, http.MethodPost, "/vendors", fields, &out); err != nil {
		return Vendor{}, err
	}
	return out, nil
}

func (c *Client) Update(ctx context.Context, id string, fields Fields) (Vendor, error) {
	var out Vendor
	if err := c.do(ctx, http.MethodPut, vendorPath(id), fields, &out); err != nil {
		return Vendor{}, err
	}
	return out, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, vendorPath(id), nil, nil)
}

func (c *Client) Session(ctx context.Context) (Session, error) {
	var out Session
	if err := c.do(ctx, http.MethodGet, "/auth/session", nil, &out); err != nil {
		return Session{}, err
	}
	return out, nil
}

func vendorPath(id string) string {
	return "/vendors/" + url.PathEscape(strings.TrimSpace(id))
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp, payload)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response, payload []byte) error {
	var body struct {
		Error     string `json:"error"`
		Code      string `json:"code"`
		RequestID string `json:"request_id"`
	}
	apiErr := &APIError{Status: resp.StatusCode}
	if err := json.Unmarshal(payload, &body); err == nil {
		apiErr.Code = body.Code
		apiErr.Message = body.Error
		apiErr.RequestID = body.RequestID
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(http.StatusText(resp.StatusCode))
	}
	if apiErr.RequestID == "" {
		apiErr.RequestID = resp.Header.Get("X-Request-Id")
	}
	return apiErr
}

// String returns a pointer to s, for building Fields.
func String(s string) *string { return &s }
