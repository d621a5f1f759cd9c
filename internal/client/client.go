// Package client talks to a canvas server over the widget HTTP API.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"resty.dev/v3"

	"github.com/mesh-intelligence/canvas/pkg/types"
)

// DefaultTimeout bounds each request when New is given zero.
const DefaultTimeout = 10 * time.Second

// Client errors.
var (
	ErrRateLimited = errors.New("rate limited")
	ErrServer      = errors.New("server error")
)

// APIError is a non-2xx response. It unwraps to types.ErrNotFound,
// types.ErrInvalidInput, ErrRateLimited or ErrServer so callers can use
// errors.Is against the same sentinels the store returns.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%d %s", e.Status, http.StatusText(e.Status))
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusNotFound:
		return types.ErrNotFound
	case http.StatusBadRequest:
		return types.ErrInvalidInput
	case http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return ErrServer
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// Client is a widget API client. It is safe for concurrent use.
type Client struct {
	http *resty.Client
}

// New returns a client for the server at baseURL (for example
// "http://localhost:8080").
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	rc := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &Client{http: rc}
}

// Close releases idle connections.
func (c *Client) Close() error {
	return c.http.Close()
}

func (c *Client) request(ctx context.Context) *resty.Request {
	return c.http.R().SetContext(ctx).SetError(&errorBody{})
}

// Get fetches one widget.
func (c *Client) Get(ctx context.Context, id int64) (types.Widget, error) {
	var w types.Widget
	res, err := c.request(ctx).
		SetPathParam("id", strconv.FormatInt(id, 10)).
		SetResult(&w).
		Get(types.WidgetsPath + "/{id}")
	if err := check(res, err); err != nil {
		return types.Widget{}, fmt.Errorf("get widget %d: %w", id, err)
	}
	return w, nil
}

// List fetches one page of widgets in ascending z order.
func (c *Client) List(ctx context.Context, page types.Page) ([]types.Widget, error) {
	var ws []types.Widget
	res, err := c.request(ctx).
		SetQueryParam("limit", strconv.Itoa(page.Limit)).
		SetQueryParam("offset", strconv.Itoa(page.Offset)).
		SetResult(&ws).
		Get(types.WidgetsPath)
	if err := check(res, err); err != nil {
		return nil, fmt.Errorf("list widgets: %w", err)
	}
	if ws == nil {
		ws = []types.Widget{}
	}
	return ws, nil
}

// Create stores a new widget and returns it with its assigned ID and z.
func (c *Client) Create(ctx context.Context, in types.WidgetInput) (types.Widget, error) {
	var w types.Widget
	res, err := c.request(ctx).
		SetBody(in).
		SetResult(&w).
		Post(types.WidgetsPath)
	if err := check(res, err); err != nil {
		return types.Widget{}, fmt.Errorf("create widget: %w", err)
	}
	return w, nil
}

// Update replaces the geometry of the widget named by in.ID.
func (c *Client) Update(ctx context.Context, in types.WidgetInput) (types.Widget, error) {
	var w types.Widget
	res, err := c.request(ctx).
		SetBody(in).
		SetResult(&w).
		Put(types.WidgetsPath)
	if err := check(res, err); err != nil {
		return types.Widget{}, fmt.Errorf("update widget %d: %w", in.ID, err)
	}
	return w, nil
}

// Delete removes one widget.
func (c *Client) Delete(ctx context.Context, id int64) error {
	res, err := c.request(ctx).
		SetPathParam("id", strconv.FormatInt(id, 10)).
		Delete(types.WidgetsPath + "/{id}")
	if err := check(res, err); err != nil {
		return fmt.Errorf("delete widget %d: %w", id, err)
	}
	return nil
}

// check turns a transport failure or non-2xx response into an error.
func check(res *resty.Response, err error) error {
	if err != nil {
		return err
	}
	if res.IsSuccess() {
		return nil
	}
	apiErr := &APIError{Status: res.StatusCode()}
	if body, ok := res.Error().(*errorBody); ok && body != nil {
		apiErr.Message = body.Error
	}
	return apiErr
}
