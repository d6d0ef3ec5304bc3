// Package api talks to the remote to-do list resource.
//
// Four independent calls, no batching and no retries:
//
//	GET    todo_list/          list
//	POST   todo_list/          create {"content": ...}
//	PATCH  update_item/{id}/   toggle {"completed": "True"|"False"}
//	DELETE delete_item/{id}    delete
package api

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

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/idilsaglam/todo/internal/logging"
	"github.com/idilsaglam/todo/internal/metrics"
	"github.com/idilsaglam/todo/internal/model"
)

const DefaultBaseURL = "http://127.0.0.1:8000/api/"

// Operation names, used in errors, logs and metric labels.
const (
	OpList   = "list"
	OpCreate = "create"
	OpToggle = "toggle"
	OpDelete = "delete"
)

// BoolEncoding selects how the toggle payload spells booleans.
type BoolEncoding string

const (
	// BoolString sends "True"/"False", which the existing server expects.
	BoolString BoolEncoding = "string"
	// BoolJSON sends native JSON booleans.
	BoolJSON BoolEncoding = "json"
)

func ParseBoolEncoding(s string) (BoolEncoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(BoolString):
		return BoolString, nil
	case string(BoolJSON):
		return BoolJSON, nil
	}
	return "", fmt.Errorf("unknown bool encoding: %q (want string|json)", s)
}

type Client struct {
	base    *url.URL
	http    *http.Client
	limiter *rate.Limiter
	timeout time.Duration
	boolEnc BoolEncoding
	log     *log.Logger
	metrics *metrics.Recorder
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }
func WithLogger(l *log.Logger) Option      { return func(c *Client) { c.log = l } }
func WithMetrics(r *metrics.Recorder) Option {
	return func(c *Client) { c.metrics = r }
}
func WithBoolEncoding(e BoolEncoding) Option { return func(c *Client) { c.boolEnc = e } }

// WithTimeout bounds each request. Zero leaves requests unbounded.
func WithTimeout(d time.Duration) Option { return func(c *Client) { c.timeout = d } }

// WithRateLimit throttles requests to rps with the given burst. rps <= 0 disables it.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// New returns a client rooted at baseURL (DefaultBaseURL when empty).
func New(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url must be http(s): %q", baseURL)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}

	c := &Client{
		base:    u,
		http:    http.DefaultClient,
		boolEnc: BoolString,
		log:     logging.Discard(),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

func (c *Client) BaseURL() string { return c.base.String() }

// ListItems fetches the whole list. On a non-2xx status the body is still
// decoded: the returned items are whatever it held, alongside a *StatusError.
func (c *Client) ListItems(ctx context.Context) ([]model.Item, error) {
	body, err := c.do(ctx, OpList, http.MethodGet, "todo_list/", nil)
	var se *StatusError
	if err != nil && !errors.As(err, &se) {
		return nil, err
	}
	items, derr := decodeList(OpList, body)
	if derr != nil {
		c.log.Warn("could not decode list", "err", derr)
		return nil, errors.Join(err, derr)
	}
	return items, err
}

// CreateItem posts a new item and returns the server's copy of it.
func (c *Client) CreateItem(ctx context.Context, content string) (model.Item, error) {
	body, err := c.do(ctx, OpCreate, http.MethodPost, "todo_list/", map[string]string{"content": content})
	if err != nil {
		return model.Item{}, err
	}
	var it model.Item
	if err := json.Unmarshal(body, &it); err != nil {
		return model.Item{}, &DecodeError{Op: OpCreate, Message: err.Error()}
	}
	return it, nil
}

// ToggleItem sets completed to the negation of the current value.
func (c *Client) ToggleItem(ctx context.Context, id int64, completed bool) error {
	payload := map[string]any{"completed": c.encodeBool(!completed)}
	_, err := c.do(ctx, OpToggle, http.MethodPatch, fmt.Sprintf("update_item/%d/", id), payload)
	return err
}

func (c *Client) DeleteItem(ctx context.Context, id int64) error {
	_, err := c.do(ctx, OpDelete, http.MethodDelete, fmt.Sprintf("delete_item/%d", id), nil)
	return err
}

func (c *Client) encodeBool(v bool) any {
	if c.boolEnc == BoolJSON {
		return v
	}
	if v {
		return "True"
	}
	return "False"
}

// do sends one request and returns the response body. A non-2xx status
// yields the body together with a *StatusError.
func (c *Client) do(ctx context.Context, op, method, path string, payload any) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%s: wait: %w", op, err)
		}
	}

	var rdr io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%s: marshal: %w", op, err)
		}
		rdr = bytes.NewReader(b)
	}

	target := c.base.ResolveReference(&url.URL{Path: path})
	req, err := http.NewRequestWithContext(ctx, method, target.String(), rdr)
	if err != nil {
		return nil, fmt.Errorf("%s: new request: %w", op, err)
	}
	reqID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)

	logger := c.log.With("op", op, "request_id", reqID)
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.Observe(op, 0, time.Since(start))
		logger.Error("request failed", "method", method, "url", target.String(), "err", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	c.metrics.Observe(op, resp.StatusCode, time.Since(start))
	if err != nil {
		logger.Error("read body failed", "status", resp.StatusCode, "err", err)
		return nil, fmt.Errorf("%s: read body: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Warn("response error", "method", method, "url", target.String(), "status", resp.StatusCode)
		return body, &StatusError{
			Op:         op,
			Method:     method,
			URL:        target.String(),
			StatusCode: resp.StatusCode,
			RequestID:  reqID,
		}
	}
	logger.Debug("ok", "method", method, "status", resp.StatusCode, "elapsed", time.Since(start))
	return body, nil
}
