package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultTimeout  = 30 * time.Second
	maxResponseSize = 8 << 20

	HeaderRequestID = "X-Request-ID"
)

// TokenSource supplies the bearer token for authenticated calls. "" means none.
type TokenSource interface {
	GetToken(ctx context.Context) (string, error)
}

type Options struct {
	BaseURL     string
	Timeout     time.Duration
	TokenSource TokenSource
	HTTPClient  *http.Client
	Logger      *slog.Logger
}

// Client is the single choke point for outbound backend calls.
type Client struct {
	baseURL    string
	timeout    time.Duration
	tokens     TokenSource
	httpClient *http.Client
	logger     *slog.Logger
	newID      func() string
}

func New(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, errors.New("base url is required")
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", base, err)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		baseURL:    base,
		timeout:    timeout,
		tokens:     opts.TokenSource,
		httpClient: httpClient,
		logger:     logger,
		newID:      uuid.NewString,
	}, nil
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) Timeout() time.Duration {
	return c.timeout
}

type RequestOptions struct {
	Method string
	Body   any
	Query  url.Values
	// SkipAuth keeps stale or absent credentials off endpoints such as login.
	SkipAuth bool
}

// Request performs one call and decodes a 2xx body into T. Every failure is an *Error.
func Request[T any](ctx context.Context, c *Client, endpoint string, opts RequestOptions) (T, error) {
	var out T
	raw, status, err := c.do(ctx, endpoint, opts)
	if err != nil {
		return out, err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, &Error{
			Kind:    KindDecode,
			Message: "invalid response body: " + err.Error(),
			Status:  status,
			Body:    raw,
			Err:     err,
		}
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, endpoint string, opts RequestOptions) ([]byte, int, error) {
	method := strings.ToUpper(strings.TrimSpace(opts.Method))
	if method == "" {
		method = http.MethodGet
	}
	target := c.endpointURL(endpoint, opts.Query)

	var body io.Reader
	if opts.Body != nil {
		b, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, 0, &Error{Kind: KindValidation, Message: "encode request body: " + err.Error(), Err: err}
		}
		body = bytes.NewReader(b)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, method, target, body)
	if err != nil {
		return nil, 0, &Error{Kind: KindTransport, Message: err.Error(), Err: err}
	}
	requestID := c.newID()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(HeaderRequestID, requestID)
	if !opts.SkipAuth {
		if token := c.token(ctx); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	c.logger.Debug("api request", "method", method, "url", target, "request_id", requestID)
	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, c.transportError(ctx, reqCtx, err)
	}
	defer func() {
		_ = res.Body.Close()
	}()

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxResponseSize))
	if err != nil {
		return nil, res.StatusCode, c.transportError(ctx, reqCtx, err)
	}
	c.logger.Debug("api response", "status", res.StatusCode, "url", target, "request_id", requestID)

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, res.StatusCode, httpError(res.StatusCode, raw)
	}
	return raw, res.StatusCode, nil
}

func (c *Client) endpointURL(endpoint string, query url.Values) string {
	target := c.baseURL + "/" + strings.TrimLeft(strings.TrimSpace(endpoint), "/")
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	return target
}

// token never fails the call; an unreadable store behaves like an empty one.
func (c *Client) token(ctx context.Context) string {
	if c.tokens == nil {
		return ""
	}
	token, err := c.tokens.GetToken(ctx)
	if err != nil {
		c.logger.Warn("read auth token failed", "err", err)
		return ""
	}
	return strings.TrimSpace(token)
}

func (c *Client) transportError(parent, reqCtx context.Context, err error) *Error {
	if parent.Err() == nil && errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
		return c.timeoutError(err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() && parent.Err() == nil {
		return c.timeoutError(err)
	}
	if parent.Err() != nil {
		return &Error{Kind: KindTransport, Message: "request canceled: " + parent.Err().Error(), Err: err}
	}
	return &Error{Kind: KindTransport, Message: "network error: " + rootMessage(err), Err: err}
}

func (c *Client) timeoutError(err error) *Error {
	return &Error{
		Kind:    KindTimeout,
		Message: fmt.Sprintf("timeout of %dms exceeded", c.timeout.Milliseconds()),
		Err:     err,
	}
}

func httpError(status int, raw []byte) *Error {
	out := &Error{
		Kind:    KindHTTP,
		Message: statusMessage(status),
		Status:  status,
		Body:    raw,
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return out
	}
	if msg := stringField(payload, "message"); msg != "" {
		out.Message = msg
	} else if msg := stringField(payload, "error"); msg != "" {
		out.Message = msg
	}
	out.ContextLogID = stringField(payload, "context_log_id")
	return out
}

func stringField(payload map[string]any, key string) string {
	switch v := payload[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return fmt.Sprintf("%.0f", v)
	default:
		return ""
	}
}

func rootMessage(err error) string {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return urlErr.Err.Error()
	}
	return err.Error()
}
