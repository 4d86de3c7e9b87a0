package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// maxResponseBytes caps how much of a response body is read.
	maxResponseBytes = 16 << 20
	// maxErrorBytes caps the server message carried in a failed Result.
	maxErrorBytes = 512
)

// Client issues single KServe v2 inference calls. It is safe for concurrent
// use; calls share only the connection pool.
type Client struct {
	http    *http.Client
	log     zerolog.Logger
	observe func(Request, Result)
}

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

func WithLogger(l zerolog.Logger) Option { return func(c *Client) { c.log = l } }

// WithObserver registers a callback invoked after every completed call.
func WithObserver(fn func(Request, Result)) Option { return func(c *Client) { c.observe = fn } }

// New returns a Client with its own connection pool.
func New(opts ...Option) *Client {
	c := &Client{
		http: &http.Client{Transport: http.DefaultTransport.(*http.Transport).Clone()},
		log:  zerolog.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Close releases idle connections.
func (c *Client) Close() { c.http.CloseIdleConnections() }

func (r Request) validate() error {
	var missing []string
	if strings.TrimSpace(r.ServerAddress) == "" {
		missing = append(missing, "server address")
	}
	if strings.TrimSpace(r.ModelName) == "" {
		missing = append(missing, "model name")
	}
	if r.Timeout <= 0 {
		missing = append(missing, "positive timeout")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidRequest, strings.Join(missing, ", "))
	}
	return nil
}

// Infer sends req and waits for the output. Malformed requests fail with
// ErrInvalidRequest; every other outcome is reported in the Result, whose
// Elapsed spans dispatch to the end of the response or the failure.
// Calls are never retried.
func (c *Client) Infer(ctx context.Context, req Request) (Result, error) {
	if err := req.validate(); err != nil {
		return Result{}, err
	}
	id := uuid.NewString()
	payload, err := json.Marshal(newInferRequest(id, req.Prompt))
	if err != nil {
		return Result{}, fmt.Errorf("%w: encode: %v", ErrInvalidRequest, err)
	}
	ctx, cancel := context.WithTimeout(ctx, req.Timeout)
	defer cancel()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, inferURL(req), bytes.NewReader(payload))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	res := Result{RequestID: id}
	start := time.Now()
	res = c.do(ctx, httpReq, res)
	res.Elapsed = time.Since(start)

	ev := c.log.Debug()
	if !res.OK() {
		ev = c.log.Warn().Err(res.Err)
	}
	ev.Str("event", "infer_done").Str("model", req.ModelName).Str("id", id).Str("status", string(res.Status)).Int64("dur_ms", res.Elapsed.Milliseconds()).Msg("inference")
	if c.observe != nil {
		c.observe(req, res)
	}
	return res, nil
}

func (c *Client) do(ctx context.Context, httpReq *http.Request, res Result) Result {
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return failed(res, transportStatus(ctx, err), err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return failed(res, transportStatus(ctx, err), fmt.Errorf("read response: %w", err))
	}

	var body inferResponse
	decodeErr := json.Unmarshal(data, &body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(data))
		if decodeErr == nil && body.Error != "" {
			msg = body.Error
		}
		return failed(res, StatusServerError, fmt.Errorf("server returned %s: %s", resp.Status, truncate(msg, maxErrorBytes)))
	}
	if decodeErr != nil {
		return failed(res, StatusDecodeError, fmt.Errorf("decode response: %w", decodeErr))
	}
	if body.Error != "" {
		return failed(res, StatusServerError, errors.New(body.Error))
	}
	out, err := body.output()
	if err != nil {
		return failed(res, StatusDecodeError, err)
	}
	res.Status = StatusOK
	res.Output = out
	res.ModelVersion = body.ModelVersion
	return res
}

// truncate shortens s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func failed(res Result, st Status, err error) Result {
	res.Status = st
	res.Err = err
	return res
}

// transportStatus separates deadline expiry from other transport failures.
func transportStatus(ctx context.Context, err error) Status {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return StatusTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return StatusTimeout
	}
	return StatusConnectionError
}
