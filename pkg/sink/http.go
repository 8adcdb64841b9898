package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/bft-labs/batchby/pkg/log"
)

const batchesEndpoint = "/v1/batches"

// HTTPClient abstracts HTTP request execution. *http.Client satisfies it.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPOptions configures an HTTPSink.
type HTTPOptions struct {
	// URL is the service base URL; envelopes are posted to URL + "/v1/batches".
	URL string

	// AuthKey is sent as a bearer token when set.
	AuthKey string

	// Hostname is reported in the X-Agent-Hostname header.
	Hostname string

	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int

	// InitialBackoff is the first retry delay. Default: 500ms
	InitialBackoff time.Duration

	// MaxBackoff caps the retry delay. Default: 10s
	MaxBackoff time.Duration

	Logger log.Logger
}

// HTTPSink posts each envelope as JSON.
type HTTPSink struct {
	client HTTPClient
	opts   HTTPOptions
	logger log.Logger

	mu     sync.Mutex
	closed bool
}

// NewHTTPSink creates a sink posting through client.
func NewHTTPSink(client HTTPClient, opts HTTPOptions) *HTTPSink {
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = 500 * time.Millisecond
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = 10 * time.Second
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &HTTPSink{client: client, opts: opts, logger: logger}
}

// Write implements Sink. Transport errors, 429 and 5xx responses are retried
// with backoff; other non-2xx responses fail immediately.
func (s *HTTPSink) Write(ctx context.Context, env Envelope) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return ErrSinkClosed
	}

	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal batch %d: %w", env.Seq, err)
	}

	b := newBackoff(s.opts.InitialBackoff, s.opts.MaxBackoff)
	var lastErr error
	for attempt := 0; attempt <= s.opts.MaxRetries; attempt++ {
		retry, err := s.post(ctx, body, env)
		if err == nil {
			return nil
		}
		if !retry {
			return err
		}
		lastErr = err
		if attempt == s.opts.MaxRetries {
			break
		}

		s.logger.Warn("batch delivery failed, retrying",
			log.Uint64("seq", env.Seq),
			log.Int("attempt", attempt+1),
			log.Err(err),
		)
		if err := b.wait(ctx); err != nil {
			return err
		}
	}
	return fmt.Errorf("%w: batch %d: %v", ErrRetriesExhausted, env.Seq, lastErr)
}

// post sends one request and reports whether a failure may be retried.
func (s *HTTPSink) post(ctx context.Context, body []byte, env Envelope) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.opts.URL+batchesEndpoint, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if s.opts.AuthKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.opts.AuthKey)
	}
	req.Header.Set("X-Batch-Id", env.ID)
	req.Header.Set("X-Batch-Seq", strconv.FormatUint(env.Seq, 10))
	req.Header.Set("X-Agent-Hostname", s.opts.Hostname)
	req.Header.Set("X-Agent-OSArch", runtime.GOOS+"/"+runtime.GOARCH)

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return true, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 == 2 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return false, nil
	}

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	err = fmt.Errorf("server returned %d: %s", resp.StatusCode, bytes.TrimSpace(respBody))
	retry := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
	return retry, err
}

// Close implements Sink.
func (s *HTTPSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
