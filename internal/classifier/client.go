// Package classifier talks to the external genre classification service.
//
// The service runs jobs asynchronously: a submit call returns an event id and the
// result is fetched from SubmitURL/{event_id}. Classify wraps the round trip so
// that any failure degrades to the Unknown prediction instead of an error.
package classifier

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/sethvargo/go-retry"
	"github.com/sony/gobreaker/v2"

	"github.com/abctag/abc-server/internal/category"
	"github.com/abctag/abc-server/internal/metrics"
)

const maxResponseBytes = 1 << 20

// Client is a classification service client.
type Client struct {
	cfg     Config
	http    *http.Client
	labels  *category.Set
	breaker *gobreaker.CircuitBreaker[Prediction]
	cache   Cache
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithCache enables caching of successful predictions.
func WithCache(cache Cache) Option {
	return func(c *Client) { c.cache = cache }
}

// WithMetrics records outcomes on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// New creates a client. labels is the output space of the model: a predicted
// label outside it is treated as a failed classification.
func New(cfg Config, labels *category.Set, logger *slog.Logger, opts ...Option) *Client {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.PollDelay <= 0 {
		cfg.PollDelay = DefaultConfig().PollDelay
	}

	c := &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.RequestTimeout},
		labels: labels,
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.breaker = newBreaker(cfg.Breaker, logger, c.metrics)
	return c
}

// Enabled reports whether a classification service is configured.
func (c *Client) Enabled() bool {
	return c.cfg.Enabled()
}

// State describes the client for health reporting: "disabled", or the circuit state.
func (c *Client) State() string {
	switch {
	case !c.cfg.Enabled():
		return "disabled"
	case c.breaker == nil:
		return gobreaker.StateClosed.String()
	default:
		return c.breaker.State().String()
	}
}

// Classify returns the prediction for in, or the degraded Unknown prediction if
// classification is skipped or fails for any reason. It never returns an error.
func (c *Client) Classify(ctx context.Context, in Input) Prediction {
	start := time.Now()
	p, attempts, cached, err := c.predict(ctx, in)
	elapsed := time.Since(start)

	switch {
	case err == nil && cached:
		c.metrics.ObserveClassification(metrics.OutcomeCached, elapsed, 0)
		return p
	case err == nil:
		c.metrics.ObserveClassification(metrics.OutcomeSuccess, elapsed, attempts)
		c.logger.Debug("book classified", "label", p.Label, "attempts", attempts, "elapsed", elapsed)
		return p
	case errors.Is(err, ErrDisabled), errors.Is(err, ErrSkipped):
		c.metrics.ObserveClassification(metrics.OutcomeSkipped, elapsed, 0)
		c.logger.Debug("classification skipped", "reason", err.Error())
	case rejected(err):
		c.metrics.ObserveClassification(metrics.OutcomeRejected, elapsed, 0)
		c.logger.Warn("classification rejected by open circuit", "error", err)
	default:
		c.metrics.ObserveClassification(metrics.OutcomeDegraded, elapsed, attempts)
		c.logger.Warn("classification unavailable, using Unknown",
			"error", err,
			"attempts", attempts,
			"elapsed", elapsed,
		)
	}
	return Degraded()
}

// Predict is Classify without the degradation: failures are returned wrapped in
// ErrUnavailable.
func (c *Client) Predict(ctx context.Context, in Input) (Prediction, error) {
	p, _, _, err := c.predict(ctx, in)
	return p, err
}

func (c *Client) predict(ctx context.Context, in Input) (p Prediction, attempts int, cached bool, err error) {
	if !c.cfg.Enabled() {
		return Prediction{}, 0, false, fmt.Errorf("%w: %w", ErrUnavailable, ErrDisabled)
	}
	if c.cfg.SkipEmptyDescription && strings.TrimSpace(in.Description) == "" {
		return Prediction{}, 0, false, fmt.Errorf("%w: %w", ErrUnavailable, ErrSkipped)
	}

	key := CacheKey(in)
	if p, ok := c.cacheGet(ctx, key); ok {
		return p, 0, true, nil
	}

	run := func() (Prediction, error) {
		eventID, err := c.Submit(ctx, in)
		if err != nil {
			return Prediction{}, err
		}
		var p Prediction
		p, attempts, err = c.Poll(ctx, eventID)
		if err != nil {
			return Prediction{}, err
		}
		if c.labels != nil && !c.labels.Contains(p.Label) {
			return Prediction{}, wrapError("poll", eventID, fmt.Errorf("%w: %q", ErrUnknownLabel, p.Label))
		}
		return p, nil
	}

	if c.breaker != nil {
		p, err = c.breaker.Execute(run)
	} else {
		p, err = run()
	}
	if err != nil {
		return Prediction{}, attempts, false, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	c.cacheSet(ctx, key, p)
	return p, attempts, false, nil
}

type submitRequest struct {
	Data []string `json:"data"`
}

type submitResponse struct {
	EventID string `json:"event_id"`
}

// Submit starts a classification job and returns its event id.
func (c *Client) Submit(ctx context.Context, in Input) (string, error) {
	payload, err := json.Marshal(submitRequest{Data: []string{in.Title, in.Author, in.Description}})
	if err != nil {
		return "", wrapError("submit", "", fmt.Errorf("encode request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.SubmitURL, bytes.NewReader(payload))
	if err != nil {
		return "", wrapError("submit", "", fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	_, body, err := c.do(req)
	if err != nil {
		return "", wrapError("submit", "", err)
	}

	var resp submitResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", wrapError("submit", "", fmt.Errorf("%w: %v", ErrMalformed, err))
	}
	if resp.EventID == "" {
		return "", wrapError("submit", "", fmt.Errorf("%w: missing event_id", ErrMalformed))
	}

	c.logger.Debug("classification job submitted", "event_id", resp.EventID)
	return resp.EventID, nil
}

// Poll fetches the result of a job, retrying within the attempt budget while the
// response is pending, malformed or a transient failure. It returns the number of
// attempts made.
func (c *Client) Poll(ctx context.Context, eventID string) (Prediction, int, error) {
	var (
		p        Prediction
		attempts int
	)

	err := retry.Do(ctx, c.backoff(), func(ctx context.Context) error {
		attempts++
		result, err := c.fetchResult(ctx, eventID)
		if err == nil {
			p = result
			return nil
		}
		c.logger.Debug("poll attempt failed", "event_id", eventID, "attempt", attempts, "error", err)
		if retryable(err) {
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return Prediction{}, attempts, wrapError("poll", eventID, err)
	}
	return p, attempts, nil
}

func (c *Client) backoff() retry.Backoff {
	var b retry.Backoff
	if c.cfg.Backoff == BackoffExponential {
		b = retry.NewExponential(c.cfg.PollDelay)
		if c.cfg.MaxDelay > 0 {
			b = retry.WithCappedDuration(c.cfg.MaxDelay, b)
		}
	} else {
		b = retry.NewConstant(c.cfg.PollDelay)
	}
	return retry.WithMaxRetries(uint64(c.cfg.MaxAttempts-1), b) //#nosec G115 -- MaxAttempts >= 1
}

func (c *Client) fetchResult(ctx context.Context, eventID string) (Prediction, error) {
	u := strings.TrimRight(c.cfg.SubmitURL, "/") + "/" + url.PathEscape(eventID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Prediction{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream, application/json")

	contentType, body, err := c.do(req)
	if err != nil {
		return Prediction{}, err
	}
	return Decode(contentType, body)
}

// do executes a request and returns the content type and body of a 2xx response.
func (c *Client) do(req *http.Request) (string, []byte, error) {
	req.Header.Set("User-Agent", "ABC/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", nil, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return resp.Header.Get("Content-Type"), body, nil
	case resp.StatusCode == http.StatusNotFound:
		return "", nil, ErrJobNotFound
	default:
		return "", nil, fmt.Errorf("%w %d: %s", ErrStatus, resp.StatusCode, truncate(string(body), 200))
	}
}

func (c *Client) cacheGet(ctx context.Context, key string) (Prediction, bool) {
	if c.cache == nil {
		return Prediction{}, false
	}
	data, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.Warn("classification cache read failed", "error", err)
		return Prediction{}, false
	}
	if !ok {
		return Prediction{}, false
	}
	var p Prediction
	if err := json.Unmarshal(data, &p); err != nil || p.IsDegraded() {
		return Prediction{}, false
	}
	if p.Scores == nil {
		p.Scores = []float64{}
	}
	return p, true
}

func (c *Client) cacheSet(ctx context.Context, key string, p Prediction) {
	if c.cache == nil || p.IsDegraded() {
		return
	}
	data, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, key, data); err != nil {
		c.logger.Warn("classification cache write failed", "error", err)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
