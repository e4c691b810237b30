package models

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"sync"
	"time"
)

// HTTPBackend evaluates decision contexts against a remote model service
// over HTTP. It provides connection pooling, bounded retries with
// exponential backoff for transient errors, and health tracking.
type HTTPBackend struct {
	config BackendConfig
	client *http.Client
	logger *slog.Logger

	// healthMu protects the health fields below.
	healthMu            sync.RWMutex
	healthy             bool
	consecutiveFailures int
	lastError           error
}

// NewHTTPBackend creates an HTTP backend adapter.
func NewHTTPBackend(cfg BackendConfig, logger *slog.Logger) *HTTPBackend {
	if cfg.Weight <= 0 {
		cfg.Weight = 1.0
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 800 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}

	transport := &http.Transport{
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,
	}

	return &HTTPBackend{
		config: cfg,
		client: &http.Client{Transport: transport},
		logger: logger.With("component", "models.http", "backend", cfg.Name),
		// Start optimistic; the first failed call flips this.
		healthy: true,
	}
}

// Name returns the backend's configured name.
func (b *HTTPBackend) Name() string {
	return b.config.Name
}

// Weight returns the backend's vote weight.
func (b *HTTPBackend) Weight() float64 {
	return b.config.Weight
}

// IsHealthy returns the backend's current health status.
func (b *HTTPBackend) IsHealthy() bool {
	b.healthMu.RLock()
	defer b.healthMu.RUnlock()
	return b.healthy
}

// ConsecutiveFailures returns the current consecutive-failure count.
func (b *HTTPBackend) ConsecutiveFailures() int {
	b.healthMu.RLock()
	defer b.healthMu.RUnlock()
	return b.consecutiveFailures
}

// Evaluate sends the evaluation request to the backend and normalizes the
// response. Transient failures (5xx, 429, network errors) are retried up to
// MaxRetries times with exponential backoff; 4xx responses are not retried.
func (b *HTTPBackend) Evaluate(ctx context.Context, req *EvaluationRequest) (*Evaluation, error) {
	callCtx, cancel := context.WithTimeout(ctx, b.config.Timeout)
	defer cancel()

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal evaluation request: %w", err)
	}

	var lastErr error
	attempts := b.config.MaxRetries + 1
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * 50 * time.Millisecond
			select {
			case <-callCtx.Done():
				b.recordFailure(callCtx.Err())
				return nil, &BackendError{Backend: b.config.Name, Err: callCtx.Err()}
			case <-time.After(backoff):
			}
		}

		eval, retryable, err := b.doEvaluate(callCtx, body)
		if err == nil {
			b.recordSuccess()
			return eval, nil
		}
		lastErr = err
		if !retryable {
			break
		}
		b.logger.Debug("retrying backend call",
			"attempt", attempt+1,
			"error", err,
		)
	}

	b.recordFailure(lastErr)
	return nil, lastErr
}

// doEvaluate performs a single HTTP round-trip. The bool return reports
// whether the failure is retryable.
func (b *HTTPBackend) doEvaluate(ctx context.Context, body []byte) (*Evaluation, bool, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, false, &BackendError{Backend: b.config.Name, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if b.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+b.config.APIKey)
	}

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return nil, true, &BackendError{Backend: b.config.Name, Retryable: true, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		retryable := resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
		return nil, retryable, &BackendError{
			Backend:    b.config.Name,
			StatusCode: resp.StatusCode,
			Retryable:  retryable,
			Err:        fmt.Errorf("unexpected status"),
		}
	}

	var eval Evaluation
	if err := json.NewDecoder(resp.Body).Decode(&eval); err != nil {
		return nil, false, &BackendError{Backend: b.config.Name, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	if eval.Score < 0 || eval.Score > 1 {
		return nil, false, &BackendError{Backend: b.config.Name, Err: fmt.Errorf("score %v outside [0, 1]", eval.Score)}
	}
	return &eval, false, nil
}

// HealthCheck probes the backend with a HEAD request to the endpoint.
func (b *HTTPBackend) HealthCheck(ctx context.Context) error {
	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(checkCtx, http.MethodHead, b.config.Endpoint, nil)
	if err != nil {
		return &BackendError{Backend: b.config.Name, Err: err}
	}

	resp, err := b.client.Do(req)
	if err != nil {
		b.recordFailure(err)
		return &BackendError{Backend: b.config.Name, Retryable: true, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		err := &BackendError{Backend: b.config.Name, StatusCode: resp.StatusCode, Err: fmt.Errorf("unhealthy")}
		b.recordFailure(err)
		return err
	}

	b.recordSuccess()
	return nil
}

func (b *HTTPBackend) recordSuccess() {
	b.healthMu.Lock()
	defer b.healthMu.Unlock()
	if !b.healthy {
		b.logger.Info("backend recovered", "previous_failures", b.consecutiveFailures)
	}
	b.healthy = true
	b.consecutiveFailures = 0
	b.lastError = nil
}

func (b *HTTPBackend) recordFailure(err error) {
	b.healthMu.Lock()
	defer b.healthMu.Unlock()
	b.consecutiveFailures++
	b.lastError = err
	if b.healthy && b.consecutiveFailures >= 3 {
		b.healthy = false
		b.logger.Warn("backend marked unhealthy",
			"consecutive_failures", b.consecutiveFailures,
			"error", err,
		)
	}
}
