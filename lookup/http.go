package lookup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// HTTPOptions configures an HTTPResolver
type HTTPOptions struct {
	Client  *http.Client
	Headers map[string]string

	// circuit breaker settings, zero values use the gobreaker defaults
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32 // consecutive failures before opening, default 5
}

// HTTPResolver resolves keys by POSTing {"keys": [...]} to an endpoint that
// answers {"values": [...]} parallel to the keys, null marking unresolved
// keys. Calls go through a circuit breaker so a failing endpoint is not
// hammered once per evaluation.
type HTTPResolver struct {
	url     string
	client  *http.Client
	headers map[string]string
	breaker *gobreaker.CircuitBreaker
}

type httpRequest struct {
	Keys []any `json:"keys"`
}

type httpResponse struct {
	Values []any `json:"values"`
}

// NewHTTPResolver creates a resolver posting to url
func NewHTTPResolver(name, url string, opts HTTPOptions) *HTTPResolver {
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	threshold := opts.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	return &HTTPResolver{
		url:     url,
		client:  client,
		headers: opts.Headers,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: opts.MaxRequests,
			Interval:    opts.Interval,
			Timeout:     opts.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
		}),
	}
}

// State reports the circuit breaker state
func (r *HTTPResolver) State() string { return r.breaker.State().String() }

// Resolve posts every key in one request
func (r *HTTPResolver) Resolve(ctx context.Context, keys []any) ([]any, error) {
	result, err := r.breaker.Execute(func() (any, error) {
		return r.post(ctx, keys)
	})
	if err != nil {
		return nil, err
	}

	values := result.([]any)
	if len(values) != len(keys) {
		return nil, fmt.Errorf("http: endpoint returned %d values for %d keys", len(values), len(keys))
	}
	for i, v := range values {
		values[i] = NormalizeKey(v)
	}
	return values, nil
}

func (r *HTTPResolver) post(ctx context.Context, keys []any) ([]any, error) {
	body, err := json.Marshal(httpRequest{Keys: keys})
	if err != nil {
		return nil, fmt.Errorf("http: failed to encode keys: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("http: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("http: unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var out httpResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("http: failed to decode response: %w", err)
	}
	return out.Values, nil
}
