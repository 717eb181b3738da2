package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"golang.org/x/time/rate"

	"github.com/ramonehamilton/deck-binder/internal/version"
)

const (
	defaultRequestTimeout = 30 * time.Second
	defaultMaxRetries     = 3
	initialBackoff        = 500 * time.Millisecond
	maxBackoff            = 8 * time.Second
)

// Source supplies the raw catalog records.
type Source interface {
	Load(ctx context.Context) ([]CardDetails, error)
}

// Load reads all cards from src and builds the index.
func Load(ctx context.Context, src Source) (*Index, error) {
	cards, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	idx, err := NewIndex(cards)
	if err != nil {
		return nil, fmt.Errorf("failed to index catalog: %w", err)
	}

	log.Printf("[Catalog] Loaded %d cards", idx.Len())
	return idx, nil
}

// FileSource reads a JSON array of cards from disk.
type FileSource struct {
	Path string
}

// Load implements Source.
func (s FileSource) Load(_ context.Context) ([]CardDetails, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}

	var cards []CardDetails
	if err := json.Unmarshal(data, &cards); err != nil {
		return nil, fmt.Errorf("parse catalog file %s: %w", s.Path, err)
	}

	return cards, nil
}

// HTTPSource fetches the catalog JSON from a URL with rate limiting and retries.
type HTTPSource struct {
	url         string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	maxRetries  int
	userAgent   string
}

// HTTPSourceOptions configures an HTTPSource.
type HTTPSourceOptions struct {
	// RateLimit is the number of requests per second. Default: 2
	RateLimit rate.Limit

	// Timeout applies to each request. Default: 30s
	Timeout time.Duration

	// MaxRetries on network errors, 429 and 5xx responses. Nil means 3;
	// zero disables retries.
	MaxRetries *int
}

// NewHTTPSource creates a catalog source for url.
func NewHTTPSource(url string, options HTTPSourceOptions) *HTTPSource {
	if options.RateLimit == 0 {
		options.RateLimit = 2
	}
	if options.Timeout == 0 {
		options.Timeout = defaultRequestTimeout
	}
	maxRetries := defaultMaxRetries
	if options.MaxRetries != nil {
		maxRetries = max(*options.MaxRetries, 0)
	}

	return &HTTPSource{
		url:         url,
		httpClient:  &http.Client{Timeout: options.Timeout},
		rateLimiter: rate.NewLimiter(options.RateLimit, 1),
		maxRetries:  maxRetries,
		userAgent:   version.UserAgent(),
	}
}

// Load implements Source.
func (s *HTTPSource) Load(ctx context.Context) ([]CardDetails, error) {
	var lastErr error
	backoff := initialBackoff

	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, maxBackoff)
		}

		if err := s.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}

		cards, retry, err := s.fetch(ctx)
		if err == nil {
			return cards, nil
		}
		lastErr = err
		if !retry {
			return nil, err
		}
		log.Printf("[Catalog] Fetch attempt %d failed: %v", attempt+1, err)
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// fetch performs one request. The bool reports whether the failure is retryable.
func (s *HTTPSource) fetch(ctx context.Context) ([]CardDetails, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, true, fmt.Errorf("failed to read response body: %w", err)
		}
		var cards []CardDetails
		if err := json.Unmarshal(body, &cards); err != nil {
			return nil, false, fmt.Errorf("failed to parse JSON response: %w", err)
		}
		return cards, false, nil

	case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("catalog request failed with status %d", resp.StatusCode)

	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, false, fmt.Errorf("catalog request failed with status %d: %s", resp.StatusCode, string(body))
	}
}
