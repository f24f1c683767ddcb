package harvest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	AcceptHTML  = "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8"
	AcceptImage = "image/avif,image/webp,image/apng,image/*,*/*;q=0.8"
)

// Response is a successful (2xx) fetch. The caller must close Body.
type Response struct {
	URL           string
	StatusCode    int
	ContentType   string
	ContentLength int64
	Body          io.ReadCloser
}

// Fetcher issues GET requests. Non-2xx responses are reported as errors.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL, accept string) (*Response, error)
}

// HTTPFetcher is the Fetcher used against real sites.
type HTTPFetcher struct {
	client  *http.Client
	limiter *rate.Limiter
	metrics *Metrics
}

// NewHTTPFetcher wraps c. A positive rps caps the request rate across all
// fetches; zero leaves it unbounded.
func NewHTTPFetcher(c *http.Client, rps float64, m *Metrics) *HTTPFetcher {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}

	return &HTTPFetcher{
		client:  c,
		limiter: rate.NewLimiter(limit, 1),
		metrics: m,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL, accept string) (*Response, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	f.metrics.ObserveDuration(time.Since(start))
	if err != nil {
		return nil, classifyError(err, 0)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_ = resp.Body.Close()
		return nil, classifyError(nil, resp.StatusCode)
	}

	final := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		final = resp.Request.URL.String()
	}

	return &Response{
		URL:           final,
		StatusCode:    resp.StatusCode,
		ContentType:   resp.Header.Get("Content-Type"),
		ContentLength: resp.ContentLength,
		Body:          resp.Body,
	}, nil
}
