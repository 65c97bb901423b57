package esi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/asteroid-belt/eveuniverse/internal/cache"
	"github.com/asteroid-belt/eveuniverse/internal/log"
	"github.com/asteroid-belt/eveuniverse/internal/metrics"
)

const (
	// DefaultBaseURL is the public ESI endpoint.
	DefaultBaseURL = "https://esi.evetech.net/latest"

	// DefaultRateLimit is requests per second.
	DefaultRateLimit = 20

	breakerName = "esi"
)

// BreakerConfig tunes the circuit breaker around remote calls.
type BreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

// Config holds HTTP client options.
type Config struct {
	BaseURL    string
	Datasource string
	RateLimit  float64
	Timeout    time.Duration
	UserAgent  string
	CacheTTL   time.Duration
	Breaker    BreakerConfig
}

// HTTPClient implements Client over HTTP with rate limiting, a circuit
// breaker and a response cache.
type HTTPClient struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[[]byte]
	cache   cache.Cache
}

// NewHTTPClient creates a client. A nil cache disables response caching.
func NewHTTPClient(cfg Config, c cache.Cache) *HTTPClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = DefaultRateLimit
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Breaker.FailureThreshold == 0 {
		cfg.Breaker.FailureThreshold = 5
	}

	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: cfg.Breaker.MaxRequests,
		Interval:    cfg.Breaker.Interval,
		Timeout:     cfg.Breaker.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.Breaker.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Logger().Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
		},
		// A 404 is an answer, not a failure of the remote.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound)
		},
	})

	burst := int(cfg.RateLimit)
	if burst < 1 {
		burst = 1
	}

	return &HTTPClient{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), burst),
		breaker: breaker,
		cache:   c,
	}
}

// Object implements Client.
func (c *HTTPClient) Object(ctx context.Context, endpoint string, id int64) (map[string]any, error) {
	var out map[string]any
	if err := c.getJSON(ctx, ObjectPath(endpoint, id), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListObjects implements Client.
func (c *HTTPClient) ListObjects(ctx context.Context, endpoint string) ([]map[string]any, error) {
	var out []map[string]any
	if err := c.getJSON(ctx, endpoint, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListIDs implements Client.
func (c *HTTPClient) ListIDs(ctx context.Context, endpoint string) ([]int64, error) {
	var out []int64
	if err := c.getJSON(ctx, endpoint, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Names implements Client. Results are never cached.
func (c *HTTPClient) Names(ctx context.Context, ids []int64) ([]Name, error) {
	body, err := json.Marshal(ids)
	if err != nil {
		return nil, err
	}
	data, err := c.do(ctx, http.MethodPost, "/universe/names/", body)
	if err != nil {
		return nil, err
	}
	var out []Name
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode names: %w", err)
	}
	return out, nil
}

// Route implements Client.
func (c *HTTPClient) Route(ctx context.Context, origin, destination int64) ([]int64, error) {
	path := "/route/" + strconv.FormatInt(origin, 10) + "/" + strconv.FormatInt(destination, 10) + "/"
	var out []int64
	if err := c.getJSON(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MarketPrices implements Client.
func (c *HTTPClient) MarketPrices(ctx context.Context) ([]MarketPrice, error) {
	var out []MarketPrice
	if err := c.getJSON(ctx, "/markets/prices/", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) getJSON(ctx context.Context, path string, out any) error {
	key := cache.Key("esi", path)
	if c.cache != nil {
		if data, ok := c.cache.Get(key); ok {
			metrics.ESICacheHits.Inc()
			return json.Unmarshal(data, out)
		}
		metrics.ESICacheMisses.Inc()
	}

	data, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	if c.cache != nil && c.cfg.CacheTTL > 0 {
		if err := c.cache.Set(key, data, c.cfg.CacheTTL); err != nil {
			log.Logger().Debug().Err(err).Str("path", path).Msg("cache write failed")
		}
	}
	return nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	data, err := c.breaker.Execute(func() ([]byte, error) {
		return c.roundTrip(ctx, method, path, body)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.ESIRequests.WithLabelValues(method, "rejected").Inc()
			return nil, fmt.Errorf("esi %s %s: %w", method, path, err)
		}
		return nil, err
	}
	return data, nil
}

func (c *HTTPClient) roundTrip(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	u, err := url.Parse(c.cfg.BaseURL + path)
	if err != nil {
		return nil, fmt.Errorf("build url: %w", err)
	}
	if c.cfg.Datasource != "" {
		q := u.Query()
		q.Set("datasource", c.cfg.Datasource)
		u.RawQuery = q.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ESIRequests.WithLabelValues(method, "error").Inc()
		return nil, fmt.Errorf("esi %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	metrics.ESIRequests.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Inc()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%s %s: %w", method, path, ErrNotFound)
	case resp.StatusCode >= 400:
		return nil, &StatusError{Method: method, Path: path, Code: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}
