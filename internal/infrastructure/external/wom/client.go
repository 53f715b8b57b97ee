package wom

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gielinor-events/bingo-hub/internal/domain/shared"
	"github.com/gielinor-events/bingo-hub/internal/domain/stats"
	"github.com/gielinor-events/bingo-hub/pkg/circuitbreaker"
	"github.com/gielinor-events/bingo-hub/pkg/logger"
	"github.com/gielinor-events/bingo-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// ClientConfig contains configuration for the Wise Old Man client.
type ClientConfig struct {
	// BaseURL is the WOM API base URL.
	BaseURL string

	// APIKey raises the rate limit tier when set.
	APIKey string

	// UserAgent identifies this service to WOM, as their API guidelines ask.
	UserAgent string

	// Timeout is the HTTP request timeout.
	Timeout time.Duration

	// RateLimiterConfig for API rate limiting.
	RateLimiterConfig RateLimiterConfig

	// Logger for structured logging.
	Logger *logger.Logger
}

// DefaultClientConfig returns sensible defaults for the public WOM API.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		BaseURL:           "https://api.wiseoldman.net/v2",
		UserAgent:         "bingo-hub",
		Timeout:           15 * time.Second,
		RateLimiterConfig: DefaultRateLimiterConfig(),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client is the Wise Old Man API client. It implements stats.Provider with
// rate limiting, retries, and a circuit breaker in front of the HTTP calls.
type Client struct {
	config         ClientConfig
	httpClient     *http.Client
	log            *logger.Logger
	rateLimiter    *RateLimiter
	circuitBreaker *circuitbreaker.CircuitBreaker
	retrier        *retry.Retrier
}

// NewClient creates a new WOM client.
func NewClient(config ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = logger.Default()
	}
	if config.APIKey != "" && config.RateLimiterConfig == (RateLimiterConfig{}) {
		config.RateLimiterConfig = KeyedRateLimiterConfig()
	}

	log := config.Logger.With(logger.Component("wom"))
	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		log:        log,
		rateLimiter: NewRateLimiter(config.RateLimiterConfig),
		circuitBreaker: circuitbreaker.StatsAPIBreaker(func(name string, from, to circuitbreaker.State) {
			log.Warn("circuit state changed",
				logger.String("breaker", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()))
		}),
		retrier: retry.StatsAPIRetrier(),
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// stats.Provider
// ─────────────────────────────────────────────────────────────────────────────

// FetchSnapshot returns the player's latest snapshot: skills and bosses from
// the player details payload, achievements from a second request. An
// achievements failure degrades to a snapshot without achievements rather
// than failing the whole fetch.
func (c *Client) FetchSnapshot(ctx context.Context, player string) (*stats.PlayerSnapshot, error) {
	var dto PlayerDTO
	path := "/players/" + url.PathEscape(player)
	if err := c.doRequest(ctx, http.MethodGet, path, &dto); err != nil {
		return nil, err
	}

	var achievements []AchievementDTO
	if err := c.doRequest(ctx, http.MethodGet, path+"/achievements", &achievements); err != nil {
		c.log.Warn("achievements fetch failed, snapshot degrades",
			logger.PlayerName(player), logger.Err(err))
		achievements = nil
	}

	return toSnapshot(&dto, achievements), nil
}

// RequestUpdate asks WOM to re-poll the hiscores for the player.
func (c *Client) RequestUpdate(ctx context.Context, player string) error {
	path := "/players/" + url.PathEscape(player)
	return c.doRequest(ctx, http.MethodPost, path, nil)
}

// ─────────────────────────────────────────────────────────────────────────────
// HTTP plumbing
// ─────────────────────────────────────────────────────────────────────────────

// doRequest runs one API call through the circuit breaker, retrier, and rate
// limiter, translating transport failures into the stats error taxonomy.
func (c *Client) doRequest(ctx context.Context, method, path string, result interface{}) error {
	err := c.circuitBreaker.Execute(ctx, func(ctx context.Context) error {
		return c.retrier.Do(ctx, func(ctx context.Context) error {
			if err := c.rateLimiter.Allow(ctx); err != nil {
				return retry.Permanent(err)
			}
			return c.doSingleRequest(ctx, method, path, result)
		})
	})
	if err != nil {
		if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
			return shared.ErrStatsUnavailable
		}
		return err
	}
	return nil
}

func (c *Client) doSingleRequest(ctx context.Context, method, path string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, nil)
	if err != nil {
		return retry.Permanent(fmt.Errorf("create request: %w", err))
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.config.UserAgent)
	if c.config.APIKey != "" {
		req.Header.Set("x-api-key", c.config.APIKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return retry.Retryable(shared.ErrStatsTimeout)
		}
		return retry.Retryable(shared.WrapError("stats", "Fetch", shared.ErrServiceUnavailable, "http request", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return retry.Retryable(shared.WrapError("stats", "Fetch", shared.ErrServiceUnavailable, "read response", err))
	}

	c.log.Debug("wom request",
		logger.String("method", method),
		logger.String("path", path),
		logger.Int("status", resp.StatusCode),
		logger.Latency(time.Since(start)))

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return retry.Permanent(shared.ErrPlayerNotFound)
	case resp.StatusCode == http.StatusTooManyRequests:
		retryAfter := time.Minute
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if seconds, err := strconv.Atoi(ra); err == nil {
				retryAfter = time.Duration(seconds) * time.Second
			}
		}
		c.rateLimiter.RecordRateLimitHit(retryAfter)
		// Not retried in-request: the pause typically outlives the attempt window.
		return retry.Permanent(shared.ErrStatsRateLimited)
	case resp.StatusCode >= 500:
		return retry.Retryable(shared.ErrStatsUnavailable)
	case resp.StatusCode >= 400:
		var apiErr APIErrorDTO
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Message != "" {
			return retry.Permanent(&apiErr)
		}
		return retry.Permanent(fmt.Errorf("wom api error: status %d", resp.StatusCode))
	}

	if result != nil && len(respBody) > 0 {
		decoder := json.NewDecoder(bytes.NewReader(respBody))
		if err := decoder.Decode(result); err != nil {
			return retry.Permanent(shared.WrapError("stats", "Parse", shared.ErrInvalidFormat, "decode response", err))
		}
	}
	return nil
}
