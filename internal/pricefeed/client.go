// Package pricefeed looks up the last traded price of an asset so new trades
// can be pre-filled. Nothing in the valuation path depends on it.
package pricefeed

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"trade-journal-go/internal/config"
)

const maxRetries = 3

// Lookup resolves an asset label to its current price. A nil price with a nil
// error means the market does not know the asset.
type Lookup interface {
	LookupPrice(ctx context.Context, asset string) (*float64, error)
}

// StatusError is a non-retryable HTTP failure.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request failed with status %d: %s", e.Code, e.Body)
}

// Client queries a Binance-compatible /ticker/price endpoint.
type Client struct {
	client  *resty.Client
	quote   string
	logger  *zap.Logger
	limiter *rate.Limiter
	backoff time.Duration
}

// ensure Client implements the interface
var _ Lookup = (*Client)(nil)

// NewClient creates a price client. quote is appended to asset labels to form
// the market symbol, e.g. BTC + USDT.
func NewClient(cfg *config.PriceFeed, quote string, logger *zap.Logger) *Client {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout)

	// rate.Limit is requests per second.
	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst)

	return &Client{
		client:  client,
		quote:   strings.ToUpper(quote),
		logger:  logger.Named("pricefeed"),
		limiter: limiter,
		backoff: time.Second,
	}
}

// TickerPrice is the /ticker/price response for one symbol.
type TickerPrice struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

// Symbol turns a journal asset label into a market symbol: direction words
// and separators are dropped, the rest upper-cased, and the quote currency
// appended unless already present. "eth short" becomes "ETHUSDT".
func Symbol(asset, quote string) string {
	quote = strings.ToUpper(quote)
	var b strings.Builder
	for _, f := range strings.FieldsFunc(asset, func(r rune) bool {
		return r == ' ' || r == '/' || r == '-' || r == '_'
	}) {
		switch f = strings.ToUpper(f); f {
		case "LONG", "SHORT":
			continue
		}
		b.WriteString(f)
	}
	base := b.String()
	if base == "" {
		return ""
	}
	if quote != "" && !(strings.HasSuffix(base, quote) && len(base) > len(quote)) {
		base += quote
	}
	return base
}

// LookupPrice returns the latest price of asset, or nil when the market has no
// such symbol.
func (c *Client) LookupPrice(ctx context.Context, asset string) (*float64, error) {
	symbol := Symbol(asset, c.quote)
	if symbol == "" {
		return nil, nil
	}

	req := c.client.R().
		SetContext(ctx).
		SetQueryParam("symbol", symbol).
		SetResult(&TickerPrice{})

	resp, err := c.doRequest(ctx, http.MethodGet, "/ticker/price", req)
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.Code == http.StatusBadRequest {
			c.logger.Debug("Unknown symbol", zap.String("symbol", symbol))
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get price for %s: %w", symbol, err)
	}

	result := resp.Result().(*TickerPrice)
	price, err := strconv.ParseFloat(result.Price, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid price %q for %s: %w", result.Price, symbol, err)
	}
	return &price, nil
}

// doRequest handles the actual request execution with rate limiting and retry logic.
func (c *Client) doRequest(ctx context.Context, method, url string, req *resty.Request) (*resty.Response, error) {
	var resp *resty.Response
	var err error

	for i := 0; i < maxRetries; i++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}

		c.logger.Debug("Executing request", zap.String("method", method), zap.String("url", c.client.BaseURL+url))
		resp, err = req.Execute(method, url)

		if err == nil && !resp.IsError() {
			return resp, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		shouldRetry := false
		var retryAfter time.Duration

		if err == nil {
			statusCode := resp.StatusCode()
			if statusCode == http.StatusTooManyRequests || statusCode == http.StatusTeapot {
				shouldRetry = true
				if seconds, convErr := strconv.Atoi(resp.Header().Get("Retry-After")); convErr == nil {
					retryAfter = time.Duration(seconds) * time.Second
				}
			} else if statusCode >= 500 {
				shouldRetry = true
			}
			err = &StatusError{Code: statusCode, Body: resp.String()}
		} else { // Network or other client-side errors
			shouldRetry = true
		}

		if !shouldRetry {
			return nil, err
		}
		if i == maxRetries-1 {
			break
		}

		// Exponential backoff: 1s, 2s, 4s
		if retryAfter == 0 {
			retryAfter = time.Duration(math.Pow(2, float64(i))) * c.backoff
		}

		c.logger.Warn("Request failed, retrying...",
			zap.Int("attempt", i+1),
			zap.Duration("retry_after", retryAfter),
			zap.Error(err),
		)

		select {
		case <-time.After(retryAfter):
			continue
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", maxRetries, err)
}
