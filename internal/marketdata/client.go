package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/eddiefleurent/fno_tracker/internal/models"
)

const (
	optionChainPath  = "/api/option-chain-indices"
	browserUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	maxErrorBody     = 64 << 10
)

// HistoryFunc returns the recent daily closes of a ticker, oldest first.
type HistoryFunc func(ctx context.Context, ticker string) ([]float64, error)

// ClientConfig configures a Client.
type ClientConfig struct {
	BaseURL   string
	Timeout   time.Duration
	RateLimit float64 // requests per second against the exchange
	VIXSymbol string
	// History overrides the Yahoo lookup; nil uses go-yfinance.
	History HistoryFunc
	Logger  *logrus.Entry
}

// Client talks to the exchange website for option chains and the volatility
// index, and to Yahoo Finance for the global basket.
type Client struct {
	client    *http.Client
	baseURL   string
	vixSymbol string
	limiter   *rate.Limiter
	history   HistoryFunc
	log       *logrus.Entry

	mu     sync.Mutex
	warmed bool
}

// NewClient creates a client with its own cookie jar.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 1
	}
	if cfg.History == nil {
		cfg.History = YahooHistory
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.NewEntry(logrus.StandardLogger())
	}

	return &Client{
		client:    &http.Client{Timeout: cfg.Timeout, Jar: jar},
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		vixSymbol: cfg.VIXSymbol,
		limiter:   rate.NewLimiter(rate.Limit(cfg.RateLimit), 1),
		history:   cfg.History,
		log:       cfg.Logger.WithField("component", "marketdata"),
	}, nil
}

// FetchOptionChain downloads the option chain of an index.
func (c *Client) FetchOptionChain(ctx context.Context, symbol string) (*models.OptionChain, error) {
	var chain models.OptionChain
	if err := c.getOptionChain(ctx, symbol, &chain); err != nil {
		return nil, fmt.Errorf("fetching %s option chain: %w", symbol, err)
	}
	if len(chain.Records.Data) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, ErrEmptyChain)
	}
	return &chain, nil
}

// FetchVolatilityIndex returns the underlying value reported on the
// volatility index's option-chain endpoint.
func (c *Client) FetchVolatilityIndex(ctx context.Context) (float64, error) {
	var chain models.OptionChain
	if err := c.getOptionChain(ctx, c.vixSymbol, &chain); err != nil {
		return 0, fmt.Errorf("fetching %s: %w", c.vixSymbol, err)
	}
	if chain.Records.UnderlyingValue <= 0 {
		return 0, fmt.Errorf("%s: no underlying value in response", c.vixSymbol)
	}
	return chain.Records.UnderlyingValue, nil
}

// FetchGlobalIndices computes each member's move from its last two closes.
func (c *Client) FetchGlobalIndices(ctx context.Context, basket []GlobalIndex) map[string]GlobalQuote {
	out := make(map[string]GlobalQuote, len(basket))
	for _, gi := range basket {
		closes, err := c.history(ctx, gi.Ticker)
		if err != nil {
			c.log.WithError(err).WithField("ticker", gi.Ticker).Warn("global index unavailable")
			out[gi.Name] = GlobalQuote{Err: err.Error()}
			continue
		}
		out[gi.Name] = QuoteFromCloses(closes)
	}
	return out
}

func (c *Client) getOptionChain(ctx context.Context, symbol string, out interface{}) error {
	if err := c.warmup(ctx); err != nil {
		return err
	}
	endpoint := c.baseURL + optionChainPath + "?" + url.Values{"symbol": {symbol}}.Encode()
	err := c.makeRequestCtx(ctx, endpoint, out)

	var apiErr *APIError
	if errors.As(err, &apiErr) && (apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden) {
		// session expired; the next call warms up again
		c.mu.Lock()
		c.warmed = false
		c.mu.Unlock()
	}
	return err
}

// warmup visits the home page once so the jar holds the session cookies the
// API endpoints require.
func (c *Client) warmup(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.warmed {
		return nil
	}
	if err := c.makeRequestCtx(ctx, c.baseURL+"/", nil); err != nil {
		return fmt.Errorf("session warm-up: %w", err)
	}
	c.warmed = true
	c.log.Debug("exchange session established")
	return nil
}

// makeRequestCtx performs a rate-limited GET and decodes a JSON body into
// response. A nil response discards the body.
func (c *Client) makeRequestCtx(ctx context.Context, endpoint string, response interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Referer", c.baseURL+"/")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.log.WithError(err).Debug("failed to close response body")
		}
	}()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if err != nil {
			return &APIError{Status: resp.StatusCode, Body: fmt.Sprintf("GET %s -> failed to read error body", endpoint)}
		}
		return &APIError{Status: resp.StatusCode, Body: fmt.Sprintf("GET %s -> %s", endpoint, strings.TrimSpace(string(body)))}
	}

	if response == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(response); err != nil && err != io.EOF {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
