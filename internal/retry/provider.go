// Package retry retries transient market data failures with jittered
// exponential backoff.
package retry

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eddiefleurent/fno_tracker/internal/marketdata"
	"github.com/eddiefleurent/fno_tracker/internal/models"
)

type Config struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

var DefaultConfig = Config{
	MaxRetries:     3,
	InitialBackoff: 1 * time.Second,
	MaxBackoff:     30 * time.Second,
}

// Provider retries option-chain and volatility-index fetches of the wrapped
// provider. Global indices are passed through since their failures are
// already reported per member.
type Provider struct {
	provider marketdata.Provider
	log      *logrus.Entry
	config   Config
	// sleep waits for d or until ctx is done; replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

var _ marketdata.Provider = (*Provider)(nil)

func NewProvider(provider marketdata.Provider, log *logrus.Entry, config ...Config) *Provider {
	cfg := DefaultConfig
	if len(config) > 0 {
		cfg = config[0]
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	return &Provider{
		provider: provider,
		log:      log.WithField("component", "retry"),
		config:   cfg,
		sleep:    sleepCtx,
	}
}

func (p *Provider) FetchOptionChain(ctx context.Context, symbol string) (*models.OptionChain, error) {
	return do(ctx, p, "option chain "+symbol, func() (*models.OptionChain, error) {
		return p.provider.FetchOptionChain(ctx, symbol)
	})
}

func (p *Provider) FetchVolatilityIndex(ctx context.Context) (float64, error) {
	return do(ctx, p, "volatility index", func() (float64, error) {
		return p.provider.FetchVolatilityIndex(ctx)
	})
}

func (p *Provider) FetchGlobalIndices(ctx context.Context, basket []marketdata.GlobalIndex) map[string]marketdata.GlobalQuote {
	return p.provider.FetchGlobalIndices(ctx, basket)
}

func do[T any](ctx context.Context, p *Provider, what string, fn func() (T, error)) (T, error) {
	var (
		zero    T
		lastErr error
	)
	backoff := p.config.InitialBackoff

	for attempt := 0; attempt <= p.config.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return zero, fmt.Errorf("operation canceled: %w", ctx.Err())
		}

		v, err := fn()
		if err == nil {
			if attempt > 0 {
				p.log.Infof("Fetched %s on attempt %d", what, attempt+1)
			}
			return v, nil
		}

		lastErr = err
		if !isTransientError(err) || attempt == p.config.MaxRetries {
			break
		}

		p.log.WithError(err).Warnf("Transient error fetching %s, retrying in %v (%d/%d)",
			what, backoff, attempt+1, p.config.MaxRetries)
		if err := p.sleep(ctx, backoff); err != nil {
			return zero, fmt.Errorf("operation canceled during backoff: %w", err)
		}
		backoff = p.calculateNextBackoff(backoff)
	}

	return zero, fmt.Errorf("fetching %s failed after %d attempts: %w", what, p.config.MaxRetries+1, lastErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Provider) calculateNextBackoff(currentBackoff time.Duration) time.Duration {
	backoff := time.Duration(float64(currentBackoff) * 1.5)
	if backoff > p.config.MaxBackoff {
		backoff = p.config.MaxBackoff
	}

	maxJitter := int64(backoff / 4)
	if maxJitter > 0 {
		jitterVal, err := rand.Int(rand.Reader, big.NewInt(maxJitter))
		if err != nil {
			p.log.WithError(err).Debug("Failed to generate jitter")
		} else {
			backoff += time.Duration(jitterVal.Int64())
		}
	}

	return backoff
}

func isTransientError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, marketdata.ErrEmptyChain) || errors.Is(err, context.Canceled) {
		return false
	}

	var apiErr *marketdata.APIError
	if errors.As(err, &apiErr) {
		// 401/403 usually mean the session cookies expired mid-run
		return apiErr.Status == http.StatusTooManyRequests ||
			apiErr.Status == http.StatusUnauthorized ||
			apiErr.Status == http.StatusForbidden ||
			apiErr.Status >= http.StatusInternalServerError
	}

	errStr := strings.ToLower(err.Error())

	transientPatterns := []string{
		"timeout",
		"deadline exceeded",
		"connection refused",
		"connection reset",
		"temporary failure",
		"server error",
		"rate limit",
		"eof",
		"network",
		"dns",
		"tcp",
	}

	for _, pattern := range transientPatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}
