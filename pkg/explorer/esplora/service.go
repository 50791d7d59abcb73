package esplora

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/ratelimit"

	"github.com/dandanlen/xpub-scan/pkg/circuitbreaker"
	"github.com/dandanlen/xpub-scan/pkg/explorer"
	"github.com/dandanlen/xpub-scan/pkg/httputil"
)

const (
	// maxTxsPerAddress is the cap the shared provider applies to the
	// per-address transaction list.
	maxTxsPerAddress = 50
	// chainPageSize is the page size of the confirmed-transactions endpoint.
	chainPageSize = 25

	defaultRetryAttempts = 3
	defaultRetryDelay    = time.Second
)

type esplora struct {
	name          string
	apiURL        string
	apiKey        string
	capped        bool
	limiter       ratelimit.Limiter
	cb            *gobreaker.CircuitBreaker
	retryAttempts int
	retryDelay    time.Duration
}

// NewDefaultService returns the shared provider mode: rate limited and
// capped at the ~50 most recent transactions per address. retryAttempts
// bounds the retries of every request; values below 1 fall back to the
// default.
func NewDefaultService(
	apiURL string, requestsPerSecond, retryAttempts int,
) (explorer.Service, error) {
	if retryAttempts < 1 {
		retryAttempts = defaultRetryAttempts
	}
	service := &esplora{
		name:          "default",
		apiURL:        apiURL,
		capped:        true,
		limiter:       ratelimit.New(requestsPerSecond),
		cb:            circuitbreaker.NewCircuitBreaker("esplora-default"),
		retryAttempts: retryAttempts,
		retryDelay:    defaultRetryDelay,
	}

	if err := service.healthCheck(); err != nil {
		return nil, fmt.Errorf("health check: %w", err)
	}

	return service, nil
}

// NewCustomService returns the user-configured provider mode: uncapped, with
// the credential sent on every request.
func NewCustomService(apiURL, apiKey string, retryAttempts int) (explorer.Service, error) {
	if retryAttempts < 1 {
		retryAttempts = defaultRetryAttempts
	}
	service := &esplora{
		name:          "custom",
		apiURL:        apiURL,
		apiKey:        apiKey,
		limiter:       ratelimit.NewUnlimited(),
		cb:            circuitbreaker.NewCircuitBreaker("esplora-custom"),
		retryAttempts: retryAttempts,
		retryDelay:    defaultRetryDelay,
	}

	if err := service.healthCheck(); err != nil {
		return nil, fmt.Errorf("health check: %w", err)
	}

	return service, nil
}

func (e *esplora) Name() string { return e.name }

func (e *esplora) URL() string { return e.apiURL }

func (e *esplora) Capped() bool { return e.capped }

func (e *esplora) healthCheck() error {
	url := fmt.Sprintf("%s/blocks/tip/height", e.apiURL)
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	e.limiter.Take()
	status, resp, err := httputil.Get(ctx, url, e.headers())
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("status %d: %s", status, resp)
	}
	return nil
}

func (e *esplora) headers() map[string]string {
	if e.apiKey == "" {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + e.apiKey}
}

// getWithRetry performs a GET with bounded backoff. Timeouts, rate-limit
// responses, server errors and malformed bodies are retried; once the retry
// budget is exhausted the error wraps explorer.ErrProviderUnavailable so the
// caller marks the address unknown instead of inactive.
func (e *esplora) getWithRetry(ctx context.Context, url string) (string, error) {
	var lastErr error
	delay := e.retryDelay

	for attempt := 0; attempt < e.retryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		e.limiter.Take()
		res, err := e.cb.Execute(func() (interface{}, error) {
			status, resp, err := httputil.Get(ctx, url, e.headers())
			if err != nil {
				return nil, err
			}
			if status == http.StatusTooManyRequests || status >= http.StatusInternalServerError {
				return nil, fmt.Errorf("status %d: %s", status, resp)
			}
			if status != http.StatusOK {
				return nil, fmt.Errorf("%w: status %d: %s", errPermanent, status, resp)
			}
			return resp, nil
		})
		if err == nil {
			return res.(string), nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if errors.Is(err, errPermanent) || errors.Is(err, gobreaker.ErrOpenState) {
			return "", fmt.Errorf("%w: %v", explorer.ErrProviderUnavailable, err)
		}
		lastErr = err
	}

	return "", fmt.Errorf("%w: %v", explorer.ErrProviderUnavailable, lastErr)
}

var errPermanent = errors.New("permanent provider error")
