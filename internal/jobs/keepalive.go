package jobs

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/toppizza/backend/internal/circuitbreaker"
)

// Keepalive periodically GETs a URL (normally the service's own health
// endpoint) so free-tier hosting doesn't idle the process out. Failures are
// logged and never stop the loop.
type Keepalive struct {
	url      string
	interval time.Duration
	client   *http.Client
	breaker  *circuitbreaker.Breaker
	logger   *logrus.Logger
}

func NewKeepalive(url string, interval time.Duration, logger *logrus.Logger) *Keepalive {
	return &Keepalive{
		url:      url,
		interval: interval,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		breaker: circuitbreaker.New("keepalive", 3, 5*time.Minute, logger),
		logger:  logger,
	}
}

func (k *Keepalive) Run(ctx context.Context) {
	ticker := time.NewTicker(k.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			k.logger.Info("Keepalive job stopped")
			return
		case <-ticker.C:
			err := k.breaker.Do(func() error {
				return k.ping(ctx)
			})
			if err != nil {
				k.logger.WithError(err).Error("Keepalive ping failed")
				continue
			}
			k.logger.WithField("url", k.url).Info("Keepalive ping succeeded")
		}
	}
}

func (k *Keepalive) ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, k.url, nil)
	if err != nil {
		return fmt.Errorf("failed to build keepalive request: %w", err)
	}

	resp, err := k.client.Do(req)
	if err != nil {
		return fmt.Errorf("keepalive request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("keepalive target returned status %d", resp.StatusCode)
	}
	return nil
}
