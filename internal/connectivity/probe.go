package connectivity

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"
)

// Probe checks reachability once.
type Probe func(ctx context.Context) bool

// HTTPProbe reports online when a HEAD request to url gets any response
// below 500 within timeout.
func HTTPProbe(url string, timeout time.Duration) Probe {
	client := &http.Client{Timeout: timeout}
	return func(ctx context.Context) bool {
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
		if err != nil {
			return false
		}
		resp, err := client.Do(req)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode < http.StatusInternalServerError
	}
}

// Watch runs probe every interval and feeds the result into m until ctx is
// done. The first probe runs immediately.
func (m *Monitor) Watch(ctx context.Context, interval time.Duration, probe Probe) error {
	if interval <= 0 {
		return fmt.Errorf("probe interval must be positive, got %s", interval)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if m.Set(probe(ctx)) {
			log.Printf("[NET] Connectivity changed: online=%t", m.Online())
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
