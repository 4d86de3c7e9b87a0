package deploy

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/remyxai/remyxai-cli/internal/common/netutil"
)

// HTTPProber probes the KServe v2 server readiness endpoint.
type HTTPProber struct {
	client *http.Client
	path   string
}

// NewHTTPProber returns a prober for GET /v2/health/ready.
func NewHTTPProber() *HTTPProber {
	// Timeout=0: every probe carries a context deadline.
	return &HTTPProber{client: &http.Client{Timeout: 0}, path: "/v2/health/ready"}
}

// Probe returns nil when the endpoint answers 2xx.
func (p *HTTPProber) Probe(ctx context.Context, endpoint string) error {
	if endpoint == "" {
		return fmt.Errorf("health probe: no endpoint")
	}
	url := netutil.BaseURL(endpoint) + p.path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("health probe %s: %s", url, resp.Status)
	}
	return nil
}
