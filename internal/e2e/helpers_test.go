package e2e

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/remyxai/remyxai-cli/internal/app"
	"github.com/remyxai/remyxai-cli/internal/config"
	"github.com/remyxai/remyxai-cli/internal/deploy"
)

// memBackend runs every started stack as the same mock KServe server.
type memBackend struct {
	endpoint string

	mu     sync.Mutex
	stacks map[string]bool
	starts int
	stops  int
}

func newMemBackend(endpoint string) *memBackend {
	return &memBackend{endpoint: endpoint, stacks: map[string]bool{}}
}

func (b *memBackend) Start(_ context.Context, target deploy.DeploymentTarget) (deploy.Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stacks[target.ModelName] = true
	b.starts++
	return deploy.Handle{Model: target.ModelName, Endpoint: b.endpoint}, nil
}

func (b *memBackend) Stop(_ context.Context, h deploy.Handle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.stacks, h.Model)
	b.stops++
	return nil
}

func (b *memBackend) Lookup(_ context.Context, model string) (*deploy.Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.stacks[model] {
		return nil, nil
	}
	return &deploy.Handle{Model: model, Endpoint: b.endpoint}, nil
}

func (b *memBackend) Health(context.Context, deploy.Handle) (deploy.StackHealth, error) {
	return deploy.StackHealth{State: deploy.StackRunning}, nil
}

func (b *memBackend) Models(context.Context) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []string
	for m := range b.stacks {
		out = append(out, m)
	}
	return out, nil
}

// warmupProber fails until it has been called `after` times for an endpoint.
type warmupProber struct {
	after int

	mu    sync.Mutex
	calls int
}

func (p *warmupProber) Probe(context.Context, string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.calls < p.after {
		return &httpStatusError{code: http.StatusServiceUnavailable}
	}
	return nil
}

func (p *warmupProber) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type httpStatusError struct{ code int }

func (e *httpStatusError) Error() string { return http.StatusText(e.code) }

// newKServe answers every infer call with "echo: <prompt>" after delay.
func newKServe(t *testing.T, delay time.Duration) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/infer") {
			w.WriteHeader(http.StatusOK)
			return
		}
		var body struct {
			ID     string `json:"id"`
			Inputs []struct {
				Name string   `json:"name"`
				Data []string `json:"data"`
			} `json:"inputs"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.Inputs) == 0 || len(body.Inputs[0].Data) == 0 {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "bad request"})
			return
		}
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":            body.ID,
			"model_name":    "my-llm",
			"model_version": "1",
			"outputs": []map[string]any{{
				"name": "RESULTS", "datatype": "BYTES", "shape": []int{1},
				"data": []string{"echo: " + body.Inputs[0].Data[0]},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

// newApp builds an App whose kinds come from config so nothing leaves the host.
func newApp(t *testing.T, b *memBackend, p deploy.Prober) *app.App {
	t.Helper()
	cfg := config.Default()
	cfg.DeployDir = t.TempDir()
	cfg.ReadyTimeout = config.Duration(5 * time.Second)
	cfg.ProbeInterval = config.Duration(5 * time.Millisecond)
	cfg.ProbeMaxInterval = config.Duration(20 * time.Millisecond)
	cfg.ProbeTimeout = config.Duration(500 * time.Millisecond)
	cfg.ModelKinds = map[string]string{"my-llm": "generate", "my-classifier": "classify"}
	require.NoError(t, cfg.Normalize())

	a, err := app.NewWithOverrides(cfg, zerolog.Nop(), app.Overrides{Backend: b, Lister: b, Prober: p})
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a
}
